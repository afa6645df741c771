package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// ConfigStore loads and scaffolds the comparison configuration.
type ConfigStore interface {
	// Load reads, parses, and validates a mapping file. Any structural
	// problem surfaces as a model.ConfigurationError before a run starts.
	Load(path m.Path) (m.Config, error)

	// WriteDefault writes a starter mapping file. It refuses to overwrite.
	WriteDefault(path m.Path) error
}

// FileConfigStore is the yaml-backed ConfigStore implementation.
//
// Groups, forms, and fields keep the document order of the file because
// report ordering follows configuration ordering. Plain map decoding would
// lose it, so the mapping levels walk yaml.Node contents directly.
type FileConfigStore struct{}

// NewFileConfigStore creates a FileConfigStore.
func NewFileConfigStore() *FileConfigStore {
	return &FileConfigStore{}
}

// Load implements ConfigStore.
func (s *FileConfigStore) Load(path m.Path) (m.Config, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.Config{}, &m.ConfigurationError{Reason: fmt.Sprintf("cannot read mapping file %s: %v", path, err)}
	}

	return s.parse(data)
}

func (s *FileConfigStore) parse(data []byte) (m.Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return m.Config{}, &m.ConfigurationError{Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}

	if len(root.Content) == 0 {
		return m.Config{}, &m.ConfigurationError{Reason: "empty mapping file"}
	}

	top, err := mappingEntries(root.Content[0])
	if err != nil {
		return m.Config{}, &m.ConfigurationError{Reason: err.Error()}
	}

	var (
		cfg         m.Config
		haveMapping bool
	)

	cfg.Settings = defaultSettings()

	for _, entry := range top {
		switch entry.key {
		case "scenarios":
			if err := decodeScenarios(entry.node, &cfg); err != nil {
				return m.Config{}, err
			}
		case "field_mappings":
			haveMapping = true

			if err := decodeFieldMappings(entry.node, &cfg); err != nil {
				return m.Config{}, err
			}
		case "semantic_rules":
			if err := decodeSemanticRules(entry.node, &cfg); err != nil {
				return m.Config{}, err
			}
		case "comparison_settings":
			if err := decodeSettings(entry.node, &cfg); err != nil {
				return m.Config{}, err
			}
		default:
			return m.Config{}, &m.ConfigurationError{Section: entry.key, Reason: "unknown top-level section"}
		}
	}

	if !haveMapping {
		return m.Config{}, &m.ConfigurationError{Section: "field_mappings", Reason: "section is required"}
	}

	if err := validate(cfg); err != nil {
		return m.Config{}, err
	}

	return cfg, nil
}

// WriteDefault implements ConfigStore.
func (s *FileConfigStore) WriteDefault(path m.Path) error {
	if _, err := os.Stat(string(path)); err == nil {
		return fmt.Errorf("mapping file %s already exists", path)
	}

	if err := os.WriteFile(string(path), []byte(defaultMappings), 0o644); err != nil {
		return fmt.Errorf("cannot write mapping file %s: %w", path, err)
	}

	return nil
}

const defaultMappings = `scenarios:
  - name: login
    legacy: http://localhost:8000/login
    modern: http://localhost:4200/login

field_mappings:
  forms:
    login:
      username:
        legacy: ["input[name='username']"]
        modern: ["input[formcontrolname='username']"]
      password:
        legacy: ["input[name='password']"]
        modern: ["input[formcontrolname='password']"]
      submit:
        legacy: ["input[type='submit']", "button:contains('Login')"]
        modern: ["button[type='submit']"]
  navigation:
    home_link:
      legacy: ["a:contains('Home')"]
      modern: ["a[routerlink='/home']"]
      required: false
  actions: {}
  data_display: {}

semantic_rules:
  field_types:
    text_input: ["input[type='text']", "input:not([type])"]
    email_input: ["input[type='email']"]
    password_input: ["input[type='password']"]
    checkbox: ["input[type='checkbox']"]
    radio: ["input[type='radio']"]
    select: ["select"]
    textarea: ["textarea"]
  button_types:
    primary_action: ["button[type='submit']", "input[type='submit']", ".btn-primary"]
    secondary_action: ["button[type='button']", ".btn-secondary"]
    link_action: ["a[role='button']", "a.btn"]

comparison_settings:
  field_count_tolerance: 2
  text_similarity_threshold: 0.8
  ignore_attributes: ["class", "style", "id"]
  structural_equivalence:
    - ["table", "grid", "datagrid"]
    - ["ul", "ol", "list"]
`

// yamlEntry is one key/value pair of a yaml mapping, in document order.
type yamlEntry struct {
	key  string
	node *yaml.Node
}

func mappingEntries(node *yaml.Node) ([]yamlEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at line %d", node.Line)
	}

	entries := make([]yamlEntry, 0, len(node.Content)/2)
	seen := make(map[string]struct{})

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("duplicate key %q at line %d", key, node.Content[i].Line)
		}

		seen[key] = struct{}{}
		entries = append(entries, yamlEntry{key: key, node: node.Content[i+1]})
	}

	return entries, nil
}

// stringList accepts a scalar or a sequence of scalars.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var value string
		if err := node.Decode(&value); err != nil {
			return err
		}

		*s = stringList{value}

		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}

		*s = stringList(values)

		return nil
	}

	return fmt.Errorf("expected a string or a list of strings at line %d", node.Line)
}

func decodeScenarios(node *yaml.Node, cfg *m.Config) error {
	var raw []struct {
		Name   string   `yaml:"name"`
		Legacy string   `yaml:"legacy"`
		Modern string   `yaml:"modern"`
		Groups []string `yaml:"groups"`
	}

	if err := node.Decode(&raw); err != nil {
		return &m.ConfigurationError{Section: "scenarios", Reason: err.Error()}
	}

	seen := make(map[string]struct{})

	for i, sc := range raw {
		if sc.Name == "" || sc.Legacy == "" || sc.Modern == "" {
			return &m.ConfigurationError{
				Section: "scenarios",
				Reason:  fmt.Sprintf("scenario %d needs name, legacy, and modern", i),
			}
		}

		if _, ok := seen[sc.Name]; ok {
			return &m.ConfigurationError{
				Section: "scenarios",
				Reason:  fmt.Sprintf("duplicate scenario name %q", sc.Name),
			}
		}

		seen[sc.Name] = struct{}{}

		cfg.Scenarios = append(cfg.Scenarios, m.Scenario{
			Name:   sc.Name,
			Legacy: m.Target(sc.Legacy),
			Modern: m.Target(sc.Modern),
			Groups: sc.Groups,
		})
	}

	return nil
}

func decodeFieldMappings(node *yaml.Node, cfg *m.Config) error {
	groups, err := mappingEntries(node)
	if err != nil {
		return &m.ConfigurationError{Section: "field_mappings", Reason: err.Error()}
	}

	for _, group := range groups {
		switch group.key {
		case "forms":
			forms, err := mappingEntries(group.node)
			if err != nil {
				return &m.ConfigurationError{Section: "field_mappings.forms", Reason: err.Error()}
			}

			for _, form := range forms {
				fields, err := decodeFields("field_mappings.forms."+form.key, form.node)
				if err != nil {
					return err
				}

				cfg.Forms = append(cfg.Forms, m.FormMapping{Name: form.key, Fields: fields})
			}
		case "navigation":
			fields, err := decodeFields("field_mappings.navigation", group.node)
			if err != nil {
				return err
			}

			cfg.Navigation = fields
		case "actions":
			fields, err := decodeFields("field_mappings.actions", group.node)
			if err != nil {
				return err
			}

			cfg.Actions = fields
		case "data_display":
			displays, err := decodeDisplays(group.node)
			if err != nil {
				return err
			}

			cfg.DataDisplay = displays
		default:
			return &m.ConfigurationError{
				Section: "field_mappings." + group.key,
				Reason:  "unknown group, expected forms, navigation, actions, or data_display",
			}
		}
	}

	return nil
}

func decodeFields(section string, node *yaml.Node) ([]m.FieldMapping, error) {
	entries, err := mappingEntries(node)
	if err != nil {
		return nil, &m.ConfigurationError{Section: section, Reason: err.Error()}
	}

	fields := make([]m.FieldMapping, 0, len(entries))

	for _, entry := range entries {
		field, err := decodeField(section+"."+entry.key, entry.key, entry.node)
		if err != nil {
			return nil, err
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func decodeField(section, name string, node *yaml.Node) (m.FieldMapping, error) {
	var raw struct {
		Legacy   stringList `yaml:"legacy"`
		Modern   stringList `yaml:"modern"`
		Required *bool      `yaml:"required"`
	}

	if err := node.Decode(&raw); err != nil {
		return m.FieldMapping{}, &m.ConfigurationError{Section: section, Reason: err.Error()}
	}

	legacy, err := parseSide(section, m.SideLegacy, raw.Legacy)
	if err != nil {
		return m.FieldMapping{}, err
	}

	modern, err := parseSide(section, m.SideModern, raw.Modern)
	if err != nil {
		return m.FieldMapping{}, err
	}

	required := true
	if raw.Required != nil {
		required = *raw.Required
	}

	return m.FieldMapping{
		Name:     name,
		Required: required,
		Legacy:   legacy,
		Modern:   modern,
	}, nil
}

// parseSide parses the locator strings of one side into clauses, unioned.
// Parsing happens here, once, so comparison never re-parses locators.
func parseSide(section string, side m.Side, raws stringList) (m.Locator, error) {
	locator := m.Locator{}
	for _, raw := range raws {
		locator = append(locator, m.ParseLocator(raw)...)
	}

	if len(locator) == 0 {
		return nil, &m.ConfigurationError{
			Section: section,
			Reason:  fmt.Sprintf("no %s locators", side),
		}
	}

	return locator, nil
}

func decodeDisplays(node *yaml.Node) ([]m.DisplayMapping, error) {
	entries, err := mappingEntries(node)
	if err != nil {
		return nil, &m.ConfigurationError{Section: "field_mappings.data_display", Reason: err.Error()}
	}

	displays := make([]m.DisplayMapping, 0, len(entries))

	for _, entry := range entries {
		section := "field_mappings.data_display." + entry.key

		container, err := decodeField(section, entry.key, entry.node)
		if err != nil {
			return nil, err
		}

		display := m.DisplayMapping{FieldMapping: container}

		items, err := mappingEntries(entry.node)
		if err != nil {
			return nil, &m.ConfigurationError{Section: section, Reason: err.Error()}
		}

		for _, item := range items {
			if item.key != "items" {
				continue
			}

			display.Items, err = decodeFields(section+".items", item.node)
			if err != nil {
				return nil, err
			}
		}

		displays = append(displays, display)
	}

	return displays, nil
}

func decodeSemanticRules(node *yaml.Node, cfg *m.Config) error {
	groups, err := mappingEntries(node)
	if err != nil {
		return &m.ConfigurationError{Section: "semantic_rules", Reason: err.Error()}
	}

	for _, group := range groups {
		rules, err := decodeRuleGroup("semantic_rules."+group.key, group.node)
		if err != nil {
			return err
		}

		switch group.key {
		case "field_types":
			cfg.Rules.FieldTypes = rules
		case "button_types":
			cfg.Rules.ButtonTypes = rules
		default:
			return &m.ConfigurationError{
				Section: "semantic_rules." + group.key,
				Reason:  "unknown rule group, expected field_types or button_types",
			}
		}
	}

	return nil
}

func decodeRuleGroup(section string, node *yaml.Node) ([]m.SemanticRule, error) {
	entries, err := mappingEntries(node)
	if err != nil {
		return nil, &m.ConfigurationError{Section: section, Reason: err.Error()}
	}

	rules := make([]m.SemanticRule, 0, len(entries))

	for _, entry := range entries {
		var patterns stringList
		if err := entry.node.Decode(&patterns); err != nil {
			return nil, &m.ConfigurationError{Section: section + "." + entry.key, Reason: err.Error()}
		}

		if len(patterns) == 0 {
			return nil, &m.ConfigurationError{Section: section + "." + entry.key, Reason: "category has no patterns"}
		}

		rules = append(rules, m.SemanticRule{Category: entry.key, Patterns: patterns})
	}

	return rules, nil
}

func decodeSettings(node *yaml.Node, cfg *m.Config) error {
	var raw struct {
		FieldCountTolerance     *int       `yaml:"field_count_tolerance"`
		TextSimilarityThreshold *float64   `yaml:"text_similarity_threshold"`
		IgnoreAttributes        []string   `yaml:"ignore_attributes"`
		StructuralEquivalence   [][]string `yaml:"structural_equivalence"`
	}

	if err := node.Decode(&raw); err != nil {
		return &m.ConfigurationError{Section: "comparison_settings", Reason: err.Error()}
	}

	if raw.FieldCountTolerance != nil {
		cfg.Settings.FieldCountTolerance = *raw.FieldCountTolerance
	}

	if raw.TextSimilarityThreshold != nil {
		cfg.Settings.TextSimilarityThreshold = *raw.TextSimilarityThreshold
	}

	if raw.IgnoreAttributes != nil {
		cfg.Settings.IgnoreAttributes = raw.IgnoreAttributes
	}

	if raw.StructuralEquivalence != nil {
		cfg.Settings.StructuralEquivalence = raw.StructuralEquivalence
	}

	return nil
}

func defaultSettings() m.ComparisonSettings {
	return m.ComparisonSettings{
		FieldCountTolerance:     2,
		TextSimilarityThreshold: 0.8,
		IgnoreAttributes:        []string{"class", "style", "id"},
		StructuralEquivalence: [][]string{
			{"table", "grid", "datagrid"},
			{"ul", "ol", "list"},
		},
	}
}

func validate(cfg m.Config) error {
	settings := cfg.Settings

	if settings.TextSimilarityThreshold < 0 || settings.TextSimilarityThreshold > 1 {
		return &m.ConfigurationError{
			Section: "comparison_settings",
			Reason:  fmt.Sprintf("text_similarity_threshold %v outside [0,1]", settings.TextSimilarityThreshold),
		}
	}

	if settings.FieldCountTolerance < 0 {
		return &m.ConfigurationError{
			Section: "comparison_settings",
			Reason:  fmt.Sprintf("field_count_tolerance %d is negative", settings.FieldCountTolerance),
		}
	}

	total := len(cfg.Navigation) + len(cfg.Actions) + len(cfg.DataDisplay)
	for _, form := range cfg.Forms {
		total += len(form.Fields)
	}

	if total == 0 {
		return &m.ConfigurationError{Section: "field_mappings", Reason: "no fields configured"}
	}

	return nil
}
