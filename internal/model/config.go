// Package model defines the data structures for semantic UI field comparison.
package model

import "strings"

// Side names one of the two compared renderings.
type Side string

const (
	// SideLegacy is the pre-migration rendering.
	SideLegacy Side = "legacy"
	// SideModern is the post-migration rendering.
	SideModern Side = "modern"
)

// FieldMapping binds a logical field name to its locators on both sides.
type FieldMapping struct {
	Name     string
	Required bool
	Legacy   Locator
	Modern   Locator
}

// Locator returns the clause list for the given side.
func (f FieldMapping) Locator(side Side) Locator {
	if side == SideModern {
		return f.Modern
	}

	return f.Legacy
}

// FormMapping groups the fields of one named form.
type FormMapping struct {
	Name   string
	Fields []FieldMapping
}

// DisplayMapping describes a data-display container (table, list, grid) and
// optional item-level sub-fields compared inside the matched containers.
type DisplayMapping struct {
	FieldMapping
	Items []FieldMapping
}

// SemanticRule is one named category with the locator patterns that admit an
// element into it. Categories are advisory, not exclusive.
type SemanticRule struct {
	Category string
	Patterns []string
}

// SemanticRules classifies resolved elements into functional categories,
// independent of which form they came from.
type SemanticRules struct {
	FieldTypes  []SemanticRule
	ButtonTypes []SemanticRule
}

// All returns field-type and button-type rules as a single list.
func (r SemanticRules) All() []SemanticRule {
	all := make([]SemanticRule, 0, len(r.FieldTypes)+len(r.ButtonTypes))
	all = append(all, r.FieldTypes...)
	all = append(all, r.ButtonTypes...)

	return all
}

// ComparisonSettings carries the scalar and collection comparison knobs.
type ComparisonSettings struct {
	FieldCountTolerance     int
	TextSimilarityThreshold float64
	IgnoreAttributes        []string
	StructuralEquivalence   [][]string
}

// AttributeIgnored reports whether the attribute is excluded from
// attribute-equality checks.
func (s ComparisonSettings) AttributeIgnored(name string) bool {
	for _, ignored := range s.IgnoreAttributes {
		if strings.EqualFold(ignored, name) {
			return true
		}
	}

	return false
}

// EquivalenceClass returns the index of the structural-equivalence class
// containing the token, if any.
func (s ComparisonSettings) EquivalenceClass(token string) (int, bool) {
	for i, class := range s.StructuralEquivalence {
		for _, member := range class {
			if strings.EqualFold(member, token) {
				return i, true
			}
		}
	}

	return 0, false
}

// Equivalent reports whether two tokens are equal or fall in the same
// structural-equivalence class.
func (s ComparisonSettings) Equivalent(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}

	classA, okA := s.EquivalenceClass(a)
	classB, okB := s.EquivalenceClass(b)

	return okA && okB && classA == classB
}

// Scenario names one legacy/modern document pair to compare. Groups optionally
// restricts which configured groups apply; empty means all.
type Scenario struct {
	Name   string
	Legacy Target
	Modern Target
	Groups []string
}

// Config is the immutable, validated comparison configuration. It is built
// once by the loader and shared read-only across concurrent runs.
type Config struct {
	Scenarios   []Scenario
	Forms       []FormMapping
	Navigation  []FieldMapping
	Actions     []FieldMapping
	DataDisplay []DisplayMapping
	Rules       SemanticRules
	Settings    ComparisonSettings
}

// FieldRef locates a field within the configuration. It is threaded through
// comparison calls so diagnostics carry the field path without any global
// state.
type FieldRef struct {
	Group string
	Form  string
	Field string
}

// Child returns a reference to a sub-field under the current field, used for
// item-level fields inside data-display containers.
func (r FieldRef) Child(name string) FieldRef {
	return FieldRef{Group: r.Group, Form: r.Field, Field: name}
}

func (r FieldRef) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Group, r.Form, r.Field} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ".")
}
