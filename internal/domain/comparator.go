package domain

import (
	"context"
	"fmt"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// unclassified is the category of elements no semantic rule admits. Two
// unclassified elements still share a category for pairing purposes.
const unclassified = "unclassified"

// Comparator resolves both sides of a field and pairs the resolved elements.
type Comparator interface {
	// CompareField produces the verdict for one logical field. Errors never
	// escape: resolution failures surface as an unresolved verdict.
	CompareField(ctx context.Context, ref m.FieldRef, field m.FieldMapping, legacy, modern adapter.Document) m.FieldVerdict

	// CompareDisplay produces the container verdict followed by item
	// verdicts. Items are only compared once the containers matched.
	CompareDisplay(ctx context.Context, ref m.FieldRef, display m.DisplayMapping, legacy, modern adapter.Document) []m.FieldVerdict
}

type comparator struct {
	resolver Resolver
	matcher  TextMatcher
	settings m.ComparisonSettings
	rules    []compiledRule
}

// compiledRule is a semantic category with its patterns compiled once.
type compiledRule struct {
	category  string
	selectors []adapter.Selector
}

// NewComparator compiles the semantic rules and returns a Comparator. A rule
// pattern outside the supported selector subset is a configuration error.
func NewComparator(rules m.SemanticRules, settings m.ComparisonSettings, resolver Resolver, matcher TextMatcher) (Comparator, error) {
	all := rules.All()
	compiled := make([]compiledRule, 0, len(all))

	for _, rule := range all {
		cr := compiledRule{category: rule.Category}

		for _, pattern := range rule.Patterns {
			selector, err := adapter.ParseSelector(pattern)
			if err != nil {
				return nil, &m.ConfigurationError{
					Section: "semantic_rules." + rule.Category,
					Reason:  err.Error(),
				}
			}

			cr.selectors = append(cr.selectors, selector)
		}

		compiled = append(compiled, cr)
	}

	return &comparator{
		resolver: resolver,
		matcher:  matcher,
		settings: settings,
		rules:    compiled,
	}, nil
}

// CompareField implements Comparator.
func (c *comparator) CompareField(ctx context.Context, ref m.FieldRef, field m.FieldMapping, legacy, modern adapter.Document) m.FieldVerdict {
	verdict := m.FieldVerdict{Field: field.Name, Path: ref.String(), Required: field.Required}

	legacyRes, err := c.resolver.Resolve(ctx, legacy, field.Legacy)
	if err != nil {
		return unresolved(verdict, m.SideLegacy, err)
	}

	modernRes, err := c.resolver.Resolve(ctx, modern, field.Modern)
	if err != nil {
		return unresolved(verdict, m.SideModern, err)
	}

	legacyCats := c.categorize(legacyRes.Descriptors)
	modernCats := c.categorize(modernRes.Descriptors)

	c.fill(&verdict, legacyRes, modernRes, func(i, j int) bool {
		if !sharedCategory(legacyCats[i], modernCats[j]) {
			return false
		}

		l, mo := legacyRes.Descriptors[i], modernRes.Descriptors[j]

		return c.attrsEquivalent(l, mo) ||
			c.matcher.Similar(l.Text, mo.Text, c.settings.TextSimilarityThreshold)
	})

	return verdict
}

// CompareDisplay implements Comparator.
func (c *comparator) CompareDisplay(ctx context.Context, ref m.FieldRef, display m.DisplayMapping, legacy, modern adapter.Document) []m.FieldVerdict {
	container := c.compareContainer(ctx, ref, display.FieldMapping, legacy, modern)

	verdicts := []m.FieldVerdict{container}
	if container.State != m.FieldMatched {
		return verdicts
	}

	for _, item := range display.Items {
		verdicts = append(verdicts, c.CompareField(ctx, ref.Child(item.Name), item, legacy, modern))
	}

	return verdicts
}

// compareContainer pairs container elements by structural equivalence of
// their tag and role tokens, so a legacy table and a modern grid div match
// when configuration declares them equivalent.
func (c *comparator) compareContainer(ctx context.Context, ref m.FieldRef, field m.FieldMapping, legacy, modern adapter.Document) m.FieldVerdict {
	verdict := m.FieldVerdict{Field: field.Name, Path: ref.String(), Required: field.Required}

	legacyRes, err := c.resolver.Resolve(ctx, legacy, field.Legacy)
	if err != nil {
		return unresolved(verdict, m.SideLegacy, err)
	}

	modernRes, err := c.resolver.Resolve(ctx, modern, field.Modern)
	if err != nil {
		return unresolved(verdict, m.SideModern, err)
	}

	c.fill(&verdict, legacyRes, modernRes, func(i, j int) bool {
		return c.containerEquivalent(legacyRes.Descriptors[i], modernRes.Descriptors[j])
	})

	return verdict
}

// fill completes a verdict from the two resolutions and a pairing predicate.
// Pairing is greedy one-to-one in document order, which keeps the whole
// comparison deterministic.
func (c *comparator) fill(verdict *m.FieldVerdict, legacy, modern Resolution, pairable func(i, j int) bool) {
	for _, w := range legacy.Warnings {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("%s: %s", m.SideLegacy, w))
	}

	for _, w := range modern.Warnings {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("%s: %s", m.SideModern, w))
	}

	verdict.LegacyCount = len(legacy.Descriptors)
	verdict.ModernCount = len(modern.Descriptors)

	if verdict.LegacyCount == 0 && verdict.ModernCount == 0 {
		verdict.State = m.FieldVacuous
		verdict.Matched = !verdict.Required

		if verdict.Required {
			verdict.Reasons = append(verdict.Reasons, "field absent on both sides")
		}

		return
	}

	if diff := abs(verdict.LegacyCount - verdict.ModernCount); diff > c.settings.FieldCountTolerance {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"element count differs beyond tolerance: legacy %d, modern %d",
			verdict.LegacyCount, verdict.ModernCount))
	}

	consumed := make([]bool, len(modern.Descriptors))

	for i, l := range legacy.Descriptors {
		found := false

		for j := range modern.Descriptors {
			if consumed[j] || !pairable(i, j) {
				continue
			}

			consumed[j] = true
			found = true

			break
		}

		if !found {
			verdict.Missing = append(verdict.Missing, l.Label())
		}
	}

	for j, d := range modern.Descriptors {
		if !consumed[j] {
			verdict.Extra = append(verdict.Extra, d)
		}
	}

	if len(verdict.Missing) > 0 {
		verdict.State = m.FieldMismatched
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"%d of %d legacy elements unmatched", len(verdict.Missing), verdict.LegacyCount))

		return
	}

	verdict.State = m.FieldMatched
	verdict.Matched = true
}

// categorize computes each descriptor's semantic categories once, before the
// quadratic pairing pass.
func (c *comparator) categorize(descriptors []m.ElementDescriptor) [][]string {
	all := make([][]string, len(descriptors))
	for i, d := range descriptors {
		all[i] = c.categoriesOf(d)
	}

	return all
}

func (c *comparator) categoriesOf(d m.ElementDescriptor) []string {
	var categories []string

	for _, rule := range c.rules {
		for _, selector := range rule.selectors {
			if selector.MatchesDescriptor(d) {
				categories = append(categories, rule.category)
				break
			}
		}
	}

	if len(categories) == 0 {
		return []string{unclassified}
	}

	return categories
}

func sharedCategory(a, b []string) bool {
	for _, ca := range a {
		for _, cb := range b {
			if ca == cb {
				return true
			}
		}
	}

	return false
}

// attrsEquivalent holds when the snapshots agree on every attribute they
// both carry, skipping ignored attributes. At least one shared attribute is
// required, otherwise two bare elements would pair on no evidence at all.
func (c *comparator) attrsEquivalent(a, b m.ElementDescriptor) bool {
	shared := 0

	for key, valA := range a.Attrs {
		if c.settings.AttributeIgnored(key) {
			continue
		}

		valB, ok := b.Attrs[key]
		if !ok {
			continue
		}

		if !c.settings.Equivalent(valA, valB) {
			return false
		}

		shared++
	}

	return shared > 0
}

func (c *comparator) containerEquivalent(a, b m.ElementDescriptor) bool {
	for _, ta := range containerTokens(a) {
		for _, tb := range containerTokens(b) {
			if c.settings.Equivalent(ta, tb) {
				return true
			}
		}
	}

	return false
}

func containerTokens(d m.ElementDescriptor) []string {
	tokens := []string{d.Tag}
	if role, ok := d.Attr("role"); ok && role != "" {
		tokens = append(tokens, role)
	}

	return tokens
}

func unresolved(verdict m.FieldVerdict, side m.Side, err error) m.FieldVerdict {
	verdict.State = m.FieldUnresolved
	verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("%s document: %v", side, err))

	return verdict
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
