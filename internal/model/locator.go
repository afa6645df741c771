package model

import (
	"fmt"
	"regexp"
	"strings"

	"fieldparity.dev/pkg/fieldparity/pkg"
)

// ClauseKind discriminates the parsed forms of a locator clause.
type ClauseKind string

const (
	// ClauseStructural is a selector handed to the document's native query engine.
	ClauseStructural ClauseKind = "structural"
	// ClauseTextContent selects elements of Tag whose normalized visible text
	// contains Text as a case-sensitive substring.
	ClauseTextContent ClauseKind = "text"
	// ClauseInvalid marks a clause that failed to parse. Resolving it records
	// a warning and skips it; the rest of the locator still resolves.
	ClauseInvalid ClauseKind = "invalid"
)

// LocatorClause is one OR-branch of a field locator. Clauses are parsed once
// at configuration load and never re-parsed during comparison.
type LocatorClause struct {
	Kind     ClauseKind
	Raw      string
	Selector string // ClauseStructural
	Tag      string // ClauseTextContent, "*" for any element
	Text     string // ClauseTextContent
	Err      string // ClauseInvalid
}

// Locator is the ordered clause list for one side of one field. Clause
// results union, de-duplicated by element identity.
type Locator []LocatorClause

// Raw reconstructs the locator as it appeared in configuration.
func (l Locator) Raw() string {
	parts := make([]string, 0, len(l))
	for _, clause := range l {
		parts = append(parts, clause.Raw)
	}

	return strings.Join(parts, ", ")
}

var containsClauseRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*|\*)?:contains\((.*)\)$`)

// ParseLocator splits a locator string into clauses on top-level commas and
// parses each clause. Unparseable clauses are kept as ClauseInvalid so every
// resolution of the field can report them; empty clauses are dropped.
func ParseLocator(raw string) Locator {
	locator := make(Locator, 0, 2)

	for _, part := range splitClauses(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		locator = append(locator, parseClause(part))
	}

	return locator
}

// splitClauses splits on commas outside parentheses and brackets, so
// selectors like a[href*='x,y'] and text predicates containing commas
// survive intact.
func splitClauses(raw string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i, r := range raw {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, raw[start:])
}

func parseClause(raw string) LocatorClause {
	if !strings.Contains(raw, ":contains(") {
		return LocatorClause{Kind: ClauseStructural, Raw: raw, Selector: raw}
	}

	groups := containsClauseRe.FindStringSubmatch(raw)
	if groups == nil {
		return LocatorClause{
			Kind: ClauseInvalid,
			Raw:  raw,
			Err:  "malformed text-content clause",
		}
	}

	tag := groups[1]
	if tag == "" {
		tag = "*"
	}

	text := pkg.NormalizeSpace(unquote(groups[2]))
	if text == "" {
		return LocatorClause{
			Kind: ClauseInvalid,
			Raw:  raw,
			Err:  "empty text predicate",
		}
	}

	return LocatorClause{
		Kind: ClauseTextContent,
		Raw:  raw,
		Tag:  strings.ToLower(tag),
		Text: text,
	}
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}

	return s
}

// ResolutionWarning records a locator clause that could not be used during
// resolution. Warnings surface in the field verdict reasons, never as errors.
type ResolutionWarning struct {
	Clause string `json:"clause"`
	Reason string `json:"reason"`
}

func (w ResolutionWarning) String() string {
	return fmt.Sprintf("locator clause %q skipped: %s", w.Clause, w.Reason)
}
