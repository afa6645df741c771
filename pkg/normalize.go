// Package pkg is a package that provides utilities for fieldparity.
package pkg

import (
	"regexp"
	"strings"
)

// whitespaceRe also covers non-breaking spaces, which rendered documents
// frequently carry after entity decoding.
var whitespaceRe = regexp.MustCompile(`[\s\x{00A0}]+`)

var quoteReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// NormalizeSpace trims the string and collapses every internal whitespace run
// into a single space. Case is preserved.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// FoldText normalizes a string for similarity scoring: whitespace collapsed,
// typographic quotes straightened, case folded.
func FoldText(s string) string {
	return strings.ToLower(quoteReplacer.Replace(NormalizeSpace(s)))
}
