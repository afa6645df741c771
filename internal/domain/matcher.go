package domain

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"fieldparity.dev/pkg/fieldparity/pkg"
)

// TextMatcher scores how similar two visible-text labels are, after
// normalization. Scores are in [0,1].
type TextMatcher interface {
	// Similarity returns the score for the pair.
	Similarity(a, b string) float64

	// Similar reports whether the pair meets the threshold. An empty label
	// never matches a non-empty one, whatever the threshold.
	Similar(a, b string, threshold float64) bool
}

type fuzzyMatcher struct{}

// NewTextMatcher creates the edit-distance and token-overlap based matcher.
func NewTextMatcher() TextMatcher {
	return &fuzzyMatcher{}
}

// Similarity implements TextMatcher.
func (f *fuzzyMatcher) Similarity(a, b string) float64 {
	return f.score(pkg.FoldText(a), pkg.FoldText(b))
}

// Similar implements TextMatcher.
func (f *fuzzyMatcher) Similar(a, b string, threshold float64) bool {
	na, nb := pkg.FoldText(a), pkg.FoldText(b)
	if (na == "") != (nb == "") {
		return false
	}

	return f.score(na, nb) >= threshold
}

// score takes already-normalized input. The final score is the better of a
// character-level ratio and a token-set overlap, so both small spelling
// drift ("E-mail" vs "Email") and reordered labels ("First Name" vs
// "Name First") stay above a sane threshold.
func (f *fuzzyMatcher) score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	if a == "" || b == "" {
		return 0.0
	}

	char := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()

	if tokens := tokenOverlap(a, b); tokens > char {
		return tokens
	}

	return char
}

// tokenOverlap is the Jaccard index of the two token sets.
func tokenOverlap(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, token := range strings.Fields(a) {
		setA[token] = struct{}{}
	}

	setB := make(map[string]struct{})
	for _, token := range strings.Fields(b) {
		setB[token] = struct{}{}
	}

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	shared := 0

	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}

	union := len(setA) + len(setB) - shared

	return float64(shared) / float64(union)
}
