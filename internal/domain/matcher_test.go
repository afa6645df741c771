package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextMatcher_IdenticalAfterNormalization(t *testing.T) {
	matcher := NewTextMatcher()

	require.Equal(t, 1.0, matcher.Similarity("Sign In", "Sign In"))
	require.Equal(t, 1.0, matcher.Similarity("  Sign In ", "sign in"))
	require.Equal(t, 1.0, matcher.Similarity("Don’t Save", "Don't Save"))
}

func TestTextMatcher_EmptyPairs(t *testing.T) {
	matcher := NewTextMatcher()

	require.Equal(t, 1.0, matcher.Similarity("", "   "))
	assert.True(t, matcher.Similar("", "", 1.0))

	require.Equal(t, 0.0, matcher.Similarity("", "Sign In"))
	assert.False(t, matcher.Similar("Sign In", "", 0.0))
	assert.False(t, matcher.Similar("", "Sign In", 0.0))
}

func TestTextMatcher_ReorderedTokensScoreFull(t *testing.T) {
	matcher := NewTextMatcher()

	require.Equal(t, 1.0, matcher.Similarity("First Name", "Name First"))
}

func TestTextMatcher_SpellingDriftStaysAboveThreshold(t *testing.T) {
	matcher := NewTextMatcher()

	assert.True(t, matcher.Similar("E-mail", "Email", 0.8))
	assert.True(t, matcher.Similar("Username", "User name", 0.8))
}

func TestTextMatcher_DifferentLabelsStayBelowThreshold(t *testing.T) {
	matcher := NewTextMatcher()

	assert.Less(t, matcher.Similarity("Login", "Sign In"), 0.8)
	assert.False(t, matcher.Similar("Login", "Sign In", 0.8))
	assert.False(t, matcher.Similar("Cancel", "Delete", 0.8))
}

func TestTextMatcher_ThresholdIsInclusive(t *testing.T) {
	matcher := NewTextMatcher()

	// Both the character ratio and the token overlap of this pair are 0.5.
	assert.True(t, matcher.Similar("Save Changes", "Save", 0.5))
	assert.False(t, matcher.Similar("Save Changes", "Save", 0.51))
}
