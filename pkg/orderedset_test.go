package pkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedSet(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		set := NewOrderedSet[string]()
		require.True(t, set.Add("b", "beta"))
		require.True(t, set.Add("a", "alpha"))
		require.True(t, set.Add("c", "gamma"))

		require.Equal(t, []string{"beta", "alpha", "gamma"}, set.Values())
		require.Equal(t, 3, set.Len())
	})

	t.Run("rejects duplicate keys", func(t *testing.T) {
		set := NewOrderedSet[int]()
		require.True(t, set.Add("x", 1))
		require.False(t, set.Add("x", 2))

		require.Equal(t, []int{1}, set.Values())
		require.True(t, set.Has("x"))
		require.False(t, set.Has("y"))
	})

	t.Run("empty set", func(t *testing.T) {
		set := NewOrderedSet[struct{}]()
		require.Equal(t, 0, set.Len())
		require.Empty(t, set.Values())
	})
}
