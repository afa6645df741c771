package pkg

// OrderedSet keeps values unique by key while preserving insertion order.
// Resolution unions the matches of several locator clauses and must not
// report the same element twice, nor reshuffle elements between runs.
type OrderedSet[T any] struct {
	keys   map[string]struct{}
	values []T
}

// NewOrderedSet creates an empty OrderedSet.
func NewOrderedSet[T any]() *OrderedSet[T] {
	return &OrderedSet[T]{keys: make(map[string]struct{})}
}

// Add inserts value under key and reports whether it was newly added.
func (s *OrderedSet[T]) Add(key string, value T) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}

	s.keys[key] = struct{}{}
	s.values = append(s.values, value)

	return true
}

// Has reports whether key is already present.
func (s *OrderedSet[T]) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Values returns the inserted values in insertion order. The returned slice
// is shared with the set and must not be mutated.
func (s *OrderedSet[T]) Values() []T {
	return s.values
}

// Len returns the number of values in the set.
func (s *OrderedSet[T]) Len() int {
	return len(s.values)
}
