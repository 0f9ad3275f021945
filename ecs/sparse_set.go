package ecs

// SparseSet maps entity ids to values with dense iteration. Ids start at the
// base given to NewSparseSet so that the sparse index stays small.
type SparseSet[T any] struct {
	base   int
	ids    []int
	values []T
	sparse []int
}

func NewSparseSet[T any](base int) *SparseSet[T] {
	if base < 1 {
		base = 1
	}
	return &SparseSet[T]{base: base}
}

func (s *SparseSet[T]) slot(id int) int {
	return id - s.base
}

// Has returns true if the id exists in the set.
func (s *SparseSet[T]) Has(id int) bool {
	if s == nil {
		return false
	}
	i := s.slot(id)
	if i < 0 || i >= len(s.sparse) {
		return false
	}
	idx := s.sparse[i]
	return idx >= 0 && idx < len(s.ids) && s.ids[idx] == id
}

// Get returns the value stored for id.
func (s *SparseSet[T]) Get(id int) (T, bool) {
	var zero T
	if !s.Has(id) {
		return zero, false
	}
	return s.values[s.sparse[s.slot(id)]], true
}

// Set inserts or replaces the value for id. Ids below the base are ignored.
func (s *SparseSet[T]) Set(id int, v T) {
	if s == nil {
		return
	}
	i := s.slot(id)
	if i < 0 {
		return
	}
	for i >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.Has(id) {
		s.values[s.sparse[i]] = v
		return
	}
	s.ids = append(s.ids, id)
	s.values = append(s.values, v)
	s.sparse[i] = len(s.ids) - 1
}

// Remove deletes id, moving the last dense entry into its place.
func (s *SparseSet[T]) Remove(id int) bool {
	if !s.Has(id) {
		return false
	}
	i := s.slot(id)
	idx := s.sparse[i]
	last := len(s.ids) - 1
	lastID := s.ids[last]

	s.ids[idx] = s.ids[last]
	s.values[idx] = s.values[last]
	s.sparse[s.slot(lastID)] = idx

	var zero T
	s.values[last] = zero
	s.ids = s.ids[:last]
	s.values = s.values[:last]
	s.sparse[i] = -1
	return true
}

// Len returns the number of stored ids.
func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Clear drops every entry but keeps the allocated index.
func (s *SparseSet[T]) Clear() {
	if s == nil {
		return
	}
	for i := range s.sparse {
		s.sparse[i] = -1
	}
	clear(s.values)
	s.ids = s.ids[:0]
	s.values = s.values[:0]
}
