package ecs

import "github.com/kamstrup/intmap"

// store is the type-erased view of a component store that the world uses for
// bookkeeping (entity destruction, stats).
type store interface {
	has(id entityID) bool
	remove(id entityID) bool
	len() int
	ids() []entityID
}

// sparseStore keeps components densely packed and indexed by entity id.
type sparseStore[T any] struct {
	dense  []entityID
	values []*T
	index  *intmap.Map[entityID, int]
}

func newSparseStore[T any]() *sparseStore[T] {
	return &sparseStore[T]{index: intmap.New[entityID, int](64)}
}

func (s *sparseStore[T]) has(id entityID) bool {
	_, ok := s.index.Get(id)
	return ok
}

func (s *sparseStore[T]) get(id entityID) (*T, bool) {
	idx, ok := s.index.Get(id)
	if !ok {
		return nil, false
	}
	return s.values[idx], true
}

// set inserts or replaces a value and reports whether it was an insert.
func (s *sparseStore[T]) set(id entityID, v *T) bool {
	if idx, ok := s.index.Get(id); ok {
		s.values[idx] = v
		return false
	}
	s.dense = append(s.dense, id)
	s.values = append(s.values, v)
	s.index.Put(id, len(s.dense)-1)
	return true
}

func (s *sparseStore[T]) remove(id entityID) bool {
	idx, ok := s.index.Get(id)
	if !ok {
		return false
	}
	last := len(s.dense) - 1
	lastID := s.dense[last]

	s.dense[idx] = s.dense[last]
	s.values[idx] = s.values[last]
	s.index.Put(lastID, idx)

	s.dense[last] = 0
	s.values[last] = nil
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.index.Del(id)
	return true
}

func (s *sparseStore[T]) len() int {
	return len(s.dense)
}

// ids returns a snapshot of the dense id list so callers may mutate the store
// while iterating.
func (s *sparseStore[T]) ids() []entityID {
	out := make([]entityID, len(s.dense))
	copy(out, s.dense)
	return out
}
