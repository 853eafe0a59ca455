package ecs

// Removable is implemented by every component store so the Registry can
// drop an entity's data from all of them at once.
type Removable interface {
	Remove(id EntityID)
}

// Store holds one component type keyed by entity.
type Store[T any] struct {
	data map[EntityID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{data: make(map[EntityID]*T, 256)}
}

func (s *Store[T]) Set(id EntityID, c *T) { s.data[id] = c }
func (s *Store[T]) Remove(id EntityID)    { delete(s.data, id) }
func (s *Store[T]) Len() int              { return len(s.data) }

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// MustGet returns the component or nil. Callers that just created the entity
// use it to skip the ok check.
func (s *Store[T]) MustGet(id EntityID) *T {
	return s.data[id]
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

// Each visits components in map order.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for id, c := range s.data {
		fn(id, c)
	}
}
