package ecs

import "iter"

// Query iterates the committed entities holding a T, yielding the typed component.
// The component id is resolved lazily, so a Query may be built before T is registered.
type Query[T Component] struct {
	world    *World
	id       ComponentID
	resolved bool
}

// NewQuery creates a query over w.
func NewQuery[T Component](w *World) *Query[T] {
	return &Query[T]{world: w}
}

func (q *Query[T]) resolve() bool {
	if !q.resolved {
		q.id, q.resolved = ComponentIDOf[T](q.world.registry)
	}
	return q.resolved
}

// Iter yields entities in view order with their T. Entities whose component was
// removed after the iteration started are skipped.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		if !q.resolve() {
			return
		}
		for e := range q.world.View(q.id).All() {
			rec, ok := q.world.record(e, q.id)
			if !ok {
				continue
			}
			c, ok := rec.value.(T)
			if !ok {
				continue
			}
			if !yield(e, c) {
				return
			}
		}
	}
}

// Values yields only the components.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, c := range q.Iter() {
			if !yield(c) {
				return
			}
		}
	}
}

// Len returns the number of committed entities holding a T.
func (q *Query[T]) Len() int {
	if !q.resolve() {
		return 0
	}
	return q.world.View(q.id).Len()
}
