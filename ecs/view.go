package ecs

import (
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
)

// EntitySet is the set of committed entities holding one component type.
// Membership checks are O(1); iteration walks a sorted snapshot in Entity.Less order.
// The World owns every EntitySet; callers get a read-only view.
type EntitySet struct {
	members *intmap.Map[Entity, struct{}]
	sorted  []Entity
	dirty   bool
}

func newEntitySet() *EntitySet {
	return &EntitySet{
		members: intmap.New[Entity, struct{}](64),
	}
}

// emptySet is returned for component types nobody has committed yet.
var emptySet = &EntitySet{}

func (s *EntitySet) insert(e Entity) bool {
	if _, ok := s.members.Get(e); ok {
		return false
	}
	s.members.Put(e, struct{}{})
	s.dirty = true
	return true
}

func (s *EntitySet) remove(e Entity) bool {
	if !s.members.Del(e) {
		return false
	}
	s.dirty = true
	return true
}

// Len returns the number of entities in the set.
func (s *EntitySet) Len() int {
	if s == nil || s.members == nil {
		return 0
	}
	return s.members.Len()
}

// Contains reports whether e is in the set.
func (s *EntitySet) Contains(e Entity) bool {
	if s == nil || s.members == nil {
		return false
	}
	_, ok := s.members.Get(e)
	return ok
}

// snapshot returns the members in order. The returned slice is never written to
// again, so it stays valid while the set changes underneath an iteration.
func (s *EntitySet) snapshot() []Entity {
	if s == nil || s.members == nil {
		return nil
	}
	if s.dirty || s.sorted == nil {
		sorted := make([]Entity, 0, s.members.Len())
		s.members.ForEach(func(e Entity, _ struct{}) bool {
			sorted = append(sorted, e)
			return true
		})
		slices.SortFunc(sorted, CompareEntities)
		s.sorted = sorted
		s.dirty = false
	}
	return s.sorted
}

// All iterates the set in Entity.Less order. Changes made during iteration are
// not observed until the next call.
func (s *EntitySet) All() iter.Seq[Entity] {
	entities := s.snapshot()
	return func(yield func(Entity) bool) {
		for _, e := range entities {
			if !yield(e) {
				return
			}
		}
	}
}

// Slice returns a sorted copy of the members.
func (s *EntitySet) Slice() []Entity {
	return slices.Clone(s.snapshot())
}
