package ecs

import (
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"

	"github.com/plus3/tecs/logging"
)

// componentRecord keeps the owning type id next to the value so typed access can
// verify the id before narrowing.
type componentRecord struct {
	id    ComponentID
	value Component
}

type componentMap = intmap.Map[ComponentID, componentRecord]

// World owns entities, their components and the per-type views of committed entities.
// A World is not safe for concurrent use; serialize all calls on one goroutine.
type World struct {
	registry *ComponentRegistry
	logger   logging.Logger

	// Parallel per-slot state, indexed by Entity.ID().
	entities  []Entity
	valid     []bool
	committed []bool
	free      []uint32
	retired   int

	components *intmap.Map[Entity, *componentMap]
	views      *intmap.Map[ComponentID, *EntitySet]
}

// WorldOption customizes a World.
type WorldOption func(*World)

// WithWorldLogger sets the logger used for entity lifecycle debug output.
func WithWorldLogger(l logging.Logger) WorldOption {
	return func(w *World) {
		w.logger = logging.OrNop(l)
	}
}

// NewWorld creates an empty world whose component ids come from registry.
func NewWorld(registry *ComponentRegistry, opts ...WorldOption) *World {
	w := &World{
		registry:   registry,
		logger:     logging.Nop(),
		components: intmap.New[Entity, *componentMap](256),
		views:      intmap.New[ComponentID, *EntitySet](32),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry returns the registry the world was built with.
func (w *World) Registry() *ComponentRegistry {
	return w.registry
}

// CreateEntity allocates an entity, reusing a destroyed slot with its generation
// bumped when one is available. A slot whose generation reached the maximum is
// retired on destroy instead of wrapping. It panics when the id space is exhausted.
func (w *World) CreateEntity() Entity {
	e, err := w.TryCreateEntity()
	if err != nil {
		panic(err)
	}
	return e
}

// TryCreateEntity is CreateEntity with an error instead of a panic on exhaustion.
func (w *World) TryCreateEntity() (Entity, error) {
	if n := len(w.free); n > 0 {
		id := w.free[n-1]
		w.free = w.free[:n-1]

		e := NewEntity(id, w.entities[id].Generation()+1)
		w.entities[id] = e
		w.valid[id] = true
		return e, nil
	}

	if uint64(len(w.entities)) > uint64(MaxEntityID) {
		return InvalidEntity, ErrEntityLimit
	}

	e := NewEntity(uint32(len(w.entities)), 0)
	w.entities = append(w.entities, e)
	w.valid = append(w.valid, true)
	w.committed = append(w.committed, false)
	return e, nil
}

// CreateEntityHandle creates an entity and binds a handle to it.
func (w *World) CreateEntityHandle() EntityHandle {
	return EntityHandle{entity: w.CreateEntity(), world: w}
}

// Handle binds a handle to an existing entity without checking it.
func (w *World) Handle(e Entity) EntityHandle {
	return EntityHandle{entity: e, world: w}
}

// CheckEntityCondition is the validity contract every mutating operation requires:
// the id is allocated, the slot is alive and its generation matches e exactly.
func (w *World) CheckEntityCondition(e Entity) error {
	if !e.IsValid() {
		return &EntityError{Entity: e, Reason: ReasonNotValid}
	}
	id := e.ID()
	if int(id) >= len(w.entities) {
		return &EntityError{Entity: e, Reason: ReasonOutOfRange}
	}
	if !w.valid[id] {
		return &EntityError{Entity: e, Reason: ReasonDestroyed}
	}
	if w.entities[id] != e {
		return &EntityError{Entity: e, Reason: ReasonStaleGeneration}
	}
	return nil
}

// IsAlive reports whether e passes the validity contract.
func (w *World) IsAlive(e Entity) bool {
	return w.CheckEntityCondition(e) == nil
}

// IsCommitted reports whether e is alive and has been committed.
func (w *World) IsCommitted(e Entity) bool {
	return w.IsAlive(e) && w.committed[e.ID()]
}

// CommitEntity makes the entity's attached components visible in their views.
// Components added afterwards become visible immediately.
func (w *World) CommitEntity(e Entity) error {
	if err := w.CheckEntityCondition(e); err != nil {
		return err
	}

	if comps, ok := w.components.Get(e); ok {
		comps.ForEach(func(id ComponentID, _ componentRecord) bool {
			w.view(id).insert(e)
			return true
		})
	}
	w.committed[e.ID()] = true
	return nil
}

// DestroyEntity removes e from every view, drops its components and frees its slot
// for reuse under the next generation.
func (w *World) DestroyEntity(e Entity) error {
	if err := w.CheckEntityCondition(e); err != nil {
		return err
	}

	if comps, ok := w.components.Get(e); ok {
		comps.ForEach(func(id ComponentID, _ componentRecord) bool {
			if set, ok := w.views.Get(id); ok {
				set.remove(e)
			}
			return true
		})
		w.components.Del(e)
	}

	id := e.ID()
	w.valid[id] = false
	w.committed[id] = false
	if e.Generation() < math.MaxUint32 {
		w.free = append(w.free, id)
	} else {
		w.retired++
	}

	w.logger.Debug("entity destroyed", "entity", e.String())
	return nil
}

func (w *World) view(id ComponentID) *EntitySet {
	set, ok := w.views.Get(id)
	if !ok {
		set = newEntitySet()
		w.views.Put(id, set)
	}
	return set
}

// AddComponent attaches c to e under id. The world takes ownership of c.
func (w *World) AddComponent(e Entity, id ComponentID, c Component) error {
	if err := w.CheckEntityCondition(e); err != nil {
		return err
	}
	if c == nil {
		return ErrComponentNil
	}
	info, ok := w.registry.Info(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrComponentUnregistered, id)
	}
	if reflect.TypeOf(c) != info.Type {
		return fmt.Errorf("%w: id %d is %s, got %T", ErrComponentTypeMismatch, id, info.Type, c)
	}

	comps, ok := w.components.Get(e)
	if !ok {
		comps = intmap.New[ComponentID, componentRecord](4)
		w.components.Put(e, comps)
	}
	if _, dup := comps.Get(id); dup {
		return fmt.Errorf("%w: %s on %s", ErrComponentDuplicate, info.Name, e)
	}

	comps.Put(id, componentRecord{id: id, value: c})
	if w.committed[e.ID()] {
		w.view(id).insert(e)
	}
	return nil
}

// RemoveComponent drops the component stored under id and removes e from that view.
func (w *World) RemoveComponent(e Entity, id ComponentID) error {
	if err := w.CheckEntityCondition(e); err != nil {
		return err
	}

	comps, ok := w.components.Get(e)
	if !ok || !comps.Del(id) {
		return fmt.Errorf("%w: id %d on %s", ErrComponentMissing, id, e)
	}
	if comps.Len() == 0 {
		w.components.Del(e)
	}
	if set, ok := w.views.Get(id); ok {
		set.remove(e)
	}
	return nil
}

func (w *World) record(e Entity, id ComponentID) (componentRecord, bool) {
	if !w.IsAlive(e) {
		return componentRecord{}, false
	}
	comps, ok := w.components.Get(e)
	if !ok {
		return componentRecord{}, false
	}
	return comps.Get(id)
}

// HasComponent reports whether e holds id. Dead entities hold nothing.
func (w *World) HasComponent(e Entity, id ComponentID) bool {
	_, ok := w.record(e, id)
	return ok
}

// GetComponent returns the component stored under id. The world keeps ownership.
func (w *World) GetComponent(e Entity, id ComponentID) (Component, bool) {
	rec, ok := w.record(e, id)
	if !ok {
		return nil, false
	}
	return rec.value, true
}

// LookupComponent is GetComponent with the reason for a miss.
func (w *World) LookupComponent(e Entity, id ComponentID) (Component, error) {
	if err := w.CheckEntityCondition(e); err != nil {
		return nil, err
	}
	rec, ok := w.record(e, id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d on %s", ErrComponentMissing, id, e)
	}
	return rec.value, nil
}

// GetHavingComponents returns the ids attached to e in ascending order.
func (w *World) GetHavingComponents(e Entity) ([]ComponentID, error) {
	if err := w.CheckEntityCondition(e); err != nil {
		return nil, err
	}
	comps, ok := w.components.Get(e)
	if !ok {
		return nil, nil
	}
	ids := make([]ComponentID, 0, comps.Len())
	comps.ForEach(func(id ComponentID, _ componentRecord) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids, nil
}

// View returns the live set of committed entities holding id. The set of a registered
// id stays the same value for the life of the world. Unregistered ids yield an empty set.
func (w *World) View(id ComponentID) *EntitySet {
	if set, ok := w.views.Get(id); ok {
		return set
	}
	if int(id) < w.registry.Len() {
		return w.view(id)
	}
	return emptySet
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.entities) - len(w.free) - w.retired
}

// WorldStats is a snapshot of world occupancy.
type WorldStats struct {
	Slots     int
	Alive     int
	Free      int
	Retired   int
	Committed int
	Views     []ViewStats
}

// ViewStats is the size of one component type's view.
type ViewStats struct {
	ID       ComponentID
	Name     string
	Entities int
}

// Stats collects occupancy counters and per-type view sizes in id order.
func (w *World) Stats() WorldStats {
	stats := WorldStats{
		Slots:   len(w.entities),
		Alive:   w.EntityCount(),
		Free:    len(w.free),
		Retired: w.retired,
	}
	for i, c := range w.committed {
		if c && w.valid[i] {
			stats.Committed++
		}
	}
	for _, info := range w.registry.infos {
		stats.Views = append(stats.Views, ViewStats{
			ID:       info.ID,
			Name:     info.Name,
			Entities: w.View(info.ID).Len(),
		})
	}
	return stats
}

// AddComponentOf attaches c under the id registered for T.
func AddComponentOf[T Component](w *World, e Entity, c T) error {
	id, ok := ComponentIDOf[T](w.registry)
	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentUnregistered, reflect.TypeFor[T]())
	}
	return w.AddComponent(e, id, c)
}

// RemoveComponentOf removes the component registered for T.
func RemoveComponentOf[T Component](w *World, e Entity) error {
	id, ok := ComponentIDOf[T](w.registry)
	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentUnregistered, reflect.TypeFor[T]())
	}
	return w.RemoveComponent(e, id)
}

// HasComponentOf reports whether e holds a T.
func HasComponentOf[T Component](w *World, e Entity) bool {
	id, ok := ComponentIDOf[T](w.registry)
	return ok && w.HasComponent(e, id)
}

// ReadComponent returns e's T. The stored record's id is checked against T's id
// before the value is narrowed.
func ReadComponent[T Component](w *World, e Entity) (T, bool) {
	var zero T
	id, ok := ComponentIDOf[T](w.registry)
	if !ok {
		return zero, false
	}
	rec, ok := w.record(e, id)
	if !ok || rec.id != id {
		return zero, false
	}
	c, ok := rec.value.(T)
	return c, ok
}
