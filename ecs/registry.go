package ecs

import (
	"reflect"

	"github.com/google/uuid"
)

// ComponentID is the runtime id of a component type. Ids are handed out by a
// ComponentRegistry in registration order and are not stable across runs; use
// the component GUID for anything that must survive a restart.
type ComponentID uint32

// Component is data and behavior attached to a single entity.
type Component interface {
	Name() string
	GUID() uuid.UUID
	// Update is called once per frame for every committed entity holding the component.
	Update(h EntityHandle, dt float64)
}

// ComponentInfo describes a registered component type.
type ComponentInfo struct {
	ID     ComponentID
	Name   string
	GUID   uuid.UUID
	Type   reflect.Type
	Schema *Schema
}

// ComponentRegistry assigns ComponentIDs. Each World is built on a registry, and one
// registry may be shared by several worlds so that ids agree between them.
// Registration is startup wiring and is not safe for concurrent use.
type ComponentRegistry struct {
	infos  []ComponentInfo
	byType map[reflect.Type]ComponentID
	byGUID map[uuid.UUID]ComponentID
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentID),
		byGUID: make(map[uuid.UUID]ComponentID),
	}
}

// RegisterOption customizes a registration.
type RegisterOption func(*ComponentInfo)

// WithSchema attaches a field schema to the component type.
func WithSchema(s *Schema) RegisterOption {
	return func(info *ComponentInfo) {
		info.Schema = s
	}
}

// RegisterComponent registers T and returns its id. Registering a type twice
// returns the id from the first call. T is usually a pointer to a struct; the
// name and GUID are read from a freshly allocated instance.
func RegisterComponent[T Component](r *ComponentRegistry, opts ...RegisterOption) ComponentID {
	t := reflect.TypeFor[T]()
	if id, ok := r.byType[t]; ok {
		return id
	}

	sample := newComponent[T]()
	info := ComponentInfo{
		ID:   ComponentID(len(r.infos)),
		Name: sample.Name(),
		GUID: sample.GUID(),
		Type: t,
	}
	for _, opt := range opts {
		opt(&info)
	}

	if other, ok := r.byGUID[info.GUID]; ok {
		panic("component " + t.String() + " reuses the GUID of " + r.infos[other].Type.String())
	}
	if info.Schema != nil && info.Schema.Target() != t {
		panic("schema for " + info.Schema.Target().String() + " attached to component " + t.String())
	}

	r.infos = append(r.infos, info)
	r.byType[t] = info.ID
	r.byGUID[info.GUID] = info.ID
	return info.ID
}

// ComponentIDOf returns the id registered for T.
func ComponentIDOf[T Component](r *ComponentRegistry) (ComponentID, bool) {
	id, ok := r.byType[reflect.TypeFor[T]()]
	return id, ok
}

// MustComponentIDOf is ComponentIDOf for types known to be registered.
func MustComponentIDOf[T Component](r *ComponentRegistry) ComponentID {
	id, ok := ComponentIDOf[T](r)
	if !ok {
		panic("component type " + reflect.TypeFor[T]().String() + " not registered")
	}
	return id
}

// Info returns the registration of id.
func (r *ComponentRegistry) Info(id ComponentID) (ComponentInfo, bool) {
	if int(id) >= len(r.infos) {
		return ComponentInfo{}, false
	}
	return r.infos[id], true
}

// LookupGUID finds the runtime id of the component type with the given GUID.
func (r *ComponentRegistry) LookupGUID(guid uuid.UUID) (ComponentID, bool) {
	id, ok := r.byGUID[guid]
	return id, ok
}

// MaxID returns the highest assigned id, or false when nothing is registered.
func (r *ComponentRegistry) MaxID() (ComponentID, bool) {
	if len(r.infos) == 0 {
		return 0, false
	}
	return ComponentID(len(r.infos) - 1), true
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.infos)
}

// Infos returns every registration in id order.
func (r *ComponentRegistry) Infos() []ComponentInfo {
	out := make([]ComponentInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

func newComponent[T Component]() T {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(T)
	}
	var zero T
	return zero
}
