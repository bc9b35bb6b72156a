package ecs

// EntityHandle binds an entity to the World that issued it and forwards to that world.
// Handles are small values; copy them freely.
type EntityHandle struct {
	entity Entity
	world  *World
}

// Entity returns the bound entity.
func (h EntityHandle) Entity() Entity {
	return h.entity
}

// World returns the owning world.
func (h EntityHandle) World() *World {
	return h.world
}

// Valid reports whether the entity is still alive in its world.
func (h EntityHandle) Valid() bool {
	return h.world != nil && h.world.IsAlive(h.entity)
}

func (h EntityHandle) Commit() error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return h.world.CommitEntity(h.entity)
}

func (h EntityHandle) Destroy() error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return h.world.DestroyEntity(h.entity)
}

func (h EntityHandle) AddComponent(id ComponentID, c Component) error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return h.world.AddComponent(h.entity, id, c)
}

func (h EntityHandle) RemoveComponent(id ComponentID) error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return h.world.RemoveComponent(h.entity, id)
}

func (h EntityHandle) HasComponent(id ComponentID) bool {
	return h.world != nil && h.world.HasComponent(h.entity, id)
}

func (h EntityHandle) GetComponent(id ComponentID) (Component, bool) {
	if h.world == nil {
		return nil, false
	}
	return h.world.GetComponent(h.entity, id)
}

// Components returns the ids attached to the entity.
func (h EntityHandle) Components() ([]ComponentID, error) {
	if h.world == nil {
		return nil, &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return h.world.GetHavingComponents(h.entity)
}

func (h EntityHandle) String() string {
	return h.entity.String()
}

// Attach adds c to the handle's entity under T's registered id.
func Attach[T Component](h EntityHandle, c T) error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return AddComponentOf(h.world, h.entity, c)
}

// Detach removes the handle entity's T.
func Detach[T Component](h EntityHandle) error {
	if h.world == nil {
		return &EntityError{Entity: h.entity, Reason: ReasonNotValid}
	}
	return RemoveComponentOf[T](h.world, h.entity)
}

// Get returns the handle entity's T.
func Get[T Component](h EntityHandle) (T, bool) {
	if h.world == nil {
		var zero T
		return zero, false
	}
	return ReadComponent[T](h.world, h.entity)
}

// Has reports whether the handle entity holds a T.
func Has[T Component](h EntityHandle) bool {
	return h.world != nil && HasComponentOf[T](h.world, h.entity)
}
