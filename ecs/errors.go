package ecs

import "errors"

var (
	ErrEntityInvalid         = errors.New("ecs: entity is not alive in this world")
	ErrEntityLimit           = errors.New("ecs: entity id space exhausted")
	ErrComponentDuplicate    = errors.New("ecs: entity already has component")
	ErrComponentMissing      = errors.New("ecs: entity does not have component")
	ErrComponentNil          = errors.New("ecs: component is nil")
	ErrComponentUnregistered = errors.New("ecs: component type is not registered")
	ErrComponentTypeMismatch = errors.New("ecs: component value does not match its registered type")
	ErrFieldUnknown          = errors.New("ecs: unknown schema field")
	ErrFieldType             = errors.New("ecs: schema field value has the wrong type")
)

// Reasons an entity fails the validity contract.
const (
	ReasonNotValid        = "validity bit not set"
	ReasonOutOfRange      = "id out of range"
	ReasonDestroyed       = "destroyed"
	ReasonStaleGeneration = "stale generation"
)

// EntityError describes why an entity failed the validity contract. It unwraps to ErrEntityInvalid.
type EntityError struct {
	Entity Entity
	Reason string
}

func (e *EntityError) Error() string {
	return "ecs: invalid entity " + e.Entity.String() + ": " + e.Reason
}

func (e *EntityError) Unwrap() error {
	return ErrEntityInvalid
}
