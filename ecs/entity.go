package ecs

import (
	"cmp"
	"fmt"
)

// Entity packs a validity bit (bit 0), a 31-bit id (bits 1-31) and a 32-bit generation (bits 32-63).
// An Entity is only meaningful relative to the World that issued it.
type Entity uint64

const (
	entityValidShift = 0
	entityIDShift    = 1
	entityGenShift   = 32

	entityValidMask uint64 = 0x1
	entityIDMask    uint64 = 0x7FFFFFFF
	entityGenMask   uint64 = 0xFFFFFFFF

	// MaxEntityID is the largest id a World can allocate.
	MaxEntityID = uint32(entityIDMask)
)

// InvalidEntity has its validity bit cleared. It is also the zero value.
const InvalidEntity Entity = 0

// NewEntity encodes a valid entity. id is truncated to 31 bits.
func NewEntity(id uint32, gen uint32) Entity {
	bits := entityValidMask << entityValidShift
	bits |= (uint64(id) & entityIDMask) << entityIDShift
	bits |= (uint64(gen) & entityGenMask) << entityGenShift
	return Entity(bits)
}

// ID extracts the slot id.
func (e Entity) ID() uint32 {
	return uint32((uint64(e) >> entityIDShift) & entityIDMask)
}

// Generation extracts the generation counter.
func (e Entity) Generation() uint32 {
	return uint32((uint64(e) >> entityGenShift) & entityGenMask)
}

// IsValid reports whether the validity bit is set. It says nothing about
// whether a World still considers the entity alive; see World.CheckEntityCondition.
func (e Entity) IsValid() bool {
	return (uint64(e)>>entityValidShift)&entityValidMask != 0
}

// Bits returns the raw encoding.
func (e Entity) Bits() uint64 {
	return uint64(e)
}

// Less orders by generation first and id second. Entities of the same age sort
// together, so recycled slots come after every entity of an older generation.
// Views iterate in this order.
func (e Entity) Less(other Entity) bool {
	return CompareEntities(e, other) < 0
}

// CompareEntities is the three-way form of Entity.Less, usable with slices.SortFunc.
func CompareEntities(a, b Entity) int {
	if c := cmp.Compare(a.Generation(), b.Generation()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}

func (e Entity) String() string {
	if !e.IsValid() {
		return "Entity(invalid)"
	}
	return fmt.Sprintf("Entity(id=%d,gen=%d)", e.ID(), e.Generation())
}
