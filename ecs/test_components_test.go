package ecs_test

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/plus3/tecs/ecs"
)

var (
	transformGUID = uuid.MustParse("6f1c2a8e-3b7d-4d2f-9a51-0c8e7b4f2d10")
	velocityGUID  = uuid.MustParse("a3e9d1c4-5f62-4b8a-8e17-2d4c6b9f0e21")
	healthGUID    = uuid.MustParse("1b7f4e2a-9c3d-4e85-b6a0-7d2e5c8f1a32")
	probeGUID     = uuid.MustParse("d8c2b5f1-6a4e-4f93-a7b1-3e9d0c6f2b43")
)

// Common test component types
type Transform struct {
	X, Y    float64
	Updates int
}

func (t *Transform) Name() string    { return "Transform" }
func (t *Transform) GUID() uuid.UUID { return transformGUID }
func (t *Transform) Update(ecs.EntityHandle, float64) {
	t.Updates++
}

type Velocity struct {
	DX, DY float64
}

func (v *Velocity) Name() string    { return "Velocity" }
func (v *Velocity) GUID() uuid.UUID { return velocityGUID }
func (v *Velocity) Update(h ecs.EntityHandle, dt float64) {
	if t, ok := ecs.Get[*Transform](h); ok {
		t.X += v.DX * dt
		t.Y += v.DY * dt
	}
}

type Health struct {
	Current, Max int
}

func (h *Health) Name() string                     { return "Health" }
func (h *Health) GUID() uuid.UUID                  { return healthGUID }
func (h *Health) Update(ecs.EntityHandle, float64) {}

// Probe appends "<label>:<entity id>" to a shared log on every update.
type Probe struct {
	Label string
	Log   *[]string
	OnRun func(h ecs.EntityHandle)
}

func (p *Probe) Name() string    { return "Probe" }
func (p *Probe) GUID() uuid.UUID { return probeGUID }
func (p *Probe) Update(h ecs.EntityHandle, dt float64) {
	if p.Log != nil {
		*p.Log = append(*p.Log, fmt.Sprintf("%s:%d", p.Label, h.Entity().ID()))
	}
	if p.OnRun != nil {
		p.OnRun(h)
	}
}

type testIDs struct {
	transform ecs.ComponentID
	velocity  ecs.ComponentID
	health    ecs.ComponentID
	probe     ecs.ComponentID
}

func newTestRegistry() (*ecs.ComponentRegistry, testIDs) {
	registry := ecs.NewComponentRegistry()
	ids := testIDs{
		transform: ecs.RegisterComponent[*Transform](registry),
		velocity:  ecs.RegisterComponent[*Velocity](registry),
		health:    ecs.RegisterComponent[*Health](registry),
		probe:     ecs.RegisterComponent[*Probe](registry),
	}
	return registry, ids
}

func newTestWorld() (*ecs.World, testIDs) {
	registry, ids := newTestRegistry()
	return ecs.NewWorld(registry), ids
}
