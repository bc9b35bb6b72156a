package main

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/plus3/tecs/ecs"
)

var (
	positionGUID = uuid.MustParse("4c0f6a9e-1d2b-4e7a-8c35-9b1e0d7f6a01")
	velocityGUID = uuid.MustParse("8e2d5b1c-7a4f-4f06-b9d2-3c6e1a0f8b02")
	lifetimeGUID = uuid.MustParse("b5a7c3e9-2f1d-4a8b-9e60-7d4c2b1a0f03")
	spinGUID     = uuid.MustParse("e1f9d7b5-3c2a-4b18-a7e4-6f0d9c8b2a04")
)

type Position struct {
	X, Y float64
}

func (p *Position) Name() string                     { return "Position" }
func (p *Position) GUID() uuid.UUID                  { return positionGUID }
func (p *Position) Update(ecs.EntityHandle, float64) {}

type Velocity struct {
	DX, DY float64
}

func (v *Velocity) Name() string    { return "Velocity" }
func (v *Velocity) GUID() uuid.UUID { return velocityGUID }
func (v *Velocity) Update(h ecs.EntityHandle, dt float64) {
	if p, ok := ecs.Get[*Position](h); ok {
		p.X += v.DX * dt
		p.Y += v.DY * dt
	}
}

// Spin burns a little CPU per entity so that the component pass has weight.
type Spin struct {
	Angle, Rate float64
}

func (s *Spin) Name() string    { return "Spin" }
func (s *Spin) GUID() uuid.UUID { return spinGUID }
func (s *Spin) Update(_ ecs.EntityHandle, dt float64) {
	s.Angle += s.Rate * dt
	for s.Angle > 360 {
		s.Angle -= 360
	}
}

// Lifetime destroys its entity when it runs out and queues a replacement, keeping
// the population steady while slots get recycled.
type Lifetime struct {
	Remaining float64
	sim       *simulation
}

func (l *Lifetime) Name() string    { return "Lifetime" }
func (l *Lifetime) GUID() uuid.UUID { return lifetimeGUID }
func (l *Lifetime) Update(h ecs.EntityHandle, dt float64) {
	l.Remaining -= dt
	if l.Remaining > 0 || l.sim == nil {
		return
	}
	cmds := l.sim.system.Commands()
	cmds.Destroy(h.Entity())
	cmds.Create(l.sim.populate)
	l.sim.respawned++
}

func registerComponents(r *ecs.ComponentRegistry) {
	ecs.RegisterComponent[*Position](r)
	ecs.RegisterComponent[*Velocity](r)
	ecs.RegisterComponent[*Spin](r)
	ecs.RegisterComponent[*Lifetime](r)
}

// populate attaches a random mix of components to h.
func (s *simulation) populate(h ecs.EntityHandle) error {
	if err := ecs.Attach(h, &Position{X: rand.Float64() * 100, Y: rand.Float64() * 100}); err != nil {
		return err
	}
	if rand.Intn(2) == 0 {
		if err := ecs.Attach(h, &Velocity{DX: rand.Float64()*2 - 1, DY: rand.Float64()*2 - 1}); err != nil {
			return err
		}
	}
	if rand.Intn(3) == 0 {
		if err := ecs.Attach(h, &Spin{Rate: rand.Float64() * 90}); err != nil {
			return err
		}
	}
	if rand.Intn(4) == 0 {
		if err := ecs.Attach(h, &Lifetime{Remaining: 0.5 + rand.Float64()*2, sim: s}); err != nil {
			return err
		}
	}
	return nil
}
