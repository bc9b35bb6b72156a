package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/tecs/ecs"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond}}
	s.Finalize()

	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Duration:     time.Second,
		Entities:     10,
		Components:   4,
		Workers:      2,
		JobsPerFrame: 8,
		System: ecs.SystemStats{
			Frames: 42,
			Components: []ecs.ComponentStats{
				{Name: "Position", LastEntities: 10},
			},
		},
		JobsRun:        336,
		GCPauseMetrics: true,
	}

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))

	out := buf.String()
	assert.Contains(t, out, "**Frames:** 42")
	assert.Contains(t, out, "Position")
	assert.Contains(t, out, "Run by dispatcher: 336")
	assert.Contains(t, out, "GC Pause Durations")
}

func TestSimulationRespawns(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	world := ecs.NewWorld(registry)
	sim := &simulation{}
	sim.system = ecs.NewSystem(world, nil)

	h := world.CreateEntityHandle()
	require.NoError(t, ecs.Attach(h, &Position{}))
	require.NoError(t, ecs.Attach(h, &Lifetime{Remaining: 0.1, sim: sim}))
	require.NoError(t, h.Commit())

	require.True(t, sim.system.Once(0.5))
	require.NoError(t, sim.system.LastFlushErr())

	assert.False(t, h.Valid())
	assert.Equal(t, int64(1), sim.respawned)
	assert.Equal(t, 1, world.EntityCount())
}
