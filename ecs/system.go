package ecs

import (
	"context"
	"math"
	"time"

	"github.com/plus3/tecs/logging"
)

// SystemStats provides statistics about frame execution.
type SystemStats struct {
	Frames     uint64
	Elapsed    time.Duration
	DeltaTime  float64
	Components []ComponentStats
}

// ComponentStats provides update statistics for one component type.
type ComponentStats struct {
	ID             ComponentID
	Name           string
	LastEntities   int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type componentStatsInternal struct {
	lastEntities   int
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// System drives one world frame by frame: it advances delta time, runs the entity
// object pass, then updates every committed component in ascending ComponentID order.
type System struct {
	world    *World
	graph    *EntityObjectGraph
	clock    Clock
	logger   logging.Logger
	commands *Commands

	bootstrapDelta float64
	started        bool
	startTime      time.Time
	lastTime       time.Time
	deltaTime      float64
	frames         uint64
	lastFlushErr   error

	stats []*componentStatsInternal
}

// SystemOption customizes a System.
type SystemOption func(*System)

// WithClock replaces the wall clock, typically with a ManualClock in tests.
func WithClock(c Clock) SystemOption {
	return func(s *System) {
		s.clock = c
	}
}

// WithBootstrapDelta sets the delta time reported on the first frame. Negative
// and non-finite values are replaced by zero.
func WithBootstrapDelta(dt float64) SystemOption {
	return func(s *System) {
		if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
			dt = 0
		}
		s.bootstrapDelta = dt
	}
}

// WithSystemLogger sets the logger.
func WithSystemLogger(l logging.Logger) SystemOption {
	return func(s *System) {
		s.logger = logging.OrNop(l)
	}
}

// NewSystem creates a driver for world. graph may be nil when no entity objects are used.
func NewSystem(world *World, graph *EntityObjectGraph, opts ...SystemOption) *System {
	if graph == nil {
		graph = NewEntityObjectGraph()
	}
	s := &System{
		world:    world,
		graph:    graph,
		clock:    WallClock(),
		logger:   logging.Nop(),
		commands: NewCommands(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commands returns the buffer flushed at the end of every frame.
func (s *System) Commands() *Commands {
	return s.commands
}

// Update runs one frame timed by the system clock. The first frame uses the
// bootstrap delta. It returns false when the frame loop should stop.
func (s *System) Update() bool {
	now := s.clock.Now()

	var dt float64
	if !s.started {
		s.started = true
		s.startTime = now
		dt = s.bootstrapDelta
		s.logger.Debug("system started", "bootstrap_dt", dt)
	} else {
		dt = now.Sub(s.lastTime).Seconds()
		if dt < 0 {
			dt = 0
		}
	}
	s.lastTime = now

	return s.Once(dt)
}

// Once runs one frame with an explicit delta time, leaving the clock untouched.
func (s *System) Once(dt float64) bool {
	s.deltaTime = dt
	s.frames++

	if !s.graph.run(s.graph.compile(), dt) {
		s.logger.Debug("object pass stopped the frame", "frame", s.frames)
		return false
	}

	s.updateComponents(dt)

	s.lastFlushErr = s.commands.Flush(s.world)
	if s.lastFlushErr != nil {
		s.logger.Warn("deferred commands failed", "frame", s.frames, "err", s.lastFlushErr)
	}
	return true
}

func (s *System) updateComponents(dt float64) {
	maxID, ok := s.world.registry.MaxID()
	if !ok {
		return
	}
	s.ensureStats(int(maxID) + 1)

	for id := ComponentID(0); ; id++ {
		s.updateType(id, dt)
		if id == maxID {
			break
		}
	}
}

func (s *System) updateType(id ComponentID, dt float64) {
	set := s.world.View(id)
	if set.Len() == 0 {
		return
	}

	start := time.Now()
	updated := 0
	for e := range set.All() {
		rec, ok := s.world.record(e, id)
		if !ok {
			continue
		}
		rec.value.Update(EntityHandle{entity: e, world: s.world}, dt)
		updated++
	}
	s.record(id, updated, time.Since(start))
}

func (s *System) ensureStats(n int) {
	for len(s.stats) < n {
		s.stats = append(s.stats, &componentStatsInternal{
			minDuration: time.Duration(math.MaxInt64),
		})
	}
}

func (s *System) record(id ComponentID, entities int, duration time.Duration) {
	stats := s.stats[id]
	stats.lastEntities = entities
	stats.executionCount++
	stats.lastDuration = duration
	stats.totalDuration += duration

	if duration < stats.minDuration {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// Run calls Update every interval until ctx is done or a frame returns false.
func (s *System) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.Update() {
				return nil
			}
		}
	}
}

// DeltaTime returns the delta time of the last frame in seconds.
func (s *System) DeltaTime() float64 {
	return s.deltaTime
}

// Elapsed returns the clock time between the first and the latest Update.
func (s *System) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return s.lastTime.Sub(s.startTime)
}

// Frames returns the number of frames run.
func (s *System) Frames() uint64 {
	return s.frames
}

// LastFlushErr returns the error of the most recent command flush.
func (s *System) LastFlushErr() error {
	return s.lastFlushErr
}

// Stats returns per component type update statistics.
func (s *System) Stats() SystemStats {
	stats := SystemStats{
		Frames:     s.frames,
		Elapsed:    s.Elapsed(),
		DeltaTime:  s.deltaTime,
		Components: make([]ComponentStats, 0, len(s.stats)),
	}

	for i, internal := range s.stats {
		if internal.executionCount == 0 {
			continue
		}
		id := ComponentID(i)
		info, _ := s.world.registry.Info(id)

		stats.Components = append(stats.Components, ComponentStats{
			ID:             id,
			Name:           info.Name,
			LastEntities:   internal.lastEntities,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    internal.totalDuration / time.Duration(internal.executionCount),
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		})
	}
	return stats
}
