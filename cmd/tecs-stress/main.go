package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"

	"github.com/plus3/tecs/ecs"
	"github.com/plus3/tecs/job"
	"github.com/plus3/tecs/logging"
)

// simulation is the state shared by the stress components and the dispatcher.
type simulation struct {
	jobs         *job.JobScheduler
	system       *ecs.System
	logger       logging.Logger
	jobsPerFrame int

	jobsRun   int64
	jobErrors int64
	respawned int64
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of job scheduler workers.")
	jobsPerFrame := flag.Int("jobs-per-frame", 64, "Jobs the dispatcher schedules and waits for every frame.")
	profileMode := flag.String("profile", "", `Write a "cpu" or "mem" profile to the working directory.`)
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	verbose := flag.Bool("v", false, "Enable debug logging.")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var prof interface{ Stop() }
	switch *profileMode {
	case "":
	case "cpu":
		prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
	case "mem":
		prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
	default:
		logger.Error("unknown profile mode", "profile", *profileMode)
		os.Exit(2)
	}

	err := run(logger, config{
		duration:       *duration,
		entities:       *entityCount,
		workers:        *workers,
		jobsPerFrame:   *jobsPerFrame,
		gcPauseMetrics: *gcPauseMetrics,
	})
	if prof != nil {
		prof.Stop()
	}
	if err != nil {
		logger.Error("stress test failed", "err", err)
		os.Exit(1)
	}
}

type config struct {
	duration       time.Duration
	entities       int
	workers        int
	jobsPerFrame   int
	gcPauseMetrics bool
}

func run(logger *logging.SlogAdapter, cfg config) error {
	logger.Info("starting tecs stress test")

	// 1. Registry, world, scheduler and system
	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	world := ecs.NewWorld(registry, ecs.WithWorldLogger(logger.With("component", "world")))

	js, err := job.NewJobScheduler(job.Config{
		Workers:  cfg.workers,
		Shutdown: job.ShutdownCancel,
		Logger:   logger.With("component", "jobs"),
	})
	if err != nil {
		return fmt.Errorf("job scheduler: %w", err)
	}
	defer js.Shutdown()

	graph := ecs.NewEntityObjectGraph()
	system := ecs.NewSystem(world, graph,
		ecs.WithBootstrapDelta(1.0/60),
		ecs.WithSystemLogger(logger.With("component", "system")),
	)
	sim := &simulation{
		jobs:         js,
		system:       system,
		logger:       logger,
		jobsPerFrame: cfg.jobsPerFrame,
	}

	// 2. Populate the world through the spawner
	spawner := ecs.NewEntityObjectSpawner(world, graph)
	if _, err := ecs.SpawnObject(spawner, func(h ecs.EntityHandle) (*dispatcher, error) {
		return newDispatcher(h, sim)
	}); err != nil {
		return fmt.Errorf("spawn dispatcher: %w", err)
	}

	logger.Info("populating world", "entities", cfg.entities)
	for i := 0; i < cfg.entities; i++ {
		h, err := world.TryCreateEntity()
		if err != nil {
			return err
		}
		handle := world.Handle(h)
		if err := sim.populate(handle); err != nil {
			return err
		}
		if err := handle.Commit(); err != nil {
			return err
		}
	}

	// 3. Frame loop
	report := &Report{
		Duration:       cfg.duration,
		Entities:       cfg.entities,
		Components:     registry.Len(),
		Workers:        cfg.workers,
		JobsPerFrame:   cfg.jobsPerFrame,
		GCPauseMetrics: cfg.gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", "duration", cfg.duration)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	startTime := time.Now()
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			updateStart := time.Now()
			if !system.Update() {
				logger.Warn("frame stopped the loop", "frame", system.Frames())
				break Loop
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.System = system.Stats()
	report.World = world.Stats()
	report.Jobs = js.Stats()
	report.JobsRun = sim.jobsRun
	report.JobErrors = sim.jobErrors
	report.Respawned = sim.respawned

	logger.Info("simulation finished", "frames", system.Frames())

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}
