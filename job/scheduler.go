// Package job runs functions on a fixed pool of worker goroutines that drain one shared FIFO queue.
package job

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/plus3/tecs/logging"
)

// Job is a unit of asynchronous work.
type Job func()

// ShutdownPolicy decides what happens to jobs still queued when Shutdown is called.
type ShutdownPolicy int

const (
	// ShutdownCancel completes every queued job with ErrJobCancelled without running it.
	ShutdownCancel ShutdownPolicy = iota
	// ShutdownDrain runs every queued job before the workers stop.
	ShutdownDrain
)

func (p ShutdownPolicy) String() string {
	switch p {
	case ShutdownCancel:
		return "cancel"
	case ShutdownDrain:
		return "drain"
	default:
		return "unknown"
	}
}

// WorkerState is the lifecycle state of one worker goroutine.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures a JobScheduler.
type Config struct {
	Workers  int
	Shutdown ShutdownPolicy
	Logger   logging.Logger
}

// DefaultConfig uses one worker per CPU and cancels queued jobs on shutdown.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		Shutdown: ShutdownCancel,
	}
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Workers   int
	Queued    int
	Scheduled int64
	Completed int64
	Cancelled int64
	Panicked  int64
}

type queuedJob struct {
	job   Job
	state *JobState
}

// JobScheduler owns a fixed set of workers. ScheduleJob may be called from any goroutine,
// including from inside a running job.
type JobScheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []queuedJob
	stopping bool

	policy ShutdownPolicy
	logger logging.Logger

	states       []atomic.Int32
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	scheduled atomic.Int64
	completed atomic.Int64
	cancelled atomic.Int64
	panicked  atomic.Int64
}

// NewJobScheduler starts cfg.Workers workers, all idle.
func NewJobScheduler(cfg Config) (*JobScheduler, error) {
	if cfg.Workers <= 0 {
		return nil, ErrNoWorkers
	}

	s := &JobScheduler{
		policy: cfg.Shutdown,
		logger: logging.OrNop(cfg.Logger),
		states: make([]atomic.Int32, cfg.Workers),
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go s.work(i)
	}

	s.logger.Debug("job scheduler started", "workers", cfg.Workers, "shutdown", cfg.Shutdown.String())
	return s, nil
}

// ScheduleJob queues job and returns a handle to await it. It never blocks on job execution.
func (s *JobScheduler) ScheduleJob(job Job) (JobHandle, error) {
	if job == nil {
		return JobHandle{}, ErrJobBodyMissing
	}

	state := newJobState()

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return JobHandle{}, ErrShutdownPending
	}
	s.queue = append(s.queue, queuedJob{job: job, state: state})
	s.mu.Unlock()

	s.scheduled.Add(1)
	s.cond.Signal()

	return JobHandle{state: state}, nil
}

// ScheduleAll schedules jobs in order. On error the handles scheduled so far are returned.
func (s *JobScheduler) ScheduleAll(jobs ...Job) ([]JobHandle, error) {
	handles := make([]JobHandle, 0, len(jobs))
	for _, j := range jobs {
		h, err := s.ScheduleJob(j)
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (s *JobScheduler) work(id int) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopping {
			s.states[id].Store(int32(WorkerIdle))
			s.cond.Wait()
		}

		if s.stopping && (len(s.queue) == 0 || s.policy == ShutdownCancel) {
			s.mu.Unlock()
			s.states[id].Store(int32(WorkerStopped))
			return
		}

		next := s.queue[0]
		s.queue[0] = queuedJob{}
		s.queue = s.queue[1:]
		s.states[id].Store(int32(WorkerRunning))
		s.mu.Unlock()

		next.state.MarkCompleted(s.execute(id, next.job))
		s.completed.Add(1)
	}
}

func (s *JobScheduler) execute(worker int, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.panicked.Add(1)
			s.logger.Error("job panicked", "worker", worker, "panic", r)
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	job()
	return nil
}

// Shutdown stops accepting jobs, wakes every worker and waits for all of them to exit.
// Jobs still queued are handled according to the configured ShutdownPolicy, so no
// handle is left waiting forever. Calling Shutdown from inside a job deadlocks.
func (s *JobScheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		s.mu.Unlock()
		s.cond.Broadcast()

		s.wg.Wait()

		s.mu.Lock()
		leftover := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, q := range leftover {
			q.state.MarkCompleted(ErrJobCancelled)
		}
		s.cancelled.Add(int64(len(leftover)))

		s.logger.Debug("job scheduler stopped",
			"completed", s.completed.Load(),
			"cancelled", len(leftover),
		)
	})
}

// Stopping reports whether Shutdown has been called.
func (s *JobScheduler) Stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Workers returns the number of workers.
func (s *JobScheduler) Workers() int {
	return len(s.states)
}

// WorkerStates returns the current state of every worker.
func (s *JobScheduler) WorkerStates() []WorkerState {
	out := make([]WorkerState, len(s.states))
	for i := range s.states {
		out[i] = WorkerState(s.states[i].Load())
	}
	return out
}

// Stats returns a snapshot of the scheduler counters.
func (s *JobScheduler) Stats() Stats {
	s.mu.Lock()
	queued := len(s.queue)
	s.mu.Unlock()

	return Stats{
		Workers:   len(s.states),
		Queued:    queued,
		Scheduled: s.scheduled.Load(),
		Completed: s.completed.Load(),
		Cancelled: s.cancelled.Load(),
		Panicked:  s.panicked.Load(),
	}
}
