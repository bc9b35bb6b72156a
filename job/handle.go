package job

import (
	"context"
	"sync"
	"sync/atomic"
)

// JobState is the one-shot completion signal shared by the worker that runs a job
// and every holder of the job's handle.
type JobState struct {
	completed atomic.Bool
	once      sync.Once
	done      chan struct{}

	// err is written before done is closed and only read after.
	err error
}

func newJobState() *JobState {
	return &JobState{done: make(chan struct{})}
}

// MarkCompleted transitions the state to completed and wakes every waiter.
// Only the first call has an effect; it reports whether this call performed the transition.
func (s *JobState) MarkCompleted(err error) bool {
	marked := false
	s.once.Do(func() {
		s.err = err
		s.completed.Store(true)
		close(s.done)
		marked = true
	})
	return marked
}

// Completed reports whether the job has finished, was cancelled, or panicked.
func (s *JobState) Completed() bool {
	return s.completed.Load()
}

// JobHandle is returned by ScheduleJob. Copies share the same state.
type JobHandle struct {
	state *JobState
}

// Wait blocks until the job completes. A zero handle returns immediately.
func (h JobHandle) Wait() {
	if h.state == nil {
		return
	}
	<-h.state.done
}

// WaitContext blocks until the job completes or ctx is done.
// It returns ctx.Err() on timeout and the job's completion error otherwise.
func (h JobHandle) WaitContext(ctx context.Context) error {
	if h.state == nil {
		return ErrInvalidHandle
	}
	select {
	case <-h.state.done:
		return h.state.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed on completion.
func (h JobHandle) Done() <-chan struct{} {
	if h.state == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.state.done
}

// Completed reports whether the job has reached its terminal state.
func (h JobHandle) Completed() bool {
	return h.state == nil || h.state.Completed()
}

// Err returns the completion error: nil for a job that ran to the end,
// ErrJobCancelled, or a *PanicError. It is nil while the job is pending.
func (h JobHandle) Err() error {
	if h.state == nil {
		return ErrInvalidHandle
	}
	if !h.state.Completed() {
		return nil
	}
	return h.state.err
}

// Valid reports whether the handle is bound to a scheduled job.
func (h JobHandle) Valid() bool {
	return h.state != nil
}

// WaitAll waits on every handle in order.
func WaitAll(handles ...JobHandle) {
	for _, h := range handles {
		h.Wait()
	}
}
