package job_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plus3/tecs/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T, workers int, policy job.ShutdownPolicy) *job.JobScheduler {
	t.Helper()
	s, err := job.NewJobScheduler(job.Config{Workers: workers, Shutdown: policy})
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func waitTimeout(t *testing.T, h job.JobHandle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.WaitContext(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "job did not complete in time")
	return err
}

func TestNewJobSchedulerRequiresWorkers(t *testing.T) {
	_, err := job.NewJobScheduler(job.Config{Workers: 0})
	assert.ErrorIs(t, err, job.ErrNoWorkers)
}

func TestScheduleJobCompletion(t *testing.T) {
	for _, n := range []int{1, 3, 64} {
		t.Run(fmt.Sprintf("jobs=%d", n), func(t *testing.T) {
			s := newScheduler(t, 4, job.ShutdownCancel)

			var mu sync.Mutex
			counter := 0

			handles := make([]job.JobHandle, 0, n)
			for i := 0; i < n; i++ {
				h, err := s.ScheduleJob(func() {
					mu.Lock()
					counter++
					mu.Unlock()
				})
				require.NoError(t, err)
				handles = append(handles, h)
			}

			for _, h := range handles {
				assert.NoError(t, waitTimeout(t, h))
			}

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, n, counter)
		})
	}
}

func TestScheduleJobFIFOOnSingleWorker(t *testing.T) {
	s := newScheduler(t, 1, job.ShutdownCancel)

	var log []int
	var handles []job.JobHandle
	for i := 0; i < 50; i++ {
		h, err := s.ScheduleJob(func() {
			log = append(log, i)
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	job.WaitAll(handles...)

	expected := make([]int, 50)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, log)
}

func TestScheduleJobNil(t *testing.T) {
	s := newScheduler(t, 1, job.ShutdownCancel)

	h, err := s.ScheduleJob(nil)
	assert.ErrorIs(t, err, job.ErrJobBodyMissing)
	assert.False(t, h.Valid())
}

func TestWaitFromManyGoroutines(t *testing.T) {
	s := newScheduler(t, 2, job.ShutdownCancel)

	release := make(chan struct{})
	h, err := s.ScheduleJob(func() { <-release })
	require.NoError(t, err)

	var woke atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		copied := h
		go func() {
			defer wg.Done()
			copied.Wait()
			woke.Add(1)
		}()
	}

	assert.False(t, h.Completed())
	close(release)
	wg.Wait()

	assert.Equal(t, int32(8), woke.Load())
	assert.True(t, h.Completed())
	assert.NoError(t, h.Err())
}

func TestWaitContextTimeout(t *testing.T) {
	s := newScheduler(t, 1, job.ShutdownCancel)

	release := make(chan struct{})
	h, err := s.ScheduleJob(func() { <-release })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.WaitContext(ctx), context.DeadlineExceeded)
	assert.Nil(t, h.Err())

	close(release)
	assert.NoError(t, waitTimeout(t, h))
}

func TestPanickingJob(t *testing.T) {
	s := newScheduler(t, 1, job.ShutdownCancel)

	h, err := s.ScheduleJob(func() { panic("boom") })
	require.NoError(t, err)

	werr := waitTimeout(t, h)
	var perr *job.PanicError
	require.True(t, errors.As(werr, &perr))
	assert.Equal(t, "boom", perr.Value)
	assert.NotEmpty(t, perr.Stack)

	// The worker survives the panic.
	h2, err := s.ScheduleJob(func() {})
	require.NoError(t, err)
	assert.NoError(t, waitTimeout(t, h2))
	assert.Equal(t, int64(1), s.Stats().Panicked)
}

func TestScheduleFromInsideJob(t *testing.T) {
	s := newScheduler(t, 1, job.ShutdownCancel)

	var inner job.JobHandle
	ran := false
	outer, err := s.ScheduleJob(func() {
		var ierr error
		inner, ierr = s.ScheduleJob(func() { ran = true })
		if ierr != nil {
			panic(ierr)
		}
	})
	require.NoError(t, err)

	require.NoError(t, waitTimeout(t, outer))
	require.NoError(t, waitTimeout(t, inner))
	assert.True(t, ran)
}

func TestShutdownCancelsQueuedJobs(t *testing.T) {
	s, err := job.NewJobScheduler(job.Config{Workers: 1, Shutdown: job.ShutdownCancel})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	blocker, err := s.ScheduleJob(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	var ran atomic.Int32
	queued := make([]job.JobHandle, 0, 5)
	for i := 0; i < 5; i++ {
		h, err := s.ScheduleJob(func() { ran.Add(1) })
		require.NoError(t, err)
		queued = append(queued, h)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	// New work is rejected once shutdown has begun.
	require.Eventually(t, s.Stopping, time.Second, time.Millisecond)
	_, err = s.ScheduleJob(func() {})
	assert.ErrorIs(t, err, job.ErrShutdownPending)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown deadlocked")
	}

	assert.NoError(t, blocker.Err())
	for _, h := range queued {
		assert.ErrorIs(t, waitTimeout(t, h), job.ErrJobCancelled)
	}
	assert.Equal(t, int32(0), ran.Load())

	stats := s.Stats()
	assert.Equal(t, int64(5), stats.Cancelled)
	assert.Equal(t, int64(1), stats.Completed)
	for _, state := range s.WorkerStates() {
		assert.Equal(t, job.WorkerStopped, state)
	}
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	s, err := job.NewJobScheduler(job.Config{Workers: 1, Shutdown: job.ShutdownDrain})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	_, err = s.ScheduleJob(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	var ran atomic.Int32
	queued := make([]job.JobHandle, 0, 5)
	for i := 0; i < 5; i++ {
		h, err := s.ScheduleJob(func() { ran.Add(1) })
		require.NoError(t, err)
		queued = append(queued, h)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown deadlocked")
	}

	for _, h := range queued {
		assert.NoError(t, waitTimeout(t, h))
	}
	assert.Equal(t, int32(5), ran.Load())
	assert.Equal(t, int64(0), s.Stats().Cancelled)
}

func TestShutdownIsIdempotent(t *testing.T) {
	s, err := job.NewJobScheduler(job.DefaultConfig())
	require.NoError(t, err)

	s.Shutdown()
	assert.NotPanics(t, s.Shutdown)
	assert.True(t, s.Stopping())
}

func TestZeroHandle(t *testing.T) {
	var h job.JobHandle
	assert.NotPanics(t, h.Wait)
	assert.True(t, h.Completed())
	assert.ErrorIs(t, h.Err(), job.ErrInvalidHandle)
	assert.ErrorIs(t, h.WaitContext(context.Background()), job.ErrInvalidHandle)

	select {
	case <-h.Done():
	default:
		t.Fatal("zero handle Done channel should be closed")
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "idle", job.WorkerIdle.String())
	assert.Equal(t, "running", job.WorkerRunning.String())
	assert.Equal(t, "stopped", job.WorkerStopped.String())
	assert.Equal(t, "cancel", job.ShutdownCancel.String())
	assert.Equal(t, "drain", job.ShutdownDrain.String())
}
