package service_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/plus3/tecs/job"
	"github.com/plus3/tecs/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modifiedValue = 100

type sampleContext struct {
	mu   sync.Mutex
	data int
	log  []string
}

func (c *sampleContext) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func newScheduler(t *testing.T, workers int) *job.JobScheduler {
	t.Helper()
	js, err := job.NewJobScheduler(job.Config{Workers: workers})
	require.NoError(t, err)
	t.Cleanup(js.Shutdown)
	return js
}

// modifyContextData schedules a job that writes into the context and waits for it.
func modifyContextData() service.Task[*sampleContext] {
	return service.NewTask[*sampleContext](func(ctx *sampleContext, js *job.JobScheduler) bool {
		h, err := js.ScheduleJob(func() {
			ctx.data = modifiedValue
		})
		if err != nil {
			return false
		}
		h.Wait()
		return h.Err() == nil
	}, service.TaskInfo{Name: "modify"})
}

func recordTask(name string, ok bool) service.Task[*sampleContext] {
	return service.NewTask[*sampleContext](func(ctx *sampleContext, _ *job.JobScheduler) bool {
		ctx.record(name)
		return ok
	}, service.TaskInfo{Name: name})
}

func TestServiceThroughProxy(t *testing.T) {
	js := newScheduler(t, 4)
	svc := service.New(js, &sampleContext{})

	registry := service.NewRegistry()
	manager := service.NewProxyManager()
	id := registry.ID("sample")
	service.Register(manager, id, service.NewProxy(svc))

	proxy, err := service.Get[*sampleContext](manager, id)
	require.NoError(t, err)
	proxy.Submit(service.TaskList[*sampleContext]{modifyContextData()})
	assert.Equal(t, 1, svc.Pending())

	require.NoError(t, svc.PreUpdate())
	require.NoError(t, svc.Update())
	require.NoError(t, svc.PostUpdate())

	proxy, err = service.Get[*sampleContext](manager, id)
	require.NoError(t, err)
	assert.Equal(t, modifiedValue, proxy.Context().data)
	assert.Equal(t, 0, svc.Pending())
}

func TestServiceRunsListsInOrder(t *testing.T) {
	js := newScheduler(t, 1)
	svc := service.New(js, &sampleContext{})

	svc.Submit(service.TaskList[*sampleContext]{recordTask("a", true), recordTask("b", true)})
	svc.Submit(service.TaskList[*sampleContext]{recordTask("c", true)})

	require.NoError(t, svc.Update())
	assert.Equal(t, []string{"a", "b", "c"}, svc.Context().log)

	// Nothing left to run.
	require.NoError(t, svc.Update())
	assert.Len(t, svc.Context().log, 3)
}

func TestServiceTaskFailure(t *testing.T) {
	js := newScheduler(t, 1)
	svc := service.New(js, &sampleContext{}, service.WithName[*sampleContext]("audio"))

	svc.Submit(service.TaskList[*sampleContext]{recordTask("a", true), recordTask("b", false), recordTask("c", true)})
	svc.Submit(service.TaskList[*sampleContext]{recordTask("d", true)})

	err := svc.Update()
	assert.ErrorIs(t, err, service.ErrTaskFailed)
	assert.Contains(t, err.Error(), "audio")
	assert.Contains(t, err.Error(), `"b"`)
	assert.Equal(t, []string{"a", "b"}, svc.Context().log)
	assert.Equal(t, 0, svc.Pending())
}

func TestServiceTaskWithoutBody(t *testing.T) {
	js := newScheduler(t, 1)
	svc := service.New(js, &sampleContext{})

	svc.Submit(service.TaskList[*sampleContext]{service.NewTask[*sampleContext](nil)})
	assert.ErrorIs(t, svc.Update(), service.ErrTaskBodyMissing)
}

func TestServiceHooks(t *testing.T) {
	js := newScheduler(t, 1)
	boom := errors.New("boom")
	var pre, post atomic.Int32

	svc := service.New(js, &sampleContext{},
		service.WithPreUpdate[*sampleContext](func(ctx *sampleContext) error {
			pre.Add(1)
			ctx.record("pre")
			return nil
		}),
		service.WithPostUpdate[*sampleContext](func(ctx *sampleContext) error {
			post.Add(1)
			return boom
		}),
	)
	svc.Submit(service.TaskList[*sampleContext]{recordTask("task", true)})

	assert.ErrorIs(t, svc.Tick(), boom)
	assert.Equal(t, int32(1), pre.Load())
	assert.Equal(t, int32(1), post.Load())
	assert.Equal(t, []string{"pre", "task"}, svc.Context().log)
}

func TestServiceConcurrentSubmit(t *testing.T) {
	js := newScheduler(t, 4)
	svc := service.New(js, &sampleContext{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Submit(service.TaskList[*sampleContext]{recordTask("x", true)})
		}()
	}
	wg.Wait()

	require.NoError(t, svc.Update())
	assert.Len(t, svc.Context().log, 16)
}
