package service

import (
	"sync"

	"github.com/plus3/tecs/job"
)

// TaskFunc is the body of a task. It may schedule jobs on js and wait for them.
// Returning false marks the task as failed.
type TaskFunc[C any] func(ctx C, js *job.JobScheduler) bool

// TaskInfo describes a task for logs and errors.
type TaskInfo struct {
	Name string
}

// Task is one unit of work submitted to a Service.
type Task[C any] struct {
	fn   TaskFunc[C]
	info TaskInfo
}

// NewTask creates a task. info is optional.
func NewTask[C any](fn TaskFunc[C], info ...TaskInfo) Task[C] {
	t := Task[C]{fn: fn}
	if len(info) > 0 {
		t.info = info[0]
	}
	return t
}

// Info returns the task description.
func (t Task[C]) Info() TaskInfo {
	return t.info
}

// Execute runs the task body.
func (t Task[C]) Execute(ctx C, js *job.JobScheduler) (bool, error) {
	if t.fn == nil {
		return false, ErrTaskBodyMissing
	}
	return t.fn(ctx, js), nil
}

// TaskList is executed in order by a single Service.Update.
type TaskList[C any] []Task[C]

// TaskListQueue is a FIFO of task lists, safe for concurrent use.
type TaskListQueue[C any] struct {
	mu    sync.Mutex
	lists []TaskList[C]
}

func (q *TaskListQueue[C]) Enqueue(tasks TaskList[C]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists = append(q.lists, tasks)
}

// Dequeue pops the oldest list. It reports false when the queue is empty.
func (q *TaskListQueue[C]) Dequeue() (TaskList[C], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lists) == 0 {
		return nil, false
	}
	tasks := q.lists[0]
	q.lists[0] = nil
	q.lists = q.lists[1:]
	return tasks, true
}

// DrainAll pops every list in submission order.
func (q *TaskListQueue[C]) DrainAll() []TaskList[C] {
	q.mu.Lock()
	defer q.mu.Unlock()
	all := q.lists
	q.lists = nil
	return all
}

func (q *TaskListQueue[C]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lists)
}
