// Package service runs submitted task lists against a shared context, using a
// job.JobScheduler for any parallel work the tasks need.
package service

import (
	"fmt"

	"github.com/plus3/tecs/job"
	"github.com/plus3/tecs/logging"
)

// Hook runs before or after the task pass.
type Hook[C any] func(ctx C) error

// Service owns a context of type C and executes the task lists submitted to it.
// Submit is safe from any goroutine; the update phases belong to one driver.
type Service[C any] struct {
	name   string
	jobs   *job.JobScheduler
	ctx    C
	queue  TaskListQueue[C]
	logger logging.Logger

	preUpdate  Hook[C]
	postUpdate Hook[C]
}

// Option customizes a Service.
type Option[C any] func(*Service[C])

// WithName names the service in logs and errors.
func WithName[C any](name string) Option[C] {
	return func(s *Service[C]) {
		s.name = name
	}
}

func WithLogger[C any](l logging.Logger) Option[C] {
	return func(s *Service[C]) {
		s.logger = logging.OrNop(l)
	}
}

// WithPreUpdate sets the hook run by PreUpdate.
func WithPreUpdate[C any](h Hook[C]) Option[C] {
	return func(s *Service[C]) {
		s.preUpdate = h
	}
}

// WithPostUpdate sets the hook run by PostUpdate.
func WithPostUpdate[C any](h Hook[C]) Option[C] {
	return func(s *Service[C]) {
		s.postUpdate = h
	}
}

// New creates a service around ctx. Tasks receive ctx and js.
func New[C any](js *job.JobScheduler, ctx C, opts ...Option[C]) *Service[C] {
	s := &Service[C]{
		name:   "service",
		jobs:   js,
		ctx:    ctx,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service[C]) Name() string {
	return s.name
}

// Context returns the service context.
func (s *Service[C]) Context() C {
	return s.ctx
}

// Submit queues tasks for the next Update.
func (s *Service[C]) Submit(tasks TaskList[C]) {
	s.queue.Enqueue(tasks)
}

// Pending returns the number of task lists waiting for Update.
func (s *Service[C]) Pending() int {
	return s.queue.Len()
}

func (s *Service[C]) PreUpdate() error {
	if s.preUpdate == nil {
		return nil
	}
	return s.preUpdate(s.ctx)
}

// Update drains every submitted list and runs the tasks in submission order.
// The first failing task stops the pass; lists not yet reached are dropped.
func (s *Service[C]) Update() error {
	lists := s.queue.DrainAll()
	for i, tasks := range lists {
		for _, task := range tasks {
			ok, err := task.Execute(s.ctx, s.jobs)
			if err == nil && !ok {
				err = ErrTaskFailed
			}
			if err != nil {
				s.logger.Warn("task failed",
					"service", s.name,
					"task", task.Info().Name,
					"dropped_lists", len(lists)-i-1,
					"err", err)
				return fmt.Errorf("%s: task %q: %w", s.name, task.Info().Name, err)
			}
		}
	}
	return nil
}

func (s *Service[C]) PostUpdate() error {
	if s.postUpdate == nil {
		return nil
	}
	return s.postUpdate(s.ctx)
}

// Tick runs PreUpdate, Update and PostUpdate, stopping at the first error.
func (s *Service[C]) Tick() error {
	if err := s.PreUpdate(); err != nil {
		return err
	}
	if err := s.Update(); err != nil {
		return err
	}
	return s.PostUpdate()
}
