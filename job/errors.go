package job

import (
	"errors"
	"fmt"
)

var (
	ErrJobBodyMissing  = errors.New("job: job has no function")
	ErrShutdownPending = errors.New("job: scheduler is shutting down")
	ErrJobCancelled    = errors.New("job: cancelled before it started")
	ErrNoWorkers       = errors.New("job: scheduler needs at least one worker")
	ErrInvalidHandle   = errors.New("job: handle is not bound to a job")
)

// PanicError is the completion error of a job whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job: panic: %v", e.Value)
}
