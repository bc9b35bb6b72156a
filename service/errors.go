package service

import "errors"

var (
	ErrTaskBodyMissing = errors.New("service: task has no function")
	ErrTaskFailed      = errors.New("service: task reported failure")
	ErrServiceUnknown  = errors.New("service: no proxy registered for service")
	ErrProxyType       = errors.New("service: proxy registered with a different context type")
)
