package naparnik

import "errors"

var (
	// ErrAlreadyRunning is returned when a session is started over an active one without cancelling it first.
	ErrAlreadyRunning = errors.New("naparnik: session already running")
	ErrNotFound       = errors.New("naparnik: not found")
	// ErrTransientDelivery wraps renderer failures. It is logged, never returned to callers.
	ErrTransientDelivery = errors.New("naparnik: delivery failed")
	ErrPersistence       = errors.New("naparnik: persistence failed")
)
