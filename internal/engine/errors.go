package engine

import "errors"

var (
	// ErrNotRunning is returned by RunSync when the loop is not started.
	ErrNotRunning = errors.New("execution engine is not running")

	// ErrAlreadyRunning is returned by Start on a running loop.
	ErrAlreadyRunning = errors.New("execution engine is already running")

	// ErrPanic wraps a panic recovered from work submitted to the loop.
	ErrPanic = errors.New("panic in engine work")
)
