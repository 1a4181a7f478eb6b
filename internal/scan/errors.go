package scan

import "errors"

var (
	// ErrNoActiveMemory is returned by Initialize when the region has no
	// bound buffer, for example because the emulated program is not running.
	ErrNoActiveMemory = errors.New("no active memory region")

	// ErrSessionNotInitialized is returned by Refine and Decode before a
	// successful Initialize.
	ErrSessionNotInitialized = errors.New("scan session is not initialized")
)
