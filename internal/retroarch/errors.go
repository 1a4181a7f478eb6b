package retroarch

import "errors"

var (
	// ErrNotConnected is returned when a command is sent before Connect.
	ErrNotConnected = errors.New("not connected to RetroArch")

	// ErrCoreRefused is returned when the core answers a request with -1,
	// typically because the address is not mapped.
	ErrCoreRefused = errors.New("RetroArch refused the request")

	// ErrInvalidResponse is returned for malformed replies.
	ErrInvalidResponse = errors.New("invalid RetroArch response")
)
