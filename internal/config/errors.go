package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be checked with
// errors.Is().
var (
	// ErrInvalidRegion is returned for an unknown region selector.
	ErrInvalidRegion = errors.New("invalid region: must be main, extended or vmem")

	// ErrInvalidValueType is returned for an unknown value type.
	ErrInvalidValueType = errors.New("invalid value type: must be 8, 16, 32 or float")

	// ErrInvalidBase is returned for an unknown numeral base.
	ErrInvalidBase = errors.New("invalid base: must be dec, hex or oct")

	// ErrInvalidDisplayCap is returned when the display cap is not positive.
	ErrInvalidDisplayCap = errors.New("invalid display cap: must be positive")

	// ErrInvalidRefreshInterval is returned outside the 100ms to 5000ms range.
	ErrInvalidRefreshInterval = errors.New("invalid refresh interval: must be between 100ms and 5000ms")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidQuantum is returned when the engine quantum is not positive.
	ErrInvalidQuantum = errors.New("invalid engine quantum: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoRetroArchAddress is returned when RetroArch is enabled without an endpoint.
	ErrNoRetroArchAddress = errors.New("no RetroArch address specified")

	// ErrInvalidTimeout is returned when the RetroArch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidChunkSize is returned when the RetroArch chunk size is zero.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidSource is returned for a region source without a file.
	ErrInvalidSource = errors.New("invalid region source")
)
