// Package log provides the application's slog loggers.
//
// Text output goes through charmbracelet/log, which implements slog.Handler.
// JSON output uses slog.JSONHandler. Both are wrapped by AddressHandler so
// integer attributes naming an address are printed as 8-digit hex, the way
// addresses appear in the result table.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("scan initialized", "base", uint32(0x80000000), "candidates", 1024)
//	// DEBU cheatscan: scan initialized base=0x80000000 candidates=1024
package log
