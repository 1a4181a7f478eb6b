package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// addressKeys are attribute keys whose integer values are addresses.
var addressKeys = map[string]bool{
	"address": true,
	"addr":    true,
	"base":    true,
	"offset":  true,
	"start":   true,
	"end":     true,
}

// AddressHandler wraps an slog.Handler and renders integer attributes whose
// key names an address as "0x%08x".
type AddressHandler struct {
	handler slog.Handler
}

// NewAddressHandler creates a new AddressHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewAddressHandler(handler slog.Handler) *AddressHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &AddressHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *AddressHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites address attributes and passes the record on.
func (h *AddressHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(formatAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *AddressHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	formatted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		formatted[i] = formatAttr(a)
	}
	return &AddressHandler{handler: h.handler.WithAttrs(formatted)}
}

// WithGroup returns a new handler with the given group name.
func (h *AddressHandler) WithGroup(name string) slog.Handler {
	return &AddressHandler{handler: h.handler.WithGroup(name)}
}

func formatAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		formatted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			formatted[i] = formatAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(formatted...)}
	case slog.KindUint64:
		if addressKeys[a.Key] {
			return slog.String(a.Key, fmt.Sprintf("0x%08x", v.Uint64()))
		}
	case slog.KindInt64:
		if addressKeys[a.Key] && v.Int64() >= 0 {
			return slog.String(a.Key, fmt.Sprintf("0x%08x", v.Int64()))
		}
	}
	return a
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text logger writing to w through charmbracelet/log.
// Verbose sets the level to Debug; otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	charm := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level(verbose)),
		Prefix:          "cheatscan",
		ReportTimestamp: verbose,
	})
	return slog.New(NewAddressHandler(charm))
}

// NewJSONLogger creates a logger that outputs JSON, for log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewAddressHandler(jsonHandler))
}
