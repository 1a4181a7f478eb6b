package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestAddressHandler tests hex rendering of address attributes.
func TestAddressHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		want any
	}{
		{name: "uint32 address", attr: slog.Any("address", uint32(0x80000010)), want: "0x80000010"},
		{name: "base is hex", attr: slog.Uint64("base", 0x90000000), want: "0x90000000"},
		{name: "offset padded", attr: slog.Int("offset", 0x10), want: "0x00000010"},
		{name: "non-address key untouched", attr: slog.Int("candidates", 16), want: float64(16)},
		{name: "string address untouched", attr: slog.String("address", "80000000"), want: "80000000"},
		{name: "negative int untouched", attr: slog.Int("start", -1), want: float64(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewJSONLogger(&buf, true)
			logger.Info("test", tt.attr)

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
			}
			if got := record[tt.attr.Key]; got != tt.want {
				t.Errorf("%s = %v (%T), want %v (%T)", tt.attr.Key, got, got, tt.want, tt.want)
			}
		})
	}
}

// TestAddressHandlerGroupsAndWith tests groups and pre-bound attributes.
func TestAddressHandlerGroupsAndWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, true).With("base", uint32(0x7e000000))
	logger.Info("test", slog.Group("range", slog.Int("start", 0x100), slog.Int("end", 0x200)))

	out := buf.String()
	for _, want := range []string{`"base":"0x7e000000"`, `"start":"0x00000100"`, `"end":"0x00000200"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

// TestNewLogger tests the text logger levels.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet logger drops debug and info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message", "address", uint32(0x80000000))

		out := buf.String()
		if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
			t.Errorf("expected only warnings, got %q", out)
		}
		if !strings.Contains(out, "warn message") || !strings.Contains(out, "0x80000000") {
			t.Errorf("expected warning with hex address, got %q", out)
		}
	})

	t.Run("verbose logger includes debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected debug output, got %q", buf.String())
		}
	})
}
