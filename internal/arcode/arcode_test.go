package arcode

import (
	"errors"
	"testing"

	"github.com/nao1215/cheatscan/internal/model"
)

// TestLine tests code formatting per width.
func TestLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address uint32
		width   model.Width
		value   uint32
		want    string
	}{
		{name: "byte", address: 0x80001234, width: model.Width8, value: 0x63, want: "00001234 00000063"},
		{name: "byte truncates", address: 0x80001234, width: model.Width8, value: 0x1FF, want: "00001234 000000FF"},
		{name: "short", address: 0x80401236, width: model.Width16, value: 0x03E7, want: "02401236 000003E7"},
		{name: "word", address: 0x817FFFFC, width: model.Width32, value: 0xDEADBEEF, want: "057FFFFC DEADBEEF"},
		{name: "mask drops high bits", address: 0x93000010, width: model.Width32, value: 1, want: "05000010 00000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Line(tt.address, tt.width, tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("unsupported width", func(t *testing.T) {
		t.Parallel()

		if _, err := Line(0x80000000, model.Width(3), 0); !errors.Is(err, ErrUnsupportedWidth) {
			t.Errorf("expected ErrUnsupportedWidth, got %v", err)
		}
	})
}

// TestForRow tests codes built from decoded rows.
func TestForRow(t *testing.T) {
	t.Parallel()

	t.Run("available row", func(t *testing.T) {
		t.Parallel()

		row := model.Row{Address: "80000010", Hex: "4048f5c3", Available: true}
		got, err := ForRow(row, model.Width32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "04000010 4048F5C3"; got != want {
			t.Errorf("ForRow() = %q, want %q", got, want)
		}
	})

	t.Run("unavailable row", func(t *testing.T) {
		t.Parallel()

		row := model.Row{Address: "80000010", Hex: model.Unavailable}
		if _, err := ForRow(row, model.Width32); !errors.Is(err, ErrUnavailableRow) {
			t.Errorf("expected ErrUnavailableRow, got %v", err)
		}
	})
}
