// Package arcode formats Action Replay write codes for search matches.
//
// A code line is two 32-bit words. The first word holds the write command
// in its top byte and the address within the 32 MiB main memory window in
// the low 25 bits; the second word holds the value.
package arcode

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nao1215/cheatscan/internal/model"
)

// addressMask keeps the offset into the main memory window.
const addressMask uint32 = 0x01FFFFFF

// Write commands per value width.
const (
	cmdWrite8  uint32 = 0x00
	cmdWrite16 uint32 = 0x02
	cmdWrite32 uint32 = 0x04
)

var (
	// ErrUnsupportedWidth is returned for widths that have no write command.
	ErrUnsupportedWidth = errors.New("no action replay write command for width")

	// ErrUnavailableRow is returned for rows whose value cannot be read.
	ErrUnavailableRow = errors.New("row value is unavailable")
)

// Line returns the code writing value at address with the given width.
func Line(address uint32, width model.Width, value uint32) (string, error) {
	var cmd uint32
	switch width {
	case model.Width8:
		cmd = cmdWrite8
		value &= 0xFF
	case model.Width16:
		cmd = cmdWrite16
		value &= 0xFFFF
	case model.Width32:
		cmd = cmdWrite32
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedWidth, width)
	}
	return fmt.Sprintf("%08X %08X", cmd<<24|address&addressMask, value), nil
}

// ForRow returns the code that pins a decoded row to its current value.
func ForRow(row model.Row, width model.Width) (string, error) {
	if !row.Available {
		return "", fmt.Errorf("%w: %s", ErrUnavailableRow, row.Address)
	}
	address, err := strconv.ParseUint(row.Address, 16, 32)
	if err != nil {
		return "", fmt.Errorf("failed to parse row address %q: %w", row.Address, err)
	}
	value, err := strconv.ParseUint(row.Hex, 16, 32)
	if err != nil {
		return "", fmt.Errorf("failed to parse row value %q: %w", row.Hex, err)
	}
	return Line(uint32(address), width, uint32(value))
}
