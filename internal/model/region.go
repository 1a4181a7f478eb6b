package model

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Selector names a memory region exposed by the execution engine.
type Selector string

const (
	// SelectorMain is the main RAM of the emulated console.
	SelectorMain Selector = "main"

	// SelectorExtended is the extended RAM (Wii MEM2).
	SelectorExtended Selector = "extended"

	// SelectorVirtual is the fake virtual memory mapped at 0x7E000000.
	SelectorVirtual Selector = "vmem"
)

// Default base addresses of the known regions.
const (
	DefaultMainBase     uint32 = 0x80000000
	DefaultExtendedBase uint32 = 0x90000000
	DefaultVirtualBase  uint32 = 0x7E000000
)

// ErrUnknownSelector is returned by ParseSelector for unrecognised names.
var ErrUnknownSelector = errors.New("unknown region selector")

// ErrAddressUnavailable reports that an offset is not currently readable.
// Decode never returns it; the row is rendered with the Unavailable sentinel.
var ErrAddressUnavailable = errors.New("address unavailable")

// ParseSelector converts operator input into a Selector.
// The emulator's own region names ("wii", "fakevmem") are accepted as aliases.
func ParseSelector(s string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "mem1", "ram":
		return SelectorMain, nil
	case "extended", "ex", "wii", "mem2":
		return SelectorExtended, nil
	case "vmem", "virtual", "fakevmem":
		return SelectorVirtual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSelector, s)
	}
}

// DefaultBase returns the conventional base address for a selector.
func (s Selector) DefaultBase() uint32 {
	switch s {
	case SelectorExtended:
		return DefaultExtendedBase
	case SelectorVirtual:
		return DefaultVirtualBase
	default:
		return DefaultMainBase
	}
}

// Span is a half-open range of offsets [Start, End).
type Span struct {
	Start uint32
	End   uint32
}

// Overlaps reports whether [offset, offset+width) intersects the span.
func (s Span) Overlaps(offset, width uint32) bool {
	return offset < s.End && offset+width > s.Start
}

// Region is a contiguous addressable memory buffer.
//
// The buffer is owned by the execution engine that exposes it. A scan session
// keeps a non-owning reference between Initialize and Reset, and reads it
// only from the engine's own goroutine.
type Region struct {
	// Selector identifies where the region came from.
	Selector Selector

	// Base is the absolute address of Buffer[0].
	Base uint32

	// Size is the number of bytes in the region. Always len(Buffer).
	Size uint32

	// Buffer holds the live memory contents.
	Buffer []byte

	// holes are spans the provider could not fetch on its last refresh,
	// sorted by Start, disjoint and never adjacent.
	holes []Span
}

// NewRegion wraps buffer as a region starting at base.
func NewRegion(selector Selector, base uint32, buffer []byte) *Region {
	return &Region{
		Selector: selector,
		Base:     base,
		Size:     uint32(len(buffer)),
		Buffer:   buffer,
	}
}

// Valid reports whether the region has a bound buffer consistent with Size.
func (r *Region) Valid() bool {
	return r != nil && r.Buffer != nil && uint32(len(r.Buffer)) == r.Size
}

// End returns the address one past the last byte of the region.
func (r *Region) End() uint32 {
	return r.Base + r.Size
}

// Contains reports whether the absolute address falls inside the region.
func (r *Region) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// Readable reports whether width bytes at offset can currently be read.
func (r *Region) Readable(offset, width uint32) bool {
	if !r.Valid() || offset >= r.Size || r.Size-offset < width {
		return false
	}
	// Only the first hole ending after offset can overlap.
	i := r.firstHoleEndingAfter(offset)
	return i == len(r.holes) || !r.holes[i].Overlaps(offset, width)
}

// Unreadable reports whether no byte of the region can currently be read.
func (r *Region) Unreadable() bool {
	return len(r.holes) == 1 && r.holes[0].Start == 0 && r.holes[0].End >= r.Size
}

func (r *Region) firstHoleEndingAfter(offset uint32) int {
	return sort.Search(len(r.holes), func(i int) bool {
		return r.holes[i].End > offset
	})
}

// Bytes returns the live bytes at offset, or ErrAddressUnavailable.
// The returned slice aliases the buffer.
func (r *Region) Bytes(offset, width uint32) ([]byte, error) {
	if !r.Readable(offset, width) {
		return nil, fmt.Errorf("%w: 0x%08x", ErrAddressUnavailable, r.Base+offset)
	}
	return r.Buffer[offset : offset+width], nil
}

// MarkUnreadable records that [start, end) could not be fetched. The span is
// merged with overlapping and adjacent holes.
// Providers call this from the engine goroutine only.
func (r *Region) MarkUnreadable(start, end uint32) {
	if start >= end {
		return
	}
	i := sort.Search(len(r.holes), func(i int) bool {
		return r.holes[i].End >= start
	})
	j := i
	for j < len(r.holes) && r.holes[j].Start <= end {
		start = min(start, r.holes[j].Start)
		end = max(end, r.holes[j].End)
		j++
	}
	r.holes = slices.Replace(r.holes, i, j, Span{Start: start, End: end})
}

// ClearUnreadable marks [start, end) readable again, splitting any hole
// that extends past it.
func (r *Region) ClearUnreadable(start, end uint32) {
	if start >= end {
		return
	}
	i := r.firstHoleEndingAfter(start)
	var rest []Span
	j := i
	for j < len(r.holes) && r.holes[j].Start < end {
		h := r.holes[j]
		if h.Start < start {
			rest = append(rest, Span{Start: h.Start, End: start})
		}
		if h.End > end {
			rest = append(rest, Span{Start: end, End: h.End})
		}
		j++
	}
	r.holes = slices.Replace(r.holes, i, j, rest...)
}

// ResetUnreadable marks the whole region readable again.
func (r *Region) ResetUnreadable() {
	r.holes = nil
}

// Holes returns a copy of the currently unreadable spans.
func (r *Region) Holes() []Span {
	out := make([]Span, len(r.holes))
	copy(out, r.holes)
	return out
}

// String implements fmt.Stringer.
func (r *Region) String() string {
	if r == nil {
		return "<no region>"
	}
	return fmt.Sprintf("%s start-%#08x end-%#08x (size %d)", r.Selector, r.Base, r.End(), r.Size)
}
