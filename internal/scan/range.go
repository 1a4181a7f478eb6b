package scan

import (
	"fmt"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/model"
)

// alignMask aligns region offsets down to the 16-byte access granularity.
const alignMask uint32 = 0xFFFFFFF0

// Range is a half-open range of region offsets [Start, End).
type Range struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes in the range.
func (r Range) Len() uint32 {
	return r.End - r.Start
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%#x, %#x)", r.Start, r.End)
}

// EffectiveRange converts the requested absolute hex bounds into region
// offsets.
//
// Each bound is made relative to the region base with 32-bit wrap-around and
// aligned down to 16 bytes. A missing or unparsable bound uses the full
// region bound. A bound is only accepted if it lies strictly inside the
// region and keeps the range non-empty; otherwise the full bound is kept,
// so out-of-bounds requests fall back to the whole region instead of being
// clamped in place.
func EffectiveRange(region *model.Region, startText, endText string) Range {
	full := Range{Start: 0, End: region.Size}

	customStart := full.Start
	if addr, ok := codec.ParseAddress(startText); ok {
		customStart = (addr - region.Base) & alignMask
	}
	customEnd := full.End
	if addr, ok := codec.ParseAddress(endText); ok {
		customEnd = (addr - region.Base) & alignMask
	}

	r := full
	if customStart > full.Start && customStart < customEnd && customStart < full.End {
		r.Start = customStart
	}
	if customEnd < full.End && customEnd > customStart && customEnd > r.Start {
		r.End = customEnd
	}
	return r
}
