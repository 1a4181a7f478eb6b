package scan

import (
	"context"
	"fmt"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/model"
)

// Window selects which candidate indices Decode renders.
type Window struct {
	First int
	Last  int
	all   bool
}

// All selects every displayable row.
func All() Window {
	return Window{First: 0, Last: -1, all: true}
}

// Visible selects rows first through last inclusive. A negative last means
// up to the final displayable row.
func Visible(first, last int) Window {
	return Window{First: first, Last: last}
}

// bounds resolves the window against the number of displayable rows.
// It returns an empty range when nothing intersects.
func (w Window) bounds(displayable int) (int, int) {
	if w.all {
		return 0, displayable
	}
	first := max(w.First, 0)
	last := w.Last
	if last < 0 || last >= displayable {
		last = displayable - 1
	}
	if first > last {
		return first, first
	}
	return first, last + 1
}

// Decode renders the current value of the candidates selected by w.
//
// At most the display cap rows are rendered; Result.Survivors always holds
// the full count. Decode never changes references.
func (s *Session) Decode(ctx context.Context, w Window) (*model.Result, error) {
	if s.state == Uninitialized {
		return nil, ErrSessionNotInitialized
	}

	displayable := min(len(s.candidates), s.displayCap)
	lo, hi := w.bounds(displayable)
	result := &model.Result{
		Rows:        []model.Row{},
		Survivors:   len(s.candidates),
		First:       lo,
		Displayable: displayable,
		Type:        s.valueType.String(),
	}
	if lo >= hi {
		return result, nil
	}

	err := s.exec.RunSync(ctx, func() {
		result.Rows = s.rows(lo, hi)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return result, nil
}

// rows decodes candidates [lo, hi). It must run on the engine.
func (s *Session) rows(lo, hi int) []model.Row {
	width := s.valueType.Size()
	rows := make([]model.Row, 0, hi-lo)
	for i := lo; i < hi; i++ {
		c := s.candidates[i]
		row := model.Row{
			Index:   i,
			Address: codec.FormatAddress(s.region.Base + c.Offset),
		}
		live, err := s.region.Bytes(c.Offset, width)
		if err != nil {
			row.Hex = model.Unavailable
			row.Decimal = model.Unavailable
			row.Float = model.Unavailable
			rows = append(rows, row)
			continue
		}
		row.Available = true
		row.Hex = codec.FormatHex(live)
		row.Decimal = codec.FormatDecimal(live)
		if width == uint32(model.Width32) {
			row.Float = codec.FormatFloat(live)
		}
		rows = append(rows, row)
	}
	return rows
}
