package region

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/cheatscan/internal/model"
)

var (
	// ErrEndOfTimeline is returned by Advance after the last frame.
	ErrEndOfTimeline = errors.New("end of timeline")

	// ErrEmptyTimeline is returned by NewTimeline without frames.
	ErrEmptyTimeline = errors.New("timeline has no frames")

	// ErrFrameSize is returned when frames differ in length.
	ErrFrameSize = errors.New("timeline frames differ in size")
)

// Frame is one captured image of a region.
type Frame struct {
	Label string
	Data  []byte
}

// Timeline replays stored region images through a single region buffer.
//
// The region keeps its identity across frames, so a scan session created on
// the first frame observes later frames as memory changes. Advance writes
// the buffer and must run on the engine goroutine.
type Timeline struct {
	region   *model.Region
	frames   []Frame
	position int
}

// NewTimeline creates a timeline positioned on the first frame.
func NewTimeline(sel model.Selector, base uint32, frames []Frame) (*Timeline, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyTimeline
	}
	size := len(frames[0].Data)
	for i, f := range frames {
		if len(f.Data) != size {
			return nil, fmt.Errorf("%w: frame %d has %d bytes, want %d", ErrFrameSize, i, len(f.Data), size)
		}
	}

	buf := make([]byte, size)
	copy(buf, frames[0].Data)
	return &Timeline{
		region: model.NewRegion(sel, base, buf),
		frames: frames,
	}, nil
}

// Region returns the region fed by the timeline.
func (t *Timeline) Region() *model.Region {
	return t.region
}

// Position returns the index of the current frame.
func (t *Timeline) Position() int {
	return t.position
}

// Len returns the number of frames.
func (t *Timeline) Len() int {
	return len(t.frames)
}

// Label returns the label of the current frame.
func (t *Timeline) Label() string {
	return t.frames[t.position].Label
}

// Advance copies the next frame into the region buffer.
func (t *Timeline) Advance() error {
	if t.position+1 >= len(t.frames) {
		return ErrEndOfTimeline
	}
	t.position++
	copy(t.region.Buffer, t.frames[t.position].Data)
	return nil
}

// Step is an engine step function advancing one frame per quantum.
// It stops advancing quietly at the last frame.
func (t *Timeline) Step(context.Context) error {
	if err := t.Advance(); err != nil && !errors.Is(err, ErrEndOfTimeline) {
		return err
	}
	return nil
}

// Select implements Provider for the timeline's own selector.
func (t *Timeline) Select(_ context.Context, sel model.Selector) (*model.Region, error) {
	if sel != t.region.Selector {
		return nil, fmt.Errorf("%w: timeline only serves %s", ErrUnavailable, t.region.Selector)
	}
	return t.region, nil
}
