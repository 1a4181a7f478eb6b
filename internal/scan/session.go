package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/cheatscan/internal/model"
)

// Executor runs fn on the goroutine that owns region memory and returns once
// fn has completed. engine.Loop implements it.
type Executor interface {
	RunSync(ctx context.Context, fn func()) error
}

// State is the lifecycle state of a Session.
type State int

const (
	// Uninitialized means no candidate set exists.
	Uninitialized State = iota
	// Initialized means the candidate set holds every aligned offset of the range.
	Initialized
	// Refined means at least one Refine pass has narrowed the set.
	Refined
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Refined:
		return "refined"
	default:
		return "uninitialized"
	}
}

// Session is one cheat search over a single region and value type.
type Session struct {
	exec   Executor
	logger *slog.Logger

	displayCap int
	workers    int
	chunkSize  int

	state      State
	region     *model.Region
	valueType  model.ValueType
	span       Range
	candidates []model.Candidate
	passes     int
}

// NewSession creates an uninitialized session that reads memory through exec.
func NewSession(exec Executor, opts ...Option) *Session {
	s := defaultSession()
	s.exec = exec
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Initialize builds a fresh candidate set covering every width-aligned
// offset of the effective range, capturing each live value as reference.
//
// A region without a bound buffer, or with no readable byte, fails with
// ErrNoActiveMemory and leaves the session Uninitialized. Other failures
// keep the previous state.
func (s *Session) Initialize(ctx context.Context, region *model.Region, vt model.ValueType, startText, endText string) error {
	if !region.Valid() || region.Unreadable() {
		s.Reset()
		return ErrNoActiveMemory
	}
	if err := vt.Validate(); err != nil {
		return err
	}

	span := EffectiveRange(region, startText, endText)
	width := vt.Size()

	var candidates []model.Candidate
	err := s.exec.RunSync(ctx, func() {
		candidates = capture(region, span, width)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scan: %w", err)
	}

	s.region = region
	s.valueType = vt
	s.span = span
	s.candidates = candidates
	s.passes = 0
	s.state = Initialized

	s.logger.Debug("scan initialized",
		"region", string(region.Selector),
		"base", region.Base,
		"start", region.Base+span.Start,
		"end", region.Base+span.End,
		"type", vt.String(),
		"candidates", len(candidates))
	return nil
}

// capture walks span in steps of width. It must run on the engine.
func capture(region *model.Region, span Range, width uint32) []model.Candidate {
	end := uint64(span.End)
	candidates := make([]model.Candidate, 0, span.Len()/width)
	for off := uint64(span.Start); off+uint64(width) <= end; off += uint64(width) {
		offset := uint32(off)
		live, err := region.Bytes(offset, width)
		if err != nil {
			// A hole at capture time still yields a candidate so the
			// first refine pass can judge it once the bytes return.
			candidates = append(candidates, model.Candidate{Offset: offset})
			continue
		}
		candidates = append(candidates, model.NewCandidate(offset, live))
	}
	return candidates
}

// Reset discards the candidate set and returns to Uninitialized.
func (s *Session) Reset() {
	s.state = Uninitialized
	s.region = nil
	s.candidates = nil
	s.span = Range{}
	s.passes = 0
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Active reports whether a candidate set exists.
func (s *Session) Active() bool {
	return s.state != Uninitialized
}

// Count returns the number of surviving candidates.
func (s *Session) Count() int {
	return len(s.candidates)
}

// Passes returns the number of Refine passes since Initialize.
func (s *Session) Passes() int {
	return s.passes
}

// DisplayCap returns the maximum number of rows Decode renders.
func (s *Session) DisplayCap() int {
	return s.displayCap
}

// Region returns the region the session scans, or nil.
func (s *Session) Region() *model.Region {
	return s.region
}

// ValueType returns the value type of the current scan.
func (s *Session) ValueType() model.ValueType {
	return s.valueType
}

// Range returns the effective offset range of the current scan.
func (s *Session) Range() Range {
	return s.span
}

// Candidates returns a copy of the candidate set.
func (s *Session) Candidates() []model.Candidate {
	out := make([]model.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Candidate returns the candidate at index i.
func (s *Session) Candidate(i int) (model.Candidate, bool) {
	if i < 0 || i >= len(s.candidates) {
		return model.Candidate{}, false
	}
	return s.candidates[i], true
}
