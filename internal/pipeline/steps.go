package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/scan"
)

// ErrNoAdvancer is returned by AdvanceStep when the state has nothing to
// advance.
var ErrNoAdvancer = errors.New("no memory image source to advance")

// InitializeStep captures the starting candidate set.
type InitializeStep struct {
	// Selector is the region to search.
	Selector model.Selector

	// Type is the value type to search for.
	Type model.ValueType

	// Start and End are the optional hex bounds of the searched range.
	Start string
	End   string
}

// Name returns the step name.
func (s *InitializeStep) Name() string {
	return "initialize"
}

// Do resolves the region and initializes the session on it.
func (s *InitializeStep) Do(ctx context.Context, state *State) error {
	r, err := state.Provider.Select(ctx, s.Selector)
	if err != nil {
		return fmt.Errorf("failed to select region %s: %w", s.Selector, err)
	}
	return state.Session.Initialize(ctx, r, s.Type, s.Start, s.End)
}

// RefineStep filters the candidate set with one comparison.
type RefineStep struct {
	// Comparison is the filter applied to every candidate.
	Comparison model.Comparison
}

// Name returns the step name, including the operator.
func (s *RefineStep) Name() string {
	return "refine:" + s.Comparison.Operator.String()
}

// Do runs one refine pass.
func (s *RefineStep) Do(ctx context.Context, state *State) error {
	return state.Session.Refine(ctx, s.Comparison)
}

// AdvanceStep moves the memory image to its next state.
type AdvanceStep struct{}

// Name returns the step name.
func (s *AdvanceStep) Name() string {
	return "advance"
}

// Do advances the image on the state's executor.
func (s *AdvanceStep) Do(ctx context.Context, state *State) error {
	if state.Advancer == nil || state.Executor == nil {
		return ErrNoAdvancer
	}

	var advanceErr error
	if err := state.Executor.RunSync(ctx, func() {
		advanceErr = state.Advancer.Advance()
	}); err != nil {
		return err
	}
	return advanceErr
}

// DecodeStep renders the surviving candidates.
type DecodeStep struct {
	// Window selects the rows to render.
	Window scan.Window
}

// Name returns the step name.
func (s *DecodeStep) Name() string {
	return "decode"
}

// Do decodes the window into State.Result.
func (s *DecodeStep) Do(ctx context.Context, state *State) error {
	result, err := state.Session.Decode(ctx, s.Window)
	if err != nil {
		return err
	}
	state.Result = result
	return nil
}
