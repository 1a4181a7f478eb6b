package scan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/model"
)

// Refine narrows the candidate set.
//
// Each candidate's live bytes are compared with the comparison constant, or
// with the candidate's reference when the constant is empty. Survivors keep
// their order and take the live bytes as their new reference. A candidate
// whose bytes cannot be read is kept untouched.
func (s *Session) Refine(ctx context.Context, cmp model.Comparison) error {
	if s.state == Uninitialized {
		return ErrSessionNotInitialized
	}
	width := s.valueType.Size()
	if !cmp.UsesPrevious() && uint32(len(cmp.Constant)) != width {
		return fmt.Errorf("%w: constant is %d bytes, %s needs %d",
			codec.ErrInvalidLiteral, len(cmp.Constant), s.valueType, width)
	}

	before := len(s.candidates)
	var survivors []model.Candidate
	err := s.exec.RunSync(ctx, func() {
		survivors = s.filter(cmp, width)
	})
	if err != nil {
		return fmt.Errorf("failed to refine scan: %w", err)
	}

	s.candidates = survivors
	s.passes++
	s.state = Refined

	s.logger.Debug("scan refined",
		"operator", cmp.Operator.String(),
		"previous", cmp.UsesPrevious(),
		"before", before,
		"after", len(survivors),
		"pass", s.passes)
	return nil
}

// filter runs one pass over the candidate set. It must run on the engine.
// Large sets are split into contiguous chunks filtered concurrently; the
// engine stays blocked in RunSync until every chunk is done.
func (s *Session) filter(cmp model.Comparison, width uint32) []model.Candidate {
	if s.workers <= 1 || len(s.candidates) <= s.chunkSize {
		return filterChunk(s.region, s.candidates, cmp, width)
	}

	chunks := (len(s.candidates) + s.chunkSize - 1) / s.chunkSize
	results := make([][]model.Candidate, chunks)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range chunks {
		lo := i * s.chunkSize
		hi := min(lo+s.chunkSize, len(s.candidates))
		in := s.candidates[lo:hi]
		g.Go(func() error {
			results[i] = filterChunk(s.region, in, cmp, width)
			return nil
		})
	}
	_ = g.Wait() // chunk filters never fail

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.Candidate, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func filterChunk(region *model.Region, in []model.Candidate, cmp model.Comparison, width uint32) []model.Candidate {
	out := make([]model.Candidate, 0, len(in)/2)
	for _, c := range in {
		live, err := region.Bytes(c.Offset, width)
		if err != nil {
			out = append(out, c)
			continue
		}
		ref := cmp.Constant
		if cmp.UsesPrevious() {
			ref = c.Ref(model.Width(width))
		}
		if !cmp.Operator.Accepts(codec.CompareOrdering(live, ref)) {
			continue
		}
		c.Rebase(live)
		out = append(out, c)
	}
	return out
}
