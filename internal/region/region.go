// Package region provides memory regions for scan sessions.
//
// A Provider maps a selector to the region currently exposed by the
// execution engine. Regions are re-resolved on every selector switch, so a
// provider may return a different buffer after the emulated program
// restarts.
package region

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/cheatscan/internal/model"
)

// ErrUnavailable is returned when a selector has no backing memory.
var ErrUnavailable = errors.New("memory region unavailable")

// Provider resolves a selector to a live memory region.
type Provider interface {
	Select(ctx context.Context, sel model.Selector) (*model.Region, error)
}

// Static serves a fixed set of in-memory regions.
type Static struct {
	mu      sync.RWMutex
	regions map[model.Selector]*model.Region
}

// NewStatic returns a provider serving the given regions by selector.
func NewStatic(regions ...*model.Region) *Static {
	s := &Static{regions: make(map[model.Selector]*model.Region, len(regions))}
	for _, r := range regions {
		s.regions[r.Selector] = r
	}
	return s
}

// Set installs or replaces the region for its selector.
func (s *Static) Set(r *model.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[r.Selector] = r
}

// Remove drops the region for sel, making it unavailable.
func (s *Static) Remove(sel model.Selector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regions, sel)
}

// Select implements Provider.
func (s *Static) Select(_ context.Context, sel model.Selector) (*model.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[sel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, sel)
	}
	return r, nil
}
