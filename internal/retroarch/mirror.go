package retroarch

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
)

// MemoryReader reads core memory at absolute addresses.
type MemoryReader interface {
	ReadMemory(ctx context.Context, address, length uint32) ([]byte, error)
}

// DefaultChunksPerStep is how many chunks one Step refreshes.
const DefaultChunksPerStep = 16

// Mirror keeps local copies of core memory regions.
//
// Step refreshes a bounded number of chunks, cycling through every region,
// and is meant to run as the engine step function. A chunk that fails to
// read is marked unreadable in its region until a later read succeeds.
type Mirror struct {
	reader        MemoryReader
	chunkSize     uint32
	chunksPerStep int

	mu      sync.Mutex
	regions []*model.Region
	cursor  cursor
}

type cursor struct {
	region int
	offset uint32
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithMirrorChunkSize sets the bytes refreshed per chunk.
func WithMirrorChunkSize(n uint32) MirrorOption {
	return func(m *Mirror) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// WithChunksPerStep sets the chunks refreshed per Step.
func WithChunksPerStep(n int) MirrorOption {
	return func(m *Mirror) {
		if n > 0 {
			m.chunksPerStep = n
		}
	}
}

// NewMirror creates an empty mirror reading through reader.
func NewMirror(reader MemoryReader, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		reader:        reader,
		chunkSize:     DefaultChunkSize,
		chunksPerStep: DefaultChunksPerStep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add allocates a local region of size bytes mirroring core memory at base.
// The region starts fully unreadable until its chunks are fetched.
func (m *Mirror) Add(sel model.Selector, base, size uint32) *model.Region {
	r := model.NewRegion(sel, base, make([]byte, size))
	r.MarkUnreadable(0, size)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = append(m.regions, r)
	return r
}

// Select implements region.Provider.
func (m *Mirror) Select(_ context.Context, sel model.Selector) (*model.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regions {
		if r.Selector == sel {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not mirrored", region.ErrUnavailable, sel)
}

// Sync refreshes every chunk of every region once. It returns the first
// read error but still visits all chunks.
func (m *Mirror) Sync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for _, r := range m.regions {
		for off := uint32(0); off < r.Size; off += m.chunkSize {
			if err := m.refresh(ctx, r, off); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Step refreshes the next chunks in round-robin order.
func (m *Mirror) Step(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.regions) == 0 {
		return nil
	}
	var first error
	for range m.chunksPerStep {
		r := m.regions[m.cursor.region]
		if err := m.refresh(ctx, r, m.cursor.offset); err != nil && first == nil {
			first = err
		}
		m.advance()
	}
	return first
}

func (m *Mirror) advance() {
	r := m.regions[m.cursor.region]
	next := uint64(m.cursor.offset) + uint64(m.chunkSize)
	if next < uint64(r.Size) {
		m.cursor.offset = uint32(next)
		return
	}
	m.cursor.offset = 0
	m.cursor.region = (m.cursor.region + 1) % len(m.regions)
}

// refresh fetches one chunk into r and updates its holes.
func (m *Mirror) refresh(ctx context.Context, r *model.Region, off uint32) error {
	n := min(m.chunkSize, r.Size-off)
	data, err := m.reader.ReadMemory(ctx, r.Base+off, n)
	if err != nil {
		r.MarkUnreadable(off, off+n)
		return fmt.Errorf("failed to mirror %s at 0x%08x: %w", r.Selector, r.Base+off, err)
	}
	copy(r.Buffer[off:off+n], data)
	r.ClearUnreadable(off, off+n)
	return nil
}
