package region

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/nao1215/cheatscan/internal/model"
)

// Source describes a memory dump file backing one selector.
type Source struct {
	// Path is the dump file.
	Path string

	// Base is the absolute address of the first byte of the file.
	Base uint32

	// Size, if non-zero, truncates or zero-pads the dump to this length.
	Size uint32
}

// FileProvider serves regions loaded from memory dump files.
// A file is read on its first Select and the region is kept for later
// selects; Reload refreshes the loaded regions in place.
type FileProvider struct {
	mu      sync.Mutex
	sources map[model.Selector]Source
	loaded  map[model.Selector]*model.Region
}

// NewFileProvider returns a provider for the given sources.
func NewFileProvider(sources map[model.Selector]Source) *FileProvider {
	return &FileProvider{
		sources: sources,
		loaded:  make(map[model.Selector]*model.Region),
	}
}

// Select implements Provider.
func (p *FileProvider) Select(ctx context.Context, sel model.Selector) (*model.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.loaded[sel]; ok {
		return r, nil
	}
	src, ok := p.sources[sel]
	if !ok {
		return nil, fmt.Errorf("%w: no dump file configured for %s", ErrUnavailable, sel)
	}

	r, err := Load(sel, src)
	if err != nil {
		return nil, err
	}
	p.loaded[sel] = r
	return r, nil
}

// Reload reads every loaded file again into its existing region buffer,
// so sessions holding the region observe the new contents. Bytes beyond a
// shortened or missing file are marked unreadable. Reload writes region
// buffers and must run on the engine goroutine.
func (p *FileProvider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	for sel, r := range p.loaded {
		fresh, err := Load(sel, p.sources[sel])
		if err != nil {
			r.MarkUnreadable(0, r.Size)
			if first == nil {
				first = err
			}
			continue
		}

		r.ResetUnreadable()
		if n := uint32(copy(r.Buffer, fresh.Buffer)); n < r.Size {
			r.MarkUnreadable(n, r.Size)
		}
	}
	return first
}

// Load reads src into a new region.
func Load(sel model.Selector, src Source) (*model.Region, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, sel, err)
		}
		return nil, fmt.Errorf("failed to read dump %s: %w", src.Path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: dump %s is empty", ErrUnavailable, sel, src.Path)
	}
	if src.Size > 0 && uint32(len(data)) != src.Size {
		sized := make([]byte, src.Size)
		copy(sized, data)
		data = sized
	}
	return model.NewRegion(sel, src.Base, data), nil
}
