package retroarch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
)

// TestMirrorSync tests a full refresh of a mirrored region.
func TestMirrorSync(t *testing.T) {
	t.Parallel()

	memory := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	f := startFakeCore(t, 0x80000000, memory)
	c := connect(t, f)

	m := NewMirror(c, WithMirrorChunkSize(4))
	r := m.Add(model.SelectorMain, 0x80000000, 10)
	if r.Readable(0, 1) {
		t.Fatal("expected a fresh mirror to be unreadable")
	}

	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if diff := cmp.Diff(memory, r.Buffer); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if len(r.Holes()) != 0 {
		t.Errorf("expected no holes, got %v", r.Holes())
	}

	got, err := m.Select(context.Background(), model.SelectorMain)
	if err != nil || got != r {
		t.Errorf("Select() = %v, %v; want the mirrored region", got, err)
	}
	if _, err := m.Select(context.Background(), model.SelectorExtended); !errors.Is(err, region.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

// TestMirrorStep tests bounded round-robin refreshes and hole tracking.
func TestMirrorStep(t *testing.T) {
	t.Parallel()

	f := startFakeCore(t, 0x80000000, make([]byte, 8))
	c := connect(t, f)

	m := NewMirror(c, WithMirrorChunkSize(4), WithChunksPerStep(1))
	r := m.Add(model.SelectorMain, 0x80000000, 8)

	f.store(0, []byte{0xaa})
	if err := m.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if r.Buffer[0] != 0xaa || !r.Readable(0, 4) || r.Readable(4, 4) {
		t.Fatalf("expected only the first chunk refreshed, holes %v", r.Holes())
	}

	f.refuseAt(0x80000004)
	if err := m.Step(context.Background()); !errors.Is(err, ErrCoreRefused) {
		t.Fatalf("expected ErrCoreRefused, got %v", err)
	}
	if r.Readable(4, 4) {
		t.Error("expected refused chunk to stay unreadable")
	}

	// The cursor wraps to the first chunk.
	f.store(0, []byte{0xbb})
	if err := m.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if r.Buffer[0] != 0xbb {
		t.Errorf("expected wrapped refresh, got %#x", r.Buffer[0])
	}
}

// refusingReader fails every read, like a core without the region mapped.
type refusingReader struct{}

func (refusingReader) ReadMemory(context.Context, uint32, uint32) ([]byte, error) {
	return nil, ErrCoreRefused
}

// TestMirrorRefusedRegion tests that a region the core never serves stays a
// single hole and cannot start a search.
func TestMirrorRefusedRegion(t *testing.T) {
	t.Parallel()

	m := NewMirror(refusingReader{}, WithMirrorChunkSize(2048))
	r := m.Add(model.SelectorExtended, 0x90000000, 4<<20)

	if err := m.Sync(context.Background()); !errors.Is(err, ErrCoreRefused) {
		t.Fatalf("expected ErrCoreRefused, got %v", err)
	}
	want := []model.Span{{Start: 0, End: 4 << 20}}
	if diff := cmp.Diff(want, r.Holes()); diff != "" {
		t.Errorf("holes mismatch (-want +got):\n%s", diff)
	}
	if !r.Unreadable() {
		t.Error("expected the refused region to be unreadable")
	}
}
