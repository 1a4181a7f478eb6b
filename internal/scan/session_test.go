package scan

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/engine"
	"github.com/nao1215/cheatscan/internal/model"
)

// newTestSession returns a session over a fresh copy of buf.
func newTestSession(t *testing.T, buf []byte, opts ...Option) (*Session, *model.Region) {
	t.Helper()

	b := make([]byte, len(buf))
	copy(b, buf)
	region := model.NewRegion(model.SelectorMain, model.DefaultMainBase, b)
	return NewSession(engine.Quiesced{}, opts...), region
}

// initialize runs Initialize over the full region and fails the test on error.
func initialize(t *testing.T, s *Session, region *model.Region, vt model.ValueType) {
	t.Helper()

	if err := s.Initialize(context.Background(), region, vt, "", ""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
}

func refine(t *testing.T, s *Session, c model.Comparison) {
	t.Helper()

	if err := s.Refine(context.Background(), c); err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
}

func offsets(cs []model.Candidate) []uint32 {
	out := make([]uint32, len(cs))
	for i, c := range cs {
		out[i] = c.Offset
	}
	return out
}

// TestSessionInitialize tests candidate set construction.
func TestSessionInitialize(t *testing.T) {
	t.Parallel()

	buf := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
		0xde, 0xad, 0xbe, 0xef,
		0x00, 0x00, 0x00, 0x04,
		0xff, 0xff,
	}

	t.Run("32-bit candidates hold live references", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, buf)
		initialize(t, s, region, model.Word)

		want := []model.Candidate{
			{Offset: 0, Reference: [4]byte{0, 0, 0, 1}},
			{Offset: 4, Reference: [4]byte{0, 0, 0, 2}},
			{Offset: 8, Reference: [4]byte{0xde, 0xad, 0xbe, 0xef}},
			{Offset: 12, Reference: [4]byte{0, 0, 0, 4}},
		}
		if diff := cmp.Diff(want, s.Candidates()); diff != "" {
			t.Errorf("candidates mismatch (-want +got):\n%s", diff)
		}
		if s.State() != Initialized {
			t.Errorf("State() = %v, want %v", s.State(), Initialized)
		}
	})

	t.Run("8-bit candidates cover every byte", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, buf)
		initialize(t, s, region, model.Byte)
		if s.Count() != len(buf) {
			t.Errorf("Count() = %d, want %d", s.Count(), len(buf))
		}
	})

	t.Run("16-bit candidates stop before the range end", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, buf[:7])
		initialize(t, s, region, model.Short)
		if diff := cmp.Diff([]uint32{0, 2, 4}, offsets(s.Candidates())); diff != "" {
			t.Errorf("offsets mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("idempotent without memory changes", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, buf)
		initialize(t, s, region, model.Short)
		first := s.Candidates()
		refine(t, s, model.CompareToPrevious(model.NotEqual))
		initialize(t, s, region, model.Short)
		if diff := cmp.Diff(first, s.Candidates()); diff != "" {
			t.Errorf("second Initialize mismatch (-first +second):\n%s", diff)
		}
		if s.State() != Initialized || s.Passes() != 0 {
			t.Errorf("expected fresh Initialized state, got %v after %d passes", s.State(), s.Passes())
		}
	})

	t.Run("custom range", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 0x100))
		if err := s.Initialize(context.Background(), region, model.Word, "80000010", "80000020"); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if diff := cmp.Diff([]uint32{0x10, 0x14, 0x18, 0x1c}, offsets(s.Candidates())); diff != "" {
			t.Errorf("offsets mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestSessionInitializeErrors tests Initialize failures.
func TestSessionInitializeErrors(t *testing.T) {
	t.Parallel()

	t.Run("no active memory", func(t *testing.T) {
		t.Parallel()

		s := NewSession(engine.Quiesced{})
		for _, region := range []*model.Region{nil, {Selector: model.SelectorMain, Size: 16}} {
			err := s.Initialize(context.Background(), region, model.Word, "", "")
			if !errors.Is(err, ErrNoActiveMemory) {
				t.Errorf("expected ErrNoActiveMemory, got %v", err)
			}
		}
		if s.State() != Uninitialized {
			t.Errorf("State() = %v, want %v", s.State(), Uninitialized)
		}
	})

	t.Run("no active memory discards the previous candidate set", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 8))
		initialize(t, s, region, model.Word)
		refine(t, s, model.CompareToPrevious(model.Unknown))
		if err := s.Initialize(context.Background(), nil, model.Word, "", ""); !errors.Is(err, ErrNoActiveMemory) {
			t.Fatalf("expected ErrNoActiveMemory, got %v", err)
		}
		if s.Count() != 0 || s.State() != Uninitialized || s.Region() != nil {
			t.Errorf("expected Uninitialized without candidates, got %d candidates in state %v", s.Count(), s.State())
		}
	})

	t.Run("fully unreadable region is no active memory", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 64))
		region.MarkUnreadable(0, 32)
		region.MarkUnreadable(32, 64)
		if err := s.Initialize(context.Background(), region, model.Word, "", ""); !errors.Is(err, ErrNoActiveMemory) {
			t.Fatalf("expected ErrNoActiveMemory, got %v", err)
		}
		if s.State() != Uninitialized {
			t.Errorf("State() = %v, want %v", s.State(), Uninitialized)
		}
	})

	t.Run("invalid value type keeps previous candidate set", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 8))
		initialize(t, s, region, model.Word)
		if err := s.Initialize(context.Background(), region, model.ValueType{Width: 3}, "", ""); err == nil {
			t.Fatal("expected an error for an invalid width")
		}
		if s.Count() != 2 || s.State() != Initialized {
			t.Errorf("expected previous set to be kept, got %d candidates in state %v", s.Count(), s.State())
		}
	})

	t.Run("invalid value type", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 8))
		err := s.Initialize(context.Background(), region, model.ValueType{Width: 2, Interpretation: model.Float}, "", "")
		if !errors.Is(err, model.ErrFloatWidth) {
			t.Errorf("expected ErrFloatWidth, got %v", err)
		}
	})

	t.Run("engine not running", func(t *testing.T) {
		t.Parallel()

		region := model.NewRegion(model.SelectorMain, model.DefaultMainBase, make([]byte, 8))
		s := NewSession(engine.New())
		err := s.Initialize(context.Background(), region, model.Word, "", "")
		if !errors.Is(err, engine.ErrNotRunning) {
			t.Errorf("expected ErrNotRunning, got %v", err)
		}
		if s.State() != Uninitialized {
			t.Errorf("State() = %v, want %v", s.State(), Uninitialized)
		}
	})
}

// TestSessionRefine tests narrowing of the candidate set.
func TestSessionRefine(t *testing.T) {
	t.Parallel()

	t.Run("equal to constant", func(t *testing.T) {
		t.Parallel()

		buf := []byte{0, 5, 0, 7, 0, 5, 1, 5}
		s, region := newTestSession(t, buf)
		initialize(t, s, region, model.Short)

		constant, err := codec.Encode("5", model.Short, model.Decimal)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		refine(t, s, model.CompareToConstant(model.EqualTo, constant))
		if diff := cmp.Diff([]uint32{0, 4}, offsets(s.Candidates())); diff != "" {
			t.Errorf("offsets mismatch (-want +got):\n%s", diff)
		}
		if s.State() != Refined {
			t.Errorf("State() = %v, want %v", s.State(), Refined)
		}
	})

	t.Run("blank value compares to previous", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 16))
		initialize(t, s, region, model.Word)
		region.Buffer[7] = 1 // offset 4 changes

		refine(t, s, model.CompareToPrevious(model.NotEqual))
		got := s.Candidates()
		want := []model.Candidate{{Offset: 4, Reference: [4]byte{0, 0, 0, 1}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("candidates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("greater and less than previous", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, []byte{10, 10, 10})
		initialize(t, s, region, model.Byte)
		region.Buffer[0] = 11
		region.Buffer[2] = 9

		refine(t, s, model.CompareToPrevious(model.GreaterThan))
		if diff := cmp.Diff([]uint32{0}, offsets(s.Candidates())); diff != "" {
			t.Errorf("GreaterThan offsets mismatch (-want +got):\n%s", diff)
		}

		s2, region2 := newTestSession(t, []byte{10, 10, 10})
		initialize(t, s2, region2, model.Byte)
		region2.Buffer[2] = 9
		refine(t, s2, model.CompareToPrevious(model.LessThan))
		if diff := cmp.Diff([]uint32{2}, offsets(s2.Candidates())); diff != "" {
			t.Errorf("LessThan offsets mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown keeps everything and re-baselines", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, []byte{1, 2, 3, 4})
		initialize(t, s, region, model.Byte)
		copy(region.Buffer, []byte{9, 8, 7, 6})

		refine(t, s, model.CompareToPrevious(model.Unknown))
		want := []model.Candidate{
			{Offset: 0, Reference: [4]byte{9}},
			{Offset: 1, Reference: [4]byte{8}},
			{Offset: 2, Reference: [4]byte{7}},
			{Offset: 3, Reference: [4]byte{6}},
		}
		if diff := cmp.Diff(want, s.Candidates()); diff != "" {
			t.Errorf("candidates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("monotonic over random passes", func(t *testing.T) {
		t.Parallel()

		rng := rand.New(rand.NewPCG(1, 2))
		buf := make([]byte, 512)
		for i := range buf {
			buf[i] = byte(rng.UintN(4))
		}
		s, region := newTestSession(t, buf)
		initialize(t, s, region, model.Byte)

		ops := []model.Operator{model.Unknown, model.NotEqual, model.EqualTo, model.GreaterThan, model.LessThan}
		for pass := range 20 {
			prev := map[uint32]bool{}
			for _, c := range s.Candidates() {
				prev[c.Offset] = true
			}
			for i := range region.Buffer {
				if rng.UintN(3) == 0 {
					region.Buffer[i] = byte(rng.UintN(4))
				}
			}
			refine(t, s, model.CompareToPrevious(ops[pass%len(ops)]))
			got := s.Candidates()
			for i, c := range got {
				if !prev[c.Offset] {
					t.Fatalf("pass %d: offset %d was not in the previous set", pass, c.Offset)
				}
				if i > 0 && got[i-1].Offset >= c.Offset {
					t.Fatalf("pass %d: offsets not strictly ascending at %d", pass, i)
				}
				if c.Reference[0] != region.Buffer[c.Offset] {
					t.Fatalf("pass %d: offset %d reference %d, live %d", pass, c.Offset, c.Reference[0], region.Buffer[c.Offset])
				}
			}
		}
	})

	t.Run("unreadable candidates are kept untouched", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, []byte{1, 1, 1, 1})
		initialize(t, s, region, model.Byte)
		region.MarkUnreadable(2, 3)
		region.Buffer[2] = 5

		refine(t, s, model.CompareToPrevious(model.NotEqual))
		want := []model.Candidate{{Offset: 2, Reference: [4]byte{1}}}
		if diff := cmp.Diff(want, s.Candidates()); diff != "" {
			t.Errorf("candidates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty survivor set is not an error", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, []byte{1, 2})
		initialize(t, s, region, model.Byte)
		refine(t, s, model.CompareToConstant(model.EqualTo, []byte{3}))
		if s.Count() != 0 {
			t.Errorf("Count() = %d, want 0", s.Count())
		}
		refine(t, s, model.CompareToPrevious(model.Unknown))
	})
}

// TestSessionRefineErrors tests Refine failures.
func TestSessionRefineErrors(t *testing.T) {
	t.Parallel()

	t.Run("not initialized", func(t *testing.T) {
		t.Parallel()

		s := NewSession(engine.Quiesced{})
		err := s.Refine(context.Background(), model.CompareToPrevious(model.Unknown))
		if !errors.Is(err, ErrSessionNotInitialized) {
			t.Errorf("expected ErrSessionNotInitialized, got %v", err)
		}
	})

	t.Run("constant width mismatch", func(t *testing.T) {
		t.Parallel()

		s, region := newTestSession(t, make([]byte, 8))
		initialize(t, s, region, model.Word)
		err := s.Refine(context.Background(), model.CompareToConstant(model.EqualTo, []byte{1, 2}))
		if !errors.Is(err, codec.ErrInvalidLiteral) {
			t.Errorf("expected ErrInvalidLiteral, got %v", err)
		}
		if s.Count() != 2 || s.State() != Initialized {
			t.Errorf("expected session to be unchanged, got %d candidates in state %v", s.Count(), s.State())
		}
	})
}

// TestSessionRefineParallel tests that chunked refine matches a sequential pass.
func TestSessionRefineParallel(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	buf := make([]byte, 1<<14)
	for i := range buf {
		buf[i] = byte(rng.UintN(8))
	}
	changed := make([]byte, len(buf))
	for i := range changed {
		changed[i] = byte(rng.UintN(8))
	}

	run := func(opts ...Option) []model.Candidate {
		s, region := newTestSession(t, buf, opts...)
		initialize(t, s, region, model.Short)
		copy(region.Buffer, changed)
		refine(t, s, model.CompareToPrevious(model.GreaterThan))
		return s.Candidates()
	}

	sequential := run(WithWorkers(1))
	parallel := run(WithWorkers(4), WithChunkSize(100))
	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel refine mismatch (-sequential +parallel):\n%s", diff)
	}
}

// TestSessionReset tests that Reset discards the candidate set.
func TestSessionReset(t *testing.T) {
	t.Parallel()

	s, region := newTestSession(t, make([]byte, 8))
	initialize(t, s, region, model.Byte)
	s.Reset()

	if s.Active() || s.Count() != 0 || s.Region() != nil {
		t.Errorf("expected empty session after Reset, got active=%v count=%d", s.Active(), s.Count())
	}
	if _, err := s.Decode(context.Background(), All()); !errors.Is(err, ErrSessionNotInitialized) {
		t.Errorf("expected ErrSessionNotInitialized, got %v", err)
	}
}

// TestSessionWithEngine tests a full search through a running engine loop.
func TestSessionWithEngine(t *testing.T) {
	t.Parallel()

	region := model.NewRegion(model.SelectorMain, model.DefaultMainBase, make([]byte, 64))
	counter := uint32(0)
	tick := func(context.Context) error {
		counter++
		copy(region.Buffer[8:12], codec.EncodeUint(counter, model.Width32))
		return nil
	}
	loop := engine.New(engine.WithStep(tick), engine.WithQuantum(1))
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = loop.Stop() })

	s := NewSession(loop)
	if err := s.Initialize(context.Background(), region, model.Word, "", ""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// Wait for the counter to move past its captured value.
	captured := loop.Steps()
	for loop.Steps() < captured+2 {
		_ = loop.RunSync(context.Background(), func() {})
	}
	if err := s.Refine(context.Background(), model.CompareToPrevious(model.GreaterThan)); err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if diff := cmp.Diff([]uint32{8}, offsets(s.Candidates())); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}

	res, err := s.Decode(context.Background(), All())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Address != "80000008" {
		t.Fatalf("unexpected rows: %+v", res.Rows)
	}
	if _, err := strconv.ParseUint(res.Rows[0].Decimal, 10, 32); err != nil {
		t.Errorf("decimal text %q is not a number: %v", res.Rows[0].Decimal, err)
	}
}

// TestSessionHoledRegion tests that scans over a region with many
// unreadable chunks stay fast.
func TestSessionHoledRegion(t *testing.T) {
	t.Parallel()

	const (
		size  = 4 << 20
		chunk = 256
	)
	s, region := newTestSession(t, make([]byte, size))
	for off := uint32(0); off < size; off += 2 * chunk {
		region.MarkUnreadable(off, off+chunk)
	}
	if got := len(region.Holes()); got != size/(2*chunk) {
		t.Fatalf("expected %d holes, got %d", size/(2*chunk), got)
	}

	start := time.Now()
	initialize(t, s, region, model.Word)
	refine(t, s, model.CompareToPrevious(model.EqualTo))
	if _, err := s.Decode(context.Background(), All()); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("scan over %d holes took %v", len(region.Holes()), elapsed)
	}
	if s.Count() != size/4 {
		t.Errorf("expected unreadable candidates to be kept, got %d", s.Count())
	}
}
