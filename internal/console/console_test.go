package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/engine"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/refresh"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/scan"
)

// syncBuffer is a bytes.Buffer safe for the refresh goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// fakeTicker is a manually driven refresh.Ticker.
type fakeTicker struct {
	c chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time  { return f.c }
func (f *fakeTicker) Reset(time.Duration) {}
func (f *fakeTicker) Stop()               {}

// testConsole bundles a console with its memory and output.
type testConsole struct {
	*Console
	out    *syncBuffer
	memory *model.Region
}

// newTestConsole creates a console over a 64-byte main region holding the
// 32-bit value 100 at offsets 0x10 and 0x20.
func newTestConsole(t *testing.T, opts ...Option) *testConsole {
	t.Helper()

	buf := make([]byte, 64)
	buf[0x13] = 100
	buf[0x23] = 100
	memory := model.NewRegion(model.SelectorMain, 0x80000000, buf)

	out := &syncBuffer{}
	opts = append([]Option{WithPrompt("")}, opts...)
	c := New(scan.NewSession(engine.Quiesced{}), region.NewStatic(memory), out, opts...)
	return &testConsole{Console: c, out: out, memory: memory}
}

// run executes lines and fails on the first error.
func (tc *testConsole) run(t *testing.T, lines ...string) {
	t.Helper()

	for _, line := range lines {
		if _, err := tc.Execute(context.Background(), line); err != nil {
			t.Fatalf("%q: unexpected error: %v", line, err)
		}
	}
}

// TestConsoleSearch tests a search driven by commands.
func TestConsoleSearch(t *testing.T) {
	t.Parallel()

	tc := newTestConsole(t)

	tc.run(t, "new")
	if !strings.Contains(tc.out.String(), "16 Match(es)") {
		t.Fatalf("expected 16 matches, got:\n%s", tc.out)
	}

	tc.out.Reset()
	tc.run(t, "next eq 100")
	output := tc.out.String()
	for _, want := range []string{"2 Match(es)", "80000010", "80000020", "00000064"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}

	tc.memory.Buffer[0x23] = 99
	tc.out.Reset()
	tc.run(t, "next <")
	output = tc.out.String()
	if !strings.Contains(output, "1 Match(es)") || !strings.Contains(output, "80000020") {
		t.Errorf("expected the decreased value to survive, got:\n%s", output)
	}
	if strings.Contains(output, "80000010") {
		t.Errorf("expected the unchanged value to be dropped, got:\n%s", output)
	}

	tc.out.Reset()
	tc.run(t, "ar 0")
	if got, want := strings.TrimSpace(tc.out.String()), "04000020 00000063"; got != want {
		t.Errorf("ar = %q, want %q", got, want)
	}

	tc.out.Reset()
	tc.run(t, "count")
	if got := strings.TrimSpace(tc.out.String()); got != "1 Match(es)" {
		t.Errorf("count = %q", got)
	}
}

// TestConsoleInputErrors tests that bad input leaves the session intact.
func TestConsoleInputErrors(t *testing.T) {
	t.Parallel()

	t.Run("before new", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		for _, line := range []string{"next eq 1", "refresh", "count", "ar 0"} {
			_, err := tc.Execute(context.Background(), line)
			if !errors.Is(err, scan.ErrSessionNotInitialized) {
				t.Errorf("%q: expected ErrSessionNotInitialized, got %v", line, err)
			}
		}
	})

	tests := []struct {
		name string
		line string
		want error
	}{
		{name: "invalid literal", line: "next eq abc", want: codec.ErrInvalidLiteral},
		{name: "overflowing literal", line: "next eq 4294967296", want: codec.ErrInvalidLiteral},
		{name: "unknown operator", line: "next about 5", want: model.ErrUnknownOperator},
		{name: "unknown command", line: "jump 5", want: ErrUnknownCommand},
		{name: "missing argument", line: "next", want: ErrMissingArgument},
		{name: "bad view", line: "view x", want: ErrInvalidArgument},
		{name: "bad watch", line: "watch maybe", want: ErrInvalidArgument},
		{name: "row out of view", line: "ar 99", want: ErrRowOutOfView},
		{name: "no stepper", line: "step", want: ErrNoStepper},
		{name: "region while active", line: "region extended", want: ErrSearchActive},
		{name: "type while active", line: "type 8", want: ErrSearchActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tc := newTestConsole(t)
			tc.run(t, "new", "next eq 100")

			_, err := tc.Execute(context.Background(), tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tc.session.Count() != 2 || tc.session.Passes() != 1 {
				t.Errorf("session changed: count %d passes %d", tc.session.Count(), tc.session.Passes())
			}
		})
	}
}

// TestConsoleSettings tests region, type, base and range commands.
func TestConsoleSettings(t *testing.T) {
	t.Parallel()

	t.Run("type and base apply to the next search", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		tc.run(t, "type 8", "base hex", "new", "next eq 0x64")

		if tc.session.ValueType() != model.Byte {
			t.Errorf("expected 8-bit search, got %s", tc.session.ValueType())
		}
		if tc.session.Count() != 2 {
			t.Errorf("expected 2 matches, got %d", tc.session.Count())
		}
	})

	t.Run("range limits the search", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		tc.run(t, "range 80000020", "new")

		if got, want := tc.session.Range(), (scan.Range{Start: 0x20, End: 64}); got != want {
			t.Errorf("Range() = %v, want %v", got, want)
		}
		if tc.session.Count() != 8 {
			t.Errorf("expected 8 candidates, got %d", tc.session.Count())
		}
	})

	t.Run("region switch after reset", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		tc.run(t, "new", "reset")
		if tc.session.Active() {
			t.Fatal("expected reset to end the search")
		}
		if _, err := tc.Execute(context.Background(), "region extended"); !errors.Is(err, region.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
		tc.run(t, "region mem1")
	})

	t.Run("view narrows rows", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		tc.run(t, "new")
		tc.out.Reset()
		tc.run(t, "view 4 5")

		output := tc.out.String()
		if !strings.Contains(output, "80000010") || !strings.Contains(output, "80000014") {
			t.Errorf("expected rows 4 and 5, got:\n%s", output)
		}
		if strings.Contains(output, "80000018") {
			t.Errorf("expected row 6 to be hidden, got:\n%s", output)
		}
	})

	t.Run("interval is clamped", func(t *testing.T) {
		t.Parallel()

		tc := newTestConsole(t)
		tc.run(t, "interval 50")
		if got := tc.Scheduler().Interval(); got != refresh.MinInterval {
			t.Errorf("Interval() = %s, want %s", got, refresh.MinInterval)
		}
		if !strings.Contains(tc.out.String(), "interval 100ms") {
			t.Errorf("unexpected output:\n%s", tc.out)
		}
	})

	t.Run("step runs the stepper", func(t *testing.T) {
		t.Parallel()

		var steps int
		tc := newTestConsole(t, WithStepper(func(context.Context) error {
			steps++
			return nil
		}))
		tc.run(t, "step 3")
		if steps != 3 {
			t.Errorf("expected 3 steps, got %d", steps)
		}
	})
}

// TestConsoleRun tests reading commands from input.
func TestConsoleRun(t *testing.T) {
	t.Parallel()

	tc := newTestConsole(t)
	in := strings.NewReader("new\nbogus\nnext eq 100\nquit\nnext eq 1\n")

	if err := tc.Run(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := tc.out.String()
	if !strings.Contains(output, "error: unknown command") {
		t.Errorf("expected error line, got:\n%s", output)
	}
	if !strings.Contains(output, "2 Match(es)") {
		t.Errorf("expected refine output, got:\n%s", output)
	}
	if tc.session.Passes() != 1 {
		t.Errorf("expected input after quit to be ignored, got %d passes", tc.session.Passes())
	}
}

// TestConsoleWatch tests timed refreshes driven by the scheduler.
func TestConsoleWatch(t *testing.T) {
	t.Parallel()

	created := make(chan *fakeTicker, 4)
	tc := newTestConsole(t, WithRefreshOptions(refresh.WithTickerFactory(func(time.Duration) refresh.Ticker {
		f := &fakeTicker{c: make(chan time.Time)}
		created <- f
		return f
	})))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tc.Scheduler().Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	tc.run(t, "watch on")
	if !tc.Scheduler().Active() {
		t.Error("expected watch on to arm the scheduler")
	}

	var ticker *fakeTicker
	select {
	case ticker = <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a ticker")
	}

	tc.run(t, "new", "next eq 100")

	tc.memory.Buffer[0x13] = 7
	tc.out.Reset()
	select {
	case ticker.c <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out delivering a tick")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(tc.out.String(), "00000007") {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for refreshed rows, got:\n%s", tc.out)
		}
		time.Sleep(time.Millisecond)
	}

	tc.run(t, "reset")
	if err := tc.timedRefresh(context.Background()); !errors.Is(err, refresh.ErrNothingToRefresh) {
		t.Errorf("expected ErrNothingToRefresh, got %v", err)
	}
}
