package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// StepFunc advances the target by one quantum.
// A returned error is logged; the loop keeps running.
type StepFunc func(ctx context.Context) error

// request is one unit of work submitted with RunSync.
type request struct {
	fn   func()
	done chan error
}

// Loop is a single-goroutine execution engine.
type Loop struct {
	// step advances the target. Nil means the target is idle.
	step StepFunc

	// quantum is the interval between steps.
	quantum time.Duration

	logger *slog.Logger

	// requests is unbuffered so an accepted request is always handled.
	requests chan request

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}

	steps   atomic.Uint64
	handled atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithStep sets the function that advances the target between requests.
func WithStep(step StepFunc) Option {
	return func(l *Loop) {
		l.step = step
	}
}

// WithQuantum sets the interval between steps. Non-positive values disable
// stepping.
func WithQuantum(d time.Duration) Option {
	return func(l *Loop) {
		l.quantum = d
	}
}

// WithLogger sets the logger used for step failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a stopped Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		requests: make(chan request),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Start launches the loop goroutine. The loop stops when ctx is cancelled
// or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	l.cancel = cancel
	l.stopped = stopped

	go l.run(ctx, stopped)
	return nil
}

// Stop halts the loop and waits for the goroutine to exit.
// Stopping a stopped loop is a no-op.
func (l *Loop) Stop() error {
	l.mu.Lock()
	cancel, stopped := l.cancel, l.stopped
	l.cancel, l.stopped = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-stopped
	return nil
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped != nil
}

// Steps returns how many steps have completed.
func (l *Loop) Steps() uint64 {
	return l.steps.Load()
}

// Handled returns how many RunSync requests have been served.
func (l *Loop) Handled() uint64 {
	return l.handled.Load()
}

// RunSync runs fn on the loop goroutine and blocks until it returns.
//
// ctx only bounds the wait for the loop to accept the request. Once
// accepted, fn always runs to completion before RunSync returns.
func (l *Loop) RunSync(ctx context.Context, fn func()) error {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()

	if stopped == nil {
		return ErrNotRunning
	}

	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.done
}

func (l *Loop) run(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	var tick <-chan time.Time
	if l.step != nil && l.quantum > 0 {
		ticker := time.NewTicker(l.quantum)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-l.requests:
			req.done <- l.handle(req.fn)
		case <-tick:
			l.advance(ctx)
		}
	}
}

func (l *Loop) handle(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		l.handled.Add(1)
	}()
	fn()
	return nil
}

func (l *Loop) advance(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("engine step panicked", "step", l.steps.Load(), "panic", r)
		}
		l.steps.Add(1)
	}()
	if err := l.step(ctx); err != nil {
		l.logger.Warn("engine step failed", "step", l.steps.Load(), "error", err)
	}
}
