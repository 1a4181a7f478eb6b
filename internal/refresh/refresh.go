// Package refresh schedules periodic re-decoding of the visible result rows.
//
// The scheduler only ever re-renders; it never filters the candidate set.
// When enabled it ticks repeatedly at the configured interval. When
// disabled it becomes single-shot: a tick that is already armed fires once
// more and the scheduler then stops.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Interval bounds of the refresh cadence.
const (
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = 5000 * time.Millisecond
	DefaultInterval = 1000 * time.Millisecond
	IntervalStep    = 100 * time.Millisecond
)

// ErrNothingToRefresh is returned by a Callback when there are no rows to
// show. The scheduler stops ticking until the next Trigger.
var ErrNothingToRefresh = errors.New("nothing to refresh")

// Callback re-decodes the visible rows.
type Callback func(ctx context.Context) error

// Ticker delivers ticks. time.Ticker satisfies it through NewTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// NewTimeTicker is the default TickerFactory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// ClampInterval rounds d to the nearest IntervalStep and bounds it to
// [MinInterval, MaxInterval].
func ClampInterval(d time.Duration) time.Duration {
	return min(max(d.Round(IntervalStep), MinInterval), MaxInterval)
}

// Scheduler invokes a Callback on ticks.
type Scheduler struct {
	callback  Callback
	newTicker TickerFactory
	logger    *slog.Logger

	mu        sync.Mutex
	interval  time.Duration
	repeating bool
	active    bool

	wake    chan struct{}
	running atomic.Bool
	fired   atomic.Uint64
	skipped atomic.Uint64
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the initial interval, clamped to the allowed bounds.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = ClampInterval(d)
	}
}

// WithTickerFactory replaces the tick source.
func WithTickerFactory(f TickerFactory) Option {
	return func(s *Scheduler) {
		s.newTicker = f
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a disabled scheduler for cb. Call Run to start it.
func New(cb Callback, opts ...Option) *Scheduler {
	s := &Scheduler{
		callback:  cb,
		newTicker: NewTimeTicker,
		interval:  DefaultInterval,
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// SetInterval changes the cadence and returns the rounded, clamped value in
// effect.
func (s *Scheduler) SetInterval(d time.Duration) time.Duration {
	d = ClampInterval(d)
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	s.notify()
	return d
}

// Interval returns the current cadence.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetEnabled switches between repeating ticks (and starts ticking) and
// single-shot mode.
func (s *Scheduler) SetEnabled(on bool) {
	s.mu.Lock()
	s.repeating = on
	if on {
		s.active = true
	}
	s.mu.Unlock()
	s.notify()
}

// Enabled reports whether the scheduler is in repeating mode.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeating
}

// Active reports whether a tick is armed.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Trigger is called after a full refresh. Without results the scheduler
// stops; otherwise it restarts ticking if enabled.
func (s *Scheduler) Trigger(hasResults bool) {
	s.mu.Lock()
	switch {
	case !hasResults:
		s.active = false
	case s.repeating:
		s.active = true
	}
	s.mu.Unlock()
	s.notify()
}

// Stop disarms the tick without changing the mode.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.notify()
}

// Fired returns how many callbacks were started.
func (s *Scheduler) Fired() uint64 {
	return s.fired.Load()
}

// Skipped returns how many ticks arrived while a callback was running.
func (s *Scheduler) Skipped() uint64 {
	return s.skipped.Load()
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the scheduler until ctx is done, then waits for a running
// callback to return.
func (s *Scheduler) Run(ctx context.Context) error {
	var (
		ticker   Ticker
		ticks    <-chan time.Time
		interval time.Duration
	)
	apply := func() {
		s.mu.Lock()
		active, want := s.active, s.interval
		s.mu.Unlock()

		switch {
		case active && ticker == nil:
			ticker = s.newTicker(want)
			ticks = ticker.C()
			interval = want
		case active && want != interval:
			ticker.Reset(want)
			interval = want
		case !active && ticker != nil:
			ticker.Stop()
			ticker, ticks = nil, nil
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		s.wg.Wait()
	}()

	apply()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
			apply()
		case <-ticks:
			s.fire(ctx)
			apply()
		}
	}
}

// fire starts the callback unless one is still running.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		return
	}

	s.mu.Lock()
	if !s.repeating {
		s.active = false
	}
	s.mu.Unlock()

	s.fired.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		err := s.callback(ctx)
		switch {
		case errors.Is(err, ErrNothingToRefresh):
			s.Stop()
		case err != nil:
			s.logger.Warn("refresh failed", "error", err)
		}
	}()
}
