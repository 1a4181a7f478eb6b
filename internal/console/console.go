package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/refresh"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/report"
	"github.com/nao1215/cheatscan/internal/scan"
)

// DefaultPrompt is printed before each command.
const DefaultPrompt = "cheatscan> "

// Stepper advances the memory source by one step.
type Stepper func(ctx context.Context) error

// Console drives a scan session from text commands.
type Console struct {
	// mu serializes commands and timed refreshes.
	mu sync.Mutex

	session   *scan.Session
	provider  region.Provider
	scheduler *refresh.Scheduler
	stepper   Stepper
	out       io.Writer
	rows      *report.SimpleWriter
	logger    *slog.Logger
	prompt    string

	selector   model.Selector
	valueType  model.ValueType
	base       model.Base
	rangeStart string
	rangeEnd   string
	view       scan.Window

	refreshOpts []refresh.Option
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// WithSelector sets the initial region selector.
func WithSelector(sel model.Selector) Option {
	return func(c *Console) {
		c.selector = sel
	}
}

// WithValueType sets the initial value type.
func WithValueType(vt model.ValueType) Option {
	return func(c *Console) {
		c.valueType = vt
	}
}

// WithBase sets the initial numeral base for literals.
func WithBase(base model.Base) Option {
	return func(c *Console) {
		c.base = base
	}
}

// WithRange sets the initial address range text.
func WithRange(start, end string) Option {
	return func(c *Console) {
		c.rangeStart = start
		c.rangeEnd = end
	}
}

// WithStepper enables the step command.
func WithStepper(s Stepper) Option {
	return func(c *Console) {
		c.stepper = s
	}
}

// WithRefreshOptions configures the refresh scheduler.
func WithRefreshOptions(opts ...refresh.Option) Option {
	return func(c *Console) {
		c.refreshOpts = append(c.refreshOpts, opts...)
	}
}

// WithPrompt sets the prompt printed before each command.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// New creates a console for session reading regions from provider.
func New(session *scan.Session, provider region.Provider, out io.Writer, opts ...Option) *Console {
	c := &Console{
		session:   session,
		provider:  provider,
		out:       out,
		rows:      report.NewSimpleWriter(out, report.WithCompact(true)),
		prompt:    DefaultPrompt,
		selector:  model.SelectorMain,
		valueType: model.Word,
		base:      model.Decimal,
		view:      scan.All(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.scheduler = refresh.New(c.timedRefresh, append(c.refreshOpts, refresh.WithLogger(c.logger))...)
	return c
}

// Scheduler returns the refresh scheduler driven by the console.
func (c *Console) Scheduler() *refresh.Scheduler {
	return c.scheduler
}

// Run reads commands from in until quit, end of input or ctx is done.
// The refresh scheduler runs for the lifetime of the call.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.scheduler.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return c.readLoop(gctx, in)
	})
	return g.Wait()
}

// readLoop executes lines until the input ends or a quit command.
func (c *Console) readLoop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		c.printPrompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := c.Execute(ctx, line)
			if err != nil {
				c.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute runs one command line. It reports whether the line asked to quit.
// Errors leave the session as it was before the command.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	cmd, ok := commands[name]
	if !ok {
		return false, fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, fields[0])
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("console command", "command", name, "args", args)
	if cmd.quit {
		return true, nil
	}
	return false, cmd.run(c, ctx, args)
}

// update renders the visible rows and re-arms the scheduler. c.mu is held.
func (c *Console) update(ctx context.Context) error {
	result, err := c.session.Decode(ctx, c.view)
	if err != nil {
		return err
	}
	if _, err := c.rows.Write(result, report.Summary{}); err != nil {
		return err
	}
	c.scheduler.Trigger(!result.Empty())
	return nil
}

// timedRefresh is the scheduler callback.
func (c *Console) timedRefresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Active() || c.session.Count() == 0 {
		return refresh.ErrNothingToRefresh
	}
	result, err := c.session.Decode(ctx, c.view)
	if err != nil {
		if errors.Is(err, scan.ErrSessionNotInitialized) {
			return refresh.ErrNothingToRefresh
		}
		return err
	}
	_, err = c.rows.Write(result, report.Summary{})
	return err
}

func (c *Console) printPrompt() {
	if c.prompt == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, c.prompt)
}

// printf writes to the console output. It takes c.mu.
func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}
