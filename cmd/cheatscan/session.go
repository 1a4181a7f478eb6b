package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cheatscan/internal/config"
	"github.com/nao1215/cheatscan/internal/console"
	"github.com/nao1215/cheatscan/internal/database"
	"github.com/nao1215/cheatscan/internal/engine"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/refresh"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/scan"
)

// errReplayWithoutTimeline is returned for --replay without --timeline.
var errReplayWithoutTimeline = errors.New("--replay requires --timeline")

// NewSessionCmd creates the session command.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start an interactive search console",
		Long: `Session starts an interactive console for a cheat search.

Type "new" to capture every candidate address of the region, then
"next <op> [value]" after each change in the game to narrow the set.
Type "help" in the console for all commands.

Memory comes from one of:
- dump files configured in .cheatscan or passed with --dump
- snapshots stored with 'cheatscan snapshot capture' (--timeline);
  "step" moves to the next stored snapshot, or --replay plays them back
  one per --quantum
- a running RetroArch core (--retroarch), mirrored continuously

Examples:
  # Search a memory dump
  cheatscan session --dump main=mem1.bin

  # Replay stored snapshots of main memory
  cheatscan session --timeline

  # Play stored snapshots back, one every 2 seconds
  cheatscan session --timeline --replay --quantum 2s

  # Search live memory of RetroArch with automatic refresh
  cheatscan session --retroarch --watch`,
		Args: cobra.NoArgs,
		RunE: runSessionCmd,
	}

	addSearchFlags(cmd)
	addDatabaseFlag(cmd)
	addRetroArchFlags(cmd)
	cmd.Flags().Bool("timeline", false,
		"Replay snapshots of the region stored in the database")
	cmd.Flags().Bool("replay", false,
		"With --timeline, advance one snapshot per quantum")
	cmd.Flags().Bool("watch", false,
		"Refresh the visible rows periodically")
	cmd.Flags().Duration("interval", config.DefaultRefreshInterval,
		"Refresh cadence, 100ms to 5s")
	cmd.Flags().Duration("quantum", config.DefaultQuantum,
		"Interval between engine steps (live core refreshes or --replay frames)")

	return cmd
}

// runSessionCmd executes the session command.
func runSessionCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.RefreshInterval, err = durationFlag(cmd, "interval", cfg.RefreshInterval); err != nil {
		return err
	}
	if cfg.Quantum, err = durationFlag(cmd, "quantum", cfg.Quantum); err != nil {
		return err
	}
	if cmd.Flags().Changed("watch") {
		if cfg.AutoRefresh, err = cmd.Flags().GetBool("watch"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	timeline, err := cmd.Flags().GetBool("timeline")
	if err != nil {
		return err
	}
	replay, err := cmd.Flags().GetBool("replay")
	if err != nil {
		return err
	}
	if replay && !timeline {
		return errReplayWithoutTimeline
	}
	dumpFlags, err := cmd.Flags().GetStringArray("dump")
	if err != nil {
		return err
	}
	dumps, err := parseDumps(dumpFlags)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSessionSource(ctx, cfg, dumps, timeline, replay, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.close(); err != nil {
			logger.Error("failed to close memory source", "error", err)
		}
	}()

	return runSession(ctx, cfg, src, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// durationFlag returns the flag value if it was set, otherwise def.
func durationFlag(cmd *cobra.Command, name string, def time.Duration) (time.Duration, error) {
	if !cmd.Flags().Changed(name) {
		return def, nil
	}
	return cmd.Flags().GetDuration(name)
}

// sessionSource is the memory behind an interactive session.
type sessionSource struct {
	provider region.Provider

	// step advances the memory on the engine goroutine.
	step engine.StepFunc

	// background runs every quantum on the engine; nil unless live or
	// replaying.
	background engine.StepFunc

	close func() error
}

// openSessionSource selects dump files, stored snapshots or a live core.
func openSessionSource(ctx context.Context, cfg *config.Config, dumps []dumpSource, timeline, replay bool, logger *slog.Logger) (*sessionSource, error) {
	noClose := func() error { return nil }

	switch {
	case cfg.UseRetroArch:
		live, err := connectRetroArch(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := live.mirror.Sync(ctx); err != nil {
			logger.Warn("initial mirror sync incomplete", "error", err)
			for _, lr := range cfg.File.LiveRegions() {
				if r, err := live.mirror.Select(ctx, lr.Selector); err == nil && r.Unreadable() {
					logger.Warn("core refused every read of region", "region", string(lr.Selector), "base", lr.Base)
				}
			}
		}
		return &sessionSource{
			provider:   live.mirror,
			step:       live.mirror.Sync,
			background: live.mirror.Step,
			close:      live.Close,
		}, nil

	case timeline:
		sel, err := cfg.Selector()
		if err != nil {
			return nil, err
		}
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		tl, err := loadTimeline(ctx, db, sel)
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		logger.Info("replaying snapshots", "region", string(sel), "frames", tl.Len(), "replay", replay)
		src := &sessionSource{
			provider: tl,
			step:     func(context.Context) error { return tl.Advance() },
			close:    noClose,
		}
		if replay {
			src.background = tl.Step
		}
		return src, nil

	default:
		provider, err := openFileProvider(cfg, dumps)
		if err != nil {
			return nil, err
		}
		return &sessionSource{
			provider: provider,
			step:     func(context.Context) error { return provider.Reload() },
			close:    noClose,
		}, nil
	}
}

// loadTimeline builds a timeline from the snapshots stored for sel.
func loadTimeline(ctx context.Context, db *database.SnapshotDB, sel model.Selector) (*region.Timeline, error) {
	snapshots, err := db.LoadSnapshots(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshots of %s (run 'cheatscan snapshot capture')", region.ErrEmptyTimeline, sel)
	}

	frames := make([]region.Frame, len(snapshots))
	for i, s := range snapshots {
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("#%d", s.ID)
		}
		frames[i] = region.Frame{Label: label, Data: s.Data}
	}
	return region.NewTimeline(sel, snapshots[0].Base, frames)
}

// runSession runs the console over src until the input ends.
func runSession(ctx context.Context, cfg *config.Config, src *sessionSource, in io.Reader, out io.Writer, logger *slog.Logger) error {
	sel, err := cfg.Selector()
	if err != nil {
		return err
	}
	vt, err := cfg.SearchType()
	if err != nil {
		return err
	}
	base, err := cfg.LiteralBase()
	if err != nil {
		return err
	}

	loopOpts := []engine.Option{engine.WithLogger(logger)}
	if src.background != nil {
		loopOpts = append(loopOpts, engine.WithStep(src.background), engine.WithQuantum(cfg.Quantum))
	}
	loop := engine.New(loopOpts...)
	if err := loop.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := loop.Stop(); err != nil {
			logger.Error("failed to stop engine", "error", err)
		}
	}()

	session := scan.NewSession(loop,
		scan.WithLogger(logger),
		scan.WithDisplayCap(cfg.DisplayCap),
		scan.WithWorkers(cfg.Workers),
	)

	opts := []console.Option{
		console.WithLogger(logger),
		console.WithSelector(sel),
		console.WithValueType(vt),
		console.WithBase(base),
		console.WithRange(cfg.RangeStart, cfg.RangeEnd),
		console.WithRefreshOptions(refresh.WithInterval(cfg.RefreshInterval)),
	}
	if src.step != nil {
		step := src.step
		opts = append(opts, console.WithStepper(func(ctx context.Context) error {
			var stepErr error
			if err := loop.RunSync(ctx, func() { stepErr = step(ctx) }); err != nil {
				return err
			}
			return stepErr
		}))
	}

	c := console.New(session, src.provider, out, opts...)
	c.Scheduler().SetEnabled(cfg.AutoRefresh)

	fmt.Fprintf(out, "cheatscan %s: type \"help\" for commands\n", getVersion())
	if err := c.Run(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
