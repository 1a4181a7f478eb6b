package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cheatscan/internal/config"
	"github.com/nao1215/cheatscan/internal/database"
	"github.com/nao1215/cheatscan/internal/engine"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/pipeline"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/report"
	"github.com/nao1215/cheatscan/internal/scan"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [comparison...]",
		Short: "Run a search over a sequence of memory images",
		Long: `Search runs a complete cheat search without interaction.

The memory images are the --dump files of one region in the order given,
or the snapshots of the region stored in the database (--timeline). The
search captures every candidate on the first image. Each comparison is
then applied to the next image, except the first comparison, which is
applied to the first image itself.

A comparison is an operator optionally followed by a value:
  eq, ne, gt, lt (or =, !=, >, <)  compare with the value, or with the
                                   previous value when none is given
  unknown                          keep everything, re-read the values

Examples:
  # Find a counter that went from 100 to 99
  cheatscan search -d main=a.bin -d main=b.bin "eq 100" "lt"

  # Find a float that increased between two stored snapshots
  cheatscan search --timeline -t float unknown gt

  # Write the matches as Markdown
  cheatscan search -d main=a.bin "eq 3" -m -o matches.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	addSearchFlags(cmd)
	addDatabaseFlag(cmd)
	addReportFlags(cmd)
	cmd.Flags().Bool("timeline", false,
		"Use the snapshots of the region stored in the database as images")
	cmd.Flags().Int("first", 0, "First row to render")
	cmd.Flags().Int("last", -1, "Last row to render (default: up to the display cap)")

	return cmd
}

// searchPlan is a parsed search command.
type searchPlan struct {
	selector    model.Selector
	valueType   model.ValueType
	base        model.Base
	comparisons []string
	window      scan.Window
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)

	plan, err := newSearchPlan(cmd, cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeline, err := searchTimeline(ctx, cmd, cfg, plan.selector)
	if err != nil {
		return err
	}
	if need := len(plan.comparisons); need > timeline.Len() {
		return fmt.Errorf("%d comparisons need at least %d images, got %d", need, need, timeline.Len())
	}

	w, closeReport, err := reportWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReport(); err != nil {
			logger.Error("failed to close report", "error", err)
		}
	}()

	return runSearch(ctx, cfg, plan, timeline, w, logger)
}

// newSearchPlan parses the configuration and comparison arguments.
func newSearchPlan(cmd *cobra.Command, cfg *config.Config, args []string) (*searchPlan, error) {
	sel, err := cfg.Selector()
	if err != nil {
		return nil, err
	}
	vt, err := cfg.SearchType()
	if err != nil {
		return nil, err
	}
	base, err := cfg.LiteralBase()
	if err != nil {
		return nil, err
	}
	for _, expr := range args {
		if _, err := scan.ParseComparison(expr, vt, base); err != nil {
			return nil, fmt.Errorf("comparison %q: %w", expr, err)
		}
	}

	first, err := cmd.Flags().GetInt("first")
	if err != nil {
		return nil, err
	}
	last, err := cmd.Flags().GetInt("last")
	if err != nil {
		return nil, err
	}

	return &searchPlan{
		selector:    sel,
		valueType:   vt,
		base:        base,
		comparisons: args,
		window:      scan.Visible(first, last),
	}, nil
}

// searchTimeline loads the images of the search, from --dump flags or the
// database.
func searchTimeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sel model.Selector) (*region.Timeline, error) {
	useDB, err := cmd.Flags().GetBool("timeline")
	if err != nil {
		return nil, err
	}
	if useDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		return loadTimeline(ctx, db, sel)
	}

	dumpFlags, err := cmd.Flags().GetStringArray("dump")
	if err != nil {
		return nil, err
	}
	dumps, err := parseDumps(dumpFlags)
	if err != nil {
		return nil, err
	}
	if len(dumps) == 0 {
		// Fall back to the dump configured for the region.
		src, ok := cfg.File.Sources()[sel]
		if !ok {
			return nil, fmt.Errorf("%w: pass --dump %s=path or --timeline", region.ErrUnavailable, sel)
		}
		dumps = []dumpSource{{Selector: sel, Path: src.Path}}
	}
	return dumpTimeline(cfg, dumps)
}

// dumpTimeline loads dump files of one region as timeline frames.
func dumpTimeline(cfg *config.Config, dumps []dumpSource) (*region.Timeline, error) {
	sel, err := frameSelector(dumps)
	if err != nil {
		return nil, err
	}
	src := fileSources(cfg, nil)[sel]
	if src.Base == 0 {
		src.Base = sel.DefaultBase()
	}

	frames := make([]region.Frame, len(dumps))
	for i, d := range dumps {
		src.Path = d.Path
		r, err := region.Load(sel, src)
		if err != nil {
			return nil, err
		}
		frames[i] = region.Frame{Label: d.Path, Data: r.Buffer}
	}
	return region.NewTimeline(sel, src.Base, frames)
}

// buildSearchPipeline assembles the steps of plan.
func buildSearchPipeline(cfg *config.Config, plan *searchPlan, logger *slog.Logger) (*pipeline.Pipeline, error) {
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(&pipeline.InitializeStep{
		Selector: plan.selector,
		Type:     plan.valueType,
		Start:    cfg.RangeStart,
		End:      cfg.RangeEnd,
	})
	for i, expr := range plan.comparisons {
		cmp, err := scan.ParseComparison(expr, plan.valueType, plan.base)
		if err != nil {
			return nil, fmt.Errorf("comparison %q: %w", expr, err)
		}
		if i > 0 {
			p.AddStep(&pipeline.AdvanceStep{})
		}
		p.AddStep(&pipeline.RefineStep{Comparison: cmp})
	}
	p.AddStep(&pipeline.DecodeStep{Window: plan.window})
	return p, nil
}

// runSearch executes plan over timeline and writes the report.
func runSearch(ctx context.Context, cfg *config.Config, plan *searchPlan, timeline *region.Timeline, w report.Writer, logger *slog.Logger) error {
	p, err := buildSearchPipeline(cfg, plan, logger)
	if err != nil {
		return err
	}

	exec := engine.Quiesced{}
	state := &pipeline.State{
		Session: scan.NewSession(exec,
			scan.WithLogger(logger),
			scan.WithDisplayCap(cfg.DisplayCap),
			scan.WithWorkers(cfg.Workers),
		),
		Executor: exec,
		Provider: timeline,
		Advancer: timeline,
	}

	start := time.Now()
	if err := p.Execute(ctx, state); err != nil {
		return err
	}
	logger.Info("search completed",
		"region", string(plan.selector),
		"survivors", state.Result.Survivors,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	_, err = w.Write(state.Result, summarize(state))
	return err
}

// summarize describes the search for the report header.
func summarize(state *pipeline.State) report.Summary {
	s := state.Session
	r := s.Region()
	span := s.Range()
	return report.Summary{
		Region:    string(r.Selector),
		Range:     fmt.Sprintf("%08x-%08x", r.Base+span.Start, r.Base+span.End),
		Passes:    s.Passes(),
		Steps:     state.PerformedSteps,
		Generated: time.Now(),
	}
}
