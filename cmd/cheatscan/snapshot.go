package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cheatscan/internal/config"
	"github.com/nao1215/cheatscan/internal/database"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
)

// NewSnapshotCmd creates the snapshot command and its subcommands.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and manage stored memory images",
		Long: `Snapshot stores images of memory regions in the local database.

Stored snapshots of a region can be replayed later with
'cheatscan session --timeline' or 'cheatscan search --timeline', in the
order they were captured. Capturing an image identical to one already
stored for the region keeps the existing snapshot.`,
	}

	cmd.AddCommand(newSnapshotCaptureCmd())
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotDeleteCmd())

	return cmd
}

func newSnapshotCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Store the current image of memory regions",
		Long: `Capture stores the current contents of memory regions as snapshots.

Without --regions every configured region is captured. Regions are read
and stored concurrently.

Examples:
  # Capture the dumps configured in .cheatscan
  cheatscan snapshot capture --label "lives=3"

  # Capture main memory of a running RetroArch core
  cheatscan snapshot capture --retroarch --regions main`,
		Args: cobra.NoArgs,
		RunE: runSnapshotCaptureCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cheatscan in current or home directory)")
	cmd.Flags().StringArrayP("dump", "d", nil,
		"Memory dump file as selector=path (repeatable)")
	cmd.Flags().StringSlice("regions", nil,
		"Regions to capture (default: all configured)")
	cmd.Flags().StringP("label", "l", "",
		"Label stored with the snapshots")
	addRetroArchFlags(cmd)
	addDatabaseFlag(cmd)

	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotListCmd,
	}

	cmd.Flags().StringP("region", "r", "",
		"Only list snapshots of this region")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	addDatabaseFlag(cmd)

	return cmd
}

func newSnapshotDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSnapshotDeleteCmd,
	}

	addDatabaseFlag(cmd)

	return cmd
}

// captured is the outcome of storing one region.
type captured struct {
	Selector model.Selector
	ID       int64
	Size     uint32
	Digest   string
}

// runSnapshotCaptureCmd executes the snapshot capture command.
func runSnapshotCaptureCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)
	ctx := cmd.Context()

	label, err := cmd.Flags().GetString("label")
	if err != nil {
		return err
	}
	names, err := cmd.Flags().GetStringSlice("regions")
	if err != nil {
		return err
	}
	dumpFlags, err := cmd.Flags().GetStringArray("dump")
	if err != nil {
		return err
	}
	dumps, err := parseDumps(dumpFlags)
	if err != nil {
		return err
	}

	provider, available, closeFn, err := captureSource(ctx, cfg, dumps, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Error("failed to close memory source", "error", err)
		}
	}()

	selectors, err := captureSelectors(names, available)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	results, err := captureRegions(ctx, db, provider, selectors, label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range results {
		fmt.Fprintf(out, "Stored snapshot %d: %s (%d bytes, sha3 %s)\n", c.ID, c.Selector, c.Size, c.Digest[:16])
	}
	return nil
}

// captureSource returns the provider and selectors of the configured
// memory source.
func captureSource(ctx context.Context, cfg *config.Config, dumps []dumpSource, logger *slog.Logger) (region.Provider, []model.Selector, func() error, error) {
	if cfg.UseRetroArch {
		live, err := connectRetroArch(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := live.mirror.Sync(ctx); err != nil {
			_ = live.Close()
			return nil, nil, nil, fmt.Errorf("failed to read core memory: %w", err)
		}
		var selectors []model.Selector
		for _, lr := range cfg.File.LiveRegions() {
			selectors = append(selectors, lr.Selector)
		}
		return live.mirror, selectors, live.Close, nil
	}

	provider, err := openFileProvider(cfg, dumps)
	if err != nil {
		return nil, nil, nil, err
	}
	selectors := slices.Sorted(maps.Keys(fileSources(cfg, dumps)))
	return provider, selectors, func() error { return nil }, nil
}

// captureSelectors resolves --regions names against the available regions.
func captureSelectors(names []string, available []model.Selector) ([]model.Selector, error) {
	if len(names) == 0 {
		return available, nil
	}
	selectors := make([]model.Selector, 0, len(names))
	for _, name := range names {
		sel, err := model.ParseSelector(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(available, sel) {
			return nil, fmt.Errorf("%w: %s is not configured", region.ErrUnavailable, sel)
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// captureRegions reads and stores every selector concurrently. Results
// keep the order of selectors.
func captureRegions(ctx context.Context, db *database.SnapshotDB, provider region.Provider, selectors []model.Selector, label string) ([]captured, error) {
	results := make([]captured, len(selectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, sel := range selectors {
		g.Go(func() error {
			r, err := provider.Select(gctx, sel)
			if err != nil {
				return err
			}
			id, err := db.SaveSnapshot(gctx, r, label)
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", sel, err)
			}
			results[i] = captured{Selector: sel, ID: id, Size: r.Size, Digest: database.Digest(r.Buffer)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// snapshotListing is the JSON form of a listed snapshot.
type snapshotListing struct {
	ID        int64     `json:"id"`
	Region    string    `json:"region"`
	Base      string    `json:"base"`
	Size      uint32    `json:"size"`
	Label     string    `json:"label,omitempty"`
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`
}

// runSnapshotListCmd executes the snapshot list command.
func runSnapshotListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd)

	name, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}
	var sel model.Selector
	if name != "" {
		if sel, err = model.ParseSelector(name); err != nil {
			return err
		}
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	snapshots, err := db.ListSnapshots(cmd.Context(), sel)
	if err != nil {
		return err
	}
	return writeSnapshotList(cmd.OutOrStdout(), snapshots, asJSON)
}

// writeSnapshotList prints snapshots as a table or JSON.
func writeSnapshotList(out io.Writer, snapshots []database.Snapshot, asJSON bool) error {
	if asJSON {
		listing := make([]snapshotListing, len(snapshots))
		for i, s := range snapshots {
			listing[i] = snapshotListing{
				ID:        s.ID,
				Region:    string(s.Selector),
				Base:      fmt.Sprintf("%08x", s.Base),
				Size:      s.Size,
				Label:     s.Label,
				Digest:    s.Digest,
				Timestamp: s.Timestamp,
			}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listing)
	}

	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(out, "No snapshots stored.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREGION\tBASE\tSIZE\tCAPTURED\tLABEL")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%d\t%s\t%08x\t%d\t%s\t%s\n",
			s.ID, s.Selector, s.Base, s.Size, s.Timestamp.Format("2006-01-02 15:04:05"), s.Label)
	}
	return tw.Flush()
}

// runSnapshotDeleteCmd executes the snapshot delete command.
func runSnapshotDeleteCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd)

	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q: %w", arg, err)
		}
		ids[i] = id
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	for _, id := range ids {
		if err := db.DeleteSnapshot(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete snapshot %d: %w", id, err)
		}
		fmt.Fprintf(out, "Deleted snapshot %d\n", id)
	}
	return nil
}
