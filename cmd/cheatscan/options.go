package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/cheatscan/internal/config"
	cslog "github.com/nao1215/cheatscan/internal/log"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/report"
)

// errInvalidDump is returned for --dump values that are not selector=path.
var errInvalidDump = errors.New("invalid --dump value (want selector=path)")

// addSearchFlags registers the flags shared by commands that search memory.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cheatscan in current or home directory)")
	cmd.Flags().StringP("region", "r", config.DefaultRegion,
		"Memory region to search: main, extended or vmem")
	cmd.Flags().StringP("type", "t", config.DefaultValueType,
		"Value type: 8, 16, 32 or float")
	cmd.Flags().StringP("base", "b", config.DefaultBase,
		"Numeral base of comparison values: dec, hex or oct")
	cmd.Flags().String("start", config.DefaultRangeStart,
		"First address of the search range (hex)")
	cmd.Flags().String("end", config.DefaultRangeEnd,
		"End address of the search range (hex)")
	cmd.Flags().Int("display-cap", config.DefaultDisplayCap,
		"Maximum number of rows rendered at once")
	cmd.Flags().Int("workers", 0,
		"Goroutines used by a refine pass (default: number of CPUs)")
	cmd.Flags().StringArrayP("dump", "d", nil,
		"Memory dump file as selector=path (repeatable)")
}

// addRetroArchFlags registers the flags selecting a live RetroArch core.
func addRetroArchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("retroarch", false,
		"Read memory live from RetroArch network commands")
	cmd.Flags().String("retroarch-address", config.DefaultRetroArchAddress,
		"RetroArch network-command address")
	cmd.Flags().Duration("retroarch-timeout", config.DefaultRetroArchTimeout,
		"Timeout of a single RetroArch request")
}

// addDatabaseFlag registers the snapshot database directory flag.
func addDatabaseFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Snapshot database directory (default: XDG data directory)")
}

// addReportFlags registers the report format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger for a command.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := cslog.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags that were set on the command line, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	var err error

	if flags.Lookup("config") != nil {
		if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
			return nil, err
		}
	}

	// An explicit config path must exist; a missing default file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.File.Apply(cfg)
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	stringFlags := map[string]*string{
		"region":            &cfg.Region,
		"type":              &cfg.ValueType,
		"base":              &cfg.Base,
		"start":             &cfg.RangeStart,
		"end":               &cfg.RangeEnd,
		"retroarch-address": &cfg.RetroArchAddress,
		"output":            &cfg.ReportFile,
		"db-dir":            &cfg.DBDir,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	intFlags := map[string]*int{
		"display-cap": &cfg.DisplayCap,
		"workers":     &cfg.Workers,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetInt(name); err != nil {
			return nil, err
		}
	}

	boolFlags := map[string]*bool{
		"retroarch": &cfg.UseRetroArch,
		"json":      &cfg.JSONReport,
		"markdown":  &cfg.MarkdownReport,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("retroarch-timeout") {
		if cfg.RetroArchTimeout, err = flags.GetDuration("retroarch-timeout"); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// dumpSource is one --dump flag value.
type dumpSource struct {
	Selector model.Selector
	Path     string
}

// parseDumps parses selector=path values. The order of the flags is kept.
func parseDumps(values []string) ([]dumpSource, error) {
	dumps := make([]dumpSource, 0, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidDump, v)
		}
		sel, err := model.ParseSelector(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidDump, err)
		}
		dumps = append(dumps, dumpSource{Selector: sel, Path: filepath.Clean(path)})
	}
	return dumps, nil
}

// fileSources merges the regions of the config file with --dump flags.
// A flag replaces the configured file of the same selector.
func fileSources(cfg *config.Config, dumps []dumpSource) map[model.Selector]region.Source {
	sources := cfg.File.Sources()
	for _, d := range dumps {
		src := sources[d.Selector]
		src.Path = d.Path
		if src.Base == 0 {
			src.Base = d.Selector.DefaultBase()
		}
		sources[d.Selector] = src
	}
	return sources
}

// reportWriter opens the configured report destination and returns the
// writer with a function closing the destination.
func reportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func() error, error) {
	output := stdout
	closeFn := func() error { return nil }

	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output, closeFn = f, f.Close
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), closeFn, nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), closeFn, nil
	default:
		return report.NewSimpleWriter(output), closeFn, nil
	}
}
