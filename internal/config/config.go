package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/refresh"
	"github.com/nao1215/cheatscan/internal/retroarch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "cheatscan"

	// DefaultDisplayCap is the maximum number of rows rendered at once.
	DefaultDisplayCap = model.DefaultDisplayCap

	// DefaultRefreshInterval is the cadence of automatic row refreshes.
	DefaultRefreshInterval = refresh.DefaultInterval

	// DefaultValueType is the value type of a new search.
	DefaultValueType = "32"

	// DefaultBase is the numeral base of comparison literals.
	DefaultBase = "dec"

	// DefaultRegion is the region selected when a session starts.
	DefaultRegion = string(model.SelectorMain)

	// DefaultRangeStart and DefaultRangeEnd bound a new search in main memory.
	DefaultRangeStart = "80000000"
	DefaultRangeEnd   = "81800000"

	// DefaultQuantum is how often the engine advances a live target,
	// roughly one frame at 60 Hz.
	DefaultQuantum = 16 * time.Millisecond

	// DefaultRetroArchAddress is RetroArch's network-command endpoint.
	DefaultRetroArchAddress = retroarch.DefaultAddress

	// DefaultRetroArchTimeout bounds a single RetroArch request.
	DefaultRetroArchTimeout = retroarch.DefaultTimeout

	// DefaultRetroArchChunkSize is the largest RetroArch transfer per request.
	DefaultRetroArchChunkSize = retroarch.DefaultChunkSize

	// DefaultMainSize is the size of main memory mirrored from a live core.
	DefaultMainSize uint32 = 0x01800000
)

// Config holds all configuration options for cheatscan.
// It is populated from defaults, the configuration file and CLI flags, and
// passed through the application rather than held in global state.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .cheatscan is searched in the current and home directories.
	ConfigFilePath string

	// File holds the memory sources loaded from the configuration file.
	File *File

	// Region is the selector searched first.
	Region string

	// ValueType is the value type of a new search: 8, 16, 32 or float.
	ValueType string

	// Base is the numeral base of comparison literals: dec, hex or oct.
	Base string

	// RangeStart and RangeEnd are hex addresses bounding a new search.
	// Empty or out-of-region values fall back to the region bounds.
	RangeStart string
	RangeEnd   string

	// DisplayCap is the maximum number of rows rendered at once.
	DisplayCap int

	// RefreshInterval is the cadence of automatic refreshes.
	RefreshInterval time.Duration

	// AutoRefresh enables repeating refreshes when a session starts.
	AutoRefresh bool

	// Workers is the number of goroutines a refine pass may use.
	Workers int

	// Quantum is the interval between engine steps for live targets.
	Quantum time.Duration

	// UseRetroArch reads memory from a running RetroArch core instead of
	// dump files.
	UseRetroArch bool

	// RetroArchAddress is the host:port of RetroArch network commands.
	RetroArchAddress string

	// RetroArchTimeout bounds a single RetroArch request.
	RetroArchTimeout time.Duration

	// RetroArchChunkSize is the largest transfer per RetroArch request.
	RetroArchChunkSize uint32

	// DBDir is the directory of the snapshot database.
	// Defaults to the XDG data directory (~/.local/share/cheatscan on Linux).
	DBDir string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	MarkdownReport bool

	// ReportFile is the report output path; stdout when empty.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		File:               &File{},
		Region:             DefaultRegion,
		ValueType:          DefaultValueType,
		Base:               DefaultBase,
		RangeStart:         DefaultRangeStart,
		RangeEnd:           DefaultRangeEnd,
		DisplayCap:         DefaultDisplayCap,
		RefreshInterval:    DefaultRefreshInterval,
		Workers:            runtime.GOMAXPROCS(0),
		Quantum:            DefaultQuantum,
		RetroArchAddress:   DefaultRetroArchAddress,
		RetroArchTimeout:   DefaultRetroArchTimeout,
		RetroArchChunkSize: DefaultRetroArchChunkSize,
		DBDir:              XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for cheatscan.
// On Linux: ~/.local/share/cheatscan
// On macOS: ~/Library/Application Support/cheatscan
// On Windows: %LOCALAPPDATA%\cheatscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cheatscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Selector returns the parsed start-up region.
func (c *Config) Selector() (model.Selector, error) {
	sel, err := model.ParseSelector(c.Region)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRegion, err)
	}
	return sel, nil
}

// SearchType returns the parsed value type.
func (c *Config) SearchType() (model.ValueType, error) {
	vt, err := model.ParseValueType(c.ValueType)
	if err != nil {
		return model.ValueType{}, fmt.Errorf("%w: %w", ErrInvalidValueType, err)
	}
	return vt, nil
}

// LiteralBase returns the parsed numeral base.
func (c *Config) LiteralBase() (model.Base, error) {
	b, err := model.ParseBase(c.Base)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBase, err)
	}
	return b, nil
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if _, err := c.Selector(); err != nil {
		return err
	}
	if _, err := c.SearchType(); err != nil {
		return err
	}
	if _, err := c.LiteralBase(); err != nil {
		return err
	}
	if c.DisplayCap <= 0 {
		return ErrInvalidDisplayCap
	}
	if c.RefreshInterval < refresh.MinInterval || c.RefreshInterval > refresh.MaxInterval {
		return ErrInvalidRefreshInterval
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Quantum <= 0 {
		return ErrInvalidQuantum
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseRetroArch {
		if c.RetroArchAddress == "" {
			return ErrNoRetroArchAddress
		}
		if c.RetroArchTimeout <= 0 {
			return ErrInvalidTimeout
		}
		if c.RetroArchChunkSize == 0 {
			return ErrInvalidChunkSize
		}
	}
	if c.File != nil {
		if err := c.File.Validate(); err != nil {
			return err
		}
	}
	return nil
}
