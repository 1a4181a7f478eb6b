package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
)

// RegionConfig describes one memory region in the configuration file.
type RegionConfig struct {
	// File is a memory dump backing the region. Relative paths are resolved
	// against the configuration file's directory.
	File string `yaml:"file,omitempty"`

	// Base is the absolute address of the region's first byte.
	// Zero uses the selector's conventional base.
	Base uint32 `yaml:"base,omitempty"`

	// Size truncates or pads a dump, or sets the mirrored size of a live region.
	Size uint32 `yaml:"size,omitempty"`
}

// RetroArchConfig holds RetroArch settings from the configuration file.
type RetroArchConfig struct {
	Address   string        `yaml:"address,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	ChunkSize uint32        `yaml:"chunkSize,omitempty"`

	// Regions maps selectors to the core memory mirrored for them.
	Regions map[string]RegionConfig `yaml:"regions,omitempty"`
}

// SearchConfig holds search defaults from the configuration file.
type SearchConfig struct {
	Region          string        `yaml:"region,omitempty"`
	Type            string        `yaml:"type,omitempty"`
	Base            string        `yaml:"base,omitempty"`
	Start           string        `yaml:"start,omitempty"`
	End             string        `yaml:"end,omitempty"`
	DisplayCap      int           `yaml:"displayCap,omitempty"`
	RefreshInterval time.Duration `yaml:"refreshInterval,omitempty"`
	AutoRefresh     bool          `yaml:"autoRefresh,omitempty"`
}

// File represents the structure of the .cheatscan configuration file.
type File struct {
	// Regions maps selectors to dump files.
	Regions map[string]RegionConfig `yaml:"regions,omitempty"`

	// RetroArch configures the live RetroArch source.
	RetroArch RetroArchConfig `yaml:"retroarch,omitempty"`

	// Search overrides the built-in search defaults.
	Search SearchConfig `yaml:"search,omitempty"`

	// dir is the directory the file was loaded from.
	dir string
}

// Validate checks region selectors and sources.
func (cf *File) Validate() error {
	for name, rc := range cf.Regions {
		if _, err := model.ParseSelector(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRegion, err)
		}
		if rc.File == "" {
			return fmt.Errorf("%w: region %s has no file", ErrInvalidSource, name)
		}
	}
	for name := range cf.RetroArch.Regions {
		if _, err := model.ParseSelector(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRegion, err)
		}
	}
	return nil
}

// Sources returns the dump file sources keyed by selector.
func (cf *File) Sources() map[model.Selector]region.Source {
	sources := make(map[model.Selector]region.Source, len(cf.Regions))
	for name, rc := range cf.Regions {
		sel, err := model.ParseSelector(name)
		if err != nil {
			continue
		}
		path := rc.File
		if cf.dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(cf.dir, path)
		}
		base := rc.Base
		if base == 0 {
			base = sel.DefaultBase()
		}
		sources[sel] = region.Source{Path: path, Base: base, Size: rc.Size}
	}
	return sources
}

// LiveRegion is a core memory range mirrored from RetroArch.
type LiveRegion struct {
	Selector model.Selector
	Base     uint32
	Size     uint32
}

// LiveRegions returns the RetroArch regions, defaulting to main memory,
// ordered by selector.
func (cf *File) LiveRegions() []LiveRegion {
	if len(cf.RetroArch.Regions) == 0 {
		return []LiveRegion{{Selector: model.SelectorMain, Base: model.DefaultMainBase, Size: DefaultMainSize}}
	}
	out := make([]LiveRegion, 0, len(cf.RetroArch.Regions))
	for name, rc := range cf.RetroArch.Regions {
		sel, err := model.ParseSelector(name)
		if err != nil {
			continue
		}
		lr := LiveRegion{Selector: sel, Base: rc.Base, Size: rc.Size}
		if lr.Base == 0 {
			lr.Base = sel.DefaultBase()
		}
		if lr.Size == 0 {
			lr.Size = DefaultMainSize
		}
		out = append(out, lr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Selector < out[j].Selector })
	return out
}

// Apply copies the values set in the file onto c.
func (cf *File) Apply(c *Config) {
	s := cf.Search
	if s.Region != "" {
		c.Region = s.Region
	}
	if s.Type != "" {
		c.ValueType = s.Type
	}
	if s.Base != "" {
		c.Base = s.Base
	}
	if s.Start != "" {
		c.RangeStart = s.Start
	}
	if s.End != "" {
		c.RangeEnd = s.End
	}
	if s.DisplayCap != 0 {
		c.DisplayCap = s.DisplayCap
	}
	if s.RefreshInterval != 0 {
		c.RefreshInterval = s.RefreshInterval
	}
	if s.AutoRefresh {
		c.AutoRefresh = true
	}

	ra := cf.RetroArch
	if ra.Address != "" {
		c.RetroArchAddress = ra.Address
	}
	if ra.Timeout != 0 {
		c.RetroArchTimeout = ra.Timeout
	}
	if ra.ChunkSize != 0 {
		c.RetroArchChunkSize = ra.ChunkSize
	}
}
