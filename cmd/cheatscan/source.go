package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/cheatscan/internal/config"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/region"
	"github.com/nao1215/cheatscan/internal/retroarch"
)

// liveSource is a connected RetroArch core with its region mirror.
type liveSource struct {
	client *retroarch.Client
	mirror *retroarch.Mirror
}

// connectRetroArch connects to the configured core and mirrors the
// configured regions. The mirror starts fully unreadable until synced.
func connectRetroArch(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*liveSource, error) {
	client := retroarch.NewClient(cfg.RetroArchAddress,
		retroarch.WithTimeout(cfg.RetroArchTimeout),
		retroarch.WithChunkSize(cfg.RetroArchChunkSize),
		retroarch.WithLogger(logger),
	)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to RetroArch at %s: %w", cfg.RetroArchAddress, err)
	}

	version, err := client.Version(ctx)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Info("connected to RetroArch", "address", cfg.RetroArchAddress, "version", version)

	mirror := retroarch.NewMirror(client, retroarch.WithMirrorChunkSize(client.ChunkSize()))
	for _, lr := range cfg.File.LiveRegions() {
		mirror.Add(lr.Selector, lr.Base, lr.Size)
		logger.Debug("mirroring region", "region", string(lr.Selector), "base", lr.Base, "size", lr.Size)
	}
	return &liveSource{client: client, mirror: mirror}, nil
}

// Close disconnects from the core.
func (s *liveSource) Close() error {
	return s.client.Close()
}

// openFileProvider returns the dump file provider for cfg and --dump flags.
func openFileProvider(cfg *config.Config, dumps []dumpSource) (*region.FileProvider, error) {
	sources := fileSources(cfg, dumps)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: configure regions in %s or pass --dump selector=path",
			region.ErrUnavailable, config.DefaultConfigFile)
	}
	return region.NewFileProvider(sources), nil
}

// frameSelector returns the single selector all dumps share.
func frameSelector(dumps []dumpSource) (model.Selector, error) {
	sel := dumps[0].Selector
	for _, d := range dumps[1:] {
		if d.Selector != sel {
			return "", fmt.Errorf("%w: frames mix %s and %s", errInvalidDump, sel, d.Selector)
		}
	}
	return sel, nil
}
