package scan

import (
	"log/slog"
	"runtime"

	"github.com/nao1215/cheatscan/internal/model"
)

// defaultChunkSize is the number of candidates one refine worker filters.
const defaultChunkSize = 1 << 16

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for pass summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDisplayCap sets the maximum rows rendered per Decode.
// Non-positive values keep the default of 4096.
func WithDisplayCap(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.displayCap = n
		}
	}
}

// WithWorkers sets how many goroutines a refine pass may use.
// Non-positive values keep the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithChunkSize sets how many candidates each refine worker handles.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func defaultSession() *Session {
	return &Session{
		displayCap: model.DefaultDisplayCap,
		workers:    runtime.GOMAXPROCS(0),
		chunkSize:  defaultChunkSize,
	}
}
