package report

import (
	"io"
	"time"

	"github.com/nao1215/cheatscan/internal/model"
)

// Summary describes the search that produced a result.
type Summary struct {
	// Region is the searched selector.
	Region string `json:"region"`

	// Range is the searched absolute address range.
	Range string `json:"range"`

	// Passes is the number of refine passes performed.
	Passes int `json:"passes"`

	// Steps are the search steps in the order they ran.
	Steps []string `json:"steps,omitempty"`

	// Generated is when the rows were decoded.
	Generated time.Time `json:"generated"`
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the result. It returns the number of bytes written.
	Write(result *model.Result, summary Summary) (int, error)
}

// MultiWriter writes to multiple Writers, for example terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers and stops on the
// first error.
func (m *MultiWriter) Write(result *model.Result, summary Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result, summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
