package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/cheatscan/internal/model"
)

// SimpleWriter outputs aligned text columns.
type SimpleWriter struct {
	baseWriter

	// compact omits the header block, for interactive use.
	compact bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithCompact omits the header block and prints only the label and rows.
func WithCompact(compact bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.compact = compact
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *model.Result, summary Summary) (int, error) {
	var sb strings.Builder

	if !w.compact {
		w.writeHeader(&sb, result, summary)
	}
	sb.WriteString(Label(result))
	sb.WriteString("\n")
	w.writeRows(&sb, result)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the search information block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.Result, summary Summary) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                     CHEAT SEARCH\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Region:  %s\n", summary.Region)
	fmt.Fprintf(sb, "Range:   %s\n", summary.Range)
	fmt.Fprintf(sb, "Type:    %s\n", result.Type)
	fmt.Fprintf(sb, "Passes:  %d\n", summary.Passes)
	if len(summary.Steps) > 0 {
		fmt.Fprintf(sb, "Steps:   %s\n", strings.Join(summary.Steps, ", "))
	}
	if !summary.Generated.IsZero() {
		fmt.Fprintf(sb, "Date:    %s\n", summary.Generated.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
}

// writeRows writes one line per rendered row.
func (w *SimpleWriter) writeRows(sb *strings.Builder, result *model.Result) {
	if len(result.Rows) == 0 {
		return
	}
	fmt.Fprintf(sb, "%6s  %-8s  %-11s  %-10s  %s\n", "#", "Address", "Hexadecimal", "Decimal", "Float")
	for _, r := range result.Rows {
		fmt.Fprintf(sb, "%6d  %-8s  %-11s  %-10s  %s\n", r.Index, r.Address, r.Hex, r.Decimal, r.Float)
	}
}
