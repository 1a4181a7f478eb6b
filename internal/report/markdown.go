package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/cheatscan/internal/model"
)

// MarkdownWriter outputs results as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *model.Result, summary Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result, summary)
	w.writeAlert(md, result)
	w.writeRows(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the search information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.Result, summary Summary) {
	md.H1("Cheat Search")
	md.PlainText("")

	rows := [][]string{
		{"Region", "`" + summary.Region + "`"},
		{"Range", "`" + summary.Range + "`"},
		{"Type", result.Type},
		{"Passes", strconv.Itoa(summary.Passes)},
		{"Matches", Label(result)},
	}
	if !summary.Generated.IsZero() {
		rows = append(rows, []string{"Date", summary.Generated.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAlert notes capped or empty results.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.Result) {
	switch {
	case result.Empty():
		md.Tip("No candidate survived. Start a new search.")
	case result.Capped():
		md.Warningf("Only the first %d of %d matches are listed. Refine further to narrow the set.",
			result.Displayable, result.Survivors)
	default:
		return
	}
	md.PlainText("")
}

// writeRows writes the result table.
func (w *MarkdownWriter) writeRows(md *markdown.Markdown, result *model.Result) {
	if len(result.Rows) == 0 {
		return
	}

	md.H2("Matches")
	md.PlainText("")

	rows := make([][]string, len(result.Rows))
	for i, r := range result.Rows {
		float := r.Float
		if float == "" {
			float = "-"
		}
		rows[i] = []string{"`" + r.Address + "`", r.Hex, r.Decimal, float}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Address", "Hexadecimal", "Decimal", "Float"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [cheatscan](https://github.com/nao1215/cheatscan)*")
}
