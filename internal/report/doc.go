// Package report renders decoded scan results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: aligned text columns for terminal display
//   - MarkdownWriter: GitHub Flavored Markdown tables
//   - JSONWriter: structured JSON output for tool integration
//
// Every writer prints the survivor label, which always reports the true
// number of candidates even when only the first rows are rendered.
package report
