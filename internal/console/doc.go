// Package console provides the line-oriented operator interface for a scan
// session.
//
// The console reads one command per line, applies it to the session and
// prints the survivor label with the visible rows. A refresh scheduler
// re-renders the rows while memory changes underneath. Command handling and
// timed refreshes share one lock, so the session only ever sees one caller.
package console
