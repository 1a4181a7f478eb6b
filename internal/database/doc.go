// Package database provides SQLite-based storage for captured region images.
//
// A snapshot is a raw copy of one memory region at a moment in time, with its
// selector, base address and a SHA3-256 digest of the bytes. Stored snapshots
// can be replayed as a timeline so that a cheat search runs offline against
// the same sequence of memory states.
//
// Scan results are never stored: candidate sets live only in memory.
//
// The store uses modernc.org/sqlite, a CGO-free driver, with WAL journaling.
package database
