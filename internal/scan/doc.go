// Package scan implements the cheat-search session.
//
// A Session owns a candidate set built by Initialize over a memory region
// and narrowed by successive Refine passes. Decode renders candidates for
// display without changing them.
//
// Every operation that reads the region buffer runs as a single unit on the
// execution engine via Executor.RunSync, so the emulated program cannot
// write the buffer while candidates are being captured or compared.
//
// A Session is single-owner: callers must not invoke its methods
// concurrently.
//
// # Lifecycle
//
//	Uninitialized --Initialize--> Initialized --Refine--> Refined --Refine--> Refined
//	      ^                                                                     |
//	      +-------------------------------Reset---------------------------------+
//
// Initialize is valid from any state and discards the previous candidate set.
package scan
