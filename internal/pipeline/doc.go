// Package pipeline runs a non-interactive cheat search as a sequence of steps.
//
// A search initializes a session on a region, then alternates between
// advancing the memory image and refining the candidate set, and finally
// decodes the survivors. Each stage is a Step that operates on a shared
// State, so the CLI can assemble a search from command-line arguments and
// report which steps ran.
package pipeline
