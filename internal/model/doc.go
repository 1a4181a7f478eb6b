// Package model defines the data structures shared by the scanning engine.
//
// This package contains the following main types:
//   - Region: a contiguous memory buffer exposed by the execution engine
//   - ValueType: the width and interpretation of the value being searched
//   - Candidate: an offset still considered a possible match
//   - Comparison: the operator and reference used by one refine pass
//   - Row and Result: decoded, display-ready candidates
//
// Addresses are 32-bit because the emulated targets are 32-bit machines.
// Offsets are always relative to Region.Base.
package model
