// Package codec converts between typed values and the byte layout of the
// target's memory.
//
// The emulated targets are big-endian, so every value is stored most
// significant byte first. Because both operands of a comparison share that
// layout, ordering is decided by a plain lexicographic byte comparison and
// integers never need to be decoded to filter them.
//
// Known limitation: the same byte comparison is used for floats. It orders
// non-negative IEEE-754 values correctly, but negative floats order in
// reverse magnitude and after every positive value.
package codec
