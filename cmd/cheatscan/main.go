// Package main provides the entry point for the cheatscan CLI.
//
// cheatscan searches the memory of an emulated console for the address of
// a value, narrowing the candidates pass by pass while the program runs.
//
// Usage:
//
//	cheatscan session
//	cheatscan search --dump main=before.bin --dump main=after.bin "eq 100" "<"
//	cheatscan snapshot capture --retroarch
//
// See --help for all available options.
package main

// main is the entry point for cheatscan.
func main() {
	Execute()
}
