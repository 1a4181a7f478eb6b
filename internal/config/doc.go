// Package config provides configuration structures and utilities for cheatscan.
// It defines the defaults of a cheat search, the memory sources a search can
// read from, and report output preferences.
package config
