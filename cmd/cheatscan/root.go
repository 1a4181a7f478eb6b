package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for cheatscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cheatscan",
		Short: "Memory search engine for finding cheat addresses",
		Long: `cheatscan finds the memory address of a game value (lives, health, money)
by capturing every candidate address of a region and narrowing the set
with comparisons while the game runs.

Memory is read from dump files, from snapshots stored in the local
database, or live from a RetroArch core through its network commands.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewSessionCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
