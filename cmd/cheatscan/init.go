package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/cheatscan/internal/config"
)

//go:embed templates/cheatscan.yaml
var configTemplate embed.FS

// templatePath is the embedded configuration template.
const templatePath = "templates/cheatscan.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new cheatscan configuration file",
		Long: `Initialize creates a new .cheatscan configuration file in the current directory.

The generated file documents:
- Dump files served for each memory region
- The RetroArch network-command endpoint and mirrored regions
- Search defaults such as value type, address range and refresh cadence

Examples:
  # Create .cheatscan in current directory
  cheatscan init

  # Create config file at a specific path
  cheatscan init -o myconfig.yaml

  # Force overwrite existing file
  cheatscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Memory dump files per region")
	fmt.Fprintln(out, "  - The RetroArch endpoint")
	fmt.Fprintln(out, "  - Search defaults")

	return nil
}
