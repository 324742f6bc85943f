// Package cmd implements the init command for px CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/px/internal/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .px directory and default configuration",
	Long: `Initialize the .px directory with a default config.yaml in the current directory.

The config file describes the report: the SPARQL endpoint, the selector
condition, the grouping property and the tracked properties. Edit it before
running 'px run'.

Examples:
  px init          # Initialize in current directory
  px init --force  # Overwrite an existing configuration`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	existing := filepath.Join(cwd, config.ConfigDirName, config.ConfigFileName)
	if _, err := os.Stat(existing); err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, existing)
			fmt.Printf("Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(existing); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	written, err := config.SaveDefault(cwd)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	relPath, _ := filepath.Rel(cwd, written)
	fmt.Printf("Initialized px configuration at %s\n", relPath)
	fmt.Println("Edit the selector and tracked properties, then run 'px run'.")

	return nil
}
