package commands

import (
	"fmt"

	"github.com/dyluth/regent/internal/printer"
	"github.com/dyluth/regent/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new regent project",
	Long: `Initialize a new regent project in the current directory.

Creates:
  • regent.yml - Project configuration file
  • levels/raw, levels/images, levels/structured - Artifact directories

Use --force to overwrite an existing regent.yml. Downloaded puzzles and the
ledger are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (overwrites existing regent.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return err
		}
	}

	result, err := scaffold.Initialize(initDir, forceInit)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(printer.Out, result)
	return nil
}

// initDir is where init writes. Replaced in tests.
var initDir = "."
