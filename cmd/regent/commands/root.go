package commands

import (
	"fmt"

	"github.com/dyluth/regent/internal/config"
	"github.com/dyluth/regent/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "regent",
	Short: "regent - Queens puzzle catalog downloader",
	Long: `regent downloads colored-region "queens" puzzles from a remote catalog,
converts each grid into a color-indexed matrix and keeps a local puzzle
store plus a ledger of everything acquired so far.

Re-running with --missing picks up only the levels not yet in the ledger.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil && !printer.IsReported(err) {
		printer.Fatal(err)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", config.DefaultPath, "Path to regent.yml")
}

// loadConfig reads --config, falling back to defaults when the file is absent.
func loadConfig() (cfg *config.Config, found bool, err error) {
	cfg, found, err = config.LoadOrDefault(configPath)
	if err != nil {
		return nil, found, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": configPath},
			[]string{"Fix the file, or regenerate it:\n  regent init --force"},
		)
	}
	return cfg, found, nil
}
