package commands

import (
	"github.com/dyluth/regent/internal/display"
	"github.com/dyluth/regent/internal/printer"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the remote catalog and what is missing locally",
	Long: `Fetch the remote catalog and compare it with the local ledger.

Prints the number of levels offered, how many are already recorded in the
ledger and the identifiers 'regent download --missing' would fetch.`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fetcher, err := s.fetcher()
	if err != nil {
		return err
	}

	remote, err := s.catalog(runContext(cmd), fetcher)
	if err != nil {
		return err
	}

	led := s.ledger()
	known, err := led.Load()
	if err != nil {
		return printer.ErrorWithContext("failed to read ledger", err.Error(), map[string]string{"Ledger": led.Path()}, nil)
	}

	display.FormatCatalog(printer.Out, remote, known)
	return nil
}
