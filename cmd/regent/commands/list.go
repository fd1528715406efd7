package commands

import (
	"fmt"

	"github.com/dyluth/regent/internal/display"
	"github.com/dyluth/regent/internal/filter"
	"github.com/dyluth/regent/internal/printer"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listFrom         int
	listTo           int
	listGrid         string
	listMinSize      int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List puzzles recorded in the ledger",
	Long: `List the puzzles recorded in the ledger.

Filters (ANDed together):
  --from, --to  Level range, inclusive
  --grid        Grid size glob, e.g. "8 by *"
  --min-size    Smallest grid side

Output Formats:
  table - Human-readable table with level, grid size and artifact paths
  jsonl - Line-delimited JSON, one ledger row per line

Examples:
  # Levels with an 8 by 8 grid
  regent list --output=jsonl | jq 'select(.grid_size=="8 by 8") | .level'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format: table or jsonl")
	listCmd.Flags().IntVar(&listFrom, "from", 0, "Lowest level to list")
	listCmd.Flags().IntVar(&listTo, "to", 0, "Highest level to list")
	listCmd.Flags().StringVar(&listGrid, "grid", "", "Grid size glob pattern")
	listCmd.Flags().IntVar(&listMinSize, "min-size", 0, "Smallest grid side to list")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listOutputFormat != "table" && listOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: table, jsonl"},
		)
	}

	criteria := &filter.Criteria{FromLevel: listFrom, ToLevel: listTo, GridGlob: listGrid, MinSize: listMinSize}
	if err := criteria.Validate(); err != nil {
		return printer.Error("invalid filter", err.Error(), []string{"Example:\n  regent list --from 10 --to 20 --grid '8 by *'"})
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	led := s.ledger()
	entries, err := led.Entries()
	if err != nil {
		return printer.ErrorWithContext("failed to read ledger", err.Error(), map[string]string{"Ledger": led.Path()}, nil)
	}
	entries = criteria.Apply(entries)

	if listOutputFormat == "jsonl" {
		return display.FormatLedgerJSONL(printer.Out, entries)
	}
	_, err = display.FormatLedgerTable(printer.Out, entries)
	return err
}
