package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dyluth/regent/internal/display"
	"github.com/dyluth/regent/internal/printer"
	"github.com/dyluth/regent/internal/render"
	"github.com/dyluth/regent/internal/store"
	"github.com/spf13/cobra"
)

var (
	showState   bool
	showIndices bool
	showJSON    bool
	showSummary bool
	showPNG     string
	showCells   bool
)

var showCmd = &cobra.Command{
	Use:   "show LEVEL",
	Short: "Print a stored puzzle",
	Long: `Print a puzzle from the local store as a grid of color labels.

  --state    Append the cell state to each label: o empty, q queen, x blocked
  --indices  Add row and column numbers
  --json     Print the stored record as JSON instead
  --summary  Print grid size and color count above the grid
  --png      Also render the puzzle to a PNG file
  --cells    Print the raw cell records captured at download time`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showState, "state", false, "Show cell states next to color labels")
	showCmd.Flags().BoolVar(&showIndices, "indices", false, "Show row and column indices")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the record as JSON")
	showCmd.Flags().BoolVar(&showSummary, "summary", false, "Print grid size and color count")
	showCmd.Flags().StringVar(&showPNG, "png", "", "Render the puzzle to this PNG file")
	showCmd.Flags().BoolVar(&showCells, "cells", false, "Print the raw cell records for the level")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 {
		return printer.Error(
			fmt.Sprintf("invalid level '%s'", args[0]),
			"Levels are non-negative integers.",
			nil,
		)
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.openStore(runContext(cmd))
	if err != nil {
		return err
	}

	rec, err := st.Get(id)
	if err != nil {
		if store.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("level %d not found", id),
				"The level is not in the puzzle store.",
				[]string{fmt.Sprintf("Download it first:\n  regent download --levels %d", id)},
			)
		}
		return err
	}

	if showSummary && !showJSON {
		display.FormatRecordSummary(printer.Out, rec)
	}

	switch {
	case showCells:
		cells, err := s.artifacts().ReadStructured(id)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return printer.Error(
					fmt.Sprintf("no cell data for level %d", id),
					"The structured artifact for this level is missing.",
					[]string{fmt.Sprintf("Download it again:\n  regent download --levels %d", id)},
				)
			}
			return err
		}
		if err := display.FormatCells(printer.Out, cells); err != nil {
			return err
		}
	case showJSON:
		if err := display.FormatRecordJSON(printer.Out, rec); err != nil {
			return err
		}
	case showState:
		display.FormatMatrixState(printer.Out, rec.Matrix, showIndices)
	default:
		display.FormatMatrix(printer.Out, rec.Matrix, showIndices)
	}

	if showPNG == "" {
		return nil
	}
	data, err := render.NewPNGRenderer().RenderSnapshot(rec)
	if err != nil {
		return fmt.Errorf("failed to render level %d: %w", id, err)
	}
	if err := os.WriteFile(showPNG, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", showPNG, err)
	}
	printer.Success("Wrote %s\n", showPNG)
	return nil
}
