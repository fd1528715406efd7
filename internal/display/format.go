// Package display renders puzzles, ledger rows and catalogs for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/olekukonko/tablewriter"
)

var stateLetters = map[puzzle.State]string{
	puzzle.StateEmpty:   "o",
	puzzle.StateQueen:   "q",
	puzzle.StateBlocked: "x",
}

// FormatMatrix writes the color labels of m, right-aligned to the widest
// label. With showIndices a column header and row numbers are added.
//
//	1 1 2 2
//	1 3 2 3
func FormatMatrix(w io.Writer, m puzzle.Matrix, showIndices bool) {
	width := len(strconv.Itoa(m.MaxColor()))
	formatCells(w, m, showIndices, width, func(c puzzle.Cell) string {
		return strconv.Itoa(c.Color())
	})
}

// FormatMatrixState writes each cell as its label followed by a state letter:
// o empty, q queen, x blocked.
//
//	1o 1o 2q 2x
func FormatMatrixState(w io.Writer, m puzzle.Matrix, showIndices bool) {
	width := len(strconv.Itoa(m.MaxColor())) + 1
	formatCells(w, m, showIndices, width, func(c puzzle.Cell) string {
		letter, ok := stateLetters[c.State()]
		if !ok {
			letter = "?"
		}
		return strconv.Itoa(c.Color()) + letter
	})
}

func formatCells(w io.Writer, m puzzle.Matrix, showIndices bool, width int, cell func(puzzle.Cell) string) {
	if m.Rows() == 0 {
		fmt.Fprintln(w, "Empty matrix")
		return
	}

	if showIndices {
		cols := make([]string, m.Cols())
		for c := range cols {
			cols[c] = fmt.Sprintf("%*d", width, c)
		}
		header := strings.Join(cols, " ")
		fmt.Fprintf(w, "   %s\n", header)
		fmt.Fprintf(w, "   %s\n", strings.Repeat("-", len(header)))
	}

	for i, row := range m {
		values := make([]string, len(row))
		for j, c := range row {
			values[j] = fmt.Sprintf("%*s", width, cell(c))
		}
		if showIndices {
			fmt.Fprintf(w, "%2d| %s\n", i, strings.Join(values, " "))
		} else {
			fmt.Fprintln(w, strings.Join(values, " "))
		}
	}
}

// MatrixString returns the label grid as a string without a trailing newline.
func MatrixString(m puzzle.Matrix) string {
	var b strings.Builder
	FormatMatrix(&b, m, false)
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatLedgerTable writes ledger rows as a table and returns the number of
// rows written.
func FormatLedgerTable(w io.Writer, entries []puzzle.LedgerEntry) (int, error) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No puzzles recorded in the ledger")
		return 0, nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("LEVEL", "GRID", "IMAGE", "JSON")
	for _, e := range entries {
		grid := e.GridSize
		if grid == "" {
			grid = "-"
		}
		if err := table.Append([]string{strconv.Itoa(e.ID), grid, e.ImagePath, e.StructuredPath}); err != nil {
			return 0, fmt.Errorf("failed to add ledger row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render ledger table: %w", err)
	}

	countMsg := "puzzle"
	if len(entries) != 1 {
		countMsg = "puzzles"
	}
	fmt.Fprintf(w, "%d %s recorded\n", len(entries), countMsg)

	return len(entries), nil
}

// FormatLedgerJSONL writes ledger rows as line-delimited JSON.
func FormatLedgerJSONL(w io.Writer, entries []puzzle.LedgerEntry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger entry to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatRecordJSON writes a stored puzzle as pretty-printed JSON.
func FormatRecordJSON(w io.Writer, rec *puzzle.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal puzzle to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatRecordSummary writes a one-line description of a stored puzzle.
func FormatRecordSummary(w io.Writer, rec *puzzle.Record) {
	size := puzzle.GridSize(rec.Matrix.Size())
	if size == "" {
		size = "empty grid"
	}
	fmt.Fprintf(w, "Level %d: %s, %d colors\n", rec.ID, size, rec.Matrix.ColorCount())
}

// FormatCells writes the raw cell records captured from a puzzle page as a
// table.
func FormatCells(w io.Writer, cells []puzzle.CellRecord) error {
	if len(cells) == 0 {
		fmt.Fprintln(w, "No cells recorded")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ROW", "COL", "COLOR", "BORDERS")
	for _, c := range cells {
		borders := strings.Join(c.Borders, " ")
		if borders == "" {
			borders = "-"
		}
		if err := table.Append([]string{strconv.Itoa(c.Row), strconv.Itoa(c.Col), c.Color, borders}); err != nil {
			return fmt.Errorf("failed to add cell row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render cell table: %w", err)
	}
	fmt.Fprintf(w, "%d cells\n", len(cells))
	return nil
}

// FormatCatalog lists remote identifiers and marks the ones absent locally.
func FormatCatalog(w io.Writer, remote []int, local map[int]struct{}) {
	if len(remote) == 0 {
		fmt.Fprintln(w, "No levels found in the remote catalog")
		return
	}

	var missing []string
	for _, id := range remote {
		if _, ok := local[id]; !ok {
			missing = append(missing, strconv.Itoa(id))
		}
	}

	fmt.Fprintf(w, "Remote catalog: %d levels (%d-%d)\n", len(remote), remote[0], remote[len(remote)-1])
	fmt.Fprintf(w, "Downloaded:     %d\n", len(remote)-len(missing))
	if len(missing) == 0 {
		fmt.Fprintln(w, "Missing:        none")
		return
	}
	fmt.Fprintf(w, "Missing:        %d [%s]\n", len(missing), strings.Join(missing, ", "))
}
