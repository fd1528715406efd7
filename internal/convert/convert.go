// Package convert builds normalized puzzle matrices from extracted cells.
package convert

import (
	"errors"
	"fmt"

	"github.com/dyluth/regent/pkg/puzzle"
)

// Result is the converted body of a puzzle record.
type Result struct {
	Matrix   puzzle.Matrix
	ColorMap puzzle.ColorMap
}

// Converter turns cell records into a matrix and color map.
type Converter struct {
	labels LabelAssigner
}

// New creates a Converter. A nil assigner falls back to random labels.
func New(labels LabelAssigner) *Converter {
	if labels == nil {
		labels = NewRandomLabels()
	}
	return &Converter{labels: labels}
}

// Convert builds a (maxRow+1) x (maxCol+1) matrix. Positions not covered by a
// cell stay [0, 0]; when two cells share a position the later one wins.
// An empty input yields a 0x0 matrix and an empty color map.
func (c *Converter) Convert(cells []puzzle.CellRecord) (*Result, error) {
	if len(cells) == 0 {
		return &Result{Matrix: puzzle.NewMatrix(0, 0), ColorMap: puzzle.ColorMap{}}, nil
	}

	maxRow, maxCol := -1, -1
	var distinct []string
	seen := make(map[string]struct{})
	for i, cell := range cells {
		if cell.Row < 0 || cell.Col < 0 {
			return nil, &ConversionError{Index: i, Row: cell.Row, Col: cell.Col}
		}
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
		if cell.Col > maxCol {
			maxCol = cell.Col
		}
		if _, ok := seen[cell.Color]; !ok {
			seen[cell.Color] = struct{}{}
			distinct = append(distinct, cell.Color)
		}
	}

	colorMap := c.labels.Assign(distinct)
	if err := colorMap.Validate(); err != nil {
		return nil, fmt.Errorf("label assigner produced an invalid color map: %w", err)
	}

	matrix := puzzle.NewMatrix(maxRow+1, maxCol+1)
	for _, cell := range cells {
		matrix[cell.Row][cell.Col] = puzzle.Cell{colorMap[cell.Color], int(puzzle.StateEmpty)}
	}

	return &Result{Matrix: matrix, ColorMap: colorMap}, nil
}

// GridSize returns "{maxRow+1} by {maxCol+1}" for the cells, or "" when there
// are none.
func GridSize(cells []puzzle.CellRecord) string {
	if len(cells) == 0 {
		return ""
	}
	maxRow, maxCol := cells[0].Row, cells[0].Col
	for _, cell := range cells[1:] {
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
		if cell.Col > maxCol {
			maxCol = cell.Col
		}
	}
	return puzzle.GridSize(maxRow+1, maxCol+1)
}

// ConversionError reports a cell whose coordinates cannot index a matrix.
type ConversionError struct {
	Index int // Position of the offending cell in the input
	Row   int
	Col   int
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cell %d has invalid coordinates (row=%d, col=%d)", e.Index, e.Row, e.Col)
}

// IsConversionError returns true if err is or wraps a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
