// Package puzzle provides the type definitions shared by every regent component:
// extracted cell records, normalized matrices, color maps, stored records and
// ledger entries.
package puzzle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CellRecord is a single grid square as extracted from puzzle markup.
// Row and Col are -1 when the source element carried no usable coordinate.
type CellRecord struct {
	Row     int      `json:"row"`     // Zero-based row, -1 if missing
	Col     int      `json:"col"`     // Zero-based column, -1 if missing
	Color   string   `json:"color"`   // Raw color token, e.g. "rgb(255, 123, 96)"
	Borders []string `json:"borders"` // Thick-border class tokens in class order
}

// State is the solving annotation carried by every matrix cell.
type State int

const (
	// StateBlocked marks a square that cannot hold a queen
	StateBlocked State = -1

	// StateEmpty is the initial state written by conversion
	StateEmpty State = 0

	// StateQueen marks a square holding a queen
	StateQueen State = 1
)

// Cell is one matrix entry: [colorIndex, state].
// The zero value is the "unassigned" sentinel.
type Cell [2]int

// Color returns the color index of the cell (0 when unassigned).
func (c Cell) Color() int { return c[0] }

// State returns the solving annotation of the cell.
func (c Cell) State() State { return State(c[1]) }

// Matrix is a rectangular grid of cells indexed [row][col].
type Matrix [][]Cell

// NewMatrix allocates a rows x cols matrix filled with unassigned cells.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for r := range m {
		m[r] = make([]Cell, cols)
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns (0 for an empty matrix).
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Size returns (rows, cols).
func (m Matrix) Size() (int, int) { return m.Rows(), m.Cols() }

// IsRectangular reports whether every row has the same length.
func (m Matrix) IsRectangular() bool {
	cols := m.Cols()
	for _, row := range m {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// ColorCount returns the number of distinct assigned color indices.
func (m Matrix) ColorCount() int {
	seen := make(map[int]struct{})
	for _, row := range m {
		for _, c := range row {
			if c.Color() != 0 {
				seen[c.Color()] = struct{}{}
			}
		}
	}
	return len(seen)
}

// MaxColor returns the largest color index in the matrix.
func (m Matrix) MaxColor() int {
	max := 0
	for _, row := range m {
		for _, c := range row {
			if c.Color() > max {
				max = c.Color()
			}
		}
	}
	return max
}

// ColorMap maps a raw color token to its per-puzzle color index.
// Indices are a bijection onto 1..N and are not stable across acquisitions.
type ColorMap map[string]int

// Validate checks that the map is a bijection onto 1..len(m).
func (cm ColorMap) Validate() error {
	n := len(cm)
	used := make([]bool, n+1)
	for token, idx := range cm {
		if idx < 1 || idx > n {
			return fmt.Errorf("color %q has index %d outside 1..%d", token, idx, n)
		}
		if used[idx] {
			return fmt.Errorf("color index %d assigned more than once", idx)
		}
		used[idx] = true
	}
	return nil
}

// Inverse returns index -> color token.
func (cm ColorMap) Inverse() map[int]string {
	inv := make(map[int]string, len(cm))
	for token, idx := range cm {
		inv[idx] = token
	}
	return inv
}

// Record is a converted puzzle keyed by its catalog identifier.
type Record struct {
	ID       int      `json:"id"`
	Matrix   Matrix   `json:"matrix"`
	ColorMap ColorMap `json:"color_map"`
}

// Validate performs structural validation on a record.
func (r *Record) Validate() error {
	if r.ID < 0 {
		return fmt.Errorf("invalid identifier: %d", r.ID)
	}
	if !r.Matrix.IsRectangular() {
		return fmt.Errorf("puzzle %d: matrix is not rectangular", r.ID)
	}
	if err := r.ColorMap.Validate(); err != nil {
		return fmt.Errorf("puzzle %d: %w", r.ID, err)
	}
	for i, row := range r.Matrix {
		for j, c := range row {
			if c.Color() < 0 || c.Color() > len(r.ColorMap) {
				return fmt.Errorf("puzzle %d: cell (%d,%d) has unknown color index %d", r.ID, i, j, c.Color())
			}
			if s := c.State(); s != StateBlocked && s != StateEmpty && s != StateQueen {
				return fmt.Errorf("puzzle %d: cell (%d,%d) has invalid state %d", r.ID, i, j, s)
			}
		}
	}
	return nil
}

// LedgerEntry describes one acquired identifier and where its artifacts live.
type LedgerEntry struct {
	ID             int    `json:"level"`
	ImagePath      string `json:"image_path"`
	StructuredPath string `json:"json_path"`
	GridSize       string `json:"grid_size"`
}

// GridSize formats a grid descriptor as "R by C". Zero rows yields "".
func GridSize(rows, cols int) string {
	if rows == 0 {
		return ""
	}
	return fmt.Sprintf("%d by %d", rows, cols)
}

// ParseGridSize parses an "R by C" descriptor. The empty string parses as (0, 0).
func ParseGridSize(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.Split(s, " by ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid grid size: %q", s)
	}
	rows, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid grid size rows: %q", s)
	}
	cols, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid grid size cols: %q", s)
	}
	return rows, cols, nil
}

// SortedIDs returns the keys of an identifier set in ascending order.
func SortedIDs[V any](set map[int]V) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
