// Package puzzle provides the shared data model for regent.
//
// # Overview
//
// A puzzle is acquired from the remote catalog as markup, extracted into
// CellRecords, then converted into a Matrix plus a ColorMap. The pair, keyed by
// the catalog identifier, is a Record. Every successful acquisition also yields
// a LedgerEntry describing where the artifacts for that identifier live.
//
// # Matrix Cells
//
// Each cell is a [colorIndex, state] pair. colorIndex 0 means no extracted
// square covered the position; states are -1 (blocked), 0 (empty), 1 (queen).
// Conversion only ever writes state 0.
//
// # Color Maps
//
// Color indices form a bijection onto 1..N where N is the number of distinct
// color tokens in that puzzle. The assignment is randomized per acquisition:
// re-acquiring the same identifier may relabel colors, but the grouping of
// cells by color never changes.
//
// # Usage Example
//
//	rec := &puzzle.Record{
//		ID:       42,
//		Matrix:   puzzle.NewMatrix(2, 2),
//		ColorMap: puzzle.ColorMap{"rgb(1, 2, 3)": 1},
//	}
//	if err := rec.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	key := puzzle.RecordKey("default", rec.ID)
//	// key = "regent:default:puzzle:42"
//
// # Redis Schema
//
// Records:  regent:{namespace}:puzzle:{id}   (hash: id, rows, cols, matrix, color_map)
// Index:    regent:{namespace}:puzzles       (set of identifiers)
package puzzle
