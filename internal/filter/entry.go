// Package filter selects ledger entries for listing.
package filter

import (
	"path/filepath"

	"github.com/dyluth/regent/pkg/puzzle"
)

// Criteria defines filtering criteria for ledger entries.
// All filters are ANDed together - an entry must match ALL criteria to pass.
type Criteria struct {
	FromLevel int    // Lowest level to include, 0 = no filter
	ToLevel   int    // Highest level to include, 0 = no filter
	GridGlob  string // Glob pattern for the grid size, e.g. "8 by *", empty = no filter
	MinSize   int    // Smallest accepted grid side, 0 = no filter
}

// Matches returns true if the entry matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(e puzzle.LedgerEntry) bool {
	if c.FromLevel > 0 && e.ID < c.FromLevel {
		return false
	}
	if c.ToLevel > 0 && e.ID > c.ToLevel {
		return false
	}

	if c.GridGlob != "" {
		matched, err := filepath.Match(c.GridGlob, e.GridSize)
		if err != nil || !matched {
			return false
		}
	}

	if c.MinSize > 0 {
		rows, cols, err := puzzle.ParseGridSize(e.GridSize)
		if err != nil || rows < c.MinSize || cols < c.MinSize {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.FromLevel > 0 || c.ToLevel > 0 || c.GridGlob != "" || c.MinSize > 0
}

// Apply returns the entries matching c, in their original order.
func (c *Criteria) Apply(entries []puzzle.LedgerEntry) []puzzle.LedgerEntry {
	if !c.HasFilters() {
		return entries
	}
	out := make([]puzzle.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that the glob is well formed and the level range is ordered.
func (c *Criteria) Validate() error {
	if c.GridGlob != "" {
		if _, err := filepath.Match(c.GridGlob, ""); err != nil {
			return &InvalidError{Field: "grid", Err: err}
		}
	}
	if c.FromLevel < 0 {
		return &InvalidError{Field: "from", Err: errNegative}
	}
	if c.ToLevel < 0 {
		return &InvalidError{Field: "to", Err: errNegative}
	}
	if c.MinSize < 0 {
		return &InvalidError{Field: "min-size", Err: errNegative}
	}
	if c.FromLevel > 0 && c.ToLevel > 0 && c.FromLevel > c.ToLevel {
		return &InvalidError{Field: "from", Err: errRange}
	}
	return nil
}
