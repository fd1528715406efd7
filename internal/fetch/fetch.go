// Package fetch retrieves the remote catalog and per-puzzle grid markup.
package fetch

import (
	"context"
	"errors"
	"fmt"
)

// ErrContainerNotFound is returned by FetchGrid when the puzzle page has no
// grid container.
var ErrContainerNotFound = errors.New("Puzzle container not found")

// Content is the raw material fetched for one puzzle.
type Content struct {
	// Markup is the inner HTML of the grid container.
	Markup string

	// Snapshot is a PNG image of the grid, or nil when the fetcher cannot
	// produce one.
	Snapshot []byte
}

// Fetcher is the remote source of puzzles.
type Fetcher interface {
	// ListIdentifiers returns the catalog identifiers, ascending and unique.
	ListIdentifiers(ctx context.Context) ([]int, error)

	// FetchGrid returns the grid content for one identifier.
	FetchGrid(ctx context.Context, id int) (*Content, error)
}

// FetchError reports a transport or HTTP status failure.
type FetchError struct {
	ID         int  // Ignored when Catalog is set
	Catalog    bool // The request was for the catalog page
	StatusCode int  // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	target := fmt.Sprintf("puzzle %d", e.ID)
	if e.Catalog {
		target = "catalog"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsContainerNotFound returns true if err is or wraps ErrContainerNotFound.
func IsContainerNotFound(err error) bool {
	return errors.Is(err, ErrContainerNotFound)
}
