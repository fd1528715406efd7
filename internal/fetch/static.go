package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyluth/regent/internal/extract"
)

// StaticFetcher replays pages saved on disk:
//
//	<dir>/index.html       catalog page
//	<dir>/level/<id>.html  puzzle page
type StaticFetcher struct {
	dir string
}

// NewStaticFetcher returns a fetcher reading from dir.
func NewStaticFetcher(dir string) *StaticFetcher {
	return &StaticFetcher{dir: dir}
}

// ListIdentifiers parses level links from index.html.
func (f *StaticFetcher) ListIdentifiers(ctx context.Context) ([]int, error) {
	page, err := os.ReadFile(filepath.Join(f.dir, "index.html"))
	if err != nil {
		return nil, &FetchError{Catalog: true, Err: err}
	}
	ids, err := extract.Levels(string(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return ids, nil
}

// FetchGrid reads level/<id>.html and returns its grid container markup.
func (f *StaticFetcher) FetchGrid(ctx context.Context, id int) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	path := filepath.Join(f.dir, "level", strconv.Itoa(id)+".html")
	page, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FetchError{ID: id, StatusCode: 404, Err: err}
		}
		return nil, &FetchError{ID: id, Err: err}
	}

	inner, found, err := extract.Container(string(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse puzzle %d page: %w", id, err)
	}
	if !found {
		return nil, ErrContainerNotFound
	}
	return &Content{Markup: inner}, nil
}
