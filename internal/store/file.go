package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyluth/regent/pkg/puzzle"
)

// FileName is the default JSON store file inside the base directory.
const FileName = "puzzles.json"

// fileEntry is the on-disk value for one identifier.
type fileEntry struct {
	Matrix   puzzle.Matrix   `json:"matrix"`
	ColorMap puzzle.ColorMap `json:"color_map"`
}

// FileBackend keeps the mapping in a single JSON document keyed by the
// decimal identifier.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the JSON document path.
func (b *FileBackend) Path() string {
	return b.path
}

// LoadAll reads the document. A missing file yields an empty map.
func (b *FileBackend) LoadAll(ctx context.Context) (map[int]*puzzle.Record, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[int]*puzzle.Record), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}

	var raw map[string]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", b.path, err)
	}

	records := make(map[int]*puzzle.Record, len(raw))
	for key, e := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid puzzle key %q in %s", key, b.path)
		}
		if e.ColorMap == nil {
			e.ColorMap = puzzle.ColorMap{}
		}
		if e.Matrix == nil {
			e.Matrix = puzzle.Matrix{}
		}
		records[id] = &puzzle.Record{ID: id, Matrix: e.Matrix, ColorMap: e.ColorMap}
	}
	return records, nil
}

// SaveAll writes the document to a temporary sibling and renames it into place.
func (b *FileBackend) SaveAll(ctx context.Context, records map[int]*puzzle.Record) error {
	raw := make(map[string]fileEntry, len(records))
	for id, rec := range records {
		raw[strconv.Itoa(id)] = fileEntry{Matrix: rec.Matrix, ColorMap: rec.ColorMap}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode puzzle store: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".puzzles-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set store file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error {
	return nil
}
