// Package artifacts writes the per-puzzle files produced by a download run.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/regent/pkg/puzzle"
)

// Layout places artifacts under a base directory:
//
//	<base>/raw/puzzle<id>.html
//	<base>/images/puzzle<id>.png
//	<base>/structured/puzzle<id>.json
type Layout struct {
	Base string
}

// New returns a Layout rooted at base.
func New(base string) *Layout {
	return &Layout{Base: base}
}

func (l *Layout) RawDir() string        { return filepath.Join(l.Base, "raw") }
func (l *Layout) ImageDir() string      { return filepath.Join(l.Base, "images") }
func (l *Layout) StructuredDir() string { return filepath.Join(l.Base, "structured") }

// RawPath returns the markup file path for id.
func (l *Layout) RawPath(id int) string {
	return filepath.Join(l.RawDir(), fmt.Sprintf("puzzle%d.html", id))
}

// ImagePath returns the snapshot file path for id.
func (l *Layout) ImagePath(id int) string {
	return filepath.Join(l.ImageDir(), fmt.Sprintf("puzzle%d.png", id))
}

// StructuredPath returns the cell data file path for id.
func (l *Layout) StructuredPath(id int) string {
	return filepath.Join(l.StructuredDir(), fmt.Sprintf("puzzle%d.json", id))
}

// Ensure creates the artifact directories.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.RawDir(), l.ImageDir(), l.StructuredDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// WriteRaw saves grid markup and returns its path.
func (l *Layout) WriteRaw(id int, markup string) (string, error) {
	path := l.RawPath(id)
	if err := os.WriteFile(path, []byte(markup), 0644); err != nil {
		return "", fmt.Errorf("failed to write markup for puzzle %d: %w", id, err)
	}
	return path, nil
}

// WriteSnapshot saves a PNG image and returns its path.
func (l *Layout) WriteSnapshot(id int, image []byte) (string, error) {
	path := l.ImagePath(id)
	if err := os.WriteFile(path, image, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot for puzzle %d: %w", id, err)
	}
	return path, nil
}

// WriteStructured saves cell records as indented JSON and returns its path.
// Non-ASCII characters are written as-is.
func (l *Layout) WriteStructured(id int, cells []puzzle.CellRecord) (string, error) {
	if cells == nil {
		cells = []puzzle.CellRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cells); err != nil {
		return "", fmt.Errorf("failed to encode cells for puzzle %d: %w", id, err)
	}

	path := l.StructuredPath(id)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write cells for puzzle %d: %w", id, err)
	}
	return path, nil
}

// ReadStructured loads cell records written by WriteStructured.
func (l *Layout) ReadStructured(id int) ([]puzzle.CellRecord, error) {
	data, err := os.ReadFile(l.StructuredPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read cells for puzzle %d: %w", id, err)
	}
	var cells []puzzle.CellRecord
	if err := json.Unmarshal(data, &cells); err != nil {
		return nil, fmt.Errorf("failed to parse cells for puzzle %d: %w", id, err)
	}
	return cells, nil
}
