// Package ledger reads and writes the semicolon-separated index of acquired
// puzzles.
package ledger

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dyluth/regent/pkg/puzzle"
)

// FileName is the default ledger file name inside the base directory.
const FileName = "index.ssv"

// Header is the fixed column layout of the ledger.
var Header = []string{"level", "image_path", "json_path", "grid_size"}

// Policy selects how staged entries are combined with the existing ledger.
type Policy string

const (
	// PolicyMerge keeps existing rows and replaces rows for re-acquired identifiers
	PolicyMerge Policy = "merge"

	// PolicyReplace rewrites the ledger with the current run's rows only.
	// Earlier rows are lost; kept for compatibility with the legacy behavior.
	PolicyReplace Policy = "replace"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyMerge, "":
		return PolicyMerge, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", fmt.Errorf("invalid ledger policy: %s (must be 'merge' or 'replace')", s)
}

// Store is a ledger bound to a file path.
type Store struct {
	path string
}

// New returns a Store for the given ledger file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the ledger file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the set of identifiers recorded in the ledger.
// A missing ledger yields an empty set.
func (s *Store) Load() (map[int]struct{}, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	ids := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

// Entries returns every ledger row in file order.
// A missing ledger yields no entries and no error.
func (s *Store) Entries() ([]puzzle.LedgerEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []puzzle.LedgerEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses ledger content. Columns are located by header name so extra
// columns are tolerated; the level column is required.
func Read(r io.Reader) ([]puzzle.LedgerEntry, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []puzzle.LedgerEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	levelIdx, ok := cols["level"]
	if !ok {
		return nil, fmt.Errorf("ledger header has no 'level' column")
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	entries := []puzzle.LedgerEntry{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger line %d: %w", line, err)
		}
		if levelIdx >= len(row) || strings.TrimSpace(row[levelIdx]) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[levelIdx]))
		if err != nil {
			return nil, fmt.Errorf("ledger line %d: invalid level %q", line, row[levelIdx])
		}
		entries = append(entries, puzzle.LedgerEntry{
			ID:             id,
			ImagePath:      field(row, "image_path"),
			StructuredPath: field(row, "json_path"),
			GridSize:       field(row, "grid_size"),
		})
	}

	return entries, nil
}

// Write serializes entries with the ledger header.
func Write(w io.Writer, entries []puzzle.LedgerEntry) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, e := range entries {
		rec := []string{strconv.Itoa(e.ID), e.ImagePath, e.StructuredPath, e.GridSize}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write ledger row for %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rewrite replaces the ledger file with exactly the given entries.
// The file is written to a temporary sibling and renamed into place.
func (s *Store) Rewrite(entries []puzzle.LedgerEntry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.ssv")
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, entries); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set ledger permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// Commit records the entries staged by a run. Nothing is written when no
// entries were staged.
func (s *Store) Commit(staged []puzzle.LedgerEntry, policy Policy) error {
	if len(staged) == 0 {
		return nil
	}

	switch policy {
	case PolicyReplace:
		return s.Rewrite(Merge(nil, staged))
	case PolicyMerge, "":
		existing, err := s.Entries()
		if err != nil {
			return err
		}
		return s.Rewrite(Merge(existing, staged))
	default:
		return fmt.Errorf("invalid ledger policy: %s", policy)
	}
}

// Merge combines existing and staged entries by identifier, staged entries
// winning, and returns them sorted ascending by identifier.
func Merge(existing, staged []puzzle.LedgerEntry) []puzzle.LedgerEntry {
	byID := make(map[int]puzzle.LedgerEntry, len(existing)+len(staged))
	for _, e := range existing {
		byID[e.ID] = e
	}
	for _, e := range staged {
		byID[e.ID] = e
	}

	merged := make([]puzzle.LedgerEntry, 0, len(byID))
	for _, e := range byID {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}
