// Package store holds the keyed collection of acquired puzzles and persists it
// through a pluggable backend.
//
// A Store is loaded in full when opened, merged in memory during a run and
// written back once with Flush. Backends only ever see full mappings.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dyluth/regent/pkg/puzzle"
)

// ErrNotFound is returned by Get for identifiers that are not stored.
var ErrNotFound = errors.New("puzzle not found")

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Backend persists the full identifier-to-record mapping.
type Backend interface {
	// LoadAll returns every stored record. An empty store yields an empty map.
	LoadAll(ctx context.Context) (map[int]*puzzle.Record, error)

	// SaveAll replaces the stored mapping with records.
	SaveAll(ctx context.Context, records map[int]*puzzle.Record) error

	Close() error
}

// Store is an in-memory view of a Backend with dirty tracking.
// It is safe for concurrent use.
type Store struct {
	backend Backend

	mu      sync.RWMutex
	records map[int]*puzzle.Record
	dirty   bool
}

// Open loads the full mapping from backend.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	records, err := backend.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzle store: %w", err)
	}
	if records == nil {
		records = make(map[int]*puzzle.Record)
	}
	for id, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("failed to load puzzle store: puzzle %d has no data", id)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("failed to load puzzle store: %w", err)
		}
	}
	return &Store{backend: backend, records: records}, nil
}

// Merge overwrites stored records by identifier. Records not in the argument
// are kept.
func (s *Store) Merge(records map[int]*puzzle.Record) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range records {
		s.records[id] = rec
	}
	s.dirty = true
}

// Put stores a single record.
func (s *Store) Put(rec *puzzle.Record) {
	s.Merge(map[int]*puzzle.Record{rec.ID: rec})
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id int) (*puzzle.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("puzzle %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

// IDs returns the stored identifiers in ascending order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return puzzle.SortedIDs(s.records)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dirty reports whether there are unflushed changes.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush writes the full mapping to the backend when there are unflushed
// changes. It reports whether a write happened.
func (s *Store) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return false, nil
	}

	snapshot := make(map[int]*puzzle.Record, len(s.records))
	for id, rec := range s.records {
		snapshot[id] = rec
	}
	if err := s.backend.SaveAll(ctx, snapshot); err != nil {
		return false, fmt.Errorf("failed to save puzzle store: %w", err)
	}
	s.dirty = false
	return true, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
