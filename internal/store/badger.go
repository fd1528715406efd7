package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dyluth/regent/pkg/puzzle"
)

// BadgerDirName is the default database directory inside the base directory.
const BadgerDirName = "puzzles.db"

const badgerKeyPrefix = "puzzle:"

// BadgerConfig holds configuration for the embedded database.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// MemTableSize overrides Badger's memtable size in bytes. It also bounds
	// how much a single transaction may write. Zero keeps the default.
	MemTableSize int64

	// Logger receives Badger's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// BadgerBackend stores one JSON value per identifier under puzzle:<id>.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the embedded database.
func OpenBadger(cfg BadgerConfig) (*BadgerBackend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.MemTableSize > 0 {
		// Badger refuses a value threshold above its 15% batch limit.
		opts = opts.WithMemTableSize(cfg.MemTableSize).
			WithValueThreshold(min(opts.ValueThreshold, cfg.MemTableSize*15/100))
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func badgerKey(id int) []byte {
	return []byte(badgerKeyPrefix + strconv.Itoa(id))
}

func parseBadgerKey(key []byte) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(string(key), badgerKeyPrefix))
	if err != nil {
		return 0, fmt.Errorf("invalid puzzle key %q", key)
	}
	return id, nil
}

// LoadAll iterates the puzzle: prefix.
func (b *BadgerBackend) LoadAll(ctx context.Context) (map[int]*puzzle.Record, error) {
	records := make(map[int]*puzzle.Record)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id, err := parseBadgerKey(item.Key())
			if err != nil {
				return err
			}
			var rec puzzle.Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode puzzle %d: %w", id, err)
			}
			rec.ID = id
			if rec.ColorMap == nil {
				rec.ColorMap = puzzle.ColorMap{}
			}
			records[id] = &rec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzles from badger: %w", err)
	}
	return records, nil
}

// SaveAll writes every record and deletes keys for identifiers no longer
// present inside a single transaction. A mapping too large for one
// transaction fails with badger.ErrTxnTooBig and leaves the stored mapping
// untouched.
func (b *BadgerBackend) SaveAll(ctx context.Context, records map[int]*puzzle.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		existing, err := keysIn(txn)
		if err != nil {
			return err
		}

		for id, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode puzzle %d: %w", id, err)
			}
			if err := txn.Set(badgerKey(id), val); err != nil {
				return fmt.Errorf("stage puzzle %d: %w", id, err)
			}
		}
		for _, id := range existing {
			if _, ok := records[id]; ok {
				continue
			}
			if err := txn.Delete(badgerKey(id)); err != nil {
				return fmt.Errorf("stage delete of puzzle %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write puzzles to badger: %w", err)
	}
	return nil
}

// keysIn lists stored identifiers. The iterator is closed before returning so
// the caller may write through the same transaction.
func keysIn(txn *badger.Txn) ([]int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(badgerKeyPrefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []int
	for it.Rewind(); it.Valid(); it.Next() {
		id, err := parseBadgerKey(it.Item().Key())
		if err != nil {
			return nil, fmt.Errorf("failed to list badger keys: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
