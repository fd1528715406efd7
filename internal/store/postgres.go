package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTable is the table holding stored puzzles.
const PostgresTable = "regent_puzzles"

const createTableSQL = `CREATE TABLE IF NOT EXISTS ` + PostgresTable + ` (
	id         integer PRIMARY KEY,
	matrix     jsonb NOT NULL,
	color_map  jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// PostgresBackend keeps one row per record.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the table when missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create %s: %w", PostgresTable, err)
	}
	return &PostgresBackend{pool: pool}, nil
}

// LoadAll selects every row.
func (b *PostgresBackend) LoadAll(ctx context.Context) (map[int]*puzzle.Record, error) {
	rows, err := b.pool.Query(ctx, `SELECT id, matrix, color_map FROM `+PostgresTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query puzzles: %w", err)
	}
	defer rows.Close()

	records := make(map[int]*puzzle.Record)
	for rows.Next() {
		var (
			id                   int
			matrixRaw, colorsRaw []byte
		)
		if err := rows.Scan(&id, &matrixRaw, &colorsRaw); err != nil {
			return nil, fmt.Errorf("failed to scan puzzle row: %w", err)
		}
		rec := &puzzle.Record{ID: id, Matrix: puzzle.Matrix{}, ColorMap: puzzle.ColorMap{}}
		if err := json.Unmarshal(matrixRaw, &rec.Matrix); err != nil {
			return nil, fmt.Errorf("failed to decode matrix of puzzle %d: %w", id, err)
		}
		if err := json.Unmarshal(colorsRaw, &rec.ColorMap); err != nil {
			return nil, fmt.Errorf("failed to decode color map of puzzle %d: %w", id, err)
		}
		records[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read puzzle rows: %w", err)
	}
	return records, nil
}

// SaveAll replaces the table contents inside one transaction.
func (b *PostgresBackend) SaveAll(ctx context.Context, records map[int]*puzzle.Record) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM `+PostgresTable); err != nil {
			return fmt.Errorf("failed to clear puzzles: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, id := range puzzle.SortedIDs(records) {
			rec := records[id]
			matrixJSON, err := json.Marshal(rec.Matrix)
			if err != nil {
				return fmt.Errorf("failed to encode matrix of puzzle %d: %w", id, err)
			}
			colorMap := rec.ColorMap
			if colorMap == nil {
				colorMap = puzzle.ColorMap{}
			}
			colorsJSON, err := json.Marshal(colorMap)
			if err != nil {
				return fmt.Errorf("failed to encode color map of puzzle %d: %w", id, err)
			}
			batch.Queue(
				`INSERT INTO `+PostgresTable+` (id, matrix, color_map, updated_at) VALUES ($1, $2, $3, now())`,
				id, string(matrixJSON), string(colorsJSON),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert puzzle: %w", err)
			}
		}
		return br.Close()
	})
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
