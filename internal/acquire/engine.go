// Package acquire runs a download over a work set: each identifier is
// fetched, converted and staged in isolation, then the store and ledger are
// written once at the end of the run.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dyluth/regent/internal/artifacts"
	"github.com/dyluth/regent/internal/convert"
	"github.com/dyluth/regent/internal/extract"
	"github.com/dyluth/regent/internal/fetch"
	"github.com/dyluth/regent/internal/ledger"
	"github.com/dyluth/regent/internal/metrics"
	"github.com/dyluth/regent/internal/render"
	"github.com/dyluth/regent/internal/store"
	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/google/uuid"
)

// ReasonCancelled is the failure reason for identifiers skipped after the run
// context was cancelled.
const ReasonCancelled = "run cancelled"

// Options configures run policy.
type Options struct {
	LedgerPolicy ledger.Policy
}

// Deps are the collaborators of an Engine. Metrics and Logger may be nil.
type Deps struct {
	Fetcher   fetch.Fetcher
	Renderer  render.Renderer
	Converter *convert.Converter
	Store     *store.Store
	Ledger    *ledger.Store
	Artifacts *artifacts.Layout
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Engine processes work sets sequentially.
type Engine struct {
	opts Options
	deps Deps
	log  *slog.Logger
}

// New creates an Engine.
func New(opts Options, deps Deps) (*Engine, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Renderer == nil:
		return nil, errors.New("renderer is required")
	case deps.Store == nil:
		return nil, errors.New("puzzle store is required")
	case deps.Ledger == nil:
		return nil, errors.New("ledger is required")
	case deps.Artifacts == nil:
		return nil, errors.New("artifact layout is required")
	}
	if deps.Converter == nil {
		deps.Converter = convert.New(nil)
	}
	if opts.LedgerPolicy == "" {
		opts.LedgerPolicy = ledger.PolicyMerge
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{opts: opts, deps: deps, log: logger.With("component", "acquire")}, nil
}

// staged is the result of one successful identifier.
type staged struct {
	record *puzzle.Record
	entry  puzzle.LedgerEntry
}

// Run processes workSet in order. Per-identifier failures are recorded in the
// summary and never stop the run. After the loop the store is flushed and the
// ledger committed once; a failure there is returned as a *PersistenceError
// together with the summary.
//
// Cancellation is checked between identifiers: the remaining identifiers are
// recorded as failures and whatever was staged is still persisted.
func (e *Engine) Run(ctx context.Context, workSet []int) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Successes: []int{},
		Failures:  []Failure{},
		Started:   time.Now(),
	}
	log := e.log.With("run_id", summary.RunID)

	if len(workSet) > 0 {
		if err := e.deps.Artifacts.Ensure(); err != nil {
			summary.Finished = time.Now()
			return summary, &PersistenceError{Op: "prepare artifact directories", Err: err}
		}
	}

	log.Info("run started", "identifiers", len(workSet), "ledger_policy", string(e.opts.LedgerPolicy))

	records := make(map[int]*puzzle.Record)
	var entries []puzzle.LedgerEntry

	for i, id := range workSet {
		if err := ctx.Err(); err != nil {
			for _, skipped := range workSet[i:] {
				summary.Failures = append(summary.Failures, Failure{ID: skipped, Reason: ReasonCancelled})
				e.deps.Metrics.Failure(kindCancelled)
			}
			log.Warn("run cancelled", "skipped", len(workSet)-i)
			break
		}

		log.Info("processing puzzle", "id", id)
		result, err := e.processOne(ctx, id)
		if err != nil {
			summary.Failures = append(summary.Failures, Failure{ID: id, Reason: err.Error()})
			e.deps.Metrics.Failure(failureKind(err))
			log.Warn("puzzle failed", "id", id, "reason", err.Error())
			continue
		}

		records[id] = result.record
		entries = append(entries, result.entry)
		summary.Successes = append(summary.Successes, id)
		e.deps.Metrics.Success()
		log.Info("puzzle downloaded", "id", id, "grid_size", result.entry.GridSize)
	}

	// Persist even when the run was cancelled
	persistCtx := context.WithoutCancel(ctx)

	e.deps.Store.Merge(records)
	flushed, err := e.deps.Store.Flush(persistCtx)
	if err != nil {
		summary.Finished = time.Now()
		log.Error("store flush failed", "error", err)
		return summary, &PersistenceError{Op: "flush puzzle store", Err: err}
	}
	summary.Flushed = flushed
	e.deps.Metrics.Flushed(flushed, e.deps.Store.Len())

	if err := e.deps.Ledger.Commit(entries, e.opts.LedgerPolicy); err != nil {
		summary.Finished = time.Now()
		log.Error("ledger commit failed", "error", err)
		return summary, &PersistenceError{Op: "commit ledger", Err: err}
	}

	summary.Finished = time.Now()
	e.deps.Metrics.Finished(summary.Finished)
	log.Info("run finished",
		"successes", len(summary.Successes),
		"failures", len(summary.Failures),
		"flushed", summary.Flushed,
		"duration", summary.Duration().String())

	return summary, nil
}

// processOne acquires a single identifier. Panics are converted to errors so
// one bad puzzle cannot abort the run.
func (e *Engine) processOne(ctx context.Context, id int) (result *staged, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &panicError{value: r}
		}
	}()

	start := time.Now()
	content, err := e.deps.Fetcher.FetchGrid(ctx, id)
	e.deps.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("fetcher returned no content")
	}

	if _, err := e.deps.Artifacts.WriteRaw(id, content.Markup); err != nil {
		return nil, err
	}

	cells, err := extract.Extract(content.Markup)
	if err != nil {
		return nil, err
	}

	converted, err := e.deps.Converter.Convert(cells)
	if err != nil {
		return nil, err
	}
	rec := &puzzle.Record{ID: id, Matrix: converted.Matrix, ColorMap: converted.ColorMap}

	snapshot := content.Snapshot
	if snapshot == nil {
		snapshot, err = e.deps.Renderer.RenderSnapshot(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to render snapshot: %w", err)
		}
	}
	imagePath, err := e.deps.Artifacts.WriteSnapshot(id, snapshot)
	if err != nil {
		return nil, err
	}

	structuredPath, err := e.deps.Artifacts.WriteStructured(id, cells)
	if err != nil {
		return nil, err
	}

	return &staged{
		record: rec,
		entry: puzzle.LedgerEntry{
			ID:             id,
			ImagePath:      imagePath,
			StructuredPath: structuredPath,
			GridSize:       convert.GridSize(cells),
		},
	}, nil
}
