// Package metrics records per-run acquisition metrics in a Prometheus registry
// that can be written out as a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns its registry so several runs in one process do not collide.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	attempts      *prometheus.CounterVec
	failures      *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	storedPuzzles prometheus.Gauge
	flushes       prometheus.Counter
	lastRun       prometheus.Gauge
}

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// attempts counts processed identifiers.
		// Labels: outcome (success, failure)
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regent",
			Subsystem: "acquire",
			Name:      "attempts_total",
			Help:      "Identifiers processed by outcome",
		}, []string{"outcome"}),

		// failures counts failed identifiers.
		// Labels: kind (container_not_found, fetch, conversion, cancelled, panic, other)
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regent",
			Subsystem: "acquire",
			Name:      "failures_total",
			Help:      "Failed identifiers by failure kind",
		}, []string{"kind"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "regent",
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time spent fetching one puzzle",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		storedPuzzles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "regent",
			Subsystem: "store",
			Name:      "puzzles",
			Help:      "Puzzles in the keyed store after the run",
		}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "regent",
			Subsystem: "store",
			Name:      "flushes_total",
			Help:      "Store flushes that wrote to the backend",
		}),

		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "regent",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Success records an identifier that was fetched, converted and staged.
func (m *Metrics) Success() {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(OutcomeSuccess).Inc()
}

// Failure records a failed identifier under kind.
func (m *Metrics) Failure(kind string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(OutcomeFailure).Inc()
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveFetch records the duration of one grid fetch.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
}

// Flushed records the store size after a run and whether it was written.
func (m *Metrics) Flushed(wrote bool, stored int) {
	if m == nil {
		return
	}
	if wrote {
		m.flushes.Inc()
	}
	m.storedPuzzles.Set(float64(stored))
}

// Finished stamps the completion time of a run.
func (m *Metrics) Finished(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
