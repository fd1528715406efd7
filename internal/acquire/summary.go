package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/regent/internal/convert"
	"github.com/dyluth/regent/internal/fetch"
)

// Failure is one identifier that could not be acquired.
type Failure struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// Summary is the outcome of a run. Successes and Failures are in processing
// order and together cover the work set.
type Summary struct {
	RunID     string    `json:"run_id"`
	Successes []int     `json:"successes"`
	Failures  []Failure `json:"failures"`
	Flushed   bool      `json:"flushed"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Processed returns the number of identifiers accounted for.
func (s *Summary) Processed() int {
	return len(s.Successes) + len(s.Failures)
}

// PersistenceError reports a failure writing the store or the ledger.
// It is fatal to the run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError returns true if err is or wraps a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Failure kinds reported to metrics.
const (
	kindContainerNotFound = "container_not_found"
	kindFetch             = "fetch"
	kindConversion        = "conversion"
	kindCancelled         = "cancelled"
	kindPanic             = "panic"
	kindOther             = "other"
)

func failureKind(err error) string {
	var fe *fetch.FetchError
	var pe *panicError
	switch {
	case fetch.IsContainerNotFound(err):
		return kindContainerNotFound
	case errors.Is(err, context.Canceled):
		return kindCancelled
	case errors.As(err, &fe):
		return kindFetch
	case convert.IsConversionError(err):
		return kindConversion
	case errors.As(err, &pe):
		return kindPanic
	}
	return kindOther
}
