package filter

import (
	"errors"
	"fmt"
)

var (
	errRange    = errors.New("must not be greater than --to")
	errNegative = errors.New("must not be negative")
)

// InvalidError reports a malformed filter flag.
type InvalidError struct {
	Field string
	Err   error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid --%s filter: %v", e.Field, e.Err)
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}
