// Package reconcile computes the work set of a run from the remote catalog
// and the local ledger.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode selects which catalog identifiers a run attempts.
type Mode string

const (
	// ModeAll attempts every identifier in the catalog
	ModeAll Mode = "all"

	// ModeExplicit attempts a caller-supplied subset of the catalog
	ModeExplicit Mode = "explicit"

	// ModeMissing attempts catalog identifiers absent from the ledger
	ModeMissing Mode = "missing"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAll:
		return ModeAll, nil
	case ModeExplicit:
		return ModeExplicit, nil
	case ModeMissing:
		return ModeMissing, nil
	}
	return "", fmt.Errorf("invalid mode: %s (must be 'all', 'explicit' or 'missing')", s)
}

// NoLedgerPolicy decides what ModeMissing yields when no ledger exists yet.
type NoLedgerPolicy string

const (
	// NoLedgerAll treats every catalog identifier as missing
	NoLedgerAll NoLedgerPolicy = "all"

	// NoLedgerNone treats nothing as missing
	NoLedgerNone NoLedgerPolicy = "none"
)

// ParseNoLedgerPolicy validates a policy name.
func ParseNoLedgerPolicy(s string) (NoLedgerPolicy, error) {
	switch NoLedgerPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case NoLedgerAll:
		return NoLedgerAll, nil
	case NoLedgerNone:
		return NoLedgerNone, nil
	}
	return "", fmt.Errorf("invalid missing_without_ledger policy: %s (must be 'all' or 'none')", s)
}

// Selection is the caller's request for a run.
type Selection struct {
	Mode Mode
	IDs  []int // Only used with ModeExplicit
}

// Ledger is the reconciliation view of the local ledger.
type Ledger struct {
	IDs    map[int]struct{}
	Exists bool
}

// Options carries reconciliation policy.
type Options struct {
	NoLedger NoLedgerPolicy
}

// Reconcile returns the ascending, duplicate-free work set for a selection.
// An explicit selection containing identifiers outside the catalog fails
// with a *SelectionError and yields no work set.
func Reconcile(remote []int, sel Selection, ledger Ledger, opts Options) ([]int, error) {
	catalog := toSet(remote)

	switch sel.Mode {
	case ModeAll:
		return sortedKeys(catalog), nil

	case ModeExplicit:
		var invalid []int
		requested := make(map[int]struct{}, len(sel.IDs))
		for _, id := range sel.IDs {
			if _, ok := catalog[id]; !ok {
				invalid = append(invalid, id)
				continue
			}
			requested[id] = struct{}{}
		}
		if len(invalid) > 0 {
			return nil, &SelectionError{Invalid: sortedKeys(toSet(invalid))}
		}
		return sortedKeys(requested), nil

	case ModeMissing:
		if !ledger.Exists {
			switch opts.NoLedger {
			case NoLedgerAll:
				return sortedKeys(catalog), nil
			case NoLedgerNone:
				return []int{}, nil
			default:
				return nil, fmt.Errorf("missing mode without a ledger requires a policy ('all' or 'none')")
			}
		}
		missing := make(map[int]struct{}, len(catalog))
		for id := range catalog {
			if _, ok := ledger.IDs[id]; !ok {
				missing[id] = struct{}{}
			}
		}
		return sortedKeys(missing), nil
	}

	return nil, fmt.Errorf("invalid mode: %q", sel.Mode)
}

// ParseIDs parses a comma-separated identifier list such as "1, 4,7".
// Empty items are ignored.
func ParseIDs(s string) ([]int, error) {
	var ids []int
	var bad []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 0 {
			bad = append(bad, part)
			continue
		}
		ids = append(ids, id)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("entries must be non-negative integers: %s", strings.Join(bad, ", "))
	}
	if len(ids) == 0 {
		return nil, errors.New("no identifiers given")
	}
	return ids, nil
}

// SelectionError reports explicitly requested identifiers that are not in the
// remote catalog.
type SelectionError struct {
	Invalid []int
}

func (e *SelectionError) Error() string {
	parts := make([]string, len(e.Invalid))
	for i, id := range e.Invalid {
		parts[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("identifiers not in catalog: [%s]", strings.Join(parts, ", "))
}

// IsSelectionError returns true if err is or wraps a SelectionError.
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
