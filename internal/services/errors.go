package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the report (or reporter) vanished or never existed
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request cannot be applied as given
	ErrInvalidInput = errors.New("invalid input")
	// ErrDependencyUnavailable means the store could not be reached
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// PartialFailureError reports a merge where some sources were folded into
// the target and others were not. Retrying with just the Failed ids is safe.
type PartialFailureError struct {
	TargetID string
	Merged   []string
	Failed   map[string]error
}

func (e *PartialFailureError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("merge into %s: %d merged, %d failed (%s)",
		e.TargetID, len(e.Merged), len(e.Failed), strings.Join(parts, "; "))
}

// FailedIDs returns the failed source ids in sorted order
func (e *PartialFailureError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// storeError classifies a gorm error
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrDependencyUnavailable, err)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
