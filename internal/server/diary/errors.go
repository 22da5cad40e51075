package diary

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsgram/internal/common"
	"go.uber.org/multierr"
)

// ConflictError reports that the owner already has an entry for Date.
// It matches common.ErrConflict.
type ConflictError struct {
	Date       string
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an entry already exists for %s", e.Date)
}

func (e *ConflictError) Unwrap() error { return common.ErrConflict }

// WriteError is a failed write together with the outcome of its cleanup.
// errors.Is and errors.As see the original failure.
type WriteError struct {
	Op  string
	Err error
	// Cleanup aggregates failed compensating deletes (see multierr.Errors).
	Cleanup error
	// Orphaned lists media paths left behind or referenced but missing.
	Orphaned []string
}

func (e *WriteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s entry: %v", e.Op, e.Err)
	if e.Cleanup != nil {
		fmt.Fprintf(&b, " (cleanup failed: %v)", e.Cleanup)
	}
	return b.String()
}

func (e *WriteError) Unwrap() error { return e.Err }

// CleanupErrors returns each failed cleanup step.
func (e *WriteError) CleanupErrors() []error {
	return multierr.Errors(e.Cleanup)
}

// Clean reports whether the failure left nothing behind.
func (e *WriteError) Clean() bool {
	return e.Cleanup == nil && len(e.Orphaned) == 0
}
