package contracts

import (
	"fmt"
	"time"
)

// ValidationError rejects a weight/amount invariant violation before any write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError signals a stale-version write on a DailyBudget. The engine
// retries once from a fresh read before surfacing it.
type ConflictError struct {
	AllocationID int64
	Date         time.Time
	Version      int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stale daily budget version %d for allocation %d on %s",
		e.Version, e.AllocationID, e.Date.Format("2006-01-02"))
}

// NoEligibleTargetsError marks a no-op run: nothing to distribute to.
// Not fatal; the run is still recorded.
type NoEligibleTargetsError struct {
	AllocationID int64
	Date         time.Time
}

func (e *NoEligibleTargetsError) Error() string {
	return fmt.Sprintf("no eligible targets for allocation %d on %s",
		e.AllocationID, e.Date.Format("2006-01-02"))
}

// ExternalPushError wraps a directive delivery failure. It belongs to the
// push collaborator; committed budget state is never rolled back for it.
type ExternalPushError struct {
	Sink string
	Err  error
}

func (e *ExternalPushError) Error() string {
	return fmt.Sprintf("directive push via %s failed: %v", e.Sink, e.Err)
}

func (e *ExternalPushError) Unwrap() error {
	return e.Err
}
