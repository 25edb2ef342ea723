package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound indicates no run record exists with the given identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRun indicates a run record cannot be stored as given.
	ErrInvalidRun = errors.New("invalid run record")
)

// RunError wraps run repository errors with the operation and run involved.
type RunError struct {
	Op    string // Operation being performed (e.g., "GetByID", "Save")
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
