package schedule

import (
	"context"
	"errors"
	"fmt"
)

// ConflictError is returned when the expected version of a write does not
// match the stored version. The write was not applied.
type ConflictError struct {
	Date            string
	ExpectedVersion int64
	StoredVersion   int64
	// Message overrides the default text, e.g. a message relayed from the server.
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("schedule for %s was modified elsewhere, please refresh (expected version %d, stored version %d)",
		e.Date, e.ExpectedVersion, e.StoredVersion)
}

// StorageError is returned when the backing store could not serve a request.
// Whether a failed write landed is unknown to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s > %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for malformed input before the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsConflict reports whether err is or wraps a *ConflictError.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsStorage reports whether err should be handled as a storage failure.
// Timeouts and cancellations count as storage failures.
func IsStorage(err error) bool {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
