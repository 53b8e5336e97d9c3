// Package store provides persistence for configuration records.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when a configuration is not found. Absence is
	// a normal, representable result; callers translate it into a not-found
	// response rather than treating it as a failure.
	ErrNotFound = errors.New("configuration not found")

	// ErrVersionConflict is returned when a write collides with an existing
	// (service, version) pair. Concurrent writers that race on version
	// assignment surface here instead of silently duplicating versions.
	ErrVersionConflict = errors.New("configuration version already exists")

	// ErrConnectionFailed is returned when the database connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrInvalidData is returned when payload serialization fails.
	ErrInvalidData = errors.New("invalid data format")

	// ErrPersistence is returned when the backend fails during a query.
	ErrPersistence = errors.New("persistence backend failed")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g., "Save")
	Service string // Service name if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Service, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, service, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Service: service,
		Message: message,
		Err:     err,
	}
}
