// Package document contains pure functions for parsing structured
// configuration documents. This is part of the Functional Core - all
// functions are pure with no I/O.
package document

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("document is empty")

	// YAML parsing errors
	ErrInvalidSyntax = errors.New("invalid YAML syntax")

	// Shape errors
	ErrNotMapping = errors.New("YAML must represent a dictionary/object")
)

// ParseError wraps errors with context about why parsing failed.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(message string, err error) *ParseError {
	return &ParseError{
		Message: message,
		Err:     err,
	}
}
