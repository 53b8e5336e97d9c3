// Package render contains pure functions for rendering configuration
// documents as templates. This is part of the Functional Core - rendering is
// a side-effect-free transformation of a document and a variable context.
package render

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Template parsing errors (unbalanced constructs, bad expressions)
	ErrTemplateSyntax = errors.New("template syntax error")

	// Template execution errors (filter failures, bad operations)
	ErrTemplateExecute = errors.New("template execution error")

	// Output errors: rendering succeeded but the result is no longer a
	// valid document (a substituted value broke quoting or structure)
	ErrRenderedInvalid = errors.New("rendered output is not a valid document")
)

// TemplateError wraps errors with context about which rendering stage failed.
type TemplateError struct {
	Message string
	Err     error
}

func (e *TemplateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return e.Err.Error()
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// NewTemplateError creates a new TemplateError.
func NewTemplateError(message string, err error) *TemplateError {
	return &TemplateError{
		Message: message,
		Err:     err,
	}
}
