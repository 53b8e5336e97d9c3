// Package schema provides pure validation functions for configuration
// documents.
//
// This package contains the functional core logic for checking a parsed
// document against the structural rules every configuration must satisfy.
// All functions are pure (no I/O, no side effects). Violations are
// accumulated and returned as data, never raised, so callers can report
// every problem at once.
//
// # Rules
//
//   - version: positive integer; absence is reported so callers can decide
//     whether auto-assignment applies (see ValidateSubmission)
//   - database: when present, an object with a non-empty host and a port
//     in [1, 65535]
//   - features: when present, an object whose values are booleans, strings,
//     or numbers
//   - any other top-level field is permitted without constraint
package schema
