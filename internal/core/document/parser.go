package document

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// Parse parses structured configuration text into a document.
// This is a pure function - no I/O, no side effects.
//
// Failure modes:
//   - ErrEmptyInput for empty or whitespace-only input
//   - ErrInvalidSyntax (wrapped, with the parser's line/context message
//     preserved) for malformed text
//   - ErrNotMapping when the top-level value is not a mapping
func Parse(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	var value any
	if err := yaml.Unmarshal([]byte(text), &value); err != nil {
		return nil, NewParseError(err.Error(), ErrInvalidSyntax)
	}

	doc, ok := value.(map[string]any)
	if !ok || doc == nil {
		return nil, NewParseError("", ErrNotMapping)
	}

	return doc, nil
}

// IsParseable reports whether text parses into a document. Used as a quick
// probe; the error detail from Parse is discarded.
func IsParseable(text string) bool {
	_, err := Parse(text)
	return err == nil
}
