package schema

import (
	"fmt"
	"sort"

	"github.com/Gargooie/Config-control-service/internal/core/document"
)

// =============================================================================
// Outcome
// =============================================================================

// Outcome is the result of validating a configuration document.
// When Valid is false, Document is nil only if parsing itself failed;
// schema violations still carry the parsed document alongside the errors.
type Outcome struct {
	Valid    bool           `json:"valid"`
	Document map[string]any `json:"document,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// Validate checks a parsed document against the full configuration schema.
// A missing version field is reported as a violation.
func Validate(doc map[string]any) Outcome {
	return outcome(doc, collectErrors(doc, true))
}

// ValidateSubmission checks an incoming submission. A missing version field
// is legal here because the store assigns the next version on save; a
// version that is present must already be a positive integer.
func ValidateSubmission(doc map[string]any) Outcome {
	return outcome(doc, collectErrors(doc, false))
}

// ValidateText parses raw configuration text and validates the result.
// On parse failure the outcome carries no document and a single error;
// on schema failure the parsed document is returned alongside the errors.
func ValidateText(text string) Outcome {
	doc, err := document.Parse(text)
	if err != nil {
		return Outcome{Valid: false, Errors: []string{err.Error()}}
	}
	return ValidateSubmission(doc)
}

func outcome(doc map[string]any, errs []string) Outcome {
	return Outcome{
		Valid:    len(errs) == 0,
		Document: doc,
		Errors:   errs,
	}
}

// collectErrors accumulates every rule violation instead of stopping at the
// first one.
func collectErrors(doc map[string]any, requireVersion bool) []string {
	var errs []string

	if v, ok := doc["version"]; ok {
		if n, ok := asInt(v); !ok || n < 1 {
			errs = append(errs, "field 'version' must be a positive integer")
		}
	} else if requireVersion {
		errs = append(errs, "missing required field: version")
	}

	if v, ok := doc["database"]; ok {
		errs = append(errs, databaseErrors(v)...)
	}

	if v, ok := doc["features"]; ok {
		errs = append(errs, featureErrors(v)...)
	}

	return errs
}

func databaseErrors(v any) []string {
	db, ok := v.(map[string]any)
	if !ok {
		return []string{"field 'database' must be an object"}
	}

	var errs []string

	host, ok := db["host"].(string)
	if !ok || host == "" {
		errs = append(errs, "database.host must be a non-empty string")
	}

	if port, ok := asInt(db["port"]); !ok || port < 1 || port > 65535 {
		errs = append(errs, "database.port must be an integer between 1 and 65535")
	}

	return errs
}

func featureErrors(v any) []string {
	features, ok := v.(map[string]any)
	if !ok {
		return []string{"field 'features' must be an object"}
	}

	var errs []string
	for key, val := range features {
		switch val.(type) {
		case bool, string, int, int64, uint64, float64:
		default:
			errs = append(errs, fmt.Sprintf("features.%s must be a boolean, string, or number", key))
		}
	}
	// Map iteration order is random; keep the outcome deterministic.
	sort.Strings(errs)
	return errs
}

// asInt reports the integer value of the types the YAML and JSON decoders
// produce for whole numbers. Floats with a fractional part are rejected.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
