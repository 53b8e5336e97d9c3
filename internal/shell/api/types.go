package api

import "time"

// =============================================================================
// Response Types
// =============================================================================

// CreateConfigurationResponse is the response for a successful save.
type CreateConfigurationResponse struct {
	Service string `json:"service"`
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// HistoryEntryResponse is one entry of a service's version history.
type HistoryEntryResponse struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is the response for health checks.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Service  string `json:"service"`
	Error    string `json:"error,omitempty"`
}

// ReadyResponse is the response for readiness checks.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// IndexResponse describes the API surface.
type IndexResponse struct {
	Service    string            `json:"service"`
	Endpoints  map[string]string `json:"endpoints"`
	Parameters map[string]string `json:"parameters"`
}

// ErrorResponse is the response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
