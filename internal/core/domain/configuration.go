// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Service validation errors
	ErrServiceRequired = errors.New("service is required")

	// Version validation errors
	ErrVersionInvalid = errors.New("version must be a positive integer")

	// Payload validation errors
	ErrPayloadRequired = errors.New("payload is required")
)

// =============================================================================
// Configuration
// =============================================================================

// Configuration is one immutable versioned snapshot of a service's
// configuration. A new version is always a new record, never an update.
type Configuration struct {
	ID        string         `json:"id"`
	Service   string         `json:"service"`
	Version   int            `json:"version"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewConfiguration creates a configuration record with a generated ID.
// The creation timestamp is assigned at persistence time by the store.
func NewConfiguration(service string, version int, payload map[string]any) (*Configuration, error) {
	cfg := &Configuration{
		ID:      uuid.New().String(),
		Service: service,
		Version: version,
		Payload: payload,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the record invariants.
func (c *Configuration) Validate() error {
	if c.Service == "" {
		return ErrServiceRequired
	}
	if c.Version < 1 {
		return ErrVersionInvalid
	}
	if c.Payload == nil {
		return ErrPayloadRequired
	}
	return nil
}

// =============================================================================
// History
// =============================================================================

// HistoryEntry is one row of a service's version history.
type HistoryEntry struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}
