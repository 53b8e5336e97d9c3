package store

import (
	"context"

	"github.com/Gargooie/Config-control-service/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// LatestVersion selects the highest stored version in Get.
const LatestVersion = 0

// Store defines the persistence interface for configuration records.
type Store interface {
	// Save persists a new configuration version for a service. When the
	// payload carries no version field, the next version (max + 1, starting
	// at 1) is assigned and injected into the payload; a caller-supplied
	// version is trusted as-is. Either way a colliding (service, version)
	// pair fails with ErrVersionConflict.
	Save(ctx context.Context, service string, payload map[string]any) (*domain.Configuration, error)

	// Get returns the configuration for a service. Pass LatestVersion to
	// select the highest stored version. Returns ErrNotFound when no
	// matching record exists.
	Get(ctx context.Context, service string, version int) (*domain.Configuration, error)

	// History returns the service's versions ordered descending. An unknown
	// service yields an empty slice, not an error.
	History(ctx context.Context, service string) ([]domain.HistoryEntry, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
