package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gargooie/Config-control-service/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks backend liveness.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// =============================================================================
// Rows
// =============================================================================

// configurationRow represents a configuration row in the database.
type configurationRow struct {
	ID        string `db:"id"`
	Service   string `db:"service"`
	Version   int    `db:"version"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

// historyRow represents one history entry in the database.
type historyRow struct {
	Version   int    `db:"version"`
	CreatedAt string `db:"created_at"`
}

func (r configurationRow) toDomain() (*domain.Configuration, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Payload), &payload); err != nil {
		return nil, err
	}
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Configuration{
		ID:        r.ID,
		Service:   r.Service,
		Version:   r.Version,
		Payload:   payload,
		CreatedAt: createdAt,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Parse(time.RFC3339, s)
	}
	return t, nil
}

// =============================================================================
// Configuration Operations
// =============================================================================

// Save persists a new configuration version inside a single transaction.
// The MAX(version) read and the INSERT share the transaction, and the
// UNIQUE(service, version) constraint turns write races into
// ErrVersionConflict instead of silent duplicates.
func (s *SQLiteStore) Save(ctx context.Context, service string, payload map[string]any) (*domain.Configuration, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, NewStoreError("Save", service, err.Error(), ErrPersistence)
	}
	defer tx.Rollback()

	version, ok := versionFromPayload(payload)
	if !ok {
		var max int
		err := tx.GetContext(ctx, &max,
			`SELECT COALESCE(MAX(version), 0) FROM configurations WHERE service = ?`, service)
		if err != nil {
			return nil, NewStoreError("Save", service, err.Error(), ErrPersistence)
		}
		version = max + 1

		// The persisted payload always carries its assigned version.
		withVersion := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			withVersion[k] = v
		}
		withVersion["version"] = version
		payload = withVersion
	}

	cfg, err := domain.NewConfiguration(service, version, payload)
	if err != nil {
		return nil, NewStoreError("Save", service, err.Error(), ErrInvalidData)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, NewStoreError("Save", service, err.Error(), ErrInvalidData)
	}

	cfg.CreatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO configurations (id, service, version, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		cfg.ID, cfg.Service, cfg.Version, string(raw), cfg.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: configurations.") {
			return nil, NewStoreError("Save", service,
				fmt.Sprintf("version %d already exists", version), ErrVersionConflict)
		}
		return nil, NewStoreError("Save", service, err.Error(), ErrPersistence)
	}

	if err := tx.Commit(); err != nil {
		return nil, NewStoreError("Save", service, err.Error(), ErrPersistence)
	}

	return cfg, nil
}

// Get returns one configuration: the highest version when version is
// LatestVersion, otherwise the exact match.
func (s *SQLiteStore) Get(ctx context.Context, service string, version int) (*domain.Configuration, error) {
	var row configurationRow
	var err error

	if version == LatestVersion {
		err = s.db.GetContext(ctx, &row,
			`SELECT id, service, version, payload, created_at
			 FROM configurations
			 WHERE service = ?
			 ORDER BY version DESC LIMIT 1`, service)
	} else {
		err = s.db.GetContext(ctx, &row,
			`SELECT id, service, version, payload, created_at
			 FROM configurations
			 WHERE service = ? AND version = ?`, service, version)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("Get", service, "not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("Get", service, err.Error(), ErrPersistence)
	}

	cfg, err := row.toDomain()
	if err != nil {
		return nil, NewStoreError("Get", service, err.Error(), ErrInvalidData)
	}
	return cfg, nil
}

// History returns the service's versions ordered descending.
func (s *SQLiteStore) History(ctx context.Context, service string) ([]domain.HistoryEntry, error) {
	var rows []historyRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT version, created_at
		 FROM configurations
		 WHERE service = ?
		 ORDER BY version DESC`, service)
	if err != nil {
		return nil, NewStoreError("History", service, err.Error(), ErrPersistence)
	}

	history := make([]domain.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		createdAt, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, NewStoreError("History", service, err.Error(), ErrInvalidData)
		}
		history = append(history, domain.HistoryEntry{
			Version:   r.Version,
			CreatedAt: createdAt,
		})
	}
	return history, nil
}

// versionFromPayload reads an explicit version field out of a payload.
// YAML and JSON decoders produce different integer types for the same value.
func versionFromPayload(payload map[string]any) (int, bool) {
	switch n := payload["version"].(type) {
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
