// Package postgres persists the snapshot as a single JSONB row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gosplit/domain/snapshot"
	"gosplit/ports"
)

// documentKey identifies the one snapshot row per deployment
const documentKey = "default"

// Store implements the snapshot store over PostgreSQL. The core treats
// the document as opaque; here it lands in one JSONB column with an
// upsert per save.
type Store struct {
	db  *sqlx.DB
	key string
}

// New creates a PostgreSQL snapshot store with the default document key
func New(db *sqlx.DB) *Store {
	return &Store{db: db, key: documentKey}
}

// NewWithKey creates a store bound to a specific document key, letting
// several isolated deployments share one database.
func NewWithKey(db *sqlx.DB, key string) *Store {
	return &Store{db: db, key: key}
}

// EnsureSchema creates the snapshot table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiment_snapshots (
			key        TEXT PRIMARY KEY,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Load reads and validates the snapshot document
func (s *Store) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM experiment_snapshots WHERE key = $1`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot document: %w", err)
	}
	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save upserts the snapshot document
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO experiment_snapshots (key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = NOW()`, s.key, data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

var _ ports.SnapshotStore = (*Store)(nil)
