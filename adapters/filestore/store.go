// Package filestore persists the snapshot as a single JSON document on
// local disk.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gosplit/domain/snapshot"
	"gosplit/ports"
)

// Store writes the whole snapshot document to one file per deployment.
// Writes go through a temp file and rename so a crashed save never
// leaves a half-written document behind.
type Store struct {
	path string
}

// New creates a file store rooted at path, creating parent directories
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &Store{path: path}, nil
}

// Load reads and validates the stored snapshot. A missing file yields
// an empty snapshot; a malformed one is rejected with a clear error at
// load time rather than surfacing as undefined behavior later.
func (s *Store) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return snapshot.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file %s: %w", s.path, err)
	}
	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save writes the snapshot document atomically
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

var _ ports.SnapshotStore = (*Store)(nil)
