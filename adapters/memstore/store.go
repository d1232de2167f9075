// Package memstore provides an in-memory snapshot store for tests and
// ephemeral deployments.
package memstore

import (
	"context"
	"sync"

	"gosplit/domain/snapshot"
	"gosplit/ports"
)

// Store keeps the snapshot in process memory. Load and Save exchange
// clones so callers can never alias the stored document.
type Store struct {
	mu   sync.Mutex
	snap *snapshot.Snapshot
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{snap: snapshot.New()}
}

// Load returns a clone of the stored snapshot
func (s *Store) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), nil
}

// Save replaces the stored snapshot
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	return nil
}

var _ ports.SnapshotStore = (*Store)(nil)
