package ports

import (
	"context"

	"gosplit/domain/snapshot"
)

// SnapshotStore is the persistence port. The core calls Load once at
// startup and Save after mutating operations; batching, async flushing
// and retries belong to the adapter, never to the core. Storage errors
// pass through to the caller unmodified.
type SnapshotStore interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
	Save(ctx context.Context, snap *snapshot.Snapshot) error
}
