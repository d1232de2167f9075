package app

import (
	"context"
	"fmt"
	"sync"

	"gosplit/domain/core"
	"gosplit/domain/snapshot"
	"gosplit/ports"
)

// Core is the experimentation engine: experiment registry, deterministic
// assignment, event collection and results aggregation over one loaded
// snapshot. Construct one per deployment (or per test fixture); there is
// no process-wide instance.
type Core struct {
	store ports.SnapshotStore
	clock ports.Clock

	// mu guards snap. Mutations additionally serialize per test through
	// testLock so two requests racing to create the same participant
	// resolve as first-writer-wins, second-writer-reads.
	mu   sync.RWMutex
	snap *snapshot.Snapshot

	lockMu    sync.Mutex
	testLocks map[core.TestID]*sync.Mutex
}

// Option configures a Core
type Option func(*Core)

// WithClock overrides the wall clock, primarily for tests
func WithClock(clock ports.Clock) Option {
	return func(c *Core) { c.clock = clock }
}

// New creates a Core backed by the given store, loading and validating
// the persisted snapshot. A store with no prior document must return an
// empty snapshot, not an error.
func New(ctx context.Context, store ports.SnapshotStore, opts ...Option) (*Core, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		snap = snapshot.New()
	}
	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("stored snapshot rejected: %w", err)
	}

	c := &Core{
		store:     store,
		clock:     ports.SystemClock(),
		snap:      snap,
		testLocks: make(map[core.TestID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// testLock returns the per-test mutex, creating it on first use.
// Different tests never share a lock, so independent experiments
// proceed with no coordination.
func (c *Core) testLock(id core.TestID) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	lock, ok := c.testLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.testLocks[id] = lock
	}
	return lock
}

// persist hands a consistent copy of the snapshot to the store. The
// clone is taken under the read lock so concurrent mutations cannot
// race the adapter's serialization; the store call itself runs outside
// all locks. Store errors are fatal to the calling operation and never
// retried here.
func (c *Core) persist(ctx context.Context) error {
	c.mu.RLock()
	clone := c.snap.Clone()
	c.mu.RUnlock()

	return c.store.Save(ctx, clone)
}

// now returns the injected clock's current time as a domain timestamp
func (c *Core) now() core.Timestamp {
	return core.NewTimestamp(c.clock.Now())
}
