// Package testkit wires an in-memory experimentation core and generates
// deterministic synthetic populations for tests and simulations.
package testkit

import (
	"context"
	"fmt"
	"time"

	"gosplit/adapters/memstore"
	"gosplit/app"
	"gosplit/domain/experiment"
	"gosplit/ports"
)

// Kit bundles a core over an in-memory store with a controllable clock
type Kit struct {
	Core  *app.Core
	Store *memstore.Store
	now   time.Time
}

// New creates a kit with the clock frozen at a fixed instant
func New(ctx context.Context) (*Kit, error) {
	store := memstore.New()
	kit := &Kit{
		Store: store,
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	core, err := app.New(ctx, store, app.WithClock(ports.ClockFunc(func() time.Time {
		return kit.now
	})))
	if err != nil {
		return nil, fmt.Errorf("failed to build core: %w", err)
	}
	kit.Core = core
	return kit, nil
}

// Advance moves the frozen clock forward
func (k *Kit) Advance(d time.Duration) {
	k.now = k.now.Add(d)
}

// TwoVariantDefinition builds a standard 50/50 control-vs-treatment
// definition with full inclusion, the given primary metric and default
// statistical parameters.
func TwoVariantDefinition(name, primaryMetric string) app.ExperimentDefinition {
	return app.ExperimentDefinition{
		Name: name,
		TargetAudience: experiment.TargetAudience{
			Percentage: 100,
		},
		Variants: []experiment.Variant{
			{Name: "control", Weight: 50, IsControl: true},
			{Name: "treatment", Weight: 50},
		},
		Metrics: experiment.Metrics{
			Primary: primaryMetric,
		},
	}
}
