package testkit

import (
	"context"
	"fmt"
	"math/rand"

	"gosplit/domain/core"
)

// Population generates deterministic synthetic user ids. The sequence
// depends only on the seed, so distribution tests are reproducible.
type Population struct {
	rng  *rand.Rand
	next int
}

// NewPopulation creates a population with a fixed seed
func NewPopulation(seed int64) *Population {
	return &Population{rng: rand.New(rand.NewSource(seed))}
}

// NextUser returns the next synthetic user id
func (p *Population) NextUser() core.UserID {
	p.next++
	return core.UserID(fmt.Sprintf("user-%06d-%08x", p.next, p.rng.Uint32()))
}

// Users returns n synthetic user ids
func (p *Population) Users(n int) []core.UserID {
	users := make([]core.UserID, n)
	for i := range users {
		users[i] = p.NextUser()
	}
	return users
}

// ConversionPlan drives a simulated funnel: every assigned user tracks
// one exposure, then converts on the metric with the per-variant rate.
type ConversionPlan struct {
	Metric string
	// Rates maps variant name to conversion probability
	Rates map[string]float64
}

// Run assigns every user in the population to the experiment and plays
// the conversion plan through the kit's core. It returns the number of
// assigned users.
func (k *Kit) Run(ctx context.Context, testID core.TestID, users []core.UserID, plan ConversionPlan) (int, error) {
	exp, err := k.Core.GetExperiment(ctx, testID)
	if err != nil {
		return 0, err
	}
	names := make(map[core.VariantID]string, len(exp.Variants))
	for _, v := range exp.Variants {
		names[v.ID] = v.Name
	}

	rng := rand.New(rand.NewSource(int64(len(users))))
	assigned := 0
	for _, userID := range users {
		variantID, ok, err := k.Core.Assign(ctx, userID, testID)
		if err != nil {
			return assigned, err
		}
		if !ok {
			continue
		}
		assigned++

		if err := k.Core.TrackEvent(ctx, userID, testID, "exposure", 1, nil); err != nil {
			return assigned, err
		}
		if rate, ok := plan.Rates[names[variantID]]; ok && rng.Float64() < rate {
			if err := k.Core.TrackEvent(ctx, userID, testID, plan.Metric, 1, nil); err != nil {
				return assigned, err
			}
		}
	}
	return assigned, nil
}
