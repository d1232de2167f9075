package app

import (
	"context"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
	"gosplit/domain/stats"
)

// ExperimentDefinition is the caller-supplied shape for a new experiment.
// Ids for the experiment and its variants are assigned here, not by the
// caller.
type ExperimentDefinition struct {
	Name           string
	Description    string
	TargetAudience experiment.TargetAudience
	Variants       []experiment.Variant
	Metrics        experiment.Metrics
	Statistical    *experiment.StatisticalConfig
}

// CreateExperiment validates the definition and stores it in draft
// status. Invariant violations surface as validation errors and never
// reach a stored experiment.
func (c *Core) CreateExperiment(ctx context.Context, def ExperimentDefinition) (core.TestID, error) {
	statistical := experiment.DefaultStatisticalConfig()
	if def.Statistical != nil {
		statistical = *def.Statistical
		if statistical.BaselineRate == 0 {
			statistical.BaselineRate = experiment.DefaultStatisticalConfig().BaselineRate
		}
	}

	exp := &experiment.Experiment{
		ID:             core.TestID(core.NewID()),
		Name:           def.Name,
		Description:    def.Description,
		Status:         experiment.StatusDraft,
		TargetAudience: def.TargetAudience,
		Variants:       make([]experiment.Variant, len(def.Variants)),
		Metrics:        def.Metrics,
		Statistical:    statistical,
		CreatedAt:      c.now(),
	}
	for i, v := range def.Variants {
		if v.ID.IsEmpty() {
			v.ID = core.VariantID(core.NewID())
		}
		exp.Variants[i] = v
	}

	if err := exp.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.snap.Tests[exp.ID] = exp
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		return "", err
	}
	return exp.ID, nil
}

// StartExperiment moves a draft experiment to running, stamps the start
// date and computes the minimum sample size plan from the experiment's
// statistical configuration. The plan is a recommendation input only,
// never an assignment gate.
func (c *Core) StartExperiment(ctx context.Context, id core.TestID) error {
	lock := c.testLock(id)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	exp, ok := c.snap.Tests[id]
	if !ok {
		c.mu.Unlock()
		return core.NewNotFoundError("experiment", id.String())
	}
	if exp.Status != experiment.StatusDraft {
		status := exp.Status
		c.mu.Unlock()
		return core.NewInvalidStateError("start", string(status))
	}

	exp.Statistical.MinimumSampleSize = stats.RequiredSampleSize(
		exp.Statistical.BaselineRate,
		exp.Statistical.MinimumDetectableEffect,
		exp.Statistical.SignificanceLevel,
		exp.Statistical.Power,
	)
	exp.Status = experiment.StatusRunning
	exp.StartDate = c.now()
	c.mu.Unlock()

	return c.persist(ctx)
}

// StopExperiment moves a running experiment to completed, stamps the
// end date and computes final results. Stopping a paused or already
// completed experiment is an invalid-state error, not a silent no-op;
// a paused experiment must resume before it can be stopped.
func (c *Core) StopExperiment(ctx context.Context, id core.TestID, reason string) (*experiment.Results, error) {
	lock := c.testLock(id)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	exp, ok := c.snap.Tests[id]
	if !ok {
		c.mu.Unlock()
		return nil, core.NewNotFoundError("experiment", id.String())
	}
	if !exp.Status.CanTransition(experiment.StatusCompleted) {
		status := exp.Status
		c.mu.Unlock()
		return nil, core.NewInvalidStateError("stop", string(status))
	}

	end := c.now()
	exp.Status = experiment.StatusCompleted
	exp.EndDate = &end
	exp.StopReason = reason

	results := c.computeLocked(exp)
	exp.Results = results
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// PauseExperiment suspends assignment and tracking for a running
// experiment without ending it.
func (c *Core) PauseExperiment(ctx context.Context, id core.TestID) error {
	return c.transition(ctx, id, "pause", experiment.StatusRunning, experiment.StatusPaused)
}

// ResumeExperiment returns a paused experiment to running
func (c *Core) ResumeExperiment(ctx context.Context, id core.TestID) error {
	return c.transition(ctx, id, "resume", experiment.StatusPaused, experiment.StatusRunning)
}

func (c *Core) transition(ctx context.Context, id core.TestID, op string, from, to experiment.Status) error {
	lock := c.testLock(id)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	exp, ok := c.snap.Tests[id]
	if !ok {
		c.mu.Unlock()
		return core.NewNotFoundError("experiment", id.String())
	}
	if exp.Status != from {
		status := exp.Status
		c.mu.Unlock()
		return core.NewInvalidStateError(op, string(status))
	}
	exp.Status = to
	c.mu.Unlock()

	return c.persist(ctx)
}

// GetExperiment returns a copy of the experiment
func (c *Core) GetExperiment(ctx context.Context, id core.TestID) (*experiment.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	exp, ok := c.snap.Tests[id]
	if !ok {
		return nil, core.NewNotFoundError("experiment", id.String())
	}
	cp := *exp
	return &cp, nil
}

// ListRunning returns all experiments currently in running status
func (c *Core) ListRunning(ctx context.Context) []*experiment.Experiment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*experiment.Experiment
	for _, exp := range c.snap.Tests {
		if exp.Status == experiment.StatusRunning {
			cp := *exp
			out = append(out, &cp)
		}
	}
	return out
}

// ArchiveExperiment moves a completed experiment to archived
func (c *Core) ArchiveExperiment(ctx context.Context, id core.TestID) error {
	return c.transition(ctx, id, "archive", experiment.StatusCompleted, experiment.StatusArchived)
}
