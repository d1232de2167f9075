package app

import (
	"context"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
)

// TrackEvent records an exposure, conversion or custom event for an
// assigned user. Events against a non-running experiment or from a user
// with no participant record are silent no-ops: unassigned users
// naturally generate no events of interest, and that is a frequent,
// valid outcome rather than a failure. The event log is append-only.
func (c *Core) TrackEvent(ctx context.Context, userID core.UserID, testID core.TestID, name string, value float64, properties map[string]string) error {
	lock := c.testLock(testID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	exp, ok := c.snap.Tests[testID]
	if !ok || exp.Status != experiment.StatusRunning {
		c.mu.Unlock()
		return nil
	}
	participant, ok := c.snap.Participant(userID, testID)
	if !ok {
		c.mu.Unlock()
		return nil
	}

	now := c.now()
	eventType := exp.Metrics.Classify(name)

	c.snap.Events = append(c.snap.Events, &experiment.Event{
		ID:         core.EventID(core.NewID()),
		TestID:     testID,
		VariantID:  participant.VariantID,
		UserID:     userID,
		Type:       eventType,
		Name:       name,
		Value:      value,
		Timestamp:  now,
		Properties: properties,
	})

	switch eventType {
	case experiment.EventExposure:
		if participant.FirstExposure == nil {
			participant.FirstExposure = &now
		}
	case experiment.EventConversion:
		participant.Conversions = append(participant.Conversions, experiment.Conversion{
			Metric:    name,
			Value:     value,
			Timestamp: now,
		})
	}
	c.mu.Unlock()

	return c.persist(ctx)
}
