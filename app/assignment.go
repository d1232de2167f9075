package app

import (
	"context"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
)

// Assign decides whether the user participates in the experiment and
// which variant they see. The decision is memoized through the
// participant record, so repeated calls for the same (user, test) pair
// always return the same variant. A false second return means the user
// is not assigned: the experiment is not running or the user fell
// outside the inclusion gate. Exclusion is an expected outcome, not an
// error, and by determinism of the hash it is never retried differently.
func (c *Core) Assign(ctx context.Context, userID core.UserID, testID core.TestID) (core.VariantID, bool, error) {
	// Fast path: existing participant, read lock only.
	c.mu.RLock()
	if p, ok := c.snap.Participant(userID, testID); ok {
		variantID := p.VariantID
		c.mu.RUnlock()
		return variantID, true, nil
	}
	exp, ok := c.snap.Tests[testID]
	if !ok {
		c.mu.RUnlock()
		return "", false, core.NewNotFoundError("experiment", testID.String())
	}
	if exp.Status != experiment.StatusRunning {
		c.mu.RUnlock()
		return "", false, nil
	}
	audience := exp.TargetAudience.Percentage
	c.mu.RUnlock()

	// Inclusion gate, computed outside any lock: pure function of ids.
	if float64(core.Bucket(userID, testID, core.SaltInclude)) >= audience {
		return "", false, nil
	}

	lock := c.testLock(testID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	// First writer wins: a racing request may have created the record
	// between the read above and taking the lock.
	if p, ok := c.snap.Participant(userID, testID); ok {
		variantID := p.VariantID
		c.mu.Unlock()
		return variantID, true, nil
	}

	exp, ok = c.snap.Tests[testID]
	if !ok || exp.Status != experiment.StatusRunning {
		c.mu.Unlock()
		if !ok {
			return "", false, core.NewNotFoundError("experiment", testID.String())
		}
		return "", false, nil
	}

	variant := exp.SelectVariant(core.Bucket(userID, testID, core.SaltVariant))

	participant := &experiment.Participant{
		UserID:     userID,
		TestID:     testID,
		VariantID:  variant.ID,
		AssignedAt: c.now(),
	}
	c.snap.Participants[testID] = append(c.snap.Participants[testID], participant)

	if c.snap.Assignments[userID] == nil {
		c.snap.Assignments[userID] = make(map[core.TestID]core.VariantID)
	}
	c.snap.Assignments[userID][testID] = variant.ID
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		return "", false, err
	}
	return variant.ID, true, nil
}
