package snapshot

import (
	"fmt"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
)

// Snapshot is the single persisted document for a deployment. The core
// treats it as an opaque load/save unit; the storage engine behind it is
// an adapter concern.
type Snapshot struct {
	Tests        map[core.TestID]*experiment.Experiment         `json:"tests"`
	Participants map[core.TestID][]*experiment.Participant      `json:"participants"`
	Events       []*experiment.Event                            `json:"events"`
	Assignments  map[core.UserID]map[core.TestID]core.VariantID `json:"assignments"`
}

// New returns an empty, usable snapshot
func New() *Snapshot {
	return &Snapshot{
		Tests:        make(map[core.TestID]*experiment.Experiment),
		Participants: make(map[core.TestID][]*experiment.Participant),
		Events:       []*experiment.Event{},
		Assignments:  make(map[core.UserID]map[core.TestID]core.VariantID),
	}
}

// Validate rejects malformed stored data at load time so corruption
// surfaces as a clear error instead of undefined behavior inside
// aggregation.
func (s *Snapshot) Validate() error {
	for id, exp := range s.Tests {
		if exp == nil {
			return fmt.Errorf("%w: nil experiment %s", core.ErrMalformedSnapshot, id)
		}
		if exp.ID != id {
			return fmt.Errorf("%w: experiment key %s does not match id %s", core.ErrMalformedSnapshot, id, exp.ID)
		}
	}

	for testID, participants := range s.Participants {
		exp, ok := s.Tests[testID]
		if !ok {
			return fmt.Errorf("%w: participants for unknown test %s", core.ErrMalformedSnapshot, testID)
		}
		for _, p := range participants {
			if p == nil {
				return fmt.Errorf("%w: nil participant in test %s", core.ErrMalformedSnapshot, testID)
			}
			if _, ok := exp.Variant(p.VariantID); !ok {
				return fmt.Errorf("%w: participant %s references unknown variant %s in test %s",
					core.ErrMalformedSnapshot, p.UserID, p.VariantID, testID)
			}
		}
	}

	for _, ev := range s.Events {
		if ev == nil {
			return fmt.Errorf("%w: nil event", core.ErrMalformedSnapshot)
		}
		exp, ok := s.Tests[ev.TestID]
		if !ok {
			return fmt.Errorf("%w: event %s for unknown test %s", core.ErrMalformedSnapshot, ev.ID, ev.TestID)
		}
		if _, ok := exp.Variant(ev.VariantID); !ok {
			return fmt.Errorf("%w: event %s references unknown variant %s", core.ErrMalformedSnapshot, ev.ID, ev.VariantID)
		}
	}

	for userID, tests := range s.Assignments {
		for testID, variantID := range tests {
			exp, ok := s.Tests[testID]
			if !ok {
				return fmt.Errorf("%w: assignment for unknown test %s", core.ErrMalformedSnapshot, testID)
			}
			if _, ok := exp.Variant(variantID); !ok {
				return fmt.Errorf("%w: assignment for user %s references unknown variant %s",
					core.ErrMalformedSnapshot, userID, variantID)
			}
		}
	}

	return nil
}

// Normalize fills nil maps so a zero-value or partially decoded snapshot
// is safe to mutate.
func (s *Snapshot) Normalize() {
	if s.Tests == nil {
		s.Tests = make(map[core.TestID]*experiment.Experiment)
	}
	if s.Participants == nil {
		s.Participants = make(map[core.TestID][]*experiment.Participant)
	}
	if s.Assignments == nil {
		s.Assignments = make(map[core.UserID]map[core.TestID]core.VariantID)
	}
}

// Participant returns the participant record for (userID, testID)
func (s *Snapshot) Participant(userID core.UserID, testID core.TestID) (*experiment.Participant, bool) {
	for _, p := range s.Participants[testID] {
		if p.UserID == userID {
			return p, true
		}
	}
	return nil, false
}
