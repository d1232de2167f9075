package snapshot

import (
	"gosplit/domain/core"
	"gosplit/domain/experiment"
)

// Clone produces a structural copy deep enough to hand to a store
// adapter while the original keeps mutating: experiments and
// participants are copied record by record, events are shared because
// the log is append-only and entries are never rewritten.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Tests:        make(map[core.TestID]*experiment.Experiment, len(s.Tests)),
		Participants: make(map[core.TestID][]*experiment.Participant, len(s.Participants)),
		Events:       make([]*experiment.Event, len(s.Events)),
		Assignments:  make(map[core.UserID]map[core.TestID]core.VariantID, len(s.Assignments)),
	}

	for id, exp := range s.Tests {
		cp := *exp
		cp.Variants = append([]experiment.Variant(nil), exp.Variants...)
		cp.Metrics.Secondary = append([]string(nil), exp.Metrics.Secondary...)
		cp.Metrics.Guardrails = append([]experiment.Guardrail(nil), exp.Metrics.Guardrails...)
		if exp.EndDate != nil {
			end := *exp.EndDate
			cp.EndDate = &end
		}
		if exp.Results != nil {
			res := *exp.Results
			res.Variants = append([]experiment.VariantResult(nil), exp.Results.Variants...)
			res.Recommendations = append([]string(nil), exp.Results.Recommendations...)
			cp.Results = &res
		}
		out.Tests[id] = &cp
	}

	for id, participants := range s.Participants {
		cps := make([]*experiment.Participant, len(participants))
		for i, p := range participants {
			cp := *p
			cp.Conversions = append([]experiment.Conversion(nil), p.Conversions...)
			if p.FirstExposure != nil {
				fe := *p.FirstExposure
				cp.FirstExposure = &fe
			}
			cps[i] = &cp
		}
		out.Participants[id] = cps
	}

	copy(out.Events, s.Events)

	for userID, tests := range s.Assignments {
		cp := make(map[core.TestID]core.VariantID, len(tests))
		for testID, variantID := range tests {
			cp[testID] = variantID
		}
		out.Assignments[userID] = cp
	}

	return out
}
