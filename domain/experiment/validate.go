package experiment

import (
	"fmt"
	"math"
	"strings"

	"gosplit/domain/core"
)

// weightTolerance is the floating tolerance on the variant weight sum
const weightTolerance = 0.01

// Validate enforces the creation-time invariants: at least two variants,
// exactly one control, weights summing to 100 within tolerance, each
// weight in [0,100], a non-empty primary metric, audience percentage in
// [0,100] and well-formed guardrails and statistical parameters.
// Experiments are validated once at creation and never re-validated.
func (e *Experiment) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return core.NewValidationError("name", "cannot be empty")
	}

	if len(e.Variants) < 2 {
		return fmt.Errorf("%w, got %d", core.ErrTooFewVariants, len(e.Variants))
	}

	controls := 0
	weightSum := 0.0
	seen := make(map[core.VariantID]bool, len(e.Variants))
	for _, v := range e.Variants {
		if v.IsControl {
			controls++
		}
		if v.Weight < 0 || v.Weight > 100 {
			return core.NewValidationError("variants", fmt.Sprintf("weight %.2f for %q out of [0,100]", v.Weight, v.Name))
		}
		if !v.ID.IsEmpty() {
			if seen[v.ID] {
				return core.NewValidationError("variants", fmt.Sprintf("duplicate variant id %s", v.ID))
			}
			seen[v.ID] = true
		}
		weightSum += v.Weight
	}

	if math.Abs(weightSum-100) > weightTolerance {
		return fmt.Errorf("%w, got %.2f", core.ErrInvalidWeights, weightSum)
	}
	if controls != 1 {
		return fmt.Errorf("%w, got %d", core.ErrControlCount, controls)
	}

	if strings.TrimSpace(e.Metrics.Primary) == "" {
		return core.ErrMissingPrimary
	}

	if e.TargetAudience.Percentage < 0 || e.TargetAudience.Percentage > 100 {
		return core.NewValidationError("target_audience.percentage",
			fmt.Sprintf("%.2f out of [0,100]", e.TargetAudience.Percentage))
	}

	for _, g := range e.Metrics.Guardrails {
		switch g.Operator {
		case OpGreaterThan, OpLessThan, OpEqual:
		default:
			return core.NewValidationError("guardrails", fmt.Sprintf("unknown operator %q", g.Operator))
		}
		if strings.TrimSpace(g.Metric) == "" {
			return core.NewValidationError("guardrails", "metric cannot be empty")
		}
	}

	if a := e.Statistical.SignificanceLevel; a <= 0 || a >= 1 {
		return core.NewValidationError("statistical_config.significance_level",
			fmt.Sprintf("%.3f out of (0,1)", a))
	}
	if p := e.Statistical.Power; p <= 0 || p >= 1 {
		return core.NewValidationError("statistical_config.power",
			fmt.Sprintf("%.3f out of (0,1)", p))
	}
	if e.Statistical.MinimumDetectableEffect <= 0 {
		return core.NewValidationError("statistical_config.minimum_detectable_effect", "must be positive")
	}

	return nil
}
