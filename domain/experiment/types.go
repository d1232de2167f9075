package experiment

import (
	"gosplit/domain/core"
)

// Status represents the experiment lifecycle state
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// CanTransition reports whether a lifecycle transition is legal.
// draft -> running, running <-> paused, running -> completed,
// completed -> archived. Only a running experiment can be stopped; a
// paused one must resume first.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusPaused || to == StatusCompleted
	case StatusPaused:
		return to == StatusRunning
	case StatusCompleted:
		return to == StatusArchived
	default:
		return false
	}
}

// ConfigKind discriminates typed variant config values
type ConfigKind string

const (
	ConfigBool   ConfigKind = "bool"
	ConfigNumber ConfigKind = "number"
	ConfigString ConfigKind = "string"
)

// ConfigValue is a typed variant configuration override. A closed union
// keeps variant config statically checkable without losing flexibility.
type ConfigValue struct {
	Kind   ConfigKind `json:"kind"`
	Bool   bool       `json:"bool,omitempty"`
	Number float64    `json:"number,omitempty"`
	String string     `json:"string,omitempty"`
}

func BoolValue(v bool) ConfigValue      { return ConfigValue{Kind: ConfigBool, Bool: v} }
func NumberValue(v float64) ConfigValue { return ConfigValue{Kind: ConfigNumber, Number: v} }
func StringValue(v string) ConfigValue  { return ConfigValue{Kind: ConfigString, String: v} }

// Variant is one arm of an experiment, including the control.
// Immutable once the parent experiment leaves draft.
type Variant struct {
	ID          core.VariantID         `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Weight      float64                `json:"weight"`
	Config      map[string]ConfigValue `json:"config,omitempty"`
	IsControl   bool                   `json:"is_control"`
}

// TargetAudience defines who is eligible for assignment
type TargetAudience struct {
	Percentage      float64           `json:"percentage"`
	IncludeSegments []string          `json:"include_segments,omitempty"`
	ExcludeSegments []string          `json:"exclude_segments,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
}

// GuardrailOperator is the comparison applied to a guardrail metric
type GuardrailOperator string

const (
	OpGreaterThan GuardrailOperator = "gt"
	OpLessThan    GuardrailOperator = "lt"
	OpEqual       GuardrailOperator = "eq"
)

// Guardrail is a secondary metric that must not cross a threshold
// regardless of primary-metric performance.
type Guardrail struct {
	Metric    string            `json:"metric"`
	Operator  GuardrailOperator `json:"operator"`
	Threshold float64           `json:"threshold"`
}

// Metrics names what the experiment tracks
type Metrics struct {
	Primary    string      `json:"primary"`
	Secondary  []string    `json:"secondary,omitempty"`
	Guardrails []Guardrail `json:"guardrails,omitempty"`
}

// TrackedMetrics returns primary plus secondary metric names in order
func (m Metrics) TrackedMetrics() []string {
	out := make([]string, 0, 1+len(m.Secondary))
	out = append(out, m.Primary)
	out = append(out, m.Secondary...)
	return out
}

// IsConversionMetric reports whether name matches a tracked metric
func (m Metrics) IsConversionMetric(name string) bool {
	if name == m.Primary {
		return true
	}
	for _, s := range m.Secondary {
		if name == s {
			return true
		}
	}
	return false
}

// StatisticalConfig holds the frequentist test parameters.
// MinimumSampleSize is derived at start, never user-supplied.
type StatisticalConfig struct {
	SignificanceLevel       float64 `json:"significance_level"`
	Power                   float64 `json:"power"`
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect"`
	BaselineRate            float64 `json:"baseline_rate,omitempty"`
	MinimumSampleSize       int     `json:"minimum_sample_size,omitempty"`
}

// DefaultStatisticalConfig matches the conventional 0.05/0.8/10% setup
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		SignificanceLevel:       0.05,
		Power:                   0.8,
		MinimumDetectableEffect: 0.1,
		BaselineRate:            0.05,
	}
}

// Experiment is a configured comparison between two or more variants
// aimed at optimizing one primary metric. Created once and immutable
// except for Status, EndDate, Results and the derived MinimumSampleSize.
type Experiment struct {
	ID             core.TestID       `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Status         Status            `json:"status"`
	StartDate      core.Timestamp    `json:"start_date,omitempty"`
	EndDate        *core.Timestamp   `json:"end_date,omitempty"`
	TargetAudience TargetAudience    `json:"target_audience"`
	Variants       []Variant         `json:"variants"`
	Metrics        Metrics           `json:"metrics"`
	Statistical    StatisticalConfig `json:"statistical_config"`
	Results        *Results          `json:"results,omitempty"`
	StopReason     string            `json:"stop_reason,omitempty"`
	CreatedAt      core.Timestamp    `json:"created_at"`
}

// Control returns the control variant. Validation guarantees exactly one
// exists, so the zero Variant is only returned for unvalidated input.
func (e *Experiment) Control() Variant {
	for _, v := range e.Variants {
		if v.IsControl {
			return v
		}
	}
	return Variant{}
}

// Variant returns the variant with the given id
func (e *Experiment) Variant(id core.VariantID) (Variant, bool) {
	for _, v := range e.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// SelectVariant walks cumulative weights in declared order and returns
// the first variant whose cumulative weight exceeds the bucket value.
// Falls back to the control variant if floating rounding leaves the
// bucket uncovered.
func (e *Experiment) SelectVariant(bucket int) Variant {
	cumulative := 0.0
	for _, v := range e.Variants {
		cumulative += v.Weight
		if float64(bucket) < cumulative {
			return v
		}
	}
	return e.Control()
}
