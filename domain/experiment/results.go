package experiment

import (
	"gosplit/domain/core"
)

// Recommendation is the aggregate ship/no-ship decision
type Recommendation string

const (
	RecommendImplementWinner Recommendation = "implement_winner"
	RecommendInconclusive    Recommendation = "inconclusive"
	RecommendContinueTest    Recommendation = "continue_test"
)

// MetricResult is one cell of the per-variant metric table
type MetricResult struct {
	Exposures              int     `json:"exposures"`
	Conversions            int     `json:"conversions"`
	Value                  float64 `json:"value"`
	StandardError          float64 `json:"standard_error"`
	ConfidenceIntervalLow  float64 `json:"confidence_interval_low"`
	ConfidenceIntervalHigh float64 `json:"confidence_interval_high"`
	PValue                 float64 `json:"p_value"`
	Confidence             float64 `json:"confidence"`
	ImprovementPct         float64 `json:"improvement_pct"`
	SignificantlyDifferent bool    `json:"significantly_different"`
}

// VariantResult holds the metric table for a single variant
type VariantResult struct {
	VariantID core.VariantID          `json:"variant_id"`
	Name      string                  `json:"name"`
	IsControl bool                    `json:"is_control"`
	Metrics   map[string]MetricResult `json:"metrics"`
}

// Winner identifies the variant to ship, if any
type Winner struct {
	VariantID  core.VariantID `json:"variant_id"`
	Confidence float64        `json:"confidence"`
	Improvement float64       `json:"improvement"`
	Metric     string         `json:"metric"`
}

// StatisticalSummary condenses the evaluation into one decision
type StatisticalSummary struct {
	IsStatisticallySignificant bool           `json:"is_statistically_significant"`
	ConfidenceLevel            float64        `json:"confidence_level"`
	Effect                     float64        `json:"effect"`
	Recommendation             Recommendation `json:"recommendation"`
}

// Results is derived from participants and events, recomputed on demand
// and never stored independently. Absence of data is a valid state: a
// zero-participant experiment yields zero counts and no winner.
type Results struct {
	TestID           core.TestID        `json:"test_id"`
	DurationDays     float64            `json:"duration_days"`
	ParticipantCount int                `json:"participant_count"`
	Variants         []VariantResult    `json:"variants"`
	Winner           *Winner            `json:"winner,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	Summary          StatisticalSummary `json:"statistical_summary"`
	ComputedAt       core.Timestamp     `json:"computed_at"`
}
