package experiment

import (
	"gosplit/domain/core"
)

// Conversion is one recorded conversion for a participant
type Conversion struct {
	Metric    string         `json:"metric"`
	Value     float64        `json:"value"`
	Timestamp core.Timestamp `json:"timestamp"`
}

// Participant records a confirmed (user, test) assignment. At most one
// participant exists per pair; assignment is idempotent and memoized
// through this record.
type Participant struct {
	UserID        core.UserID       `json:"user_id"`
	TestID        core.TestID       `json:"test_id"`
	VariantID     core.VariantID    `json:"variant_id"`
	AssignedAt    core.Timestamp    `json:"assigned_at"`
	FirstExposure *core.Timestamp   `json:"first_exposure,omitempty"`
	Conversions   []Conversion      `json:"conversions,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EventType classifies tracked events. The set is closed: classification
// is decided once inside the collector, never inferred downstream.
type EventType string

const (
	EventExposure   EventType = "exposure"
	EventConversion EventType = "conversion"
	EventCustom     EventType = "custom"
)

// ExposureEventName is the canonical "first view" event name
const ExposureEventName = "exposure"

// Event is one append-only log entry. Events are never mutated or
// deleted by the core.
type Event struct {
	ID         core.EventID       `json:"id"`
	TestID     core.TestID        `json:"test_id"`
	VariantID  core.VariantID     `json:"variant_id"`
	UserID     core.UserID        `json:"user_id"`
	Type       EventType          `json:"type"`
	Name       string             `json:"name"`
	Value      float64            `json:"value"`
	Timestamp  core.Timestamp     `json:"timestamp"`
	Properties map[string]string  `json:"properties,omitempty"`
}

// Classify determines the event type for a tracked event name against
// the experiment's configured metrics.
func (m Metrics) Classify(name string) EventType {
	if name == ExposureEventName {
		return EventExposure
	}
	if m.IsConversionMetric(name) {
		return EventConversion
	}
	return EventCustom
}
