package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MetricKind distinguishes per-stage records from per-case records
type MetricKind string

const (
	MetricKindStage MetricKind = "stage"
	MetricKindCase  MetricKind = "case"
)

// MetricEvent is a persisted pipeline metric record
type MetricEvent struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	CaseID     string          `json:"case_id" db:"case_id"`
	Kind       MetricKind      `json:"kind" db:"kind"`
	DurationMs float64         `json:"duration_ms" db:"duration_ms"`
	Details    json.RawMessage `json:"details" db:"details"` // JSONB for extra dimensions
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`

	// Stage fields
	Stage        *string  `json:"stage,omitempty" db:"stage"`
	Confidence   *float64 `json:"confidence,omitempty" db:"confidence"`
	Success      *bool    `json:"success,omitempty" db:"success"`
	FallbackUsed *bool    `json:"fallback_used,omitempty" db:"fallback_used"`

	// Case fields
	UrgencyLevel        *int     `json:"urgency_level,omitempty" db:"urgency_level"`
	RequiresHumanReview *bool    `json:"requires_human_review,omitempty" db:"requires_human_review"`
	EstimatedCostUSD    *float64 `json:"estimated_cost_usd,omitempty" db:"estimated_cost_usd"`
	Status              *string  `json:"status,omitempty" db:"status"`
}

// TableName returns the table name for the MetricEvent model
func (MetricEvent) TableName() string {
	return "pipeline_metrics"
}

// NewMetricEvent creates a new MetricEvent instance
func NewMetricEvent(caseID string, kind MetricKind, durationMs float64) *MetricEvent {
	return &MetricEvent{
		ID:         uuid.New(),
		CaseID:     caseID,
		Kind:       kind,
		DurationMs: durationMs,
		RecordedAt: time.Now().UTC(),
	}
}

// WithStage sets the per-stage fields
func (m *MetricEvent) WithStage(stage string, confidence float64, success, fallbackUsed bool) *MetricEvent {
	m.Stage = &stage
	m.Confidence = &confidence
	m.Success = &success
	m.FallbackUsed = &fallbackUsed
	return m
}

// WithCase sets the per-case fields
func (m *MetricEvent) WithCase(status CaseStatus, urgencyLevel int, requiresReview bool, costUSD float64) *MetricEvent {
	s := string(status)
	m.Status = &s
	m.UrgencyLevel = &urgencyLevel
	m.RequiresHumanReview = &requiresReview
	m.EstimatedCostUSD = &costUSD
	return m
}

// WithDetails sets the details
func (m *MetricEvent) WithDetails(details interface{}) *MetricEvent {
	if data, err := json.Marshal(details); err == nil {
		m.Details = data
	}
	return m
}
