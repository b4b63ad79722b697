package models

import (
	"time"

	"github.com/upb/triage-pipeline/utils"
)

// Stage names recorded in the audit trail
const (
	StageIntake  = "intake"
	StageTriage  = "triage"
	StageRouting = "routing"
)

// CaseStatus represents the terminal outcome of a pipeline run
type CaseStatus string

const (
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusFailed    CaseStatus = "failed"
)

// AgentTrace records one stage invocation
type AgentTrace struct {
	AgentName    string  `json:"agent_name" validate:"required"`
	DurationMs   float64 `json:"duration_ms" validate:"gte=0"`
	Confidence   float64 `json:"confidence" validate:"gte=0,lte=1"`
	Success      bool    `json:"success"`
	Error        *string `json:"error"`
	FallbackUsed bool    `json:"fallback_used"`
}

// NewAgentTrace builds a validated trace. A non-nil stageErr is recorded as
// the trace's error message.
func NewAgentTrace(name string, duration time.Duration, confidence float64, success, fallbackUsed bool, stageErr error) (AgentTrace, error) {
	trace := AgentTrace{
		AgentName:    name,
		DurationMs:   DurationMs(duration),
		Confidence:   confidence,
		Success:      success,
		FallbackUsed: fallbackUsed,
	}
	if stageErr != nil {
		msg := stageErr.Error()
		trace.Error = &msg
	}
	if err := utils.ValidateStruct(trace); err != nil {
		return AgentTrace{}, err
	}
	return trace, nil
}

// CaseResult is the final artifact of one pipeline run
type CaseResult struct {
	CaseID              string         `json:"case_id"`
	Timestamp           time.Time      `json:"timestamp"`
	Status              CaseStatus     `json:"status"`
	Intake              *IntakeOutput  `json:"intake"`
	Triage              *TriageOutput  `json:"triage"`
	Routing             *RoutingOutput `json:"routing"`
	AuditTrail          []AgentTrace   `json:"audit_trail"`
	TotalDurationMs     float64        `json:"total_duration_ms"`
	EstimatedCostUSD    float64        `json:"estimated_cost_usd"`
	RequiresHumanReview bool           `json:"requires_human_review"`
	ReviewReasons       []string       `json:"review_reasons"`
	Error               *string        `json:"error"`
}

// IsCompleted reports whether the run reached the end of the pipeline
func (c *CaseResult) IsCompleted() bool {
	return c.Status == CaseStatusCompleted
}

// UrgencyLevel returns the triage urgency, or 0 when triage was not reached
func (c *CaseResult) UrgencyLevel() int {
	if c.Triage == nil {
		return 0
	}
	return c.Triage.UrgencyLevel
}

// DurationMs converts a duration to fractional milliseconds
func DurationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
