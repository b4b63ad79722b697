// Package review decides whether a processed case needs a human reviewer.
package review

import (
	"fmt"
	"strings"

	"github.com/upb/triage-pipeline/models"
)

// Default thresholds
const (
	DefaultConfidenceThreshold = 0.70
	DefaultUrgencyThreshold    = 2
)

// Thresholds configures the review rules
type Thresholds struct {
	// Any stage confidence strictly below this triggers review
	Confidence float64
	// Urgency levels at or below this (more urgent) trigger review
	Urgency int
}

// DefaultThresholds returns the production thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Confidence: DefaultConfidenceThreshold,
		Urgency:    DefaultUrgencyThreshold,
	}
}

// Decision is the outcome of the review rules
type Decision struct {
	RequiresReview bool
	Reasons        []string
}

// Decide evaluates the review rules in fixed order. Reasons appear in rule
// order and RequiresReview is true iff at least one rule fired.
func Decide(intake *models.IntakeOutput, triage *models.TriageOutput, routing *models.RoutingOutput, th Thresholds) Decision {
	reasons := []string{}

	if triage.UrgencyLevel <= th.Urgency {
		reasons = append(reasons, fmt.Sprintf("High urgency level: %d", triage.UrgencyLevel))
	}
	if intake.Confidence < th.Confidence {
		reasons = append(reasons, fmt.Sprintf("Low intake confidence: %.2f", intake.Confidence))
	}
	if triage.Confidence < th.Confidence {
		reasons = append(reasons, fmt.Sprintf("Low triage confidence: %.2f", triage.Confidence))
	}
	if routing.Confidence < th.Confidence {
		reasons = append(reasons, fmt.Sprintf("Low routing confidence: %.2f", routing.Confidence))
	}
	if triage.FallbackUsed {
		reasons = append(reasons, "Rule-based fallback was used - LLM unavailable")
	}
	if len(triage.RedFlags) > 0 {
		reasons = append(reasons, "Red flags detected: "+strings.Join(triage.RedFlags, ", "))
	}

	return Decision{
		RequiresReview: len(reasons) > 0,
		Reasons:        reasons,
	}
}
