package pipeline

import (
	"context"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services/agents"
	"github.com/upb/triage-pipeline/services/review"
	"github.com/upb/triage-pipeline/services/stage"
)

// IntakeExtractor produces the structured intake for a raw description
type IntakeExtractor interface {
	Extract(ctx context.Context, req agents.IntakeRequest) (*models.IntakeOutput, error)
}

// TriageAssessor is the primary, model-backed triage path
type TriageAssessor interface {
	Assess(ctx context.Context, req agents.TriageRequest) (*models.TriageOutput, error)
}

// ProviderDirectory looks up routing candidates
type ProviderDirectory interface {
	BySpecialty(specialty string) []models.Provider
}

// SlotFinder proposes appointment slots for the selected provider
type SlotFinder interface {
	FindSlots(ctx context.Context, provider models.Provider, triage *models.TriageOutput) ([]models.TimeSlot, error)
}

// Config holds the orchestrator settings resolved at startup
type Config struct {
	Thresholds review.Thresholds
	// Clock measures total case duration; SystemClock when nil
	Clock stage.Clock
}

// DefaultConfig returns the default orchestrator settings
func DefaultConfig() Config {
	return Config{
		Thresholds: review.DefaultThresholds(),
		Clock:      stage.SystemClock{},
	}
}

// caseRun accumulates the state of one pipeline invocation
type caseRun struct {
	caseID  string
	intake  *models.IntakeOutput
	triage  *models.TriageOutput
	routing *models.RoutingOutput
	trail   []models.AgentTrace
}

func (r *caseRun) record(trace models.AgentTrace) {
	r.trail = append(r.trail, trace)
}
