// Package pipeline runs a patient description through intake, triage and
// routing and assembles the resulting case record.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/internal/redact"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/services/agents"
	"github.com/upb/triage-pipeline/services/review"
	"github.com/upb/triage-pipeline/services/stage"
)

// inputExcerptRunes bounds how much of a patient description reaches debug logs
const inputExcerptRunes = 80

// RoutingConfidence is the confidence reported for a deterministic provider match
const RoutingConfidence = 0.88

// Orchestrator runs the three-stage case pipeline
type Orchestrator struct {
	executor   *stage.Executor
	intake     IntakeExtractor
	triage     TriageAssessor
	directory  ProviderDirectory
	slots      SlotFinder
	metrics    observability.Metrics
	thresholds review.Thresholds
	clock      stage.Clock
	logger     *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	executor *stage.Executor,
	intake IntakeExtractor,
	triage TriageAssessor,
	directory ProviderDirectory,
	metrics observability.Metrics,
	logger *zap.Logger,
	cfg Config,
) *Orchestrator {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = stage.SystemClock{}
	}
	return &Orchestrator{
		executor:   executor,
		intake:     intake,
		triage:     triage,
		directory:  directory,
		metrics:    metrics,
		thresholds: cfg.Thresholds,
		clock:      cfg.Clock,
		logger:     logger,
	}
}

// WithSlotFinder sets the appointment slot source used by routing
func (o *Orchestrator) WithSlotFinder(finder SlotFinder) *Orchestrator {
	o.slots = finder
	return o
}

// ValidateInput rejects descriptions that must not enter the pipeline
func ValidateInput(rawInput string) error {
	if strings.TrimSpace(rawInput) == "" {
		return services.ErrEmptyInput
	}
	return nil
}

// NewCaseID returns a fresh case identifier of the form CASE-XXXXXXXX
func NewCaseID() string {
	return "CASE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// ProcessCase runs the pipeline for one patient description. It never returns
// an error: every failure, including a panic inside a stage, is reported as a
// failed CaseResult.
func (o *Orchestrator) ProcessCase(ctx context.Context, rawInput string) (result *models.CaseResult) {
	run := &caseRun{caseID: NewCaseID(), trail: []models.AgentTrace{}}
	ctx = observability.WithCaseID(ctx, run.caseID)
	timestamp := time.Now().UTC()
	start := o.clock.Now()

	o.logger.Info("processing case", zap.String("case_id", run.caseID))
	o.logger.Debug("case input",
		zap.String("case_id", run.caseID),
		zap.Int("input_length", len(rawInput)),
		zap.String("input_excerpt", redact.Excerpt(rawInput, inputExcerptRunes)))

	defer func() {
		if r := recover(); r != nil {
			err := services.WrapSentinel(services.ErrStagePanic, fmt.Errorf("%v", r))
			result = o.fail(ctx, run, timestamp, start, err)
		}
	}()

	// Step 1: intake
	intake, trace, err := o.executor.RunIntake(ctx, func(ctx context.Context) (*models.IntakeOutput, error) {
		return o.intake.Extract(ctx, agents.IntakeRequest{RawInput: rawInput})
	})
	run.record(trace)
	if err != nil {
		return o.fail(ctx, run, timestamp, start, err)
	}
	run.intake = intake

	// Step 2: triage, with rule-based fallback handled by the executor
	triage, trace, err := o.executor.RunTriage(ctx, intake, func(ctx context.Context) (*models.TriageOutput, error) {
		return o.triage.Assess(ctx, agents.TriageRequest{Intake: intake})
	})
	run.record(trace)
	if err != nil {
		return o.fail(ctx, run, timestamp, start, err)
	}
	run.triage = triage

	// Step 3: routing
	candidates, matched := o.candidates(triage.RecommendedSpecialty)
	if len(candidates) == 0 {
		o.logger.Warn("no eligible provider",
			zap.String("case_id", run.caseID),
			zap.String("specialty", triage.RecommendedSpecialty))
		return o.fail(ctx, run, timestamp, start, services.ErrNoEligibleProvider)
	}

	routing, trace, err := o.executor.RunRouting(ctx, func(ctx context.Context) (*models.RoutingOutput, error) {
		return o.route(ctx, triage, candidates, matched)
	})
	run.record(trace)
	if err != nil {
		return o.fail(ctx, run, timestamp, start, err)
	}
	run.routing = routing

	// Step 4: review decision
	decision := review.Decide(intake, triage, routing, o.thresholds)

	result = &models.CaseResult{
		CaseID:              run.caseID,
		Timestamp:           timestamp,
		Status:              models.CaseStatusCompleted,
		Intake:              run.intake,
		Triage:              run.triage,
		Routing:             run.routing,
		AuditTrail:          run.trail,
		TotalDurationMs:     models.DurationMs(o.clock.Since(start)),
		EstimatedCostUSD:    EstimateCost(len(run.trail)),
		RequiresHumanReview: decision.RequiresReview,
		ReviewReasons:       decision.Reasons,
	}

	o.recordCase(ctx, result)

	o.logger.Info("case completed",
		zap.String("case_id", result.CaseID),
		zap.Int("urgency_level", result.UrgencyLevel()),
		zap.Bool("requires_human_review", result.RequiresHumanReview),
		zap.Float64("total_duration_ms", result.TotalDurationMs))

	return result
}

// candidates returns providers of the requested specialty, or general
// practice providers when none match. matched reports whether the specialty
// itself was found.
func (o *Orchestrator) candidates(specialty string) ([]models.Provider, bool) {
	if providers := o.directory.BySpecialty(specialty); len(providers) > 0 {
		return providers, true
	}
	if specialty == models.SpecialtyGeneralPractice {
		return nil, false
	}
	return o.directory.BySpecialty(models.SpecialtyGeneralPractice), false
}

// route selects the first candidate and lists the rest as alternatives
func (o *Orchestrator) route(ctx context.Context, triage *models.TriageOutput, candidates []models.Provider, matched bool) (*models.RoutingOutput, error) {
	primary := candidates[0]

	slots := []models.TimeSlot{}
	if o.slots != nil {
		found, err := o.slots.FindSlots(ctx, primary, triage)
		if err != nil {
			return nil, services.WrapExternal("slot lookup failed", err)
		}
		slots = append(slots, found...)
	}

	var reasoning string
	if matched {
		reasoning = fmt.Sprintf("Matched %s provider %s for urgency level %d (%s)",
			primary.Specialty, primary.Name, triage.UrgencyLevel, triage.RecommendedCareType)
	} else {
		reasoning = fmt.Sprintf("No %s provider available, routed to general practice provider %s for urgency level %d (%s)",
			triage.RecommendedSpecialty, primary.Name, triage.UrgencyLevel, triage.RecommendedCareType)
	}

	return &models.RoutingOutput{
		RecommendedProvider:  primary,
		AvailableSlots:       slots,
		RoutingReasoning:     reasoning,
		AlternativeProviders: append([]models.Provider{}, candidates[1:]...),
		Confidence:           RoutingConfidence,
	}, nil
}

// fail assembles the failed CaseResult with everything gathered so far
func (o *Orchestrator) fail(ctx context.Context, run *caseRun, timestamp, start time.Time, err error) *models.CaseResult {
	msg := err.Error()
	result := &models.CaseResult{
		CaseID:              run.caseID,
		Timestamp:           timestamp,
		Status:              models.CaseStatusFailed,
		Intake:              run.intake,
		Triage:              run.triage,
		Routing:             run.routing,
		AuditTrail:          run.trail,
		TotalDurationMs:     models.DurationMs(o.clock.Since(start)),
		EstimatedCostUSD:    EstimateCost(len(run.trail)),
		RequiresHumanReview: false,
		ReviewReasons:       []string{},
		Error:               &msg,
	}

	o.recordCase(ctx, result)

	o.logger.Error("case failed",
		zap.String("case_id", run.caseID),
		zap.Int("stages_run", len(run.trail)),
		zap.Error(err))

	return result
}

func (o *Orchestrator) recordCase(ctx context.Context, result *models.CaseResult) {
	o.metrics.RecordCase(ctx, observability.CaseMetric{
		CaseID:              result.CaseID,
		Status:              string(result.Status),
		TotalDurationMs:     result.TotalDurationMs,
		UrgencyLevel:        result.UrgencyLevel(),
		RequiresHumanReview: result.RequiresHumanReview,
		EstimatedCostUSD:    result.EstimatedCostUSD,
	})
}
