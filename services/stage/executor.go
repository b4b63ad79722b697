// Package stage wraps a single pipeline stage: it times the primary attempt,
// validates its output, records a trace and metric, and substitutes the rule
// engine when the triage attempt fails.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/services/rules"
)

// IntakeFunc is the primary intake attempt
type IntakeFunc func(ctx context.Context) (*models.IntakeOutput, error)

// TriageFunc is the primary triage attempt
type TriageFunc func(ctx context.Context) (*models.TriageOutput, error)

// RoutingFunc is the routing attempt
type RoutingFunc func(ctx context.Context) (*models.RoutingOutput, error)

var errNoOutput = errors.New("stage returned no output")

// Config holds executor settings
type Config struct {
	EnableFallback bool
}

// Executor runs stages and produces their audit traces
type Executor struct {
	clock          Clock
	metrics        observability.Metrics
	logger         *zap.Logger
	enableFallback bool
}

// NewExecutor creates a new Executor
func NewExecutor(clock Clock, metrics observability.Metrics, logger *zap.Logger, cfg Config) *Executor {
	if clock == nil {
		clock = SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Executor{
		clock:          clock,
		metrics:        metrics,
		logger:         logger,
		enableFallback: cfg.EnableFallback,
	}
}

// FallbackEnabled reports whether triage failures are recovered by the rule engine
func (e *Executor) FallbackEnabled() bool {
	return e.enableFallback
}

// RunIntake runs the intake stage. Intake has no fallback: a failure is
// returned together with its failed trace.
func (e *Executor) RunIntake(ctx context.Context, op IntakeFunc) (*models.IntakeOutput, models.AgentTrace, error) {
	start := e.clock.Now()

	var out *models.IntakeOutput
	err := guard(func() error {
		var opErr error
		if out, opErr = op(ctx); opErr != nil {
			return opErr
		}
		if out == nil {
			return errNoOutput
		}
		return out.Validate()
	})

	elapsed := e.clock.Since(start)
	if err != nil {
		return nil, e.failure(ctx, models.StageIntake, elapsed, err), err
	}

	trace, err := e.success(ctx, models.StageIntake, elapsed, out.Confidence, false)
	if err != nil {
		return nil, trace, err
	}
	return out, trace, nil
}

// RunTriage runs the triage stage. When the primary attempt fails and
// fallback is enabled, the rule engine result over the intake's symptoms and
// history is returned with a successful trace marked fallback_used.
func (e *Executor) RunTriage(ctx context.Context, intake *models.IntakeOutput, op TriageFunc) (*models.TriageOutput, models.AgentTrace, error) {
	start := e.clock.Now()

	if intake == nil {
		err := services.WrapSentinel(services.ErrInvalidInput, errors.New("triage requires an intake output"))
		return nil, e.failure(ctx, models.StageTriage, e.clock.Since(start), err), err
	}

	var out *models.TriageOutput
	err := guard(func() error {
		var opErr error
		if out, opErr = op(ctx); opErr != nil {
			return opErr
		}
		if out == nil {
			return errNoOutput
		}
		return out.Validate()
	})

	if err == nil {
		trace, traceErr := e.success(ctx, models.StageTriage, e.clock.Since(start), out.Confidence, out.FallbackUsed)
		if traceErr != nil {
			return nil, trace, traceErr
		}
		return out, trace, nil
	}

	if !e.enableFallback {
		err = services.WrapSentinel(services.ErrFallbackDisabled, err)
		return nil, e.failure(ctx, models.StageTriage, e.clock.Since(start), err), err
	}

	e.logger.Warn("triage primary path failed, using rule-based fallback",
		zap.String("case_id", observability.CaseIDFromContext(ctx)),
		zap.Error(err))

	fallback := rules.Classify(intake.SymptomDescriptions(), intake.MedicalHistory)
	if vErr := fallback.Validate(); vErr != nil {
		return nil, e.failure(ctx, models.StageTriage, e.clock.Since(start), vErr), vErr
	}

	trace, err := e.success(ctx, models.StageTriage, e.clock.Since(start), fallback.Confidence, true)
	if err != nil {
		return nil, trace, err
	}
	return &fallback, trace, nil
}

// RunRouting runs the routing stage. Routing has no fallback.
func (e *Executor) RunRouting(ctx context.Context, op RoutingFunc) (*models.RoutingOutput, models.AgentTrace, error) {
	start := e.clock.Now()

	var out *models.RoutingOutput
	err := guard(func() error {
		var opErr error
		if out, opErr = op(ctx); opErr != nil {
			return opErr
		}
		if out == nil {
			return errNoOutput
		}
		return out.Validate()
	})

	elapsed := e.clock.Since(start)
	if err != nil {
		return nil, e.failure(ctx, models.StageRouting, elapsed, err), err
	}

	trace, err := e.success(ctx, models.StageRouting, elapsed, out.Confidence, false)
	if err != nil {
		return nil, trace, err
	}
	return out, trace, nil
}

// success builds the trace for a completed stage and emits its metric. A
// trace that fails validation is downgraded to a failure.
func (e *Executor) success(ctx context.Context, stage string, elapsed time.Duration, confidence float64, fallbackUsed bool) (models.AgentTrace, error) {
	trace, err := models.NewAgentTrace(stage, elapsed, confidence, true, fallbackUsed, nil)
	if err != nil {
		return e.failure(ctx, stage, elapsed, err), err
	}

	e.metrics.RecordStage(ctx, observability.StageMetric{
		CaseID:       observability.CaseIDFromContext(ctx),
		Stage:        stage,
		DurationMs:   trace.DurationMs,
		Confidence:   trace.Confidence,
		Success:      true,
		FallbackUsed: fallbackUsed,
	})

	e.logger.Debug("stage completed",
		zap.String("case_id", observability.CaseIDFromContext(ctx)),
		zap.String("stage", stage),
		zap.Float64("duration_ms", trace.DurationMs),
		zap.Float64("confidence", confidence),
		zap.Bool("fallback_used", fallbackUsed))

	return trace, nil
}

// failure builds the trace for a failed stage and emits its metric
func (e *Executor) failure(ctx context.Context, stage string, elapsed time.Duration, stageErr error) models.AgentTrace {
	if elapsed < 0 {
		elapsed = 0
	}
	msg := stageErr.Error()
	trace := models.AgentTrace{
		AgentName:  stage,
		DurationMs: models.DurationMs(elapsed),
		Confidence: 0,
		Success:    false,
		Error:      &msg,
	}

	e.metrics.RecordStage(ctx, observability.StageMetric{
		CaseID:     observability.CaseIDFromContext(ctx),
		Stage:      stage,
		DurationMs: trace.DurationMs,
		Success:    false,
		Error:      msg,
	})

	e.logger.Warn("stage failed",
		zap.String("case_id", observability.CaseIDFromContext(ctx)),
		zap.String("stage", stage),
		zap.Float64("duration_ms", trace.DurationMs),
		zap.Error(stageErr))

	return trace
}

// guard runs fn and converts a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.WrapSentinel(services.ErrStagePanic, fmt.Errorf("%v", r))
		}
	}()
	return fn()
}
