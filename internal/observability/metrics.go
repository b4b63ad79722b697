package observability

import (
	"context"

	"go.uber.org/zap"
)

// Metrics receives pipeline measurements. Implementations must not block
// the caller for long and must swallow their own failures.
type Metrics interface {
	RecordStage(ctx context.Context, m StageMetric)
	RecordCase(ctx context.Context, m CaseMetric)
}

// StageMetric is emitted once per stage invocation
type StageMetric struct {
	CaseID       string
	Stage        string
	DurationMs   float64
	Confidence   float64
	Success      bool
	FallbackUsed bool
	Error        string // set when Success is false
}

// CaseMetric is emitted once per pipeline run
type CaseMetric struct {
	CaseID              string
	Status              string
	TotalDurationMs     float64
	UrgencyLevel        int // 0 when triage was not reached
	RequiresHumanReview bool
	EstimatedCostUSD    float64
}

// LogMetrics writes metrics as structured log entries
type LogMetrics struct {
	logger *zap.Logger
}

// NewLogMetrics creates a log-backed metrics sink
func NewLogMetrics(logger *zap.Logger) *LogMetrics {
	return &LogMetrics{logger: logger.Named("metrics")}
}

// RecordStage implements Metrics
func (l *LogMetrics) RecordStage(_ context.Context, m StageMetric) {
	l.logger.Info("stage metric",
		zap.String("case_id", m.CaseID),
		zap.String("stage", m.Stage),
		zap.Float64("duration_ms", m.DurationMs),
		zap.Float64("confidence", m.Confidence),
		zap.Bool("success", m.Success),
		zap.Bool("fallback_used", m.FallbackUsed),
		zap.String("error", m.Error))
}

// RecordCase implements Metrics
func (l *LogMetrics) RecordCase(_ context.Context, m CaseMetric) {
	l.logger.Info("case metric",
		zap.String("case_id", m.CaseID),
		zap.String("status", m.Status),
		zap.Float64("total_duration_ms", m.TotalDurationMs),
		zap.Int("urgency_level", m.UrgencyLevel),
		zap.Bool("requires_human_review", m.RequiresHumanReview),
		zap.Float64("estimated_cost_usd", m.EstimatedCostUSD))
}

// NopMetrics discards everything
type NopMetrics struct{}

// RecordStage implements Metrics
func (NopMetrics) RecordStage(context.Context, StageMetric) {}

// RecordCase implements Metrics
func (NopMetrics) RecordCase(context.Context, CaseMetric) {}

// MultiMetrics fans every record out to several sinks
type MultiMetrics []Metrics

// RecordStage implements Metrics
func (mm MultiMetrics) RecordStage(ctx context.Context, m StageMetric) {
	for _, sink := range mm {
		sink.RecordStage(ctx, m)
	}
}

// RecordCase implements Metrics
func (mm MultiMetrics) RecordCase(ctx context.Context, m CaseMetric) {
	for _, sink := range mm {
		sink.RecordCase(ctx, m)
	}
}
