package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggerConfig
		wantErr bool
		level   zapcore.Level
	}{
		{"json info", LoggerConfig{Level: "info", Format: "json"}, false, zapcore.InfoLevel},
		{"console debug", LoggerConfig{Level: "DEBUG", Format: "console"}, false, zapcore.DebugLevel},
		{"default format", LoggerConfig{Level: "warn"}, false, zapcore.WarnLevel},
		{"bad level", LoggerConfig{Level: "loud", Format: "json"}, true, 0},
		{"bad format", LoggerConfig{Level: "info", Format: "xml"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}

func TestLogMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogMetrics(zap.New(core))

	sink.RecordStage(context.Background(), StageMetric{CaseID: "CASE-1", Stage: "triage", DurationMs: 3, Confidence: 0.5, Success: true, FallbackUsed: true})
	sink.RecordCase(context.Background(), CaseMetric{CaseID: "CASE-1", Status: "completed", UrgencyLevel: 1, EstimatedCostUSD: 0.0189})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stage metric", entries[0].Message)
	assert.Equal(t, "triage", entries[0].ContextMap()["stage"])
	assert.Equal(t, true, entries[0].ContextMap()["fallback_used"])
	assert.Equal(t, "case metric", entries[1].Message)
	assert.Equal(t, int64(1), entries[1].ContextMap()["urgency_level"])
}

type countingMetrics struct {
	stages, cases int
}

func (c *countingMetrics) RecordStage(context.Context, StageMetric) { c.stages++ }
func (c *countingMetrics) RecordCase(context.Context, CaseMetric)   { c.cases++ }

func TestMultiMetrics(t *testing.T) {
	a, b := &countingMetrics{}, &countingMetrics{}
	multi := MultiMetrics{a, NopMetrics{}, b}

	multi.RecordStage(context.Background(), StageMetric{})
	multi.RecordStage(context.Background(), StageMetric{})
	multi.RecordCase(context.Background(), CaseMetric{})

	assert.Equal(t, 2, a.stages)
	assert.Equal(t, 2, b.stages)
	assert.Equal(t, 1, a.cases)
	assert.Equal(t, 1, b.cases)
}

func TestCaseIDContext(t *testing.T) {
	assert.Equal(t, "", CaseIDFromContext(context.Background()))

	ctx := WithCaseID(context.Background(), "CASE-0A1B2C3D")
	assert.Equal(t, "CASE-0A1B2C3D", CaseIDFromContext(ctx))
}
