package stage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/utils"
)

type recordingMetrics struct {
	mu     sync.Mutex
	stages []observability.StageMetric
}

func (r *recordingMetrics) RecordStage(_ context.Context, m observability.StageMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, m)
}

func (r *recordingMetrics) RecordCase(context.Context, observability.CaseMetric) {}

func newTestExecutor(fallback bool) (*Executor, *recordingMetrics) {
	metrics := &recordingMetrics{}
	clock := NewManualClock(time.Unix(0, 0), 5*time.Millisecond)
	return NewExecutor(clock, metrics, zap.NewNop(), Config{EnableFallback: fallback}), metrics
}

func chestPainIntake() *models.IntakeOutput {
	return &models.IntakeOutput{
		Symptoms:       []models.Symptom{{Description: "chest pain"}},
		MedicalHistory: []string{"hypertension"},
		Confidence:     0.95,
	}
}

func TestRunIntake_Success(t *testing.T) {
	exec, metrics := newTestExecutor(true)
	ctx := observability.WithCaseID(context.Background(), "CASE-TEST0001")

	out, trace, err := exec.RunIntake(ctx, func(context.Context) (*models.IntakeOutput, error) {
		return chestPainIntake(), nil
	})

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, models.StageIntake, trace.AgentName)
	assert.True(t, trace.Success)
	assert.Equal(t, 0.95, trace.Confidence)
	assert.Equal(t, 5.0, trace.DurationMs)
	assert.Nil(t, trace.Error)

	require.Len(t, metrics.stages, 1)
	assert.Equal(t, "CASE-TEST0001", metrics.stages[0].CaseID)
	assert.Equal(t, models.StageIntake, metrics.stages[0].Stage)
	assert.True(t, metrics.stages[0].Success)
}

func TestRunIntake_Failure(t *testing.T) {
	tests := []struct {
		name  string
		op    IntakeFunc
		check func(t *testing.T, err error)
	}{
		{
			name: "primary error",
			op: func(context.Context) (*models.IntakeOutput, error) {
				return nil, services.WrapExternal("model request failed", errors.New("timeout"))
			},
			check: func(t *testing.T, err error) { assert.True(t, services.IsExternalError(err)) },
		},
		{
			name: "out of range confidence is not clamped",
			op: func(context.Context) (*models.IntakeOutput, error) {
				return &models.IntakeOutput{Confidence: 1.5}, nil
			},
			check: func(t *testing.T, err error) { assert.True(t, utils.IsValidationError(err)) },
		},
		{
			name: "nil output",
			op:   func(context.Context) (*models.IntakeOutput, error) { return nil, nil },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errNoOutput)
			},
		},
		{
			name: "panic",
			op:   func(context.Context) (*models.IntakeOutput, error) { panic("boom") },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, services.ErrStagePanic)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, metrics := newTestExecutor(true)

			out, trace, err := exec.RunIntake(context.Background(), tt.op)

			require.Error(t, err)
			tt.check(t, err)
			assert.Nil(t, out)
			assert.False(t, trace.Success)
			assert.Equal(t, 0.0, trace.Confidence)
			assert.Equal(t, 5.0, trace.DurationMs)
			require.NotNil(t, trace.Error)
			assert.Equal(t, err.Error(), *trace.Error)
			require.Len(t, metrics.stages, 1)
			assert.False(t, metrics.stages[0].Success)
			assert.Equal(t, err.Error(), metrics.stages[0].Error)
		})
	}
}

func TestRunTriage_PrimarySuccess(t *testing.T) {
	exec, metrics := newTestExecutor(true)

	out, trace, err := exec.RunTriage(context.Background(), chestPainIntake(), func(context.Context) (*models.TriageOutput, error) {
		return &models.TriageOutput{
			UrgencyLevel:         1,
			RecommendedSpecialty: "cardiology",
			RecommendedCareType:  models.CareTypeEmergency,
			Confidence:           0.92,
		}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "cardiology", out.RecommendedSpecialty)
	assert.False(t, trace.FallbackUsed)
	assert.Equal(t, 0.92, trace.Confidence)
	require.Len(t, metrics.stages, 1)
	assert.False(t, metrics.stages[0].FallbackUsed)
}

func TestRunTriage_FallbackOnFailure(t *testing.T) {
	failures := map[string]TriageFunc{
		"model unavailable": func(context.Context) (*models.TriageOutput, error) {
			return nil, services.ErrModelPathDisabled
		},
		"invalid urgency": func(context.Context) (*models.TriageOutput, error) {
			return &models.TriageOutput{UrgencyLevel: 6, RecommendedSpecialty: "x", RecommendedCareType: models.CareTypeRoutine}, nil
		},
		"panic": func(context.Context) (*models.TriageOutput, error) {
			var m map[string]int
			m["x"] = 1
			return nil, nil
		},
	}

	for name, op := range failures {
		t.Run(name, func(t *testing.T) {
			exec, metrics := newTestExecutor(true)

			out, trace, err := exec.RunTriage(context.Background(), chestPainIntake(), op)

			require.NoError(t, err)
			assert.Equal(t, 1, out.UrgencyLevel)
			assert.Equal(t, []string{"chest pain"}, out.RedFlags)
			assert.True(t, out.FallbackUsed)

			assert.True(t, trace.Success)
			assert.True(t, trace.FallbackUsed)
			assert.Equal(t, 0.5, trace.Confidence)
			assert.Nil(t, trace.Error)

			require.Len(t, metrics.stages, 1)
			assert.True(t, metrics.stages[0].Success)
			assert.True(t, metrics.stages[0].FallbackUsed)
		})
	}
}

func TestRunTriage_FallbackDisabled(t *testing.T) {
	exec, metrics := newTestExecutor(false)
	assert.False(t, exec.FallbackEnabled())

	out, trace, err := exec.RunTriage(context.Background(), chestPainIntake(), func(context.Context) (*models.TriageOutput, error) {
		return nil, services.ErrModelUnavailable
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrFallbackDisabled)
	assert.ErrorIs(t, err, services.ErrModelUnavailable)
	assert.Nil(t, out)
	assert.False(t, trace.Success)
	assert.False(t, trace.FallbackUsed)
	require.Len(t, metrics.stages, 1)
}

func TestRunTriage_NilIntake(t *testing.T) {
	exec, _ := newTestExecutor(true)

	_, trace, err := exec.RunTriage(context.Background(), nil, func(context.Context) (*models.TriageOutput, error) {
		t.Fatal("primary attempt must not run without intake")
		return nil, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.False(t, trace.Success)
}

func TestRunRouting(t *testing.T) {
	provider := models.Provider{ID: "p1", Name: "Dr. Cruz", Specialty: "cardiology"}

	t.Run("success", func(t *testing.T) {
		exec, _ := newTestExecutor(true)
		out, trace, err := exec.RunRouting(context.Background(), func(context.Context) (*models.RoutingOutput, error) {
			return &models.RoutingOutput{RecommendedProvider: provider, RoutingReasoning: "match", Confidence: 0.88}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "p1", out.RecommendedProvider.ID)
		assert.Equal(t, 0.88, trace.Confidence)
		assert.NotNil(t, out.AvailableSlots)
	})

	t.Run("failure has no fallback", func(t *testing.T) {
		exec, _ := newTestExecutor(true)
		_, trace, err := exec.RunRouting(context.Background(), func(context.Context) (*models.RoutingOutput, error) {
			return nil, errors.New("slot lookup failed")
		})
		require.Error(t, err)
		assert.False(t, trace.Success)
		assert.Equal(t, "slot lookup failed", *trace.Error)
	})
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(time.Unix(100, 0), time.Second)

	start := clock.Now()
	assert.Equal(t, time.Second, clock.Since(start))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 3*time.Second, clock.Since(start))
}

func TestSystemClock(t *testing.T) {
	var clock SystemClock
	start := clock.Now()
	assert.GreaterOrEqual(t, clock.Since(start), time.Duration(0))
}
