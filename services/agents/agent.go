// Package agents holds the model-backed intake and triage stages together
// with their typed requests, prompts, reply parsing and the heuristic
// extractor used when the model path is disabled.
package agents

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/services/llm"
)

// Default model call parameters
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
	DefaultTimeout     = 30 * time.Second
)

// IntakeRequest is the input of the intake stage
type IntakeRequest struct {
	RawInput string
}

// TriageRequest is the input of the triage stage
type TriageRequest struct {
	Intake *models.IntakeOutput
}

// Config controls whether and how the model is called
type Config struct {
	EnableModelPath bool
	MaxTokens       int
	Temperature     float64
	Timeout         time.Duration
}

// DefaultConfig returns the default model call settings with the model path off
func DefaultConfig() Config {
	return Config{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// invoker performs bounded model calls shared by the stage agents
type invoker struct {
	client llm.Client
	config Config
	logger *zap.Logger
}

func (i *invoker) enabled() bool {
	return i.config.EnableModelPath
}

// invoke sends one prompt and returns the reply text. Failures are wrapped as
// ErrModelTimeout or ErrModelUnavailable.
func (i *invoker) invoke(ctx context.Context, stage, systemPrompt, prompt string) (string, error) {
	if i.client == nil {
		return "", services.ErrModelUnavailable
	}

	if i.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.config.Timeout)
		defer cancel()
	}

	req := &llm.InvokeRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		MaxTokens:    i.config.MaxTokens,
		Temperature:  i.config.Temperature,
		Metadata:     map[string]string{"stage": stage},
	}
	if caseID := observability.CaseIDFromContext(ctx); caseID != "" {
		req.Metadata["case_id"] = caseID
	}

	resp, err := i.client.Invoke(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.WrapSentinel(services.ErrModelTimeout, err)
		}
		return "", services.WrapSentinel(services.ErrModelUnavailable, err)
	}

	i.logger.Debug("model call completed",
		zap.String("case_id", observability.CaseIDFromContext(ctx)),
		zap.String("stage", stage),
		zap.String("provider", i.client.Name()),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens()),
		zap.Duration("latency", resp.Latency))

	return resp.Text, nil
}
