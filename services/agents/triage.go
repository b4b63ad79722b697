package agents

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/services/llm"
)

// TriageAgent classifies urgency with the model
type TriageAgent struct {
	invoker
}

// NewTriageAgent creates a new TriageAgent
func NewTriageAgent(client llm.Client, config Config, logger *zap.Logger) *TriageAgent {
	return &TriageAgent{invoker{client: client, config: config, logger: logger}}
}

// Assess runs model-backed triage. It returns ErrModelPathDisabled when the
// model path is off so the caller can apply its fallback.
func (a *TriageAgent) Assess(ctx context.Context, req TriageRequest) (*models.TriageOutput, error) {
	if !a.enabled() {
		return nil, services.ErrModelPathDisabled
	}
	if req.Intake == nil {
		return nil, services.ErrInvalidInput
	}

	payload, err := json.Marshal(req.Intake)
	if err != nil {
		return nil, services.WrapInternal("failed to encode intake", err)
	}

	text, err := a.invoke(ctx, models.StageTriage, TriageSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var out models.TriageOutput
	if err := decodeModelJSON(text, &out); err != nil {
		return nil, err
	}
	// fallback_used is owned by the executor, never by the model
	out.FallbackUsed = false
	if err := out.Validate(); err != nil {
		return nil, services.WrapSentinel(services.ErrMalformedModelOutput, err)
	}
	return &out, nil
}
