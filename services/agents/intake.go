package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/services/llm"
)

// IntakeAgent turns raw patient text into an IntakeOutput
type IntakeAgent struct {
	invoker
}

// NewIntakeAgent creates a new IntakeAgent. client may be nil when the model
// path is disabled.
func NewIntakeAgent(client llm.Client, config Config, logger *zap.Logger) *IntakeAgent {
	return &IntakeAgent{invoker{client: client, config: config, logger: logger}}
}

// Extract runs intake. With the model path disabled the heuristic extractor
// is used; otherwise the model reply is parsed and validated, and any failure
// is returned to the caller.
func (a *IntakeAgent) Extract(ctx context.Context, req IntakeRequest) (*models.IntakeOutput, error) {
	if !a.enabled() {
		return ExtractHeuristic(req.RawInput), nil
	}

	text, err := a.invoke(ctx, models.StageIntake, IntakeSystemPrompt, req.RawInput)
	if err != nil {
		return nil, err
	}

	var out models.IntakeOutput
	if err := decodeModelJSON(text, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, services.WrapSentinel(services.ErrMalformedModelOutput, err)
	}
	return &out, nil
}
