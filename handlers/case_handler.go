package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/middleware"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/repositories"
	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/utils"
)

// maxBodyBytes caps the size of a submitted case
const maxBodyBytes = 1 << 20

// CreateCaseRequest is the body of POST /api/v1/cases
type CreateCaseRequest struct {
	PatientInput string `json:"patient_input" validate:"notblank"`
}

// CaseProcessor runs one case through the pipeline
type CaseProcessor interface {
	ProcessCase(ctx context.Context, rawInput string) *models.CaseResult
}

// CaseHandler handles case submission
type CaseHandler struct {
	processor CaseProcessor
	metrics   repositories.MetricsRepository
	logger    *zap.Logger
}

// NewCaseHandler creates a new CaseHandler. metrics may be nil when no
// metric store is configured.
func NewCaseHandler(processor CaseProcessor, metrics repositories.MetricsRepository, logger *zap.Logger) *CaseHandler {
	return &CaseHandler{
		processor: processor,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleCreateCase handles POST /api/v1/cases
func (h *CaseHandler) HandleCreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.RequestID(ctx)

	var req CreateCaseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("invalid request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result := h.processor.ProcessCase(ctx, req.PatientInput)

	status := http.StatusOK
	if !result.IsCompleted() {
		status = http.StatusInternalServerError
	}

	h.logger.Info("case processed",
		zap.String("request_id", requestID),
		zap.String("caller", middleware.Caller(ctx)),
		zap.String("case_id", result.CaseID),
		zap.String("status", string(result.Status)),
		zap.Bool("requires_human_review", result.RequiresHumanReview))

	if err := utils.WriteData(w, status, result); err != nil {
		h.logger.Error("failed to write case response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleCaseMetrics handles GET /api/v1/cases/{caseID}/metrics
func (h *CaseHandler) HandleCaseMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeUnavailable, "metric store not configured", nil), h.logger)
		return
	}

	caseID := chi.URLParam(r, "caseID")
	events, err := h.metrics.ListByCase(r.Context(), caseID)
	if err != nil {
		HandleServiceError(w, services.WrapSentinel(services.ErrDatabaseError, err), h.logger)
		return
	}
	if len(events) == 0 {
		_ = utils.WriteNotFound(w, "No metrics recorded for case "+caseID)
		return
	}

	_ = utils.WriteOK(w, events)
}
