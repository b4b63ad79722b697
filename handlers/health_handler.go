package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/services/metricstore"
	"github.com/upb/triage-pipeline/utils"
)

const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker verifies database connectivity
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// MetricStoreStatus reports the asynchronous metric store's counters
type MetricStoreStatus interface {
	GetStats() metricstore.Stats
}

// ReadinessInfo describes what the readiness probe inspects. DB and Store are
// nil when no database is configured.
type ReadinessInfo struct {
	DB               DatabaseChecker
	Store            MetricStoreStatus
	DirectorySize    int
	ModelPathEnabled bool
	ModelProvider    string
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	info   ReadinessInfo
	logger *zap.Logger
}

func NewHealthHandler(info ReadinessInfo, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{info: info, logger: logger}
}

// HandleHealth handles GET /healthz; 200 whenever the process serves HTTP
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz. The service is ready when it has
// providers to route to and every configured persistence component is up.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"providers":  strconv.Itoa(h.info.DirectorySize),
		"model_path": "disabled",
	}
	ready := h.info.DirectorySize > 0

	if h.info.ModelPathEnabled {
		checks["model_path"] = "enabled:" + h.info.ModelProvider
	}

	if h.info.DB == nil {
		checks["database"] = "not_configured"
	} else if err := h.info.DB.HealthCheck(ctx); err != nil {
		h.logger.Warn("database readiness check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		ready = false
	} else {
		checks["database"] = "healthy"
	}

	if h.info.Store == nil {
		checks["metric_store"] = "not_configured"
	} else {
		stats := h.info.Store.GetStats()
		checks["metric_store"] = "running"
		checks["metrics_dropped"] = strconv.FormatInt(stats.Dropped, 10)
		if !stats.Started {
			checks["metric_store"] = "stopped"
			ready = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !ready {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if err := utils.WriteData(w, code, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
