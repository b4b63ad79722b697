package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/utils"
)

// ProviderLister exposes the provider directory
type ProviderLister interface {
	All() []models.Provider
	BySpecialty(specialty string) []models.Provider
}

// DirectoryHandler serves the read-only provider directory
type DirectoryHandler struct {
	directory ProviderLister
	logger    *zap.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory ProviderLister, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		logger:    logger,
	}
}

// HandleListProviders handles GET /api/v1/providers[?specialty=...]
func (h *DirectoryHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	var providers []models.Provider
	if specialty := r.URL.Query().Get("specialty"); specialty != "" {
		providers = h.directory.BySpecialty(specialty)
	} else {
		providers = h.directory.All()
	}

	if err := utils.WriteOK(w, providers); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
