package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/utils"
)

// statusByType maps each domain error type to its HTTP status. Model
// provider failures surface as 502, disabled execution paths as 503.
var statusByType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeRateLimit:    http.StatusTooManyRequests,
	services.ErrorTypeConflict:     http.StatusConflict,
	services.ErrorTypeExternal:     http.StatusBadGateway,
	services.ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	services.ErrorTypeInternal:     http.StatusInternalServerError,
}

// StatusForError returns the HTTP status a service error is reported with
func StatusForError(err error) int {
	if status, ok := statusByType[services.GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleServiceError maps domain errors to HTTP responses. Clients see the
// domain message only; causes stay in the logs.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status := StatusForError(err)

	var domainErr *services.DomainError
	var writeErr error
	switch {
	case !errors.As(err, &domainErr):
		logger.Error("unhandled error type", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")

	case domainErr.Type == services.ErrorTypeInternal:
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.Int("status", status),
			zap.Error(err))
		writeErr = utils.WriteError(w, status, domainErr.Message, domainErr.Details)
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError writes a 400 for request validation failures,
// listing the offending fields when there are any
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	message := err.Error()
	var details map[string]interface{}

	if utils.IsValidationError(err) {
		message = "Validation failed"
		fields := utils.GetValidationFields(err)
		details = make(map[string]interface{}, len(fields))
		for field, reason := range fields {
			details[field] = reason
		}
	}

	if writeErr := utils.WriteBadRequest(w, message, details); writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}
