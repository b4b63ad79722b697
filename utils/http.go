package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps payloads under "data"
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type errorKind struct {
	code           string
	defaultMessage string
}

var errorKinds = map[int]errorKind{
	http.StatusBadRequest:          {code: "bad_request"},
	http.StatusUnauthorized:        {code: "unauthorized", defaultMessage: "Authentication required"},
	http.StatusNotFound:            {code: "not_found", defaultMessage: "Resource not found"},
	http.StatusConflict:            {code: "conflict"},
	http.StatusTooManyRequests:     {code: "rate_limit_exceeded", defaultMessage: "Rate limit exceeded"},
	http.StatusBadGateway:          {code: "bad_gateway", defaultMessage: "Upstream model service failed"},
	http.StatusServiceUnavailable:  {code: "service_unavailable", defaultMessage: "Service unavailable"},
	http.StatusInternalServerError: {code: "internal_error", defaultMessage: "Internal server error"},
}

// ErrorCode returns the machine-readable error code for an HTTP status.
// Statuses without a dedicated code report internal_error.
func ErrorCode(status int) string {
	if kind, ok := errorKinds[status]; ok {
		return kind.code
	}
	return errorKinds[http.StatusInternalServerError].code
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes data under the success envelope with 200
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteData(w, http.StatusOK, data)
}

// WriteData writes data under the success envelope with any status.
// Failed cases are still returned as a full record.
func WriteData(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{Data: data})
}

// WriteError writes an ErrorResponse for status. An empty message falls back
// to the status default when one exists.
func WriteError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	if message == "" {
		message = errorKinds[status].defaultMessage
	}
	return WriteJSON(w, status, ErrorResponse{
		Error:   ErrorCode(status),
		Message: message,
		Details: details,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusBadRequest, message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnauthorized, message, nil)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, nil)
}

func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusConflict, message, details)
}

// WriteTooManyRequests writes a 429; callers set Retry-After themselves
func WriteTooManyRequests(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusTooManyRequests, message, details)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, nil)
}
