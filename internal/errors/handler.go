package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Status    string `json:"status"`
	ErrorCode Code   `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler writes classified errors as HTTP responses.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates an error handler.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// HandleError classifies err and writes the matching HTTP response.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	h.Write(w, HTTPStatusOf(err), CodeOf(err), err.Error(), r.Header.Get("X-Request-ID"))
}

// Write writes a formatted error response.
func (h *Handler) Write(w http.ResponseWriter, statusCode int, code Code, message, requestID string) {
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.String("error_code", string(code)),
		zap.String("message", message),
		zap.String("request_id", requestID),
	)

	resp := ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   message,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// WriteValidation writes a 400 validation error response.
func (h *Handler) WriteValidation(w http.ResponseWriter, message, requestID string) {
	h.Write(w, http.StatusBadRequest, CodeValidation, message, requestID)
}

// WriteMethodNotAllowed writes the declared 405 response for a
// method/path combination outside the routing table.
func (h *Handler) WriteMethodNotAllowed(w http.ResponseWriter, requestID string) {
	h.Write(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", requestID)
}
