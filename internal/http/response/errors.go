package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/checkin-console/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteErrorWithDetails(w, statusCode, message, code, "")
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// Common error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUnsupportedFile    = "UNSUPPORTED_FILE"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeNotSubmittable     = "NOT_SUBMITTABLE"
	CodeInFlight           = "IN_FLIGHT"
	CodeNothingSelected    = "NOTHING_SELECTED"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func Conflict(w http.ResponseWriter, message, code string) {
	WriteError(w, http.StatusConflict, message, code)
}

func Unprocessable(w http.ResponseWriter, message, code string) {
	WriteError(w, http.StatusUnprocessableEntity, message, code)
}

func BadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, message, CodeBackendUnavailable)
}
