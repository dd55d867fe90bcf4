package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/diagnosis/checkin-console/internal/checkout"
	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/internal/http/response"
	"github.com/diagnosis/checkin-console/pkg/auth"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/pkg/logger"
	"github.com/diagnosis/checkin-console/services/console/internal/repository"
	"github.com/diagnosis/checkin-console/services/console/internal/service"
)

type claimsKey struct{}

type Handlers struct {
	importService   service.ImportService
	checkoutService service.CheckoutService
	config          *config.Config
	validate        *validator.Validate
}

func New(importService service.ImportService, checkoutService service.CheckoutService, cfg *config.Config) *Handlers {
	return &Handlers{
		importService:   importService,
		checkoutService: checkoutService,
		config:          cfg,
		validate:        validator.New(),
	}
}

// RequireAuth resolves the operator's token and keeps it on the context so
// backend calls forward it unchanged.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}

		claims, err := auth.Resolve(token, h.config.Auth.JWTSecret)
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
			return
		}
		if !claims.HasRole(h.config.Auth.RequiredRoles) {
			response.Forbidden(w, "Insufficient permissions")
			return
		}

		ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Actor())
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		ctx = facility.WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// actor names the operator in audit rows and roster keys.
func actor(r *http.Request) string {
	if claims := getClaims(r); claims != nil {
		if a := claims.Actor(); a != "" {
			return a
		}
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeServiceError maps service and domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *facility.APIError
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		response.NotFound(w, "Session not found or expired")
	case errors.Is(err, service.ErrCheckInNotFound):
		response.NotFound(w, "Check-in not found")
	case errors.Is(err, service.ErrFileTooLarge):
		response.WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), response.CodeFileTooLarge)
	case errors.Is(err, service.ErrUnreadableFile):
		response.Unprocessable(w, err.Error(), response.CodeUnsupportedFile)
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, csvimport.ErrSubmitInFlight),
		errors.Is(err, checkout.ErrInFlight):
		response.Conflict(w, err.Error(), response.CodeInFlight)
	case errors.Is(err, csvimport.ErrAlreadySubmitted), errors.Is(err, checkout.ErrFinished):
		response.Conflict(w, err.Error(), response.CodeConflict)
	case errors.Is(err, csvimport.ErrNotSubmittable):
		response.Unprocessable(w, err.Error(), response.CodeNotSubmittable)
	case errors.Is(err, checkout.ErrNothingSelected):
		response.Unprocessable(w, checkout.NothingSelectedMessage, response.CodeNothingSelected)
	case errors.As(err, &apiErr):
		msg := apiErr.UserMessage()
		if msg == "" {
			msg = "Facility backend rejected the request"
		}
		response.WriteError(w, http.StatusBadGateway, msg, response.CodeBackendUnavailable)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}

func parseRecordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	return id, err == nil && id > 0
}

// Helper to parse pagination parameters
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
