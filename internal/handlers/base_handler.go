// Package handlers implements the HTTP endpoints of the assessment API
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/englishassessment/backend/internal/identity"
	"github.com/englishassessment/backend/internal/middleware"
	"github.com/englishassessment/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler carries the response helpers shared by all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error      string `json:"error"`
	UnlockDate string `json:"unlock_date,omitempty"`
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}

// handleServiceError maps an error of the service layer to a status code
func (h *BaseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *models.AttemptLimitError
	switch {
	case errors.As(err, &limitErr):
		h.respondJSON(w, http.StatusForbidden, ErrorResponse{
			Error:      limitErr.Error(),
			UnlockDate: limitErr.UnlockDate.Format(models.UnlockDateLayout),
		})
	case errors.Is(err, models.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthenticated):
		h.respondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUpstreamEvaluation):
		h.logger.Warn("evaluation failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// identity returns the verified caller or answers 401
func (h *BaseHandler) identity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into dst or answers 400
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
