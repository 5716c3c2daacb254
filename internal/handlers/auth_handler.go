package handlers

import (
	"context"
	"net/http"

	"github.com/englishassessment/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginService is the interface that wraps the login use case
type LoginService interface {
	// Method Login return the profile of a verified caller, creating it on first login.
	//
	// "vertical" comes from the identity provider metadata; a missing or unknown vertical is a validation error.
	Login(ctx context.Context, email string, vertical *models.Vertical) (*models.UserProfile, error)
}

// AuthHandler handles HTTP requests for login
type AuthHandler struct {
	BaseHandler
	service LoginService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc LoginService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers auth routes behind the given auth middleware
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/auth/login", h.Login)
}

// Login handles POST /auth/login
// @Summary Login with a provider token
// @Description Verify the bearer token and get or create the caller's profile
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Login(r.Context(), id.Email, id.Vertical)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, profile)
}
