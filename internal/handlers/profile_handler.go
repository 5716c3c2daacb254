package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/englishassessment/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for user profile business logic
type ProfileService interface {
	// Method GetProfile retrieve the profile of a user.
	//
	// If the user has no profile, an error wrapping models.ErrNotFound is returned.
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	// Method SetVertical change the vertical of a user.
	SetVertical(ctx context.Context, email string, vertical models.Vertical) (*models.UserProfile, error)
	// Method UpdateSectionScores apply a partial update of section results and recompute the overall score and level.
	//
	// Nil entries are ignored. An update with no entries or with a score outside of [0,100] is rejected.
	UpdateSectionScores(ctx context.Context, email string, update models.SectionScoresUpdate) (*models.UserProfile, error)
	// Method RegisterAttempt start a new test cycle.
	//
	// While the user is locked out a *models.AttemptLimitError carrying the unlock date is returned.
	RegisterAttempt(ctx context.Context, email string) (*models.AttemptStatus, error)
	// Method GetAttemptStatus report whether the user may start a new test cycle.
	GetAttemptStatus(ctx context.Context, email string) (*models.AttemptStatus, error)
}

// ProfileHandler handles HTTP requests for the current user's profile
type ProfileHandler struct {
	BaseHandler
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// SetVerticalRequest represents the body of a vertical change
type SetVerticalRequest struct {
	Vertical models.Vertical `json:"vertical"`
}

// MissingProfileResponse is returned by GET /users/me before the first login
type MissingProfileResponse struct {
	Email      string           `json:"email"`
	VerticalID *models.Vertical `json:"vertical_id"`
	Exists     bool             `json:"exists"`
}

// TestResultsRequest represents a bulk update of section results
type TestResultsRequest struct {
	TestResults models.SectionScoresUpdate `json:"test_results"`
}

// RegisterRoutes registers all profile routes behind the given auth middleware
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users/me", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetMe)
		r.Patch("/vertical", h.SetVertical)
		r.Post("/test-results", h.UpdateTestResults)
		r.Get("/attempts", h.GetAttempts)
		r.Post("/attempts", h.RegisterAttempt)
	})
}

// GetMe handles GET /users/me
// @Summary Get current profile
// @Description Returns the profile, or the caller's email with exists=false when no profile has been created yet
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), id.Email)
	if errors.Is(err, models.ErrNotFound) {
		h.respondJSON(w, http.StatusOK, MissingProfileResponse{Email: id.Email})
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, profile)
}

// SetVertical handles PATCH /users/me/vertical
// @Summary Set vertical
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body SetVerticalRequest true "New vertical"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me/vertical [patch]
func (h *ProfileHandler) SetVertical(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req SetVerticalRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.SetVertical(r.Context(), id.Email, req.Vertical)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, profile)
}

// UpdateTestResults handles POST /users/me/test-results
// @Summary Update section results
// @Description Store any subset of the four section scores and recompute the overall score and level
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body TestResultsRequest true "Section results"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me/test-results [post]
func (h *ProfileHandler) UpdateTestResults(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req TestResultsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateSectionScores(r.Context(), id.Email, req.TestResults)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, profile)
}

// GetAttempts handles GET /users/me/attempts
// @Summary Get attempt status
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.AttemptStatus
// @Failure 404 {object} ErrorResponse
// @Router /users/me/attempts [get]
func (h *ProfileHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetAttemptStatus(r.Context(), id.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// RegisterAttempt handles POST /users/me/attempts
// @Summary Start a new attempt
// @Description Register a new test cycle. Refused with 403 and the unlock date while the user is locked out.
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} models.AttemptStatus
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me/attempts [post]
func (h *ProfileHandler) RegisterAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	status, err := h.service.RegisterAttempt(r.Context(), id.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, status)
}
