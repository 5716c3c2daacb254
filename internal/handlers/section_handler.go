package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/englishassessment/backend/internal/evaluation"
	"github.com/englishassessment/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxMultipartMemory is the part of a multipart upload kept in memory
const maxMultipartMemory = 32 << 20

// audioField is the multipart field carrying recorded answers
const audioField = "audio"

// CatalogService is the interface that wraps methods for browsing section tests
type CatalogService interface {
	// Method ListTests return the tests of a section, optionally filtered by vertical.
	//
	// "section" must be one of listening, reading, writing, speaking; "vertical" may be empty.
	ListTests(ctx context.Context, section string, vertical string) ([]models.TestSummary, error)
	// Method GetTest return one test of a section with its blocks, questions and options.
	//
	// Correct answers are never part of the response.
	GetTest(ctx context.Context, section string, id int) (*models.Test, error)
}

// SubmissionService is the interface that wraps methods for grading submissions
type SubmissionService interface {
	// Method SubmitChoice grade listening or reading answers and store the section score.
	//
	// "answers" maps question IDs to the selected option ID.
	SubmitChoice(ctx context.Context, email string, section models.Section, testID int, answers map[string]any) (*models.ChoiceSubmissionResult, error)
	// Method SubmitWriting evaluate an essay and store the writing score.
	SubmitWriting(ctx context.Context, email string, testID int, text string) (*models.WritingSubmissionResult, error)
	// Method SubmitSpeaking evaluate one recording against the first block of the test and store the speaking score.
	SubmitSpeaking(ctx context.Context, email string, testID int, sample evaluation.AudioSample) (*models.SpeakingSubmissionResult, error)
	// Method SubmitSpeakingBlocks evaluate one recording per block and store the mean of the valid evaluations.
	//
	// Failed blocks are reported in the result, they do not fail the request.
	SubmitSpeakingBlocks(ctx context.Context, email string, testID int, samples []evaluation.AudioSample) (*models.SpeakingTestReport, error)
}

// SectionHandler handles HTTP requests for section tests and their submissions
type SectionHandler struct {
	BaseHandler
	catalog     CatalogService
	submissions SubmissionService
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(catalog CatalogService, submissions SubmissionService, logger *zap.Logger) *SectionHandler {
	return &SectionHandler{
		catalog:     catalog,
		submissions: submissions,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// ChoiceSubmissionRequest represents listening or reading answers
type ChoiceSubmissionRequest struct {
	Answers map[string]any `json:"answers"`
}

// WritingSubmissionRequest represents an essay
type WritingSubmissionRequest struct {
	Text string `json:"text"`
}

// RegisterRoutes registers all section routes.
// Browsing is public, submissions go through the given auth middleware.
func (h *SectionHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/{section}/tests", h.ListTests)
	r.Get("/{section}/tests/{id}", h.GetTest)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/{section}/tests/{id}/submit", h.Submit)
		r.Post("/speaking/tests/{id}/submit-blocks", h.SubmitSpeakingBlocks)
	})
}

// ListTests handles GET /{section}/tests
// @Summary List section tests
// @Tags tests
// @Produce json
// @Param section path string true "Section" Enums(listening, reading, writing, speaking)
// @Param vertical query int false "Vertical filter"
// @Success 200 {array} models.TestSummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{section}/tests [get]
func (h *SectionHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.catalog.ListTests(r.Context(), chi.URLParam(r, "section"), r.URL.Query().Get("vertical"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, tests)
}

// GetTest handles GET /{section}/tests/{id}
// @Summary Get a section test
// @Tags tests
// @Produce json
// @Param section path string true "Section" Enums(listening, reading, writing, speaking)
// @Param id path int true "Test ID"
// @Success 200 {object} models.Test
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /{section}/tests/{id} [get]
func (h *SectionHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.testID(w, r)
	if !ok {
		return
	}

	test, err := h.catalog.GetTest(r.Context(), chi.URLParam(r, "section"), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, test)
}

// Submit handles POST /{section}/tests/{id}/submit
// @Summary Submit a section test
// @Description Listening and reading take JSON answers, writing takes JSON text, speaking takes a multipart "audio" file
// @Tags submissions
// @Accept json,mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param section path string true "Section" Enums(listening, reading, writing, speaking)
// @Param id path int true "Test ID"
// @Success 200 {object} models.ChoiceSubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /{section}/tests/{id}/submit [post]
func (h *SectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	section, err := models.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	testID, ok := h.testID(w, r)
	if !ok {
		return
	}

	switch section {
	case models.SectionListening, models.SectionReading:
		var req ChoiceSubmissionRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		result, err := h.submissions.SubmitChoice(r.Context(), id.Email, section, testID, req.Answers)
		h.respondSubmission(w, r, result, err)
	case models.SectionWriting:
		var req WritingSubmissionRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		result, err := h.submissions.SubmitWriting(r.Context(), id.Email, testID, req.Text)
		h.respondSubmission(w, r, result, err)
	case models.SectionSpeaking:
		samples, ok := h.audioSamples(w, r)
		if !ok {
			return
		}
		result, err := h.submissions.SubmitSpeaking(r.Context(), id.Email, testID, samples[0])
		h.respondSubmission(w, r, result, err)
	}
}

// SubmitSpeakingBlocks handles POST /speaking/tests/{id}/submit-blocks
// @Summary Submit a multi-block speaking test
// @Description One "audio" file per block, in block order
// @Tags submissions
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Param audio formData file true "Recordings in block order"
// @Success 200 {object} models.SpeakingTestReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /speaking/tests/{id}/submit-blocks [post]
func (h *SectionHandler) SubmitSpeakingBlocks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	testID, ok := h.testID(w, r)
	if !ok {
		return
	}
	samples, ok := h.audioSamples(w, r)
	if !ok {
		return
	}

	report, err := h.submissions.SubmitSpeakingBlocks(r.Context(), id.Email, testID, samples)
	h.respondSubmission(w, r, report, err)
}

func (h *SectionHandler) respondSubmission(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *SectionHandler) testID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid test id")
		return 0, false
	}
	return id, true
}

// audioSamples reads every "audio" part of a multipart request in order
func (h *SectionHandler) audioSamples(w http.ResponseWriter, r *http.Request) ([]evaluation.AudioSample, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[audioField]
	if len(files) == 0 {
		h.respondError(w, http.StatusBadRequest, "audio file is required")
		return nil, false
	}

	samples := make([]evaluation.AudioSample, 0, len(files))
	for _, fh := range files {
		sample, err := readAudio(fh)
		if err != nil {
			h.logger.Error("failed to read uploaded audio", zap.String("filename", fh.Filename), zap.Error(err))
			h.respondError(w, http.StatusBadRequest, "failed to read audio file")
			return nil, false
		}
		samples = append(samples, sample)
	}
	return samples, true
}

func readAudio(fh *multipart.FileHeader) (evaluation.AudioSample, error) {
	f, err := fh.Open()
	if err != nil {
		return evaluation.AudioSample{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return evaluation.AudioSample{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return evaluation.AudioSample{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
