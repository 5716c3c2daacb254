package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/englishassessment/backend/internal/evaluation"
	"github.com/englishassessment/backend/internal/middleware"
	"github.com/englishassessment/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalogService struct {
	tests    []models.TestSummary
	test     *models.Test
	err      error
	section  string
	vertical string
	id       int
}

func (m *mockCatalogService) ListTests(ctx context.Context, section string, vertical string) ([]models.TestSummary, error) {
	m.section = section
	m.vertical = vertical
	return m.tests, m.err
}

func (m *mockCatalogService) GetTest(ctx context.Context, section string, id int) (*models.Test, error) {
	m.section = section
	m.id = id
	return m.test, m.err
}

type mockSubmissionService struct {
	err     error
	email   string
	section models.Section
	testID  int
	answers map[string]any
	text    string
	samples []evaluation.AudioSample
}

func (m *mockSubmissionService) SubmitChoice(ctx context.Context, email string, section models.Section, testID int, answers map[string]any) (*models.ChoiceSubmissionResult, error) {
	m.email, m.section, m.testID, m.answers = email, section, testID, answers
	if m.err != nil {
		return nil, m.err
	}
	return &models.ChoiceSubmissionResult{Correct: 2, Total: 3, Score: 66.67}, nil
}

func (m *mockSubmissionService) SubmitWriting(ctx context.Context, email string, testID int, text string) (*models.WritingSubmissionResult, error) {
	m.email, m.section, m.testID, m.text = email, models.SectionWriting, testID, text
	if m.err != nil {
		return nil, m.err
	}
	return &models.WritingSubmissionResult{Score: 72}, nil
}

func (m *mockSubmissionService) SubmitSpeaking(ctx context.Context, email string, testID int, sample evaluation.AudioSample) (*models.SpeakingSubmissionResult, error) {
	m.email, m.section, m.testID = email, models.SectionSpeaking, testID
	m.samples = []evaluation.AudioSample{sample}
	if m.err != nil {
		return nil, m.err
	}
	return &models.SpeakingSubmissionResult{Score: 81}, nil
}

func (m *mockSubmissionService) SubmitSpeakingBlocks(ctx context.Context, email string, testID int, samples []evaluation.AudioSample) (*models.SpeakingTestReport, error) {
	m.email, m.section, m.testID, m.samples = email, models.SectionSpeaking, testID, samples
	if m.err != nil {
		return nil, m.err
	}
	return &models.SpeakingTestReport{Score: 70, LevelTag: "B2", ValidEvaluations: len(samples), TotalBlocks: len(samples)}, nil
}

func newSectionRouter(catalog CatalogService, submissions SubmissionService) chi.Router {
	r := chi.NewRouter()
	NewSectionHandler(catalog, submissions, zap.NewNop()).RegisterRoutes(r, withIdentity)
	return r
}

// audioForm builds a multipart body with one "audio" part per payload
func audioForm(t *testing.T, payloads ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for i, payload := range payloads {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="block%d.wav"`, i+1))
		header.Set("Content-Type", "audio/wav")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(payload))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestSectionHandler_ListTests(t *testing.T) {
	t.Run("passes section and vertical", func(t *testing.T) {
		catalog := &mockCatalogService{tests: []models.TestSummary{{ID: 1, Title: "Airport", Vertical: 2, VerticalDisplay: "Technology"}}}
		w := httptest.NewRecorder()
		newSectionRouter(catalog, &mockSubmissionService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listening/tests?vertical=2", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "listening", catalog.section)
		assert.Equal(t, "2", catalog.vertical)
		tests := decodeBody[[]models.TestSummary](t, w)
		require.Len(t, tests, 1)
		assert.Equal(t, "Technology", tests[0].VerticalDisplay)
	})

	t.Run("invalid section", func(t *testing.T) {
		catalog := &mockCatalogService{err: models.NewValidationError("invalid section: grammar")}
		w := httptest.NewRecorder()
		newSectionRouter(catalog, &mockSubmissionService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grammar/tests", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSectionHandler_GetTest(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		catalog        *mockCatalogService
		expectedStatus int
	}{
		{
			name:           "success",
			path:           "/reading/tests/5",
			catalog:        &mockCatalogService{test: &models.Test{ID: 5, Section: models.SectionReading}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid id",
			path:           "/reading/tests/abc",
			catalog:        &mockCatalogService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero id",
			path:           "/reading/tests/0",
			catalog:        &mockCatalogService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found",
			path:           "/reading/tests/9",
			catalog:        &mockCatalogService{err: models.NewNotFoundError("test")},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newSectionRouter(tt.catalog, &mockSubmissionService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSectionHandler_SubmitChoice(t *testing.T) {
	subs := &mockSubmissionService{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening/tests/3/submit", strings.NewReader(`{"answers":{"10":101,"11":"105"}}`))
	newSectionRouter(&mockCatalogService{}, subs).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testEmail, subs.email)
	assert.Equal(t, models.SectionListening, subs.section)
	assert.Equal(t, 3, subs.testID)
	assert.Equal(t, float64(101), subs.answers["10"])
	assert.Equal(t, "105", subs.answers["11"])
	result := decodeBody[models.ChoiceSubmissionResult](t, w)
	assert.Equal(t, 2, result.Correct)
}

func TestSectionHandler_SubmitWriting(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		subs := &mockSubmissionService{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/writing/tests/4/submit", strings.NewReader(`{"text":"My essay."}`))
		newSectionRouter(&mockCatalogService{}, subs).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "My essay.", subs.text)
	})

	t.Run("evaluator unavailable", func(t *testing.T) {
		subs := &mockSubmissionService{err: &evaluation.Error{Evaluator: "cohere", Kind: evaluation.KindStatus, StatusCode: 503}}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/writing/tests/4/submit", strings.NewReader(`{"text":"My essay."}`))
		newSectionRouter(&mockCatalogService{}, subs).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestSectionHandler_SubmitSpeaking(t *testing.T) {
	t.Run("single recording", func(t *testing.T) {
		subs := &mockSubmissionService{}
		body, contentType := audioForm(t, "RIFF-data")
		req := httptest.NewRequest(http.MethodPost, "/speaking/tests/8/submit", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		newSectionRouter(&mockCatalogService{}, subs).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, subs.samples, 1)
		assert.Equal(t, "block1.wav", subs.samples[0].Filename)
		assert.Equal(t, "audio/wav", subs.samples[0].ContentType)
		assert.Equal(t, []byte("RIFF-data"), subs.samples[0].Data)
	})

	t.Run("missing audio", func(t *testing.T) {
		body, contentType := audioForm(t)
		req := httptest.NewRequest(http.MethodPost, "/speaking/tests/8/submit", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		newSectionRouter(&mockCatalogService{}, &mockSubmissionService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "audio file is required", decodeBody[ErrorResponse](t, w).Error)
	})

	t.Run("streamed body over the limit", func(t *testing.T) {
		subs := &mockSubmissionService{}
		body, contentType := audioForm(t, strings.Repeat("a", 4096))
		// MultiReader hides the length so only the body reader enforces the limit
		req := httptest.NewRequest(http.MethodPost, "/speaking/tests/8/submit", io.MultiReader(body))
		req.Header.Set("Content-Type", contentType)
		require.Equal(t, int64(-1), req.ContentLength)
		w := httptest.NewRecorder()
		middleware.RequestSizeLimit(1024)(newSectionRouter(&mockCatalogService{}, subs)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "request body too large", decodeBody[ErrorResponse](t, w).Error)
		assert.Empty(t, subs.samples)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/speaking/tests/8/submit", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newSectionRouter(&mockCatalogService{}, &mockSubmissionService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSectionHandler_SubmitSpeakingBlocks(t *testing.T) {
	subs := &mockSubmissionService{}
	body, contentType := audioForm(t, "first", "second", "third")
	req := httptest.NewRequest(http.MethodPost, "/speaking/tests/8/submit-blocks", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newSectionRouter(&mockCatalogService{}, subs).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, subs.samples, 3)
	assert.Equal(t, []byte("first"), subs.samples[0].Data)
	assert.Equal(t, []byte("third"), subs.samples[2].Data)
	report := decodeBody[models.SpeakingTestReport](t, w)
	assert.Equal(t, 3, report.TotalBlocks)
	assert.Equal(t, "B2", report.LevelTag)
}

func TestSectionHandler_SubmitRequiresIdentity(t *testing.T) {
	r := chi.NewRouter()
	NewSectionHandler(&mockCatalogService{}, &mockSubmissionService{}, zap.NewNop()).RegisterRoutes(r, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reading/tests/1/submit", strings.NewReader(`{"answers":{}}`)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
