package evaluation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/englishassessment/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func wavSample() AudioSample {
	return AudioSample{
		Filename:    "answer.wav",
		ContentType: "audio/wav",
		Data:        bytes.Repeat([]byte{0x52}, 2048),
	}
}

func newTestSpeechClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*SpeechClient, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	logger, _ := zap.NewDevelopment()
	client := NewSpeechClient(SpeechConfig{
		URL:     server.URL + "/api/scoring/text/v9/json",
		APIKey:  "test-key",
		Dialect: "en-us",
		Timeout: timeout,
	}, server.Client(), logger, nil)
	return client, &calls
}

func TestSpeechClient_Evaluate(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		status           int
		expectedScore    *float64
		expectedLevelTag string
		expectedKind     Kind
	}{
		{
			name:             "nested score",
			status:           http.StatusOK,
			body:             `{"status":"success","text_score":{"speechace_score":{"pronunciation":87.5},"cefr_score":{"pronunciation":"C1"}}}`,
			expectedScore:    ptr(87.5),
			expectedLevelTag: "C1",
		},
		{
			name:             "flat score",
			status:           http.StatusOK,
			body:             `{"status":"success","speechace_score":{"pronunciation":64},"cefr_score":{"pronunciation":"B1"}}`,
			expectedScore:    ptr(64),
			expectedLevelTag: "B1",
		},
		{
			name:          "score above range is clamped",
			status:        http.StatusOK,
			body:          `{"speechace_score":{"pronunciation":130}}`,
			expectedScore: ptr(100),
		},
		{
			name:   "no score",
			status: http.StatusOK,
			body:   `{"status":"success","text_score":{}}`,
		},
		{
			name:         "non 200 status",
			status:       http.StatusInternalServerError,
			body:         `internal error`,
			expectedKind: KindStatus,
		},
		{
			name:         "malformed body",
			status:       http.StatusOK,
			body:         `{"status":`,
			expectedKind: KindMalformed,
		},
		{
			name:         "non object body",
			status:       http.StatusOK,
			body:         `[1,2,3]`,
			expectedKind: KindNotObject,
		},
		{
			name:         "rejected by evaluator",
			status:       http.StatusOK,
			body:         `{"status":"error","short_message":"error_invalid_key","detail_message":"key is not valid"}`,
			expectedKind: KindRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))
				assert.Equal(t, "en-us", r.URL.Query().Get("dialect"))

				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "I work with data", r.FormValue("text"))
				file, header, err := r.FormFile("user_audio_file")
				require.NoError(t, err)
				defer file.Close()
				assert.Equal(t, "answer.wav", header.Filename)
				data, _ := io.ReadAll(file)
				assert.Len(t, data, 2048)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			result, err := client.Evaluate(context.Background(), "I work with data", wavSample())
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))

			if tt.expectedKind != "" {
				require.Error(t, err)
				kind, ok := KindOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedKind, kind)
				assert.True(t, errors.Is(err, models.ErrUpstreamEvaluation))
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			if tt.expectedScore == nil {
				assert.Nil(t, result.Score)
			} else {
				require.NotNil(t, result.Score)
				assert.InDelta(t, *tt.expectedScore, *result.Score, 1e-9)
			}
			if tt.expectedLevelTag == "" {
				assert.Nil(t, result.LevelTag)
			} else {
				require.NotNil(t, result.LevelTag)
				assert.Equal(t, tt.expectedLevelTag, *result.LevelTag)
			}
			assert.NotNil(t, result.RawReport)
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestSpeechClient_Evaluate_Timeout(t *testing.T) {
	client, _ := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	result, err := client.Evaluate(context.Background(), "hello", wavSample())

	require.Error(t, err)
	assert.Nil(t, result)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)
}

func TestSpeechClient_Evaluate_EmptyAudio(t *testing.T) {
	client, calls := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, time.Second)

	result, err := client.Evaluate(context.Background(), "hello", AudioSample{Filename: "a.wav", ContentType: "audio/wav"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestSpeechClient_Evaluate_Warnings(t *testing.T) {
	client, _ := newTestSpeechClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"speechace_score":{"pronunciation":70}}`))
	}, time.Second)

	sample := AudioSample{Filename: "a.txt", ContentType: "text/plain", Data: []byte("tiny")}
	result, err := client.Evaluate(context.Background(), "hello", sample)

	require.NoError(t, err)
	assert.Len(t, result.Warnings, 2)
}

func TestSpeechClient_Evaluate_InvalidURL(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client := NewSpeechClient(SpeechConfig{URL: "not a url"}, nil, logger, nil)

	_, err := client.Evaluate(context.Background(), "hello", wavSample())

	require.Error(t, err)
	_, ok := KindOf(err)
	assert.False(t, ok)
}

func TestParseSpeechResponse_PrefersNestedScore(t *testing.T) {
	raw := []byte(`{"text_score":{"speechace_score":{"pronunciation":91}},"speechace_score":{"pronunciation":40}}`)

	result, err := ParseSpeechResponse(raw)

	require.NoError(t, err)
	require.NotNil(t, result.Score)
	assert.Equal(t, 91.0, *result.Score)
}

func ptr(v float64) *float64 {
	return &v
}
