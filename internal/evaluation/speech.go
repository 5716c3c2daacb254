package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/englishassessment/backend/internal/metrics"
	"go.uber.org/zap"
)

const (
	speechEvaluator = "speechace"
	// DefaultSpeechTimeout bounds one pronunciation evaluation call
	DefaultSpeechTimeout = 50 * time.Second
	maxResponseSize      = 10 * 1024 * 1024
)

// SpeechConfig holds pronunciation evaluator settings
type SpeechConfig struct {
	URL     string
	APIKey  string
	Dialect string
	Timeout time.Duration
}

// SpeechResult is the normalized pronunciation evaluation of one audio sample.
// A nil Score is a successful call that produced no score.
type SpeechResult struct {
	Score     *float64
	LevelTag  *string
	Warnings  []string
	RawReport map[string]any
}

// SpeechClient calls the Speechace pronunciation API
type SpeechClient struct {
	cfg        SpeechConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSpeechClient creates a new pronunciation evaluator client.
// A nil httpClient is replaced by a client bounded by the configured timeout.
func NewSpeechClient(cfg SpeechConfig, httpClient *http.Client, logger *zap.Logger, m *metrics.Metrics) *SpeechClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSpeechTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &SpeechClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// Evaluate scores an audio sample against a reference text.
//
// Empty audio fails with a validation error before any call is made. Evaluator failures are
// returned as *Error values classified by Kind.
func (c *SpeechClient) Evaluate(ctx context.Context, referenceText string, sample AudioSample) (*SpeechResult, error) {
	warnings, err := ValidateAudio(sample)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		c.logger.Warn("audio sample warning", zap.String("warning", warning), zap.String("filename", sample.Filename))
	}

	body, contentType, err := buildSpeechForm(referenceText, sample)
	if err != nil {
		return nil, fmt.Errorf("failed to build speech request: %w", err)
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	result, err := c.do(req)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		}
		c.logger.Error("speech evaluation failed", zap.Error(err))
	} else if result.Score == nil {
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveEvaluation(speechEvaluator, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	result.Warnings = warnings
	return result, nil
}

func (c *SpeechClient) do(req *http.Request) (*SpeechResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(speechEvaluator, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(speechEvaluator, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Evaluator:  speechEvaluator,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(raw), 200)),
		}
	}

	return ParseSpeechResponse(raw)
}

// endpoint appends the API key and dialect to the configured URL
func (c *SpeechClient) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid speech evaluator url: %q", c.cfg.URL)
	}
	q := u.Query()
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	if c.cfg.Dialect != "" {
		q.Set("dialect", c.cfg.Dialect)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func buildSpeechForm(referenceText string, sample AudioSample) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("text", referenceText); err != nil {
		return nil, "", err
	}

	filename := sample.Filename
	if filename == "" {
		filename = "answer.wav"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="user_audio_file"; filename=%q`, filename))
	contentType := sample.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(sample.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// ParseSpeechResponse normalizes a pronunciation evaluator response.
//
// The score is read from text_score.speechace_score.pronunciation and, when absent there,
// from speechace_score.pronunciation. The CEFR tag follows the same two paths under cefr_score.
func ParseSpeechResponse(raw []byte) (*SpeechResult, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &Error{Evaluator: speechEvaluator, Kind: KindMalformed, Err: err}
	}
	report, ok := decoded.(map[string]any)
	if !ok {
		return nil, &Error{Evaluator: speechEvaluator, Kind: KindNotObject, Err: fmt.Errorf("response is %T, not an object", decoded)}
	}

	if status, _ := report["status"].(string); status == "error" {
		message, _ := report["short_message"].(string)
		if detail, _ := report["detail_message"].(string); detail != "" {
			message = fmt.Sprintf("%s: %s", message, detail)
		}
		return nil, &Error{Evaluator: speechEvaluator, Kind: KindRejected, Err: fmt.Errorf("evaluation rejected: %s", message)}
	}

	result := &SpeechResult{RawReport: report}
	if score, ok := lookupNumber(report, "text_score", "speechace_score", "pronunciation"); ok {
		result.Score = &score
	} else if score, ok := lookupNumber(report, "speechace_score", "pronunciation"); ok {
		result.Score = &score
	}
	if result.Score != nil {
		clamped := clampScore(*result.Score)
		result.Score = &clamped
	}

	if tag, ok := lookupString(report, "text_score", "cefr_score", "pronunciation"); ok {
		result.LevelTag = &tag
	} else if tag, ok := lookupString(report, "cefr_score", "pronunciation"); ok {
		result.LevelTag = &tag
	}
	return result, nil
}

func lookup(obj map[string]any, path ...string) (any, bool) {
	var current any = obj
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func lookupNumber(obj map[string]any, path ...string) (float64, bool) {
	v, ok := lookup(obj, path...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func lookupString(obj map[string]any, path ...string) (string, bool) {
	v, ok := lookup(obj, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
