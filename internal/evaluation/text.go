package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/englishassessment/backend/internal/metrics"
	"go.uber.org/zap"
)

const (
	textEvaluator = "cohere"
	// DefaultTextTimeout bounds one text evaluation call
	DefaultTextTimeout = 30 * time.Second
	// DefaultTextModel is the chat model used for writing evaluation
	DefaultTextModel = "command-a-03-2025"
	// DefaultTextBaseURL is the Cohere API root
	DefaultTextBaseURL = "https://api.cohere.com"
)

// TextConfig holds text evaluator settings
type TextConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// TextResult is the normalized evaluation of a written answer
type TextResult struct {
	Clarity     float64
	VerbTenses  float64
	Vocabulary  float64
	Conciseness float64
	Feedback    string
	Score       float64
}

// TextClient calls the Cohere chat API to evaluate written answers
type TextClient struct {
	cfg        TextConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewTextClient creates a new text evaluator client
func NewTextClient(cfg TextConfig, httpClient *http.Client, logger *zap.Logger, m *metrics.Metrics) *TextClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTextTimeout
	}
	if cfg.Model == "" {
		cfg.Model = DefaultTextModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTextBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &TextClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

const writingPrompt = `You are an English writing evaluator. Evaluate the following student text based on 4 criteria.
Return a score from 0 to 100 for each one and a short justification.
Criteria:
1. Clarity and coherence in text structure
2. Correct use of verb tenses
3. Use of technical vocabulary
4. Conciseness and precision of ideas

Student's text:
"""%s"""

Return in JSON format:
{
  "clarity_and_coherence": INT,
  "verb_tenses": INT,
  "technical_vocabulary": INT,
  "conciseness": INT,
  "overall_feedback": "TEXT"
}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format"`
}

type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Evaluate scores a written answer.
// Evaluator failures are returned as *Error values classified by Kind.
func (c *TextClient) Evaluate(ctx context.Context, studentText string) (*TextResult, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: fmt.Sprintf(writingPrompt, studentText)}},
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal text request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/v2/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create text request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	result, err := c.do(req)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		}
		c.logger.Error("text evaluation failed", zap.Error(err))
	}
	c.metrics.ObserveEvaluation(textEvaluator, outcome, time.Since(start))
	return result, err
}

func (c *TextClient) do(req *http.Request) (*TextResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(textEvaluator, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(textEvaluator, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Evaluator:  textEvaluator,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(raw), 200)),
		}
	}

	var envelope chatResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Evaluator: textEvaluator, Kind: KindMalformed, Err: fmt.Errorf("failed to decode chat response: %w", err)}
	}
	if len(envelope.Message.Content) == 0 {
		return nil, &Error{Evaluator: textEvaluator, Kind: KindMalformed, Err: fmt.Errorf("chat response has no content")}
	}

	return ParseTextEvaluation(envelope.Message.Content[0].Text)
}

// ParseTextEvaluation normalizes the JSON document produced by the text evaluator.
//
// Missing or non-numeric sub-scores default to 0 and the score is the arithmetic mean of
// the four sub-scores.
func ParseTextEvaluation(content string) (*TextResult, error) {
	content = stripCodeFence(content)

	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return nil, &Error{Evaluator: textEvaluator, Kind: KindMalformed, Err: err}
	}
	criteria, ok := decoded.(map[string]any)
	if !ok {
		return nil, &Error{Evaluator: textEvaluator, Kind: KindNotObject, Err: fmt.Errorf("evaluation is %T, not an object", decoded)}
	}

	result := &TextResult{
		Clarity:     criterion(criteria, "clarity_and_coherence"),
		VerbTenses:  criterion(criteria, "verb_tenses"),
		Vocabulary:  criterion(criteria, "technical_vocabulary"),
		Conciseness: criterion(criteria, "conciseness"),
	}
	result.Score = (result.Clarity + result.VerbTenses + result.Vocabulary + result.Conciseness) / 4

	if feedback, ok := criteria["overall_feedback"].(string); ok && feedback != "" {
		result.Feedback = feedback
	} else if feedback, ok := criteria["feedback"].(string); ok {
		result.Feedback = feedback
	}
	return result, nil
}

func criterion(criteria map[string]any, key string) float64 {
	v, ok := toFloat(criteria[key])
	if !ok {
		return 0
	}
	return clampScore(v)
}

// toFloat accepts JSON numbers and numeric strings
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// stripCodeFence removes a markdown code fence some models wrap JSON output in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
