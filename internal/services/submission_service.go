package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/englishassessment/backend/internal/evaluation"
	"github.com/englishassessment/backend/internal/models"
	"github.com/englishassessment/backend/internal/scoring"
	"go.uber.org/zap"
)

// ScoreRecorder is the interface that wraps the profile operations submissions rely on
type ScoreRecorder interface {
	// Method GetProfile retrieve the profile of a user by email.
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	// Method SetSectionScore store the score of one section and return the updated profile.
	//
	// Scores outside of [0,100] are rejected with an error wrapping models.ErrValidation.
	SetSectionScore(ctx context.Context, email string, section models.Section, score float64) (*models.UserProfile, error)
}

// SpeechEvaluator is the interface that wraps the pronunciation evaluator
type SpeechEvaluator interface {
	// Method Evaluate score an audio sample against a reference text.
	//
	// A successful call may still return a result with a nil Score.
	Evaluate(ctx context.Context, referenceText string, sample evaluation.AudioSample) (*evaluation.SpeechResult, error)
}

// TextEvaluator is the interface that wraps the writing evaluator
type TextEvaluator interface {
	// Method Evaluate score a written answer on four criteria.
	Evaluate(ctx context.Context, text string) (*evaluation.TextResult, error)
}

// SpeakingTestEvaluator is the interface that wraps multi-block speaking evaluation
type SpeakingTestEvaluator interface {
	// Method Evaluate score one audio sample per block and average the blocks that produced a score.
	//
	// Per-block failures are reported in the result. Only a mismatch between blocks and samples is an error.
	Evaluate(ctx context.Context, blocks []models.Block, samples []evaluation.AudioSample) (*models.SpeakingTestReport, error)
}

type submissionService struct {
	content  ContentRepository
	profiles ScoreRecorder
	speech   SpeechEvaluator
	text     TextEvaluator
	speaking SpeakingTestEvaluator
	logger   *zap.Logger

	// speakingDeadline bounds a whole multi-block evaluation
	speakingDeadline time.Duration
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	content ContentRepository,
	profiles ScoreRecorder,
	speech SpeechEvaluator,
	text TextEvaluator,
	speaking SpeakingTestEvaluator,
	speakingDeadline time.Duration,
	logger *zap.Logger,
) *submissionService {
	if speakingDeadline <= 0 {
		speakingDeadline = evaluation.DefaultSpeakingTestDeadline
	}
	return &submissionService{
		content:          content,
		profiles:         profiles,
		speech:           speech,
		text:             text,
		speaking:         speaking,
		logger:           logger,
		speakingDeadline: speakingDeadline,
	}
}

// SubmitChoice grades a listening or reading submission and stores the percentage as the section score.
//
// Unknown question or option ids are not credited. Answer keys and values may be numbers or numeric strings.
func (s *submissionService) SubmitChoice(ctx context.Context, email string, section models.Section, testID int, answers map[string]any) (*models.ChoiceSubmissionResult, error) {
	if !section.HasQuestions() {
		return nil, models.NewValidationError("section %s has no multiple-choice questions", section)
	}
	test, err := s.loadTest(ctx, email, section, testID)
	if err != nil {
		return nil, err
	}

	grade := scoring.Grade(test.Blocks, scoring.ParseAnswers(answers))
	profile, err := s.profiles.SetSectionScore(ctx, email, section, grade.Percentage)
	if err != nil {
		return nil, err
	}

	s.logger.Info("choice submission graded",
		zap.String("section", string(section)),
		zap.Int("test_id", testID),
		zap.Int("correct", grade.Correct),
		zap.Int("total", grade.Total),
	)
	return &models.ChoiceSubmissionResult{
		Correct: grade.Correct,
		Total:   grade.Total,
		Score:   grade.Percentage,
		Profile: profile,
	}, nil
}

// SubmitWriting evaluates a written answer and stores the mean of the four criteria as the writing score
func (s *submissionService) SubmitWriting(ctx context.Context, email string, testID int, text string) (*models.WritingSubmissionResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("text is required")
	}
	if _, err := s.loadTest(ctx, email, models.SectionWriting, testID); err != nil {
		return nil, err
	}

	result, err := s.text.Evaluate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate writing: %w", err)
	}

	profile, err := s.profiles.SetSectionScore(ctx, email, models.SectionWriting, result.Score)
	if err != nil {
		return nil, err
	}
	return &models.WritingSubmissionResult{
		Criteria: models.WritingCriteria{
			Clarity:     result.Clarity,
			VerbTenses:  result.VerbTenses,
			Vocabulary:  result.Vocabulary,
			Conciseness: result.Conciseness,
		},
		Score:    result.Score,
		Feedback: result.Feedback,
		Profile:  profile,
	}, nil
}

// SubmitSpeaking evaluates one recording against the first block of a speaking test
func (s *submissionService) SubmitSpeaking(ctx context.Context, email string, testID int, sample evaluation.AudioSample) (*models.SpeakingSubmissionResult, error) {
	test, err := s.loadTest(ctx, email, models.SectionSpeaking, testID)
	if err != nil {
		return nil, err
	}
	if len(test.Blocks) == 0 {
		return nil, models.NewValidationError("speaking test %d has no blocks", testID)
	}

	result, err := s.speech.Evaluate(ctx, test.Blocks[0].ReferenceText(), sample)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate speaking: %w", err)
	}
	if result.Score == nil {
		return nil, fmt.Errorf("%w: no pronunciation score received", models.ErrUpstreamEvaluation)
	}

	profile, err := s.profiles.SetSectionScore(ctx, email, models.SectionSpeaking, *result.Score)
	if err != nil {
		return nil, err
	}
	return &models.SpeakingSubmissionResult{
		Score:    *result.Score,
		LevelTag: result.LevelTag,
		Warnings: result.Warnings,
		Report:   result.RawReport,
		Profile:  profile,
	}, nil
}

// SubmitSpeakingBlocks evaluates one recording per block of a speaking test.
//
// The whole evaluation shares one deadline so the response still fits the server's write timeout.
// The speaking score is stored only when at least one block produced a score, so a fully
// failed submission leaves any earlier speaking score in place.
func (s *submissionService) SubmitSpeakingBlocks(ctx context.Context, email string, testID int, samples []evaluation.AudioSample) (*models.SpeakingTestReport, error) {
	test, err := s.loadTest(ctx, email, models.SectionSpeaking, testID)
	if err != nil {
		return nil, err
	}

	// Blocks still pending at the deadline are reported as timed out.
	// Persisting below uses the request context, not the evaluation one.
	evalCtx, cancel := context.WithTimeout(ctx, s.speakingDeadline)
	report, err := s.speaking.Evaluate(evalCtx, test.Blocks, samples)
	cancel()
	if err != nil {
		return nil, err
	}

	if report.ValidEvaluations == 0 {
		s.logger.Warn("no speaking block produced a score",
			zap.Int("test_id", testID),
			zap.Int("blocks", report.TotalBlocks),
		)
		report.Profile, err = s.profiles.GetProfile(ctx, email)
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	report.Profile, err = s.profiles.SetSectionScore(ctx, email, models.SectionSpeaking, report.Score)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// loadTest fetches a test after checking that the user exists and follows the test's vertical
func (s *submissionService) loadTest(ctx context.Context, email string, section models.Section, testID int) (*models.Test, error) {
	if testID <= 0 {
		return nil, models.NewValidationError("invalid test id: %d", testID)
	}
	profile, err := s.profiles.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	test, err := s.content.GetTest(ctx, section, testID)
	if err != nil {
		return nil, err
	}
	if test.Vertical != profile.Vertical {
		return nil, models.NewValidationError("test %d belongs to vertical %s, user follows %s", testID, test.Vertical, profile.Vertical)
	}
	return test, nil
}
