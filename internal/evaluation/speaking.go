package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/englishassessment/backend/internal/models"
	"go.uber.org/zap"
)

// DefaultSpeakingTestDeadline bounds a whole multi-block speaking evaluation
const DefaultSpeakingTestDeadline = 120 * time.Second

// SpeechScorer defines the interface for scoring one audio sample against a reference text
type SpeechScorer interface {
	Evaluate(ctx context.Context, referenceText string, sample AudioSample) (*SpeechResult, error)
}

// SpeakingTestEvaluator evaluates a multi-block speaking test one block at a time
type SpeakingTestEvaluator struct {
	scorer SpeechScorer
	logger *zap.Logger
}

// NewSpeakingTestEvaluator creates a new multi-block speaking evaluator
func NewSpeakingTestEvaluator(scorer SpeechScorer, logger *zap.Logger) *SpeakingTestEvaluator {
	return &SpeakingTestEvaluator{
		scorer: scorer,
		logger: logger,
	}
}

// Evaluate pairs blocks with samples by position and averages the blocks that produced a score.
//
// A failed block is reported in its entry and does not abort the others. When no block
// produced a score the report score is 0. Mismatched counts are a validation error.
// Once ctx is done the remaining blocks are recorded as failures without calling the scorer.
func (e *SpeakingTestEvaluator) Evaluate(ctx context.Context, blocks []models.Block, samples []AudioSample) (*models.SpeakingTestReport, error) {
	if len(blocks) == 0 {
		return nil, models.NewValidationError("speaking test has no blocks")
	}
	if len(samples) != len(blocks) {
		return nil, models.NewValidationError("expected %d audio files, got %d", len(blocks), len(samples))
	}

	report := &models.SpeakingTestReport{
		TotalBlocks: len(blocks),
		Blocks:      make([]models.BlockEvaluation, 0, len(blocks)),
	}

	var sum float64
	for i, block := range blocks {
		entry := models.BlockEvaluation{BlockID: block.ID}

		var (
			result *SpeechResult
			err    error
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = transportError(speechEvaluator, ctxErr)
		} else {
			result, err = e.scorer.Evaluate(ctx, block.ReferenceText(), samples[i])
		}
		switch {
		case err != nil:
			entry.Error = err.Error()
			if kind, ok := KindOf(err); ok {
				entry.ErrorKind = string(kind)
			} else if errors.Is(err, models.ErrValidation) {
				entry.ErrorKind = "validation"
			}
			e.logger.Warn("speaking block evaluation failed",
				zap.Int("block_id", block.ID),
				zap.Error(err),
			)
		case result.Score == nil:
			entry.Warnings = result.Warnings
			entry.Report = result.RawReport
			entry.Error = "no pronunciation score received"
			entry.ErrorKind = "empty"
		default:
			entry.Score = result.Score
			entry.LevelTag = result.LevelTag
			entry.Warnings = result.Warnings
			entry.Report = result.RawReport
			sum += *result.Score
			report.ValidEvaluations++
		}
		report.Blocks = append(report.Blocks, entry)
	}

	if report.ValidEvaluations > 0 {
		report.Score = sum / float64(report.ValidEvaluations)
	}
	report.LevelTag = LevelTagFor(report.Score)
	return report, nil
}
