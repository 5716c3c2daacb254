package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/englishassessment/backend/internal/models"
	"go.uber.org/zap"
)

// ContentRepository is the interface that wraps methods for test catalog data access
type ContentRepository interface {
	// Method ListTests retrieve the tests of a section without their blocks.
	//
	// A nil "vertical" returns the tests of every vertical.
	ListTests(ctx context.Context, section models.Section, vertical *models.Vertical) ([]models.Test, error)
	// Method GetTest retrieve one test of a section with its ordered blocks.
	//
	// Blocks of listening and reading tests carry their questions and options, including option correctness.
	// If the test does not exist in the section, an error wrapping models.ErrNotFound is returned.
	GetTest(ctx context.Context, section models.Section, id int) (*models.Test, error)
}

type catalogService struct {
	repo   ContentRepository
	logger *zap.Logger
}

// NewCatalogService creates a new test catalog service
func NewCatalogService(repo ContentRepository, logger *zap.Logger) *catalogService {
	return &catalogService{
		repo:   repo,
		logger: logger,
	}
}

// ListTests lists the tests of a section.
//
// sectionParam must be one of "listening", "reading", "writing" or "speaking".
// An empty verticalParam lists every vertical.
func (s *catalogService) ListTests(ctx context.Context, sectionParam string, verticalParam string) ([]models.TestSummary, error) {
	section, err := models.ParseSection(sectionParam)
	if err != nil {
		return nil, err
	}
	vertical, err := parseVertical(verticalParam)
	if err != nil {
		return nil, err
	}

	tests, err := s.repo.ListTests(ctx, section, vertical)
	if err != nil {
		s.logger.Error("failed to list tests", zap.String("section", sectionParam), zap.Error(err))
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	summaries := make([]models.TestSummary, 0, len(tests))
	for _, t := range tests {
		summaries = append(summaries, models.TestSummary{
			ID:              t.ID,
			Title:           t.Title,
			Description:     t.Description,
			Vertical:        t.Vertical,
			VerticalDisplay: t.Vertical.String(),
		})
	}
	return summaries, nil
}

// GetTest retrieves one test of a section with its blocks
func (s *catalogService) GetTest(ctx context.Context, sectionParam string, id int) (*models.Test, error) {
	section, err := models.ParseSection(sectionParam)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, models.NewValidationError("invalid test id: %d", id)
	}
	return s.repo.GetTest(ctx, section, id)
}

func parseVertical(raw string) (*models.Vertical, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewValidationError("invalid vertical: %s", raw)
	}
	vertical := models.Vertical(n)
	if !vertical.Valid() {
		return nil, models.NewValidationError("invalid vertical: %s", raw)
	}
	return &vertical, nil
}
