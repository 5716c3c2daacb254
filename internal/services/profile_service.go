package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/englishassessment/backend/internal/models"
	"github.com/englishassessment/backend/internal/repositories"
	"github.com/englishassessment/backend/internal/scoring"
	"go.uber.org/zap"
)

// ProfileRepository is the interface that wraps methods for user_profiles table data access
type ProfileRepository interface {
	// Method GetByEmail retrieve a profile by its unique email.
	//
	// If no profile exists, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	// Method Create insert a new profile and set its ID.
	//
	// If a profile with the same email already exists, an error wrapping repositories.ErrDuplicate is returned.
	Create(ctx context.Context, p *models.UserProfile) error
	// Method Mutate load the profile with a row lock, apply "fn" and persist the result atomically.
	//
	// If "fn" returns an error, nothing is written and that error is returned unchanged.
	// If no profile exists, an error wrapping models.ErrNotFound is returned and "fn" is not called.
	Mutate(ctx context.Context, email string, fn func(*models.UserProfile) error) (*models.UserProfile, error)
}

type profileService struct {
	repo   ProfileRepository
	scorer *scoring.ProfileScorer
	logger *zap.Logger
}

// NewProfileService creates a new user profile service
func NewProfileService(repo ProfileRepository, scorer *scoring.ProfileScorer, logger *zap.Logger) *profileService {
	return &profileService{
		repo:   repo,
		scorer: scorer,
		logger: logger,
	}
}

// Login returns the profile of a verified caller, creating it on first login.
//
// The vertical comes from the identity provider metadata. When it differs from the stored
// vertical of an existing profile, the profile is updated.
func (s *profileService) Login(ctx context.Context, email string, vertical *models.Vertical) (*models.UserProfile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if vertical == nil {
		return nil, models.NewValidationError("vertical not found in token")
	}
	if !vertical.Valid() {
		return nil, models.NewValidationError("invalid vertical: %d", int(*vertical))
	}

	profile, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		profile, err = s.create(ctx, email, *vertical)
		if err != nil {
			return nil, err
		}
	case err != nil:
		s.logger.Error("failed to get user profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	if profile.Vertical == *vertical {
		return profile, nil
	}
	return s.SetVertical(ctx, email, *vertical)
}

func (s *profileService) create(ctx context.Context, email string, vertical models.Vertical) (*models.UserProfile, error) {
	now := s.scorer.Now()
	profile := &models.UserProfile{
		Email:     email,
		Vertical:  vertical,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.scorer.Recompute(profile)

	err := s.repo.Create(ctx, profile)
	if errors.Is(err, repositories.ErrDuplicate) {
		// Concurrent first login created it
		return s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		s.logger.Error("failed to create user profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	s.logger.Info("user profile created", zap.String("email", email), zap.Int("id", profile.ID))
	return profile, nil
}

// GetProfile retrieves the profile of a user
func (s *profileService) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByEmail(ctx, email)
}

// SetVertical changes the vertical of a user
func (s *profileService) SetVertical(ctx context.Context, email string, vertical models.Vertical) (*models.UserProfile, error) {
	if !vertical.Valid() {
		return nil, models.NewValidationError("invalid vertical: %d", int(vertical))
	}
	return s.mutate(ctx, email, func(p *models.UserProfile) error {
		p.Vertical = vertical
		p.UpdatedAt = s.scorer.Now()
		return nil
	})
}

// UpdateSectionScores applies a partial update of section results.
// Nil entries are ignored, an update without any entry is rejected.
func (s *profileService) UpdateSectionScores(ctx context.Context, email string, update models.SectionScoresUpdate) (*models.UserProfile, error) {
	if update.Empty() {
		return nil, models.NewValidationError("no section results provided")
	}
	return s.mutate(ctx, email, func(p *models.UserProfile) error {
		return s.scorer.ApplyScores(p, update)
	})
}

// SetSectionScore stores the score of one section and recomputes the overall score and level
func (s *profileService) SetSectionScore(ctx context.Context, email string, section models.Section, score float64) (*models.UserProfile, error) {
	if err := scoring.ValidateScore(section, score); err != nil {
		return nil, err
	}
	return s.mutate(ctx, email, func(p *models.UserProfile) error {
		return s.scorer.SetSectionScore(p, section, score)
	})
}

// RegisterAttempt starts a new test cycle for a user.
// A *models.AttemptLimitError is returned while the user is locked out.
func (s *profileService) RegisterAttempt(ctx context.Context, email string) (*models.AttemptStatus, error) {
	profile, err := s.mutate(ctx, email, s.scorer.RegisterAttempt)
	if err != nil {
		return nil, err
	}
	s.logger.Info("attempt registered",
		zap.String("email", profile.Email),
		zap.Int("attempts_made", profile.AttemptsMade),
	)
	return s.scorer.Attempts().Status(profile, s.scorer.Now()), nil
}

// GetAttemptStatus reports whether a user may start a new test cycle
func (s *profileService) GetAttemptStatus(ctx context.Context, email string) (*models.AttemptStatus, error) {
	profile, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.scorer.Attempts().Status(profile, s.scorer.Now()), nil
}

func (s *profileService) mutate(ctx context.Context, email string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, email, fn)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", models.NewValidationError("email not found in token")
	}
	return email, nil
}
