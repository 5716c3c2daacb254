package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/englishassessment/backend/internal/models"
	"github.com/englishassessment/backend/internal/repositories"
	"github.com/englishassessment/backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProfileRepository is an in-memory implementation of ProfileRepository
type mockProfileRepository struct {
	profiles  map[string]*models.UserProfile
	getErr    error
	createErr error
	mutateErr error
	creates   int
	mutations int
	nextID    int
}

func newMockProfileRepository(profiles ...*models.UserProfile) *mockProfileRepository {
	m := &mockProfileRepository{profiles: map[string]*models.UserProfile{}, nextID: 100}
	for _, p := range profiles {
		m.profiles[p.Email] = p
	}
	return m
}

func (m *mockProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[email]
	if !ok {
		return nil, models.NewNotFoundError("user profile")
	}
	clone := *p
	return &clone, nil
}

func (m *mockProfileRepository) Create(ctx context.Context, p *models.UserProfile) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	p.ID = m.nextID
	clone := *p
	m.profiles[p.Email] = &clone
	return nil
}

func (m *mockProfileRepository) Mutate(ctx context.Context, email string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	if m.mutateErr != nil {
		return nil, m.mutateErr
	}
	p, ok := m.profiles[email]
	if !ok {
		return nil, models.NewNotFoundError("user profile")
	}
	clone := *p
	if err := fn(&clone); err != nil {
		return nil, err
	}
	m.mutations++
	stored := clone
	m.profiles[email] = &stored
	return &clone, nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newTestProfileService(repo ProfileRepository, c *clock) *profileService {
	scorer := scoring.NewProfileScorer(scoring.NewAggregator(nil), scoring.DefaultAttemptPolicy(), c.Now)
	return NewProfileService(repo, scorer, zap.NewNop())
}

func vertical(v models.Vertical) *models.Vertical {
	return &v
}

func score(v float64) *float64 {
	return &v
}

func TestProfileService_Login(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := &models.UserProfile{ID: 1, Email: "user@example.com", Vertical: models.VerticalGeneral, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)}

	tests := []struct {
		name             string
		email            string
		vertical         *models.Vertical
		repo             *mockProfileRepository
		expectedError    error
		expectedVertical models.Vertical
		expectedCreates  int
		expectedMutation int
	}{
		{
			name:             "creates profile on first login",
			email:            "new@example.com",
			vertical:         vertical(models.VerticalTechnology),
			repo:             newMockProfileRepository(),
			expectedVertical: models.VerticalTechnology,
			expectedCreates:  1,
		},
		{
			name:             "returns existing profile",
			email:            "user@example.com",
			vertical:         vertical(models.VerticalGeneral),
			repo:             newMockProfileRepository(existing),
			expectedVertical: models.VerticalGeneral,
		},
		{
			name:             "updates changed vertical",
			email:            " user@example.com ",
			vertical:         vertical(models.VerticalHealth),
			repo:             newMockProfileRepository(existing),
			expectedVertical: models.VerticalHealth,
			expectedMutation: 1,
		},
		{
			name:          "missing email",
			email:         "",
			vertical:      vertical(models.VerticalGeneral),
			repo:          newMockProfileRepository(),
			expectedError: models.ErrValidation,
		},
		{
			name:          "missing vertical",
			email:         "new@example.com",
			repo:          newMockProfileRepository(),
			expectedError: models.ErrValidation,
		},
		{
			name:          "invalid vertical",
			email:         "new@example.com",
			vertical:      vertical(models.Vertical(42)),
			repo:          newMockProfileRepository(),
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestProfileService(tt.repo, &clock{now: now})

			profile, err := svc.Login(context.Background(), tt.email, tt.vertical)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				assert.Nil(t, profile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedVertical, profile.Vertical)
			assert.Equal(t, tt.expectedCreates, tt.repo.creates)
			assert.Equal(t, tt.expectedMutation, tt.repo.mutations)
			assert.Nil(t, profile.OverallScore)
			assert.Nil(t, profile.Level)
		})
	}
}

func TestProfileService_Login_ConcurrentCreate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockProfileRepository()
	repo.createErr = fmt.Errorf("%w: user profile", repositories.ErrDuplicate)
	svc := newTestProfileService(&racingRepository{mockProfileRepository: repo}, &clock{now: now})

	profile, err := svc.Login(context.Background(), "race@example.com", vertical(models.VerticalBusiness))

	require.NoError(t, err)
	assert.Equal(t, 7, profile.ID)
}

// racingRepository simulates another request creating the profile between lookup and insert
type racingRepository struct {
	*mockProfileRepository
}

func (r *racingRepository) Create(ctx context.Context, p *models.UserProfile) error {
	err := r.mockProfileRepository.Create(ctx, p)
	r.profiles[p.Email] = &models.UserProfile{ID: 7, Email: p.Email, Vertical: p.Vertical}
	return err
}

func TestProfileService_Login_RepositoryError(t *testing.T) {
	repo := newMockProfileRepository()
	repo.getErr = errors.New("connection refused")
	svc := newTestProfileService(repo, &clock{now: time.Now()})

	_, err := svc.Login(context.Background(), "user@example.com", vertical(models.VerticalGeneral))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get user profile")
}

func TestProfileService_UpdateSectionScores(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		update          models.SectionScoresUpdate
		expectedError   error
		expectedOverall *float64
		expectedLevel   models.Level
	}{
		{
			name:            "all sections",
			update:          models.SectionScoresUpdate{Listening: score(90), Speaking: score(70), Reading: score(60), Writing: score(50)},
			expectedOverall: score(75),
			expectedLevel:   models.LevelIntermediate,
		},
		{
			name:   "partial update keeps overall empty",
			update: models.SectionScoresUpdate{Listening: score(90)},
		},
		{
			name:          "empty update",
			update:        models.SectionScoresUpdate{},
			expectedError: models.ErrValidation,
		},
		{
			name:          "out of range",
			update:        models.SectionScoresUpdate{Listening: score(90), Writing: score(101)},
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockProfileRepository(&models.UserProfile{ID: 1, Email: "user@example.com", Vertical: models.VerticalGeneral})
			svc := newTestProfileService(repo, &clock{now: now})

			profile, err := svc.UpdateSectionScores(context.Background(), "user@example.com", tt.update)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				assert.Equal(t, 0, repo.mutations)
				assert.Nil(t, repo.profiles["user@example.com"].Listening)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now, profile.UpdatedAt)
			if tt.expectedOverall == nil {
				assert.Nil(t, profile.OverallScore)
				assert.Nil(t, profile.Level)
				return
			}
			require.NotNil(t, profile.OverallScore)
			assert.InDelta(t, *tt.expectedOverall, *profile.OverallScore, 1e-9)
			require.NotNil(t, profile.Level)
			assert.Equal(t, tt.expectedLevel, *profile.Level)
		})
	}
}

func TestProfileService_SetSectionScore(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockProfileRepository(&models.UserProfile{
		ID: 1, Email: "user@example.com", Vertical: models.VerticalGeneral,
		Listening: score(80), Reading: score(80), Writing: score(80),
	})
	svc := newTestProfileService(repo, &clock{now: now})

	profile, err := svc.SetSectionScore(context.Background(), "user@example.com", models.SectionSpeaking, 80)

	require.NoError(t, err)
	require.NotNil(t, profile.OverallScore)
	assert.InDelta(t, 80.0, *profile.OverallScore, 1e-9)
	assert.Equal(t, models.LevelAdvanced, *profile.Level)

	_, err = svc.SetSectionScore(context.Background(), "user@example.com", models.SectionSpeaking, -1)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = svc.SetSectionScore(context.Background(), "missing@example.com", models.SectionSpeaking, 50)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestProfileService_SetVertical(t *testing.T) {
	repo := newMockProfileRepository(&models.UserProfile{ID: 1, Email: "user@example.com", Vertical: models.VerticalGeneral})
	svc := newTestProfileService(repo, &clock{now: time.Now()})

	profile, err := svc.SetVertical(context.Background(), "user@example.com", models.VerticalBusiness)
	require.NoError(t, err)
	assert.Equal(t, models.VerticalBusiness, profile.Vertical)

	_, err = svc.SetVertical(context.Background(), "user@example.com", models.Vertical(0))
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestProfileService_Attempts(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)}
	repo := newMockProfileRepository(&models.UserProfile{ID: 1, Email: "user@example.com", Vertical: models.VerticalGeneral})
	svc := newTestProfileService(repo, c)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		status, err := svc.RegisterAttempt(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, i, status.AttemptsMade)
	}

	status, err := svc.GetAttemptStatus(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateLocked, status.State)
	assert.False(t, status.CanAttempt)
	assert.Equal(t, "2026-03-15", status.UnlockDate)

	c.now = c.now.Add(47 * time.Hour)
	_, err = svc.RegisterAttempt(ctx, "user@example.com")
	var limitErr *models.AttemptLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "2026-03-15", limitErr.UnlockDate.Format(models.UnlockDateLayout))
	assert.Equal(t, 3, repo.profiles["user@example.com"].AttemptsMade)

	c.now = c.now.Add(2 * time.Hour)
	status, err = svc.RegisterAttempt(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, status.AttemptsMade)
	assert.Equal(t, models.AttemptStateEligibleAfterLock, status.State)
	assert.NotNil(t, repo.profiles["user@example.com"].LockoutStartedAt)
}
