package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/englishassessment/backend/internal/models"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// ErrDuplicate is returned when an insert violates a unique key
var ErrDuplicate = errors.New("duplicate entry")

const mysqlDuplicateEntry = 1062

const profileColumns = `id, email, name, vertical, listening_score, speaking_score, writing_score, reading_score,
	overall_score, level, attempts_made, lockout_started_at, created_at, updated_at`

type profileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new user profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) *profileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var p models.UserProfile
	var listening, speaking, writing, reading, overall sql.NullFloat64
	var level sql.NullString
	var lockout sql.NullTime
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Vertical, &listening, &speaking, &writing, &reading,
		&overall, &level, &p.AttemptsMade, &lockout, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Listening = nullFloat(listening)
	p.Speaking = nullFloat(speaking)
	p.Writing = nullFloat(writing)
	p.Reading = nullFloat(reading)
	p.OverallScore = nullFloat(overall)
	if level.Valid {
		l := models.Level(level.String)
		p.Level = &l
	}
	if lockout.Valid {
		t := lockout.Time
		p.LockoutStartedAt = &t
	}
	return &p, nil
}

// GetByEmail retrieves a profile by its unique email
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE email = ?`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("user profile")
		}
		r.logger.Error("failed to query user profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to query user profile: %w", err)
	}
	return p, nil
}

// Create inserts a new profile and sets its ID.
// Returns ErrDuplicate when a profile with the same email already exists.
func (r *profileRepository) Create(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (email, name, vertical, listening_score, speaking_score, writing_score, reading_score,
			overall_score, level, attempts_made, lockout_started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, profileArgs(p)...)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: user profile %s", ErrDuplicate, p.Email)
		}
		r.logger.Error("failed to insert user profile", zap.String("email", p.Email), zap.Error(err))
		return fmt.Errorf("failed to insert user profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user profile id: %w", err)
	}
	p.ID = int(id)
	return nil
}

// Mutate loads the profile with a row lock, applies fn and persists the result in one transaction.
// Nothing is written when fn returns an error.
func (r *profileRepository) Mutate(ctx context.Context, email string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE email = ? FOR UPDATE`
	p, err := scanProfile(tx.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("user profile")
		}
		r.logger.Error("failed to lock user profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to lock user profile: %w", err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	update := `
		UPDATE user_profiles
		SET email = ?, name = ?, vertical = ?, listening_score = ?, speaking_score = ?, writing_score = ?, reading_score = ?,
			overall_score = ?, level = ?, attempts_made = ?, lockout_started_at = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	args := append(profileArgs(p), p.ID)
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		r.logger.Error("failed to update user profile", zap.Int("id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit user profile update", zap.Int("id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to commit user profile update: %w", err)
	}
	return p, nil
}

func profileArgs(p *models.UserProfile) []any {
	var level any
	if p.Level != nil {
		level = string(*p.Level)
	}
	var lockout any
	if p.LockoutStartedAt != nil {
		lockout = *p.LockoutStartedAt
	}
	return []any{
		p.Email, p.Name, int(p.Vertical),
		floatArg(p.Listening), floatArg(p.Speaking), floatArg(p.Writing), floatArg(p.Reading),
		floatArg(p.OverallScore), level, p.AttemptsMade, lockout, p.CreatedAt, p.UpdatedAt,
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
