package scoring

import (
	"time"

	"github.com/englishassessment/backend/internal/models"
)

// Default attempt policy values
const (
	DefaultMaxAttempts         = 3
	DefaultLockCheckDuration   = 48 * time.Hour
	DefaultLockDisplayDuration = 5 * 24 * time.Hour
)

// AttemptPolicy decides whether a profile may start a new test cycle.
//
// LockCheckDuration governs eligibility, LockDisplayDuration only drives the unlock date
// reported to a blocked user.
type AttemptPolicy struct {
	MaxAttempts         int
	LockCheckDuration   time.Duration
	LockDisplayDuration time.Duration
}

// DefaultAttemptPolicy returns the policy with default values
func DefaultAttemptPolicy() AttemptPolicy {
	return AttemptPolicy{
		MaxAttempts:         DefaultMaxAttempts,
		LockCheckDuration:   DefaultLockCheckDuration,
		LockDisplayDuration: DefaultLockDisplayDuration,
	}
}

// State returns the eligibility state for an attempt counter and lockout start
func (p AttemptPolicy) State(attemptsMade int, lockoutStartedAt *time.Time, now time.Time) models.AttemptState {
	if attemptsMade < p.MaxAttempts {
		return models.AttemptStateEligible
	}
	if lockoutStartedAt != nil && now.Before(lockoutStartedAt.Add(p.LockCheckDuration)) {
		return models.AttemptStateLocked
	}
	return models.AttemptStateEligibleAfterLock
}

// CanAttempt reports whether a new attempt may be registered
func (p AttemptPolicy) CanAttempt(attemptsMade int, lockoutStartedAt *time.Time, now time.Time) bool {
	return p.State(attemptsMade, lockoutStartedAt, now) != models.AttemptStateLocked
}

// UnlockDate returns the date component of the reported unlock moment
func (p AttemptPolicy) UnlockDate(lockoutStartedAt time.Time) time.Time {
	unlock := lockoutStartedAt.Add(p.LockDisplayDuration)
	y, m, d := unlock.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, unlock.Location())
}

// Register applies the "register attempt" transition.
//
// The counter is incremented and the lock starts only when the new counter equals
// MaxAttempts exactly. Later crossings never start a new lock and the counter is never reset.
// From the locked state an *models.AttemptLimitError carrying the unlock date is returned.
func (p AttemptPolicy) Register(attemptsMade int, lockoutStartedAt *time.Time, now time.Time) (int, *time.Time, error) {
	if p.State(attemptsMade, lockoutStartedAt, now) == models.AttemptStateLocked {
		return attemptsMade, lockoutStartedAt, &models.AttemptLimitError{
			AttemptsMade: attemptsMade,
			UnlockDate:   p.UnlockDate(*lockoutStartedAt),
		}
	}

	attemptsMade++
	if attemptsMade == p.MaxAttempts {
		started := now
		lockoutStartedAt = &started
	}
	return attemptsMade, lockoutStartedAt, nil
}

// Status builds the attempt status view of a profile
func (p AttemptPolicy) Status(profile *models.UserProfile, now time.Time) *models.AttemptStatus {
	state := p.State(profile.AttemptsMade, profile.LockoutStartedAt, now)
	status := &models.AttemptStatus{
		AttemptsMade:     profile.AttemptsMade,
		MaxAttempts:      p.MaxAttempts,
		State:            state,
		CanAttempt:       state != models.AttemptStateLocked,
		LockoutStartedAt: profile.LockoutStartedAt,
	}
	if state == models.AttemptStateLocked {
		status.UnlockDate = p.UnlockDate(*profile.LockoutStartedAt).Format(models.UnlockDateLayout)
	}
	return status
}
