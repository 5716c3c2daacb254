package models

import "time"

// Level represents the discrete proficiency tier derived from the overall score
type Level string

// Level constants
const (
	LevelBeginner     Level = "beginner"
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether the level is a known tier
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelBasic, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// UserProfile is the aggregate root owning per-section scores, derived overall score/level
// and attempt-tracking state.
//
// OverallScore and Level are derived and must never be set directly.
type UserProfile struct {
	ID               int        `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	Vertical         Vertical   `json:"vertical"`
	Listening        *float64   `json:"listening"`
	Speaking         *float64   `json:"speaking"`
	Writing          *float64   `json:"writing"`
	Reading          *float64   `json:"reading"`
	OverallScore     *float64   `json:"overallScore"`
	Level            *Level     `json:"level"`
	AttemptsMade     int        `json:"attemptsMade"`
	LockoutStartedAt *time.Time `json:"lockoutStartedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SectionScore returns the stored score of a section
func (p *UserProfile) SectionScore(section Section) *float64 {
	switch section {
	case SectionListening:
		return p.Listening
	case SectionSpeaking:
		return p.Speaking
	case SectionWriting:
		return p.Writing
	case SectionReading:
		return p.Reading
	}
	return nil
}

// SectionScoresUpdate represents a partial update of section results.
// Nil entries are left untouched.
type SectionScoresUpdate struct {
	Listening *float64 `json:"listening,omitempty"`
	Speaking  *float64 `json:"speaking,omitempty"`
	Writing   *float64 `json:"writing,omitempty"`
	Reading   *float64 `json:"reading,omitempty"`
}

// Empty reports whether no section is set in the update
func (u SectionScoresUpdate) Empty() bool {
	return u.Listening == nil && u.Speaking == nil && u.Writing == nil && u.Reading == nil
}

// AttemptState is the eligibility state of a profile
type AttemptState string

// AttemptState constants
const (
	AttemptStateEligible          AttemptState = "eligible"
	AttemptStateLocked            AttemptState = "locked"
	AttemptStateEligibleAfterLock AttemptState = "eligible_after_lock"
)

// AttemptStatus represents the attempt eligibility of a profile in API responses
type AttemptStatus struct {
	AttemptsMade     int          `json:"attemptsMade"`
	MaxAttempts      int          `json:"maxAttempts"`
	State            AttemptState `json:"state"`
	CanAttempt       bool         `json:"canAttempt"`
	LockoutStartedAt *time.Time   `json:"lockoutStartedAt,omitempty"`
	UnlockDate       string       `json:"unlockDate,omitempty"`
}
