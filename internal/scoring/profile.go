package scoring

import (
	"math"
	"time"

	"github.com/englishassessment/backend/internal/models"
)

// ProfileScorer applies every mutation of a user profile and keeps its derived fields consistent
type ProfileScorer struct {
	aggregator *Aggregator
	attempts   AttemptPolicy
	now        func() time.Time
}

// NewProfileScorer creates a new profile scorer.
// A nil "now" falls back to time.Now.
func NewProfileScorer(aggregator *Aggregator, attempts AttemptPolicy, now func() time.Time) *ProfileScorer {
	if aggregator == nil {
		aggregator = NewAggregator(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileScorer{
		aggregator: aggregator,
		attempts:   attempts,
		now:        now,
	}
}

// Now returns the current time of the scorer clock
func (s *ProfileScorer) Now() time.Time {
	return s.now()
}

// Attempts returns the attempt policy
func (s *ProfileScorer) Attempts() AttemptPolicy {
	return s.attempts
}

// ValidateScore rejects scores outside of [0,100]
func ValidateScore(section models.Section, score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return models.NewValidationError("%s score %v is out of range [0,100]", section, score)
	}
	return nil
}

// SetSectionScore stores a section score, recomputes derived fields and bumps UpdatedAt
func (s *ProfileScorer) SetSectionScore(p *models.UserProfile, section models.Section, score float64) error {
	if err := ValidateScore(section, score); err != nil {
		return err
	}
	value := score
	switch section {
	case models.SectionListening:
		p.Listening = &value
	case models.SectionSpeaking:
		p.Speaking = &value
	case models.SectionWriting:
		p.Writing = &value
	case models.SectionReading:
		p.Reading = &value
	default:
		return models.NewValidationError("invalid section: %s", section)
	}
	s.touch(p)
	return nil
}

// ApplyScores applies a partial update of section scores.
// All present scores are validated before any of them is applied.
func (s *ProfileScorer) ApplyScores(p *models.UserProfile, update models.SectionScoresUpdate) error {
	entries := []struct {
		section models.Section
		score   *float64
	}{
		{models.SectionListening, update.Listening},
		{models.SectionSpeaking, update.Speaking},
		{models.SectionReading, update.Reading},
		{models.SectionWriting, update.Writing},
	}
	for _, e := range entries {
		if e.score == nil {
			continue
		}
		if err := ValidateScore(e.section, *e.score); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if e.score == nil {
			continue
		}
		if err := s.SetSectionScore(p, e.section, *e.score); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAttempt registers a new attempt on the profile.
// The profile is left untouched when the attempt is refused.
func (s *ProfileScorer) RegisterAttempt(p *models.UserProfile) error {
	attempts, lockout, err := s.attempts.Register(p.AttemptsMade, p.LockoutStartedAt, s.now())
	if err != nil {
		return err
	}
	p.AttemptsMade = attempts
	p.LockoutStartedAt = lockout
	s.touch(p)
	return nil
}

// Recompute refreshes the overall score and level from the current section scores
func (s *ProfileScorer) Recompute(p *models.UserProfile) {
	p.OverallScore, p.Level = s.aggregator.Recompute(ScoresOf(p))
}

// touch recomputes derived fields and updates the modification time
func (s *ProfileScorer) touch(p *models.UserProfile) {
	s.Recompute(p)
	p.UpdatedAt = s.now()
}
