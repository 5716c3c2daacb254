package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/englishassessment/backend/internal/models"
)

// SectionScores holds the four nullable section scores fed into a weighting policy
type SectionScores struct {
	Listening *float64
	Speaking  *float64
	Writing   *float64
	Reading   *float64
}

// ScoresOf extracts the section scores of a profile
func ScoresOf(p *models.UserProfile) SectionScores {
	return SectionScores{
		Listening: p.Listening,
		Speaking:  p.Speaking,
		Writing:   p.Writing,
		Reading:   p.Reading,
	}
}

// Weights is a per-section weight table
type Weights struct {
	Listening float64
	Speaking  float64
	Reading   float64
	Writing   float64
}

// CanonicalWeights are the weights of the canonical policy
var CanonicalWeights = Weights{Listening: 0.4, Speaking: 0.4, Reading: 0.1, Writing: 0.1}

const weightsTolerance = 1e-9

// Bounds of every section score and of the overall score
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Validate checks that no weight is negative and that weights sum to 1.0
func (w Weights) Validate() error {
	for _, v := range []float64{w.Listening, w.Speaking, w.Reading, w.Writing} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("invalid weight %v, weights must be non-negative", v)
		}
	}
	sum := w.Listening + w.Speaking + w.Reading + w.Writing
	if math.Abs(sum-1) > weightsTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// ParseWeights parses a "listening,speaking,reading,writing" weight list
func ParseWeights(s string) (Weights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Weights{}, fmt.Errorf("expected 4 comma-separated weights, got %d", len(parts))
	}
	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Weights{}, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		values[i] = v
	}
	w := Weights{Listening: values[0], Speaking: values[1], Reading: values[2], Writing: values[3]}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Policy combines section scores into one overall score.
// Implementations must be pure and return nil when they cannot produce a score.
type Policy interface {
	Name() string
	Overall(scores SectionScores) *float64
}

// Policy names
const (
	PolicyRequireAll   = "require_all"
	PolicyRenormalized = "renormalized"
)

// RequireAllPolicy produces a weighted sum only when all four section scores are present
type RequireAllPolicy struct {
	Weights Weights
}

func (p RequireAllPolicy) Name() string { return PolicyRequireAll }

func (p RequireAllPolicy) Overall(s SectionScores) *float64 {
	if s.Listening == nil || s.Speaking == nil || s.Reading == nil || s.Writing == nil {
		return nil
	}
	overall := *s.Listening*p.Weights.Listening +
		*s.Speaking*p.Weights.Speaking +
		*s.Reading*p.Weights.Reading +
		*s.Writing*p.Weights.Writing
	return &overall
}

// RenormalizedPolicy weights every present section score, renormalizing the weights over
// the present ones. It returns nil when no score is present or all present weights are zero.
type RenormalizedPolicy struct {
	Weights Weights
}

func (p RenormalizedPolicy) Name() string { return PolicyRenormalized }

func (p RenormalizedPolicy) Overall(s SectionScores) *float64 {
	var sum, weightSum float64
	add := func(score *float64, weight float64) {
		if score == nil {
			return
		}
		sum += *score * weight
		weightSum += weight
	}
	add(s.Listening, p.Weights.Listening)
	add(s.Speaking, p.Weights.Speaking)
	add(s.Reading, p.Weights.Reading)
	add(s.Writing, p.Weights.Writing)

	if weightSum == 0 {
		return nil
	}
	overall := sum / weightSum
	return &overall
}

// NewPolicy builds a named policy over a weight table
func NewPolicy(name string, weights Weights) (Policy, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case PolicyRequireAll, "":
		return RequireAllPolicy{Weights: weights}, nil
	case PolicyRenormalized:
		return RenormalizedPolicy{Weights: weights}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy: %s, must be '%s' or '%s'", name, PolicyRequireAll, PolicyRenormalized)
	}
}

// Level thresholds on the overall score
const (
	AdvancedThreshold     = 80.0
	IntermediateThreshold = 50.0
	BasicThreshold        = 0.0
)

// LevelFor maps an overall score to its level.
// Beginner is only reachable for negative scores, which in-range inputs never produce.
func LevelFor(overall *float64) *models.Level {
	if overall == nil {
		return nil
	}
	var level models.Level
	switch {
	case *overall >= AdvancedThreshold:
		level = models.LevelAdvanced
	case *overall >= IntermediateThreshold:
		level = models.LevelIntermediate
	case *overall >= BasicThreshold:
		level = models.LevelBasic
	default:
		level = models.LevelBeginner
	}
	return &level
}

// Aggregator recomputes the overall score and level with a configured policy
type Aggregator struct {
	policy Policy
}

// NewAggregator creates an aggregator; a nil policy falls back to the canonical one
func NewAggregator(policy Policy) *Aggregator {
	if policy == nil {
		policy = RequireAllPolicy{Weights: CanonicalWeights}
	}
	return &Aggregator{policy: policy}
}

// Policy returns the configured policy
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Recompute returns the overall score and level for the given section scores
func (a *Aggregator) Recompute(scores SectionScores) (*float64, *models.Level) {
	overall := a.policy.Overall(scores)
	if overall != nil {
		clamped := math.Min(math.Max(*overall, MinScore), MaxScore)
		overall = &clamped
	}
	return overall, LevelFor(overall)
}
