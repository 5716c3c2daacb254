// Package scoring implements grading, section aggregation and attempt eligibility rules
package scoring

import (
	"strconv"
	"strings"

	"github.com/englishassessment/backend/internal/models"
)

// GradeResult holds the outcome of grading a multiple-choice submission
type GradeResult struct {
	Correct    int
	Total      int
	Percentage float64
}

// Grade computes the number of correctly answered questions across all blocks of a test.
//
// "answers" maps question ID to the selected option ID. Questions without a selection and
// selections that are not an option of the question are simply not credited.
// A submission is credited only when the selected option is flagged correct, regardless of
// how many options of the question are flagged correct.
func Grade(blocks []models.Block, answers map[int]int) GradeResult {
	var result GradeResult
	for _, block := range blocks {
		for _, question := range block.Questions {
			result.Total++
			selected, ok := answers[question.ID]
			if !ok {
				continue
			}
			for _, option := range question.Options {
				if option.ID == selected {
					if option.IsCorrect {
						result.Correct++
					}
					break
				}
			}
		}
	}

	if result.Total > 0 {
		result.Percentage = 100 * float64(result.Correct) / float64(result.Total)
	}
	return result
}

// ParseAnswers converts a decoded JSON answers object into question ID to option ID pairs.
//
// Keys and values may be numbers or numeric strings. Entries that cannot be interpreted
// are skipped, so they end up not credited instead of failing the submission.
func ParseAnswers(raw map[string]any) map[int]int {
	answers := make(map[int]int, len(raw))
	for key, value := range raw {
		questionID, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		optionID, ok := toID(value)
		if !ok {
			continue
		}
		answers[questionID] = optionID
	}
	return answers
}

func toID(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
