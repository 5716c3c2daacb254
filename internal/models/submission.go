package models

// ChoiceSubmissionResult represents the graded result of a listening or reading submission
type ChoiceSubmissionResult struct {
	Correct int          `json:"correctAnswers"`
	Total   int          `json:"totalQuestions"`
	Score   float64      `json:"score"`
	Profile *UserProfile `json:"profile"`
}

// WritingCriteria holds the four writing sub-scores
type WritingCriteria struct {
	Clarity     float64 `json:"clarity"`
	VerbTenses  float64 `json:"verbTenses"`
	Vocabulary  float64 `json:"vocabulary"`
	Conciseness float64 `json:"conciseness"`
}

// WritingSubmissionResult represents the evaluated result of a writing submission
type WritingSubmissionResult struct {
	Criteria WritingCriteria `json:"criteria"`
	Score    float64         `json:"score"`
	Feedback string          `json:"feedback"`
	Profile  *UserProfile    `json:"profile"`
}

// SpeakingSubmissionResult represents the evaluated result of a single-block speaking submission
type SpeakingSubmissionResult struct {
	Score    float64        `json:"score"`
	LevelTag *string        `json:"cefrLevel"`
	Warnings []string       `json:"warnings,omitempty"`
	Report   map[string]any `json:"report"`
	Profile  *UserProfile   `json:"profile"`
}

// BlockEvaluation represents the outcome of one block of a multi-block speaking submission
type BlockEvaluation struct {
	BlockID   int            `json:"blockId"`
	Score     *float64       `json:"score"`
	LevelTag  *string        `json:"cefrLevel,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Report    map[string]any `json:"report,omitempty"`
}

// SpeakingTestReport represents the aggregated result of a multi-block speaking submission
type SpeakingTestReport struct {
	Score            float64           `json:"score"`
	LevelTag         string            `json:"cefrLevel"`
	ValidEvaluations int               `json:"validEvaluations"`
	TotalBlocks      int               `json:"totalBlocks"`
	Blocks           []BlockEvaluation `json:"blocks"`
	Profile          *UserProfile      `json:"profile,omitempty"`
}
