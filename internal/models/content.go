package models

// Test represents a section test with its ordered blocks
type Test struct {
	ID          int      `json:"id"`
	Section     Section  `json:"section"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Vertical    Vertical `json:"vertical"`
	Blocks      []Block  `json:"blocks,omitempty"`
}

// Block belongs to exactly one test.
// Listening and reading blocks own questions, writing and speaking blocks are gradable units themselves.
type Block struct {
	ID           int        `json:"id"`
	TestID       int        `json:"testId"`
	Position     int        `json:"position"`
	Title        string     `json:"title,omitempty"`
	Content      string     `json:"content,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	MediaURL     string     `json:"mediaUrl,omitempty"`
	Text         string     `json:"text,omitempty"`
	Example      string     `json:"example,omitempty"`
	Questions    []Question `json:"questions,omitempty"`
}

// ReferenceText returns the text a speech sample of the block is scored against
func (b Block) ReferenceText() string {
	if b.Example != "" {
		return b.Example
	}
	return b.Text
}

// QuestionCount returns the number of questions across all blocks of the test
func (t *Test) QuestionCount() int {
	count := 0
	for _, block := range t.Blocks {
		count += len(block.Questions)
	}
	return count
}

// MaxOptionsPerQuestion is the soft cap on options provisioned for one question
const MaxOptionsPerQuestion = 4

// Question belongs to one block and owns its options
type Question struct {
	ID      int      `json:"id"`
	BlockID int      `json:"blockId"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []Option `json:"options"`
}

// Option belongs to one question
type Option struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"-"`
}

// TestSummary represents a test in list responses
type TestSummary struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Vertical        Vertical `json:"vertical"`
	VerticalDisplay string   `json:"verticalDisplay"`
}
