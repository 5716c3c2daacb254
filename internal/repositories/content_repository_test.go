package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/englishassessment/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testColumns     = []string{"id", "section", "title", "description", "vertical"}
	blockColumns    = []string{"id", "test_id", "position", "title", "content", "instructions", "media_url", "text", "example"}
	questionColumns = []string{"id", "block_id", "text", "type"}
	optionColumns   = []string{"id", "question_id", "text", "is_correct"}
)

func setupContentRepository(t *testing.T) (*contentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return NewContentRepository(db, logger), mock
}

func TestContentRepository_ListTests(t *testing.T) {
	technology := models.VerticalTechnology

	tests := []struct {
		name          string
		vertical      *models.Vertical
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name: "all verticals",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(testColumns).
					AddRow(1, "reading", "Reading 1", "First", 1).
					AddRow(2, "reading", "Reading 2", "Second", 2)
				mock.ExpectQuery(`SELECT id, section, title, description, vertical FROM tests WHERE section = \? ORDER BY id`).
					WithArgs("reading").
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name:     "filtered by vertical",
			vertical: &technology,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(testColumns).
					AddRow(2, "reading", "Reading 2", "Second", 2)
				mock.ExpectQuery(`SELECT id, section, title, description, vertical FROM tests WHERE section = \? AND vertical = \? ORDER BY id`).
					WithArgs("reading", 2).
					WillReturnRows(rows)
			},
			expectedCount: 1,
		},
		{
			name: "empty",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnRows(sqlmock.NewRows(testColumns))
			},
			expectedCount: 0,
		},
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name: "scan error",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(testColumns).
					AddRow("invalid", "reading", "Reading 1", "First", 1)
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupContentRepository(t)
			tt.setupMock(mock)

			result, err := repo.ListTests(context.Background(), models.SectionReading, tt.vertical)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Len(t, result, tt.expectedCount)
				assert.NotNil(t, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContentRepository_GetTest_Choice(t *testing.T) {
	repo, mock := setupContentRepository(t)

	mock.ExpectQuery(`SELECT id, section, title, description, vertical FROM tests WHERE id = \? AND section = \?`).
		WithArgs(3, "listening").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow(3, "listening", "Listening 1", "Audio test", 1))
	mock.ExpectQuery(`SELECT (.+) FROM test_blocks WHERE test_id = \? ORDER BY id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(blockColumns).
			AddRow(10, 3, 1, "Part 1", "", "Listen carefully", "https://cdn.example.com/a.mp3", "", "").
			AddRow(11, 3, 2, "Part 2", "", "", "https://cdn.example.com/b.mp3", "", ""))
	mock.ExpectQuery(`SELECT id, block_id, text, type FROM questions WHERE block_id IN \(\?,\?\) ORDER BY position, id`).
		WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow(100, 10, "Where is she?", "multiple_choice").
			AddRow(101, 11, "What time is it?", "multiple_choice").
			AddRow(102, 11, "Who called?", "multiple_choice"))
	mock.ExpectQuery(`SELECT id, question_id, text, is_correct FROM options WHERE question_id IN \(\?,\?,\?\) ORDER BY position, id`).
		WithArgs(100, 101, 102).
		WillReturnRows(sqlmock.NewRows(optionColumns).
			AddRow(1000, 100, "At home", true).
			AddRow(1001, 100, "At work", false).
			AddRow(1010, 101, "Noon", true))

	test, err := repo.GetTest(context.Background(), models.SectionListening, 3)

	require.NoError(t, err)
	assert.Equal(t, "Listening 1", test.Title)
	require.Len(t, test.Blocks, 2)
	require.Len(t, test.Blocks[0].Questions, 1)
	require.Len(t, test.Blocks[1].Questions, 2)
	assert.Len(t, test.Blocks[0].Questions[0].Options, 2)
	assert.True(t, test.Blocks[0].Questions[0].Options[0].IsCorrect)
	assert.Len(t, test.Blocks[1].Questions[0].Options, 1)
	assert.NotNil(t, test.Blocks[1].Questions[1].Options)
	assert.Empty(t, test.Blocks[1].Questions[1].Options)
	assert.Equal(t, 3, test.QuestionCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_GetTest_Speaking(t *testing.T) {
	repo, mock := setupContentRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM tests WHERE id = \? AND section = \?`).
		WithArgs(4, "speaking").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow(4, "speaking", "Speaking 1", "", 2))
	// Recordings pair with blocks in creation order, whatever the display position says
	mock.ExpectQuery(`SELECT (.+) FROM test_blocks WHERE test_id = \? ORDER BY id$`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(blockColumns).
			AddRow(20, 4, 2, "Intro", "", "", "", "Describe your job", "I work as a developer").
			AddRow(21, 4, 1, "Follow-up", "", "", "", "Describe your team", ""))

	test, err := repo.GetTest(context.Background(), models.SectionSpeaking, 4)

	require.NoError(t, err)
	require.Len(t, test.Blocks, 2)
	assert.Equal(t, 20, test.Blocks[0].ID)
	assert.Equal(t, 21, test.Blocks[1].ID)
	assert.Equal(t, "I work as a developer", test.Blocks[0].ReferenceText())
	assert.Equal(t, "Describe your team", test.Blocks[1].ReferenceText())
	assert.Empty(t, test.Blocks[0].Questions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_GetTest_Errors(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnRows(sqlmock.NewRows(testColumns))
			},
			expectedError: models.ErrNotFound,
		},
		{
			name: "blocks query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnRows(sqlmock.NewRows(testColumns).AddRow(1, "reading", "R", "", 1))
				mock.ExpectQuery(`SELECT (.+) FROM test_blocks`).
					WillReturnError(errors.New("database error"))
			},
		},
		{
			name: "options query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM tests`).
					WillReturnRows(sqlmock.NewRows(testColumns).AddRow(1, "reading", "R", "", 1))
				mock.ExpectQuery(`SELECT (.+) FROM test_blocks`).
					WillReturnRows(sqlmock.NewRows(blockColumns).AddRow(10, 1, 1, "", "Text", "", "", "", ""))
				mock.ExpectQuery(`SELECT (.+) FROM questions`).
					WillReturnRows(sqlmock.NewRows(questionColumns).AddRow(100, 10, "Q", "multiple_choice"))
				mock.ExpectQuery(`SELECT (.+) FROM options`).
					WillReturnError(errors.New("database error"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupContentRepository(t)
			tt.setupMock(mock)

			test, err := repo.GetTest(context.Background(), models.SectionReading, 1)

			require.Error(t, err)
			assert.Nil(t, test)
			if tt.expectedError != nil {
				assert.True(t, errors.Is(err, tt.expectedError))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
