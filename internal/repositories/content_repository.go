package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/englishassessment/backend/internal/models"
	"go.uber.org/zap"
)

type contentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContentRepository creates a new test catalog repository
func NewContentRepository(db *sql.DB, logger *zap.Logger) *contentRepository {
	return &contentRepository{
		db:     db,
		logger: logger,
	}
}

// ListTests retrieves the tests of a section, optionally filtered by vertical
func (r *contentRepository) ListTests(ctx context.Context, section models.Section, vertical *models.Vertical) ([]models.Test, error) {
	query := `SELECT id, section, title, description, vertical FROM tests WHERE section = ?`
	args := []any{string(section)}
	if vertical != nil {
		query += ` AND vertical = ?`
		args = append(args, int(*vertical))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query tests", zap.String("section", string(section)), zap.Error(err))
		return nil, fmt.Errorf("failed to query tests: %w", err)
	}
	defer rows.Close()

	tests := []models.Test{}
	for rows.Next() {
		var t models.Test
		if err := rows.Scan(&t.ID, &t.Section, &t.Title, &t.Description, &t.Vertical); err != nil {
			r.logger.Error("failed to scan test", zap.Error(err))
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tests, nil
}

// GetTest retrieves one test with its ordered blocks.
// Listening and reading blocks are loaded with their questions and options.
func (r *contentRepository) GetTest(ctx context.Context, section models.Section, id int) (*models.Test, error) {
	var t models.Test
	err := r.db.QueryRowContext(ctx,
		`SELECT id, section, title, description, vertical FROM tests WHERE id = ? AND section = ?`,
		id, string(section),
	).Scan(&t.ID, &t.Section, &t.Title, &t.Description, &t.Vertical)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError(fmt.Sprintf("%s test %d", section, id))
		}
		r.logger.Error("failed to query test", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to query test: %w", err)
	}

	if t.Blocks, err = r.blocks(ctx, t.ID); err != nil {
		return nil, err
	}
	if !section.HasQuestions() || len(t.Blocks) == 0 {
		return &t, nil
	}

	if err := r.attachQuestions(ctx, t.Blocks); err != nil {
		return nil, err
	}
	return &t, nil
}

// blocks loads the blocks of a test in creation order.
// Multi-block speaking submissions pair recordings with blocks in this order.
func (r *contentRepository) blocks(ctx context.Context, testID int) ([]models.Block, error) {
	query := `
		SELECT id, test_id, position, title, content, instructions, media_url, text, example
		FROM test_blocks
		WHERE test_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		r.logger.Error("failed to query blocks", zap.Int("test_id", testID), zap.Error(err))
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var b models.Block
		if err := rows.Scan(&b.ID, &b.TestID, &b.Position, &b.Title, &b.Content, &b.Instructions, &b.MediaURL, &b.Text, &b.Example); err != nil {
			r.logger.Error("failed to scan block", zap.Error(err))
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return blocks, nil
}

// attachQuestions loads questions and options for all blocks with one query per level
func (r *contentRepository) attachQuestions(ctx context.Context, blocks []models.Block) error {
	blockIndex := make(map[int]int, len(blocks))
	blockIDs := make([]any, 0, len(blocks))
	for i, b := range blocks {
		blockIndex[b.ID] = i
		blockIDs = append(blockIDs, b.ID)
	}

	query := fmt.Sprintf(`
		SELECT id, block_id, text, type
		FROM questions
		WHERE block_id IN (%s)
		ORDER BY position, id
	`, placeholders(len(blockIDs)))
	rows, err := r.db.QueryContext(ctx, query, blockIDs...)
	if err != nil {
		r.logger.Error("failed to query questions", zap.Error(err))
		return fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.BlockID, &q.Text, &q.Type); err != nil {
			r.logger.Error("failed to scan question", zap.Error(err))
			return fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return fmt.Errorf("error iterating rows: %w", err)
	}
	if len(questions) == 0 {
		return nil
	}

	options, err := r.options(ctx, questions)
	if err != nil {
		return err
	}
	for _, q := range questions {
		q.Options = options[q.ID]
		if q.Options == nil {
			q.Options = []models.Option{}
		}
		i := blockIndex[q.BlockID]
		blocks[i].Questions = append(blocks[i].Questions, q)
	}
	return nil
}

func (r *contentRepository) options(ctx context.Context, questions []models.Question) (map[int][]models.Option, error) {
	questionIDs := make([]any, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}

	query := fmt.Sprintf(`
		SELECT id, question_id, text, is_correct
		FROM options
		WHERE question_id IN (%s)
		ORDER BY position, id
	`, placeholders(len(questionIDs)))
	rows, err := r.db.QueryContext(ctx, query, questionIDs...)
	if err != nil {
		r.logger.Error("failed to query options", zap.Error(err))
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := make(map[int][]models.Option, len(questions))
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			r.logger.Error("failed to scan option", zap.Error(err))
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options[o.QuestionID] = append(options[o.QuestionID], o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return options, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
