package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

var questionColumns = query.Questions.SelectList("")

// ListQuestions returns every question matching the request filters
func (db *DB) ListQuestions(ctx context.Context, req query.Request) ([]models.Question, error) {
	return query.List[models.Question](ctx, db.pool, query.Questions, req)
}

// PaginateQuestions returns one page of questions with pagination metadata
func (db *DB) PaginateQuestions(ctx context.Context, req query.Request) (query.Result[models.Question], error) {
	return query.Paginate[models.Question](ctx, db.pool, query.Questions, req)
}

// GetQuestion loads a single question
func (db *DB) GetQuestion(ctx context.Context, id int64) (models.Question, error) {
	q, err := collectOne[models.Question](ctx, db.pool,
		"SELECT "+questionColumns+" FROM questions WHERE id = $1", id)
	if err != nil {
		return q, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

// CreateQuestion inserts a question
func (db *DB) CreateQuestion(ctx context.Context, in models.QuestionInput) (models.Question, error) {
	in = in.Normalized()
	q, err := collectOne[models.Question](ctx, db.pool, `
		INSERT INTO questions (category, question, options, correct_answer, explanation, option_explanations, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+questionColumns,
		in.Category, in.Question, in.Options, in.CorrectAnswer, in.Explanation, in.OptionExplanations, in.Source,
	)
	if err != nil {
		return q, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// UpsertQuestion inserts a question or refreshes the one with the same
// category and text. Used by the seed and import commands.
func (db *DB) UpsertQuestion(ctx context.Context, in models.QuestionInput) (models.Question, error) {
	in = in.Normalized()
	q, err := collectOne[models.Question](ctx, db.pool, `
		INSERT INTO questions (category, question, options, correct_answer, explanation, option_explanations, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (category, question) DO UPDATE SET
			options = EXCLUDED.options,
			correct_answer = EXCLUDED.correct_answer,
			explanation = CASE WHEN EXCLUDED.explanation = '' THEN questions.explanation ELSE EXCLUDED.explanation END,
			option_explanations = EXCLUDED.option_explanations,
			source = EXCLUDED.source
		RETURNING `+questionColumns,
		in.Category, in.Question, in.Options, in.CorrectAnswer, in.Explanation, in.OptionExplanations, in.Source,
	)
	if err != nil {
		return q, fmt.Errorf("upsert question: %w", err)
	}
	return q, nil
}

// UpdateQuestion replaces the writable fields of a question
func (db *DB) UpdateQuestion(ctx context.Context, id int64, in models.QuestionInput) (models.Question, error) {
	in = in.Normalized()
	q, err := collectOne[models.Question](ctx, db.pool, `
		UPDATE questions SET
			category = $2, question = $3, options = $4, correct_answer = $5,
			explanation = $6, option_explanations = $7, source = $8
		WHERE id = $1
		RETURNING `+questionColumns,
		id, in.Category, in.Question, in.Options, in.CorrectAnswer, in.Explanation, in.OptionExplanations, in.Source,
	)
	if err != nil {
		return q, fmt.Errorf("update question %d: %w", id, err)
	}
	return q, nil
}

// DeleteQuestion removes a question and its answer history
func (db *DB) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete question %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetExplanation stores a generated explanation on the question
func (db *DB) SetExplanation(ctx context.Context, id int64, explanation string) error {
	tag, err := db.pool.Exec(ctx, "UPDATE questions SET explanation = $2 WHERE id = $1", id, explanation)
	if err != nil {
		return fmt.Errorf("set explanation for %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set explanation for %d: %w", id, ErrNotFound)
	}
	return nil
}

// QuestionsWithoutExplanation returns up to limit questions that still need one
func (db *DB) QuestionsWithoutExplanation(ctx context.Context, limit int) ([]models.Question, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE explanation = '' ORDER BY id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("query questions without explanation: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Question])
}

// NextQuestion picks a question for practice: one the user has never
// answered if possible, otherwise the one answered longest ago. An empty
// category means any category.
func (db *DB) NextQuestion(ctx context.Context, userID int64, category string) (models.Question, error) {
	q, err := collectOne[models.Question](ctx, db.pool, `
		SELECT `+query.Questions.SelectList("q")+`
		FROM questions q
		LEFT JOIN (
			SELECT question_id, MAX(answered_at) AS last_answered
			FROM answers
			WHERE user_id = $1
			GROUP BY question_id
		) a ON a.question_id = q.id
		WHERE ($2 = '' OR q.category = $2)
		ORDER BY a.last_answered ASC NULLS FIRST, random()
		LIMIT 1`,
		userID, category,
	)
	if err != nil {
		return q, fmt.Errorf("next question: %w", err)
	}
	return q, nil
}

// CategoryNames returns the distinct categories that have questions
func (db *DB) CategoryNames(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, "SELECT DISTINCT category FROM questions ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("query category names: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
