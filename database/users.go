package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

var userColumns = query.Users.SelectList("")

// PaginateUsers returns one page of users
func (db *DB) PaginateUsers(ctx context.Context, req query.Request) (query.Result[models.User], error) {
	return query.Paginate[models.User](ctx, db.pool, query.Users, req)
}

// ListUsers returns every user matching the request filters
func (db *DB) ListUsers(ctx context.Context, req query.Request) ([]models.User, error) {
	return query.List[models.User](ctx, db.pool, query.Users, req)
}

// CreateUser registers a username. Returns ErrConflict if it is taken.
func (db *DB) CreateUser(ctx context.Context, in models.UserInput) (models.User, error) {
	u, err := collectOne[models.User](ctx, db.pool, `
		INSERT INTO users (username, role, status) VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		strings.TrimSpace(in.Username), models.RoleUser, models.StatusActive,
	)
	if err != nil {
		return u, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureUser returns the user with the given username, creating it if needed
func (db *DB) EnsureUser(ctx context.Context, username string) (models.User, error) {
	u, err := collectOne[models.User](ctx, db.pool, `
		INSERT INTO users (username, role, status) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING `+userColumns,
		username, models.RoleUser, models.StatusActive,
	)
	if err != nil {
		return u, fmt.Errorf("ensure user %q: %w", username, err)
	}
	return u, nil
}

// SaveAnswer records user interaction with a question and reports whether
// the answer was correct
func (db *DB) SaveAnswer(ctx context.Context, in models.AnswerInput) (models.AnswerResult, error) {
	var res models.AnswerResult
	err := db.pool.QueryRow(ctx,
		"SELECT correct_answer, explanation FROM questions WHERE id = $1", in.QuestionID,
	).Scan(&res.CorrectAnswer, &res.Explanation)
	if err != nil {
		return res, fmt.Errorf("load question %d: %w", in.QuestionID, classify(err))
	}
	res.Correct = in.AnswerIndex == res.CorrectAnswer

	_, err = db.pool.Exec(ctx,
		"INSERT INTO answers (user_id, question_id, answer_index, correct) VALUES ($1, $2, $3, $4)",
		in.UserID, in.QuestionID, in.AnswerIndex, res.Correct,
	)
	if err != nil {
		return res, fmt.Errorf("save answer: %w", classify(err))
	}
	return res, nil
}

// GetUserStats retrieves statistics about the user's answers
func (db *DB) GetUserStats(ctx context.Context, userID int64) (models.UserStats, error) {
	var correct, incorrect int
	err := db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE correct), COUNT(*) FILTER (WHERE NOT correct)
		FROM answers WHERE user_id = $1`,
		userID,
	).Scan(&correct, &incorrect)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("user stats %d: %w", userID, err)
	}

	hardest, err := db.MostFrequentIncorrectQuestions(ctx, userID, 3)
	if err != nil {
		return models.UserStats{}, err
	}
	return models.NewUserStats(userID, correct, incorrect, hardest), nil
}

// MostFrequentIncorrectQuestions gets the questions most frequently answered incorrectly
func (db *DB) MostFrequentIncorrectQuestions(ctx context.Context, userID int64, limit int) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT question_id
		FROM answers
		WHERE user_id = $1 AND NOT correct
		GROUP BY question_id
		ORDER BY COUNT(*) DESC, question_id
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("incorrect questions for %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// LatestAnswers returns, for each of the given questions the user has
// answered, whether the most recent answer was correct
func (db *DB) LatestAnswers(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(questionIDs) == 0 {
		return out, nil
	}
	rows, err := db.pool.Query(ctx, `
		SELECT DISTINCT ON (question_id) question_id, correct
		FROM answers
		WHERE user_id = $1 AND question_id = ANY($2)
		ORDER BY question_id, answered_at DESC, id DESC`,
		userID, questionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("latest answers for %d: %w", userID, err)
	}
	states, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AnswerState])
	if err != nil {
		return nil, fmt.Errorf("scan latest answers: %w", err)
	}
	for _, s := range states {
		out[s.QuestionID] = s.Correct
	}
	return out, nil
}
