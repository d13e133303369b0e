package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CacheExplanation stores an AI generated explanation for a question
func (db *DB) CacheExplanation(ctx context.Context, questionID int64, body string) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO explanations (question_id, body) VALUES ($1, $2)
		ON CONFLICT (question_id) DO UPDATE SET body = EXCLUDED.body, created_at = now()`,
		questionID, body,
	)
	if err != nil {
		return fmt.Errorf("cache explanation for %d: %w", questionID, classify(err))
	}
	return nil
}

// GetCachedExplanation retrieves a cached explanation. An empty string means
// none is stored.
func (db *DB) GetCachedExplanation(ctx context.Context, questionID int64) (string, error) {
	var body string
	err := db.pool.QueryRow(ctx,
		"SELECT body FROM explanations WHERE question_id = $1", questionID,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get explanation for %d: %w", questionID, err)
	}
	return body, nil
}
