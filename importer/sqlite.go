package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	_ "github.com/mattn/go-sqlite3"

	"github.com/korjavin/gkentei/models"
)

// ReadSQLite reads categories and questions from a legacy SQLite question
// bank. Options are stored as a JSON array in a TEXT column. The categories
// table is optional.
func ReadSQLite(ctx context.Context, path string) (*Seed, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var seed Seed

	hasCategories, err := tableExists(ctx, db, "categories")
	if err != nil {
		return nil, err
	}
	if hasCategories {
		seed.Categories, err = readCategories(ctx, db)
		if err != nil {
			return nil, err
		}
	}

	seed.Questions, err = readQuestions(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &seed, nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return n > 0, nil
}

func readCategories(ctx context.Context, db *sql.DB) ([]models.CategoryInput, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name, COALESCE(topic, ''), COALESCE(description, '') FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []models.CategoryInput
	for rows.Next() {
		var c models.CategoryInput
		if err := rows.Scan(&c.Name, &c.Topic, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func readQuestions(ctx context.Context, db *sql.DB) ([]models.QuestionInput, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, category, question, options, correct_answer, COALESCE(explanation, '')
		FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var (
		out  []models.QuestionInput
		errs *multierror.Error
	)
	for rows.Next() {
		var (
			id      int64
			options string
			q       models.QuestionInput
		)
		if err := rows.Scan(&id, &q.Category, &q.Question, &options, &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("question %d: options: %w", id, err))
			continue
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, errs.ErrorOrNil()
}
