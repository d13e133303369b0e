package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/korjavin/gkentei/models"
	"github.com/korjavin/gkentei/query"
)

var categoryColumns = query.Categories.SelectList("")

// ListCategories returns all categories ordered by name
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	req := query.Request{SortBy: query.ColName, Order: query.Asc}
	return query.List[models.Category](ctx, db.pool, query.Categories, req)
}

// CreateCategory inserts a category
func (db *DB) CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	c, err := collectOne[models.Category](ctx, db.pool, `
		INSERT INTO categories (name, topic, description) VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Topic), strings.TrimSpace(in.Description),
	)
	if err != nil {
		return c, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpsertCategory inserts a category or refreshes the one with the same name
func (db *DB) UpsertCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	c, err := collectOne[models.Category](ctx, db.pool, `
		INSERT INTO categories (name, topic, description) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET topic = EXCLUDED.topic, description = EXCLUDED.description
		RETURNING `+categoryColumns,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Topic), strings.TrimSpace(in.Description),
	)
	if err != nil {
		return c, fmt.Errorf("upsert category: %w", err)
	}
	return c, nil
}

// UpdateCategory replaces a category's fields
func (db *DB) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (models.Category, error) {
	c, err := collectOne[models.Category](ctx, db.pool, `
		UPDATE categories SET name = $2, topic = $3, description = $4 WHERE id = $1
		RETURNING `+categoryColumns,
		id, strings.TrimSpace(in.Name), strings.TrimSpace(in.Topic), strings.TrimSpace(in.Description),
	)
	if err != nil {
		return c, fmt.Errorf("update category %d: %w", id, err)
	}
	return c, nil
}

// DeleteCategory removes a category. Questions keep their category label.
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %d: %w", id, ErrNotFound)
	}
	return nil
}
