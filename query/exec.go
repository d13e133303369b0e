package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Paginate runs the count and data queries for req and scans rows into T by
// column name. The count runs separately because LIMIT/OFFSET cannot report
// the number of matching rows.
func Paginate[T any](ctx context.Context, q Querier, r Resource, req Request) (Result[T], error) {
	plan := Build(r, req)

	var total int64
	if err := q.QueryRow(ctx, plan.CountSQL, plan.Args...).Scan(&total); err != nil {
		return Result[T]{}, fmt.Errorf("count %s: %w", r.name, err)
	}

	rows, err := q.Query(ctx, plan.DataSQL, plan.DataArgs...)
	if err != nil {
		return Result[T]{}, fmt.Errorf("query %s: %w", r.name, err)
	}
	data, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return Result[T]{}, fmt.Errorf("scan %s: %w", r.name, err)
	}

	return NewResult(data, total, plan.Page, plan.Limit), nil
}

// List returns every row matching req's search and filters, sorted, without
// LIMIT/OFFSET.
func List[T any](ctx context.Context, q Querier, r Resource, req Request) ([]T, error) {
	plan := Build(r, req)

	rows, err := q.Query(ctx, plan.ListSQL, plan.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.name, err)
	}
	data, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.name, err)
	}
	if data == nil {
		data = []T{}
	}
	return data, nil
}
