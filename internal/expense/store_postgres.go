// Copyright (c) 2026 Kanakku. All rights reserved.

package expense

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/dberr"
	"github.com/anandvel/kanakku/pkg/pagination"
	"github.com/anandvel/kanakku/pkg/slug"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds the PostgreSQL-backed expense store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (repository *postgresStore) Insert(ctx context.Context, expense *Expense) error {
	query := `
		INSERT INTO expenses (id, owner, friend, category, amount, notes, spent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repository.pool.Exec(ctx, query,
		expense.ID,
		expense.Owner,
		expense.Friend,
		expense.Category,
		expense.Amount,
		expense.Notes,
		expense.SpentAt,
		expense.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "expense")
	}

	return nil
}

func (repository *postgresStore) List(ctx context.Context, owner string, params pagination.Params) ([]Expense, int, error) {

	// $1 = '' disables the owner filter (admin-wide listing).
	countQuery := `SELECT COUNT(*) FROM expenses WHERE ($1 = '' OR owner = $1)`

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery, owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("expense_count_failed: %w", err)
	}

	query := `
		SELECT id, owner, friend, category, amount, notes, spent_at, created_at
		FROM expenses
		WHERE ($1 = '' OR owner = $1)
		ORDER BY spent_at DESC, created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(ctx, query, owner, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("expense_query_failed: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0, params.Limit)
	for rows.Next() {
		var expense Expense

		err := rows.Scan(
			&expense.ID,
			&expense.Owner,
			&expense.Friend,
			&expense.Category,
			&expense.Amount,
			&expense.Notes,
			&expense.SpentAt,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("expense_scan_failed: %w", err)
		}

		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("expense_rows_failed: %w", err)
	}

	return expenses, total, nil
}

func (repository *postgresStore) DeleteByIDs(ctx context.Context, ids []string) ([]string, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	query := `DELETE FROM expenses WHERE id = ANY($1) RETURNING id`

	rows, err := repository.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("expense_delete_failed: %w", err)
	}
	defer rows.Close()

	deletedSet := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("expense_delete_scan_failed: %w", err)
		}
		deletedSet[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("expense_delete_rows_failed: %w", err)
	}

	deleted := make([]string, 0, len(deletedSet))
	missing := make([]string, 0)
	for _, id := range ids {
		if deletedSet[id] {
			deleted = append(deleted, id)
		} else {
			missing = append(missing, id)
		}
	}

	return deleted, missing, nil
}

func (repository *postgresStore) DeleteAll(ctx context.Context) (int, error) {
	tag, err := repository.pool.Exec(ctx, `DELETE FROM expenses`)
	if err != nil {
		return 0, fmt.Errorf("expense_delete_all_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (repository *postgresStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	tag, err := repository.pool.Exec(ctx, `DELETE FROM expenses WHERE owner = $1`, owner)
	if err != nil {
		return 0, fmt.Errorf("expense_delete_by_owner_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (repository *postgresStore) Summarize(ctx context.Context, owner, groupBy string) ([]SummaryRow, error) {

	var column string
	switch groupBy {
	case GroupByCategory:
		column = "category"
	case GroupByFriend:
		column = "friend"
	default:
		return nil, apperr.ValidationError("Unknown summary grouping")
	}

	// The column name is chosen from a fixed whitelist above, never from input.
	query := fmt.Sprintf(`
		SELECT %s, SUM(amount), COUNT(*)
		FROM expenses
		WHERE ($1 = '' OR owner = $1)
		GROUP BY %s
		ORDER BY SUM(amount) DESC`, column, column)

	rows, err := repository.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("expense_summary_failed: %w", err)
	}
	defer rows.Close()

	summary := make([]SummaryRow, 0)
	for rows.Next() {
		var row SummaryRow

		if err := rows.Scan(&row.Label, &row.Total, &row.Count); err != nil {
			return nil, fmt.Errorf("expense_summary_scan_failed: %w", err)
		}

		row.Key = slug.From(row.Label)
		summary = append(summary, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense_summary_rows_failed: %w", err)
	}

	return summary, nil
}
