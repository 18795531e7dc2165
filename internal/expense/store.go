// Copyright (c) 2026 Kanakku. All rights reserved.

package expense

import (
	"context"

	"github.com/anandvel/kanakku/pkg/pagination"
)

// Store persists ledger entries. An empty owner filter ("") means the whole
// ledger; listing methods order newest first.
type Store interface {
	// Insert appends a new expense.
	Insert(ctx context.Context, expense *Expense) error

	// List returns a page of expenses, optionally filtered by owner, plus the
	// total matching count.
	List(ctx context.Context, owner string, params pagination.Params) ([]Expense, int, error)

	// DeleteByIDs removes the given expenses and reports which ids were
	// actually deleted and which did not exist.
	DeleteByIDs(ctx context.Context, ids []string) (deleted, missing []string, err error)

	// DeleteAll wipes the entire ledger and returns the number of rows removed.
	DeleteAll(ctx context.Context) (int, error)

	// DeleteByOwner removes every expense owned by the user and returns the count.
	DeleteByOwner(ctx context.Context, owner string) (int, error)

	// Summarize aggregates amounts grouped by the given column
	// (GroupByCategory or GroupByFriend), optionally filtered by owner.
	Summarize(ctx context.Context, owner, groupBy string) ([]SummaryRow, error)
}
