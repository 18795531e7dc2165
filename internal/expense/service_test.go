// Copyright (c) 2026 Kanakku. All rights reserved.

package expense

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/pkg/pagination"
)

type fakeStore struct {
	expenses []Expense

	listedOwner     string
	summarizedOwner string
}

func (store *fakeStore) Insert(_ context.Context, expense *Expense) error {
	store.expenses = append(store.expenses, *expense)
	return nil
}

func (store *fakeStore) List(_ context.Context, owner string, _ pagination.Params) ([]Expense, int, error) {
	store.listedOwner = owner

	matched := make([]Expense, 0)
	for _, expense := range store.expenses {
		if owner == "" || expense.Owner == owner {
			matched = append(matched, expense)
		}
	}
	return matched, len(matched), nil
}

func (store *fakeStore) DeleteByIDs(_ context.Context, ids []string) ([]string, []string, error) {
	existing := make(map[string]bool, len(store.expenses))
	for _, expense := range store.expenses {
		existing[expense.ID] = true
	}

	var deleted, missing []string
	for _, id := range ids {
		if existing[id] {
			deleted = append(deleted, id)
		} else {
			missing = append(missing, id)
		}
	}
	return deleted, missing, nil
}

func (store *fakeStore) DeleteAll(_ context.Context) (int, error) {
	count := len(store.expenses)
	store.expenses = nil
	return count, nil
}

func (store *fakeStore) DeleteByOwner(_ context.Context, owner string) (int, error) {
	kept := make([]Expense, 0, len(store.expenses))
	deleted := 0
	for _, expense := range store.expenses {
		if expense.Owner == owner {
			deleted++
			continue
		}
		kept = append(kept, expense)
	}
	store.expenses = kept
	return deleted, nil
}

func (store *fakeStore) Summarize(_ context.Context, owner, groupBy string) ([]SummaryRow, error) {
	store.summarizedOwner = owner
	return nil, nil
}

type recordingAuditor struct {
	actions []audit.Action
}

func (auditor *recordingAuditor) Record(_ context.Context, action audit.Action, _, _ string, _ map[string]any) {
	auditor.actions = append(auditor.actions, action)
}

type recordingRefresher struct {
	refreshed []string
}

func (refresher *recordingRefresher) Refresh(_ context.Context, token string) error {
	refresher.refreshed = append(refresher.refreshed, token)
	return nil
}

func newTestService() (*Service, *fakeStore, *recordingAuditor, *recordingRefresher) {
	store := &fakeStore{}
	auditor := &recordingAuditor{}
	refresher := &recordingRefresher{}

	return NewService(store, auditor, refresher, slog.Default()), store, auditor, refresher
}

func TestService_Create(t *testing.T) {
	service, store, auditor, refresher := newTestService()

	identity := &sec.Identity{Username: "alice", Role: sec.RoleUser}
	ctx := ctxutil.WithSessionToken(context.Background(), "alice-token")

	expense, err := service.Create(ctx, identity, CreateInput{
		Friend:   "Ravi",
		Category: "Food",
		Amount:   42.50,
		Notes:    "lunch split",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "alice", expense.Owner)
	assert.False(t, expense.SpentAt.IsZero(), "missing spent_at defaults to now")
	require.Len(t, store.expenses, 1)

	// The creation is audited and counts as session activity.
	assert.Equal(t, []audit.Action{audit.ActionAddExpense}, auditor.actions)
	assert.Equal(t, []string{"alice-token"}, refresher.refreshed)
}

func TestService_Create_ValidationFailures(t *testing.T) {
	service, store, auditor, _ := newTestService()
	identity := &sec.Identity{Username: "alice", Role: sec.RoleUser}

	tests := []struct {
		name  string
		input CreateInput
	}{
		{
			name:  "missing friend",
			input: CreateInput{Category: "Food", Amount: 10},
		},
		{
			name:  "missing category",
			input: CreateInput{Friend: "Ravi", Amount: 10},
		},
		{
			name:  "zero amount",
			input: CreateInput{Friend: "Ravi", Category: "Food", Amount: 0},
		},
		{
			name:  "negative amount",
			input: CreateInput{Friend: "Ravi", Category: "Food", Amount: -5},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), identity, testCase.input)
			assert.Error(t, err)
		})
	}

	// Nothing was stored or audited for rejected input.
	assert.Empty(t, store.expenses)
	assert.Empty(t, auditor.actions)
}

func TestService_ListVisible_ScopesByRole(t *testing.T) {
	service, store, _, _ := newTestService()

	store.expenses = []Expense{
		{ID: "e1", Owner: "alice", Friend: "Ravi", Category: "Food", Amount: 10, SpentAt: time.Now()},
		{ID: "e2", Owner: "bob", Friend: "Mia", Category: "Travel", Amount: 20, SpentAt: time.Now()},
	}
	params := pagination.Params{Page: 1, Limit: 20}

	// A regular user sees only their own entries.
	user := &sec.Identity{Username: "alice", Role: sec.RoleUser}
	visible, total, err := service.ListVisible(context.Background(), user, params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, visible, 1)
	assert.Equal(t, "alice", visible[0].Owner)
	assert.Equal(t, "alice", store.listedOwner)

	// An admin sees the whole ledger.
	admin := &sec.Identity{Username: "root", Role: sec.RoleAdmin}
	visible, total, err = service.ListVisible(context.Background(), admin, params)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, visible, 2)
	assert.Empty(t, store.listedOwner, "admin listing must not filter by owner")
}

func TestService_SummarizeVisible(t *testing.T) {
	service, store, _, _ := newTestService()

	user := &sec.Identity{Username: "alice", Role: sec.RoleUser}

	_, err := service.SummarizeVisible(context.Background(), user, GroupByFriend)
	require.NoError(t, err)
	assert.Equal(t, "alice", store.summarizedOwner)

	_, err = service.SummarizeVisible(context.Background(), user, "owner")
	assert.Error(t, err, "unknown grouping axes are rejected")
}
