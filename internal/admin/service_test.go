// Copyright (c) 2026 Kanakku. All rights reserved.

package admin

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/auth"
	"github.com/anandvel/kanakku/internal/expense"
	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/pkg/pagination"
)

// # Fakes

type fakeUsers struct {
	users map[string]*auth.User
}

func newFakeUsers(users ...*auth.User) *fakeUsers {
	repo := &fakeUsers{users: make(map[string]*auth.User)}
	for _, user := range users {
		repo.users[user.Username] = user
	}
	return repo
}

func (repo *fakeUsers) Create(_ context.Context, user *auth.User) error {
	if _, exists := repo.users[user.Username]; exists {
		return apperr.Conflict("Username already taken")
	}
	repo.users[user.Username] = user
	return nil
}

func (repo *fakeUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	user, found := repo.users[username]
	if !found {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (repo *fakeUsers) UpdatePassword(_ context.Context, username, passwordHash string) (bool, error) {
	user, found := repo.users[username]
	if !found {
		return false, nil
	}
	user.PasswordHash = passwordHash
	return true, nil
}

func (repo *fakeUsers) Delete(_ context.Context, username string) (bool, error) {
	if _, found := repo.users[username]; !found {
		return false, nil
	}
	delete(repo.users, username)
	return true, nil
}

func (repo *fakeUsers) List(_ context.Context, _ pagination.Params) ([]auth.User, int, error) {
	users := make([]auth.User, 0, len(repo.users))
	for _, user := range repo.users {
		users = append(users, *user)
	}
	return users, len(users), nil
}

func (repo *fakeUsers) CountAdmins(_ context.Context) (int, error) {
	count := 0
	for _, user := range repo.users {
		if user.Role == sec.RoleAdmin {
			count++
		}
	}
	return count, nil
}

type fakeExpenses struct {
	expenses []expense.Expense
}

func (store *fakeExpenses) Insert(_ context.Context, item *expense.Expense) error {
	store.expenses = append(store.expenses, *item)
	return nil
}

func (store *fakeExpenses) List(_ context.Context, _ string, _ pagination.Params) ([]expense.Expense, int, error) {
	return store.expenses, len(store.expenses), nil
}

func (store *fakeExpenses) DeleteByIDs(_ context.Context, ids []string) ([]string, []string, error) {
	existing := make(map[string]bool, len(store.expenses))
	for _, item := range store.expenses {
		existing[item.ID] = true
	}

	deleted := make([]string, 0)
	missing := make([]string, 0)
	for _, id := range ids {
		if existing[id] {
			deleted = append(deleted, id)
		} else {
			missing = append(missing, id)
		}
	}

	kept := make([]expense.Expense, 0, len(store.expenses))
	for _, item := range store.expenses {
		matched := false
		for _, id := range deleted {
			if item.ID == id {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, item)
		}
	}
	store.expenses = kept

	return deleted, missing, nil
}

func (store *fakeExpenses) DeleteAll(_ context.Context) (int, error) {
	count := len(store.expenses)
	store.expenses = nil
	return count, nil
}

func (store *fakeExpenses) DeleteByOwner(_ context.Context, owner string) (int, error) {
	kept := make([]expense.Expense, 0, len(store.expenses))
	deleted := 0
	for _, item := range store.expenses {
		if item.Owner == owner {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	store.expenses = kept
	return deleted, nil
}

func (store *fakeExpenses) Summarize(_ context.Context, _, _ string) ([]expense.SummaryRow, error) {
	return nil, nil
}

type fakeRevoker struct {
	revoked map[string]int
}

func (revoker *fakeRevoker) RevokeAllFor(_ context.Context, username string) (int, error) {
	if revoker.revoked == nil {
		revoker.revoked = make(map[string]int)
	}
	revoker.revoked[username]++
	return revoker.revoked[username], nil
}

type recordedEntry struct {
	action  audit.Action
	actor   string
	target  string
	details map[string]any
}

type recordingAuditor struct {
	entries []recordedEntry
}

func (auditor *recordingAuditor) Record(_ context.Context, action audit.Action, actor, target string, details map[string]any) {
	auditor.entries = append(auditor.entries, recordedEntry{action: action, actor: actor, target: target, details: details})
}

func (auditor *recordingAuditor) last(t *testing.T) recordedEntry {
	t.Helper()
	require.NotEmpty(t, auditor.entries)
	return auditor.entries[len(auditor.entries)-1]
}

// # Fixtures

var adminActor = &sec.Identity{Username: "root", Role: sec.RoleAdmin}

func adminAccount(username string) *auth.User {
	return &auth.User{ID: username + "-id", Username: username, Role: sec.RoleAdmin, CreatedAt: time.Now().UTC()}
}

func userAccount(username string) *auth.User {
	return &auth.User{ID: username + "-id", Username: username, Role: sec.RoleUser, CreatedAt: time.Now().UTC()}
}

func newTestService(revokeOnReset bool, users ...*auth.User) (*Service, *fakeUsers, *fakeExpenses, *fakeRevoker, *recordingAuditor) {
	repo := newFakeUsers(users...)
	expenses := &fakeExpenses{}
	revoker := &fakeRevoker{}
	auditor := &recordingAuditor{}

	service := NewService(repo, expenses, revoker, auditor, slog.Default(), "root", revokeOnReset)
	return service, repo, expenses, revoker, auditor
}

// # User management

func TestService_CreateUser(t *testing.T) {
	service, repo, _, _, auditor := newTestService(false, adminAccount("root"))

	user, err := service.CreateUser(context.Background(), adminActor, CreateUserInput{
		Username: "alice",
		Password: "strong-password",
	})
	require.NoError(t, err)

	assert.Equal(t, sec.RoleUser, user.Role, "role defaults to user")
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "strong-password", user.PasswordHash)
	assert.Contains(t, repo.users, "alice")

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionCreateUser, entry.action)
	assert.Equal(t, "root", entry.actor)
	assert.Equal(t, "alice", entry.target)
	assert.Equal(t, "created", entry.details["outcome"])
}

func TestService_CreateUser_DuplicateIsAuditedConflict(t *testing.T) {
	service, _, _, _, auditor := newTestService(false, adminAccount("root"), userAccount("alice"))

	_, err := service.CreateUser(context.Background(), adminActor, CreateUserInput{
		Username: "alice",
		Password: "strong-password",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 409, appError.HTTPStatus)

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionCreateUser, entry.action)
	assert.Equal(t, "username_taken", entry.details["outcome"])
}

func TestService_CreateUser_RejectsBadInput(t *testing.T) {
	service, _, _, _, auditor := newTestService(false, adminAccount("root"))

	tests := []struct {
		name  string
		input CreateUserInput
	}{
		{name: "short password", input: CreateUserInput{Username: "alice", Password: "short"}},
		{name: "bad username characters", input: CreateUserInput{Username: "al ice!", Password: "strong-password"}},
		{name: "unknown role", input: CreateUserInput{Username: "alice", Password: "strong-password", Role: "owner"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.CreateUser(context.Background(), adminActor, testCase.input)
			assert.Error(t, err)
		})
	}

	// Input rejection happens before anything worth auditing.
	assert.Empty(t, auditor.entries)
}

func TestService_ResetPassword_SessionsSurviveByDefault(t *testing.T) {
	service, repo, _, revoker, auditor := newTestService(false, adminAccount("root"), userAccount("alice"))
	previousHash := repo.users["alice"].PasswordHash

	err := service.ResetPassword(context.Background(), adminActor, "alice", "fresh-password")
	require.NoError(t, err)

	assert.NotEqual(t, previousHash, repo.users["alice"].PasswordHash)
	assert.Empty(t, revoker.revoked, "a reset must not end live sessions unless configured to")

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionResetPassword, entry.action)
	assert.Equal(t, "reset", entry.details["outcome"])
	assert.NotContains(t, entry.details, "sessions_revoked")
}

func TestService_ResetPassword_RevokesWhenConfigured(t *testing.T) {
	service, _, _, revoker, auditor := newTestService(true, adminAccount("root"), userAccount("alice"))

	err := service.ResetPassword(context.Background(), adminActor, "alice", "fresh-password")
	require.NoError(t, err)

	assert.Equal(t, 1, revoker.revoked["alice"])

	entry := auditor.last(t)
	assert.Equal(t, "reset", entry.details["outcome"])
	assert.Contains(t, entry.details, "sessions_revoked")
}

func TestService_ResetPassword_UnknownUserIsAuditedNoOp(t *testing.T) {
	service, _, _, _, auditor := newTestService(false, adminAccount("root"))

	err := service.ResetPassword(context.Background(), adminActor, "ghost", "fresh-password")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionResetPassword, entry.action)
	assert.Equal(t, "user_not_found", entry.details["outcome"])
}

func TestService_DeleteUser_WithCascade(t *testing.T) {
	service, repo, expenses, revoker, auditor := newTestService(false, adminAccount("root"), userAccount("alice"))

	expenses.expenses = []expense.Expense{
		{ID: "e1", Owner: "alice"},
		{ID: "e2", Owner: "alice"},
		{ID: "e3", Owner: "alice"},
		{ID: "e4", Owner: "bob"},
	}

	result, err := service.DeleteUser(context.Background(), adminActor, "alice", true)
	require.NoError(t, err)

	assert.True(t, result.UserDeleted)
	assert.Equal(t, 3, result.ExpensesDeleted)
	assert.Equal(t, 1, result.SessionsRevoked)
	assert.Equal(t, 1, revoker.revoked["alice"])

	assert.NotContains(t, repo.users, "alice")
	assert.Len(t, expenses.expenses, 1, "other users' expenses survive")

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionDeleteUser, entry.action)
	assert.Equal(t, "deleted", entry.details["outcome"])
	assert.Equal(t, true, entry.details["cascade"])
	assert.Equal(t, 3, entry.details["expenses_deleted"])

	// Repeating the same delete: the user is gone, nothing more is removed.
	_, err = service.DeleteUser(context.Background(), adminActor, "alice", true)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
	assert.Len(t, expenses.expenses, 1)

	entry = auditor.last(t)
	assert.Equal(t, "user_not_found", entry.details["outcome"])
	assert.Equal(t, 0, entry.details["orphaned_expenses_deleted"])
}

func TestService_DeleteUser_WithoutCascadeKeepsExpenses(t *testing.T) {
	service, repo, expenses, _, _ := newTestService(false, adminAccount("root"), userAccount("alice"))

	expenses.expenses = []expense.Expense{{ID: "e1", Owner: "alice"}}

	result, err := service.DeleteUser(context.Background(), adminActor, "alice", false)
	require.NoError(t, err)

	assert.True(t, result.UserDeleted)
	assert.Equal(t, 0, result.ExpensesDeleted)
	assert.NotContains(t, repo.users, "alice")
	assert.Len(t, expenses.expenses, 1, "cascade is an explicit choice, never implied")
}

func TestService_DeleteUser_RefusesSelf(t *testing.T) {
	actor := &sec.Identity{Username: "second", Role: sec.RoleAdmin}
	service, repo, _, _, auditor := newTestService(false, adminAccount("root"), adminAccount("second"))

	_, err := service.DeleteUser(context.Background(), actor, "second", false)
	require.Error(t, err)
	assert.Contains(t, repo.users, "second")

	entry := auditor.last(t)
	assert.Equal(t, "refused_self_deletion", entry.details["outcome"])
}

func TestService_DeleteUser_RefusesBootstrapAdmin(t *testing.T) {
	actor := &sec.Identity{Username: "second", Role: sec.RoleAdmin}
	service, repo, _, _, auditor := newTestService(false, adminAccount("root"), adminAccount("second"))

	_, err := service.DeleteUser(context.Background(), actor, "root", false)
	require.Error(t, err)
	assert.Contains(t, repo.users, "root")

	entry := auditor.last(t)
	assert.Equal(t, "refused_bootstrap_admin", entry.details["outcome"])
}

func TestService_DeleteUser_RefusesLastAdmin(t *testing.T) {
	service, repo, _, _, auditor := newTestService(false, adminAccount("root"), adminAccount("other"), userAccount("alice"))

	// "other" is the only admin besides the protected bootstrap account;
	// with root out of the picture the hierarchy must keep "other" alive.
	delete(repo.users, "root")

	actor := &sec.Identity{Username: "alice", Role: sec.RoleAdmin}
	_, err := service.DeleteUser(context.Background(), actor, "other", false)
	require.Error(t, err)
	assert.Contains(t, repo.users, "other")

	entry := auditor.last(t)
	assert.Equal(t, "refused_last_admin", entry.details["outcome"])
}

func TestService_DeleteUser_CleansOrphanedExpensesOnCascade(t *testing.T) {
	service, _, expenses, _, auditor := newTestService(false, adminAccount("root"))

	// "ghost" has no account anymore but left expenses behind.
	expenses.expenses = []expense.Expense{
		{ID: "e1", Owner: "ghost"},
		{ID: "e2", Owner: "ghost"},
	}

	result, err := service.DeleteUser(context.Background(), adminActor, "ghost", true)
	require.NoError(t, err)

	assert.False(t, result.UserDeleted)
	assert.Equal(t, 2, result.ExpensesDeleted)
	assert.Empty(t, expenses.expenses)

	entry := auditor.last(t)
	assert.Equal(t, "user_not_found", entry.details["outcome"])
	assert.Equal(t, 2, entry.details["orphaned_expenses_deleted"])
}

// # Ledger wipes

func TestService_DeleteAllExpenses(t *testing.T) {
	service, _, expenses, _, auditor := newTestService(false, adminAccount("root"))

	expenses.expenses = []expense.Expense{
		{ID: "e1", Owner: "alice"},
		{ID: "e2", Owner: "bob"},
	}

	deleted, err := service.DeleteAllExpenses(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Empty(t, expenses.expenses)

	// An immediate second wipe is a no-op but is still audited, count zero.
	deleted, err = service.DeleteAllExpenses(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	require.Len(t, auditor.entries, 2)
	assert.Equal(t, 0, auditor.entries[1].details["expenses_deleted"])
}

func TestService_DeleteSelectedExpenses(t *testing.T) {
	service, _, expenses, _, auditor := newTestService(false, adminAccount("root"))

	first := "0190c6f4-1111-7abc-8def-000000000001"
	second := "0190c6f4-1111-7abc-8def-000000000002"
	absent := "0190c6f4-1111-7abc-8def-00000000ffff"

	expenses.expenses = []expense.Expense{
		{ID: first, Owner: "alice"},
		{ID: second, Owner: "bob"},
	}

	result, err := service.DeleteSelectedExpenses(context.Background(), adminActor, []string{first, absent})
	require.NoError(t, err)

	assert.Equal(t, []string{first}, result.Deleted)
	assert.Equal(t, []string{absent}, result.Missing)
	assert.Len(t, expenses.expenses, 1)

	entry := auditor.last(t)
	assert.Equal(t, audit.ActionDeleteSelectedExpenses, entry.action)
	assert.Equal(t, 2, entry.details["requested"])
	assert.Equal(t, 1, entry.details["deleted"])
	assert.Equal(t, 1, entry.details["missing"])
}

func TestService_DeleteSelectedExpenses_RejectsEmptyAndMalformed(t *testing.T) {
	service, _, _, _, _ := newTestService(false, adminAccount("root"))

	_, err := service.DeleteSelectedExpenses(context.Background(), adminActor, nil)
	assert.Error(t, err)

	_, err = service.DeleteSelectedExpenses(context.Background(), adminActor, []string{"not-a-uuid"})
	assert.Error(t, err)
}
