// Copyright (c) 2026 Kanakku. All rights reserved.

/*
Package admin implements the privileged management surface: user accounts,
password resets, and destructive ledger operations.

Every operation here writes exactly one audit entry describing what actually
happened, including refusals and no-ops. The entry's details carry the
outcome, so the trail stays truthful even when nothing changed.
*/
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/auth"
	"github.com/anandvel/kanakku/internal/expense"
	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/internal/platform/validate"
	"github.com/anandvel/kanakku/pkg/pagination"
	"github.com/anandvel/kanakku/pkg/uuid"
)

// Auditor records administrative activity. Satisfied by *audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, actor, target string, details map[string]any)
}

// SessionRevoker ends sessions server-side. Satisfied by *auth.Service.
type SessionRevoker interface {
	RevokeAllFor(ctx context.Context, username string) (int, error)
}

// Service implements the administrative operations.
type Service struct {
	users    auth.UserRepository
	expenses expense.Store
	sessions SessionRevoker
	auditor  Auditor
	logger   *slog.Logger

	// bootstrapAdmin is the configured seed account, protected from deletion.
	// Empty when no bootstrap admin is configured.
	bootstrapAdmin string

	// revokeOnReset controls whether a password reset also ends the target
	// user's live sessions. Off by default: a reset historically left live
	// sessions untouched, and flipping that silently would lock people out.
	revokeOnReset bool
}

// NewService wires the admin service.
func NewService(
	users auth.UserRepository,
	expenses expense.Store,
	sessions SessionRevoker,
	auditor Auditor,
	logger *slog.Logger,
	bootstrapAdmin string,
	revokeOnReset bool,
) *Service {
	return &Service{
		users:          users,
		expenses:       expenses,
		sessions:       sessions,
		auditor:        auditor,
		logger:         logger,
		bootstrapAdmin: bootstrapAdmin,
		revokeOnReset:  revokeOnReset,
	}
}

// ListUsers returns a page of accounts.
func (service *Service) ListUsers(ctx context.Context, params pagination.Params) ([]auth.User, int, error) {
	return service.users.List(ctx, params)
}

// CreateUserInput is the payload for creating an account.
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

/*
CreateUser registers a new account.

A duplicate username is a conflict; the attempt is still audited, with the
outcome recorded in the entry details.
*/
func (service *Service) CreateUser(ctx context.Context, actor *sec.Identity, input CreateUserInput) (*auth.User, error) {

	if input.Role == "" {
		input.Role = string(sec.RoleUser)
	}

	validator := validate.New().
		Required("username", input.Username).
		MinLen("username", input.Username, auth.MinUsernameLength).
		MaxLen("username", input.Username, auth.MaxUsernameLength).
		Username("username", input.Username).
		Required("password", input.Password).
		MinLen("password", input.Password, auth.MinPasswordLength).
		MaxLen("password", input.Password, auth.MaxPasswordLength).
		OneOf("role", input.Role, string(sec.RoleUser), string(sec.RoleAdmin))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         sec.UserRole(input.Role),
		CreatedAt:    time.Now().UTC(),
	}

	if err := service.users.Create(ctx, user); err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusConflict {
			service.auditor.Record(ctx, audit.ActionCreateUser, actor.Username, input.Username, map[string]any{
				"outcome": "username_taken",
			})
			return nil, apperr.Conflict("Username already taken")
		}
		return nil, err
	}

	service.auditor.Record(ctx, audit.ActionCreateUser, actor.Username, user.Username, map[string]any{
		"outcome": "created",
		"role":    string(user.Role),
	})

	return user, nil
}

/*
ResetPassword replaces a user's password.

Live sessions of the target user survive the reset unless the service was
configured to revoke them. A reset for a user that does not exist is a no-op
but is still audited.
*/
func (service *Service) ResetPassword(ctx context.Context, actor *sec.Identity, username, newPassword string) error {

	validator := validate.New().
		Required("username", username).
		Required("password", newPassword).
		MinLen("password", newPassword, auth.MinPasswordLength).
		MaxLen("password", newPassword, auth.MaxPasswordLength)
	if err := validator.Err(); err != nil {
		return err
	}

	hash, err := sec.HashPassword(newPassword)
	if err != nil {
		return err
	}

	updated, err := service.users.UpdatePassword(ctx, username, hash)
	if err != nil {
		return err
	}

	if !updated {
		service.auditor.Record(ctx, audit.ActionResetPassword, actor.Username, username, map[string]any{
			"outcome": "user_not_found",
		})
		return apperr.NotFound("User")
	}

	details := map[string]any{"outcome": "reset"}

	if service.revokeOnReset {
		revoked, err := service.sessions.RevokeAllFor(ctx, username)
		if err != nil {
			// The reset itself succeeded; report the partial failure.
			service.logger.WarnContext(ctx, "reset_revoke_failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		details["sessions_revoked"] = revoked
	}

	service.auditor.Record(ctx, audit.ActionResetPassword, actor.Username, username, details)
	return nil
}

// DeleteUserResult reports what a user deletion actually removed.
type DeleteUserResult struct {
	UserDeleted     bool `json:"user_deleted"`
	ExpensesDeleted int  `json:"expenses_deleted"`
	SessionsRevoked int  `json:"sessions_revoked"`
}

/*
DeleteUser removes an account and, when cascade is requested, its expenses.
Live sessions of a deleted account are always revoked.

Refused outright when the target is the caller themselves, the configured
bootstrap admin, or the last remaining administrator. When the account is
already gone but cascade was requested, any expenses still owned by that
username are removed anyway (they are orphans), and the operation reports
not-found.
*/
func (service *Service) DeleteUser(ctx context.Context, actor *sec.Identity, username string, cascade bool) (*DeleteUserResult, error) {

	if refusal := service.deletionRefusal(ctx, actor, username); refusal != "" {
		service.auditor.Record(ctx, audit.ActionDeleteUser, actor.Username, username, map[string]any{
			"outcome": refusal,
		})
		return nil, apperr.Unprocessable(refusalMessages[refusal])
	}

	_, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusNotFound {
			return service.deleteOrphanedData(ctx, actor, username, cascade)
		}
		return nil, err
	}

	expensesDeleted := 0
	if cascade {
		expensesDeleted, err = service.expenses.DeleteByOwner(ctx, username)
		if err != nil {
			return nil, err
		}
	}

	userDeleted, err := service.users.Delete(ctx, username)
	if err != nil {
		return nil, err
	}

	sessionsRevoked, err := service.sessions.RevokeAllFor(ctx, username)
	if err != nil {
		service.logger.WarnContext(ctx, "delete_user_revoke_failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	result := &DeleteUserResult{
		UserDeleted:     userDeleted,
		ExpensesDeleted: expensesDeleted,
		SessionsRevoked: sessionsRevoked,
	}

	service.auditor.Record(ctx, audit.ActionDeleteUser, actor.Username, username, map[string]any{
		"outcome":          "deleted",
		"cascade":          cascade,
		"expenses_deleted": expensesDeleted,
		"sessions_revoked": sessionsRevoked,
	})

	return result, nil
}

var refusalMessages = map[string]string{
	"refused_self_deletion":   "You cannot delete your own account",
	"refused_bootstrap_admin": "The bootstrap admin account cannot be deleted",
	"refused_last_admin":      "The last administrator cannot be deleted",
}

// deletionRefusal returns the refusal outcome tag for a protected target,
// or "" when deletion may proceed.
func (service *Service) deletionRefusal(ctx context.Context, actor *sec.Identity, username string) string {

	if username == actor.Username {
		return "refused_self_deletion"
	}

	if service.bootstrapAdmin != "" && username == service.bootstrapAdmin {
		return "refused_bootstrap_admin"
	}

	target, err := service.users.FindByUsername(ctx, username)
	if err != nil || target.Role != sec.RoleAdmin {
		// Absent targets and non-admins fall through to the main flow.
		return ""
	}

	adminCount, err := service.users.CountAdmins(ctx)
	if err == nil && adminCount <= 1 {
		return "refused_last_admin"
	}

	return ""
}

// deleteOrphanedData handles deleting a username whose account is already
// gone but whose expenses may linger.
func (service *Service) deleteOrphanedData(ctx context.Context, actor *sec.Identity, username string, cascade bool) (*DeleteUserResult, error) {

	orphansDeleted := 0
	if cascade {
		var err error
		orphansDeleted, err = service.expenses.DeleteByOwner(ctx, username)
		if err != nil {
			return nil, err
		}
	}

	service.auditor.Record(ctx, audit.ActionDeleteUser, actor.Username, username, map[string]any{
		"outcome":                   "user_not_found",
		"cascade":                   cascade,
		"orphaned_expenses_deleted": orphansDeleted,
	})

	if orphansDeleted > 0 {
		return &DeleteUserResult{ExpensesDeleted: orphansDeleted}, nil
	}

	return nil, apperr.NotFound("User")
}

// DeleteAllExpenses wipes the entire ledger. An empty ledger is a valid
// no-op; the audit entry records the true count either way.
func (service *Service) DeleteAllExpenses(ctx context.Context, actor *sec.Identity) (int, error) {

	deleted, err := service.expenses.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	service.auditor.Record(ctx, audit.ActionDeleteAllExpenses, actor.Username, "", map[string]any{
		"expenses_deleted": deleted,
	})

	return deleted, nil
}

// DeleteSelectedResult reports the per-id outcome of a selective delete.
type DeleteSelectedResult struct {
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing"`
}

// DeleteSelectedExpenses removes the given expenses and reports, id by id,
// which were deleted and which did not exist.
func (service *Service) DeleteSelectedExpenses(ctx context.Context, actor *sec.Identity, ids []string) (*DeleteSelectedResult, error) {

	if len(ids) == 0 {
		return nil, apperr.ValidationError("No expense ids given")
	}

	validator := validate.New()
	for _, id := range ids {
		validator.UUID("ids", id)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	deleted, missing, err := service.expenses.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	service.auditor.Record(ctx, audit.ActionDeleteSelectedExpenses, actor.Username, "", map[string]any{
		"requested": len(ids),
		"deleted":   len(deleted),
		"missing":   len(missing),
	})

	return &DeleteSelectedResult{Deleted: deleted, Missing: missing}, nil
}
