// Copyright (c) 2026 Kanakku. All rights reserved.

/*
Package audit maintains the append-only trail of security-relevant activity.

Every authentication event and every administrative mutation produces exactly
one entry, including operations that turn out to be no-ops (the entry then
records the outcome). The trail is best-effort by design: a failure to write
an audit entry is logged but never fails the operation that triggered it.
*/
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/anandvel/kanakku/pkg/uuid"
)

// Action identifies what kind of activity an audit entry records.
type Action string

const (
	ActionLogin                  Action = "login"
	ActionLogout                 Action = "logout"
	ActionRestoreSession         Action = "restore_session"
	ActionCreateSuperadmin       Action = "create_superadmin"
	ActionCreateUser             Action = "create_user"
	ActionResetPassword          Action = "reset_password"
	ActionDeleteUser             Action = "delete_user"
	ActionAddExpense             Action = "add_expense"
	ActionDeleteAllExpenses      Action = "delete_all_expenses"
	ActionDeleteSelectedExpenses Action = "delete_selected_expenses"
)

// Entry is a single immutable line in the audit trail.
type Entry struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	Actor     string         `json:"actor"`
	Target    string         `json:"target,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists audit entries.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	Latest(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder writes entries into the trail. It never returns an error: audit
// persistence problems must not break the operations being audited.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder builds a Recorder backed by the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

/*
Record appends one entry to the audit trail.

Parameters:
  - action: what happened (one of the Action constants).
  - actor: the username performing the action, or "system".
  - target: the entity acted upon (a username, an expense id), may be "".
  - details: free-form outcome context, stored as JSON. May be nil.
*/
func (recorder *Recorder) Record(ctx context.Context, action Action, actor, target string, details map[string]any) {
	entry := Entry{
		ID:        uuid.New(),
		Action:    action,
		Actor:     actor,
		Target:    target,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if err := recorder.store.Insert(ctx, entry); err != nil {
		// Swallow the failure: the audited operation must still succeed.
		recorder.logger.WarnContext(ctx, "audit_write_failed",
			slog.String("action", string(action)),
			slog.String("actor", actor),
			slog.String("error", err.Error()),
		)
	}
}
