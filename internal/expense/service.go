// Copyright (c) 2026 Kanakku. All rights reserved.

package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/internal/platform/validate"
	"github.com/anandvel/kanakku/pkg/pagination"
	"github.com/anandvel/kanakku/pkg/uuid"
)

// Auditor records ledger activity. Satisfied by *audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, actor, target string, details map[string]any)
}

// SessionRefresher extends the caller's session. Satisfied by *auth.Service.
type SessionRefresher interface {
	Refresh(ctx context.Context, token string) error
}

// Service implements the ledger operations available to every logged-in user.
type Service struct {
	store    Store
	auditor  Auditor
	sessions SessionRefresher
	logger   *slog.Logger
}

// NewService wires the expense service.
func NewService(store Store, auditor Auditor, sessions SessionRefresher, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		auditor:  auditor,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateInput is the payload for recording a new expense.
type CreateInput struct {
	Friend   string    `json:"friend"`
	Category string    `json:"category"`
	Amount   float64   `json:"amount"`
	Notes    string    `json:"notes"`
	SpentAt  time.Time `json:"spent_at"`
}

/*
Create records a new expense owned by the caller.

Recording an expense counts as activity: the caller's session TTL is pushed
out by the full lifetime. The entry is audited as "add_expense".
*/
func (service *Service) Create(ctx context.Context, identity *sec.Identity, input CreateInput) (*Expense, error) {

	validator := validate.New().
		Required("friend", input.Friend).
		MaxLen("friend", input.Friend, MaxFriendLength).
		Required("category", input.Category).
		MaxLen("category", input.Category, MaxCategoryLength).
		MaxLen("notes", input.Notes, MaxNotesLength).
		Positive("amount", input.Amount)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	spentAt := input.SpentAt
	if spentAt.IsZero() {
		spentAt = time.Now().UTC()
	}

	expense := &Expense{
		ID:        uuid.New(),
		Owner:     identity.Username,
		Friend:    input.Friend,
		Category:  input.Category,
		Amount:    input.Amount,
		Notes:     input.Notes,
		SpentAt:   spentAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := service.store.Insert(ctx, expense); err != nil {
		return nil, err
	}

	service.auditor.Record(ctx, audit.ActionAddExpense, identity.Username, expense.ID, map[string]any{
		"category": expense.Category,
		"amount":   expense.Amount,
	})

	// Activity keeps the session alive.
	if token := ctxutil.GetSessionToken(ctx); token != "" {
		if err := service.sessions.Refresh(ctx, token); err != nil {
			service.logger.WarnContext(ctx, "session_refresh_failed",
				slog.String("username", identity.Username),
				slog.String("error", err.Error()),
			)
		}
	}

	return expense, nil
}

// ListVisible returns the expenses the caller may see: the whole ledger for
// administrators, only their own entries for everyone else.
func (service *Service) ListVisible(ctx context.Context, identity *sec.Identity, params pagination.Params) ([]Expense, int, error) {
	owner := identity.Username
	if identity.IsAdmin() {
		owner = ""
	}

	return service.store.List(ctx, owner, params)
}

// SummarizeVisible aggregates the caller's visible slice of the ledger by
// category or by friend.
func (service *Service) SummarizeVisible(ctx context.Context, identity *sec.Identity, groupBy string) ([]SummaryRow, error) {

	if err := validate.New().OneOf("group_by", groupBy, GroupByCategory, GroupByFriend).Err(); err != nil {
		return nil, err
	}

	owner := identity.Username
	if identity.IsAdmin() {
		owner = ""
	}

	return service.store.Summarize(ctx, owner, groupBy)
}
