// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/constants"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/pkg/uuid"
)

// Auditor records security-relevant activity. Satisfied by *audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, actor, target string, details map[string]any)
}

// loginFailedMessage is deliberately identical for unknown usernames and
// wrong passwords so the login surface cannot be used to enumerate accounts.
const loginFailedMessage = "Invalid username or password."

// Service is the authentication gate: credential checks, session issuance,
// and the bootstrap admin account.
type Service struct {
	users    UserRepository
	sessions *SessionManager
	auditor  Auditor
	logger   *slog.Logger
}

// NewService wires the authentication service.
func NewService(users UserRepository, sessions *SessionManager, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		auditor:  auditor,
		logger:   logger,
	}
}

// SessionTTL returns the configured session lifetime.
func (service *Service) SessionTTL() time.Duration {
	return service.sessions.TTL()
}

/*
Login verifies credentials and opens a session.

Both failure modes (unknown username, wrong password) return the same
generic unauthorized error. Success is audited as "login".

Returns:
  - *sec.Identity: the authenticated identity.
  - string: the opaque session token.
*/
func (service *Service) Login(ctx context.Context, username, password string) (*sec.Identity, string, error) {

	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusNotFound {
			return nil, "", apperr.Unauthorized(loginFailedMessage)
		}
		return nil, "", err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperr.Unauthorized(loginFailedMessage)
	}

	token, err := service.sessions.Issue(ctx, user.Username)
	if err != nil {
		return nil, "", err
	}

	service.auditor.Record(ctx, audit.ActionLogin, user.Username, user.Username, nil)

	return user.Identity(), token, nil
}

/*
Logout closes the caller's session. It always succeeds from the caller's
point of view: the local session state is discarded even if the store cannot
be reached, in which case the orphaned binding simply ages out via its TTL.
*/
func (service *Service) Logout(ctx context.Context, token, username string) {

	if err := service.sessions.Revoke(ctx, token); err != nil {
		service.logger.WarnContext(ctx, "session_revoke_failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	service.auditor.Record(ctx, audit.ActionLogout, username, username, nil)
}

// ResolveToken implements the quiet (cookie carrier) half of session
// resolution. See middleware.SessionAuthenticator.
func (service *Service) ResolveToken(ctx context.Context, token string) (*sec.Identity, error) {
	return service.sessions.Resolve(ctx, token)
}

// RestoreSession resolves a token that arrived on the URL carrier. A
// successful restore is audited, because the token crossed a boundary a
// cookie never does.
func (service *Service) RestoreSession(ctx context.Context, token string) (*sec.Identity, error) {

	identity, err := service.sessions.Resolve(ctx, token)
	if err != nil || identity == nil {
		return identity, err
	}

	service.auditor.Record(ctx, audit.ActionRestoreSession, identity.Username, identity.Username, nil)
	return identity, nil
}

// Refresh extends the caller's session by the full TTL.
func (service *Service) Refresh(ctx context.Context, token string) error {
	return service.sessions.Refresh(ctx, token)
}

// RevokeAllFor ends every live session of the given user.
func (service *Service) RevokeAllFor(ctx context.Context, username string) (int, error) {
	return service.sessions.RevokeAllFor(ctx, username)
}

/*
EnsureBootstrapAdmin guarantees the configured administrator account exists.

Called once at startup. If the account already exists (whatever its role or
password) nothing changes; only an actual creation is audited, with the
"system" actor.
*/
func (service *Service) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {

	_, err := service.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if appError := apperr.As(err); appError == nil || appError.HTTPStatus != http.StatusNotFound {
		return err
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return err
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         sec.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := service.users.Create(ctx, user); err != nil {
		return err
	}

	service.auditor.Record(ctx, audit.ActionCreateSuperadmin, constants.SystemActor, username, nil)
	service.logger.InfoContext(ctx, "bootstrap_admin_created", slog.String("username", username))

	return nil
}
