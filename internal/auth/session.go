// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/sec"
)

/*
SessionManager owns the lifecycle of opaque session tokens.

A token is 32 bytes of crypto/rand entropy, hex encoded. It means nothing by
itself: identity comes solely from the live "session:<token>" binding in the
store. Revocation is therefore immediate and absolute, and an expired token
is indistinguishable from one that never existed.
*/
type SessionManager struct {
	store SessionStore
	users UserRepository
	ttl   time.Duration
}

// NewSessionManager builds a SessionManager with the given token TTL.
func NewSessionManager(store SessionStore, users UserRepository, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, users: users, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (manager *SessionManager) TTL() time.Duration {
	return manager.ttl
}

// Issue mints a fresh token bound to the username.
func (manager *SessionManager) Issue(ctx context.Context, username string) (string, error) {
	token, err := sec.GenerateSecureToken(sec.SessionTokenLength)
	if err != nil {
		return "", fmt.Errorf("session_issue_failed: %w", err)
	}

	if err := manager.store.Set(ctx, token, username, manager.ttl); err != nil {
		return "", err
	}

	return token, nil
}

/*
Resolve maps a token to the identity it is bound to.

Returns:
  - (*sec.Identity, nil) for a live token bound to an existing account.
  - (nil, nil) for an unknown or expired token.
  - (nil, error) only on store failure.

A live token bound to a since-deleted account is revoked on the spot and
treated as unknown.
*/
func (manager *SessionManager) Resolve(ctx context.Context, token string) (*sec.Identity, error) {
	if token == "" {
		return nil, nil
	}

	username, err := manager.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, nil
	}

	user, err := manager.users.FindByUsername(ctx, username)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusNotFound {
			// The account is gone; the dangling binding must not outlive it.
			_ = manager.store.Delete(ctx, token)
			return nil, nil
		}
		return nil, err
	}

	return user.Identity(), nil
}

// Refresh pushes the token's expiry out by the full TTL. Refreshing a token
// that already expired is a silent no-op: expiry is never undone.
func (manager *SessionManager) Refresh(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	_, err := manager.store.Extend(ctx, token, manager.ttl)
	return err
}

// Revoke deletes the token's binding. Revoking an unknown token succeeds.
func (manager *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return manager.store.Delete(ctx, token)
}

// RevokeAllFor revokes every live session bound to the username and returns
// how many there were.
func (manager *SessionManager) RevokeAllFor(ctx context.Context, username string) (int, error) {
	return manager.store.DeleteByUsername(ctx, username)
}
