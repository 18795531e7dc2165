// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/anandvel/kanakku/pkg/pagination"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new account. A duplicate username returns a conflict.
	Create(ctx context.Context, user *User) error

	// FindByUsername returns the account, or a not-found error.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// UpdatePassword replaces the stored hash. Returns false if no such user.
	UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error)

	// Delete removes the account. Returns false if no such user.
	Delete(ctx context.Context, username string) (bool, error)

	// List returns a page of accounts ordered by username, plus the total count.
	List(ctx context.Context, params pagination.Params) ([]User, int, error)

	// CountAdmins returns how many accounts hold the admin role.
	CountAdmins(ctx context.Context) (int, error)
}

/*
SessionStore is the token-to-username binding layer.

Implementations must guarantee that once a token is deleted or its TTL
elapses, Get never returns a username for it again. A Get miss is not an
error: it returns ("", nil).
*/
type SessionStore interface {
	// Set binds token to username for the given TTL, overwriting any prior binding.
	Set(ctx context.Context, token, username string, ttl time.Duration) error

	// Get returns the bound username, or "" when the token is unknown or expired.
	Get(ctx context.Context, token string) (string, error)

	// Delete removes the binding. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error

	// Extend resets the TTL of an existing binding. Returns false when the
	// token no longer exists (an expired session cannot be revived).
	Extend(ctx context.Context, token string, ttl time.Duration) (bool, error)

	// DeleteByUsername removes every binding pointing at the username and
	// returns how many were removed.
	DeleteByUsername(ctx context.Context, username string) (int, error)
}
