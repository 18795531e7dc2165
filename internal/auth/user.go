// Copyright (c) 2026 Kanakku. All rights reserved.

/*
Package auth owns identity: user accounts, credential verification, and the
opaque session tokens that bind a browser to a username.

Sessions live in Redis under "session:<token>" with the username as the
value. The token itself carries no information; once its Redis key is gone
(deleted or expired) the token can never resolve again.
*/
package auth

import (
	"time"

	"github.com/anandvel/kanakku/internal/platform/sec"
)

// User is a registered account.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Identity returns the security identity for this account.
func (u *User) Identity() *sec.Identity {
	return &sec.Identity{Username: u.Username, Role: u.Role}
}

// Field length limits enforced on input.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 128
)
