// Copyright (c) 2026 Kanakku. All rights reserved.

// Package sec provides cryptographic primitives for the platform: password
// hashing, opaque token generation, and the role hierarchy.
//
// # Architecture
//
// This package isolates security-sensitive code from the domain logic. It is
// an Infrastructure service consumed by the auth and admin layers.
package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionTokenLength is the byte length of a generated session token.
// 32 random bytes = 256 bits of entropy, hex-encoded to 64 characters.
const SessionTokenLength = 32

// GenerateSecureToken returns a cryptographically unguessable opaque token.
//
// The token carries no embedded meaning — it is only ever a lookup key into
// the session store, never parsed or decoded.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// # Request Identity

// Identity is the request-scoped authentication state.
//
// A nil *Identity means Anonymous; a non-nil value means Authenticated.
// There are no other states. It is always passed explicitly through
// [context.Context] — never stored in process-wide mutable state.
type Identity struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role.AtLeast(RoleAdmin)
}
