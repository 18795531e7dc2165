// Copyright (c) 2026 Kanakku. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/sec"
)

// stubSessions resolves a single known token and counts restores.
type stubSessions struct {
	token    string
	identity *sec.Identity
	restores int
}

func (stub *stubSessions) ResolveToken(_ context.Context, token string) (*sec.Identity, error) {
	if token == stub.token {
		return stub.identity, nil
	}
	return nil, nil
}

func (stub *stubSessions) RestoreSession(ctx context.Context, token string) (*sec.Identity, error) {
	identity, err := stub.ResolveToken(ctx, token)
	if identity != nil {
		stub.restores++
	}
	return identity, err
}

func identityCapturingHandler(captured **sec.Identity) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*captured = ctxutil.GetIdentity(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_CookieCarrier(t *testing.T) {
	sessions := &stubSessions{
		token:    "live-token",
		identity: &sec.Identity{Username: "alice", Role: sec.RoleUser},
	}

	var captured *sec.Identity
	handler := Authenticate(sessions, 4*time.Hour)(identityCapturingHandler(&captured))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	request.AddCookie(&http.Cookie{Name: "session_token", Value: "live-token"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "alice", captured.Username)
	assert.Zero(t, sessions.restores, "cookie resolution must not be audited as a restore")
}

func TestAuthenticate_QueryCarrierIsPromotedAndStripped(t *testing.T) {
	sessions := &stubSessions{
		token:    "live-token",
		identity: &sec.Identity{Username: "alice", Role: sec.RoleUser},
	}

	var captured *sec.Identity
	handler := Authenticate(sessions, 4*time.Hour)(identityCapturingHandler(&captured))

	request := httptest.NewRequest(http.MethodGet, "/dashboard?tab=summary&session_token=live-token", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	// The browser is bounced to the same URL without the token.
	assert.Equal(t, http.StatusFound, recorder.Code)
	location := recorder.Header().Get("Location")
	assert.Equal(t, "/dashboard?tab=summary", location)
	assert.NotContains(t, location, "session_token")

	// The token moved onto the durable cookie carrier.
	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	sessionCookie := cookies[0]
	assert.Equal(t, "session_token", sessionCookie.Name)
	assert.Equal(t, "live-token", sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)

	// The restore was counted exactly once.
	assert.Equal(t, 1, sessions.restores)
}

func TestAuthenticate_QueryCarrierNonGETProceedsInline(t *testing.T) {
	sessions := &stubSessions{
		token:    "live-token",
		identity: &sec.Identity{Username: "alice", Role: sec.RoleUser},
	}

	var captured *sec.Identity
	handler := Authenticate(sessions, 4*time.Hour)(identityCapturingHandler(&captured))

	request := httptest.NewRequest(http.MethodPost, "/api/v1/expenses?session_token=live-token", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	// No redirect for mutations; the request runs with the restored identity.
	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "alice", captured.Username)
}

func TestAuthenticate_DeadQueryTokenFallsBackToCookie(t *testing.T) {
	sessions := &stubSessions{
		token:    "cookie-token",
		identity: &sec.Identity{Username: "alice", Role: sec.RoleUser},
	}

	var captured *sec.Identity
	handler := Authenticate(sessions, 4*time.Hour)(identityCapturingHandler(&captured))

	request := httptest.NewRequest(http.MethodGet, "/dashboard?session_token=stale-token", nil)
	request.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "alice", captured.Username)
}

func TestAuthenticate_DeadCookieIsCleared(t *testing.T) {
	sessions := &stubSessions{}

	var captured *sec.Identity
	handler := Authenticate(sessions, 4*time.Hour)(identityCapturingHandler(&captured))

	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(&http.Cookie{Name: "session_token", Value: "expired-token"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, captured, "an expired token yields an anonymous request")

	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge, "the dead cookie must be expired")
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth()(next)

	t.Run("anonymous gets 401", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
		ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{Username: "alice", Role: sec.RoleUser})
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request.WithContext(ctx))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(sec.RoleAdmin)(next)

	tests := []struct {
		name       string
		identity   *sec.Identity
		wantStatus int
	}{
		{
			name:       "anonymous gets 401",
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "regular user gets 403",
			identity:   &sec.Identity{Username: "bob", Role: sec.RoleUser},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin passes",
			identity:   &sec.Identity{Username: "root", Role: sec.RoleAdmin},
			wantStatus: http.StatusOK,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/bob", nil)
			if testCase.identity != nil {
				request = request.WithContext(ctxutil.WithIdentity(request.Context(), testCase.identity))
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)
			assert.Equal(t, testCase.wantStatus, recorder.Code)
		})
	}
}
