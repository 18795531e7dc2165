// Copyright (c) 2026 Kanakku. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/anandvel/kanakku/internal/platform/apperr"
	"github.com/anandvel/kanakku/internal/platform/constants"
	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/respond"
	"github.com/anandvel/kanakku/internal/platform/sec"
)

/*
SessionAuthenticator resolves opaque session tokens into identities.

The two methods differ only in their side effects: ResolveToken is the quiet
path used for the cookie carrier on every request, while RestoreSession is
used when a token arrives on the URL carrier and additionally records an
audit trail entry for the restore.
*/
type SessionAuthenticator interface {
	ResolveToken(ctx context.Context, token string) (*sec.Identity, error)
	RestoreSession(ctx context.Context, token string) (*sec.Identity, error)
}

/*
Authenticate resolves the caller's identity from the session token carriers.

Resolution order:

 1. URL query parameter "session_token". A valid token here is promoted to
    the cookie carrier, audited as a session restore, and (for GET requests)
    answered with a redirect to the same URL with the token stripped, so the
    token never lingers in the address bar.
 2. Cookie "session_token". A valid token attaches the identity silently.
    A dead cookie is cleared so the browser stops presenting it.

The middleware never rejects a request: unauthenticated callers proceed with
an anonymous context. Enforcement is the job of RequireAuth and RequireRole.
*/
func Authenticate(sessions SessionAuthenticator, sessionTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			token, source := TokenFromRequest(request)
			if source == SourceNone {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := request.Context()

			// 1. URL carrier: restore the session and promote the token to a cookie
			if source == SourceQuery {
				identity, err := sessions.RestoreSession(ctx, token)
				if err == nil && identity != nil {
					SetSessionCookie(writer, token, sessionTTL)
					ctx = ctxutil.WithIdentity(ctx, identity)
					ctx = ctxutil.WithSessionToken(ctx, token)

					// For page loads, bounce to the same URL without the token so it
					// disappears from the address bar and browser history.
					if request.Method == http.MethodGet {
						http.Redirect(writer, request.WithContext(ctx), StripSessionParam(request.URL), http.StatusFound)
						return
					}

					next.ServeHTTP(writer, request.WithContext(ctx))
					return
				}

				// The URL token was dead; a live cookie may still identify the caller.
				cookie, cookieErr := request.Cookie(constants.SessionCookieName)
				if cookieErr != nil || cookie.Value == "" {
					next.ServeHTTP(writer, request)
					return
				}
				token = cookie.Value
			}

			// 2. Cookie carrier: quiet resolution on every request
			identity, err := sessions.ResolveToken(ctx, token)
			if err != nil || identity == nil {
				ClearSessionCookie(writer)
				next.ServeHTTP(writer, request)
				return
			}

			ctx = ctxutil.WithIdentity(ctx, identity)
			ctx = ctxutil.WithSessionToken(ctx, token)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401 Unauthorized.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			if ctxutil.GetIdentity(request.Context()) == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRole rejects callers whose role is below the given minimum with
// 403 Forbidden. It implies RequireAuth: anonymous callers get 401.
func RequireRole(minimum sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !identity.Role.AtLeast(minimum) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient privileges"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
