// Copyright (c) 2026 Kanakku. All rights reserved.

package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/anandvel/kanakku/internal/platform/constants"
)

/*
Session tokens can travel on two carriers: the "session_token" URL query
parameter and the "session_token" cookie. The query parameter exists so a
session can survive a full page reload or be handed across a redirect; it is
one-shot and must never remain visible in the address bar. The cookie is the
durable carrier.
*/

// TokenSource identifies which carrier a session token arrived on.
type TokenSource int

const (
	// SourceNone means no token was found on any carrier.
	SourceNone TokenSource = iota

	// SourceQuery means the token arrived as a URL query parameter.
	SourceQuery

	// SourceCookie means the token arrived in the session cookie.
	SourceCookie
)

/*
TokenFromRequest extracts the session token from the incoming request.

The URL query parameter takes precedence over the cookie: a token handed in
the URL represents an explicit restore attempt and must win over whatever
stale cookie the browser may still hold.

Returns:
  - string: the raw token, or "" if no carrier held one.
  - TokenSource: which carrier supplied the token.
*/
func TokenFromRequest(request *http.Request) (string, TokenSource) {

	// 1. URL query parameter (one-shot restore carrier)
	if token := request.URL.Query().Get(constants.SessionQueryParam); token != "" {
		return token, SourceQuery
	}

	// 2. Session cookie (durable carrier)
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, SourceCookie
	}

	return "", SourceNone
}

// SetSessionCookie writes the session token into the durable cookie carrier.
// The cookie is HttpOnly so script on the page can never read the token.
func SetSessionCookie(writer http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// StripSessionParam returns the request URL with the session token query
// parameter removed, suitable as a redirect target that keeps the token out
// of the address bar and browser history.
func StripSessionParam(requestURL *url.URL) string {
	cleaned := *requestURL
	query := cleaned.Query()
	query.Del(constants.SessionQueryParam)
	cleaned.RawQuery = query.Encode()

	if cleaned.Path == "" {
		cleaned.Path = "/"
	}

	return cleaned.RequestURI()
}
