// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/middleware"
	"github.com/anandvel/kanakku/internal/platform/respond"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/internal/platform/validate"
)

// Handler exposes the authentication HTTP surface.
type Handler struct {
	service *Service
}

// NewHandler builds the auth HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /auth sub-router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth())
		protected.Get("/session", handler.session)
	})

	return router
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username     string       `json:"username"`
	Role         sec.UserRole `json:"role"`
	SessionToken string       `json:"session_token,omitempty"`
}

// login handles POST /api/v1/auth/login
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {

	var payload loginRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := validate.New().
		Required("username", payload.Username).
		Required("password", payload.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, token, err := handler.service.Login(request.Context(), payload.Username, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The cookie is the durable carrier; the token is also returned in the
	// body for clients that reconnect via the URL carrier.
	middleware.SetSessionCookie(writer, token, handler.service.SessionTTL())

	respond.OK(writer, sessionResponse{
		Username:     identity.Username,
		Role:         identity.Role,
		SessionToken: token,
	})
}

// logout handles POST /api/v1/auth/logout
//
// Logout succeeds unconditionally: the cookie is cleared even when the
// caller was anonymous or the session store is unreachable.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	ctx := request.Context()
	token := ctxutil.GetSessionToken(ctx)

	if identity := ctxutil.GetIdentity(ctx); identity != nil {
		handler.service.Logout(ctx, token, identity.Username)
	}

	middleware.ClearSessionCookie(writer)
	respond.NoContent(writer)
}

// session handles GET /api/v1/auth/session
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {

	identity := ctxutil.GetIdentity(request.Context())

	respond.OK(writer, sessionResponse{
		Username: identity.Username,
		Role:     identity.Role,
	})
}
