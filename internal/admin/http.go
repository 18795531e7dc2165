// Copyright (c) 2026 Kanakku. All rights reserved.

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/respond"
	"github.com/anandvel/kanakku/internal/platform/validate"
	"github.com/anandvel/kanakku/pkg/pagination"
)

// Handler exposes the administrative HTTP surface. The server mounts it
// behind RequireRole(admin); nothing here re-checks the caller's role.
type Handler struct {
	service *Service
}

// NewHandler builds the admin HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register attaches the admin routes to an /admin sub-router. The audit
// trail route lives alongside these, mounted by the server.
func (handler *Handler) Register(router chi.Router) {
	router.Get("/users", handler.listUsers)
	router.Post("/users", handler.createUser)
	router.Post("/users/{username}/reset-password", handler.resetPassword)
	router.Delete("/users/{username}", handler.deleteUser)

	router.Delete("/expenses", handler.deleteAllExpenses)
	router.Post("/expenses/batch-delete", handler.deleteSelectedExpenses)
}

// listUsers handles GET /api/v1/admin/users
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {

	params := pagination.FromRequest(request)

	users, total, err := handler.service.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

// createUser handles POST /api/v1/admin/users
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {

	var input CreateUserInput
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	actor := ctxutil.GetIdentity(request.Context())

	user, err := handler.service.CreateUser(request.Context(), actor, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// resetPassword handles POST /api/v1/admin/users/{username}/reset-password
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {

	var payload resetPasswordRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	actor := ctxutil.GetIdentity(request.Context())
	username := chi.URLParam(request, "username")

	if err := handler.service.ResetPassword(request.Context(), actor, username, payload.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// deleteUser handles DELETE /api/v1/admin/users/{username}?cascade=true
//
// Cascading into the user's expenses is an explicit caller choice, never
// implied.
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {

	actor := ctxutil.GetIdentity(request.Context())
	username := chi.URLParam(request, "username")
	cascade := request.URL.Query().Get("cascade") == "true"

	result, err := handler.service.DeleteUser(request.Context(), actor, username, cascade)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// deleteAllExpenses handles DELETE /api/v1/admin/expenses
func (handler *Handler) deleteAllExpenses(writer http.ResponseWriter, request *http.Request) {

	actor := ctxutil.GetIdentity(request.Context())

	deleted, err := handler.service.DeleteAllExpenses(request.Context(), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"expenses_deleted": deleted})
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// deleteSelectedExpenses handles POST /api/v1/admin/expenses/batch-delete
func (handler *Handler) deleteSelectedExpenses(writer http.ResponseWriter, request *http.Request) {

	var payload batchDeleteRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	actor := ctxutil.GetIdentity(request.Context())

	result, err := handler.service.DeleteSelectedExpenses(request.Context(), actor, payload.IDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
