// Copyright (c) 2026 Kanakku. All rights reserved.

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anandvel/kanakku/internal/platform/respond"
)

// Handler exposes the audit trail read surface for administrators.
type Handler struct {
	store Store
}

// NewHandler builds the audit HTTP handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the audit sub-router. Access control (admin only) is applied
// by the server when mounting.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.latest)
	return router
}

// latest handles GET /api/v1/admin/audit-logs?limit=N
func (handler *Handler) latest(writer http.ResponseWriter, request *http.Request) {

	limit := DefaultTrailLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := handler.store.Latest(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}
