// Copyright (c) 2026 Kanakku. All rights reserved.

package expense

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anandvel/kanakku/internal/platform/ctxutil"
	"github.com/anandvel/kanakku/internal/platform/respond"
	"github.com/anandvel/kanakku/internal/platform/validate"
	"github.com/anandvel/kanakku/pkg/pagination"
)

// Handler exposes the ledger HTTP surface. All routes require authentication,
// enforced by the server when mounting.
type Handler struct {
	service *Service
}

// NewHandler builds the expense HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /expenses sub-router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.create)
	router.Get("/", handler.list)
	router.Get("/summary", handler.summary)

	return router
}

// create handles POST /api/v1/expenses
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {

	var input CreateInput
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	identity := ctxutil.GetIdentity(request.Context())

	expense, err := handler.service.Create(request.Context(), identity, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, expense)
}

// list handles GET /api/v1/expenses?page=N&limit=M
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {

	identity := ctxutil.GetIdentity(request.Context())
	params := pagination.FromRequest(request)

	expenses, total, err := handler.service.ListVisible(request.Context(), identity, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, expenses, pagination.NewMeta(params.Page, params.Limit, total))
}

// summary handles GET /api/v1/expenses/summary?group_by=category|friend
func (handler *Handler) summary(writer http.ResponseWriter, request *http.Request) {

	identity := ctxutil.GetIdentity(request.Context())

	groupBy := request.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = GroupByCategory
	}

	summary, err := handler.service.SummarizeVisible(request.Context(), identity, groupBy)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summary)
}
