package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
)

const maxSearchBodySize = 1024

// SearchHandlers exposes the search term and its title matches. Anonymous callers
// share a single search slot.
type SearchHandlers struct {
	authn  *auth.Authenticator
	search services.SearchService
}

// NewSearchHandlers constructs search handlers.
func NewSearchHandlers(authn *auth.Authenticator, search services.SearchService) *SearchHandlers {
	return &SearchHandlers{authn: authn, search: search}
}

// Routes wires the /search endpoints onto the provided router.
func (h *SearchHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.OptionalAuth())
	}
	r.Get("/", h.getSearch)
	r.Put("/", h.setTerm)
	r.Delete("/", h.clearSearch)
}

type searchRequest struct {
	Term string `json:"searchTerm"`
}

func (h *SearchHandlers) getSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.search == nil {
		writeServiceUnavailable(ctx, w, "search")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.search.State(ctx, auth.UserID(ctx)))
}

func (h *SearchHandlers) setTerm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.search == nil {
		writeServiceUnavailable(ctx, w, "search")
		return
	}
	var req searchRequest
	if !decodeBody(w, r, maxSearchBodySize, &req) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.search.SetTerm(ctx, auth.UserID(ctx), req.Term))
}

func (h *SearchHandlers) clearSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.search == nil {
		writeServiceUnavailable(ctx, w, "search")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.search.Clear(ctx, auth.UserID(ctx)))
}
