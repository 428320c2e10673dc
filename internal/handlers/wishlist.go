package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
	"github.com/hanko-field/storefront/internal/state"
)

// WishlistHandlers exposes the signed-in user's wishlist.
type WishlistHandlers struct {
	authn    *auth.Authenticator
	wishlist services.WishlistService
}

// NewWishlistHandlers constructs wishlist handlers.
func NewWishlistHandlers(authn *auth.Authenticator, wishlist services.WishlistService) *WishlistHandlers {
	return &WishlistHandlers{authn: authn, wishlist: wishlist}
}

// Routes wires the /wishlist endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.getWishlist)
	r.Post("/items", h.addItem)
	r.Delete("/items/{itemId}", h.removeItem)
}

type wishlistResponse struct {
	state.Wishlist
	Status map[string]bool `json:"status"`
}

func (h *WishlistHandlers) getWishlist(w http.ResponseWriter, r *http.Request) {
	h.withWishlist(w, r, func(ctx context.Context, uid string) (state.Wishlist, error) {
		return h.wishlist.Get(ctx, uid)
	})
}

func (h *WishlistHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, maxCartBodySize, &req) {
		return
	}
	h.withWishlist(w, r, func(ctx context.Context, uid string) (state.Wishlist, error) {
		return h.wishlist.Add(ctx, services.AddToWishlistCommand{
			UserID:    uid,
			ProductID: string(req.ProductID),
			Item: services.WishlistItem{
				ID:    req.ID,
				Name:  req.Name,
				Price: req.Price,
				Image: req.Image,
			},
		})
	})
}

func (h *WishlistHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	h.withWishlist(w, r, func(ctx context.Context, uid string) (state.Wishlist, error) {
		return h.wishlist.Remove(ctx, uid, itemID)
	})
}

func (h *WishlistHandlers) withWishlist(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (state.Wishlist, error)) {
	ctx := r.Context()
	if h.wishlist == nil {
		writeServiceUnavailable(ctx, w, "wishlist")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	wishlist, err := op(ctx, identity.UID)
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	status := make(map[string]bool, len(wishlist.Items))
	for id, present := range filter.WishlistStatus(wishlist.Items) {
		status[strconv.FormatInt(id, 10)] = present
	}
	httpx.WriteJSON(w, http.StatusOK, wishlistResponse{Wishlist: wishlist, Status: status})
}

func writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWishlistNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrWishlistUnavailable):
		writeServiceUnavailable(ctx, w, "wishlist")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_error", "failed to process wishlist request", http.StatusInternalServerError))
	}
}
