package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
	"github.com/hanko-field/storefront/internal/state"
)

const maxCartBodySize = 8 * 1024

// CartHandlers exposes the signed-in user's cart and checkout.
type CartHandlers struct {
	authn *auth.Authenticator
	cart  services.CartService
}

// NewCartHandlers constructs cart handlers.
func NewCartHandlers(authn *auth.Authenticator, cart services.CartService) *CartHandlers {
	return &CartHandlers{authn: authn, cart: cart}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Delete("/items/{itemId}", h.removeItem)
	r.Post("/checkout", h.checkout)
}

// itemRequest carries either a catalogue product id or an explicit line item.
type itemRequest struct {
	ProductID productRef `json:"productId"`
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Image     string     `json:"image"`
	Quantity  int        `json:"quantity"`
}

type checkoutResponse struct {
	Order services.Order `json:"order"`
	Cart  state.Cart     `json:"cart"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, uid string) (state.Cart, error) {
		return h.cart.Get(ctx, uid)
	})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, uid string) (state.Cart, error) {
		return h.cart.Clear(ctx, uid)
	})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, maxCartBodySize, &req) {
		return
	}
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, uid string) (state.Cart, error) {
		return h.cart.Add(ctx, services.AddToCartCommand{
			UserID:    uid,
			ProductID: string(req.ProductID),
			Item: services.CartItem{
				ID:       req.ID,
				Name:     req.Name,
				Price:    req.Price,
				Image:    req.Image,
				Quantity: req.Quantity,
			},
		})
	})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, uid string) (state.Cart, error) {
		return h.cart.Remove(ctx, uid, itemID)
	})
}

func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		writeServiceUnavailable(ctx, w, "cart")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, err := h.cart.Checkout(ctx, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	cart, err := h.cart.Get(ctx, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, checkoutResponse{Order: order, Cart: cart})
}

func (h *CartHandlers) withCart(w http.ResponseWriter, r *http.Request, status int, op func(context.Context, string) (state.Cart, error)) {
	ctx := r.Context()
	if h.cart == nil {
		writeServiceUnavailable(ctx, w, "cart")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	cart, err := op(ctx, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, status, cart)
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		writeServiceUnavailable(ctx, w, "cart")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}
