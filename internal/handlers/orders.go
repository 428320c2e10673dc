package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
)

const maxOrderBodySize = 64 * 1024

// OrderHandlers exposes order history and the saved delivery address.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
}

// NewOrderHandlers constructs order handlers.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.listOrders)
	r.Post("/", h.saveOrder)
	r.Get("/address", h.getAddress)
	r.Put("/address", h.saveAddress)
}

type orderLineRequest struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type orderRequest struct {
	Items   []orderLineRequest `json:"items"`
	Address domain.Address     `json:"address"`
}

type ordersResponse struct {
	Orders []services.Order `json:"orders"`
}

type addressResponse struct {
	Address *services.Address `json:"address"`
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(ctx, w)
	if !ok {
		return
	}
	orders, err := h.orders.List(ctx, identity.UID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if orders == nil {
		orders = []services.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, ordersResponse{Orders: orders})
}

func (h *OrderHandlers) saveOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(ctx, w)
	if !ok {
		return
	}
	var req orderRequest
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return
	}
	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.OrderLine{ID: item.ID, Name: item.Name, Price: item.Price, Quantity: item.Quantity})
	}
	order, err := h.orders.Save(ctx, identity.UID, services.Order{Items: lines, Address: req.Address})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, order)
}

func (h *OrderHandlers) getAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(ctx, w)
	if !ok {
		return
	}
	address, found, err := h.orders.Address(ctx, identity.UID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	resp := addressResponse{}
	if found {
		resp.Address = &address
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *OrderHandlers) saveAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(ctx, w)
	if !ok {
		return
	}
	var req domain.Address
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return
	}
	address, err := h.orders.SaveAddress(ctx, identity.UID, req)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, addressResponse{Address: &address})
}

func (h *OrderHandlers) identity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	if h.orders == nil {
		writeServiceUnavailable(ctx, w, "order")
		return nil, false
	}
	return requireIdentity(ctx, w)
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderUnavailable):
		writeServiceUnavailable(ctx, w, "order")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
