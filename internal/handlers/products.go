package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
	"github.com/hanko-field/storefront/internal/state"
)

const maxProductBodySize = 32 * 1024

// ProductHandlers exposes the catalogue, its filters and the administrator tools.
type ProductHandlers struct {
	authn    *auth.Authenticator
	products services.ProductService
	reviews  services.ReviewService
}

// NewProductHandlers constructs catalogue handlers. reviews may be nil, in which case
// products are returned without averages.
func NewProductHandlers(authn *auth.Authenticator, products services.ProductService, reviews services.ReviewService) *ProductHandlers {
	return &ProductHandlers{authn: authn, products: products, reviews: reviews}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Post("/refresh", h.refreshProducts)
	r.Get("/filter", h.filterProducts)
	r.Post("/filter/reset", h.resetFilter)
	r.Get("/categories", h.categoryCounts)

	r.Group(func(admin chi.Router) {
		if h.authn != nil {
			admin.Use(h.authn.RequireAuth(auth.RoleAdmin))
		}
		admin.Post("/", h.createProduct)
		admin.Delete("/{productId}", h.deleteProduct)
		admin.Get("/history", h.listHistory)
		admin.Post("/history", h.addHistory)
		admin.Delete("/history", h.clearHistory)
		admin.Delete("/history/{productId}", h.removeHistory)
	})
}

type productsResponse struct {
	Products       []filter.RatedProduct `json:"products"`
	FilterProducts []filter.RatedProduct `json:"filterProducts"`
	Status         domain.Status         `json:"status"`
	Error          string                `json:"error,omitempty"`
}

type historyResponse struct {
	AdminHistory []domain.Product `json:"adminHistory"`
}

type productRequest struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

type historyRequest struct {
	ProductID productRef `json:"productId"`
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		h.writeProducts(ctx, w, h.products.State(ctx), http.StatusOK)
		return
	}
	products, err := h.products.FetchByCategory(ctx, category)
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	h.writeProducts(ctx, w, products, http.StatusOK)
}

func (h *ProductHandlers) refreshProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	h.writeProducts(ctx, w, h.products.Fetch(ctx), http.StatusOK)
}

func (h *ProductHandlers) filterProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	query := r.URL.Query()
	criteria, err := filter.ParseCriteria(query.Get("price"), query.Get("rating"), query.Get("category"), query.Get("q"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_filter", err.Error(), http.StatusBadRequest))
		return
	}
	h.writeProducts(ctx, w, h.products.Filter(ctx, criteria), http.StatusOK)
}

func (h *ProductHandlers) resetFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	h.writeProducts(ctx, w, h.products.ResetFilter(ctx), http.StatusOK)
}

func (h *ProductHandlers) categoryCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": h.products.CategoryCounts(ctx)})
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	var req productRequest
	if !decodeBody(w, r, maxProductBodySize, &req) {
		return
	}
	products, err := h.products.Add(ctx, services.AddProductCommand{
		ActorID: identity.UID,
		Product: services.Product{
			Title:       req.Title,
			Price:       req.Price,
			Image:       req.Image,
			Category:    req.Category,
			Description: req.Description,
		},
	})
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	h.writeProducts(ctx, w, products, http.StatusCreated)
}

func (h *ProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	products, err := h.products.Delete(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	h.writeProducts(ctx, w, products, http.StatusOK)
}

func (h *ProductHandlers) listHistory(w http.ResponseWriter, r *http.Request) {
	h.withHistory(w, r, func(ctx context.Context, uid string) ([]domain.Product, error) {
		return h.products.History(ctx, uid)
	})
}

func (h *ProductHandlers) addHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if !decodeBody(w, r, maxProductBodySize, &req) {
		return
	}
	h.withHistory(w, r, func(ctx context.Context, uid string) ([]domain.Product, error) {
		product, ok := h.products.Find(ctx, string(req.ProductID))
		if !ok {
			return nil, errProductNotInCatalogue
		}
		return h.products.AddToHistory(ctx, uid, product)
	})
}

func (h *ProductHandlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.withHistory(w, r, func(ctx context.Context, uid string) ([]domain.Product, error) {
		return h.products.ClearHistory(ctx, uid)
	})
}

func (h *ProductHandlers) removeHistory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	h.withHistory(w, r, func(ctx context.Context, uid string) ([]domain.Product, error) {
		return h.products.RemoveFromHistory(ctx, uid, productID)
	})
}

func (h *ProductHandlers) withHistory(w http.ResponseWriter, r *http.Request, op func(context.Context, string) ([]domain.Product, error)) {
	ctx := r.Context()
	if h.products == nil {
		writeServiceUnavailable(ctx, w, "product")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	history, err := op(ctx, identity.UID)
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, historyResponse{AdminHistory: history})
}

// writeProducts joins review averages at read time. A failed lifecycle is reported as 502
// with the state still attached.
func (h *ProductHandlers) writeProducts(ctx context.Context, w http.ResponseWriter, products state.Products, status int) {
	var ratings map[string]float64
	if h.reviews != nil {
		ratings = h.reviews.Averages(ctx)
	}
	if products.Status == domain.StatusFailed {
		status = http.StatusBadGateway
	}
	httpx.WriteJSON(w, status, productsResponse{
		Products:       filter.JoinRatings(products.Products, ratings),
		FilterProducts: filter.JoinRatings(products.FilterProducts, ratings),
		Status:         products.Status,
		Error:          products.Error,
	})
}

var errProductNotInCatalogue = errors.New("product is not in the catalogue")

func writeProductError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, errProductNotInCatalogue):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrProductUnavailable):
		writeServiceUnavailable(ctx, w, "product")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("product_error", "failed to process product request", http.StatusInternalServerError))
	}
}
