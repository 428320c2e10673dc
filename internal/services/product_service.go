package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

const (
	messageFetchProductsFailed = "Failed to fetch products"
	messageFetchCategoryFailed = "Failed to fetch products by category"
	messageAddProductFailed    = "Failed to add product"
	messageDeleteProductFailed = "Failed to delete product"
)

var (
	// ErrProductInvalidInput indicates the caller supplied invalid data.
	ErrProductInvalidInput = errors.New("product service: invalid input")
	// ErrProductUnavailable indicates the admin history could not be read or written.
	ErrProductUnavailable = errors.New("product service: unavailable")
)

// ReviewPrefetcher loads reviews for freshly fetched products and exposes their averages.
type ReviewPrefetcher interface {
	FetchMany(ctx context.Context, productIDs []string) state.Reviews
	Averages(ctx context.Context) map[string]float64
}

// ProductServiceDeps bundles collaborators required to construct a ProductService.
type ProductServiceDeps struct {
	Catalog Catalog
	Reviews ReviewPrefetcher
	Store   persistence.Store
	Locks   *KeyLocks
	Expiry  Expiry
	// SkipReviewPrefetch disables the review fan-out after a successful Fetch.
	SkipReviewPrefetch bool
	Logger             func(context.Context, string, map[string]any)
}

type productService struct {
	catalog  Catalog
	reviews  ReviewPrefetcher
	effects  effectRunner
	locks    *KeyLocks
	prefetch bool
	logger   func(context.Context, string, map[string]any)

	mu       sync.Mutex
	products state.Products
}

// NewProductService wires dependencies into a ProductService implementation.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("product service: catalog is required")
	}
	if deps.Reviews == nil {
		return nil, errors.New("product service: reviews are required")
	}
	if deps.Store == nil {
		return nil, errors.New("product service: store is required")
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewKeyLocks()
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &productService{
		catalog:  deps.Catalog,
		reviews:  deps.Reviews,
		effects:  newEffectRunner(deps.Store, deps.Expiry),
		locks:    locks,
		prefetch: !deps.SkipReviewPrefetch,
		logger:   logger,
		products: state.NewProducts(),
	}, nil
}

// Fetch reloads the catalogue. Failures are recorded in the returned state.
func (s *productService) Fetch(ctx context.Context) state.Products {
	s.update(state.FetchPending)

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.fail(ctx, "products.fetch_failed", err, messageFetchProductsFailed)
		return s.State(ctx)
	}
	s.update(func(p state.Products) state.Products { return state.FetchSucceeded(p, products) })
	s.logger(ctx, "products.fetched", map[string]any{"count": len(products)})

	if s.prefetch && len(products) > 0 {
		ids := make([]string, 0, len(products))
		for _, product := range products {
			ids = append(ids, product.ID)
		}
		s.reviews.FetchMany(ctx, ids)
	}
	return s.State(ctx)
}

func (s *productService) FetchByCategory(ctx context.Context, category string) (state.Products, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return state.Products{}, fmt.Errorf("%w: category is required", ErrProductInvalidInput)
	}
	if strings.EqualFold(category, domain.CategoryAll) {
		return s.Fetch(ctx), nil
	}

	s.update(state.FetchPending)
	products, err := s.catalog.ListProductsByCategory(ctx, category)
	if err != nil {
		s.fail(ctx, "products.fetch_category_failed", err, messageFetchCategoryFailed)
		return s.State(ctx), nil
	}
	s.update(func(p state.Products) state.Products { return state.FetchSucceeded(p, products) })
	return s.State(ctx), nil
}

// Add creates product remotely, appends the confirmed record and records it in the actor's history.
func (s *productService) Add(ctx context.Context, cmd AddProductCommand) (state.Products, error) {
	product, err := validateProduct(cmd.Product)
	if err != nil {
		return state.Products{}, err
	}

	s.update(state.FetchPending)
	created, err := s.catalog.CreateProduct(ctx, product)
	if err != nil {
		s.fail(ctx, "products.add_failed", err, messageAddProductFailed)
		return s.State(ctx), nil
	}
	s.update(func(p state.Products) state.Products { return state.ProductAdded(p, created) })
	s.logger(ctx, "products.added", map[string]any{"productId": created.ID, "actorId": cmd.ActorID})

	if actorID := strings.TrimSpace(cmd.ActorID); actorID != "" {
		if _, err := s.AddToHistory(ctx, actorID, created); err != nil {
			return state.Products{}, err
		}
	}
	return s.State(ctx), nil
}

func (s *productService) Delete(ctx context.Context, productID string) (state.Products, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return state.Products{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	s.update(state.FetchPending)
	if err := s.catalog.DeleteProduct(ctx, productID); err != nil {
		s.fail(ctx, "products.delete_failed", err, messageDeleteProductFailed)
		return s.State(ctx), nil
	}
	s.update(func(p state.Products) state.Products { return state.ProductDeleted(p, productID) })
	s.logger(ctx, "products.deleted", map[string]any{"productId": productID})
	return s.State(ctx), nil
}

func (s *productService) State(context.Context) state.Products {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotProducts(s.products)
}

func (s *productService) Find(_ context.Context, productID string) (Product, bool) {
	productID = strings.TrimSpace(productID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range s.products.Products {
		if product.ID == productID {
			return product, true
		}
	}
	return Product{}, false
}

// Filter returns the catalogue with its filter candidates narrowed by criteria. The view is
// computed per call; the shared state is not changed.
func (s *productService) Filter(ctx context.Context, criteria domain.FilterCriteria) state.Products {
	ratings := s.reviews.Averages(ctx)
	current := s.State(ctx)
	return state.SetFilterProducts(current, filter.Apply(current.Products, criteria, ratings))
}

// ResetFilter returns the catalogue with the filter candidates restored to the canonical list.
func (s *productService) ResetFilter(ctx context.Context) state.Products {
	return state.ResetFilter(s.State(ctx))
}

func (s *productService) CategoryCounts(context.Context) []filter.CategoryCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.CategoryCounts(s.products.Products)
}

func (s *productService) History(ctx context.Context, userID string) ([]Product, error) {
	p, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.AdminHistory, nil
}

func (s *productService) AddToHistory(ctx context.Context, userID string, product Product) ([]Product, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	return s.mutateHistory(ctx, userID, func(p state.Products) (state.Products, []state.Effect) {
		return state.AddToHistory(p, product)
	})
}

func (s *productService) RemoveFromHistory(ctx context.Context, userID, productID string) ([]Product, error) {
	productID = strings.TrimSpace(productID)
	return s.mutateHistory(ctx, userID, func(p state.Products) (state.Products, []state.Effect) {
		return state.RemoveFromHistory(p, productID)
	})
}

func (s *productService) ClearHistory(ctx context.Context, userID string) ([]Product, error) {
	return s.mutateHistory(ctx, userID, state.ClearHistory)
}

func (s *productService) mutateHistory(ctx context.Context, userID string, transition func(state.Products) (state.Products, []state.Effect)) ([]Product, error) {
	key, err := persistence.AdminHistoryKey(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductInvalidInput, err)
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	p, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, effects := transition(p)
	if err := s.effects.apply(ctx, effects); err != nil {
		return nil, translateStoreError(err, ErrProductUnavailable, nil)
	}
	return next.AdminHistory, nil
}

// loadHistory binds the persisted history of userID to an otherwise empty products slice.
func (s *productService) loadHistory(ctx context.Context, userID string) (state.Products, error) {
	userID = strings.TrimSpace(userID)
	key, err := persistence.AdminHistoryKey(userID)
	if err != nil {
		return state.Products{}, fmt.Errorf("%w: %v", ErrProductInvalidInput, err)
	}
	var history []Product
	if _, err := s.effects.load(ctx, key, &history); err != nil {
		return state.Products{}, translateStoreError(err, ErrProductUnavailable, nil)
	}
	return state.BindHistory(state.NewProducts(), userID, history), nil
}

func (s *productService) fail(ctx context.Context, event string, err error, fallback string) {
	message := failureMessage(err, fallback)
	s.logger(ctx, event, map[string]any{"error": err.Error()})
	s.update(func(p state.Products) state.Products { return state.FetchFailed(p, message) })
}

func (s *productService) update(transition func(state.Products) state.Products) {
	s.mu.Lock()
	s.products = transition(s.products)
	s.mu.Unlock()
}

func snapshotProducts(p state.Products) state.Products {
	p.Products = append([]Product{}, p.Products...)
	p.FilterProducts = append([]Product{}, p.FilterProducts...)
	p.AdminHistory = append([]Product{}, p.AdminHistory...)
	return p
}

func validateProduct(p Product) (Product, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	p.Image = strings.TrimSpace(p.Image)
	p.Description = strings.TrimSpace(p.Description)
	switch {
	case p.Title == "":
		return Product{}, fmt.Errorf("%w: title is required", ErrProductInvalidInput)
	case p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return Product{}, fmt.Errorf("%w: price must be a non-negative number", ErrProductInvalidInput)
	case p.Category == "":
		return Product{}, fmt.Errorf("%w: category is required", ErrProductInvalidInput)
	}
	return p, nil
}
