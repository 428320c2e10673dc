package services

import (
	"context"
	"errors"
	"time"

	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

var testNow = time.Date(2025, 5, 20, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type stubCatalog struct {
	listProducts   func(ctx context.Context) ([]Product, error)
	createProduct  func(ctx context.Context, product Product) (Product, error)
	deleteProduct  func(ctx context.Context, productID string) error
	listByCategory func(ctx context.Context, category string) ([]Product, error)
	listReviews    func(ctx context.Context, productID string) ([]Review, error)
	createReview   func(ctx context.Context, review Review) (Review, error)
	findUser       func(ctx context.Context, email string) ([]User, error)
	createUser     func(ctx context.Context, creds Credentials) (User, error)
}

var errStubNotConfigured = errors.New("stub: not configured")

func (s *stubCatalog) ListProducts(ctx context.Context) ([]Product, error) {
	if s.listProducts == nil {
		return nil, errStubNotConfigured
	}
	return s.listProducts(ctx)
}

func (s *stubCatalog) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if s.createProduct == nil {
		return Product{}, errStubNotConfigured
	}
	return s.createProduct(ctx, product)
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, productID string) error {
	if s.deleteProduct == nil {
		return errStubNotConfigured
	}
	return s.deleteProduct(ctx, productID)
}

func (s *stubCatalog) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	if s.listByCategory == nil {
		return nil, errStubNotConfigured
	}
	return s.listByCategory(ctx, category)
}

func (s *stubCatalog) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	if s.listReviews == nil {
		return []Review{}, nil
	}
	return s.listReviews(ctx, productID)
}

func (s *stubCatalog) CreateReview(ctx context.Context, review Review) (Review, error) {
	if s.createReview == nil {
		return review, nil
	}
	return s.createReview(ctx, review)
}

func (s *stubCatalog) FindUserByEmail(ctx context.Context, email string) ([]User, error) {
	if s.findUser == nil {
		return nil, errStubNotConfigured
	}
	return s.findUser(ctx, email)
}

func (s *stubCatalog) CreateUser(ctx context.Context, creds Credentials) (User, error) {
	if s.createUser == nil {
		return User{}, errStubNotConfigured
	}
	return s.createUser(ctx, creds)
}

type stubLookup map[string]Product

func (s stubLookup) Find(_ context.Context, productID string) (Product, bool) {
	p, ok := s[productID]
	return p, ok
}

type stubPrefetcher struct {
	fetched  [][]string
	averages map[string]float64
}

func (s *stubPrefetcher) FetchMany(_ context.Context, productIDs []string) state.Reviews {
	s.fetched = append(s.fetched, append([]string(nil), productIDs...))
	return state.NewReviews()
}

func (s *stubPrefetcher) Averages(context.Context) map[string]float64 {
	return s.averages
}

type failingStore struct {
	err error
}

func (s failingStore) Save(context.Context, string, any, time.Duration) error { return s.err }
func (s failingStore) Load(context.Context, string, any) (bool, error)        { return false, s.err }
func (s failingStore) Remove(context.Context, string) error                   { return s.err }

func unavailableStoreError() error {
	return &persistence.Error{Op: "redis.load", Err: errors.New("connection refused"), Unavailable: true}
}
