package services

import (
	"context"

	"github.com/hanko-field/storefront/internal/catalog"
	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/state"
)

// Domain type aliases keep handler signatures short.
type (
	Product      = domain.Product
	CartItem     = domain.CartItem
	WishlistItem = domain.WishlistItem
	Review       = domain.Review
	Order        = domain.Order
	Address      = domain.Address
	User         = domain.User
	Credentials  = domain.Credentials
)

// Catalog is the remote catalogue the services read through.
type Catalog = catalog.Catalog

// ProductService owns the shared product slice and each administrator's add history.
type ProductService interface {
	Fetch(ctx context.Context) state.Products
	FetchByCategory(ctx context.Context, category string) (state.Products, error)
	Add(ctx context.Context, cmd AddProductCommand) (state.Products, error)
	Delete(ctx context.Context, productID string) (state.Products, error)
	State(ctx context.Context) state.Products
	Find(ctx context.Context, productID string) (Product, bool)
	Filter(ctx context.Context, criteria domain.FilterCriteria) state.Products
	ResetFilter(ctx context.Context) state.Products
	CategoryCounts(ctx context.Context) []filter.CategoryCount
	History(ctx context.Context, userID string) ([]Product, error)
	AddToHistory(ctx context.Context, userID string, product Product) ([]Product, error)
	RemoveFromHistory(ctx context.Context, userID, productID string) ([]Product, error)
	ClearHistory(ctx context.Context, userID string) ([]Product, error)
}

// ReviewService fetches, posts and aggregates product reviews.
type ReviewService interface {
	Fetch(ctx context.Context, productID string) (ReviewSummary, error)
	FetchMany(ctx context.Context, productIDs []string) state.Reviews
	Post(ctx context.Context, cmd PostReviewCommand) (ReviewSummary, error)
	Summary(ctx context.Context, productID string) ReviewSummary
	Averages(ctx context.Context) map[string]float64
	State(ctx context.Context) state.Reviews
}

// CartService manages the persisted cart of each user.
type CartService interface {
	Get(ctx context.Context, userID string) (state.Cart, error)
	Add(ctx context.Context, cmd AddToCartCommand) (state.Cart, error)
	Remove(ctx context.Context, userID string, itemID int64) (state.Cart, error)
	Clear(ctx context.Context, userID string) (state.Cart, error)
	Checkout(ctx context.Context, userID string) (Order, error)
}

// WishlistService manages the persisted wishlist of each user.
type WishlistService interface {
	Get(ctx context.Context, userID string) (state.Wishlist, error)
	Add(ctx context.Context, cmd AddToWishlistCommand) (state.Wishlist, error)
	Remove(ctx context.Context, userID string, itemID int64) (state.Wishlist, error)
	Status(ctx context.Context, userID string) (map[int64]bool, error)
}

// OrderService exposes order history and the saved delivery address.
type OrderService interface {
	List(ctx context.Context, userID string) ([]Order, error)
	Save(ctx context.Context, userID string, order Order) (Order, error)
	Address(ctx context.Context, userID string) (Address, bool, error)
	SaveAddress(ctx context.Context, userID string, address Address) (Address, error)
}

// AuthService signs users in and out and verifies session tokens.
type AuthService interface {
	auth.Verifier
	Login(ctx context.Context, creds Credentials) (state.Auth, error)
	Signup(ctx context.Context, creds Credentials) (state.Auth, error)
	Logout(ctx context.Context, identity *auth.Identity) (state.Auth, error)
	Session(ctx context.Context, identity *auth.Identity) (state.Auth, error)
}

// SearchService keeps the search term and results of each user.
type SearchService interface {
	State(ctx context.Context, userID string) state.Search
	SetTerm(ctx context.Context, userID, term string) state.Search
	SetResults(ctx context.Context, userID string, results []Product) state.Search
	Clear(ctx context.Context, userID string) state.Search
}

// AddProductCommand creates a catalogue product on behalf of an administrator.
type AddProductCommand struct {
	ActorID string
	Product Product
}

// AddToCartCommand adds either a known catalogue product or an explicit line.
type AddToCartCommand struct {
	UserID    string
	ProductID string
	Item      CartItem
}

// AddToWishlistCommand adds either a known catalogue product or an explicit item.
type AddToWishlistCommand struct {
	UserID    string
	ProductID string
	Item      WishlistItem
}

// PostReviewCommand submits a review for a product.
type PostReviewCommand struct {
	UserID    string
	ProductID string
	Rating    int
	Comment   string
}

// ReviewSummary is the review view of one product.
type ReviewSummary struct {
	ProductID     string        `json:"productId"`
	Reviews       []Review      `json:"reviews"`
	AverageRating float64       `json:"averageRating"`
	Status        domain.Status `json:"status"`
	Error         string        `json:"error,omitempty"`
}
