package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/hanko-field/storefront/internal/domain"
)

// FixtureFile is the YAML layout accepted by LoadFixture.
type FixtureFile struct {
	Products []FixtureProduct `yaml:"products"`
	Reviews  []FixtureReview  `yaml:"reviews"`
	Users    []FixtureUser    `yaml:"users"`
}

// FixtureProduct is a product entry in a fixture file.
type FixtureProduct struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Price       float64 `yaml:"price"`
	Image       string  `yaml:"image"`
	Category    string  `yaml:"category"`
	Description string  `yaml:"description"`
	Rate        float64 `yaml:"rate"`
	Count       int     `yaml:"count"`
}

// FixtureReview is a review entry in a fixture file.
type FixtureReview struct {
	ID        string    `yaml:"id"`
	ProductID string    `yaml:"productId"`
	UserID    string    `yaml:"userId"`
	Rating    int       `yaml:"rating"`
	Comment   string    `yaml:"comment"`
	Timestamp time.Time `yaml:"timestamp"`
}

// FixtureUser is a user entry in a fixture file.
type FixtureUser struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// FixtureClient serves the catalog from memory. Writes are kept for the lifetime of the process.
type FixtureClient struct {
	mu       sync.RWMutex
	products []domain.Product
	reviews  []domain.Review
	users    []domain.User
	nextID   int
	clock    func() time.Time
}

// LoadFixture reads and validates a YAML fixture from disk.
func LoadFixture(path string) (*FixtureClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture validates a YAML fixture document.
func ParseFixture(data []byte) (*FixtureClient, error) {
	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &DecodeError{Resource: "fixture", Reason: "malformed yaml", Err: err}
	}
	return NewFixtureClient(file)
}

// NewFixtureClient builds a client over an in-memory fixture.
func NewFixtureClient(file FixtureFile) (*FixtureClient, error) {
	c := &FixtureClient{clock: time.Now}
	for i, p := range file.Products {
		title := p.Title
		price := p.Price
		payload := productPayload{
			ID:          flexibleID(strings.TrimSpace(p.ID)),
			Title:       &title,
			Price:       &price,
			Image:       p.Image,
			Category:    p.Category,
			Description: p.Description,
		}
		if p.Rate > 0 || p.Count > 0 {
			rate := p.Rate
			count := p.Count
			payload.Rating = &ratingPayload{Rate: &rate, Count: &count}
		}
		if err := payload.validate(); err != nil {
			return nil, indexed(err, i)
		}
		c.products = append(c.products, payload.toDomain())
		if n, err := strconv.Atoi(payload.toDomain().ID); err == nil && n > c.nextID {
			c.nextID = n
		}
	}
	for i, r := range file.Reviews {
		rating := float64(r.Rating)
		payload := reviewPayload{
			ID:        flexibleID(r.ID),
			ProductID: flexibleID(strings.TrimSpace(r.ProductID)),
			UserID:    flexibleID(r.UserID),
			Rating:    &rating,
			Comment:   r.Comment,
		}
		if err := payload.validate(); err != nil {
			return nil, indexed(err, i)
		}
		review := payload.toDomain()
		review.Timestamp = r.Timestamp.UTC()
		c.reviews = append(c.reviews, review)
	}
	for i, u := range file.Users {
		payload := userPayload{ID: flexibleID(u.ID), Name: u.Name, Email: u.Email, Password: u.Password}
		if err := payload.validate(); err != nil {
			return nil, indexed(err, i)
		}
		c.users = append(c.users, payload.toDomain())
	}
	return c, nil
}

// ListProducts implements Catalog.
func (c *FixtureClient) ListProducts(context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...), nil
}

// CreateProduct implements Catalog.
func (c *FixtureClient) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if strings.TrimSpace(product.Title) == "" {
		return domain.Product{}, fmt.Errorf("%w: product title is required", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	product.ID = strconv.Itoa(c.nextID)
	c.products = append(c.products, product)
	return product, nil
}

// DeleteProduct implements Catalog.
func (c *FixtureClient) DeleteProduct(_ context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.products {
		if p.ID == productID {
			c.products = append(c.products[:i:i], c.products[i+1:]...)
			return nil
		}
	}
	return &RemoteError{Op: "delete_product", Status: 404, Message: "Failed to delete product"}
}

// ListProductsByCategory implements Catalog.
func (c *FixtureClient) ListProductsByCategory(_ context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidArgument)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	products := make([]domain.Product, 0)
	for _, p := range c.products {
		if p.Category == category {
			products = append(products, p)
		}
	}
	return products, nil
}

// ListReviews implements Catalog.
func (c *FixtureClient) ListReviews(_ context.Context, productID string) ([]domain.Review, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reviews := make([]domain.Review, 0)
	for _, r := range c.reviews {
		if r.ProductID == productID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

// CreateReview implements Catalog.
func (c *FixtureClient) CreateReview(_ context.Context, review domain.Review) (domain.Review, error) {
	if strings.TrimSpace(review.ProductID) == "" {
		return domain.Review{}, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return domain.Review{}, &DecodeError{Resource: "review", Field: "rating", Reason: "must be an integer between 1 and 5"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if review.Timestamp.IsZero() {
		review.Timestamp = c.clock().UTC()
	}
	c.reviews = append(c.reviews, review)
	return review, nil
}

// FindUserByEmail implements Catalog.
func (c *FixtureClient) FindUserByEmail(_ context.Context, email string) ([]domain.User, error) {
	email = strings.TrimSpace(email)
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]domain.User, 0, 1)
	for _, u := range c.users {
		if u.Email == email {
			users = append(users, u)
		}
	}
	return users, nil
}

// CreateUser implements Catalog.
func (c *FixtureClient) CreateUser(_ context.Context, credentials domain.Credentials) (domain.User, error) {
	email := strings.TrimSpace(credentials.Email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	user := domain.User{
		ID:       ulid.Make().String(),
		Name:     strings.TrimSpace(credentials.Name),
		Email:    email,
		Password: credentials.Password,
	}
	c.users = append(c.users, user)
	return user, nil
}

var (
	_ Catalog = (*Client)(nil)
	_ Catalog = (*FixtureClient)(nil)
)
