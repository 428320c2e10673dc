package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanko-field/storefront/internal/domain"
)

const (
	instrumentationName = "github.com/hanko-field/storefront/internal/catalog"
	defaultTimeout      = 10 * time.Second
	maxErrorBody        = 1024
	maxResponseBody     = 4 << 20
)

// Catalog is the remote product, review and user API.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
	CreateReview(ctx context.Context, review domain.Review) (domain.Review, error)
	FindUserByEmail(ctx context.Context, email string) ([]domain.User, error)
	CreateUser(ctx context.Context, credentials domain.Credentials) (domain.User, error)
}

// ErrInvalidArgument is returned before any request is sent when an argument is blank.
var ErrInvalidArgument = errors.New("catalog: invalid argument")

// Endpoints holds the base URLs of the remote collections.
type Endpoints struct {
	Products string
	Users    string
	Reviews  string
}

// Client talks to the remote API over HTTP.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	tracer    trace.Tracer

	duration        metric.Float64Histogram
	durationEnabled bool
	failures        metric.Int64Counter
	failuresEnabled bool
}

// Option customises the Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	meter      metric.Meter
	tracer     trace.Tracer
}

// WithHTTPClient injects the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = client
	}
}

// WithTimeout bounds each request when no HTTP client is injected.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *clientConfig) {
		cfg.meter = m
	}
}

// WithTracer injects a custom tracer.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *clientConfig) {
		cfg.tracer = t
	}
}

// NewClient constructs an HTTP catalog client. The products and users endpoints are required;
// reviews default to the users endpoint.
func NewClient(endpoints Endpoints, opts ...Option) (*Client, error) {
	endpoints.Products = strings.TrimRight(strings.TrimSpace(endpoints.Products), "/")
	endpoints.Users = strings.TrimRight(strings.TrimSpace(endpoints.Users), "/")
	endpoints.Reviews = strings.TrimRight(strings.TrimSpace(endpoints.Reviews), "/")
	if endpoints.Products == "" {
		return nil, errors.New("catalog: products endpoint is required")
	}
	if endpoints.Users == "" {
		return nil, errors.New("catalog: users endpoint is required")
	}
	if endpoints.Reviews == "" {
		endpoints.Reviews = endpoints.Users
	}

	cfg := clientConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	if cfg.meter == nil {
		cfg.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(instrumentationName)
	}

	c := &Client{
		endpoints: endpoints,
		http:      cfg.httpClient,
		tracer:    cfg.tracer,
	}

	duration, err := cfg.meter.Float64Histogram(
		"storefront.catalog.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of remote catalog requests"),
	)
	if err == nil {
		c.duration = duration
		c.durationEnabled = true
	}
	failures, err := cfg.meter.Int64Counter(
		"storefront.catalog.request.failures",
		metric.WithDescription("Count of failed remote catalog requests"),
	)
	if err == nil {
		c.failures = failures
		c.failuresEnabled = true
	}
	return c, nil
}

// ListProducts fetches the whole product collection.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.do(ctx, "list_products", http.MethodGet, c.endpoints.Products, nil)
	if err != nil {
		return nil, err
	}
	return decodeProducts(body)
}

// CreateProduct posts a new product and returns the stored representation.
func (c *Client) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if strings.TrimSpace(product.Title) == "" {
		return domain.Product{}, fmt.Errorf("%w: product title is required", ErrInvalidArgument)
	}
	body, err := c.do(ctx, "create_product", http.MethodPost, c.endpoints.Products, product)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(body)
}

// DeleteProduct removes a product by identifier.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	endpoint, err := url.JoinPath(c.endpoints.Products, productID)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "delete_product", http.MethodDelete, endpoint, nil)
	return err
}

// ListProductsByCategory fetches the products of one category.
func (c *Client) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidArgument)
	}
	endpoint, err := url.JoinPath(c.endpoints.Products, category)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "list_products_by_category", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return decodeProducts(body)
}

// ListReviews fetches the reviews of one product.
func (c *Client) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	endpoint, err := withQuery(c.endpoints.Reviews, "productId", productID)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "list_reviews", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return decodeReviews(body)
}

// CreateReview posts a review and returns the stored representation.
func (c *Client) CreateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	if strings.TrimSpace(review.ProductID) == "" {
		return domain.Review{}, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	body, err := c.do(ctx, "create_review", http.MethodPost, c.endpoints.Reviews, review)
	if err != nil {
		return domain.Review{}, err
	}
	return decodeReview(body)
}

// FindUserByEmail returns the users registered under email. An empty slice means no match.
func (c *Client) FindUserByEmail(ctx context.Context, email string) ([]domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	endpoint, err := withQuery(c.endpoints.Users, "email", email)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "find_user", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return decodeUsers(body)
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, credentials domain.Credentials) (domain.User, error) {
	if strings.TrimSpace(credentials.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	payload := map[string]string{
		"name":     strings.TrimSpace(credentials.Name),
		"email":    strings.TrimSpace(credentials.Email),
		"password": credentials.Password,
	}
	body, err := c.do(ctx, "create_user", http.MethodPost, c.endpoints.Users, payload)
	if err != nil {
		return domain.User{}, err
	}
	return decodeUser(body)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload any) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "catalog."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("catalog.operation", op),
			attribute.String("http.request.method", method),
		),
	)
	start := time.Now()
	status := 0
	defer func() {
		c.observe(ctx, op, time.Since(start), err)
		if status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if payload != nil {
		encoded, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, marshalErr
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode >= 400 {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Message: drainError(resp.Body)}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return body, nil
}

func (c *Client) observe(ctx context.Context, op string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	if c.durationEnabled {
		c.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	}
	if err != nil && c.failuresEnabled {
		c.failures.Add(ctx, 1, attrs)
	}
}

func withQuery(base, key, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set(key, value)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func drainError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	message := strings.TrimSpace(string(data))
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		switch {
		case strings.TrimSpace(envelope.Message) != "":
			return strings.TrimSpace(envelope.Message)
		case strings.TrimSpace(envelope.Error) != "":
			return strings.TrimSpace(envelope.Error)
		}
	}
	var text string
	if json.Unmarshal(data, &text) == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return message
}
