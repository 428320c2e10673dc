package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/di"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/config"
	"github.com/hanko-field/storefront/internal/services"
	"github.com/hanko-field/storefront/internal/state"
)

type testStack struct {
	container *di.Container
	router    chi.Router
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{
		Catalog: config.CatalogConfig{
			FixtureFile: "../catalog/testdata/catalog.yaml",
			Timeout:     time.Second,
		},
		Persistence: config.PersistenceConfig{
			Backend:  config.BackendMemory,
			TTL:      time.Hour,
			TokenTTL: time.Hour,
		},
		Auth: config.AuthConfig{
			AdminDomain: "@intimetec.com",
			TokenSecret: "handler-secret",
			TokenIssuer: "storefront",
		},
	}
	container, err := di.NewContainer(ctx, cfg, di.Dependencies{})
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close(ctx) })
	container.Services.Products.Fetch(ctx)

	svc := container.Services
	authn := auth.NewAuthenticator(svc.Auth)
	router := NewRouter(
		WithAuthRoutes(NewAuthHandlers(authn, svc.Auth).Routes),
		WithProductRoutes(NewProductHandlers(authn, svc.Products, svc.Reviews).Routes),
		WithReviewRoutes(NewReviewHandlers(authn, svc.Reviews).Routes),
		WithCartRoutes(NewCartHandlers(authn, svc.Cart).Routes),
		WithWishlistRoutes(NewWishlistHandlers(authn, svc.Wishlist).Routes),
		WithOrderRoutes(NewOrderHandlers(authn, svc.Orders).Routes),
		WithSearchRoutes(NewSearchHandlers(authn, svc.Search).Routes),
	)
	return &testStack{container: container, router: router}
}

func (s *testStack) login(t *testing.T, email, password string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rr.Code, rr.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	decodeJSON(t, rr, &session)
	if session.Token == "" {
		t.Fatalf("login %s returned no token", email)
	}
	return session.Token
}

func (s *testStack) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.router, method, path, token, body)
}

func serve(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]any
	decodeJSON(t, rr, &payload)
	code, _ := payload["error"].(string)
	return code
}

// stubCartService lets a test drive the error mapping of the cart endpoints.
type stubCartService struct {
	err error
}

func (s *stubCartService) Get(context.Context, string) (state.Cart, error) {
	return state.Cart{}, s.err
}

func (s *stubCartService) Add(context.Context, services.AddToCartCommand) (state.Cart, error) {
	return state.Cart{}, s.err
}

func (s *stubCartService) Remove(context.Context, string, int64) (state.Cart, error) {
	return state.Cart{}, s.err
}

func (s *stubCartService) Clear(context.Context, string) (state.Cart, error) {
	return state.Cart{}, s.err
}

func (s *stubCartService) Checkout(context.Context, string) (services.Order, error) {
	return services.Order{}, s.err
}
