package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanko-field/storefront/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Endpoints{
		Products: srv.URL + "/products",
		Users:    srv.URL + "/users/",
	}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestListProductsAcceptsNumericAndStringIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id": 1, "title": "Backpack", "price": 109.95, "image": "a.png", "category": "men's clothing", "rating": {"rate": 3.9, "count": 120}},
			{"id": "abc", "title": "Ring", "price": 0, "category": "jewelery"}
		]`)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, 109.95, products[0].Price)
	require.NotNil(t, products[0].Rating)
	assert.Equal(t, 3.9, products[0].Rating.Rate)
	assert.Equal(t, 120, products[0].Rating.Count)
	assert.Equal(t, "abc", products[1].ID)
	assert.Nil(t, products[1].Rating)
}

func TestListProductsRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"missing title":  `[{"id": 1, "price": 1}]`,
		"negative price": `[{"id": 1, "title": "x", "price": -1}]`,
		"missing id":     `[{"title": "x", "price": 1}]`,
		"not a list":     `{"id": 1}`,
		"bad rating":     `[{"id": 1, "title": "x", "price": 1, "rating": {"rate": 7}}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := client.ListProducts(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
			assert.NotErrorIs(t, err, ErrRemote)
		})
	}
}

func TestRemoteErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message": "catalog offline"}`)
	})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Equal(t, "catalog offline", err.Error())
	assert.ErrorIs(t, err, ErrRemote)
}

func TestRemoteErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := client.DeleteProduct(context.Background(), "3")
	require.Error(t, err)
	assert.Equal(t, "catalog: delete_product failed with status 500", err.Error())
}

func TestDeleteAndCategoryPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, client.DeleteProduct(context.Background(), "7"))
	products, err := client.ListProductsByCategory(context.Background(), "men's clothing")
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, []string{"DELETE /products/7", "GET /products/men%27s%20clothing"}, paths)
}

func TestFindUserByEmailUsesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "ada+shop@example.com", r.URL.Query().Get("email"))
		_, _ = io.WriteString(w, `[{"id": "u1", "name": "Ada", "email": "ada+shop@example.com", "password": "pw"}]`)
	})

	users, err := client.FindUserByEmail(context.Background(), "ada+shop@example.com")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "pw", users[0].Password)
}

func TestCreateUserPostsCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Ada", "email": "ada@example.com", "password": "pw"}, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 42, "name": "Ada", "email": "ada@example.com"}`)
	})

	user, err := client.CreateUser(context.Background(), domain.Credentials{Name: " Ada ", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
}

func TestReviewsValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("productId"))
		_, _ = io.WriteString(w, `[
			{"id": "r1", "productId": "5", "userId": "u1", "rating": 4, "comment": "ok", "timestamp": "2024-03-01T10:00:00Z"},
			{"id": "r2", "productId": 5, "userId": "u2", "rating": 2.5, "comment": "meh"}
		]`)
	})

	_, err := client.ListReviews(context.Background(), "5")
	require.Error(t, err)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "review[1]", decodeErr.Resource)
	assert.Equal(t, "rating", decodeErr.Field)
}

func TestInvalidArgumentsShortCircuit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	ctx := context.Background()

	assert.ErrorIs(t, client.DeleteProduct(ctx, " "), ErrInvalidArgument)
	_, err := client.ListReviews(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.FindUserByEmail(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.CreateProduct(ctx, domain.Product{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(Endpoints{Users: "http://x"})
	require.Error(t, err)
	_, err = NewClient(Endpoints{Products: "http://x"})
	require.Error(t, err)

	client, err := NewClient(Endpoints{Products: "http://x/p", Users: "http://x/u"})
	require.NoError(t, err)
	assert.Equal(t, "http://x/u", client.endpoints.Reviews)
}
