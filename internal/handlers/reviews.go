package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
)

const maxReviewBodySize = 8 * 1024

// ReviewHandlers exposes product reviews.
type ReviewHandlers struct {
	authn   *auth.Authenticator
	reviews services.ReviewService
}

// NewReviewHandlers constructs review handlers.
func NewReviewHandlers(authn *auth.Authenticator, reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{authn: authn, reviews: reviews}
}

// Routes wires the /reviews endpoints onto the provided router.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listReviews)
	r.Get("/averages", h.averages)
	r.Group(func(private chi.Router) {
		if h.authn != nil {
			private.Use(h.authn.RequireAuth())
		}
		private.Post("/", h.postReview)
	})
}

type postReviewRequest struct {
	ProductID productRef `json:"productId"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
}

func (h *ReviewHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		writeServiceUnavailable(ctx, w, "review")
		return
	}
	productID := strings.TrimSpace(r.URL.Query().Get("productId"))
	summary, err := h.reviews.Fetch(ctx, productID)
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}
	writeReviewSummary(w, summary, http.StatusOK)
}

func (h *ReviewHandlers) averages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		writeServiceUnavailable(ctx, w, "review")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"averageRatings": h.reviews.Averages(ctx)})
}

func (h *ReviewHandlers) postReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		writeServiceUnavailable(ctx, w, "review")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	var req postReviewRequest
	if !decodeBody(w, r, maxReviewBodySize, &req) {
		return
	}
	summary, err := h.reviews.Post(ctx, services.PostReviewCommand{
		UserID:    identity.UID,
		ProductID: string(req.ProductID),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}
	writeReviewSummary(w, summary, http.StatusCreated)
}

func writeReviewSummary(w http.ResponseWriter, summary services.ReviewSummary, status int) {
	if summary.Status == domain.StatusFailed {
		status = http.StatusBadGateway
	}
	httpx.WriteJSON(w, status, summary)
}

func writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to process review request", http.StatusInternalServerError))
	}
}
