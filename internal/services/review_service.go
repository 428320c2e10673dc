package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hanko-field/storefront/internal/catalog"
	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/state"
)

const (
	messageFetchReviewsFailed = "Failed to fetch reviews"
	messagePostReviewFailed   = "Failed to post review"

	defaultReviewFetchConcurrency = 8
	maxReviewCommentLength        = 2000
)

var (
	// ErrReviewInvalidInput indicates validation failures for review operations.
	ErrReviewInvalidInput = errors.New("review service: invalid input")
)

// ReviewServiceDeps bundles collaborators required to construct a ReviewService.
type ReviewServiceDeps struct {
	Catalog          Catalog
	Clock            func() time.Time
	IDGenerator      func() string
	Sanitizer        func(string) string
	FetchConcurrency int
	Logger           func(context.Context, string, map[string]any)
}

type reviewService struct {
	catalog     Catalog
	now         func() time.Time
	newID       func() string
	sanitize    func(string) string
	concurrency int
	logger      func(context.Context, string, map[string]any)

	mu      sync.Mutex
	reviews state.Reviews
}

// NewReviewService wires dependencies into a ReviewService implementation.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("review service: catalog is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	sanitize := deps.Sanitizer
	if sanitize == nil {
		policy := bluemonday.StrictPolicy()
		sanitize = func(s string) string { return policy.Sanitize(s) }
	}
	concurrency := deps.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultReviewFetchConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &reviewService{
		catalog:     deps.Catalog,
		now:         func() time.Time { return clock().UTC() },
		newID:       newID,
		sanitize:    sanitize,
		concurrency: concurrency,
		logger:      logger,
		reviews:     state.NewReviews(),
	}, nil
}

func (s *reviewService) Fetch(ctx context.Context, productID string) (ReviewSummary, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ReviewSummary{}, fmt.Errorf("%w: product id is required", ErrReviewInvalidInput)
	}
	s.fetchOne(ctx, productID)
	return s.Summary(ctx, productID), nil
}

// FetchMany loads the reviews of every product concurrently. Each product resolves
// independently; a failure is recorded in the slice and does not stop the others.
func (s *reviewService) FetchMany(ctx context.Context, productIDs []string) state.Reviews {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	seen := make(map[string]struct{}, len(productIDs))
	for _, productID := range productIDs {
		productID = strings.TrimSpace(productID)
		if productID == "" {
			continue
		}
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}
		g.Go(func() error {
			s.fetchOne(gctx, productID)
			return nil
		})
	}
	_ = g.Wait()
	return s.State(ctx)
}

func (s *reviewService) fetchOne(ctx context.Context, productID string) {
	s.update(state.ReviewsPending)

	reviews, err := s.catalog.ListReviews(ctx, productID)
	if err != nil {
		message := failureMessage(err, messageFetchReviewsFailed)
		s.logger(ctx, "reviews.fetch_failed", map[string]any{"productId": productID, "error": err.Error()})
		s.update(func(r state.Reviews) state.Reviews { return state.ReviewsFailed(r, message) })
		return
	}
	s.update(func(r state.Reviews) state.Reviews { return state.ReviewsFetched(r, productID, reviews) })
}

func (s *reviewService) Post(ctx context.Context, cmd PostReviewCommand) (ReviewSummary, error) {
	review, err := s.buildReview(cmd)
	if err != nil {
		return ReviewSummary{}, err
	}

	s.update(state.ReviewsPending)
	created, err := s.catalog.CreateReview(ctx, review)
	if err != nil {
		message := failureMessage(err, messagePostReviewFailed)
		s.logger(ctx, "reviews.post_failed", map[string]any{"productId": review.ProductID, "error": err.Error()})
		s.update(func(r state.Reviews) state.Reviews { return state.ReviewsFailed(r, message) })
		return s.Summary(ctx, review.ProductID), nil
	}
	if strings.TrimSpace(created.ID) == "" {
		created.ID = review.ID
	}
	if created.Timestamp.IsZero() {
		created.Timestamp = review.Timestamp
	}
	if created.ProductID == "" {
		created.ProductID = review.ProductID
	}
	s.update(func(r state.Reviews) state.Reviews { return state.ReviewPosted(r, created) })
	s.logger(ctx, "reviews.posted", map[string]any{"productId": created.ProductID, "reviewId": created.ID, "rating": created.Rating})
	return s.Summary(ctx, created.ProductID), nil
}

func (s *reviewService) buildReview(cmd PostReviewCommand) (Review, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Review{}, fmt.Errorf("%w: product id is required", ErrReviewInvalidInput)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrReviewInvalidInput)
	}
	comment := strings.TrimSpace(s.sanitize(cmd.Comment))
	if len([]rune(comment)) > maxReviewCommentLength {
		return Review{}, fmt.Errorf("%w: comment exceeds %d characters", ErrReviewInvalidInput, maxReviewCommentLength)
	}
	return Review{
		ID:        s.newID(),
		ProductID: productID,
		UserID:    strings.TrimSpace(cmd.UserID),
		Rating:    cmd.Rating,
		Comment:   comment,
		Timestamp: s.now(),
	}, nil
}

func (s *reviewService) Summary(_ context.Context, productID string) ReviewSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReviewSummary{
		ProductID:     productID,
		Reviews:       state.ReviewsFor(s.reviews, productID),
		AverageRating: state.AverageFor(s.reviews, productID),
		Status:        s.reviews.Status,
		Error:         s.reviews.Error,
	}
}

func (s *reviewService) Averages(context.Context) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.reviews.AverageRatings))
	for id, avg := range s.reviews.AverageRatings {
		out[id] = avg
	}
	return out
}

func (s *reviewService) State(context.Context) state.Reviews {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.reviews
	snapshot.Reviews = append([]domain.Review(nil), s.reviews.Reviews...)
	snapshot.AverageRatings = make(map[string]float64, len(s.reviews.AverageRatings))
	for id, avg := range s.reviews.AverageRatings {
		snapshot.AverageRatings[id] = avg
	}
	return snapshot
}

func (s *reviewService) update(transition func(state.Reviews) state.Reviews) {
	s.mu.Lock()
	s.reviews = transition(s.reviews)
	s.mu.Unlock()
}

// failureMessage prefers the message carried by the remote response or decode error.
func failureMessage(err error, fallback string) string {
	var remote *catalog.RemoteError
	if errors.As(err, &remote) && strings.TrimSpace(remote.Message) != "" {
		return remote.Message
	}
	var decode *catalog.DecodeError
	if errors.As(err, &decode) {
		return decode.Error()
	}
	return fallback
}
