package state

import (
	"maps"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/filter"
)

// Reviews holds every fetched review and the per-product averages derived from them.
type Reviews struct {
	Reviews        []domain.Review    `json:"reviews"`
	AverageRatings map[string]float64 `json:"averageRatings"`
	Status         domain.Status      `json:"status"`
	Error          string             `json:"error"`
}

// NewReviews returns the idle, empty slice.
func NewReviews() Reviews {
	return Reviews{
		Reviews:        []domain.Review{},
		AverageRatings: map[string]float64{},
		Status:         domain.StatusIdle,
	}
}

// ReviewsPending marks a review call as in flight.
func ReviewsPending(r Reviews) Reviews {
	r.Status = domain.StatusPending
	r.Error = ""
	return r
}

// ReviewsFetched replaces the reviews of productID and recomputes only that product's average.
func ReviewsFetched(r Reviews, productID string, fetched []domain.Review) Reviews {
	next := make([]domain.Review, 0, len(r.Reviews)+len(fetched))
	for _, review := range r.Reviews {
		if review.ProductID != productID {
			next = append(next, review)
		}
	}
	for _, review := range fetched {
		if review.ProductID == productID {
			next = append(next, review)
		}
	}
	r.Reviews = next
	r.AverageRatings = withAverage(r.AverageRatings, productID, next)
	r.Status = domain.StatusSucceeded
	r.Error = ""
	return r
}

// ReviewPosted appends review and recomputes its product's average.
func ReviewPosted(r Reviews, review domain.Review) Reviews {
	next := make([]domain.Review, len(r.Reviews), len(r.Reviews)+1)
	copy(next, r.Reviews)
	r.Reviews = append(next, review)
	r.AverageRatings = withAverage(r.AverageRatings, review.ProductID, r.Reviews)
	r.Status = domain.StatusSucceeded
	r.Error = ""
	return r
}

// ReviewsFailed records message.
func ReviewsFailed(r Reviews, message string) Reviews {
	r.Status = domain.StatusFailed
	r.Error = message
	return r
}

// ReviewsFor returns the reviews of productID in arrival order.
func ReviewsFor(r Reviews, productID string) []domain.Review {
	out := make([]domain.Review, 0)
	for _, review := range r.Reviews {
		if review.ProductID == productID {
			out = append(out, review)
		}
	}
	return out
}

// AverageFor returns the stored average of productID, 0 when unknown.
func AverageFor(r Reviews, productID string) float64 {
	return r.AverageRatings[productID]
}

func withAverage(averages map[string]float64, productID string, reviews []domain.Review) map[string]float64 {
	next := maps.Clone(averages)
	if next == nil {
		next = make(map[string]float64)
	}
	subset := make([]domain.Review, 0)
	for _, review := range reviews {
		if review.ProductID == productID {
			subset = append(subset, review)
		}
	}
	next[productID] = filter.AverageRating(subset)
	return next
}
