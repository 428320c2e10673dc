package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hanko-field/storefront/internal/domain"
)

const (
	lowPriceCeiling    = 50
	mediumPriceCeiling = 100
)

// MatchPrice reports whether price falls in bucket: low is below 50, medium is [50, 100)
// and high is 100 or more.
func MatchPrice(price float64, bucket domain.PriceBucket) bool {
	switch bucket {
	case domain.PriceLow:
		return price < lowPriceCeiling
	case domain.PriceMedium:
		return price >= lowPriceCeiling && price < mediumPriceCeiling
	case domain.PriceHigh:
		return price >= mediumPriceCeiling
	default:
		return true
	}
}

// MatchRating reports whether rating falls in bucket. Bucket k covers [k, k+1),
// except 5 which only matches an exact 5.
func MatchRating(rating float64, bucket domain.RatingBucket) bool {
	switch {
	case bucket == domain.RatingAll:
		return true
	case bucket == 5:
		return rating == 5
	case bucket >= 1 && bucket < 5:
		k := float64(bucket)
		return rating >= k && rating < k+1
	default:
		return true
	}
}

// MatchCategory reports whether category equals filter. The all filter matches everything.
func MatchCategory(category, filter string) bool {
	return filter == "" || filter == domain.CategoryAll || category == filter
}

// MatchSearch reports whether title contains term, ignoring case.
func MatchSearch(title, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(fold(title), fold(term))
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Apply returns the products matching every predicate in criteria. Ratings are looked up by
// product id; products without an entry rate 0.
func Apply(products []domain.Product, criteria domain.FilterCriteria, ratings map[string]float64) []domain.Product {
	criteria = Normalize(criteria)
	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !MatchPrice(p.Price, criteria.Price) {
			continue
		}
		if !MatchRating(ratings[p.ID], criteria.Rating) {
			continue
		}
		if !MatchCategory(p.Category, criteria.Category) {
			continue
		}
		if !MatchSearch(p.Title, criteria.Search) {
			continue
		}
		result = append(result, p)
	}
	return result
}
