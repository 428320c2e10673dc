package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hanko-field/storefront/internal/domain"
)

// ErrInvalidCriteria is returned when a bucket name is not recognised.
var ErrInvalidCriteria = errors.New("filter: invalid criteria")

// DefaultCriteria matches every product.
func DefaultCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		Price:    domain.PriceAll,
		Rating:   domain.RatingAll,
		Category: domain.CategoryAll,
	}
}

// ParsePrice accepts all, low, medium or high. Blank means all.
func ParsePrice(raw string) (domain.PriceBucket, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(domain.PriceAll):
		return domain.PriceAll, nil
	case string(domain.PriceLow):
		return domain.PriceLow, nil
	case string(domain.PriceMedium):
		return domain.PriceMedium, nil
	case string(domain.PriceHigh):
		return domain.PriceHigh, nil
	default:
		return "", fmt.Errorf("%w: unknown price bucket %q", ErrInvalidCriteria, raw)
	}
}

// ParseRating accepts all, 1..5 or the 1-star..5-star spelling. Blank means all.
func ParseRating(raw string) (domain.RatingBucket, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == "all" {
		return domain.RatingAll, nil
	}
	value = strings.TrimSuffix(value, "-star")
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("%w: unknown rating bucket %q", ErrInvalidCriteria, raw)
	}
	return domain.RatingBucket(n), nil
}

// ParseCriteria builds criteria from query-style inputs.
func ParseCriteria(price, rating, category, search string) (domain.FilterCriteria, error) {
	criteria := DefaultCriteria()

	p, err := ParsePrice(price)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	r, err := ParseRating(rating)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	criteria.Price = p
	criteria.Rating = r
	if c := strings.TrimSpace(category); c != "" {
		criteria.Category = c
	}
	criteria.Search = strings.TrimSpace(search)
	return criteria, nil
}

// Normalize fills blank fields with their match-everything defaults.
func Normalize(criteria domain.FilterCriteria) domain.FilterCriteria {
	if criteria.Price == "" {
		criteria.Price = domain.PriceAll
	}
	if strings.TrimSpace(criteria.Category) == "" {
		criteria.Category = domain.CategoryAll
	}
	return criteria
}
