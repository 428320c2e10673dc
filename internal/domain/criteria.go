package domain

// PriceBucket selects a price band.
type PriceBucket string

const (
	PriceAll    PriceBucket = "all"
	PriceLow    PriceBucket = "low"
	PriceMedium PriceBucket = "medium"
	PriceHigh   PriceBucket = "high"
)

// RatingBucket selects a star band. Zero means every rating.
type RatingBucket int

const RatingAll RatingBucket = 0

// CategoryAll disables category filtering.
const CategoryAll = "all"

// FilterCriteria combines the four independent product predicates.
type FilterCriteria struct {
	Price    PriceBucket  `json:"price"`
	Rating   RatingBucket `json:"rating"`
	Category string       `json:"category"`
	Search   string       `json:"search"`
}
