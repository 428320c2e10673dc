package filter

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hanko-field/storefront/internal/domain"
)

// AverageRating is the arithmetic mean of the review ratings, or 0 when there are none.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// CartTotals sums price times quantity and the quantities themselves. The amount is rounded
// to cents.
func CartTotals(items []domain.CartItem) (amount float64, count int) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	amount, _ = sum.Round(2).Float64()
	return amount, count
}

// OrderTotal sums the order lines, rounded to cents.
func OrderTotal(lines []domain.OrderLine) float64 {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total, _ := sum.Round(2).Float64()
	return total
}

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"value"`
}

// CategoryCounts counts products per category in order of first appearance.
func CategoryCounts(products []domain.Product) []CategoryCount {
	title := cases.Title(language.English)
	index := make(map[string]int)
	counts := make([]CategoryCount, 0)
	for _, p := range products {
		if i, ok := index[p.Category]; ok {
			counts[i].Count++
			continue
		}
		index[p.Category] = len(counts)
		counts = append(counts, CategoryCount{Name: p.Category, Label: title.String(p.Category), Count: 1})
	}
	return counts
}

// WishlistStatus maps each wishlisted id to true.
func WishlistStatus(items []domain.WishlistItem) map[int64]bool {
	status := make(map[int64]bool, len(items))
	for _, item := range items {
		status[item.ID] = true
	}
	return status
}

// RatedProduct is a product joined with its review average at read time.
type RatedProduct struct {
	domain.Product
	AverageRating float64 `json:"averageRating"`
}

// JoinRatings attaches the per-product average to each product.
func JoinRatings(products []domain.Product, ratings map[string]float64) []RatedProduct {
	joined := make([]RatedProduct, 0, len(products))
	for _, p := range products {
		joined = append(joined, RatedProduct{Product: p, AverageRating: ratings[p.ID]})
	}
	return joined
}
