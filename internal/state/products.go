package state

import (
	"strings"

	"github.com/hanko-field/storefront/internal/domain"
)

// Products is the shared catalogue slice plus the bound admin's product history.
type Products struct {
	Products       []domain.Product `json:"products"`
	FilterProducts []domain.Product `json:"filterProducts"`
	AdminHistory   []domain.Product `json:"adminHistory"`
	UserID         string           `json:"userId"`
	Status         domain.Status    `json:"status"`
	Error          string           `json:"error"`
}

// NewProducts returns the idle, empty slice.
func NewProducts() Products {
	return Products{
		Products:       []domain.Product{},
		FilterProducts: []domain.Product{},
		AdminHistory:   []domain.Product{},
		Status:         domain.StatusIdle,
	}
}

// FetchPending marks a catalogue call as in flight.
func FetchPending(p Products) Products {
	p.Status = domain.StatusPending
	p.Error = ""
	return p
}

// FetchSucceeded replaces both the canonical and the filter-candidate lists.
func FetchSucceeded(p Products, products []domain.Product) Products {
	p.Products = cloneProducts(products)
	p.FilterProducts = cloneProducts(products)
	p.Status = domain.StatusSucceeded
	p.Error = ""
	return p
}

// FetchFailed records message and leaves the lists untouched.
func FetchFailed(p Products, message string) Products {
	p.Status = domain.StatusFailed
	p.Error = message
	return p
}

// ProductAdded appends the product confirmed by the remote API.
func ProductAdded(p Products, product domain.Product) Products {
	p.Products = append(cloneProducts(p.Products), product)
	p.Status = domain.StatusSucceeded
	p.Error = ""
	return p
}

// ProductDeleted removes productID from the canonical list after remote confirmation.
// The filter-candidate list is left as it was.
func ProductDeleted(p Products, productID string) Products {
	p.Products = withoutProduct(p.Products, productID)
	p.Status = domain.StatusSucceeded
	p.Error = ""
	return p
}

// SetFilterProducts replaces the filter-candidate list.
func SetFilterProducts(p Products, products []domain.Product) Products {
	p.FilterProducts = cloneProducts(products)
	return p
}

// ResetFilter restores the filter-candidate list to the canonical list.
func ResetFilter(p Products) Products {
	p.FilterProducts = cloneProducts(p.Products)
	return p
}

// BindHistory attaches userID and its persisted admin history.
func BindHistory(p Products, userID string, history []domain.Product) Products {
	p.UserID = strings.TrimSpace(userID)
	if p.UserID == "" {
		p.AdminHistory = []domain.Product{}
		return p
	}
	p.AdminHistory = cloneProducts(history)
	return p
}

// AddToHistory appends product to the admin history. It is only persisted when a user is bound.
func AddToHistory(p Products, product domain.Product) (Products, []Effect) {
	p.AdminHistory = append(cloneProducts(p.AdminHistory), product)
	if p.UserID == "" {
		return p, nil
	}
	return p, []Effect{save(historyKey(p.UserID), p.AdminHistory)}
}

// RemoveFromHistory drops every history entry with productID.
func RemoveFromHistory(p Products, productID string) (Products, []Effect) {
	if p.UserID == "" {
		return p, nil
	}
	p.AdminHistory = withoutProduct(p.AdminHistory, productID)
	return p, []Effect{save(historyKey(p.UserID), p.AdminHistory)}
}

// ClearHistory empties the admin history.
func ClearHistory(p Products) (Products, []Effect) {
	if p.UserID == "" {
		return p, nil
	}
	p.AdminHistory = []domain.Product{}
	return p, []Effect{save(historyKey(p.UserID), p.AdminHistory)}
}

func withoutProduct(products []domain.Product, productID string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if product.ID != productID {
			out = append(out, product)
		}
	}
	return out
}

func cloneProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
