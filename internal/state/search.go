package state

import "github.com/hanko-field/storefront/internal/domain"

// Search is the free-text search slice.
type Search struct {
	Term    string           `json:"searchTerm"`
	Results []domain.Product `json:"searchResults"`
}

// NewSearch returns the empty search slice.
func NewSearch() Search {
	return Search{Results: []domain.Product{}}
}

func SetSearchTerm(s Search, term string) Search {
	s.Term = term
	return s
}

func SetSearchResults(s Search, results []domain.Product) Search {
	s.Results = cloneProducts(results)
	return s
}

// ClearSearch resets both the term and the results.
func ClearSearch() Search {
	return NewSearch()
}
