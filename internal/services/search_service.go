package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

const anonymousSearchKey = "anonymous"

// ProductSource exposes the current catalogue slice.
type ProductSource interface {
	State(ctx context.Context) state.Products
}

// SearchServiceDeps bundles collaborators required to construct a SearchService.
type SearchServiceDeps struct {
	Products ProductSource
	Clock    func() time.Time
	// IdleTTL drops a caller's search state after this long without a write.
	// Defaults to persistence.TokenTTL.
	IdleTTL time.Duration
}

type searchEntry struct {
	search  state.Search
	touched time.Time
}

type searchService struct {
	products ProductSource
	now      func() time.Time
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]searchEntry
}

// NewSearchService wires dependencies into a SearchService implementation.
func NewSearchService(deps SearchServiceDeps) (SearchService, error) {
	if deps.Products == nil {
		return nil, errors.New("search service: product source is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idleTTL := deps.IdleTTL
	if idleTTL <= 0 {
		idleTTL = persistence.TokenTTL
	}
	return &searchService{
		products: deps.Products,
		now:      clock,
		idleTTL:  idleTTL,
		sessions: make(map[string]searchEntry),
	}, nil
}

func (s *searchService) State(_ context.Context, userID string) state.Search {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(searchKey(userID), s.now())
}

// SetTerm stores term and the catalogue titles matching it.
func (s *searchService) SetTerm(ctx context.Context, userID, term string) state.Search {
	term = strings.TrimSpace(term)
	products := s.products.State(ctx).Products
	results := make([]Product, 0)
	if term != "" {
		for _, product := range products {
			if filter.MatchSearch(product.Title, term) {
				results = append(results, product)
			}
		}
	}

	return s.write(searchKey(userID), func(current state.Search) state.Search {
		return state.SetSearchResults(state.SetSearchTerm(current, term), results)
	})
}

func (s *searchService) SetResults(_ context.Context, userID string, results []Product) state.Search {
	return s.write(searchKey(userID), func(current state.Search) state.Search {
		return state.SetSearchResults(current, results)
	})
}

func (s *searchService) Clear(_ context.Context, userID string) state.Search {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, searchKey(userID))
	return state.ClearSearch()
}

func (s *searchService) write(key string, transition func(state.Search) state.Search) state.Search {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIdle(now)
	next := transition(s.current(key, now))
	s.sessions[key] = searchEntry{search: next, touched: now}
	return next
}

// current must be called with mu held.
func (s *searchService) current(key string, now time.Time) state.Search {
	entry, ok := s.sessions[key]
	if !ok || now.Sub(entry.touched) >= s.idleTTL {
		return state.NewSearch()
	}
	return entry.search
}

// evictIdle must be called with mu held.
func (s *searchService) evictIdle(now time.Time) {
	for key, entry := range s.sessions {
		if now.Sub(entry.touched) >= s.idleTTL {
			delete(s.sessions, key)
		}
	}
}

func searchKey(userID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return userID
	}
	return anonymousSearchKey
}
