package services

import (
	"context"
	"testing"
	"time"

	"github.com/hanko-field/storefront/internal/state"
)

type staticProducts []Product

func (s staticProducts) State(context.Context) state.Products {
	p := state.NewProducts()
	return state.FetchSucceeded(p, s)
}

func TestSearchServiceSetTermMatchesTitles(t *testing.T) {
	svc, err := NewSearchService(SearchServiceDeps{Products: staticProducts(sampleProducts())})
	if err != nil {
		t.Fatalf("new search service: %v", err)
	}
	ctx := context.Background()

	got := svc.SetTerm(ctx, "u1", "  BACKPACK ")
	if got.Term != "BACKPACK" {
		t.Fatalf("expected trimmed term, got %q", got.Term)
	}
	if len(got.Results) != 1 || got.Results[0].ID != "1" {
		t.Fatalf("unexpected results %+v", got.Results)
	}
	if other := svc.State(ctx, "u2"); other.Term != "" || len(other.Results) != 0 {
		t.Fatalf("search state leaked across users: %+v", other)
	}

	cleared := svc.Clear(ctx, "u1")
	if cleared.Term != "" || len(cleared.Results) != 0 {
		t.Fatalf("expected cleared search, got %+v", cleared)
	}
	if after := svc.State(ctx, "u1"); after.Term != "" {
		t.Fatalf("expected empty state after clear, got %+v", after)
	}
}

func TestSearchServiceSetResultsKeepsTerm(t *testing.T) {
	svc, _ := NewSearchService(SearchServiceDeps{Products: staticProducts(nil)})
	ctx := context.Background()

	svc.SetTerm(ctx, "", "shirt")
	got := svc.SetResults(ctx, "", []Product{{ID: "2", Title: "Slim Fit T-Shirt"}})
	if got.Term != "shirt" || len(got.Results) != 1 {
		t.Fatalf("unexpected search state %+v", got)
	}
}

func TestSearchServiceDropsIdleState(t *testing.T) {
	now := testNow
	svc, err := NewSearchService(SearchServiceDeps{
		Products: staticProducts(sampleProducts()),
		Clock:    func() time.Time { return now },
		IdleTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("new search service: %v", err)
	}
	ctx := context.Background()

	svc.SetTerm(ctx, "u1", "gold")
	now = now.Add(30 * time.Minute)
	if got := svc.State(ctx, "u1"); got.Term != "gold" {
		t.Fatalf("expected state within the idle window, got %+v", got)
	}

	now = now.Add(time.Hour)
	if got := svc.State(ctx, "u1"); got.Term != "" || len(got.Results) != 0 {
		t.Fatalf("expected idle state to expire, got %+v", got)
	}

	svc.SetTerm(ctx, "u2", "shirt")
	impl := svc.(*searchService)
	impl.mu.Lock()
	_, kept := impl.sessions["u1"]
	size := len(impl.sessions)
	impl.mu.Unlock()
	if kept || size != 1 {
		t.Fatalf("expected idle entries to be evicted on write, kept=%v size=%d", kept, size)
	}
}
