package observability

import (
	"strings"
	"testing"
)

func TestSanitizeHelpers(t *testing.T) {
	if got := SanitizeRoute(""); got != "/" {
		t.Fatalf("expected / for an empty route, got %q", got)
	}
	if got := SanitizeRoute("/api/v1/cart\n/items"); got != "/api/v1/cart/items" {
		t.Fatalf("expected control runes stripped, got %q", got)
	}
	if got := SanitizeMethod("post\r"); got != "POST" {
		t.Fatalf("expected POST, got %q", got)
	}
	long := strings.Repeat("é", idLogLimit+10)
	if got := SanitizeUserID(long); len([]rune(got)) != idLogLimit {
		t.Fatalf("expected %d runes, got %d", idLogLimit, len([]rune(got)))
	}
}
