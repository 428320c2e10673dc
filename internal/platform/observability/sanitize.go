package observability

import (
	"strings"
	"unicode"
)

// Rune limits for request attributes written to logs and spans.
const (
	routeLogLimit  = 180
	methodLogLimit = 10
	idLogLimit     = 64
	addrLogLimit   = 64
)

// logSafe strips control runes from value and keeps at most limit runes.
func logSafe(value string, limit int) string {
	var b strings.Builder
	kept := 0
	for _, r := range value {
		if kept == limit {
			break
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		kept++
	}
	return b.String()
}

// SanitizeRoute returns the route pattern as logged; an empty pattern logs as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return logSafe(route, routeLogLimit)
}

// SanitizeMethod returns the upper-cased request method as logged.
func SanitizeMethod(method string) string {
	return strings.ToUpper(logSafe(method, methodLogLimit))
}

// SanitizeUserID returns the storefront user id as logged.
func SanitizeUserID(uid string) string {
	return logSafe(uid, idLogLimit)
}
