package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Rule limits one method on a path. A Path ending in "/" matches by prefix.
type Rule struct {
	Method string
	Path   string
	Limit  int
	Window time.Duration
	Burst  int
}

// DefaultRules throttles story generation and credential endpoints.
// generatePerMinute <= 0 leaves generation unthrottled.
func DefaultRules(generatePerMinute int) []Rule {
	rules := []Rule{
		{Method: http.MethodPost, Path: "/api/auth/login", Limit: 10, Window: time.Minute, Burst: 5},
		{Method: http.MethodPost, Path: "/api/auth/register", Limit: 5, Window: time.Minute, Burst: 2},
		{Method: http.MethodPut, Path: "/api/auth/password", Limit: 5, Window: time.Minute, Burst: 2},
	}
	if generatePerMinute > 0 {
		rules = append(rules, Rule{
			Method: http.MethodPost,
			Path:   "/api/star-stories/generate",
			Limit:  generatePerMinute,
			Window: time.Minute,
			Burst:  max(1, generatePerMinute/4),
		})
	}
	return rules
}

// match returns the rule for a request, preferring exact paths over prefixes.
func match(rules []Rule, method, path string) (Rule, bool) {
	for _, r := range rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	for _, r := range rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r, true
		}
	}
	return Rule{}, false
}
