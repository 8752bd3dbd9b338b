package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
)

// HPPOptions controls query-string hygiene. Bodies are JSON and never touched.
type HPPOptions struct {
	// Allowed query keys survive; every other key is dropped.
	Allowed []string
	// Sensitive keys are refused outright, in any letter case: their values
	// would leak into proxy and access logs.
	Sensitive []string
}

func DefaultHPPOptions() HPPOptions {
	return HPPOptions{
		Allowed:   []string{"limit"},
		Sensitive: []string{"password", "pwd", "pass", "token"},
	}
}

// HPP defends against parameter pollution: repeated allowed keys collapse to
// their first value and unknown keys are stripped.
func HPP(opts HPPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery == "" {
				next.ServeHTTP(w, r)
				return
			}
			query := r.URL.Query()
			for k, v := range query {
				if slices.ContainsFunc(opts.Sensitive, func(s string) bool { return strings.EqualFold(s, k) }) {
					httpx.ErrorCode(w, http.StatusBadRequest, "sensitive_query",
						"'"+k+"' must be sent in the request body, never in the URL")
					return
				}
				if !slices.Contains(opts.Allowed, k) {
					query.Del(k)
					continue
				}
				if len(v) > 1 {
					query.Set(k, v[0])
				}
			}
			r.URL.RawQuery = query.Encode()
			next.ServeHTTP(w, r)
		})
	}
}
