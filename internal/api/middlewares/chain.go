package middlewares

import "net/http"

// Apply wraps h so that the first middleware listed runs first.
func Apply(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
