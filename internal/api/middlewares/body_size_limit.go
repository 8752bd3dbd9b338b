package middlewares

import (
	"net/http"
	"os"
	"strconv"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
)

// DefaultMaxBodyBytes fits a password plus a generous profile.
const DefaultMaxBodyBytes int64 = 64 << 10

// MaxBodyBytes reads MAX_BODY_SIZE, falling back to DefaultMaxBodyBytes.
func MaxBodyBytes() int64 {
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxBodyBytes
}

// BodySizeLimit caps request bodies at limit bytes. A declared Content-Length over
// the cap is refused up front; otherwise the reader fails once the cap is crossed.
func BodySizeLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				httpx.ErrorCode(w, http.StatusRequestEntityTooLarge, "payload_too_large",
					"request body must be at most "+strconv.FormatInt(limit, 10)+" bytes")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
