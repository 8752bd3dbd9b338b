package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500. The panic value and stack go to the
// log only.
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				RequestLogger(log, r).Error("panic recovered",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				httpx.ErrorCode(w, http.StatusInternalServerError, "internal", "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
