package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RequestObserver receives one sample per finished request. route is the matched
// mux pattern, so label cardinality stays bounded.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// statusRecorder stamps X-Response-Time just before the header goes out and
// remembers what was sent.
type statusRecorder struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
	status      int
	bytes       int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.Header().Set("X-Response-Time", time.Since(w.start).String())
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// ResponseTime sets X-Response-Time on every response.
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newStatusRecorder(w)
		next.ServeHTTP(rw, r)
		if !rw.wroteHeader {
			rw.WriteHeader(http.StatusOK)
		}
	})
}

// AccessLog writes one line per request and feeds obs when it is non-nil.
// Bodies are never logged: they carry passwords.
func AccessLog(log *zap.Logger, obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)
			elapsed := time.Since(rw.start)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if obs != nil {
				obs.ObserveRequest(route, rw.status, elapsed)
			}
			RequestLogger(log, r).Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Int("bytes", rw.bytes),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}
