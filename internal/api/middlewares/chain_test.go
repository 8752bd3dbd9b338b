package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"go.uber.org/zap"
)

func TestApply_Order(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("a"), tag("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if got := strings.Join(order, ","); got != "a,b,handler" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestRateLimiters_FailOpenWithoutRedis(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	tb := mw.NewRedisTokenBucket(nil, zap.NewNop(), 5, 10, mw.PerIPKey("tb"))
	sw := mw.NewRedisSlidingWindow(nil, zap.NewNop(), 10, 0, mw.PerIPKey("sw"))
	h := mw.Apply(ok, tb.Middleware, sw.Middleware, mw.SessionIssueLimit(nil, zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestPerSessionKey(t *testing.T) {
	key := mw.PerSessionKey("an")
	req := httptest.NewRequest("POST", "/analyze", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := key(req); got != "an:10.0.0.1" {
		t.Fatalf("unexpected ip key %q", got)
	}
	req = req.WithContext(mw.WithSessionID(req.Context(), "abc"))
	if got := key(req); got != "an:s:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
}

func TestPerIPKey_ProxyHeadersNeedTrust(t *testing.T) {
	key := mw.PerIPKey("tb")
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	t.Setenv("TRUST_PROXY", "")
	if got := key(req); got != "tb:10.0.0.9" {
		t.Fatalf("untrusted proxy header honoured: %q", got)
	}
	t.Setenv("TRUST_PROXY", "true")
	if got := key(req); got != "tb:203.0.113.7" {
		t.Fatalf("trusted proxy header ignored: %q", got)
	}
}
