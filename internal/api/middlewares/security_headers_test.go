package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
)

func serveWithHeaders(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	mw.SecurityHeaders(handler).ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestSecurityHeaders(t *testing.T) {
	rec := serveWithHeaders(t, "/analyze")

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Cache-Control", "no-store"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: expected %q, got %q", tt.header, tt.expected, got)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
	if rec.Header().Get("Cross-Origin-Opener-Policy") != "" {
		t.Error("COOP is only sent with STRICT_SECURITY=1")
	}
}

func TestSecurityHeaders_HSTS_OverHTTPS(t *testing.T) {
	// httptest sets r.TLS for https targets.
	rec := serveWithHeaders(t, "https://example.com/analyze")
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS over TLS")
	}
}

func TestSecurityHeaders_Strict(t *testing.T) {
	t.Setenv("STRICT_SECURITY", "1")
	rec := serveWithHeaders(t, "/analyze")
	if got := rec.Header().Get("Cross-Origin-Opener-Policy"); got != "same-origin" {
		t.Errorf("expected COOP same-origin, got %q", got)
	}
}
