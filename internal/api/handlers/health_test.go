package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/5w1tchy/pwcheck-api/internal/api/handlers"
)

func TestHealthz(t *testing.T) {
	up := handlers.PingFunc(func(context.Context) error { return nil })
	down := handlers.PingFunc(func(context.Context) error { return errors.New("refused") })

	rec := httptest.NewRecorder()
	handlers.Healthz(map[string]handlers.Pinger{"db": up, "redis": nil})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"db":"ok"`) {
		t.Fatalf("unexpected healthy response %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "redis") {
		t.Fatalf("nil dependency should be skipped: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handlers.Healthz(map[string]handlers.Pinger{"db": up, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"redis":"down"`) {
		t.Fatalf("unexpected degraded response %d %s", rec.Code, rec.Body.String())
	}
}
