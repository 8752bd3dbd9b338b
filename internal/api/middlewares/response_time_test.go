package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mw "github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResponseTime(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"explicit header": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) },
		"implicit header": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
		"nothing written": func(w http.ResponseWriter, r *http.Request) {},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mw.ResponseTime(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
			_, err := time.ParseDuration(rec.Header().Get("X-Response-Time"))
			assert.NoError(t, err)
		})
	}
}

type fakeObserver struct {
	route  string
	status int
}

func (f *fakeObserver) ObserveRequest(route string, status int, _ time.Duration) {
	f.route, f.status = route, status
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := &fakeObserver{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("12345"))
	})
	h := mw.Apply(mux, mw.RequestID, mw.AccessLog(zap.New(core), obs))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/history?limit=3", nil))

	assert.Equal(t, "GET /history", obs.route)
	assert.Equal(t, http.StatusTeapot, obs.status)

	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "GET /history", fields["route"])
		assert.EqualValues(t, http.StatusTeapot, fields["status"])
		assert.EqualValues(t, 5, fields["bytes"])
		assert.NotEmpty(t, fields["request_id"])
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, "unmatched", obs.route)
	assert.Equal(t, http.StatusNotFound, obs.status)
}
