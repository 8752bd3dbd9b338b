package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/handlers"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/analyze"
	historyh "github.com/5w1tchy/pwcheck-api/internal/api/handlers/history"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/session"
	settingsh "github.com/5w1tchy/pwcheck-api/internal/api/handlers/settings"
	"github.com/5w1tchy/pwcheck-api/internal/api/router"
	jwtutil "github.com/5w1tchy/pwcheck-api/internal/security/jwt"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/history"
	"github.com/5w1tchy/pwcheck-api/internal/store/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type emptyBackend struct{}

func (emptyBackend) Get(context.Context, string) (settings.Settings, error) {
	return settings.Settings{}, settings.ErrNotFound
}
func (emptyBackend) SaveProfile(context.Context, string, password.Profile) error { return nil }
func (emptyBackend) SetWordlistEnabled(context.Context, string, bool) error      { return nil }
func (emptyBackend) ToggleWordlist(context.Context, string) (bool, error)        { return true, nil }
func (emptyBackend) Delete(context.Context, string) error                        { return nil }

type emptyHistory struct{}

func (emptyHistory) List(context.Context, string, int) ([]history.Entry, error) { return nil, nil }
func (emptyHistory) Clear(context.Context, string) (int64, error)               { return 0, nil }

func newRouter() http.Handler {
	log := zap.NewNop()
	signer := jwtutil.NewSigner(jwtutil.Config{
		Secret: []byte(strings.Repeat("k", 32)),
		TTL:    time.Hour,
		Issuer: "pwcheck-api",
	})
	provider := settings.NewProvider(emptyBackend{}, nil, password.DefaultWordlist(), log)
	return router.Router(router.Deps{
		Sessions: session.NewHandler(signer, log),
		Analyze:  analyze.NewHandler(provider, nil, nil, log),
		Settings: settingsh.NewHandler(provider, log),
		History:  historyh.NewHandler(emptyHistory{}, nil, log),
		Health:   handlers.Healthz(nil),
		Verifier: signer,
	})
}

func TestRouter_SessionFlow(t *testing.T) {
	r := newRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data session.Response `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"password":"Tr0ub4dor&9"}`))
	req.Header.Set("Authorization", "Bearer "+created.Data.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var analyzed struct {
		Data analyze.Response `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&analyzed))
	assert.Equal(t, 60, analyzed.Data.Score)
	assert.Equal(t, "803 centuries", analyzed.Data.CrackTime)
	assert.Equal(t, "good", analyzed.Data.Strength)
}

func TestRouter_Gates(t *testing.T) {
	r := newRouter()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/analyze"},
		{http.MethodGet, "/settings"},
		{http.MethodPut, "/settings/profile"},
		{http.MethodGet, "/wordlist"},
		{http.MethodGet, "/history"},
		{http.MethodDelete, "/history"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
