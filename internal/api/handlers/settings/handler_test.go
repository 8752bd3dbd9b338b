package settings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/5w1tchy/pwcheck-api/internal/api/handlers/settings"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBackend keeps settings in memory.
type memBackend struct{ rows map[string]settings.Settings }

func (m *memBackend) Get(_ context.Context, sid string) (settings.Settings, error) {
	s, ok := m.rows[sid]
	if !ok {
		return settings.Settings{}, settings.ErrNotFound
	}
	return s, nil
}

func (m *memBackend) upsert(sid string, fn func(*settings.Settings)) {
	s, ok := m.rows[sid]
	if !ok {
		s = settings.Defaults(sid)
	}
	fn(&s)
	m.rows[sid] = s
}

func (m *memBackend) SaveProfile(_ context.Context, sid string, p password.Profile) error {
	m.upsert(sid, func(s *settings.Settings) { s.Profile = p })
	return nil
}

func (m *memBackend) SetWordlistEnabled(_ context.Context, sid string, on bool) error {
	m.upsert(sid, func(s *settings.Settings) { s.WordlistEnabled = on })
	return nil
}

func (m *memBackend) ToggleWordlist(_ context.Context, sid string) (bool, error) {
	m.upsert(sid, func(s *settings.Settings) { s.WordlistEnabled = !s.WordlistEnabled })
	return m.rows[sid].WordlistEnabled, nil
}

func (m *memBackend) Delete(_ context.Context, sid string) error {
	delete(m.rows, sid)
	return nil
}

func newHandler() *handler.Handler {
	be := &memBackend{rows: map[string]settings.Settings{}}
	seed := password.NewWordlist([]string{"password", "dragon"}, false)
	return handler.NewHandler(settings.NewProvider(be, nil, seed, zap.NewNop()), zap.NewNop())
}

func do(fn http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middlewares.WithSessionID(req.Context(), "s-1"))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func data[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Data
}

func TestSettings_DefaultsThenProfile(t *testing.T) {
	h := newHandler()

	rec := do(h.Get, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s := data[settings.Settings](t, rec)
	assert.Equal(t, "s-1", s.SessionID)
	assert.True(t, s.Profile.IsEmpty())
	assert.False(t, s.WordlistEnabled)

	rec = do(h.PutProfile, http.MethodPut, "/settings/profile",
		`{"name":" Nino ","nickname":"","birthDate":19900101,"petName":null,"city":"Batumi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	s = data[settings.Settings](t, rec)
	assert.Equal(t, map[string]string{"name": "Nino", "birthDate": "19900101", "city": "Batumi"}, s.Profile.Map())
}

func TestSettings_ProfileValidation(t *testing.T) {
	h := newHandler()

	rec := do(h.PutProfile, http.MethodPut, "/settings/profile", `{"bad key":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_profile")

	rec = do(h.PutProfile, http.MethodPut, "/settings/profile", `{"name":{"first":"x"},"pets":["a"],"city":"Batumi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"city": "Batumi"}, data[settings.Settings](t, rec).Profile.Map())

	rec = do(h.PutProfile, http.MethodPut, "/settings/profile", `["not","an","object"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings_Wordlist(t *testing.T) {
	h := newHandler()

	rec := do(h.PutWordlist, http.MethodPut, "/settings/wordlist", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.PutWordlist, http.MethodPut, "/settings/wordlist", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, data[settings.Settings](t, rec).WordlistEnabled)

	rec = do(h.ToggleWordlist, http.MethodPost, "/settings/wordlist/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, data[settings.Settings](t, rec).WordlistEnabled)

	rec = do(h.Wordlist, http.MethodGet, "/wordlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	wl := data[handler.WordlistResponse](t, rec)
	assert.Equal(t, handler.WordlistResponse{Enabled: false, Count: 2, Words: []string{"password", "dragon"}}, wl)
}

func TestSettings_Reset(t *testing.T) {
	h := newHandler()
	do(h.PutWordlist, http.MethodPut, "/settings/wordlist", `{"enabled":true}`)

	rec := do(h.Reset, http.MethodDelete, "/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h.Get, http.MethodGet, "/settings", "")
	assert.False(t, data[settings.Settings](t, rec).WordlistEnabled)
}
