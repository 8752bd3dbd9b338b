package settings

import (
	"context"
	"net/http"

	"github.com/5w1tchy/pwcheck-api/internal/api/apperr"
	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	settingsstore "github.com/5w1tchy/pwcheck-api/internal/store/settings"
	"github.com/5w1tchy/pwcheck-api/internal/validate"
	"go.uber.org/zap"
)

// Service is the settings provider as the handlers see it.
type Service interface {
	Settings(ctx context.Context, sessionID string) (settingsstore.Settings, error)
	Wordlist(ctx context.Context, sessionID string) (password.Wordlist, error)
	SaveProfile(ctx context.Context, sessionID string, p password.Profile) (settingsstore.Settings, error)
	SetWordlistEnabled(ctx context.Context, sessionID string, enabled bool) (settingsstore.Settings, error)
	ToggleWordlist(ctx context.Context, sessionID string) (settingsstore.Settings, error)
	Reset(ctx context.Context, sessionID string) error
}

type Handler struct {
	Svc Service
	Log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

type WordlistRequest struct {
	Enabled *bool `json:"enabled"`
}

type WordlistResponse struct {
	Enabled bool     `json:"enabled"`
	Count   int      `json:"count"`
	Words   []string `json:"words"`
}

func sessionID(r *http.Request) string {
	sid, _ := middlewares.SessionIDFrom(r.Context())
	return sid
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, title string) {
	middlewares.RequestLogger(h.Log, r).Error(title, zap.Error(err))
	apperr.HandleDBError(w, r, err, title)
}

// GET /settings
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Svc.Settings(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to load settings")
		return
	}
	httpx.OK(w, s)
}

// PUT /settings/profile replaces the whole profile. Omitted, null and blank
// fields end up absent.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		httpx.BadBody(w, err)
		return
	}
	if err := validate.ProfileInput(raw); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_profile", err.Error())
		return
	}
	s, err := h.Svc.SaveProfile(r.Context(), sessionID(r), password.ProfileFromAny(raw))
	if err != nil {
		h.fail(w, r, err, "Failed to save profile")
		return
	}
	httpx.OK(w, s)
}

// PUT /settings/wordlist
func (h *Handler) PutWordlist(w http.ResponseWriter, r *http.Request) {
	var req WordlistRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadBody(w, err)
		return
	}
	if req.Enabled == nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "enabled is required")
		return
	}
	s, err := h.Svc.SetWordlistEnabled(r.Context(), sessionID(r), *req.Enabled)
	if err != nil {
		h.fail(w, r, err, "Failed to update wordlist setting")
		return
	}
	httpx.OK(w, s)
}

// POST /settings/wordlist/toggle
func (h *Handler) ToggleWordlist(w http.ResponseWriter, r *http.Request) {
	s, err := h.Svc.ToggleWordlist(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to toggle wordlist")
		return
	}
	httpx.OK(w, s)
}

// DELETE /settings
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Reset(r.Context(), sessionID(r)); err != nil {
		h.fail(w, r, err, "Failed to reset settings")
		return
	}
	httpx.OKNoData(w)
}

// GET /wordlist
func (h *Handler) Wordlist(w http.ResponseWriter, r *http.Request) {
	wl, err := h.Svc.Wordlist(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err, "Failed to load wordlist")
		return
	}
	httpx.OK(w, WordlistResponse{Enabled: wl.Enabled, Count: wl.Len(), Words: wl.Words()})
}
