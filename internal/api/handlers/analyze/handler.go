package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/apperr"
	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/history"
	"go.uber.org/zap"
)

// ConfigSource yields the analysis configuration of a session.
type ConfigSource interface {
	Config(ctx context.Context, sessionID string) (password.Config, error)
}

// Recorder takes history entries without blocking.
type Recorder interface {
	Enqueue(e history.Entry) bool
}

// Observer sees every result.
type Observer interface {
	Observe(res password.Result)
}

type Handler struct {
	Configs ConfigSource
	History Recorder // optional
	Metrics Observer // optional
	Log     *zap.Logger
	Now     func() time.Time
}

func NewHandler(configs ConfigSource, rec Recorder, obs Observer, log *zap.Logger) *Handler {
	return &Handler{Configs: configs, History: rec, Metrics: obs, Log: log, Now: time.Now}
}

type Request struct {
	Password string `json:"password"`
}

type Response struct {
	password.Result
	Strength string `json:"strength"`
}

// POST /analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadBody(w, err)
		return
	}
	switch err := password.CheckInput(req.Password); {
	case errors.Is(err, password.ErrEmpty):
		httpx.ErrorCode(w, http.StatusBadRequest, "empty_password", "password is required")
		return
	case errors.Is(err, password.ErrTooLong):
		httpx.ErrorCode(w, http.StatusBadRequest, "password_too_long", fmt.Sprintf("password must be at most %d characters", password.MaxLen))
		return
	}

	sid, _ := middlewares.SessionIDFrom(r.Context())
	cfg, err := h.Configs.Config(r.Context(), sid)
	if err != nil {
		middlewares.RequestLogger(h.Log, r).Error("load settings failed", zap.Error(err))
		apperr.HandleDBError(w, r, err, "Failed to load settings")
		return
	}

	res := password.Analyze(req.Password, cfg)

	if h.Metrics != nil {
		h.Metrics.Observe(res)
	}
	if h.History != nil && !h.History.Enqueue(history.NewEntry(sid, res, h.Now())) {
		middlewares.RequestLogger(h.Log, r).Debug("history entry dropped")
	}

	httpx.OK(w, Response{Result: res, Strength: res.Strength()})
}
