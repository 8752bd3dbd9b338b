package session

import (
	"net/http"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Issuer signs a session token for a session id.
type Issuer interface {
	Sign(sessionID string) (string, time.Time, error)
}

type Handler struct {
	Tokens Issuer
	Log    *zap.Logger
}

func NewHandler(tokens Issuer, log *zap.Logger) *Handler {
	return &Handler{Tokens: tokens, Log: log}
}

type Response struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /sessions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sid := uuid.NewString()
	tok, exp, err := h.Tokens.Sign(sid)
	if err != nil {
		h.Log.Error("session sign failed", zap.Error(err))
		httpx.ErrorCode(w, http.StatusInternalServerError, "session_error", "could not open a session")
		return
	}
	httpx.Created(w, Response{Token: tok, SessionID: sid, ExpiresAt: exp.UTC()})
}
