package history

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/apperr"
	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	historystore "github.com/5w1tchy/pwcheck-api/internal/store/history"
	"github.com/5w1tchy/pwcheck-api/internal/validate"
	"go.uber.org/zap"
)

type Store interface {
	List(ctx context.Context, sessionID string, limit int) ([]historystore.Entry, error)
	Clear(ctx context.Context, sessionID string) (int64, error)
}

// Pending writes out a session's queued history before it is cleared.
type Pending interface {
	Flush(ctx context.Context, sessionID string) error
}

const flushTimeout = 2 * time.Second

type Handler struct {
	Sto     Store
	Pending Pending
	Log     *zap.Logger
}

// NewHandler wires the history endpoints. pending may be nil.
func NewHandler(sto Store, pending Pending, log *zap.Logger) *Handler {
	return &Handler{Sto: sto, Pending: pending, Log: log}
}

// GET /history?limit=N (default 10, max 50)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sid, _ := middlewares.SessionIDFrom(r.Context())
	limit := validate.ParseLimit(r.URL.Query().Get("limit"), historystore.DefaultLimit, historystore.MaxLimit)

	entries, err := h.Sto.List(r.Context(), sid, limit)
	if err != nil {
		middlewares.RequestLogger(h.Log, r).Error("list history failed", zap.Error(err))
		apperr.HandleDBError(w, r, err, "Failed to list history")
		return
	}
	httpx.OK(w, map[string]any{"entries": entries, "limit": limit})
}

// DELETE /history
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sid, _ := middlewares.SessionIDFrom(r.Context())
	if h.Pending != nil {
		ctx, cancel := context.WithTimeout(r.Context(), flushTimeout)
		if err := h.Pending.Flush(ctx, sid); err != nil {
			middlewares.RequestLogger(h.Log, r).Warn("queued history not flushed before clear", zap.Error(err))
		}
		cancel()
	}
	n, err := h.Sto.Clear(r.Context(), sid)
	if err != nil {
		middlewares.RequestLogger(h.Log, r).Error("clear history failed", zap.Error(err))
		apperr.HandleDBError(w, r, err, "Failed to clear history")
		return
	}
	httpx.OK(w, map[string]int64{"deleted": n})
}
