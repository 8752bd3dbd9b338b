package router

import (
	"net/http"

	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/analyze"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/history"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/session"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/settings"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
)

// Deps are the handlers and gates the router mounts.
type Deps struct {
	Sessions *session.Handler
	Analyze  *analyze.Handler
	Settings *settings.Handler
	History  *history.Handler
	Health   http.Handler
	Metrics  http.Handler // optional

	Verifier middlewares.SessionVerifier

	// Extra per-route gates; nil means none.
	SessionIssueGate func(http.Handler) http.Handler
	AnalyzeGate      func(http.Handler) http.Handler
}

func Router(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Session-scoped routes share one gate: token first, then any route limiter.
	authed := func(h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		mws := []func(http.Handler) http.Handler{middlewares.RequireSession(d.Verifier)}
		for _, m := range extra {
			if m != nil {
				mws = append(mws, m)
			}
		}
		return middlewares.Apply(h, mws...)
	}

	// Public
	mux.Handle("GET /healthz", d.Health)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}
	if d.SessionIssueGate != nil {
		mux.Handle("POST /sessions", d.SessionIssueGate(http.HandlerFunc(d.Sessions.Create)))
	} else {
		mux.HandleFunc("POST /sessions", d.Sessions.Create)
	}

	// Analysis
	mux.Handle("POST /analyze", authed(d.Analyze.Analyze, d.AnalyzeGate))

	// Settings
	mux.Handle("GET /settings", authed(d.Settings.Get))
	mux.Handle("DELETE /settings", authed(d.Settings.Reset))
	mux.Handle("PUT /settings/profile", authed(d.Settings.PutProfile))
	mux.Handle("PUT /settings/wordlist", authed(d.Settings.PutWordlist))
	mux.Handle("POST /settings/wordlist/toggle", authed(d.Settings.ToggleWordlist))
	mux.Handle("GET /wordlist", authed(d.Settings.Wordlist))

	// History
	mux.Handle("GET /history", authed(d.History.List))
	mux.Handle("DELETE /history", authed(d.History.Clear))

	return mux
}
