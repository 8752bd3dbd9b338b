package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	jwtutil "github.com/5w1tchy/pwcheck-api/internal/security/jwt"
)

// SessionVerifier validates a session token.
type SessionVerifier interface {
	Parse(token string) (*jwtutil.SessionClaims, error)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeySessionID).(string)
	return v, ok && v != ""
}

// RequireSession verifies the Bearer session token and injects the session id into context.
func RequireSession(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing Authorization header")
				return
			}
			tokenStr, err := bearer(raw)
			if err != nil {
				httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "invalid Authorization header")
				return
			}
			claims, err := v.Parse(tokenStr)
			if err != nil {
				httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_token", "invalid or expired session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), claims.SessionID())))
		})
	}
}

func bearer(h string) (string, error) {
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", errors.New("no bearer")
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", errors.New("empty bearer")
	}
	return tok, nil
}
