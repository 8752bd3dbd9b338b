package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionAudience scopes tokens to the analysis API so they are useless elsewhere
// even if the secret is shared.
const SessionAudience = "pwcheck-session"

// SessionClaims identify an anonymous analysis session; Subject is the session id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID is the opaque id every per-session record is keyed by.
func (c *SessionClaims) SessionID() string { return c.Subject }

func newSessionClaims(issuer, sessionID, jti string, now time.Time, ttl time.Duration) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{SessionAudience},
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
