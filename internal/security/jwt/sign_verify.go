package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Signer struct {
	cfg Config
	now func() time.Time
}

func NewSigner(cfg Config) *Signer {
	return &Signer{cfg: cfg, now: time.Now}
}

// Sign returns a token for sessionID and its expiry.
func (s *Signer) Sign(sessionID string) (string, time.Time, error) {
	jti, err := randJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	claims := newSessionClaims(s.cfg.Issuer, sessionID, jti, s.now(), s.cfg.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok, err := t.SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return tok, claims.ExpiresAt.Time, nil
}

// Parse verifies HS256 signature, issuer and expiry (with leeway).
func (s *Signer) Parse(tokenStr string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithLeeway(s.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(SessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID() == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func randJTI() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
