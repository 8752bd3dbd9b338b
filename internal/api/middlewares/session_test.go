package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	jwtutil "github.com/5w1tchy/pwcheck-api/internal/security/jwt"
	"github.com/golang-jwt/jwt/v5"
)

type fakeVerifier struct{}

func (fakeVerifier) Parse(tok string) (*jwtutil.SessionClaims, error) {
	if tok != "good" {
		return nil, errors.New("bad token")
	}
	return &jwtutil.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sess-42"}}, nil
}

func TestRequireSession(t *testing.T) {
	var seen string
	h := mw.RequireSession(fakeVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = mw.SessionIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"good", "Bearer good", http.StatusNoContent},
		{"lowercase scheme", "bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("GET", "/settings", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusNoContent && seen != "sess-42" {
				t.Fatalf("expected session id in context, got %q", seen)
			}
		})
	}
}
