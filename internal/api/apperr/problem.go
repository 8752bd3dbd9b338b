// Package apperr renders storage failures as RFC 7807 problem documents.
package apperr

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// FieldError points a failure at one request or column name.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"` // unique, not_null, fk, check, invalid, too_long
	Message string `json:"message"`
}

// Problem is an RFC 7807 body. It also satisfies error so stores can return one as is.
type Problem struct {
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Instance    string       `json:"instance,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Retryable   bool         `json:"retryable,omitempty"`
}

func (p Problem) Error() string {
	if p.Detail != "" {
		return strconv.Itoa(p.Status) + " " + p.Title + ": " + p.Detail
	}
	return strconv.Itoa(p.Status) + " " + p.Title
}

// Write fills in the defaults from r and sends p. Retryable problems carry a
// short Retry-After.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if r != nil {
		if p.Instance == "" {
			p.Instance = r.URL.Path
		}
		if p.RequestID == "" {
			p.RequestID = r.Header.Get("X-Request-ID")
		}
	}
	if p.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
