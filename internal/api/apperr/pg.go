package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names of the settings and history tables, mapped to API fields.
var constraintField = map[string]string{
	"session_settings_pkey":                 "session_id",
	"session_settings_profile_check":        "profile",
	"analysis_history_score_check":          "score",
	"analysis_history_weakness_count_check": "weakness_count",
}

var detailColumns = []string{"session_id", "wordlist_enabled", "weakness_count", "crack_time", "profile", "score"}

// pgRule describes how one SQLSTATE surfaces to clients.
type pgRule struct {
	status    int
	title     string
	code      string // field error code; empty means no field error
	message   string
	fallback  string // field used when nothing better is known
	retryable bool
}

var pgRules = map[string]pgRule{
	"23505": {http.StatusConflict, "Conflict", "unique", "value already exists", "resource", false},
	"23503": {http.StatusConflict, "Conflict", "fk", "resource is referenced by other records", "resource", false},
	"23502": {http.StatusBadRequest, "Bad Request", "not_null", "required field is missing", "field", false},
	"23514": {http.StatusUnprocessableEntity, "Unprocessable Entity", "check", "constraint failed", "field", false},
	"22P02": {http.StatusBadRequest, "Bad Request", "invalid", "invalid format", "session_id", false},
	"22001": {http.StatusBadRequest, "Bad Request", "too_long", "value is too long", "field", false},
	"40001": {http.StatusConflict, "Conflict", "", "transaction conflict, please retry", "", true},
	"40P01": {http.StatusConflict, "Conflict", "", "deadlock detected, please retry", "", true},
}

func fieldFor(pg *pgconn.PgError) string {
	if f, ok := constraintField[pg.ConstraintName]; ok {
		return f
	}
	if pg.ColumnName != "" {
		return pg.ColumnName
	}
	for _, c := range detailColumns {
		if strings.Contains(pg.Detail, c) {
			return c
		}
	}
	return ""
}

// FromPG maps a *pgconn.PgError to a Problem. Returns (Problem, true) if mapped.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	rule, ok := pgRules[pg.Code]
	if !ok {
		return Problem{Status: http.StatusInternalServerError, Title: "Database error"}, true
	}

	p := Problem{Status: rule.status, Title: rule.title, Retryable: rule.retryable}
	if rule.code == "" {
		p.Detail = rule.message
		return p, true
	}
	field := fieldFor(pg)
	if field == "" {
		field = rule.fallback
	}
	p.FieldErrors = []FieldError{{Field: field, Code: rule.code, Message: rule.message}}
	return p, true
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, r, p)
		return true
	}
	var p Problem
	if errors.As(err, &p) {
		Write(w, r, p)
		return true
	}
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}
