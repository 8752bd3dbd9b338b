package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/dbx"
)

// ErrNotFound is returned by Store.Get when a session has never saved settings.
var ErrNotFound = errors.New("settings: not found")

// Settings is the persisted analysis configuration of one session.
type Settings struct {
	SessionID       string           `json:"session_id"`
	Profile         password.Profile `json:"profile"`
	WordlistEnabled bool             `json:"wordlist_enabled"`
	UpdatedAt       time.Time        `json:"updated_at,omitzero"`
}

// Defaults is what a session without a stored row analyses with.
func Defaults(sessionID string) Settings {
	return Settings{SessionID: sessionID}
}

// Backend is the persistence contract the Provider reads through.
type Backend interface {
	Get(ctx context.Context, sessionID string) (Settings, error)
	SaveProfile(ctx context.Context, sessionID string, p password.Profile) error
	SetWordlistEnabled(ctx context.Context, sessionID string, enabled bool) error
	ToggleWordlist(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const (
	qGet = `SELECT profile, wordlist_enabled, updated_at FROM session_settings WHERE session_id = $1`

	qSaveProfile = `INSERT INTO session_settings (session_id, profile) VALUES ($1, $2)
ON CONFLICT (session_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`

	qSetWordlist = `INSERT INTO session_settings (session_id, wordlist_enabled) VALUES ($1, $2)
ON CONFLICT (session_id) DO UPDATE SET wordlist_enabled = EXCLUDED.wordlist_enabled, updated_at = now()`

	// A fresh row starts disabled, so its first toggle lands on enabled.
	qToggleWordlist = `INSERT INTO session_settings (session_id, wordlist_enabled) VALUES ($1, TRUE)
ON CONFLICT (session_id) DO UPDATE SET wordlist_enabled = NOT session_settings.wordlist_enabled, updated_at = now()
RETURNING wordlist_enabled`

	qDelete = `DELETE FROM session_settings WHERE session_id = $1`
)

func (s *Store) Get(ctx context.Context, sessionID string) (Settings, error) {
	var (
		raw []byte
		out = Settings{SessionID: sessionID}
	)
	err := dbx.Get(ctx, s.db, qGet, sessionID).Scan(&raw, &out.WordlistEnabled, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Profile); err != nil {
			return Settings{}, fmt.Errorf("decode profile: %w", err)
		}
	}
	return out, nil
}

func (s *Store) SaveProfile(ctx context.Context, sessionID string, p password.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if _, err := dbx.Exec(ctx, s.db, qSaveProfile, sessionID, raw); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) SetWordlistEnabled(ctx context.Context, sessionID string, enabled bool) error {
	if _, err := dbx.Exec(ctx, s.db, qSetWordlist, sessionID, enabled); err != nil {
		return fmt.Errorf("set wordlist: %w", err)
	}
	return nil
}

// ToggleWordlist flips the flag and returns its new value.
func (s *Store) ToggleWordlist(ctx context.Context, sessionID string) (bool, error) {
	var enabled bool
	if err := dbx.Get(ctx, s.db, qToggleWordlist, sessionID).Scan(&enabled); err != nil {
		return false, fmt.Errorf("toggle wordlist: %w", err)
	}
	return enabled, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := dbx.Exec(ctx, s.db, qDelete, sessionID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
