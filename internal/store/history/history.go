package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/5w1tchy/pwcheck-api/internal/store/dbx"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Entry is one recorded analysis. The password itself is never stored.
type Entry struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"-"`
	Score         int       `json:"score"`
	Strength      string    `json:"strength"`
	CrackTime     string    `json:"crack_time"`
	WeaknessCount int       `json:"weakness_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEntry summarises res for sessionID.
func NewEntry(sessionID string, res password.Result, at time.Time) Entry {
	return Entry{
		SessionID:     sessionID,
		Score:         res.Score,
		Strength:      res.Strength(),
		CrackTime:     res.CrackTime,
		WeaknessCount: len(res.Weaknesses),
		CreatedAt:     at.UTC(),
	}
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const (
	insertTmpl = `INSERT INTO analysis_history (session_id, score, strength, crack_time, weakness_count, created_at) VALUES %s`
	colsPerRow = 6

	qList = `SELECT id, score, strength, crack_time, weakness_count, created_at
FROM analysis_history
WHERE session_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	qClear = `DELETE FROM analysis_history WHERE session_id = $1`

	qEnsureIndex = `CREATE INDEX IF NOT EXISTS idx_analysis_history_session_created_at
ON analysis_history (session_id, created_at DESC)`

	qPrune = `WITH ranked AS (
  SELECT id, ROW_NUMBER() OVER (PARTITION BY session_id ORDER BY created_at DESC, id DESC) AS rn
  FROM analysis_history
)
DELETE FROM analysis_history h
USING ranked r
WHERE h.id = r.id
  AND r.rn > $1`
)

// InsertBatch writes entries with a single multi-row INSERT.
func (s *Store) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	args := make([]any, 0, len(entries)*colsPerRow)
	for _, e := range entries {
		args = append(args, e.SessionID, e.Score, e.Strength, e.CrackTime, e.WeaknessCount, e.CreatedAt)
	}
	query := fmt.Sprintf(insertTmpl, dbx.Placeholders(len(entries), colsPerRow))
	if _, err := dbx.Exec(ctx, s.db, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns the newest entries first. limit is clamped to [1, MaxLimit], zero means DefaultLimit.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)
	rows, err := dbx.Query(ctx, s.db, qList, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		e := Entry{SessionID: sessionID}
		if err := rows.Scan(&e.ID, &e.Score, &e.Strength, &e.CrackTime, &e.WeaknessCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// Clear deletes every entry of sessionID and reports how many went.
func (s *Store) Clear(ctx context.Context, sessionID string) (int64, error) {
	n, err := dbx.ExecCount(ctx, s.db, qClear, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return n, nil
}

func (s *Store) EnsureIndex(ctx context.Context) error {
	_, err := dbx.Exec(ctx, s.db, qEnsureIndex)
	return err
}

// Prune keeps the latest keep entries per session.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	n, err := dbx.ExecCount(ctx, s.db, qPrune, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return n, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
