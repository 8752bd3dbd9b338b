package sqlconnect

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func ConnectDB() (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// schema is idempotent; it runs on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS session_settings (
  session_id       UUID PRIMARY KEY,
  profile          JSONB NOT NULL DEFAULT '{}'::jsonb,
  wordlist_enabled BOOLEAN NOT NULL DEFAULT FALSE,
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT session_settings_profile_check CHECK (jsonb_typeof(profile) = 'object')
)`,
	`CREATE TABLE IF NOT EXISTS analysis_history (
  id             BIGSERIAL PRIMARY KEY,
  session_id     UUID NOT NULL,
  score          SMALLINT NOT NULL,
  strength       TEXT NOT NULL,
  crack_time     TEXT NOT NULL,
  weakness_count INTEGER NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT analysis_history_score_check CHECK (score BETWEEN 0 AND 100),
  CONSTRAINT analysis_history_weakness_count_check CHECK (weakness_count >= 0)
)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_history_session_created_at
ON analysis_history (session_id, created_at DESC)`,
}

// EnsureSchema creates the tables the stores use.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
