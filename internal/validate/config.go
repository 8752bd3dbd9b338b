package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Env validates the service configuration. Fail-fast on bad config.
func Env() error {
	if len(os.Getenv("AUTH_JWT_SECRET")) < 32 {
		return errors.New("AUTH_JWT_SECRET must be at least 32 characters")
	}
	if _, err := envDuration("SESSION_TTL", "720h"); err != nil {
		return fmt.Errorf("SESSION_TTL: %w", err)
	}
	if err := envMinInt("AUTH_CLOCK_SKEW_SEC", 0); err != nil {
		return fmt.Errorf("AUTH_CLOCK_SKEW_SEC: %w", err)
	}
	if err := envMinInt("HISTORY_KEEP", 1); err != nil {
		return fmt.Errorf("HISTORY_KEEP: %w", err)
	}
	if v := os.Getenv("HISTORY_RETENTION_AT"); v != "" {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("HISTORY_RETENTION_AT: want HH:MM, got %q", v)
		}
	}
	if v := os.Getenv("HISTORY_RETENTION_TZ"); v != "" {
		if _, err := time.LoadLocation(v); err != nil {
			return fmt.Errorf("HISTORY_RETENTION_TZ: %w", err)
		}
	}
	if (os.Getenv("TLS_CERT") == "") != (os.Getenv("TLS_KEY") == "") {
		return errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	if os.Getenv("WORDLIST_S3_KEY") != "" && os.Getenv("AWS_BUCKET") == "" {
		return errors.New("WORDLIST_S3_KEY requires AWS_BUCKET")
	}
	return nil
}

// HardeningWarnings returns non-fatal warnings to log on startup.
func HardeningWarnings(appEnv string) []string {
	var warns []string

	if d, _ := envDuration("SESSION_TTL", "720h"); d > 90*24*time.Hour {
		warns = append(warns, fmt.Sprintf("SESSION_TTL=%s is > 90 days; stored profiles outlive their purpose", d))
	} else if d < time.Hour {
		warns = append(warns, fmt.Sprintf("SESSION_TTL=%s is < 1h; settings will be lost often", d))
	}

	if strings.EqualFold(appEnv, "production") {
		if os.Getenv("TLS_CERT") == "" {
			warns = append(warns, "TLS_CERT not set; passwords travel in clear unless a proxy terminates TLS")
		}
		if strings.Contains(os.Getenv("CORS_ALLOWED_ORIGINS"), "localhost") || os.Getenv("CORS_ALLOWED_ORIGINS") == "" {
			warns = append(warns, "CORS_ALLOWED_ORIGINS allows localhost origins in production")
		}
		if u := os.Getenv("UPSTASH_REDIS_URL"); u != "" && strings.HasPrefix(u, "redis://") {
			warns = append(warns, "UPSTASH_REDIS_URL uses redis:// (no TLS). Prefer rediss:// for TLS")
		}
		if os.Getenv("UPSTASH_REDIS_URL") == "" && os.Getenv("REDIS_ADDR") != "" {
			if os.Getenv("REDIS_PASSWORD") == "" || os.Getenv("REDIS_USER") == "" {
				warns = append(warns, "REDIS_ADDR provided without REDIS_USER/REDIS_PASSWORD; require auth in production")
			}
		}
	}
	return warns
}

// PingRedis checks connectivity with a short timeout.
func PingRedis(rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	return err
}

// --- helpers ---

func envDuration(key, def string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func envMinInt(key string, min int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil // unset -> code defaults apply elsewhere
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not a number: %v", err)
	}
	if n < min {
		return fmt.Errorf("must be >= %d", min)
	}
	return nil
}
