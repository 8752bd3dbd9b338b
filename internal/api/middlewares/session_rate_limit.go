package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionIssueLimit caps how many sessions one address may open per fixed window.
// Defaults: 20 per hour (SESSION_ISSUE_MAX, SESSION_ISSUE_WINDOW).
func SessionIssueLimit(rdb *redis.Client, log *zap.Logger) func(http.Handler) http.Handler {
	limit := int64(envInt("SESSION_ISSUE_MAX", 20))
	win := envDur("SESSION_ISSUE_WINDOW", time.Hour)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := "rl:session:" + clientIP(r)

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, win)
			ttl := pipe.PTTL(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				log.Warn("session issue limit redis error, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if incr.Val() > limit {
				retry := ttl.Val()
				if retry <= 0 {
					retry = win
				}
				tooMany(w, retry)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
