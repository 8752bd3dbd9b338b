package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "pw:settings:v1:"
	genPrefix = "pw:settings:gen:"
)

// cached is what the shared tier stores: the settings plus the session
// generation they were read under.
type cached struct {
	Gen      int64    `json:"gen"`
	Settings Settings `json:"settings"`
}

// storeIfCurrent writes the entry only while the generation key still holds
// the value the reader saw before going to the Backend.
// KEYS[1]=data key, KEYS[2]=generation key
// ARGV[1]=expected generation, ARGV[2]=payload, ARGV[3]=ttl ms
var storeIfCurrent = redis.NewScript(`
local cur = redis.call("GET", KEYS[2]) or "0"
if cur ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// redisTier is the shared cache between API instances. Every operation runs under
// a short timeout and fails open: a Redis problem only costs a Postgres read.
type redisTier struct {
	rdb     *redis.Client
	log     *zap.Logger
	enabled bool
	ttl     time.Duration
	shortTO time.Duration
	warned  atomic.Bool
}

func newRedisTier(rdb *redis.Client, log *zap.Logger) *redisTier {
	if rdb == nil || os.Getenv("SETTINGS_DISABLE_CACHE") == "1" {
		return &redisTier{log: log}
	}

	// TTL in seconds (default 10m)
	ttl := 10 * time.Minute
	if v := os.Getenv("SETTINGS_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	// Per-op timeout (default 150ms)
	shortTO := 150 * time.Millisecond
	if v := os.Getenv("SETTINGS_CACHE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			shortTO = time.Duration(ms) * time.Millisecond
		}
	}

	return &redisTier{rdb: rdb, log: log, enabled: true, ttl: ttl, shortTO: shortTO}
}

// lookup returns the cached settings when they were stored under the current
// generation. gen is that generation; genOK is false when Redis gave no answer,
// in which case the caller must not write the tier back.
func (c *redisTier) lookup(ctx context.Context, sessionID string) (s Settings, hit bool, gen int64, genOK bool) {
	if !c.enabled {
		return Settings{}, false, 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	vals, err := c.rdb.MGet(ctx, keyPrefix+sessionID, genPrefix+sessionID).Result()
	if err != nil {
		c.warnOnce("settings cache get failed, reading through", err)
		return Settings{}, false, 0, false
	}
	c.warned.Store(false)

	if raw, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Settings{}, false, 0, false
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return Settings{}, false, gen, true
	}
	var e cached
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.warnOnce("settings cache entry undecodable, reading through", err)
		return Settings{}, false, gen, true
	}
	if e.Gen != gen {
		return Settings{}, false, gen, true
	}
	return e.Settings, true, gen, true
}

// set stores s unless a write bumped the session's generation past gen.
func (c *redisTier) set(ctx context.Context, s Settings, gen int64) {
	if !c.enabled {
		return
	}
	b, err := json.Marshal(cached{Gen: gen, Settings: s})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()
	err = storeIfCurrent.Run(ctx, c.rdb,
		[]string{keyPrefix + s.SessionID, genPrefix + s.SessionID},
		strconv.FormatInt(gen, 10), string(b), c.ttl.Milliseconds(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warnOnce("settings cache set failed", err)
	}
}

// bump advances the session generation and drops the entry. The generation key
// outlives any entry written under it.
func (c *redisTier) bump(ctx context.Context, sessionID string) {
	if !c.enabled {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, genPrefix+sessionID)
	pipe.PExpire(ctx, genPrefix+sessionID, 2*c.ttl)
	pipe.Del(ctx, keyPrefix+sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		// A stale entry outlives this write until its TTL.
		c.log.Warn("settings cache invalidate failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// warnOnce logs the first failure of a streak; a successful read re-arms it.
func (c *redisTier) warnOnce(msg string, err error) {
	if c.warned.Swap(true) {
		return
	}
	c.log.Warn(msg, zap.Error(err))
}
