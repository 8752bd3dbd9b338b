package middlewares

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/httpx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// PerIPKey buckets by client address.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// PerSessionKey buckets by analysis session; falls back to the client address
// when no session is attached yet.
func PerSessionKey(prefix string) KeyFunc {
	byIP := PerIPKey(prefix)
	return func(r *http.Request) string {
		if sid, ok := SessionIDFrom(r.Context()); ok {
			return prefix + ":s:" + sid
		}
		return byIP(r)
	}
}

// clientIP trusts X-Forwarded-For and X-Real-IP only when TRUST_PROXY=true,
// otherwise any caller could pick its own bucket.
func clientIP(r *http.Request) string {
	if trustProxy() {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
			return xrip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func trustProxy() bool {
	v, _ := strconv.ParseBool(os.Getenv("TRUST_PROXY"))
	return v
}

// tooMany writes the shared 429 body. retry is rounded up to whole seconds, minimum one.
func tooMany(w http.ResponseWriter, retry time.Duration) {
	sec := int64((retry + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.FormatInt(max(sec, 1), 10))
	httpx.ErrorCode(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
}

// --------- Token Bucket (Redis + Lua) ---------

// Returns {allowed (1/0), remaining tokens (floored), retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key  = KEYS[1]
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])

local t = redis.call('TIME')
local now_ms = (tonumber(t[1]) * 1000) + math.floor(tonumber(t[2]) / 1000)

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1]) or cap
local ts     = tonumber(data[2]) or now_ms

local delta_ms = now_ms - ts
if delta_ms > 0 then
  tokens = math.min(cap, tokens + (delta_ms / 1000.0) * rate)
end

local allowed, retry_ms = 0, 0
if tokens >= 1.0 then
  tokens = tokens - 1.0
  allowed = 1
else
  retry_ms = math.ceil((1.0 - tokens) * 1000.0 / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, math.ceil((cap / rate) * 1000.0))

return {allowed, math.floor(tokens), retry_ms}
`)

// RedisTokenBucket smooths bursts: burst requests up front, then rate per second.
type RedisTokenBucket struct {
	rdb      *redis.Client
	log      *zap.Logger
	keyFn    KeyFunc
	ratePerS float64
	burst    int
}

func NewRedisTokenBucket(rdb *redis.Client, log *zap.Logger, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	return &RedisTokenBucket{rdb: rdb, log: log, keyFn: keyFn, ratePerS: ratePerSecond, burst: burst}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tb.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := tb.keyFn(r)
		res, err := tokenBucketScript.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.ratePerS, 'f', -1, 64),
			strconv.Itoa(tb.burst),
		).Int64Slice()
		if err != nil || len(res) != 3 {
			tb.log.Warn("token bucket redis error, allowing request", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Policy", "token-bucket")
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tb.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] != 1 {
			retry := time.Duration(res[2]) * time.Millisecond
			tb.log.Info("token bucket blocked request", zap.String("key", key), zap.Duration("retry_after", retry))
			tooMany(w, retry)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------- Sliding Window (Redis ZSET + Lua) ---------

// Only admitted requests are recorded, so a blocked caller does not push its own
// window forward. Returns {allowed (1/0), count, oldest_ms}.
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window + 1000)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldest_ms = now
if oldest[2] then
  oldest_ms = tonumber(oldest[2])
end
return {allowed, count, oldest_ms}
`)

// RedisSlidingWindow admits at most limit requests per key in any window-long span.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	log    *zap.Logger
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, log *zap.Logger, limit int, window time.Duration, keyFn KeyFunc) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, log: log, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sw.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := sw.keyFn(r)
		now := time.Now().UnixMilli()
		res, err := slidingWindowScript.Run(r.Context(), sw.rdb, []string{key},
			now, sw.window.Milliseconds(), sw.limit, uuid.NewString(),
		).Int64Slice()
		if err != nil || len(res) != 3 {
			sw.log.Warn("sliding window redis error, allowing request", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Policy", "sliding-window")
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(sw.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(sw.limit)-res[1], 0), 10))

		if res[0] != 1 {
			retry := time.Duration(res[2]+sw.window.Milliseconds()-now) * time.Millisecond
			sw.log.Info("sliding window blocked request", zap.String("key", key), zap.Duration("retry_after", retry))
			tooMany(w, retry)
			return
		}
		next.ServeHTTP(w, r)
	})
}
