package middleware

import (
    "log/slog"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/pull-events/pull-api/internal/config"
)

// bucketScript refills and takes one token atomically.
// KEYS[1] bucket; ARGV now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local now, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local refill, every = tonumber(ARGV[3]), tonumber(ARGV[4])
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if tokens == nil or ts == nil then
  tokens, ts = cap, now
end
local steps = math.floor(math.max(0, now - ts) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * refill)
  ts = ts + steps * every
end
local ok, wait = 0, 0
if tokens > 0 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {ok, tokens, wait}
`)

// NewTokenBucket is the API wide limiter shared by every server instance.
// Buckets live in Redis.  Without Redis, or when the script fails, the
// request is let through; the brute-force sensitive routes keep their own
// in-process IPLimiter.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := bucketKey(cfg, c)
            res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                log.Warn("ratelimit: script failed", "key", key, "err", err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            secs := (res[2] + 999) / 1000
            h.Set("Retry-After", strconv.FormatInt(secs, 10))
            if cfg.Debug {
                log.Debug("ratelimit: blocked", "key", key, "retry_ms", res[2])
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "code":        "RATE_LIMITED",
                "retry_after": secs,
            })
        }
    }
}

// bucketKey groups requests by client IP ("ip"), route pattern ("route")
// or both ("ip_route", the default).
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        return cfg.Prefix + ":ip:" + ip
    case "route":
        return cfg.Prefix + ":route:" + route
    default:
        return cfg.Prefix + ":ip:" + ip + ":route:" + route
    }
}
