package middleware

import (
    "net/http"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "golang.org/x/time/rate"
)

// IPLimiter is an in-process per client IP and route limiter.  It guards
// the endpoints where guessing is the attack (6-digit booking passwords,
// QR tokens) and keeps working when Redis is unavailable.
type IPLimiter struct {
    mu        sync.Mutex
    entries   map[string]*limiterEntry
    every     rate.Limit
    burst     int
    idle      time.Duration
    lastSweep time.Time
    now       func() time.Time
}

type limiterEntry struct {
    lim  *rate.Limiter
    seen time.Time
}

// NewIPLimiter allows perMinute requests per key with the given burst.
// perMinute <= 0 disables limiting.
func NewIPLimiter(perMinute, burst int) *IPLimiter {
    if burst < 1 {
        burst = 1
    }
    l := &IPLimiter{
        entries: map[string]*limiterEntry{},
        burst:   burst,
        idle:    10 * time.Minute,
        now:     time.Now,
    }
    if perMinute > 0 {
        l.every = rate.Every(time.Minute / time.Duration(perMinute))
    }
    return l
}

// Allow consumes one token for key.
func (l *IPLimiter) Allow(key string) bool {
    if l.every == 0 {
        return true
    }
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()
    if now.Sub(l.lastSweep) > l.idle {
        for k, e := range l.entries {
            if now.Sub(e.seen) > l.idle {
                delete(l.entries, k)
            }
        }
        l.lastSweep = now
    }
    e, ok := l.entries[key]
    if !ok {
        e = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
        l.entries[key] = e
    }
    e.seen = now
    return e.lim.AllowN(now, 1)
}

// Middleware limits by client IP and route pattern.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            if !l.Allow(ip + " " + c.Path()) {
                c.Response().Header().Set("Retry-After", "60")
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error": "too many attempts, try again later",
                    "code":  "RATE_LIMITED",
                })
            }
            return next(c)
        }
    }
}
