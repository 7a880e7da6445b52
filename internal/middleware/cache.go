package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/pull-events/pull-api/internal/config"
)

// cachedResponse is what a catalog response is stored as.
type cachedResponse struct {
    Status      int    `json:"s"`
    ContentType string `json:"ct"`
    Body        []byte `json:"b"`
}

// teeWriter forwards the response to the client and keeps a copy until
// the copy would exceed limit.
type teeWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// catalogKey is prefix:route:hash.  The route pattern stays readable so
// an operator can drop every cached page of one route with a SCAN.
func catalogKey(cfg config.CacheConfig, c echo.Context) string {
    target := c.Request().URL.Path
    if cfg.VaryQuery && c.Request().URL.RawQuery != "" {
        target += "?" + c.Request().URL.RawQuery
    }
    sum := sha1.Sum([]byte(target))
    return cfg.Prefix + ":" + c.Path() + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache caches successful JSON responses of the public catalog
// routes (venues, events).  Requests carrying an Authorization header
// bypass the cache so staff and owner views are never shared.  Any Redis
// failure falls through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if req.Method != http.MethodGet || req.Header.Get(echo.HeaderAuthorization) != "" {
                return next(c)
            }
            key := catalogKey(cfg, c)

            if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            } else if err != redis.Nil {
                log.Warn("cache: lookup failed", "route", c.Path(), "err", err)
            }

            tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = tw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            ct := c.Response().Header().Get(echo.HeaderContentType)
            if tw.status != http.StatusOK || tw.overflow || !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
                return nil
            }
            payload, err := json.Marshal(cachedResponse{Status: tw.status, ContentType: ct, Body: tw.buf.Bytes()})
            if err != nil {
                return nil
            }
            // The request may already be cancelled once the body is written.
            sctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), time.Second)
            defer cancel()
            if err := rdb.Set(sctx, key, payload, cfg.TTL).Err(); err != nil {
                log.Warn("cache: store failed", "route", c.Path(), "err", err)
            }
            return nil
        }
    }
}
