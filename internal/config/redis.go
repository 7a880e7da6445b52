package config

import (
    "context"
    "crypto/tls"
    "log/slog"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client for the response cache and the
// token bucket from the environment:
//   REDIS_HOST and REDIS_PORT, or REDIS_ADDR (host:port)
//   REDIS_PASSWORD, REDIS_DB (default 0)
//   REDIS_TLS ("true" or "1")
// It returns nil when the server does not answer a ping; callers then run
// without caching and distributed rate limiting.
func NewRedisClient(log *slog.Logger) *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        envInt("REDIS_DB", 0),
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warn("redis unavailable, cache and rate limit disabled", "addr", addr, "err", err)
        _ = client.Close()
        return nil
    }
    return client
}
