package config

import "time"

// CacheConfig configures the Redis response cache on the public catalog
// routes (CACHE_*).  Only GET responses are cached.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
    // VaryQuery makes the query string part of the key.  Venue event
    // lists depend on ?takeNumber, so it defaults to true.
    VaryQuery bool
    // Responses larger than MaxBodyBytes are served but not stored.
    MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 60*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "pull:cache"),
        VaryQuery:    envBool("CACHE_VARY_QUERY", true),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if c.TTL <= 0 {
        c.Enabled = false
    }
    return c
}
