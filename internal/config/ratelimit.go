package config

import "time"

// Bucket describes one token bucket: Capacity tokens, refilled by
// RefillTokens every RefillInterval.
type Bucket struct {
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
}

// RateLimitConfig drives the Redis token bucket middleware.  Default applies
// to every request; Writes is a tighter bucket for shopper write endpoints
// (bookings, checkout, reviews, chat) so a single client cannot flood the
// admin's booking queue.
type RateLimitConfig struct {
    Enabled     bool
    Default     Bucket
    Writes      Bucket
    TTL         time.Duration
    KeyStrategy string
    Prefix      string
    Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Default: loadBucket("RATE_LIMIT", 60, 1, time.Second),
        Writes:  loadBucket("RATE_LIMIT_WRITE", 10, 1, 6*time.Second),
        TTL:     envDur("RATE_LIMIT_TTL", 10*time.Minute),
        // route first so the two buckets never share a key
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "storefront:rl"),
        Debug:       envBool("RATE_LIMIT_DEBUG", false),
    }
    minTTL := 5 * cfg.Default.RefillInterval
    if w := 5 * cfg.Writes.RefillInterval; w > minTTL {
        minTTL = w
    }
    if cfg.TTL < minTTL {
        cfg.TTL = minTTL
    }
    return cfg
}

// loadBucket reads <prefix>_CAPACITY, <prefix>_REFILL_TOKENS and
// <prefix>_REFILL_INTERVAL, then clamps the result to sane minimums.
func loadBucket(prefix string, capacity, refill int, every time.Duration) Bucket {
    b := Bucket{
        Capacity:       envInt(prefix+"_CAPACITY", capacity),
        RefillTokens:   envInt(prefix+"_REFILL_TOKENS", refill),
        RefillInterval: envDur(prefix+"_REFILL_INTERVAL", every),
    }
    if b.Capacity < 1 {
        b.Capacity = 1
    }
    if b.RefillTokens < 1 {
        b.RefillTokens = 1
    }
    if b.RefillInterval <= 0 {
        b.RefillInterval = time.Second
    }
    return b
}
