package config

import (
    "testing"
    "time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
    cfg := LoadRateLimitConfig()
    if !cfg.Enabled {
        t.Fatal("rate limit should be enabled by default")
    }
    if cfg.Default.Capacity != 60 || cfg.Writes.Capacity != 10 {
        t.Fatalf("unexpected capacities: %+v / %+v", cfg.Default, cfg.Writes)
    }
    if cfg.TTL < 5*cfg.Writes.RefillInterval {
        t.Fatalf("ttl %s shorter than five write intervals", cfg.TTL)
    }
}

func TestLoadRateLimitConfigClampsBucket(t *testing.T) {
    t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_WRITE_REFILL_INTERVAL", "-1s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    cfg := LoadRateLimitConfig()
    if cfg.Writes.Capacity != 1 {
        t.Fatalf("capacity = %d, want 1", cfg.Writes.Capacity)
    }
    if cfg.Writes.RefillInterval != time.Second {
        t.Fatalf("interval = %s, want 1s", cfg.Writes.RefillInterval)
    }
    if cfg.TTL != 5*time.Second {
        t.Fatalf("ttl = %s, want 5s", cfg.TTL)
    }
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "bogus")
    cfg := LoadCacheConfig()
    if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
        t.Fatalf("methods = %v", cfg.Methods)
    }
    if cfg.TTL != 30*time.Second {
        t.Fatalf("malformed ttl should fall back, got %s", cfg.TTL)
    }
}

func TestAMQPURLPrecedence(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://b")
    if got := AMQPURL(); got != "amqp://b" {
        t.Fatalf("got %q", got)
    }
    t.Setenv("RABBITMQ_URL", "amqp://a")
    if got := AMQPURL(); got != "amqp://a" {
        t.Fatalf("got %q", got)
    }
}

func TestEnvBoolAndList(t *testing.T) {
    t.Setenv("BOOKING_STRICT_PRODUCT", "off")
    if envBool("BOOKING_STRICT_PRODUCT", true) {
        t.Fatal("off should parse as false")
    }
    if got := splitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
        t.Fatalf("splitList = %v", got)
    }
}

func TestRedisOptionsHostPort(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6379")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "2")
    opts := RedisOptions()
    if opts.Addr != "redis:6380" || opts.DB != 2 {
        t.Fatalf("opts = %+v", opts)
    }
}
