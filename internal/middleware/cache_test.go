package middleware

import (
    "context"
    "net/http"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/mrperfect/storefront/internal/config"
)

func newTestCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c"}
    return NewResponseCache(cfg, rdb), mr
}

func TestResponseCachePurgeDropsOnlyThatPath(t *testing.T) {
    rc, mr := newTestCache(t)
    e := echo.New()
    calls := 0
    e.GET("/reviews/:productId", func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, c.Param("productId"))
    }, rc.Middleware())

    for _, step := range []struct {
        path, want string
    }{
        {"/reviews/1", "MISS"},
        {"/reviews/1", "HIT"},
        {"/reviews/1?page=2", "MISS"},
        {"/reviews/2", "MISS"},
        {"/reviews/2", "HIT"},
    } {
        if got := serve(e, http.MethodGet, step.path, "").Header().Get("X-Cache"); got != step.want {
            t.Fatalf("before purge %s: X-Cache = %q, want %s", step.path, got, step.want)
        }
    }
    if n := len(mr.Keys()); n != 3 {
        t.Fatalf("cached keys = %d, want 3", n)
    }

    if err := rc.Purge(context.Background(), "/reviews/1"); err != nil {
        t.Fatal(err)
    }
    if n := len(mr.Keys()); n != 1 {
        t.Fatalf("keys after purge = %v", mr.Keys())
    }
    before := calls
    if got := serve(e, http.MethodGet, "/reviews/1", "").Header().Get("X-Cache"); got != "MISS" {
        t.Fatalf("purged path X-Cache = %q", got)
    }
    if got := serve(e, http.MethodGet, "/reviews/2", "").Header().Get("X-Cache"); got != "HIT" {
        t.Fatalf("other path X-Cache = %q", got)
    }
    if calls != before+1 {
        t.Fatalf("handler calls = %d, want %d", calls, before+1)
    }
}

func TestResponseCachePurgeDoesNotMatchLongerPaths(t *testing.T) {
    rc, mr := newTestCache(t)
    e := echo.New()
    e.GET("/products/:id", func(c echo.Context) error { return c.String(http.StatusOK, "p") }, rc.Middleware())

    serve(e, http.MethodGet, "/products/1", "")
    serve(e, http.MethodGet, "/products/12", "")
    if err := rc.Purge(context.Background(), "/products/1"); err != nil {
        t.Fatal(err)
    }
    if keys := mr.Keys(); len(keys) != 1 {
        t.Fatalf("keys after purge = %v", keys)
    }
    if got := serve(e, http.MethodGet, "/products/12", "").Header().Get("X-Cache"); got != "HIT" {
        t.Fatalf("/products/12 X-Cache = %q", got)
    }
}

func TestPurgePatternEscapesGlobs(t *testing.T) {
    if got := purgePattern("c", "/reviews/1"); got != "c:/reviews/1:*" {
        t.Fatalf("pattern = %q", got)
    }
    if got := purgePattern("c*", "/a?[b]"); got != `c\*:/a\?\[b\]:*` {
        t.Fatalf("pattern = %q", got)
    }
}

func TestPurgeWithoutRedisIsNoop(t *testing.T) {
    var nilCache *ResponseCache
    if err := nilCache.Purge(context.Background(), "/reviews/1"); err != nil {
        t.Fatal(err)
    }
    rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
    if err := rc.Purge(context.Background(), "/reviews/1"); err != nil {
        t.Fatal(err)
    }
}
