package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/mrperfect/storefront/internal/config"
)

// captureWriter tees the response body (up to limit bytes) while writing
// it to the client.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", r.URL.Path}
    case "method_route":
        parts = []string{"method", r.Method, "route", r.URL.Path}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", r.URL.Path, "q", r.URL.RawQuery}
    default:
        parts = []string{"route", r.URL.Path, "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    // the clear-text path lets Purge find every variant of a path
    return fmt.Sprintf("%s:%s:%x", cfg.Prefix, r.URL.Path, sum[:])
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// purgePattern matches all keys cacheKeyFrom builds for path.
func purgePattern(prefix, path string) string {
    return globEscaper.Replace(prefix) + ":" + globEscaper.Replace(path) + ":*"
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdr, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdr)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
    copy(out[8:], hdr)
    copy(out[8+len(hdr):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache replays cached 200 responses byte for byte.  Responses
// larger than MaxBodyBytes are served but never stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c)

            if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    h := c.Response().Header()
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            h.Add(k, v)
                        }
                    }
                    h.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// ResponseCache pairs the cache middleware with eviction, so writes can drop
// the public responses they make stale.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) Middleware() echo.MiddlewareFunc { return NewRedisCache(rc.cfg, rc.rdb) }

// Purge deletes every cached response for the given request paths, whatever
// their query string.  It is a no-op when caching is off.
func (rc *ResponseCache) Purge(ctx context.Context, paths ...string) error {
    if rc == nil || !rc.cfg.Enabled || rc.rdb == nil {
        return nil
    }
    for _, p := range paths {
        var keys []string
        iter := rc.rdb.Scan(ctx, 0, purgePattern(rc.cfg.Prefix, p), 100).Iterator()
        for iter.Next(ctx) {
            keys = append(keys, iter.Val())
        }
        if err := iter.Err(); err != nil {
            return err
        }
        if len(keys) == 0 {
            continue
        }
        if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
            return err
        }
    }
    return nil
}
