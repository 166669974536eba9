package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movies-api/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		switch {
		case cw.limit <= 0, int64(len(b)) <= remain:
			cw.buf.Write(b)
		default:
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// cacheKeyFrom builds a stable cache key honoring prefix/strategy.  The
// request path is used rather than the route template so /api/movies/1 and
// /api/movies/2 never share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path
	query := r.URL.RawQuery

	parts := []string{"route", path}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
	case "method_route":
		parts = append([]string{"method", r.Method}, parts...)
	case "method_route_query":
		parts = append([]string{"method", r.Method}, append(parts, "q", query)...)
	default: // "route_query"
		parts = append(parts, "q", query)
	}

	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
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
	hdr := make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}

// PurgeCache deletes every entry under prefix.  It scans in batches so a
// large keyspace never blocks Redis.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, prefix+":*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movies_cache_hits_total",
		Help: "Responses served from the response cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movies_cache_misses_total",
		Help: "Cacheable requests that missed the response cache.",
	})
)

// cacheStore is where encoded responses live: Redis when configured,
// otherwise a per-process LRU.  Every purge bumps a generation; set only
// stores when the generation still equals the one read before the handler
// ran, so a read that overlapped a write never caches the old body.
type cacheStore interface {
	get(ctx context.Context, key string) ([]byte, bool)
	generation(ctx context.Context) (uint64, error)
	set(ctx context.Context, key string, payload []byte, gen uint64)
	purge(ctx context.Context) error
}

type redisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// epochKey sits outside the "<prefix>:*" pattern so purges keep it.
func (s redisStore) epochKey() string { return s.prefix + "-epoch" }

func (s redisStore) get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	return bs, err == nil
}

func (s redisStore) generation(ctx context.Context) (uint64, error) {
	gen, err := s.rdb.Get(ctx, s.epochKey()).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// set writes inside WATCH/MULTI on the epoch key, so a purge that lands
// between the check and the write aborts it.
func (s redisStore) set(ctx context.Context, key string, payload []byte, gen uint64) {
	_ = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, s.epochKey()).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetEx(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, s.epochKey())
}

func (s redisStore) purge(ctx context.Context) error {
	if err := s.rdb.Incr(ctx, s.epochKey()).Err(); err != nil {
		return err
	}
	return PurgeCache(ctx, s.rdb, s.prefix)
}

type lruStore struct {
	mu  sync.Mutex
	gen uint64
	lru *expirable.LRU[string, []byte]
}

func (s *lruStore) get(_ context.Context, key string) ([]byte, bool) { return s.lru.Get(key) }

func (s *lruStore) generation(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen, nil
}

func (s *lruStore) set(_ context.Context, key string, payload []byte, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.lru.Add(key, payload)
	}
}

func (s *lruStore) purge(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.lru.Purge()
	return nil
}

// NewRedisCache caches successful responses of the configured methods,
// headers included, so clients see identical output on a hit.  Any
// successful request with another method purges the prefix.  Without a
// Redis client the entries are kept in an in-process LRU of
// cfg.LocalEntries responses instead.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	var store cacheStore
	switch {
	case rdb != nil:
		store = redisStore{rdb: rdb, prefix: cfg.Prefix, ttl: ttl}
	case cfg.LocalEntries > 0:
		store = &lruStore{lru: expirable.NewLRU[string, []byte](cfg.LocalEntries, nil, ttl)}
	default:
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				err := next(c)
				if err == nil && c.Response().Status < http.StatusBadRequest {
					if perr := store.purge(context.WithoutCancel(c.Request().Context())); perr != nil {
						c.Logger().Warnf("[cache] purge %s failed: %v", cfg.Prefix, perr)
					}
				}
				return err
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, ok := store.get(ctx, key); ok {
				if status, hdr, body, ok := decodePayload(bs); ok {
					cacheHitsTotal.Inc()
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}
			cacheMissesTotal.Inc()
			gen, genErr := store.generation(ctx)

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			// partial bodies, and bodies read under an unknown generation, are never stored
			if genErr != nil || cw.status != http.StatusOK || cw.truncated() {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderXRequestID)
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				store.set(context.WithoutCancel(ctx), key, payload, gen)
			}
			return nil
		}
	}
}
