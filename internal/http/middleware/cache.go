// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an optional Redis-backed response cache for GET
// endpoints. Entries are keyed by route, query string, and acting user so
// the holder self-service listing never leaks across users. The cache is
// best-effort: a nil client, a Redis error, or an oversized body all fall
// through to the uncached handler.
package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CacheOptions configures ResponseCache.
type CacheOptions struct {
	// TTL is the lifetime of a cached response.
	TTL time.Duration
	// Prefix namespaces the Redis keys.
	Prefix string
	// MaxBodyBytes caps the size of responses worth caching; larger
	// bodies are served but not stored. Defaults to 1 MiB.
	MaxBodyBytes int
}

// cachedResponse is the stored representation of one response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// cacheWriter tees the response body so it can be stored after the
// handler ran.
type cacheWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache returns a middleware that serves cached GET responses from
// Redis. A nil client disables caching entirely (the middleware becomes a
// pass-through), which is how the app degrades when Redis is unreachable
// at startup.
func ResponseCache(rdb *redis.Client, opts CacheOptions) gin.HandlerFunc {
	if opts.Prefix == "" {
		opts.Prefix = "cache"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := opts.Prefix + ":" + c.Request.URL.RequestURI() + ":" + c.GetHeader("X-User-ID")

		if raw, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil {
			var stored cachedResponse
			if json.Unmarshal(raw, &stored) == nil && stored.Status != 0 {
				c.Writer.Header().Set("Content-Type", stored.ContentType)
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Writer.WriteHeader(stored.Status)
				_, _ = c.Writer.Write(stored.Body)
				c.Abort()
				return
			}
		}

		cw := &cacheWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		if cw.Status() != http.StatusOK || cw.buf.Len() > opts.MaxBodyBytes {
			return
		}
		entry, err := json.Marshal(cachedResponse{
			Status:      cw.Status(),
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.buf.Bytes(),
		})
		if err != nil {
			return
		}
		// Best effort; a failed SET just means the next request recomputes.
		_ = rdb.Set(c.Request.Context(), key, entry, opts.TTL).Err()
	}
}
