// Package cache holds finished assessment responses so repeat lookups of the
// same product skip the scrape and scoring pipeline entirely.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecothreads/threadscore/internal/monitoring"
)

type item struct {
	data      []byte
	expiresAt time.Time
}

func (i *item) expired() bool { return time.Now().After(i.expiresAt) }

// Cache is a TTL-bounded response cache. Entries above maxEntries evict the
// soonest-to-expire entry first.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]*item
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
}

func New(ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{
		items:      make(map[string]*item),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			for key, it := range c.items {
				if it.expired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() { close(c.stop) }

// Key derives the cache key for one assessment request. Product URLs are
// case-sensitive paths on most retailers, so only the depth is folded.
func Key(productURL, depth string) string {
	h := sha256.Sum256([]byte(productURL + "\x00" + strings.ToLower(depth)))
	return fmt.Sprintf("%x", h[:16])
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if it.expired() {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return it.data, true
}

func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxEntries {
		c.evictLocked()
	}
	c.items[key] = &item{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// evictLocked removes the entry closest to expiry. Caller holds the lock.
func (c *Cache) evictLocked() {
	var victim string
	var soonest time.Time
	for key, it := range c.items {
		if victim == "" || it.expiresAt.Before(soonest) {
			victim = key
			soonest = it.expiresAt
		}
	}
	if victim != "" {
		delete(c.items, victim)
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*item)
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns the payload served by /cache/stats.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	for _, it := range c.items {
		if it.expired() {
			expired++
		}
	}
	return map[string]any{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"max_entries":   c.maxEntries,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

type assessmentKeyFields struct {
	URL   string `json:"url"`
	Depth string `json:"depth"`
}

// Middleware serves repeat assessment requests from the cache. Only the
// assessment endpoint is cached; the key covers the product URL and depth so
// different depths of the same product cache independently.
func (c *Cache) Middleware(metrics *monitoring.Metrics, logger *monitoring.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || ctx.Request.URL.Path != "/api/v1/assessments" {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		var fields assessmentKeyFields
		if err := json.Unmarshal(body, &fields); err != nil || fields.URL == "" {
			// Let the handler produce the validation error.
			ctx.Next()
			return
		}
		key := Key(fields.URL, fields.Depth)

		if data, found := c.Get(key); found {
			metrics.IncrementCacheHit()
			logger.CacheLogger("get", key, true, c.Size())
			ctx.Data(http.StatusOK, "application/json", data)
			ctx.Abort()
			return
		}
		metrics.IncrementCacheMiss()
		logger.CacheLogger("get", key, false, c.Size())

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.Set(key, wrapper.body.Bytes())
			logger.CacheLogger("set", key, false, c.Size())
		}
	}
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
