// Package ratelimit enforces per-client request limits on the assessment API,
// backed by Redis when available and an in-memory token bucket otherwise.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ecothreads/threadscore/internal/monitoring"
)

// Config holds the per-IP limit. Assessments are expensive (scrape plus two
// collaborator calls), so the default is deliberately modest.
type Config struct {
	PerMinute int
	Burst     int
}

func DefaultConfig() Config {
	return Config{PerMinute: 60, Burst: 10}
}

// Result is the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter provides distributed rate limiting with Redis and an in-memory
// fallback when Redis is unavailable.
type Limiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics

	fallback   map[string]*rate.Limiter
	fallbackMu sync.Mutex
}

func NewLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *Limiter {
	if config.Burst <= 0 {
		config.Burst = config.PerMinute
	}
	l := &Limiter{
		redisClient: redisClient,
		config:      config,
		metrics:     metrics,
		fallback:    make(map[string]*rate.Limiter),
	}
	if redisClient.IsEnabled() {
		l.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
	}
	return l
}

// AllowIP checks the per-minute limit for one client IP.
func (l *Limiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	key := fmt.Sprintf("threadscore:ratelimit:ip:%s", ip)

	if l.redisLimiter != nil {
		result, err := l.allowRedis(ctx, key)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "ip", ip, "error", err)
	}
	return l.allowFallback(key), nil
}

// redisLimit mirrors the fallback bucket: same rate, same burst.
func (l *Limiter) redisLimit() redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   l.config.PerMinute,
		Burst:  l.config.Burst,
		Period: time.Minute,
	}
}

func (l *Limiter) allowRedis(ctx context.Context, key string) (*Result, error) {
	res, err := l.redisLimiter.Allow(ctx, key, l.redisLimit())
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (l *Limiter) allowFallback(key string) *Result {
	l.fallbackMu.Lock()
	limiter, ok := l.fallback[key]
	if !ok {
		// Bounded map: drop everything when it grows past the cap rather
		// than tracking per-entry access times.
		if len(l.fallback) > 10000 {
			l.fallback = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rate.Limit(float64(l.config.PerMinute)/60.0), l.config.Burst)
		l.fallback[key] = limiter
	}
	l.fallbackMu.Unlock()

	allowed := limiter.Allow()
	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     l.config.PerMinute,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}
	return result
}

// Middleware rejects requests over the per-IP limit with 429 and standard
// rate limit headers. Limiter failures never block requests.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := l.AllowIP(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Error("rate limit check failed", "ip", c.ClientIP(), "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if l.metrics != nil {
				l.metrics.IncrementRateLimitBlock()
			}
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("limit is %d requests per minute", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Stats reports limiter state for the health endpoint.
func (l *Limiter) Stats() map[string]any {
	l.fallbackMu.Lock()
	fallbackCount := len(l.fallback)
	l.fallbackMu.Unlock()

	stats := map[string]any{
		"redis_enabled":     l.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
		"per_minute":        l.config.PerMinute,
	}
	if l.redisClient.IsEnabled() {
		stats["redis_pool"] = l.redisClient.GetPoolStats()
	}
	return stats
}
