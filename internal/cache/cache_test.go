package cache

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecothreads/threadscore/internal/monitoring"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	key := Key("https://example.com/dp/B07C5JHN8Z", "standard")
	_, found := c.Get(key)
	assert.False(t, found)

	c.Set(key, []byte(`{"overall_rating":7.4}`))
	data, found := c.Get(key)
	require.True(t, found)
	assert.JSONEq(t, `{"overall_rating":7.4}`, string(data))
}

func TestCacheExpiry(t *testing.T) {
	c := New(10*time.Millisecond, 10)
	defer c.Close()

	key := Key("https://example.com/dp/B07C5JHN8Z", "standard")
	c.Set(key, []byte("x"))
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get(key)
	assert.False(t, found)
	assert.Equal(t, 0, c.Size())
}

func TestCacheKeyDepthSensitive(t *testing.T) {
	url := "https://example.com/dp/B07C5JHN8Z"
	assert.NotEqual(t, Key(url, "basic"), Key(url, "standard"))
	assert.Equal(t, Key(url, "Standard"), Key(url, "standard"))
}

func TestCacheEviction(t *testing.T) {
	c := New(time.Minute, 2)
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	assert.Equal(t, 2, c.Size())
	_, found := c.Get("a")
	assert.False(t, found, "oldest entry should be evicted")
}

func TestCacheMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New(time.Minute, 10)
	defer c.Close()

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger(slog.LevelError)

	handlerCalls := 0
	r := gin.New()
	r.Use(c.Middleware(metrics, logger))
	r.POST("/api/v1/assessments", func(ctx *gin.Context) {
		handlerCalls++
		ctx.JSON(http.StatusOK, gin.H{"overall_rating": 7.4})
	})

	body := `{"url":"https://example.com/dp/B07C5JHN8Z","depth":"standard"}`
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewBufferString(body))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"overall_rating":7.4}`, w.Body.String())
	}

	assert.Equal(t, 1, handlerCalls, "second request should be served from cache")
	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
}

func TestCacheMiddlewareSkipsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New(time.Minute, 10)
	defer c.Close()

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger(slog.LevelError)

	handlerCalls := 0
	r := gin.New()
	r.Use(c.Middleware(metrics, logger))
	r.POST("/api/v1/assessments", func(ctx *gin.Context) {
		handlerCalls++
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "scrape failed"})
	})

	body := `{"url":"https://example.com/dp/BROKEN","depth":"standard"}`
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewBufferString(body))
		r.ServeHTTP(w, req)
	}

	assert.Equal(t, 2, handlerCalls, "error responses must not be cached")
}
