package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecothreads/threadscore/internal/adapters"
	"github.com/ecothreads/threadscore/internal/cache"
	"github.com/ecothreads/threadscore/internal/config"
	"github.com/ecothreads/threadscore/internal/monitoring"
	"github.com/ecothreads/threadscore/internal/pipeline"
	"github.com/ecothreads/threadscore/internal/ratelimit"
	"github.com/ecothreads/threadscore/internal/textile"
)

func uniformImpact(v float64) textile.ImpactVector {
	impact := make(textile.ImpactVector, len(textile.Axes))
	for _, axis := range textile.Axes {
		impact[axis] = v
	}
	return impact
}

func newTestServer(t *testing.T) (*gin.Engine, *server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := monitoring.NewLogger(slog.LevelError)
	metrics := monitoring.NewMetrics()

	table := textile.NewTable([]textile.MaterialEntry{
		{Name: "cotton", Impact: uniformImpact(30), Certifications: []string{"GOTS"}},
		{Name: "polyester", Impact: uniformImpact(50)},
		{Name: "elastane", Impact: uniformImpact(60)},
		{Name: "wool", Impact: uniformImpact(40)},
	})

	runner := pipeline.NewRunner(
		adapters.NewFixtureScraper(),
		adapters.NewFixtureESGDirectory(),
		adapters.NewLexiconScorer(),
		table,
		pipeline.DefaultTimeouts(),
		logger,
		metrics,
	)

	redisClient, err := ratelimit.NewRedisClient("", "", 0)
	require.NoError(t, err)
	limiter := ratelimit.NewLimiter(redisClient, ratelimit.Config{PerMinute: 600, Burst: 100}, metrics)

	respCache := cache.New(time.Minute, 100)
	t.Cleanup(respCache.Close)

	s := &server{
		runner:    runner,
		table:     table,
		respCache: respCache,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
	}
	return newRouter(s, config.Default()), s
}

func postAssessment(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(r, w, req)
}

func serve(r *gin.Engine, w *httptest.ResponseRecorder, req *http.Request) *httptest.ResponseRecorder {
	r.ServeHTTP(w, req)
	return w
}

func TestAssessEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := postAssessment(r, `{"url":"https://example.com/dp/B07C5JHN8Z","depth":"standard"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID            string  `json:"id"`
		Brand         string  `json:"brand"`
		OverallRating float64 `json:"overall_rating"`
		Band          string  `json:"band"`
		Report        string  `json:"report"`
		Sources       []struct {
			Source    string `json:"source"`
			Available bool   `json:"available"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "EcoWear", resp.Brand)
	assert.GreaterOrEqual(t, resp.OverallRating, 1.0)
	assert.LessOrEqual(t, resp.OverallRating, 10.0)
	assert.NotEmpty(t, resp.Band)
	assert.Contains(t, resp.Report, "Sustainability Assessment")
	assert.Len(t, resp.Sources, 3)
}

func TestAssessEndpointDefaultsDepth(t *testing.T) {
	r, _ := newTestServer(t)

	w := postAssessment(r, `{"url":"https://example.com/dp/B07C5JHN8Z"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"depth":"standard"`)
}

func TestAssessEndpointValidation(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{"depth":"standard"}`},
		{"relative url", `{"url":"example.com/dp/B07C5JHN8Z"}`},
		{"bad depth", `{"url":"https://example.com/dp/B07C5JHN8Z","depth":"exhaustive"}`},
		{"malformed json", `{"url":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postAssessment(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "validation")
		})
	}
}

func TestAssessEndpointUnknownProduct(t *testing.T) {
	r, _ := newTestServer(t)

	w := postAssessment(r, `{"url":"https://example.com/dp/UNKNOWN999"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
}

func TestAssessEndpointCaching(t *testing.T) {
	r, s := newTestServer(t)

	body := `{"url":"https://example.com/dp/B09ABC4567","depth":"basic"}`
	first := postAssessment(r, body)
	require.Equal(t, http.StatusOK, first.Code)
	second := postAssessment(r, body)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, first.Body.String(), second.Body.String())
	stats := s.metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
}

func TestMaterialsEndpoints(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/api/v1/materials", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":4`)

	w = httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/api/v1/materials/Organic%20Cotton", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"canonical":"cotton"`)
	assert.Contains(t, w.Body.String(), `"organic"`)

	w = httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/api/v1/materials/unobtainium", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"materials_loaded":4`)
	assert.Contains(t, w.Body.String(), "collaborators")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_requests")
	assert.Contains(t, w.Body.String(), "collaborator_stats")
}

func TestCacheStatsEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	serve(r, w, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ttl_seconds")
}

func TestContentTypeRejected(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments",
		bytes.NewBufferString("url=https://example.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	serve(r, w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
