package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementAssessmentCompleted()
	m.IncrementAssessmentInsufficient()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, 50.0, stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(1), stats["assessments_completed"])
	assert.Equal(t, int64(1), stats["assessments_insufficient"])
}

func TestMetricsCollaboratorStats(t *testing.T) {
	m := NewMetrics()
	m.RecordCollaboratorCall("product-scraper", true)
	m.RecordCollaboratorCall("product-scraper", false)
	m.RecordCollaboratorCall("esg-directory", true)

	stats := m.CollaboratorStats()
	scraper, ok := stats["product-scraper"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(2), scraper["calls"])
	assert.Equal(t, int64(1), scraper["errors"])
	assert.Equal(t, 50.0, scraper["error_rate_percent"])
}

func TestMetricsSourceUnavailable(t *testing.T) {
	m := NewMetrics()
	m.RecordSourceUnavailable("brand")
	m.RecordSourceUnavailable("brand")
	m.RecordSourceUnavailable("consumer")

	counts := m.SourceUnavailableStats()
	assert.Equal(t, int64(2), counts["brand"])
	assert.Equal(t, int64(1), counts["consumer"])
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, m.PercentileResponseTime(50))
	assert.Equal(t, 95*time.Millisecond, m.PercentileResponseTime(95))
	assert.Equal(t, time.Duration(0), NewMetrics().PercentileResponseTime(95))
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.IncrementRequest()
	m.RecordCollaboratorCall("sentiment-api", false)
	m.RecordSourceUnavailable("material")

	m.Reset()
	stats := m.GetStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Empty(t, m.CollaboratorStats())
	assert.Empty(t, m.SourceUnavailableStats())
}
