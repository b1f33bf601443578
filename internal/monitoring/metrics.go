package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the in-process counters served by /metrics.
type Metrics struct {
	RequestCount            int64
	ErrorCount              int64
	CacheHits               int64
	CacheMisses             int64
	AssessmentsCompleted    int64
	AssessmentsInsufficient int64
	RateLimitBlocks         int64
	StartTime               time.Time

	responseTimes   []time.Duration
	responseTimesMu sync.RWMutex

	statusCounts map[int]int64
	statusMu     sync.RWMutex

	collaboratorCalls  map[string]int64
	collaboratorErrors map[string]int64
	collaboratorMu     sync.RWMutex

	sourceUnavailable map[string]int64
	sourceMu          sync.RWMutex
}

func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:          time.Now(),
		responseTimes:      make([]time.Duration, 0, 1000),
		statusCounts:       make(map[int]int64),
		collaboratorCalls:  make(map[string]int64),
		collaboratorErrors: make(map[string]int64),
		sourceUnavailable:  make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()   { atomic.AddInt64(&m.ErrorCount, 1) }

func (m *Metrics) IncrementCacheHit()  { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss() { atomic.AddInt64(&m.CacheMisses, 1) }

func (m *Metrics) IncrementAssessmentCompleted() {
	atomic.AddInt64(&m.AssessmentsCompleted, 1)
}

// IncrementAssessmentInsufficient counts runs where no source had signal.
func (m *Metrics) IncrementAssessmentInsufficient() {
	atomic.AddInt64(&m.AssessmentsInsufficient, 1)
}

func (m *Metrics) IncrementRateLimitBlock() { atomic.AddInt64(&m.RateLimitBlocks, 1) }

// RecordCollaboratorCall counts a call to one of the external collaborators.
func (m *Metrics) RecordCollaboratorCall(name string, success bool) {
	m.collaboratorMu.Lock()
	defer m.collaboratorMu.Unlock()
	m.collaboratorCalls[name]++
	if !success {
		m.collaboratorErrors[name]++
	}
}

// RecordSourceUnavailable counts a source dropping out of an assessment.
func (m *Metrics) RecordSourceUnavailable(source string) {
	m.sourceMu.Lock()
	defer m.sourceMu.Unlock()
	m.sourceUnavailable[source]++
}

// RecordResponseTime keeps the last 1000 samples for percentiles.
func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.responseTimesMu.Lock()
	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMu.Unlock()
}

func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.statusCounts[statusCode]++
}

// PercentileResponseTime computes a percentile over the retained samples.
func (m *Metrics) PercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMu.RLock()
	defer m.responseTimesMu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	idx := int(float64(len(times)-1) * percentile / 100.0)
	if idx >= len(times) {
		idx = len(times) - 1
	}
	return times[idx]
}

// CollaboratorStats reports per-collaborator call counts and error rates.
func (m *Metrics) CollaboratorStats() map[string]any {
	m.collaboratorMu.RLock()
	defer m.collaboratorMu.RUnlock()

	stats := make(map[string]any, len(m.collaboratorCalls))
	for name, calls := range m.collaboratorCalls {
		errs := m.collaboratorErrors[name]
		rate := 0.0
		if calls > 0 {
			rate = float64(errs) / float64(calls) * 100
		}
		stats[name] = map[string]any{
			"calls":              calls,
			"errors":             errs,
			"error_rate_percent": rate,
		}
	}
	return stats
}

// SourceUnavailableStats reports drop-out counts per scoring source.
func (m *Metrics) SourceUnavailableStats() map[string]int64 {
	m.sourceMu.RLock()
	defer m.sourceMu.RUnlock()
	out := make(map[string]int64, len(m.sourceUnavailable))
	for k, v := range m.sourceUnavailable {
		out[k] = v
	}
	return out
}

func (m *Metrics) statusDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	out := make(map[int]int64, len(m.statusCounts))
	for k, v := range m.statusCounts {
		out[k] = v
	}
	return out
}

// GetStats assembles the /metrics payload.
func (m *Metrics) GetStats() map[string]any {
	requests := atomic.LoadInt64(&m.RequestCount)
	errCount := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := 0.0
	if requests > 0 {
		errorRate = float64(errCount) / float64(requests) * 100
	}
	cacheHitRate := 0.0
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]any{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"total_requests":           requests,
		"error_count":              errCount,
		"error_rate_percent":       errorRate,
		"cache_hits":               cacheHits,
		"cache_misses":             cacheMisses,
		"cache_hit_rate_percent":   cacheHitRate,
		"assessments_completed":    atomic.LoadInt64(&m.AssessmentsCompleted),
		"assessments_insufficient": atomic.LoadInt64(&m.AssessmentsInsufficient),
		"rate_limit_blocks":        atomic.LoadInt64(&m.RateLimitBlocks),
		"p50_response_time_ms":     float64(m.PercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.PercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.PercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.statusDistribution(),
		"collaborator_stats":       m.CollaboratorStats(),
		"source_unavailable":       m.SourceUnavailableStats(),
		"start_time":               m.StartTime.Format(time.RFC3339),
	}
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.AssessmentsCompleted, 0)
	atomic.StoreInt64(&m.AssessmentsInsufficient, 0)
	atomic.StoreInt64(&m.RateLimitBlocks, 0)

	m.responseTimesMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseTimesMu.Unlock()

	m.statusMu.Lock()
	m.statusCounts = make(map[int]int64)
	m.statusMu.Unlock()

	m.collaboratorMu.Lock()
	m.collaboratorCalls = make(map[string]int64)
	m.collaboratorErrors = make(map[string]int64)
	m.collaboratorMu.Unlock()

	m.sourceMu.Lock()
	m.sourceUnavailable = make(map[string]int64)
	m.sourceMu.Unlock()

	m.StartTime = time.Now()
}
