package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// DegradationLevel grades a collaborator by recent error rate.
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelUnavailable
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	case LevelUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// DegradationConfig sets the error-rate thresholds between levels.
type DegradationConfig struct {
	DegradedThreshold    float64 `json:"degraded_threshold"`
	CriticalThreshold    float64 `json:"critical_threshold"`
	UnavailableThreshold float64 `json:"unavailable_threshold"`
}

func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		DegradedThreshold:    0.10,
		CriticalThreshold:    0.25,
		UnavailableThreshold: 0.50,
	}
}

// CollaboratorHealth is the tracked state of one collaborator.
type CollaboratorHealth struct {
	Name          string           `json:"name"`
	Level         DegradationLevel `json:"level"`
	ErrorRate     float64          `json:"error_rate"`
	TotalCalls    int64            `json:"total_calls"`
	ErrorCount    int64            `json:"error_count"`
	LastErrorTime time.Time        `json:"last_error_time"`
	Status        string           `json:"status"`
}

// DegradationTracker watches per-collaborator error rates so /health can
// report which sources are flaking and the pipeline can log level changes.
type DegradationTracker struct {
	config        DegradationConfig
	mu            sync.RWMutex
	collaborators map[string]*CollaboratorHealth
}

func NewDegradationTracker(config DegradationConfig) *DegradationTracker {
	return &DegradationTracker{
		config:        config,
		collaborators: make(map[string]*CollaboratorHealth),
	}
}

// Register adds a collaborator at normal level.
func (dt *DegradationTracker) Register(name string) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.collaborators[name] = &CollaboratorHealth{
		Name:   name,
		Level:  LevelNormal,
		Status: "collaborator is healthy",
	}
}

// RecordCall records one call outcome and re-grades the collaborator.
func (dt *DegradationTracker) RecordCall(name string, err error) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	h, ok := dt.collaborators[name]
	if !ok {
		return
	}

	h.TotalCalls++
	if err != nil {
		h.ErrorCount++
		h.LastErrorTime = time.Now()
	}
	h.ErrorRate = float64(h.ErrorCount) / float64(h.TotalCalls)

	old := h.Level
	switch {
	case h.ErrorRate >= dt.config.UnavailableThreshold:
		h.Level = LevelUnavailable
		h.Status = "collaborator unavailable, error rate above ceiling"
	case h.ErrorRate >= dt.config.CriticalThreshold:
		h.Level = LevelCritical
		h.Status = "collaborator critical, elevated error rate"
	case h.ErrorRate >= dt.config.DegradedThreshold:
		h.Level = LevelDegraded
		h.Status = "collaborator degraded, moderate error rate"
	default:
		h.Level = LevelNormal
		h.Status = "collaborator is healthy"
	}

	if old != h.Level {
		slog.Warn("collaborator degradation level changed",
			"collaborator", name,
			"old_level", old.String(),
			"new_level", h.Level.String(),
			"error_rate", h.ErrorRate,
			"total_calls", h.TotalCalls)
	}
}

// Health returns a copy of one collaborator's state.
func (dt *DegradationTracker) Health(name string) (CollaboratorHealth, bool) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	h, ok := dt.collaborators[name]
	if !ok {
		return CollaboratorHealth{}, false
	}
	return *h, true
}

// AllHealth returns a snapshot of every collaborator.
func (dt *DegradationTracker) AllHealth() map[string]CollaboratorHealth {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	out := make(map[string]CollaboratorHealth, len(dt.collaborators))
	for name, h := range dt.collaborators {
		out[name] = *h
	}
	return out
}

// Available reports whether a collaborator should still be called. Only the
// unavailable level gates calls; degraded collaborators keep serving.
func (dt *DegradationTracker) Available(name string) bool {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	h, ok := dt.collaborators[name]
	if !ok {
		return false
	}
	return h.Level != LevelUnavailable
}

// Reset clears a collaborator back to normal.
func (dt *DegradationTracker) Reset(name string) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	if _, ok := dt.collaborators[name]; ok {
		dt.collaborators[name] = &CollaboratorHealth{
			Name:   name,
			Level:  LevelNormal,
			Status: "collaborator is healthy",
		}
	}
}

var globalTracker = func() *DegradationTracker {
	dt := NewDegradationTracker(DefaultDegradationConfig())
	dt.Register(CollaboratorScraper)
	dt.Register(CollaboratorDirectory)
	dt.Register(CollaboratorSentiment)
	return dt
}()

// RecordCall records a collaborator call outcome on the process tracker.
func RecordCall(name string, err error) {
	globalTracker.RecordCall(name, err)
}

// IsAvailable checks the process tracker.
func IsAvailable(name string) bool {
	return globalTracker.Available(name)
}

// AllCollaboratorHealth snapshots the process tracker for /health.
func AllCollaboratorHealth() map[string]CollaboratorHealth {
	return globalTracker.AllHealth()
}

// ResetCollaborator clears one collaborator on the process tracker.
func ResetCollaborator(name string) {
	globalTracker.Reset(name)
}
