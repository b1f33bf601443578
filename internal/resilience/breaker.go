package resilience

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// BreakerState is the circuit breaker state machine position.
type BreakerState int32

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes when the circuit opens and recovers.
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	SuccessThreshold int           `json:"success_threshold"`
}

// CircuitBreaker trips after consecutive failures and probes recovery through
// a half-open state.
type CircuitBreaker struct {
	config      BreakerConfig
	state       int32
	failures    int32
	successes   int32
	nextAttempt atomic.Int64
}

func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 3
	}
	return &CircuitBreaker{config: config, state: int32(BreakerClosed)}
}

// Call runs fn if the circuit permits it, recording the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	state := cb.State()
	if state == BreakerOpen {
		if time.Now().UnixNano() < cb.nextAttempt.Load() {
			return &BreakerOpenError{State: state}
		}
		atomic.StoreInt32(&cb.state, int32(BreakerHalfOpen))
		atomic.StoreInt32(&cb.successes, 0)
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	failures := atomic.AddInt32(&cb.failures, 1)
	atomic.StoreInt32(&cb.successes, 0)
	if failures >= int32(cb.config.FailureThreshold) {
		atomic.StoreInt32(&cb.state, int32(BreakerOpen))
		cb.nextAttempt.Store(time.Now().Add(cb.config.RecoveryTimeout).UnixNano())
	}
}

func (cb *CircuitBreaker) onSuccess() {
	atomic.StoreInt32(&cb.failures, 0)
	if cb.State() == BreakerHalfOpen {
		if atomic.AddInt32(&cb.successes, 1) >= int32(cb.config.SuccessThreshold) {
			atomic.StoreInt32(&cb.state, int32(BreakerClosed))
		}
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(atomic.LoadInt32(&cb.state))
}

func (cb *CircuitBreaker) Failures() int {
	return int(atomic.LoadInt32(&cb.failures))
}

func (cb *CircuitBreaker) Reset() {
	atomic.StoreInt32(&cb.state, int32(BreakerClosed))
	atomic.StoreInt32(&cb.failures, 0)
	atomic.StoreInt32(&cb.successes, 0)
}

// BreakerOpenError is returned without invoking the protected function.
type BreakerOpenError struct {
	State BreakerState
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit breaker is %s", e.State)
}

// BreakerRegistry holds one breaker per collaborator.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{breakers: make(map[string]*CircuitBreaker)}
}

func (r *BreakerRegistry) GetOrCreate(name string, config BreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(config)
	r.breakers[name] = cb
	return cb
}

func (r *BreakerRegistry) Stats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make(map[string]any, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = map[string]any{
			"state":    cb.State().String(),
			"failures": cb.Failures(),
		}
	}
	return stats
}

var globalBreakers = NewBreakerRegistry()

// GetCircuitBreaker returns the process-wide breaker for a collaborator.
func GetCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	return globalBreakers.GetOrCreate(name, config)
}

// GetCircuitBreakerStats reports all breaker states for /health.
func GetCircuitBreakerStats() map[string]any {
	return globalBreakers.Stats()
}
