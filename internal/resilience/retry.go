package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ecothreads/threadscore/internal/errors"
)

// Collaborator names used across retry policies, circuit breakers, and the
// degradation tracker. One name per external dependency.
const (
	CollaboratorScraper   = "product-scraper"
	CollaboratorDirectory = "esg-directory"
	CollaboratorSentiment = "sentiment-api"
)

// RetryConfig controls backoff behavior for one collaborator.
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`
	Retryable     func(error) bool
}

// DefaultRetryConfig retries transient failures three times with exponential
// backoff and jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
		Retryable:     errors.IsRetryableError,
	}
}

// RetryableFunc is one attempt of a retried operation.
type RetryableFunc func() error

// Retry runs fn under config, sleeping between attempts and honoring context
// cancellation at every step.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.Retryable == nil {
		config.Retryable = errors.IsRetryableError
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.Retryable(err) || attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(config, attempt)):
		}
	}
	return lastErr
}

func backoffDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay/10) + 1))
	}
	return delay
}

// Per-collaborator policies. Scraping hits slow retail pages and gets longer
// delays; the directory and sentiment APIs are ordinary JSON services.
var (
	ScraperRetryConfig = RetryConfig{
		MaxAttempts:   4,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      15 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}

	DirectoryRetryConfig = RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}

	SentimentRetryConfig = RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 1.5,
		JitterEnabled: true,
	}
)

// RetryManager maps collaborator names to their retry configs.
type RetryManager struct {
	configs map[string]RetryConfig
}

func NewRetryManager() *RetryManager {
	return &RetryManager{configs: make(map[string]RetryConfig)}
}

func (rm *RetryManager) Register(collaborator string, config RetryConfig) {
	rm.configs[collaborator] = config
}

// Config returns the registered config, or the default when the collaborator
// is unknown.
func (rm *RetryManager) Config(collaborator string) RetryConfig {
	if c, ok := rm.configs[collaborator]; ok {
		return c
	}
	return DefaultRetryConfig()
}

func (rm *RetryManager) Execute(ctx context.Context, collaborator string, fn RetryableFunc) error {
	config := rm.Config(collaborator)
	if config.Retryable == nil {
		config.Retryable = errors.IsRetryableError
	}
	return Retry(ctx, config, fn)
}

var globalRetryManager = func() *RetryManager {
	rm := NewRetryManager()
	rm.Register(CollaboratorScraper, ScraperRetryConfig)
	rm.Register(CollaboratorDirectory, DirectoryRetryConfig)
	rm.Register(CollaboratorSentiment, SentimentRetryConfig)
	return rm
}()

// ExecuteWithRetry runs fn under the named collaborator's policy.
func ExecuteWithRetry(ctx context.Context, collaborator string, fn RetryableFunc) error {
	return globalRetryManager.Execute(ctx, collaborator, fn)
}
