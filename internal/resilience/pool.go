package resilience

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ConnectionPool is a shared HTTP client with tuned transport limits, fronted
// by a circuit breaker. One pool per collaborator.
type ConnectionPool struct {
	client  *http.Client
	breaker *CircuitBreaker
}

// NewConnectionPool builds a pool with the given connection limits and
// breaker. Timeout is the per-request ceiling independent of the caller's
// context deadline.
func NewConnectionPool(maxIdle, maxPerHost int, timeout time.Duration, cb *CircuitBreaker) *ConnectionPool {
	transport := &http.Transport{
		MaxIdleConns:          maxIdle,
		MaxConnsPerHost:       maxPerHost,
		MaxIdleConnsPerHost:   maxIdle / 2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &ConnectionPool{
		client:  &http.Client{Transport: transport, Timeout: timeout},
		breaker: cb,
	}
}

// DoRequest executes one HTTP request under the breaker. A non-nil body is
// sent as-is; callers set Content-Type through headers.
func (cp *ConnectionPool) DoRequest(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*http.Response, error) {
	var resp *http.Response
	err := cp.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err = cp.client.Do(req)
		if err != nil {
			slog.Warn("request failed", "url", url, "error", err, "duration_ms", time.Since(start).Milliseconds())
			return err
		}
		slog.Debug("request completed", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stats reports pool configuration and breaker state for /health.
func (cp *ConnectionPool) Stats() map[string]any {
	t := cp.client.Transport.(*http.Transport)
	return map[string]any{
		"max_idle":              t.MaxIdleConns,
		"max_per_host":          t.MaxConnsPerHost,
		"timeout_ms":            cp.client.Timeout.Milliseconds(),
		"circuit_breaker_state": cp.breaker.State().String(),
	}
}

// Close releases idle connections.
func (cp *ConnectionPool) Close() error {
	if t, ok := cp.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
