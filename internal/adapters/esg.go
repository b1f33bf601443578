package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecothreads/threadscore/internal/errors"
	"github.com/ecothreads/threadscore/internal/resilience"
	"github.com/ecothreads/threadscore/internal/types"
)

// ESGDirectory looks up a brand's sustainability disclosures. A not-found
// result is a valid answer, not an error.
type ESGDirectory interface {
	FindReport(ctx context.Context, brand string) (types.ESGLookupResult, error)
}

// HTTPESGDirectory queries a directory service that indexes published ESG
// reports and sustainability news.
type HTTPESGDirectory struct {
	endpoint string
	apiKey   string
	pool     *resilience.ConnectionPool
}

func NewHTTPESGDirectory(endpoint, apiKey string) *HTTPESGDirectory {
	cb := resilience.GetCircuitBreaker(resilience.CollaboratorDirectory, resilience.BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})
	return &HTTPESGDirectory{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		pool:     resilience.NewConnectionPool(5, 10, 15*time.Second, cb),
	}
}

func (d *HTTPESGDirectory) FindReport(ctx context.Context, brand string) (types.ESGLookupResult, error) {
	lookupURL := fmt.Sprintf("%s/v1/brands/%s/esg", d.endpoint, url.PathEscape(brand))
	headers := map[string]string{"Accept": "application/json"}
	if d.apiKey != "" {
		headers["Authorization"] = "Bearer " + d.apiKey
	}

	resp, err := d.pool.DoRequest(ctx, http.MethodGet, lookupURL, headers, nil)
	if err != nil {
		return types.ESGLookupResult{}, errors.NewCollaboratorError(resilience.CollaboratorDirectory, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.ESGLookupResult{Brand: brand, Found: false}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.ESGLookupResult{}, errors.NewCollaboratorError(resilience.CollaboratorDirectory,
			fmt.Errorf("directory returned %d: %s", resp.StatusCode, string(body)))
	}

	var result types.ESGLookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.ESGLookupResult{}, errors.WrapError(err, "decoding directory response for %s", brand)
	}
	if result.Brand == "" {
		result.Brand = brand
	}
	result.RetrievedAt = time.Now()
	return result, nil
}

// PoolStats exposes transport state for /health.
func (d *HTTPESGDirectory) PoolStats() map[string]any {
	return d.pool.Stats()
}

func (d *HTTPESGDirectory) Close() error {
	return d.pool.Close()
}
