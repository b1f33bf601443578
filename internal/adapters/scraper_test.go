package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html><body>
<h1 id="productTitle"> Organic Cotton Classic T-Shirt </h1>
<div id="bylineInfo">Visit the EcoWear Store</div>
<div class="product-category">T-Shirt</div>
<span class="a-price"><span class="a-offscreen">$24.99</span></span>
<table id="productDetails_techSpec_section_1">
  <tr><th>Care</th><td>Machine wash</td></tr>
  <tr><th>Material composition</th><td>95% Cotton, 5% Elastane</td></tr>
</table>
<div data-hook="review">
  <span data-hook="review-star-rating">5.0 out of 5 stars</span>
  <span data-hook="review-date">Reviewed on March 3, 2024</span>
  <span data-hook="review-body">Love that it's organic cotton.</span>
</div>
<div data-hook="review">
  <span data-hook="review-star-rating">3.0 out of 5 stars</span>
  <span data-hook="review-body">Too much plastic packaging.</span>
</div>
</body></html>`

func TestAPIScraperScrapeProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "https://shop.example/item/42", r.URL.Query().Get("url"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	s := NewAPIScraper(srv.URL, "test-key")
	defer s.Close()

	p, err := s.ScrapeProduct(context.Background(), "https://shop.example/item/42")
	require.NoError(t, err)
	assert.Equal(t, "Organic Cotton Classic T-Shirt", p.Title)
	assert.Equal(t, "EcoWear", p.Brand)
	assert.Equal(t, "T-Shirt", p.Category)
	assert.Equal(t, "95% Cotton, 5% Elastane", p.MaterialsText)
	assert.Equal(t, 24.99, p.Price)
}

func TestAPIScraperScrapeReviews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	s := NewAPIScraper(srv.URL, "")
	defer s.Close()

	reviews, err := s.ScrapeReviews(context.Background(), "https://shop.example/item/42")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Love that it's organic cotton.", reviews[0].Text)
	assert.Equal(t, 5.0, reviews[0].Rating)
	assert.Equal(t, 3.0, reviews[1].Rating)
}

func TestAPIScraperUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewAPIScraper(srv.URL, "")
	defer s.Close()

	_, err := s.ScrapeProduct(context.Background(), "https://shop.example/item/42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLLABORATOR")
}

func TestAPIScraperUnrecognizableMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	}))
	defer srv.Close()

	s := NewAPIScraper(srv.URL, "")
	defer s.Close()

	_, err := s.ScrapeProduct(context.Background(), "https://shop.example/item/42")
	require.Error(t, err)
}

func TestFixtureScraper(t *testing.T) {
	s := NewFixtureScraper()

	p, err := s.ScrapeProduct(context.Background(), "https://amazon.com/dp/B07C5JHN8Z")
	require.NoError(t, err)
	assert.Equal(t, "EcoWear", p.Brand)
	assert.Equal(t, "100% Organic Cotton", p.MaterialsText)

	reviews, err := s.ScrapeReviews(context.Background(), "https://amazon.com/dp/B07C5JHN8Z")
	require.NoError(t, err)
	assert.NotEmpty(t, reviews)

	_, err = s.ScrapeProduct(context.Background(), "https://amazon.com/dp/UNKNOWN999")
	assert.Error(t, err)
}

func TestFixtureScraperHonorsCancellation(t *testing.T) {
	s := NewFixtureScraper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ScrapeProduct(ctx, "https://amazon.com/dp/B07C5JHN8Z")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 24.99, parsePrice("$24.99"))
	assert.Equal(t, 1299.0, parsePrice("$1,299.00"))
	assert.Equal(t, 0.0, parsePrice("n/a"))
}

func TestParseStarRating(t *testing.T) {
	assert.Equal(t, 4.0, parseStarRating("4.0 out of 5 stars"))
	assert.Equal(t, 5.0, parseStarRating("5"))
	assert.Equal(t, 0.0, parseStarRating(""))
}
