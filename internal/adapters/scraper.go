package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ecothreads/threadscore/internal/errors"
	"github.com/ecothreads/threadscore/internal/resilience"
	"github.com/ecothreads/threadscore/internal/types"
)

// ProductScraper fetches the product listing and its reviews. Implementations
// own transport details; callers only see the parsed structures.
type ProductScraper interface {
	ScrapeProduct(ctx context.Context, productURL string) (types.Product, error)
	ScrapeReviews(ctx context.Context, productURL string) ([]types.Review, error)
}

// APIScraper drives a rendering scraper service: the service fetches and
// returns the page HTML, parsing happens here.
type APIScraper struct {
	endpoint string
	apiKey   string
	pool     *resilience.ConnectionPool
}

// NewAPIScraper builds a scraper against the given service endpoint.
func NewAPIScraper(endpoint, apiKey string) *APIScraper {
	cb := resilience.GetCircuitBreaker(resilience.CollaboratorScraper, resilience.BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})
	return &APIScraper{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		pool:     resilience.NewConnectionPool(10, 20, 30*time.Second, cb),
	}
}

func (s *APIScraper) fetchHTML(ctx context.Context, target string) (*goquery.Document, error) {
	fetchURL := fmt.Sprintf("%s/render?url=%s", s.endpoint, url.QueryEscape(target))
	headers := map[string]string{
		"Accept":     "text/html",
		"User-Agent": "threadscore/1.0",
	}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}

	resp, err := s.pool.DoRequest(ctx, http.MethodGet, fetchURL, headers, nil)
	if err != nil {
		return nil, errors.NewCollaboratorError(resilience.CollaboratorScraper, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewCollaboratorError(resilience.CollaboratorScraper,
			fmt.Errorf("scraper service returned %d: %s", resp.StatusCode, string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, "parsing page for %s", target)
	}
	return doc, nil
}

// ScrapeProduct fetches a listing page and extracts the product fields.
func (s *APIScraper) ScrapeProduct(ctx context.Context, productURL string) (types.Product, error) {
	doc, err := s.fetchHTML(ctx, productURL)
	if err != nil {
		return types.Product{}, err
	}

	p := types.Product{
		URL:           productURL,
		Title:         cleanText(doc.Find("#productTitle, h1.product-title").First().Text()),
		Brand:         cleanText(doc.Find("#bylineInfo, .product-brand").First().Text()),
		Category:      cleanText(doc.Find(".product-category, #wayfinding-breadcrumbs_feature_div li:last-child").First().Text()),
		MaterialsText: extractMaterials(doc),
	}
	p.Brand = strings.TrimPrefix(p.Brand, "Brand: ")
	p.Brand = strings.TrimPrefix(p.Brand, "Visit the ")
	p.Brand = strings.TrimSuffix(p.Brand, " Store")

	if priceText := doc.Find(".a-price .a-offscreen, .product-price").First().Text(); priceText != "" {
		p.Price = parsePrice(priceText)
	}

	if p.Title == "" {
		return types.Product{}, errors.NewCollaboratorError(resilience.CollaboratorScraper,
			fmt.Errorf("page for %s has no recognizable product markup", productURL))
	}
	return p, nil
}

// ScrapeReviews fetches the review section of a listing.
func (s *APIScraper) ScrapeReviews(ctx context.Context, productURL string) ([]types.Review, error) {
	doc, err := s.fetchHTML(ctx, productURL)
	if err != nil {
		return nil, err
	}

	var reviews []types.Review
	doc.Find("[data-hook=review], .product-review").Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Find("[data-hook=review-body], .review-text").Text())
		if text == "" {
			return
		}
		r := types.Review{
			Text: text,
			Date: cleanText(sel.Find("[data-hook=review-date], .review-date").Text()),
		}
		if ratingText := sel.Find("[data-hook=review-star-rating], .review-rating").First().Text(); ratingText != "" {
			r.Rating = parseStarRating(ratingText)
		}
		reviews = append(reviews, r)
	})
	return reviews, nil
}

// extractMaterials looks in the usual places retail pages declare fiber
// content: detail bullet tables, then a labelled composition row.
func extractMaterials(doc *goquery.Document) string {
	var materials string
	doc.Find("#productDetails_techSpec_section_1 tr, .product-details tr, #detailBullets_feature_div li").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			row := strings.ToLower(sel.Text())
			if strings.Contains(row, "material") || strings.Contains(row, "fabric") || strings.Contains(row, "composition") {
				materials = cleanText(sel.Find("td").Last().Text())
				if materials == "" {
					// Bullet form: "Material: 95% Cotton, 5% Elastane"
					parts := strings.SplitN(sel.Text(), ":", 2)
					if len(parts) == 2 {
						materials = cleanText(parts[1])
					}
				}
				return false
			}
			return true
		})
	if materials == "" {
		materials = cleanText(doc.Find(".product-materials").First().Text())
	}
	return materials
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseStarRating handles "4.0 out of 5 stars" and bare numbers.
func parseStarRating(s string) float64 {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}

// PoolStats exposes transport state for /health.
func (s *APIScraper) PoolStats() map[string]any {
	return s.pool.Stats()
}

func (s *APIScraper) Close() error {
	return s.pool.Close()
}
