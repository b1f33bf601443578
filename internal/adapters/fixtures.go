package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecothreads/threadscore/internal/types"
)

// FixtureScraper serves a fixed catalog keyed by URL substring, for offline
// runs and tests. Matching is deterministic: first key contained in the URL,
// in registration order.
type FixtureScraper struct {
	keys     []string
	products map[string]types.Product
	reviews  map[string][]types.Review
}

// NewFixtureScraper loads the built-in catalog.
func NewFixtureScraper() *FixtureScraper {
	s := &FixtureScraper{
		products: make(map[string]types.Product),
		reviews:  make(map[string][]types.Review),
	}

	s.add(
		"B07C5JHN8Z",
		types.Product{
			Title:         "Organic Cotton Classic T-Shirt",
			Brand:         "EcoWear",
			MaterialsText: "100% Organic Cotton",
			Category:      "T-Shirt",
			Price:         24.99,
		},
		[]types.Review{
			{Text: "Love that it's organic cotton, feels great and guilt-free.", Rating: 5},
			{Text: "Soft, well made, and the brand seems genuinely sustainable.", Rating: 5},
			{Text: "Good shirt, shrank slightly after washing.", Rating: 4},
			{Text: "Minimal packaging, all recyclable. Nice touch.", Rating: 5},
			{Text: "Quality is decent for the price.", Rating: 4},
		},
	)

	s.add(
		"B08XYZT123",
		types.Product{
			Title:         "Premium Cotton T-Shirt 3-Pack",
			Brand:         "BasicThreads",
			MaterialsText: "95% Cotton, 5% Elastane",
			Category:      "T-Shirt",
			Price:         29.99,
		},
		[]types.Review{
			{Text: "Decent shirts but started falling apart after a month.", Rating: 2},
			{Text: "Good value pack, fits well.", Rating: 4},
			{Text: "Came wrapped in so much plastic, excessive packaging.", Rating: 3},
		},
	)

	s.add(
		"B09ABC4567",
		types.Product{
			Title:         "Sustainable Slim Fit Jeans",
			Brand:         "GreenDenim",
			MaterialsText: "98% Organic Cotton, 2% Elastane",
			Category:      "Jeans",
			Price:         79.99,
		},
		[]types.Review{
			{Text: "Great jeans, love the organic cotton and ethical production story.", Rating: 5},
			{Text: "Durable and comfortable, worth the price.", Rating: 5},
			{Text: "The recycled packaging was a nice surprise.", Rating: 4},
			{Text: "Slightly stiff at first but they break in well.", Rating: 4},
			{Text: "Best sustainable denim I've found.", Rating: 5},
		},
	)

	s.add(
		"B07DEF8901",
		types.Product{
			Title:         "Vintage Straight Leg Jeans",
			Brand:         "DenimCo",
			MaterialsText: "100% Cotton",
			Category:      "Jeans",
			Price:         59.99,
		},
		[]types.Review{
			{Text: "Classic fit, good quality denim.", Rating: 4},
			{Text: "Nothing about where or how these are made. Transparency matters.", Rating: 3},
		},
	)

	s.add(
		"B10GHI2345",
		types.Product{
			Title:         "Recycled Polyester Puffer Jacket",
			Brand:         "EcoOutdoor",
			MaterialsText: "100% Recycled Polyester",
			Category:      "Jacket",
			Price:         129.99,
		},
		[]types.Review{
			{Text: "Warm jacket made from recycled bottles, amazing.", Rating: 5},
			{Text: "Quality construction, should last for years.", Rating: 5},
			{Text: "Worried about microplastics when washing synthetic fabrics.", Rating: 3},
		},
	)

	s.add(
		"B12MNO1234",
		types.Product{
			Title:         "Performance Sports T-Shirt",
			Brand:         "AthleteGear",
			MaterialsText: "Dri-Fit Technology Fabric",
			Category:      "Athletic Wear",
			Price:         34.99,
		},
		[]types.Review{
			{Text: "Wicks sweat well, fits true to size.", Rating: 4},
			{Text: "Feels like cheap plastic, probably all synthetic.", Rating: 2},
		},
	)

	s.add(
		"B13PQR5678",
		types.Product{
			Title:         "Luxury Blend Sweater",
			Brand:         "CashmereElite",
			MaterialsText: "70% Merino Wool, 30% Cashmere",
			Category:      "Sweater",
			Price:         149.99,
		},
		[]types.Review{
			{Text: "Incredibly soft, traceable wool sourcing is a plus.", Rating: 5},
			{Text: "Expensive but the quality justifies it.", Rating: 4},
		},
	)

	return s
}

func (s *FixtureScraper) add(key string, p types.Product, reviews []types.Review) {
	s.keys = append(s.keys, key)
	s.products[key] = p
	s.reviews[key] = reviews
}

func (s *FixtureScraper) lookup(productURL string) (string, bool) {
	for _, key := range s.keys {
		if strings.Contains(productURL, key) {
			return key, true
		}
	}
	return "", false
}

func (s *FixtureScraper) ScrapeProduct(ctx context.Context, productURL string) (types.Product, error) {
	if err := ctx.Err(); err != nil {
		return types.Product{}, err
	}
	key, ok := s.lookup(productURL)
	if !ok {
		return types.Product{}, fmt.Errorf("no fixture product for %s", productURL)
	}
	p := s.products[key]
	p.URL = productURL
	return p, nil
}

func (s *FixtureScraper) ScrapeReviews(ctx context.Context, productURL string) ([]types.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, ok := s.lookup(productURL)
	if !ok {
		return nil, nil
	}
	return append([]types.Review(nil), s.reviews[key]...), nil
}

// FixtureESGDirectory serves a fixed set of brand lookups mirroring the
// fixture catalog's brands.
type FixtureESGDirectory struct {
	results map[string]types.ESGLookupResult
}

func NewFixtureESGDirectory() *FixtureESGDirectory {
	d := &FixtureESGDirectory{results: make(map[string]types.ESGLookupResult)}

	d.results["ecowear"] = types.ESGLookupResult{
		Brand:      "EcoWear",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:      "EcoWear",
			Year:       2023,
			URL:        "https://example.com/ecowear-sustainability-report-2023.pdf",
			HasTargets: true,
			DisclosedMetrics: []string{
				"78% organic cotton share",
				"15% carbon reduction since 2019",
				"22% water reduction",
				"100% tier 1 supplier audits",
			},
			Certifications: []string{"GOTS"},
			Summary:        "Carbon neutral by 2030, 100% organic cotton by 2025, annual supplier audits.",
		},
	}

	d.results["greendenim"] = types.ESGLookupResult{
		Brand:      "GreenDenim",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:      "GreenDenim",
			Year:       2023,
			URL:        "https://example.com/greendenim-esg-report-2023.pdf",
			HasTargets: true,
			DisclosedMetrics: []string{
				"85% water reduction per pair since 2018",
				"50% organic or recycled cotton",
				"100% social compliance audits",
			},
			Certifications: []string{"ZDHC"},
			Summary:        "Living wages in supply chain, hazardous chemicals eliminated, takeback program.",
		},
	}

	d.results["basicthreads"] = types.ESGLookupResult{
		Brand:      "BasicThreads",
		Found:      true,
		Accessible: false,
		News: []types.NewsItem{
			{
				Title:   "BasicThreads Commits to Better Cotton Initiative",
				Source:  "Textile Update",
				Date:    "2023-08-10",
				Summary: "BasicThreads announced it will source 50% of its cotton through the Better Cotton Initiative by 2025.",
			},
			{
				Title:   "Labor Rights Groups Flag Issues at BasicThreads Suppliers",
				Source:  "Supply Chain Monitor",
				Date:    "2023-04-18",
				Summary: "A coalition raised concerns regarding working conditions and wage levels at supplying factories.",
			},
		},
	}

	d.results["denimco"] = types.ESGLookupResult{Brand: "DenimCo", Found: false}

	d.results["ecooutdoor"] = types.ESGLookupResult{
		Brand:      "EcoOutdoor",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:      "EcoOutdoor",
			Year:       2023,
			URL:        "https://example.com/ecooutdoor-impact-report-2023.pdf",
			HasTargets: true,
			DisclosedMetrics: []string{
				"100% recycled polyester",
				"75% renewable energy",
				"plastic-free packaging",
			},
			Certifications: []string{"Carbon Neutral Certified", "1% for the Planet"},
			Summary:        "PFC-free treatments, lifetime repair guarantee, carbon neutral value chain.",
		},
	}

	d.results["athletegear"] = types.ESGLookupResult{
		Brand:      "AthleteGear",
		Found:      true,
		Accessible: false,
		News: []types.NewsItem{
			{
				Title:   "AthleteGear Faces Greenwashing Accusations",
				Source:  "Consumer Watch",
				Date:    "2023-09-30",
				Summary: "Consumer groups raised concerns over eco-friendly claims lacking verifiable data.",
			},
		},
	}

	d.results["cashmereelite"] = types.ESGLookupResult{
		Brand:      "CashmereElite",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:      "CashmereElite",
			Year:       2023,
			URL:        "https://example.com/cashmereelite-responsibility-report.pdf",
			HasTargets: false,
			DisclosedMetrics: []string{
				"100% traceable cashmere",
			},
			Certifications: []string{"RWS", "Good Cashmere Standard"},
			Summary:        "Traceable sourcing, sustainable grazing partnerships, fiber recycling program.",
		},
	}

	return d
}

func (d *FixtureESGDirectory) FindReport(ctx context.Context, brand string) (types.ESGLookupResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ESGLookupResult{}, err
	}
	key := strings.ToLower(strings.ReplaceAll(brand, " ", ""))
	if r, ok := d.results[key]; ok {
		return r, nil
	}
	return types.ESGLookupResult{Brand: brand, Found: false}, nil
}
