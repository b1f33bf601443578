package types

import "time"

// Product is the scrape result for a single apparel listing. MaterialsText is
// the raw composition string as it appears on the page ("95% Cotton, 5%
// Elastane"); parsing happens downstream.
type Product struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Brand         string  `json:"brand"`
	MaterialsText string  `json:"materials_text"`
	Category      string  `json:"category"`
	Price         float64 `json:"price,omitempty"`
}

// Review is a single consumer review as fetched from the product page.
type Review struct {
	Text   string  `json:"text"`
	Rating float64 `json:"rating,omitempty"`
	Date   string  `json:"date,omitempty"`
}

// ESGReport holds the recognized sustainability indicators parsed out of a
// brand's published report. Only these fields participate in scoring.
type ESGReport struct {
	Brand            string   `json:"brand"`
	Year             int      `json:"year"`
	URL              string   `json:"url,omitempty"`
	HasTargets       bool     `json:"has_targets"`
	DisclosedMetrics []string `json:"disclosed_metrics"`
	Certifications   []string `json:"certifications"`
	Controversies    []string `json:"controversies"`
	Summary          string   `json:"summary,omitempty"`
}

// NewsItem is a sustainability news mention used when a brand has no
// accessible report.
type NewsItem struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// ESGLookupResult is the contract of the ESG directory collaborator: either a
// structured report, a news digest, or an explicit not-found signal.
type ESGLookupResult struct {
	Brand       string     `json:"brand"`
	Found       bool       `json:"found"`
	Accessible  bool       `json:"accessible"`
	Report      *ESGReport `json:"report,omitempty"`
	News        []NewsItem `json:"news,omitempty"`
	RetrievedAt time.Time  `json:"retrieved_at,omitempty"`
}

// AssessRequest is the body of POST /api/v1/assessments.
type AssessRequest struct {
	URL   string `json:"url" binding:"required"`
	Depth string `json:"depth,omitempty"`
}
