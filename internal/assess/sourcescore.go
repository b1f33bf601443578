package assess

import "github.com/ecothreads/threadscore/internal/textile"

// Source identifies one of the three scoring perspectives.
type Source string

const (
	SourceMaterial Source = "material"
	SourceBrand    Source = "brand"
	SourceConsumer Source = "consumer"
)

// Sources lists the perspectives in synthesis order.
var Sources = []Source{SourceMaterial, SourceBrand, SourceConsumer}

// Confidence grades how much signal backed a source's rating.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// SourceScore is the uniform output of every scorer. Rating runs 0-10, higher
// is better. Available=false means the source produced no usable signal and
// must be excluded from synthesis weighting, never treated as a zero rating.
type SourceScore struct {
	Source     Source     `json:"source"`
	Rating     float64    `json:"rating"`
	Confidence Confidence `json:"confidence"`
	Evidence   []string   `json:"evidence"`
	Available  bool       `json:"available"`

	// Impact is the fraction-weighted per-axis aggregate behind the rating.
	// Material source only; nil for brand and consumer scores.
	Impact textile.ImpactVector `json:"impact,omitempty"`
}

// Unavailable builds the no-signal score for a source with an explaining
// evidence line.
func Unavailable(src Source, reason string) SourceScore {
	return SourceScore{
		Source:     src,
		Confidence: ConfidenceLow,
		Evidence:   []string{reason},
		Available:  false,
	}
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 10 {
		return 10
	}
	return r
}
