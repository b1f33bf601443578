package assess

import (
	"fmt"
	"strings"

	"github.com/ecothreads/threadscore/internal/types"
)

// reviewThemes are the sustainability topics surfaced from review text. A
// theme becomes an insight only when mentioned in at least MinMentionFraction
// of the reviews.
var reviewThemes = map[string][]string{
	"materials":  {"organic", "recycled", "sustainable", "synthetic", "plastic", "natural", "chemical"},
	"ethics":     {"ethical", "factory", "working conditions", "labor", "fair trade", "sweatshop"},
	"durability": {"quality", "durable", "lasted", "falling apart", "wear out", "long-lasting"},
	"packaging":  {"packaging", "excessive", "waste", "recyclable", "minimal"},
}

// ReviewScorer aggregates per-review sentiment into the consumer perspective.
// Sentiment scoring itself happens in the collaborator; this stage is pure
// aggregation over the supplied values.
type ReviewScorer struct{}

func NewReviewScorer() *ReviewScorer { return &ReviewScorer{} }

// Score averages the supplied sentiments (0-10, index-aligned with reviews)
// and mines the review text for recurring themes.
func (s *ReviewScorer) Score(reviews []types.Review, sentiments []float64) SourceScore {
	if len(reviews) == 0 {
		return Unavailable(SourceConsumer, "no consumer reviews available for this product")
	}
	if len(sentiments) != len(reviews) {
		return Unavailable(SourceConsumer, fmt.Sprintf("sentiment scoring returned %d values for %d reviews", len(sentiments), len(reviews)))
	}

	sum := 0.0
	for _, v := range sentiments {
		sum += clampRating(v)
	}
	rating := sum / float64(len(sentiments))

	evidence := []string{fmt.Sprintf("aggregated sustainability sentiment across %d reviews", len(reviews))}
	evidence = append(evidence, themeInsights(reviews)...)

	conf := ConfidenceLow
	switch {
	case len(reviews) >= 20:
		conf = ConfidenceHigh
	case len(reviews) >= 5:
		conf = ConfidenceMedium
	}

	return SourceScore{
		Source:     SourceConsumer,
		Rating:     clampRating(rating),
		Confidence: conf,
		Evidence:   evidence,
		Available:  true,
	}
}

func themeInsights(reviews []types.Review) []string {
	counts := make(map[string]int, len(reviewThemes))
	for _, r := range reviews {
		text := strings.ToLower(r.Text)
		for theme, words := range reviewThemes {
			if containsAny(text, words) {
				counts[theme]++
			}
		}
	}

	var out []string
	threshold := MinMentionFraction * float64(len(reviews))
	// Fixed order keeps the output stable across runs.
	for _, theme := range []string{"materials", "ethics", "durability", "packaging"} {
		if n := counts[theme]; float64(n) >= threshold && n > 0 {
			out = append(out, fmt.Sprintf("%d of %d reviews mention %s", n, len(reviews), theme))
		}
	}
	return out
}
