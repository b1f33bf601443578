package assess

import (
	"fmt"
	"strings"

	"github.com/ecothreads/threadscore/internal/types"
)

// Indicator contributions for an accessible report. Starting from a neutral
// baseline, verified commitments and disclosures add; unresolved
// controversies cap the result afterwards.
const (
	brandBaseline   = 5.0
	targetsBonus    = 1.5
	perMetricBonus  = 0.5
	metricsBonusCap = 2.0
	perCertBonus    = 0.5
	certBonusCap    = 1.5
)

// News sentiment keywords, used only by the digest fallback when a report
// exists but cannot be read.
var (
	newsPositive = []string{"announce", "commit", "launch", "improve", "success", "achieve", "reduce"}
	newsNegative = []string{"criticism", "concern", "fail", "greenwash", "accus", "issue", "problem"}
)

// BrandScorer rates a brand from its ESG directory lookup.
type BrandScorer struct{}

func NewBrandScorer() *BrandScorer { return &BrandScorer{} }

// Score turns a directory lookup into a source score. Not found means no
// signal, not a bad brand. An inaccessible report falls back to the news
// digest when one was retrieved.
func (s *BrandScorer) Score(result types.ESGLookupResult) SourceScore {
	if !result.Found {
		return Unavailable(SourceBrand, fmt.Sprintf("no sustainability report or disclosure found for %s", result.Brand))
	}
	if result.Accessible && result.Report != nil {
		return s.scoreReport(result.Report)
	}
	if len(result.News) > 0 {
		return s.scoreNewsDigest(result.Brand, result.News)
	}
	return Unavailable(SourceBrand, fmt.Sprintf("a report exists for %s but could not be retrieved", result.Brand))
}

func (s *BrandScorer) scoreReport(r *types.ESGReport) SourceScore {
	rating := brandBaseline
	var evidence []string

	if r.HasTargets {
		rating += targetsBonus
		evidence = append(evidence, "report sets numerical targets with deadlines")
	} else {
		evidence = append(evidence, "report states no measurable targets")
	}

	if n := len(r.DisclosedMetrics); n > 0 {
		bonus := perMetricBonus * float64(n)
		if bonus > metricsBonusCap {
			bonus = metricsBonusCap
		}
		rating += bonus
		evidence = append(evidence, fmt.Sprintf("discloses %d quantified metrics: %s", n, strings.Join(r.DisclosedMetrics, ", ")))
	}

	if n := len(r.Certifications); n > 0 {
		bonus := perCertBonus * float64(n)
		if bonus > certBonusCap {
			bonus = certBonusCap
		}
		rating += bonus
		evidence = append(evidence, fmt.Sprintf("holds third-party certifications: %s", strings.Join(r.Certifications, ", ")))
	}

	rating = clampRating(rating)

	// Controversies are a ceiling, not a deduction: a brand with unresolved
	// issues cannot score above the cap no matter how polished the report.
	if len(r.Controversies) > 0 {
		if rating > ControversyCeiling {
			rating = ControversyCeiling
		}
		for _, c := range r.Controversies {
			evidence = append(evidence, "unresolved controversy: "+c)
		}
	}

	conf := ConfidenceMedium
	if r.HasTargets && len(r.DisclosedMetrics) >= 3 {
		conf = ConfidenceHigh
	}

	return SourceScore{
		Source:     SourceBrand,
		Rating:     rating,
		Confidence: conf,
		Evidence:   evidence,
		Available:  true,
	}
}

// scoreNewsDigest rates a brand from recent sustainability coverage: net
// keyword sentiment per article, centered on 5 and scaled by 2.5.
func (s *BrandScorer) scoreNewsDigest(brand string, news []types.NewsItem) SourceScore {
	net := 0
	evidence := []string{fmt.Sprintf("report for %s inaccessible, rating derived from %d news items", brand, len(news))}
	for _, item := range news {
		text := strings.ToLower(item.Summary)
		if containsAny(text, newsPositive) {
			net++
		}
		if containsAny(text, newsNegative) {
			net--
		}
		evidence = append(evidence, fmt.Sprintf("%s (%s, %s)", item.Title, item.Source, item.Date))
	}

	rating := 5.0 + float64(net)/float64(len(news))*2.5
	if rating < 1 {
		rating = 1
	}
	rating = clampRating(rating)

	return SourceScore{
		Source:     SourceBrand,
		Rating:     rating,
		Confidence: ConfidenceLow,
		Evidence:   evidence,
		Available:  true,
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
