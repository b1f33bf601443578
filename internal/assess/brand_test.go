package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecothreads/threadscore/internal/types"
)

func TestBrandScoreNotFound(t *testing.T) {
	s := NewBrandScorer()
	score := s.Score(types.ESGLookupResult{Brand: "DenimCo", Found: false})
	assert.False(t, score.Available)
	assert.Equal(t, ConfidenceLow, score.Confidence)
	assert.Contains(t, score.Evidence[0], "DenimCo")
}

func TestBrandScoreStrongReport(t *testing.T) {
	s := NewBrandScorer()
	score := s.Score(types.ESGLookupResult{
		Brand:      "EcoWear",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:            "EcoWear",
			HasTargets:       true,
			DisclosedMetrics: []string{"carbon emissions", "water usage", "organic cotton share", "supplier audits"},
			Certifications:   []string{"GOTS", "Fairtrade"},
		},
	})

	require.True(t, score.Available)
	// 5.0 base, +1.5 targets, +2.0 metrics (capped), +1.0 certifications.
	assert.InDelta(t, 9.5, score.Rating, 1e-9)
	assert.Equal(t, ConfidenceHigh, score.Confidence)
}

func TestBrandScoreControversyCapsRating(t *testing.T) {
	s := NewBrandScorer()
	score := s.Score(types.ESGLookupResult{
		Brand:      "BasicThreads",
		Found:      true,
		Accessible: true,
		Report: &types.ESGReport{
			Brand:            "BasicThreads",
			HasTargets:       true,
			DisclosedMetrics: []string{"carbon emissions", "water usage", "audits"},
			Certifications:   []string{"BCI"},
			Controversies:    []string{"wage violations reported at tier 2 suppliers"},
		},
	})

	require.True(t, score.Available)
	assert.Equal(t, ControversyCeiling, score.Rating)
	assert.Contains(t, joinEvidence(score.Evidence), "unresolved controversy")
	// Positive evidence survives even when the cap applies.
	assert.Contains(t, joinEvidence(score.Evidence), "numerical targets")
}

func TestBrandScoreModestReport(t *testing.T) {
	s := NewBrandScorer()
	score := s.Score(types.ESGLookupResult{
		Brand:      "NorthStyle",
		Found:      true,
		Accessible: true,
		Report:     &types.ESGReport{Brand: "NorthStyle"},
	})

	require.True(t, score.Available)
	assert.InDelta(t, 5.0, score.Rating, 1e-9)
	assert.Equal(t, ConfidenceMedium, score.Confidence)
	assert.Contains(t, joinEvidence(score.Evidence), "no measurable targets")
}

func TestBrandScoreNewsFallback(t *testing.T) {
	s := NewBrandScorer()
	tests := []struct {
		name   string
		news   []types.NewsItem
		rating float64
	}{
		{
			name: "positive coverage",
			news: []types.NewsItem{
				{Title: "Low Impact Line", Source: "Fashion Daily", Date: "2023-09-15", Summary: "The brand announced a collection reducing water use."},
			},
			rating: 7.5,
		},
		{
			name: "mixed coverage",
			news: []types.NewsItem{
				{Title: "New Initiative", Source: "Textile Update", Date: "2023-08-10", Summary: "The company announced a sourcing commitment."},
				{Title: "Labor Flags", Source: "Supply Chain Monitor", Date: "2023-04-18", Summary: "Groups raised concerns about working conditions."},
			},
			rating: 5.0,
		},
		{
			name: "negative coverage",
			news: []types.NewsItem{
				{Title: "Greenwashing Claims", Source: "Consumer Watch", Date: "2023-09-30", Summary: "Advocacy groups raised concerns over unverified claims."},
			},
			rating: 2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := s.Score(types.ESGLookupResult{
				Brand: "SomeBrand",
				Found: true,
				News:  tt.news,
			})
			require.True(t, score.Available)
			assert.Equal(t, ConfidenceLow, score.Confidence)
			assert.InDelta(t, tt.rating, score.Rating, 1e-9)
			assert.Contains(t, score.Evidence[0], "inaccessible")
		})
	}
}

func TestBrandScoreInaccessibleWithoutNews(t *testing.T) {
	s := NewBrandScorer()
	score := s.Score(types.ESGLookupResult{Brand: "NorthStyle", Found: true, Accessible: false})
	assert.False(t, score.Available)
	assert.Contains(t, score.Evidence[0], "could not be retrieved")
}
