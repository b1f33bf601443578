package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func available(src Source, rating float64) SourceScore {
	return SourceScore{Source: src, Rating: rating, Confidence: ConfidenceMedium, Available: true}
}

func TestSynthesizeAllSourcesStandard(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		available(SourceMaterial, 8.0),
		available(SourceBrand, 6.0),
		available(SourceConsumer, 5.0),
	})
	require.NoError(t, err)
	// 0.5*8 + 0.3*6 + 0.2*5 = 6.8
	assert.Equal(t, 6.8, a.OverallRating)
	assert.Len(t, a.Sources, 3)
	assert.Empty(t, a.Conflicts)
}

func TestSynthesizeRenormalizesOverAvailable(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		Unavailable(SourceMaterial, "no composition"),
		available(SourceBrand, 5.0),
		available(SourceConsumer, 8.0),
	})
	require.NoError(t, err)
	// Brand and consumer re-normalize to 0.6 and 0.4: 0.6*5 + 0.4*8 = 6.2.
	assert.Equal(t, 6.2, a.OverallRating)
}

func TestSynthesizeSingleSourcePassthrough(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthComprehensive, []SourceScore{
		Unavailable(SourceMaterial, "none"),
		Unavailable(SourceBrand, "none"),
		available(SourceConsumer, 6.4),
	})
	require.NoError(t, err)
	assert.Equal(t, 6.4, a.OverallRating)
}

func TestSynthesizeNoSources(t *testing.T) {
	e := NewEngine()
	_, err := e.Synthesize(DepthBasic, []SourceScore{
		Unavailable(SourceMaterial, "none"),
		Unavailable(SourceBrand, "none"),
		Unavailable(SourceConsumer, "none"),
	})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSynthesizeUnknownDepth(t *testing.T) {
	e := NewEngine()
	_, err := e.Synthesize(Depth("deep"), []SourceScore{available(SourceMaterial, 5)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientData)
}

func TestSynthesizeRoundsToOneDecimal(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		available(SourceMaterial, 7.77),
		available(SourceBrand, 6.33),
		available(SourceConsumer, 5.11),
	})
	require.NoError(t, err)
	// 0.5*7.77 + 0.3*6.33 + 0.2*5.11 = 6.806 -> 6.8
	assert.Equal(t, 6.8, a.OverallRating)
}

func TestSynthesizeConflictDetection(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		available(SourceMaterial, 7.5),
		available(SourceBrand, 2.6),
		Unavailable(SourceConsumer, "none"),
	})
	require.NoError(t, err)

	require.Len(t, a.Conflicts, 1)
	c := a.Conflicts[0]
	assert.Equal(t, SourceMaterial, c.Higher)
	assert.Equal(t, SourceBrand, c.Lower)
	assert.Equal(t, 7.5, c.HighRating)
	assert.Equal(t, 2.6, c.LowRating)
	assert.Contains(t, c.Resolution, "material")

	// Conflict shapes narrative only; weighting is untouched.
	// 0.625*7.5 + 0.375*2.6 = 5.6625 -> 5.7
	assert.Equal(t, 5.7, a.OverallRating)
}

func TestSynthesizeGapWithoutOppositeBandsIsNoConflict(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		available(SourceMaterial, 9.5),
		available(SourceBrand, 5.9),
		Unavailable(SourceConsumer, "none"),
	})
	require.NoError(t, err)
	assert.Empty(t, a.Conflicts)
}

func TestSynthesizeBrandConsumerConflictFavorsBrand(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		Unavailable(SourceMaterial, "none"),
		available(SourceBrand, 3.0),
		available(SourceConsumer, 8.0),
	})
	require.NoError(t, err)

	require.Len(t, a.Conflicts, 1)
	c := a.Conflicts[0]
	assert.Equal(t, SourceConsumer, c.Higher)
	assert.Equal(t, SourceBrand, c.Lower)
	assert.Contains(t, c.Resolution, "brand disclosures")
}

func TestSynthesizeConflictIgnoresUnavailable(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		available(SourceMaterial, 8.0),
		SourceScore{Source: SourceBrand, Rating: 1.0, Available: false},
	})
	require.NoError(t, err)
	assert.Empty(t, a.Conflicts)
	assert.Equal(t, 8.0, a.OverallRating)
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	e := NewEngine()
	in := []SourceScore{
		available(SourceMaterial, 7.2),
		available(SourceBrand, 4.1),
		available(SourceConsumer, 6.6),
	}
	first, err := e.Synthesize(DepthComprehensive, in)
	require.NoError(t, err)
	second, err := e.Synthesize(DepthComprehensive, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSynthesizeOverallConfidenceIsWeakestAvailable(t *testing.T) {
	e := NewEngine()
	a, err := e.Synthesize(DepthStandard, []SourceScore{
		{Source: SourceMaterial, Rating: 8, Confidence: ConfidenceHigh, Available: true},
		{Source: SourceBrand, Rating: 6, Confidence: ConfidenceMedium, Available: true},
		{Source: SourceConsumer, Rating: 5, Confidence: ConfidenceLow, Available: false},
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceMedium, a.Confidence)
}
