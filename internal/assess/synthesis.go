package assess

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientData reports that no source produced a usable signal, so no
// overall rating can be computed.
var ErrInsufficientData = errors.New("insufficient data: no scoring source was available")

// ConflictRecord captures a pair of available sources that disagree sharply:
// a gap above ConflictThreshold with the two ratings in opposite bands.
// Conflicts shape the narrative only; the weighted rating is unaffected.
type ConflictRecord struct {
	Higher     Source  `json:"higher"`
	Lower      Source  `json:"lower"`
	HighRating float64 `json:"high_rating"`
	LowRating  float64 `json:"low_rating"`
	Resolution string  `json:"resolution"`
}

// Assessment is the synthesized result. ID and CreatedAt are assigned by the
// pipeline; synthesis itself is pure.
type Assessment struct {
	ID            string           `json:"id,omitempty"`
	ProductURL    string           `json:"product_url,omitempty"`
	ProductTitle  string           `json:"product_title,omitempty"`
	Brand         string           `json:"brand,omitempty"`
	Depth         Depth            `json:"depth"`
	OverallRating float64          `json:"overall_rating"`
	Confidence    Confidence       `json:"confidence"`
	Sources       []SourceScore    `json:"sources"`
	Conflicts     []ConflictRecord `json:"conflicts,omitempty"`
	CreatedAt     time.Time        `json:"created_at,omitempty"`
}

// Engine combines the three source scores into one assessment.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Synthesize computes the overall rating as a convex combination of the
// available sources' ratings, with the depth weights re-normalized over the
// available set. Deterministic and side-effect free: the same inputs always
// produce the same assessment.
func (e *Engine) Synthesize(depth Depth, scores []SourceScore) (Assessment, error) {
	weights, ok := DepthWeights[depth]
	if !ok {
		return Assessment{}, fmt.Errorf("unknown analysis depth %q", depth)
	}

	totalWeight := 0.0
	for _, s := range scores {
		if s.Available {
			totalWeight += weights[s.Source]
		}
	}
	if totalWeight <= 0 {
		return Assessment{}, ErrInsufficientData
	}

	overall := 0.0
	for _, s := range scores {
		if s.Available {
			overall += weights[s.Source] / totalWeight * s.Rating
		}
	}

	out := Assessment{
		Depth:         depth,
		OverallRating: math.Round(overall*10) / 10,
		Confidence:    overallConfidence(scores),
		Sources:       append([]SourceScore(nil), scores...),
		Conflicts:     detectConflicts(scores),
	}
	return out, nil
}

// overallConfidence is the weakest confidence among available sources.
func overallConfidence(scores []SourceScore) Confidence {
	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}
	lowest := ConfidenceHigh
	for _, s := range scores {
		if s.Available && rank[s.Confidence] < rank[lowest] {
			lowest = s.Confidence
		}
	}
	return lowest
}

// detectConflicts runs the pairwise test over available sources in the fixed
// source order, so output ordering is stable.
func detectConflicts(scores []SourceScore) []ConflictRecord {
	bySource := make(map[Source]SourceScore, len(scores))
	for _, s := range scores {
		if s.Available {
			bySource[s.Source] = s
		}
	}

	var out []ConflictRecord
	for i := 0; i < len(Sources); i++ {
		for j := i + 1; j < len(Sources); j++ {
			a, okA := bySource[Sources[i]]
			b, okB := bySource[Sources[j]]
			if !okA || !okB {
				continue
			}
			hi, lo := a, b
			if lo.Rating > hi.Rating {
				hi, lo = lo, hi
			}
			if hi.Rating-lo.Rating <= ConflictThreshold {
				continue
			}
			if hi.Rating < GoodBand || lo.Rating > PoorBand {
				continue
			}
			out = append(out, ConflictRecord{
				Higher:     hi.Source,
				Lower:      lo.Source,
				HighRating: hi.Rating,
				LowRating:  lo.Rating,
				Resolution: resolveConflict(hi.Source, lo.Source),
			})
		}
	}
	return out
}

// resolveConflict phrases which perspective the narrative trusts. Measured
// fiber data beats both reported and perceived performance; documented brand
// disclosures beat review sentiment.
func resolveConflict(higher, lower Source) string {
	favored := SourceMaterial
	if higher != SourceMaterial && lower != SourceMaterial {
		favored = SourceBrand
	}
	other := lower
	if favored == lower {
		other = higher
	}
	switch favored {
	case SourceMaterial:
		return fmt.Sprintf("material analysis is grounded in measured fiber data and takes precedence over the %s perspective", other)
	default:
		return fmt.Sprintf("documented brand disclosures take precedence over the %s perspective", other)
	}
}
