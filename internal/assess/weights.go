package assess

import (
	"fmt"
	"math"

	"github.com/ecothreads/threadscore/internal/textile"
)

// Depth selects how much weight each perspective carries in synthesis.
type Depth string

const (
	DepthBasic         Depth = "basic"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

// ParseDepth resolves the request-level depth string. Empty defaults to
// standard; anything else unrecognized is an error.
func ParseDepth(s string) (Depth, error) {
	switch Depth(s) {
	case DepthBasic, DepthStandard, DepthComprehensive:
		return Depth(s), nil
	case "":
		return DepthStandard, nil
	default:
		return "", fmt.Errorf("unknown analysis depth %q", s)
	}
}

// DepthWeights assigns each perspective its share of the overall rating per
// depth. Each depth's weights sum to 1; synthesis re-normalizes over the
// sources that are actually available.
var DepthWeights = map[Depth]map[Source]float64{
	DepthBasic: {
		SourceMaterial: 0.80,
		SourceBrand:    0.15,
		SourceConsumer: 0.05,
	},
	DepthStandard: {
		SourceMaterial: 0.50,
		SourceBrand:    0.30,
		SourceConsumer: 0.20,
	},
	DepthComprehensive: {
		SourceMaterial: 0.40,
		SourceBrand:    0.35,
		SourceConsumer: 0.25,
	},
}

// AxisWeights collapses the eight impact axes into a single material rating.
// Sums to 1.
var AxisWeights = map[textile.Axis]float64{
	textile.AxisClimate:      0.20,
	textile.AxisWater:        0.15,
	textile.AxisChemistry:    0.15,
	textile.AxisLand:         0.10,
	textile.AxisBiodiversity: 0.10,
	textile.AxisResource:     0.10,
	textile.AxisHumanRights:  0.15,
	textile.AxisIntegrity:    0.05,
}

const (
	// ConflictThreshold is the rating gap beyond which two sources may be in
	// conflict.
	ConflictThreshold = 3.0
	// GoodBand and PoorBand bound the opposite-band test: a gap only counts
	// as a conflict when one source is at or above GoodBand and the other at
	// or below PoorBand.
	GoodBand = 6.0
	PoorBand = 4.0
	// ControversyCeiling caps the brand rating whenever the report carries an
	// unresolved controversy, applied after all positive contributions.
	ControversyCeiling = 4.0
	// MinMentionFraction gates review keyword insights: a theme must appear
	// in at least this fraction of reviews to be reported.
	MinMentionFraction = 0.25
)

const weightEpsilon = 1e-9

// ValidateWeights checks the weight tables at startup: every depth weight and
// axis weight non-negative, each depth summing to 1, axis weights summing
// to 1. A violation is a build error in the tables and aborts the process.
func ValidateWeights() error {
	for _, d := range []Depth{DepthBasic, DepthStandard, DepthComprehensive} {
		w, ok := DepthWeights[d]
		if !ok {
			return fmt.Errorf("depth %s has no weight row", d)
		}
		sum := 0.0
		for _, src := range Sources {
			v, ok := w[src]
			if !ok {
				return fmt.Errorf("depth %s missing weight for source %s", d, src)
			}
			if v < 0 {
				return fmt.Errorf("depth %s has negative weight %.3f for source %s", d, v, src)
			}
			sum += v
		}
		if math.Abs(sum-1.0) > weightEpsilon {
			return fmt.Errorf("depth %s weights sum to %.6f, want 1", d, sum)
		}
	}

	axisSum := 0.0
	for _, a := range textile.Axes {
		v, ok := AxisWeights[a]
		if !ok {
			return fmt.Errorf("axis %s has no weight", a)
		}
		if v < 0 {
			return fmt.Errorf("axis %s has negative weight %.3f", a, v)
		}
		axisSum += v
	}
	if math.Abs(axisSum-1.0) > weightEpsilon {
		return fmt.Errorf("axis weights sum to %.6f, want 1", axisSum)
	}
	return nil
}
