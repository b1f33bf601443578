package textile

// Axis is one of the eight sustainability impact dimensions tracked by the
// Preferred Fiber and Material Matrix scorecard. Axis scores run 0-100 where
// lower raw impact is better.
type Axis string

const (
	AxisClimate      Axis = "climate"
	AxisWater        Axis = "water"
	AxisChemistry    Axis = "chemistry"
	AxisLand         Axis = "land"
	AxisBiodiversity Axis = "biodiversity"
	AxisResource     Axis = "resource"
	AxisHumanRights  Axis = "human_rights"
	AxisIntegrity    Axis = "integrity"
)

// Axes is the fixed axis set, in scorecard column order.
var Axes = []Axis{
	AxisClimate,
	AxisWater,
	AxisChemistry,
	AxisLand,
	AxisBiodiversity,
	AxisResource,
	AxisHumanRights,
	AxisIntegrity,
}

// ImpactVector maps every axis to a 0-100 score.
type ImpactVector map[Axis]float64

// Clone returns an independent copy so aggregates never alias table data.
func (v ImpactVector) Clone() ImpactVector {
	out := make(ImpactVector, len(v))
	for a, s := range v {
		out[a] = s
	}
	return out
}

// MaterialEntry is one row of the reference table: a canonical fiber with its
// per-axis impact scores and the certification standards available for it,
// best-scoring first. Entries are immutable after load.
type MaterialEntry struct {
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	Impact         ImpactVector `json:"impact"`
	Certifications []string     `json:"certifications,omitempty"`
}

// BlendComponent is one named fraction of a product's declared composition.
// Fractions are in [0,1] and need not sum to 1 (trims and linings are often
// untracked).
type BlendComponent struct {
	Material string  `json:"material"`
	Fraction float64 `json:"fraction"`
}
