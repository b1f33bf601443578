package assess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ecothreads/threadscore/internal/textile"
)

// MaterialScorer rates a product's fiber composition against the scorecard
// table. Pure lookup and arithmetic; the table is shared read-only.
type MaterialScorer struct {
	table *textile.Table
}

func NewMaterialScorer(table *textile.Table) *MaterialScorer {
	return &MaterialScorer{table: table}
}

// AxisRating collapses an impact vector to a 0-10 rating. Axis scores measure
// impact (lower is better), so each axis is inverted before weighting.
func AxisRating(v textile.ImpactVector) float64 {
	rating := 0.0
	for a, w := range AxisWeights {
		rating += w * (10 - v[a]/10)
	}
	return clampRating(rating)
}

type matchedComponent struct {
	component textile.BlendComponent
	entry     *textile.MaterialEntry
	name      textile.NormalizedName
}

// Score rates a parsed blend. Fractions of matched components are
// re-normalized over the matched mass and combined into one fraction-weighted
// impact vector, which the rating collapses; unmatched components become
// evidence, never zeros.
func (s *MaterialScorer) Score(components []textile.BlendComponent) SourceScore {
	if len(components) == 0 {
		return Unavailable(SourceMaterial, "no material composition could be determined for this product")
	}

	var (
		matched     []matchedComponent
		matchedMass float64
		evidence    []string
	)
	for _, c := range components {
		if c.Fraction <= 0 {
			continue
		}
		entry, name, ok := s.table.Lookup(c.Material)
		if !ok {
			evidence = append(evidence, fmt.Sprintf("%s (%.0f%%) is not covered by the scorecard and was excluded", c.Material, c.Fraction*100))
			continue
		}
		matched = append(matched, matchedComponent{component: c, entry: entry, name: name})
		matchedMass += c.Fraction
	}

	if len(matched) == 0 || matchedMass <= 0 {
		ev := append([]string{"no components matched the scorecard"}, evidence...)
		out := Unavailable(SourceMaterial, ev[0])
		out.Evidence = ev
		return out
	}

	aggregate := make(textile.ImpactVector, len(textile.Axes))
	for _, m := range matched {
		share := m.component.Fraction / matchedMass
		for _, a := range textile.Axes {
			aggregate[a] += share * m.entry.Impact[a]
		}

		line := fmt.Sprintf("%s: %.0f%% of matched mass, fiber rating %.1f", m.entry.Name, share*100, AxisRating(m.entry.Impact))
		if len(m.name.Modifiers) > 0 {
			line += fmt.Sprintf(" (%s)", strings.Join(m.name.Modifiers, ", "))
		}
		evidence = append(evidence, line)
	}

	if len(matched) >= 2 {
		names := make([]string, len(matched))
		for i, m := range matched {
			names[i] = m.entry.Name
		}
		evidence = append(evidence, fmt.Sprintf("blend of %d recognized fibers: %s", len(matched), strings.Join(names, ", ")))
	}

	if cert := topCertification(matched); cert != "" {
		evidence = append(evidence, fmt.Sprintf("look for %s certification on the dominant fiber", cert))
	}

	conf := ConfidenceLow
	switch {
	case matchedMass >= 0.9:
		conf = ConfidenceHigh
	case matchedMass >= 0.5:
		conf = ConfidenceMedium
	}

	return SourceScore{
		Source:     SourceMaterial,
		Rating:     AxisRating(aggregate),
		Confidence: conf,
		Evidence:   evidence,
		Available:  true,
		Impact:     aggregate,
	}
}

// topCertification returns the best-ranked standard of the highest-mass
// matched fiber that has one.
func topCertification(matched []matchedComponent) string {
	byMass := make([]matchedComponent, len(matched))
	copy(byMass, matched)
	sort.SliceStable(byMass, func(i, j int) bool {
		return byMass[i].component.Fraction > byMass[j].component.Fraction
	})
	for _, m := range byMass {
		if len(m.entry.Certifications) > 0 {
			return m.entry.Certifications[0]
		}
	}
	return ""
}
