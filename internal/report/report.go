// Package report renders a finished assessment as human-readable text.
package report

import (
	"fmt"
	"strings"

	"github.com/ecothreads/threadscore/internal/assess"
)

// Band labels a rating range for display.
type Band struct {
	Floor float64
	Label string
}

// bands are checked in order; the first floor the rating clears wins.
var bands = []Band{
	{9, "Excellent"},
	{8, "Very Good"},
	{7, "Good"},
	{6, "Above Average"},
	{5, "Average"},
	{4, "Below Average"},
	{3, "Poor"},
}

// BandLabel maps an overall rating to its display band.
func BandLabel(rating float64) string {
	for _, b := range bands {
		if rating >= b.Floor {
			return b.Label
		}
	}
	return "Very Poor"
}

// Render writes the assessment as a plain-text report. Everything in the
// output comes from the assessment itself; rendering never recomputes scores.
func Render(a assess.Assessment) string {
	var sb strings.Builder

	title := a.ProductTitle
	if title == "" {
		title = a.ProductURL
	}
	fmt.Fprintf(&sb, "Sustainability Assessment: %s\n", title)
	if a.Brand != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", a.Brand)
	}
	fmt.Fprintf(&sb, "Depth: %s\n", a.Depth)
	fmt.Fprintf(&sb, "\nOverall Rating: %.1f/10 (%s)\n", a.OverallRating, BandLabel(a.OverallRating))
	fmt.Fprintf(&sb, "Confidence: %s\n", a.Confidence)

	for _, s := range a.Sources {
		fmt.Fprintf(&sb, "\n[%s]\n", strings.ToUpper(string(s.Source)))
		if !s.Available {
			sb.WriteString("  unavailable")
			if len(s.Evidence) > 0 {
				fmt.Fprintf(&sb, ": %s", s.Evidence[0])
			}
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(&sb, "  rating: %.1f/10, confidence: %s\n", s.Rating, s.Confidence)
		for _, line := range s.Evidence {
			fmt.Fprintf(&sb, "  - %s\n", line)
		}
	}

	if len(a.Conflicts) > 0 {
		sb.WriteString("\nConflicting signals:\n")
		for _, c := range a.Conflicts {
			fmt.Fprintf(&sb, "  - %s rates %.1f while %s rates %.1f: %s\n",
				c.Higher, c.HighRating, c.Lower, c.LowRating, c.Resolution)
		}
	}

	return sb.String()
}
