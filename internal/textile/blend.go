package textile

import (
	"regexp"
	"strconv"
	"strings"
)

// Composition strings come in three shapes seen on retail pages:
//
//	"95% Cotton, 5% Elastane"   (percent first)
//	"Cotton 95%, Elastane 5%"   (percent last)
//	"Cotton, Elastane"          (no percentages)
var (
	pctFirstRe = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*%\s*([a-z][a-z \-]*[a-z])`)
	pctLastRe  = regexp.MustCompile(`(?i)([a-z][a-z \-]*[a-z])\s+(\d{1,3}(?:\.\d+)?)\s*%`)
	splitRe    = regexp.MustCompile(`[,;/]|\band\b`)
)

// ParseBlend extracts blend components from a raw composition string.
// Percentages become fractions in [0,1]; when the text carries material names
// but no percentages, mass is split evenly. An empty or signal-free string
// returns nil, which callers treat as "ask the inference fallback".
func ParseBlend(text string) []BlendComponent {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := pctFirstRe.FindAllStringSubmatch(text, -1); len(m) > 0 {
		out := make([]BlendComponent, 0, len(m))
		for _, g := range m {
			pct, err := strconv.ParseFloat(g[1], 64)
			if err != nil || pct <= 0 || pct > 100 {
				continue
			}
			out = append(out, BlendComponent{
				Material: strings.TrimSpace(g[2]),
				Fraction: pct / 100,
			})
		}
		if len(out) > 0 {
			return out
		}
	}

	if m := pctLastRe.FindAllStringSubmatch(text, -1); len(m) > 0 {
		out := make([]BlendComponent, 0, len(m))
		for _, g := range m {
			pct, err := strconv.ParseFloat(g[2], 64)
			if err != nil || pct <= 0 || pct > 100 {
				continue
			}
			out = append(out, BlendComponent{
				Material: strings.TrimSpace(g[1]),
				Fraction: pct / 100,
			})
		}
		if len(out) > 0 {
			return out
		}
	}

	// Bare names: only accept tokens that normalize to a known category,
	// otherwise arbitrary marketing copy would parse as a blend.
	var names []string
	for _, tok := range splitRe.Split(text, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n := Normalize(tok); n.Category != "" {
			names = append(names, tok)
		}
	}
	if len(names) == 0 {
		return nil
	}
	frac := 1.0 / float64(len(names))
	out := make([]BlendComponent, len(names))
	for i, name := range names {
		out[i] = BlendComponent{Material: name, Fraction: frac}
	}
	return out
}
