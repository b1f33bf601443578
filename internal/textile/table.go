package textile

import (
	"sort"
	"strings"
)

// modifierPrefixes are production qualifiers stripped from material names for
// identity but kept as tags. "organic cotton" and "cotton" resolve to the same
// row; the tag survives for evidence lines.
var modifierPrefixes = []string{
	"organic",
	"recycled",
	"virgin",
	"merino",
	"regenerative",
	"conventional",
}

// synonyms maps trade and regional names onto the canonical row names used by
// the scorecard.
var synonyms = map[string]string{
	"spandex":    "elastane",
	"lycra":      "elastane",
	"viscose":    "rayon",
	"modal":      "rayon",
	"tencel":     "lyocell",
	"polyamide":  "nylon",
	"pes":        "polyester",
	"poly":       "polyester",
	"acrylic":    "acrylic",
	"flax":       "linen",
	"cupro":      "rayon",
	"bamboo":     "rayon",
	"eucalyptus": "lyocell",
}

// categories maps canonical names to their PFMM fiber category.
var categories = map[string]string{
	"cotton":    "Cotton",
	"polyester": "Synthetic",
	"nylon":     "Synthetic",
	"elastane":  "Synthetic",
	"acrylic":   "Synthetic",
	"wool":      "Wool",
	"cashmere":  "Wool",
	"alpaca":    "Wool",
	"rayon":     "MMCF",
	"lyocell":   "MMCF",
	"acetate":   "MMCF",
	"linen":     "Flax",
	"hemp":      "Hemp",
	"jute":      "Hemp",
	"silk":      "Silk",
	"leather":   "Leather",
	"down":      "Down",
}

// NormalizedName is the result of normalizing a raw material name: the
// canonical scorecard name plus any production modifiers found on it.
type NormalizedName struct {
	Canonical string
	Category  string
	Modifiers []string
}

// Normalize resolves a raw composition token ("Organic Cotton", " SPANDEX ")
// to its canonical scorecard name. Unknown names still normalize (lowercased,
// modifiers stripped) so callers can report what failed to match.
func Normalize(raw string) NormalizedName {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.Trim(name, ".,;:")

	var mods []string
	for changed := true; changed; {
		changed = false
		for _, m := range modifierPrefixes {
			if strings.HasPrefix(name, m+" ") {
				mods = append(mods, m)
				name = strings.TrimSpace(strings.TrimPrefix(name, m))
				changed = true
			}
		}
	}

	if canon, ok := synonyms[name]; ok {
		name = canon
	}

	return NormalizedName{
		Canonical: name,
		Category:  categories[name],
		Modifiers: mods,
	}
}

// Table is the loaded scorecard: canonical name to entry. Immutable after
// load; safe for concurrent readers.
type Table struct {
	entries map[string]*MaterialEntry
}

// NewTable builds a table from loaded entries, keyed by normalized name.
func NewTable(entries []MaterialEntry) *Table {
	t := &Table{entries: make(map[string]*MaterialEntry, len(entries))}
	for i := range entries {
		e := entries[i]
		key := Normalize(e.Name).Canonical
		if e.Category == "" {
			e.Category = categories[key]
		}
		t.entries[key] = &e
	}
	return t
}

// Lookup resolves a raw material name to its scorecard entry. The bool
// reports whether the (normalized) name has a row.
func (t *Table) Lookup(raw string) (*MaterialEntry, NormalizedName, bool) {
	n := Normalize(raw)
	e, ok := t.entries[n.Canonical]
	return e, n, ok
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.entries) }

// Names returns the canonical names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
