package otquery

import (
	"sort"

	"github.com/npillmayer/fontocr/ot"
)

// CharacterMap maps code-points to glyph identifiers (glyph names).
// It is built once per font and must not be modified by clients.
type CharacterMap map[rune]string

// CharMap returns the character map of a font: every code-point of the
// font's selected cmap sub-table, mapped to the name of its glyph.
// Code-points mapped to .notdef are not included.
func CharMap(otf *ot.Font) CharacterMap {
	if otf == nil || otf.CMap == nil {
		return CharacterMap{}
	}
	cmap := make(CharacterMap, otf.CMap.Len())
	for r, gid := range otf.CMap.Range() {
		cmap[r] = otf.GlyphName(gid)
	}
	tracer().Debugf("character map has %d entries", len(cmap))
	return cmap
}

// Codepoints returns the code-points of the map in ascending order.
func (cm CharacterMap) Codepoints() []rune {
	cps := make([]rune, 0, len(cm))
	for r := range cm {
		cps = append(cps, r)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })
	return cps
}

// GlyphIDs returns the set of glyph identifiers of the map, sorted.
// More than one code-point may map to the same glyph, so the result may be
// shorter than the map.
func (cm CharacterMap) GlyphIDs() []string {
	seen := make(map[string]struct{}, len(cm))
	ids := make([]string, 0, len(cm))
	for _, id := range cm {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CodepointForGlyph returns the smallest code-point mapping to the glyph
// identifier id.
//
// This is an inefficient operation: all code-points contained in the map
// are checked sequentially.
func (cm CharacterMap) CodepointForGlyph(id string) (rune, bool) {
	var found rune = -1
	for r, name := range cm {
		if name == id && (found < 0 || r < found) {
			found = r
		}
	}
	return found, found >= 0
}
