package ot

import (
	"fmt"
	"iter"
	"sort"
)

// --- CMap table ------------------------------------------------------------

// This table defines mapping of character codes to a default glyph index. Different
// subtables may be defined that each contain mappings for different character encoding
// schemes. The table header indicates the character encodings for which subtables are
// present.
//
// From the spec.: “Apart from a format 14 subtable, all other subtables are exclusive:
// applications should select and use one and ignore the others.”
//
// We select the subtable following the priority list in cmapPreferences and
// decode formats 0, 4, 6 and 12. If the preferred subtable has a format we do not
// support, or cannot be decoded, the next one in the list is tried.

// cmapPreferences is the priority list of (platform, encoding) pairs.
var cmapPreferences = [...]struct{ platform, encoding uint16 }{
	{3, 10}, {0, 6}, {0, 4}, {3, 1}, {0, 3}, {0, 2}, {0, 1}, {0, 0},
}

const maxUnicode = 0x10ffff

// CMapTable is the selected Unicode subtable of table 'cmap', decoded into a
// map from code-points to glyphs. Code-points mapping to glyph 0 (.notdef) are
// not contained.
type CMapTable struct {
	PlatformID uint16
	EncodingID uint16
	Format     uint16
	entries    map[rune]GlyphIndex
	sorted     []rune
}

// Lookup returns the glyph for a code-point, or 0 if the font does not map it.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil {
		return 0
	}
	return t.entries[r]
}

// Len returns the number of code-points mapped by this table.
func (t *CMapTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Codepoints returns all mapped code-points in ascending order.
// The returned slice must not be modified by clients.
func (t *CMapTable) Codepoints() []rune {
	if t == nil {
		return nil
	}
	return t.sorted
}

// Range iterates over all (code-point, glyph) pairs in ascending code-point order.
func (t *CMapTable) Range() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		if t == nil {
			return
		}
		for _, r := range t.sorted {
			if !yield(r, t.entries[r]) {
				return
			}
		}
	}
}

// reverse returns, for every glyph mapped, the smallest code-point mapping to it.
func (t *CMapTable) reverse() map[GlyphIndex]rune {
	rev := make(map[GlyphIndex]rune, len(t.entries))
	for _, r := range t.sorted { // ascending, so first one wins
		g := t.entries[r]
		if _, ok := rev[g]; !ok {
			rev[g] = r
		}
	}
	return rev
}

type encodingRecord struct {
	platform uint16
	encoding uint16
	offset   uint32
}

func parseCMap(tag Tag, b binarySegm, offset uint32, numGlyphs int, ec *errorCollector) (*CMapTable, error) {
	const headerSize, entrySize = 4, 8
	n, err := b.u16(2) // number of sub-tables
	if err != nil {
		ec.addError(tag, "Header", "table too short", SeverityCritical, offset)
		return nil, errFontFormat("size of cmap table")
	}
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(b))
	if len(b) < headerSize+entrySize*int(n) {
		ec.addError(tag, "Header", fmt.Sprintf("table size %d too small for %d encoding records", len(b), n), SeverityCritical, offset)
		return nil, errFontFormat("size of cmap table")
	}
	records := make([]encodingRecord, n)
	for i := range records {
		rec, _ := b.view(headerSize+entrySize*i, entrySize)
		records[i] = encodingRecord{platform: u16(rec), encoding: u16(rec[2:]), offset: u32(rec[4:])}
	}
	for _, pref := range cmapPreferences {
		for _, rec := range records {
			if rec.platform != pref.platform || rec.encoding != pref.encoding {
				continue
			}
			if int(rec.offset) >= len(b) {
				ec.addWarning(tag, fmt.Sprintf("sub-table (%d,%d) out of bounds", rec.platform, rec.encoding), offset)
				continue
			}
			sub := b[rec.offset:]
			format := sub.U16(0)
			if !supportedCmapFormat(format) {
				tracer().Debugf("skipping cmap sub-table (%d,%d) with unsupported format %d", rec.platform, rec.encoding, format)
				continue
			}
			entries, err := decodeCMapSubtable(format, sub)
			if err != nil {
				ec.addWarning(tag, fmt.Sprintf("sub-table (%d,%d) format %d: %v", rec.platform, rec.encoding, format, err), offset+rec.offset)
				continue
			}
			t := &CMapTable{
				PlatformID: rec.platform,
				EncodingID: rec.encoding,
				Format:     format,
				entries:    make(map[rune]GlyphIndex, len(entries)),
			}
			dropped := 0
			for r, g := range entries {
				if g == 0 || r > maxUnicode {
					continue
				}
				if int(g) >= numGlyphs {
					dropped++
					continue
				}
				t.entries[r] = g
			}
			if dropped > 0 {
				ec.addWarning(tag, fmt.Sprintf("%d code-points map to glyphs beyond numGlyphs=%d", dropped, numGlyphs), offset+rec.offset)
			}
			t.sorted = make([]rune, 0, len(t.entries))
			for r := range t.entries {
				t.sorted = append(t.sorted, r)
			}
			sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i] < t.sorted[j] })
			tracer().Debugf("selected cmap sub-table (%d,%d) format %d with %d entries",
				t.PlatformID, t.EncodingID, t.Format, len(t.entries))
			return t, nil
		}
	}
	ec.addError(tag, "Subtable", "no supported Unicode cmap sub-table found", SeverityCritical, offset)
	return nil, errFontFormat("no supported Unicode cmap sub-table found")
}

func supportedCmapFormat(format uint16) bool {
	switch format {
	case 0, 4, 6, 12:
		return true
	}
	return false
}

func decodeCMapSubtable(format uint16, b binarySegm) (map[rune]GlyphIndex, error) {
	switch format {
	case 0:
		return decodeCMapFormat0(b)
	case 4:
		return decodeCMapFormat4(b)
	case 6:
		return decodeCMapFormat6(b)
	case 12:
		return decodeCMapFormat12(b)
	}
	return nil, fmt.Errorf("unsupported format %d", format)
}

// Format 0: byte encoding table.
func decodeCMapFormat0(b binarySegm) (map[rune]GlyphIndex, error) {
	const headerSize = 6
	glyphs, err := b.view(headerSize, 256)
	if err != nil {
		return nil, err
	}
	m := make(map[rune]GlyphIndex, 256)
	for c, g := range glyphs {
		m[rune(c)] = GlyphIndex(g)
	}
	return m, nil
}

// Format 4: segment mapping to delta values.
func decodeCMapFormat4(b binarySegm) (map[rune]GlyphIndex, error) {
	const headerSize = 14
	segCountX2, err := b.u16(6)
	if err != nil {
		return nil, err
	}
	if segCountX2&1 != 0 || segCountX2 == 0 {
		return nil, fmt.Errorf("invalid segCountX2 %d", segCountX2)
	}
	segCount := int(segCountX2 / 2)
	endCodes := headerSize
	startCodes := endCodes + 2*segCount + 2 // +2 for reservedPad
	idDeltas := startCodes + 2*segCount
	idRangeOffsets := idDeltas + 2*segCount
	if _, err := b.view(endCodes, idRangeOffsets+2*segCount-endCodes); err != nil {
		return nil, err
	}
	m := make(map[rune]GlyphIndex)
	for i := 0; i < segCount; i++ {
		end := u16(b[endCodes+2*i:])
		start := u16(b[startCodes+2*i:])
		delta := u16(b[idDeltas+2*i:])
		rangeOffsetPos := idRangeOffsets + 2*i
		rangeOffset := u16(b[rangeOffsetPos:])
		if start > end {
			return nil, fmt.Errorf("segment %d: start %d > end %d", i, start, end)
		}
		if start == 0xffff && end == 0xffff { // final segment
			continue
		}
		for c := uint32(start); c <= uint32(end); c++ {
			var g uint16
			if rangeOffset == 0 {
				g = uint16(c) + delta // modulo 65536
			} else {
				pos := rangeOffsetPos + int(rangeOffset) + 2*int(c-uint32(start))
				raw, err := b.u16(pos)
				if err != nil {
					return nil, fmt.Errorf("segment %d: glyph index array out of bounds", i)
				}
				if raw != 0 {
					g = raw + delta
				}
			}
			m[rune(c)] = GlyphIndex(g)
		}
	}
	return m, nil
}

// Format 6: trimmed table mapping.
func decodeCMapFormat6(b binarySegm) (map[rune]GlyphIndex, error) {
	const headerSize = 10
	first, err := b.u16(6)
	if err != nil {
		return nil, err
	}
	count := int(b.U16(8))
	glyphs, err := b.view(headerSize, 2*count)
	if err != nil {
		return nil, err
	}
	m := make(map[rune]GlyphIndex, count)
	for i := 0; i < count; i++ {
		m[rune(first)+rune(i)] = GlyphIndex(u16(glyphs[2*i:]))
	}
	return m, nil
}

// Format 12: segmented coverage.
func decodeCMapFormat12(b binarySegm) (map[rune]GlyphIndex, error) {
	const headerSize, groupSize = 16, 12
	nGroups, err := b.u32(12)
	if err != nil {
		return nil, err
	}
	if uint64(nGroups)*groupSize > uint64(len(b)) {
		return nil, fmt.Errorf("%d groups exceed sub-table size", nGroups)
	}
	groups, err := b.view(headerSize, int(nGroups)*groupSize)
	if err != nil {
		return nil, err
	}
	m := make(map[rune]GlyphIndex)
	for i := 0; i < int(nGroups); i++ {
		grp := groups[i*groupSize:]
		start, end, startGlyph := u32(grp), u32(grp[4:]), u32(grp[8:])
		if start > end || end > maxUnicode {
			return nil, fmt.Errorf("group %d: invalid range [%x…%x]", i, start, end)
		}
		for c := start; c <= end; c++ {
			g := startGlyph + (c - start)
			if g > 0xffff {
				break
			}
			m[rune(c)] = GlyphIndex(g)
		}
	}
	return m, nil
}
