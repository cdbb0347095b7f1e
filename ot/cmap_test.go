package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// cmapWith creates a cmap table with the given sub-tables, keyed by
// platform and encoding.
func cmapWith(subtables ...cmapSub) binarySegm {
	n := len(subtables)
	size := 4 + 8*n
	for _, st := range subtables {
		size += len(st.data)
	}
	b := make([]byte, size)
	putU16(b[2:], uint16(n))
	off := 4 + 8*n
	for i, st := range subtables {
		rec := b[4+8*i:]
		putU16(rec, st.platform)
		putU16(rec[2:], st.encoding)
		putU32(rec[4:], uint32(off))
		copy(b[off:], st.data)
		off += len(st.data)
	}
	return b
}

type cmapSub struct {
	platform, encoding uint16
	data               []byte
}

func format0(glyphs map[byte]byte) []byte {
	b := make([]byte, 6+256)
	putU16(b, 0)
	putU16(b[2:], uint16(len(b)))
	for c, g := range glyphs {
		b[6+int(c)] = g
	}
	return b
}

func format6(first uint16, glyphs ...uint16) []byte {
	b := make([]byte, 10+2*len(glyphs))
	putU16(b, 6)
	putU16(b[2:], uint16(len(b)))
	putU16(b[6:], first)
	putU16(b[8:], uint16(len(glyphs)))
	for i, g := range glyphs {
		putU16(b[10+2*i:], g)
	}
	return b
}

func format12(groups ...[3]uint32) []byte {
	b := make([]byte, 16+12*len(groups))
	putU16(b, 12)
	putU32(b[4:], uint32(len(b)))
	putU32(b[12:], uint32(len(groups)))
	for i, g := range groups {
		putU32(b[16+12*i:], g[0])
		putU32(b[20+12*i:], g[1])
		putU32(b[24+12*i:], g[2])
	}
	return b
}

func TestCMapFormats(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	ec := &errorCollector{}
	t.Run("format0", func(t *testing.T) {
		cmap, err := parseCMap(T("cmap"), cmapWith(cmapSub{0, 3, format0(map[byte]byte{'a': 3, 'b': 4})}), 0, 10, ec)
		if err != nil {
			t.Fatal(err)
		}
		if cmap.Len() != 2 || cmap.Lookup('a') != 3 || cmap.Lookup('b') != 4 {
			t.Errorf("unexpected format 0 mapping: %v", cmap.entries)
		}
	})
	t.Run("format6", func(t *testing.T) {
		cmap, err := parseCMap(T("cmap"), cmapWith(cmapSub{3, 1, format6(0xe000, 5, 0, 7)}), 0, 10, ec)
		if err != nil {
			t.Fatal(err)
		}
		if cmap.Len() != 2 || cmap.Lookup(0xe000) != 5 || cmap.Lookup(0xe002) != 7 {
			t.Errorf("unexpected format 6 mapping: %v", cmap.entries)
		}
		if cmap.Lookup(0xe001) != 0 {
			t.Errorf("expected .notdef mapping to be excluded")
		}
	})
	t.Run("format12", func(t *testing.T) {
		data := format12([3]uint32{0x41, 0x43, 1}, [3]uint32{0x1f600, 0x1f600, 9})
		cmap, err := parseCMap(T("cmap"), cmapWith(cmapSub{3, 10, data}), 0, 10, ec)
		if err != nil {
			t.Fatal(err)
		}
		if cmap.Len() != 4 || cmap.Lookup('C') != 3 || cmap.Lookup(0x1f600) != 9 {
			t.Errorf("unexpected format 12 mapping: %v", cmap.entries)
		}
		cps := cmap.Codepoints()
		if cps[0] != 'A' || cps[3] != 0x1f600 {
			t.Errorf("expected sorted code-points, have %v", cps)
		}
	})
}

func TestCMapSelection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	ec := &errorCollector{}
	cmap, err := parseCMap(T("cmap"), cmapWith(
		cmapSub{1, 0, format0(map[byte]byte{'a': 1})}, // Mac Roman, never selected
		cmapSub{3, 0, format6(0xf020, 2)},             // symbol, never selected
		cmapSub{0, 3, format6('a', 3)},
		cmapSub{3, 1, format6('a', 4)},
	), 0, 10, ec)
	if err != nil {
		t.Fatal(err)
	}
	if cmap.PlatformID != 3 || cmap.EncodingID != 1 {
		t.Errorf("expected (3,1) to be preferred over (0,3), have (%d,%d)", cmap.PlatformID, cmap.EncodingID)
	}
	//
	_, err = parseCMap(T("cmap"), cmapWith(
		cmapSub{1, 0, format0(map[byte]byte{'a': 1})},
		cmapSub{3, 0, format6(0xf020, 2)},
	), 0, 10, ec)
	if err == nil {
		t.Errorf("expected fonts without Unicode cmap to be rejected")
	}
}

func TestCMapGlyphRange(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	ec := &errorCollector{}
	cmap, err := parseCMap(T("cmap"), cmapWith(cmapSub{3, 1, format6('a', 1, 2, 50)}), 0, 10, ec)
	if err != nil {
		t.Fatal(err)
	}
	if cmap.Len() != 2 {
		t.Errorf("expected glyph beyond numGlyphs to be dropped, have %d entries", cmap.Len())
	}
	if len(ec.warnings) == 0 {
		t.Errorf("expected a warning for dropped code-points")
	}
}

func TestCMapFormat4RangeOffsets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	// two segments: 'a'…'c' through the glyph index array, and the final 0xFFFF segment
	const segCount = 2
	b := make([]byte, 16+8*segCount+2*3)
	putU16(b, 4)
	putU16(b[2:], uint16(len(b)))
	putU16(b[6:], 2*segCount)
	endCodes, startCodes := 14, 14+2*segCount+2
	deltas, rangeOffsets := startCodes+2*segCount, startCodes+4*segCount
	putU16(b[endCodes:], 'c')
	putU16(b[endCodes+2:], 0xffff)
	putU16(b[startCodes:], 'a')
	putU16(b[startCodes+2:], 0xffff)
	putU16(b[deltas+2:], 1)
	putU16(b[rangeOffsets:], 2*segCount) // glyph index array follows idRangeOffsets
	glyphArray := rangeOffsets + 2*segCount
	putU16(b[glyphArray:], 7)
	putU16(b[glyphArray+2:], 0)
	putU16(b[glyphArray+4:], 9)
	m, err := decodeCMapFormat4(b)
	if err != nil {
		t.Fatal(err)
	}
	if m['a'] != 7 || m['b'] != 0 || m['c'] != 9 {
		t.Errorf("unexpected format 4 mapping: %v", m)
	}
	if _, ok := m[0xffff]; ok {
		t.Errorf("expected final segment to be skipped")
	}
}
