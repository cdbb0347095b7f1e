package ot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/npillmayer/fontocr/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func TestUnwrapWOFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	ttf := testfont.Digits().TTF()
	for name, tc := range map[string]struct {
		data      []byte
		container Container
	}{
		"woff":  {testfont.WOFF(ttf), ContainerWOFF},
		"woff2": {testfont.WOFF2(ttf), ContainerWOFF2},
	} {
		t.Run(name, func(t *testing.T) {
			otf, err := Parse(tc.data)
			if err != nil {
				t.Fatalf("cannot parse %s font: %v", name, err)
			}
			if otf.Container != tc.container {
				t.Errorf("expected container %s, have %s", tc.container, otf.Container)
			}
			if otf.CMap.Len() != 3 || otf.GlyphName(otf.CMap.Lookup(0xe001)) != "uniE001" {
				t.Errorf("unexpected character map after unwrapping")
			}
			// every table survives unchanged
			orig, err := Parse(ttf)
			if err != nil {
				t.Fatal(err)
			}
			for _, tag := range orig.TableTags() {
				if !bytes.Equal(orig.Table(tag).Binary(), otf.Table(tag).Binary()) {
					t.Errorf("table %s differs after unwrapping", tag)
				}
			}
			// the unwrapped binary is usable for rasterizing
			sf, err := sfnt.Parse(otf.Binary)
			if err != nil {
				t.Fatalf("x/image cannot parse unwrapped font: %v", err)
			}
			var buf sfnt.Buffer
			segs, err := sf.LoadGlyph(&buf, 1, fixed.I(100), nil)
			if err != nil || len(segs) == 0 {
				t.Errorf("expected outline for glyph 1, error = %v", err)
			}
		})
	}
}

func TestUnwrapWOFFMalformed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	woff := testfont.WOFF(testfont.Digits().TTF())
	if _, err := Parse(woff[:60]); !errors.Is(err, ErrFontFormat) {
		t.Errorf("expected truncated WOFF to fail with ErrFontFormat, have %v", err)
	}
	woff2 := testfont.WOFF2(testfont.Digits().TTF())
	if _, err := Parse(woff2[:len(woff2)-30]); !errors.Is(err, ErrFontFormat) {
		t.Errorf("expected truncated WOFF2 stream to fail with ErrFontFormat, have %v", err)
	}
	collection := append([]byte{}, woff2...)
	putU32(collection[4:], signatureTTC)
	if _, err := Parse(collection); !errors.Is(err, ErrFontFormat) {
		t.Errorf("expected WOFF2 collection to be rejected, have %v", err)
	}
}

func TestUIntBase128(t *testing.T) {
	for _, tc := range []struct {
		data []byte
		want uint32
		ok   bool
	}{
		{[]byte{0x3f}, 63, true},
		{[]byte{0x81, 0x00}, 128, true},
		{[]byte{0x8f, 0xff, 0xff, 0xff, 0x7f}, 0xffffffff, true},
		{[]byte{0x80, 0x01}, 0, false},                   // leading zero
		{[]byte{0x90, 0x80, 0x80, 0x80, 0x00}, 0, false}, // overflow
		{[]byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}, 0, false},
	} {
		r := &byteReader{data: tc.data}
		n := r.uintBase128()
		if (r.err == nil) != tc.ok || n != tc.want {
			t.Errorf("% x: expected %d (ok=%v), have %d (err=%v)", tc.data, tc.want, tc.ok, n, r.err)
		}
	}
}

func TestRead255UInt16(t *testing.T) {
	for _, tc := range []struct {
		data []byte
		want uint16
	}{
		{[]byte{0x05}, 5},
		{[]byte{0xfd, 0x01, 0x02}, 0x0102},
		{[]byte{0xff, 0x00}, 253},
		{[]byte{0xfe, 0x01}, 507},
	} {
		r := &byteReader{data: tc.data}
		if n := r.read255UInt16(); n != tc.want || r.err != nil {
			t.Errorf("% x: expected %d, have %d", tc.data, tc.want, n)
		}
	}
}

func TestDecodeTriplet(t *testing.T) {
	for _, tc := range []struct {
		flag   uint8
		data   []byte
		dx, dy int
	}{
		{0, []byte{0x10}, 0, -16},
		{1, []byte{0x10}, 0, 16},
		{11, []byte{0x05}, 5, 0},
		{20, []byte{0x00}, -1, -1},
		{127, []byte{0x01, 0xf4, 0x00, 0x00}, 500, 0},
		{126, []byte{0x00, 0xfa, 0x02, 0xbc}, -250, 700},
	} {
		r := &byteReader{data: tc.data}
		dx, dy := decodeTriplet(tc.flag, r)
		if dx != tc.dx || dy != tc.dy || r.err != nil || r.pos != len(tc.data) {
			t.Errorf("flag %d: expected (%d,%d), have (%d,%d)", tc.flag, tc.dx, tc.dy, dx, dy)
		}
	}
}

// transformedGlyf creates a transformed 'glyf' table for two glyphs: an empty
// .notdef and the triangle (0,0) (500,0) (250,700).
func transformedGlyf() []byte {
	streams := [][]byte{
		{0x00, 0x00, 0x00, 0x01}, // nContours: 0, 1
		{0x03},                   // nPoints: 3
		{127, 127, 126},          // flags, all on curve
		{0, 0, 0, 0, 0x01, 0xf4, 0, 0, 0x00, 0xfa, 0x02, 0xbc, // triplets
			0x00}, // instruction length
		{},                       // composite
		{0x00, 0x00, 0x00, 0x00}, // bbox bitmap, no explicit boxes
		{},                       // instructions
	}
	hdr := make([]byte, 36)
	putU16(hdr[4:], 2) // numGlyphs
	putU16(hdr[6:], 0) // short loca
	for i, s := range streams {
		putU32(hdr[8+4*i:], uint32(len(s)))
	}
	return append(hdr, bytes.Join(streams, nil)...)
}

func TestReconstructGlyf(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	res, err := reconstructGlyf(transformedGlyf())
	if err != nil {
		t.Fatalf("cannot reconstruct glyf: %v", err)
	}
	if len(res.loca) != 6 {
		t.Fatalf("expected short loca for 2 glyphs, have %d bytes", len(res.loca))
	}
	if u16(res.loca) != 0 || u16(res.loca[2:]) != 0 {
		t.Errorf("expected empty .notdef, loca = % x", res.loca)
	}
	g := binarySegm(res.glyf)
	if int16(g.U16(0)) != 1 {
		t.Errorf("expected 1 contour, have %d", int16(g.U16(0)))
	}
	bbox := [4]int16{int16(g.U16(2)), int16(g.U16(4)), int16(g.U16(6)), int16(g.U16(8))}
	if bbox != [4]int16{0, 0, 500, 700} {
		t.Errorf("expected computed bbox (0,0,500,700), have %v", bbox)
	}
	if g.U16(10) != 2 {
		t.Errorf("expected end point 2, have %d", g.U16(10))
	}
	if 2*int(u16(res.loca[4:])) != len(res.glyf) {
		t.Errorf("loca does not match glyf length %d", len(res.glyf))
	}
	if res.xMins[1] != 0 {
		t.Errorf("expected xMin 0, have %d", res.xMins[1])
	}
}

func TestReconstructHmtx(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	hhea := make([]byte, 36)
	putU16(hhea[34:], 1) // numberOfHMetrics
	maxp := make([]byte, 6)
	putU16(maxp[4:], 3)
	byTag := map[Tag]*woff2Entry{
		T("hhea"): {tag: T("hhea"), data: hhea},
		T("maxp"): {tag: T("maxp"), data: maxp},
	}
	// flags: both side bearing arrays derived from glyf; one advance width
	data := []byte{0x03, 0x02, 0x58}
	hmtx, err := reconstructHmtx(data, byTag, []int16{10, 20, -30})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x58, 0x00, 0x0a, 0x00, 0x14, 0xff, 0xe2}
	if !bytes.Equal(hmtx, want) {
		t.Errorf("expected hmtx % x, have % x", want, hmtx)
	}
	if _, err := reconstructHmtx(data, byTag, nil); err == nil {
		t.Errorf("expected error when glyf data is missing")
	}
}
