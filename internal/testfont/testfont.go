/*
Package testfont builds small TrueType fonts for tests.

Fonts are assembled table by table from polygons: every contour is a closed
polygon of on-curve points in font units. Glyph 0 is always an empty .notdef.
Builder.TTF returns a plain SFNT binary; WOFF and WOFF2 wrap such a binary
into the respective web font containers.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package testfont

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"sort"
	"unicode/utf16"
)

// Point is an on-curve point in font units.
type Point struct{ X, Y int16 }

// Contour is a closed polygon.
type Contour []Point

type glyph struct {
	name     string
	contours []Contour
	advance  uint16
}

type nameRecord struct {
	platform, encoding, language, nameID uint16
	value                                []byte
}

// Builder collects glyphs, character mappings and names of a font.
type Builder struct {
	UnitsPerEm uint16
	Ascender   int16
	Descender  int16
	// PostNames stores glyph names in a version 2.0 'post' table. Otherwise
	// a version 3.0 table without names is written.
	PostNames bool
	// Format12 adds a (3,10) format 12 subtable to 'cmap'.
	Format12 bool
	glyphs   []glyph
	cmap     map[rune]uint16
	names    []nameRecord
}

// New creates a builder with 1000 units per em and an empty .notdef glyph.
func New() *Builder {
	return &Builder{
		UnitsPerEm: 1000,
		Ascender:   800,
		Descender:  -200,
		glyphs:     []glyph{{name: ".notdef", advance: 500}},
		cmap:       make(map[rune]uint16),
	}
}

// AddGlyph adds a glyph and maps code-point r to it, if r ≥ 0.
// It returns the glyph index.
func (b *Builder) AddGlyph(r rune, name string, contours ...Contour) int {
	b.glyphs = append(b.glyphs, glyph{name: name, contours: contours, advance: 600})
	gid := len(b.glyphs) - 1
	if r >= 0 {
		b.cmap[r] = uint16(gid)
	}
	return gid
}

// Map maps an additional code-point to an existing glyph.
func (b *Builder) Map(r rune, gid int) {
	b.cmap[r] = uint16(gid)
}

// AddName adds a Windows Unicode BMP (3,1,0x409) name record.
func (b *Builder) AddName(nameID uint16, value string) {
	b.AddNameRecord(3, 1, 0x409, nameID, utf16be(value))
}

// AddNameRecord adds a raw name record.
func (b *Builder) AddNameRecord(platform, encoding, language, nameID uint16, value []byte) {
	b.names = append(b.names, nameRecord{platform, encoding, language, nameID, value})
}

// NumGlyphs returns the number of glyphs including .notdef.
func (b *Builder) NumGlyphs() int {
	return len(b.glyphs)
}

// TTF assembles the font as a TrueType SFNT binary.
func (b *Builder) TTF() []byte {
	glyf, loca, bbox := b.glyfLoca()
	tables := map[string][]byte{
		"cmap": b.cmapTable(),
		"glyf": glyf,
		"head": b.headTable(bbox),
		"hhea": b.hheaTable(),
		"hmtx": b.hmtxTable(),
		"loca": loca,
		"maxp": b.maxpTable(),
		"name": b.nameTable(),
		"post": b.postTable(),
	}
	return Assemble(0x00010000, tables)
}

// Assemble creates an SFNT binary from tables keyed by tag.
func Assemble(flavor uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	n := len(tags)
	entrySelector := bits.Len(uint(n)) - 1
	searchRange := (1 << entrySelector) * 16
	w := &writer{}
	w.u32(flavor)
	w.u16(uint16(n))
	w.u16(uint16(searchRange))
	w.u16(uint16(entrySelector))
	w.u16(uint16(n*16 - searchRange))
	off := 12 + 16*n
	for _, tag := range tags {
		data := tables[tag]
		w.buf.WriteString(tag)
		w.u32(checksum(data))
		w.u32(uint32(off))
		w.u32(uint32(len(data)))
		off += pad4(len(data))
	}
	for _, tag := range tags {
		w.buf.Write(tables[tag])
		w.pad()
	}
	return w.buf.Bytes()
}

func (b *Builder) glyfLoca() (glyf, loca []byte, fontBBox [4]int16) {
	g := &writer{}
	lw := &writer{}
	first := true
	for _, gl := range b.glyphs {
		lw.u16(uint16(g.buf.Len() / 2))
		if len(gl.contours) == 0 {
			continue
		}
		bbox := contoursBBox(gl.contours)
		if first {
			fontBBox, first = bbox, false
		} else {
			fontBBox = [4]int16{min(fontBBox[0], bbox[0]), min(fontBBox[1], bbox[1]),
				max(fontBBox[2], bbox[2]), max(fontBBox[3], bbox[3])}
		}
		g.u16(uint16(len(gl.contours)))
		for _, v := range bbox {
			g.u16(uint16(v))
		}
		end := -1
		for _, c := range gl.contours {
			end += len(c)
			g.u16(uint16(end))
		}
		g.u16(0) // no instructions
		for _, c := range gl.contours {
			for range c {
				g.buf.WriteByte(0x01) // on curve, 16-bit deltas
			}
		}
		var prev int16
		for _, c := range gl.contours {
			for _, p := range c {
				g.u16(uint16(p.X - prev))
				prev = p.X
			}
		}
		prev = 0
		for _, c := range gl.contours {
			for _, p := range c {
				g.u16(uint16(p.Y - prev))
				prev = p.Y
			}
		}
		g.pad()
	}
	lw.u16(uint16(g.buf.Len() / 2))
	return g.buf.Bytes(), lw.buf.Bytes(), fontBBox
}

func contoursBBox(contours []Contour) [4]int16 {
	p0 := contours[0][0]
	bbox := [4]int16{p0.X, p0.Y, p0.X, p0.Y}
	for _, c := range contours {
		for _, p := range c {
			bbox[0], bbox[1] = min(bbox[0], p.X), min(bbox[1], p.Y)
			bbox[2], bbox[3] = max(bbox[2], p.X), max(bbox[3], p.Y)
		}
	}
	return bbox
}

func (b *Builder) sortedRunes() []rune {
	runes := make([]rune, 0, len(b.cmap))
	for r := range b.cmap {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return runes
}

// cmapTable writes a (3,1) format 4 subtable with one segment per BMP
// code-point, and optionally a (3,10) format 12 subtable.
func (b *Builder) cmapTable() []byte {
	var bmp []rune
	for _, r := range b.sortedRunes() {
		if r <= 0xfffe {
			bmp = append(bmp, r)
		}
	}
	f4 := &writer{}
	segCount := len(bmp) + 1
	f4.u16(4)
	f4.u16(uint16(16 + 8*segCount))
	f4.u16(0) // language
	entrySelector := bits.Len(uint(segCount)) - 1
	searchRange := 2 * (1 << entrySelector)
	f4.u16(uint16(2 * segCount))
	f4.u16(uint16(searchRange))
	f4.u16(uint16(entrySelector))
	f4.u16(uint16(2*segCount - searchRange))
	for _, r := range bmp {
		f4.u16(uint16(r))
	}
	f4.u16(0xffff)
	f4.u16(0) // reservedPad
	for _, r := range bmp {
		f4.u16(uint16(r))
	}
	f4.u16(0xffff)
	for _, r := range bmp {
		f4.u16(b.cmap[r] - uint16(r)) // delta, modulo 65536
	}
	f4.u16(1)
	for range segCount {
		f4.u16(0) // idRangeOffset
	}

	subtables := [][]byte{f4.buf.Bytes()}
	if b.Format12 {
		runes := b.sortedRunes()
		f12 := &writer{}
		f12.u16(12)
		f12.u16(0)
		f12.u32(uint32(16 + 12*len(runes)))
		f12.u32(0) // language
		f12.u32(uint32(len(runes)))
		for _, r := range runes {
			f12.u32(uint32(r))
			f12.u32(uint32(r))
			f12.u32(uint32(b.cmap[r]))
		}
		subtables = append(subtables, f12.buf.Bytes())
	}
	w := &writer{}
	w.u16(0)
	w.u16(uint16(len(subtables)))
	off := 4 + 8*len(subtables)
	encodings := []uint16{1, 10}
	for i, st := range subtables {
		w.u16(3)
		w.u16(encodings[i])
		w.u32(uint32(off))
		off += len(st)
	}
	for _, st := range subtables {
		w.buf.Write(st)
	}
	return w.buf.Bytes()
}

func (b *Builder) headTable(bbox [4]int16) []byte {
	w := &writer{}
	w.u32(0x00010000) // version
	w.u32(0x00010000) // fontRevision
	w.u32(0)          // checksumAdjustment
	w.u32(0x5f0f3cf5) // magicNumber
	w.u16(0x000b)     // flags
	w.u16(b.UnitsPerEm)
	w.u32(0) // created
	w.u32(0)
	w.u32(0) // modified
	w.u32(0)
	for _, v := range bbox {
		w.u16(uint16(v))
	}
	w.u16(0) // macStyle
	w.u16(8) // lowestRecPPEM
	w.u16(2) // fontDirectionHint
	w.u16(0) // indexToLocFormat: short
	w.u16(0) // glyphDataFormat
	return w.buf.Bytes()
}

func (b *Builder) hheaTable() []byte {
	w := &writer{}
	w.u32(0x00010000)
	w.u16(uint16(b.Ascender))
	w.u16(uint16(b.Descender))
	w.u16(0)                     // lineGap
	w.u16(600)                   // advanceWidthMax
	w.u16(0)                     // minLeftSideBearing
	w.u16(0)                     // minRightSideBearing
	w.u16(600)                   // xMaxExtent
	w.u16(1)                     // caretSlopeRise
	w.u16(0)                     // caretSlopeRun
	w.u16(0)                     // caretOffset
	w.buf.Write(make([]byte, 8)) // reserved
	w.u16(0)                     // metricDataFormat
	w.u16(uint16(len(b.glyphs)))
	return w.buf.Bytes()
}

func (b *Builder) hmtxTable() []byte {
	w := &writer{}
	for _, g := range b.glyphs {
		w.u16(g.advance)
		var lsb int16
		if len(g.contours) > 0 {
			lsb = contoursBBox(g.contours)[0]
		}
		w.u16(uint16(lsb))
	}
	return w.buf.Bytes()
}

func (b *Builder) maxpTable() []byte {
	w := &writer{}
	w.u32(0x00010000)
	w.u16(uint16(len(b.glyphs)))
	maxPoints, maxContours := 0, 0
	for _, g := range b.glyphs {
		n := 0
		for _, c := range g.contours {
			n += len(c)
		}
		maxPoints = max(maxPoints, n)
		maxContours = max(maxContours, len(g.contours))
	}
	w.u16(uint16(maxPoints))
	w.u16(uint16(maxContours))
	w.buf.Write(make([]byte, 22)) // remaining fields, all zero
	return w.buf.Bytes()
}

func (b *Builder) nameTable() []byte {
	w := &writer{}
	w.u16(0)
	w.u16(uint16(len(b.names)))
	w.u16(uint16(6 + 12*len(b.names)))
	off := 0
	for _, n := range b.names {
		w.u16(n.platform)
		w.u16(n.encoding)
		w.u16(n.language)
		w.u16(n.nameID)
		w.u16(uint16(len(n.value)))
		w.u16(uint16(off))
		off += len(n.value)
	}
	for _, n := range b.names {
		w.buf.Write(n.value)
	}
	return w.buf.Bytes()
}

func (b *Builder) postTable() []byte {
	w := &writer{}
	if b.PostNames {
		w.u32(0x00020000)
	} else {
		w.u32(0x00030000)
	}
	w.buf.Write(make([]byte, 28)) // italicAngle … maxMemType1
	if !b.PostNames {
		return w.buf.Bytes()
	}
	w.u16(uint16(len(b.glyphs)))
	for i := range b.glyphs {
		if i == 0 {
			w.u16(0) // standard name .notdef
			continue
		}
		w.u16(uint16(258 + i - 1))
	}
	for _, g := range b.glyphs[1:] {
		w.buf.WriteByte(byte(len(g.name)))
		w.buf.WriteString(g.name)
	}
	return w.buf.Bytes()
}

// --- helpers ---------------------------------------------------------------

type writer struct {
	buf bytes.Buffer
}

func (w *writer) u16(v uint16) {
	_ = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *writer) u32(v uint32) {
	_ = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *writer) pad() {
	for w.buf.Len()%4 != 0 {
		w.buf.WriteByte(0)
	}
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

func checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word [4]byte
		copy(word[:], b[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

func utf16be(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(out[2*i:], u)
	}
	return out
}
