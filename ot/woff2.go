package ot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// --- WOFF 2.0 --------------------------------------------------------------

// https://www.w3.org/TR/WOFF2/
const woff2HeaderSize = 48

// woff2KnownTags is the table of known table tags, indexed by the lower 6 bits
// of a table directory entry's flags. Index 63 means the tag follows explicitly.
var woff2KnownTags = [63]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post", "cvt ",
	"fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT", "EBLC", "gasp",
	"hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea", "vmtx", "BASE", "GDEF",
	"GPOS", "GSUB", "EBSC", "JSTF", "MATH", "CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar", "bdat", "bloc", "bsln", "cvar", "fdsc",
	"feat", "fmtx", "fvar", "gvar", "hsty", "just", "lcar", "mort", "morx",
	"opbd", "prop", "trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

type woff2Entry struct {
	tag             Tag
	transform       uint8
	origLength      uint32
	transformLength uint32
	data            []byte // slice of the decompressed stream
}

// transformed reports if the table data is stored in a transformed format.
// For 'glyf' and 'loca' version 0 means transformed, version 3 means null
// transform. For all other tables version 0 is the null transform.
func (e woff2Entry) transformed() bool {
	if e.tag == T("glyf") || e.tag == T("loca") {
		return e.transform != 3
	}
	return e.transform != 0
}

func (e woff2Entry) storedLength() uint32 {
	if e.transformed() {
		return e.transformLength
	}
	return e.origLength
}

// unwrapWOFF2 decompresses a WOFF 2.0 font into a plain SFNT binary,
// reversing the 'glyf'/'loca' and 'hmtx' transforms.
func unwrapWOFF2(font []byte) ([]byte, error) {
	r := &byteReader{data: font}
	r.u32() // signature
	flavor := r.u32()
	r.u32() // length
	numTables := int(r.u16())
	r.u16() // reserved
	r.u32() // totalSfntSize
	totalCompressed := r.u32()
	r.bytes(woff2HeaderSize - r.pos) // versions, metadata and private block
	if r.err != nil {
		return nil, errFontFormat("WOFF2 header too short")
	}
	if flavor == signatureTTC {
		return nil, errFontFormat("WOFF2 font collections are not supported")
	}
	if numTables == 0 || numTables > MaxTableCount {
		return nil, errFontFormat(fmt.Sprintf("WOFF2 table count invalid: %d", numTables))
	}
	entries := make([]woff2Entry, numTables)
	var streamSize uint64
	for i := range entries {
		flags := r.u8()
		e := &entries[i]
		if inx := flags & 0x3f; inx == 63 {
			e.tag = Tag(r.u32())
		} else {
			e.tag = T(woff2KnownTags[inx])
		}
		e.transform = flags >> 6
		e.origLength = r.uintBase128()
		if e.transformed() {
			if e.tag != T("glyf") && e.tag != T("loca") && e.tag != T("hmtx") {
				return nil, errFontFormat(fmt.Sprintf("WOFF2 table %s: unknown transform %d", e.tag, e.transform))
			}
			e.transformLength = r.uintBase128()
		}
		if r.err != nil {
			return nil, errFontFormat("WOFF2 table directory truncated")
		}
		streamSize += uint64(e.storedLength())
	}
	compressed, err := binarySegm(font).view(r.pos, int(totalCompressed))
	if err != nil {
		return nil, errFontFormat("WOFF2 compressed stream out of bounds")
	}
	stream, err := io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(compressed)), int64(streamSize)+1))
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("WOFF2 decompression: %v", err))
	}
	if uint64(len(stream)) != streamSize {
		return nil, errFontFormat(fmt.Sprintf("WOFF2 stream size %d, expected %d", len(stream), streamSize))
	}
	byTag := make(map[Tag]*woff2Entry, numTables)
	off := 0
	for i := range entries {
		n := int(entries[i].storedLength())
		entries[i].data = stream[off : off+n]
		off += n
		byTag[entries[i].tag] = &entries[i]
	}

	tables := make([]sfntTable, 0, numTables)
	var xMins []int16 // from reconstructed glyf, needed for hmtx
	if glyf, ok := byTag[T("glyf")]; ok && glyf.transformed() {
		loca, ok := byTag[T("loca")]
		if !ok {
			return nil, errFontFormat("WOFF2 transformed 'glyf' without 'loca'")
		}
		g, err := reconstructGlyf(glyf.data)
		if err != nil {
			return nil, err
		}
		if uint32(len(g.loca)) != loca.origLength {
			tracer().Debugf("WOFF2 reconstructed loca has %d bytes, directory says %d", len(g.loca), loca.origLength)
		}
		xMins = g.xMins
		tables = append(tables, sfntTable{tag: T("glyf"), data: g.glyf}, sfntTable{tag: T("loca"), data: g.loca})
	}
	for _, e := range entries {
		switch {
		case (e.tag == T("glyf") || e.tag == T("loca")) && e.transformed():
			continue // done above
		case e.tag == T("hmtx") && e.transformed():
			hmtx, err := reconstructHmtx(e.data, byTag, xMins)
			if err != nil {
				return nil, err
			}
			tables = append(tables, sfntTable{tag: e.tag, data: hmtx})
		default:
			tables = append(tables, sfntTable{tag: e.tag, data: e.data})
		}
	}
	tracer().Debugf("unwrapped WOFF2 font with %d tables", numTables)
	return assembleSFNT(flavor, tables), nil
}

// --- glyf/loca reconstruction ----------------------------------------------

type glyfResult struct {
	glyf  []byte
	loca  []byte
	xMins []int16
}

// Composite glyph flags.
const (
	compArgsAreWords    = 0x0001
	compHaveScale       = 0x0008
	compMoreComponents  = 0x0020
	compHaveXYScale     = 0x0040
	compHaveTwoByTwo    = 0x0080
	compHaveInstruction = 0x0100
)

const glyfOverlapSimple = 0x40

func reconstructGlyf(data []byte) (*glyfResult, error) {
	hdr := &byteReader{data: data}
	hdr.u16() // reserved
	optionFlags := hdr.u16()
	numGlyphs := int(hdr.u16())
	indexFormat := hdr.u16()
	var sizes [7]uint32
	for i := range sizes {
		sizes[i] = hdr.u32()
	}
	if hdr.err != nil {
		return nil, errFontFormat("WOFF2 glyf transform header truncated")
	}
	streams := make([]*byteReader, len(sizes))
	for i, size := range sizes {
		b := hdr.bytes(int(size))
		if hdr.err != nil {
			return nil, errFontFormat("WOFF2 glyf sub-stream out of bounds")
		}
		streams[i] = &byteReader{data: b}
	}
	nContourStream, nPointsStream, flagStream, glyphStream := streams[0], streams[1], streams[2], streams[3]
	compositeStream, bboxStream, instructionStream := streams[4], streams[5], streams[6]
	var overlap []byte
	if optionFlags&1 != 0 {
		overlap = hdr.bytes((numGlyphs + 7) / 8)
		if hdr.err != nil {
			return nil, errFontFormat("WOFF2 glyf overlap bitmap out of bounds")
		}
	}
	bboxBitmap := bboxStream.bytes(4 * ((numGlyphs + 31) / 32))
	if bboxStream.err != nil {
		return nil, errFontFormat("WOFF2 glyf bbox bitmap out of bounds")
	}
	hasBit := func(bitmap []byte, i int) bool {
		return bitmap != nil && bitmap[i>>3]&(0x80>>(i&7)) != 0
	}

	res := &glyfResult{xMins: make([]int16, numGlyphs)}
	var glyf bytes.Buffer
	offsets := make([]uint32, numGlyphs+1)
	for i := 0; i < numGlyphs; i++ {
		offsets[i] = uint32(glyf.Len())
		nContours := nContourStream.i16()
		explicitBBox := hasBit(bboxBitmap, i)
		var bbox [4]int16
		if explicitBBox {
			for k := range bbox {
				bbox[k] = bboxStream.i16()
			}
		}
		switch {
		case nContours == 0:
			if explicitBBox {
				return nil, errFontFormat(fmt.Sprintf("WOFF2 glyph %d: empty glyph with bbox", i))
			}
		case nContours < 0: // composite
			if !explicitBBox {
				return nil, errFontFormat(fmt.Sprintf("WOFF2 glyph %d: composite without bbox", i))
			}
			comp, haveInstructions := readComposite(compositeStream)
			writeGlyphHeader(&glyf, -1, bbox)
			glyf.Write(comp)
			if haveInstructions {
				n := glyphStream.read255UInt16()
				putInstructions(&glyf, n, instructionStream)
			}
			res.xMins[i] = bbox[0]
		default:
			if err := writeSimpleGlyph(&glyf, int(nContours), bbox, explicitBBox, hasBit(overlap, i),
				nPointsStream, flagStream, glyphStream, instructionStream); err != nil {
				return nil, fmt.Errorf("WOFF2 glyph %d: %w", i, err)
			}
			res.xMins[i] = int16(u16(glyf.Bytes()[offsets[i]+2:]))
		}
		for glyf.Len()%4 != 0 {
			glyf.WriteByte(0)
		}
		for _, s := range streams {
			if s.err != nil {
				return nil, errFontFormat(fmt.Sprintf("WOFF2 glyph %d: glyf sub-stream exhausted", i))
			}
		}
	}
	offsets[numGlyphs] = uint32(glyf.Len())
	res.glyf = glyf.Bytes()
	if indexFormat == 0 {
		res.loca = make([]byte, 2*(numGlyphs+1))
		for i, o := range offsets {
			putU16(res.loca[2*i:], uint16(o/2))
		}
	} else {
		res.loca = make([]byte, 4*(numGlyphs+1))
		for i, o := range offsets {
			putU32(res.loca[4*i:], o)
		}
	}
	return res, nil
}

func writeGlyphHeader(w *bytes.Buffer, nContours int16, bbox [4]int16) {
	var b [10]byte
	putU16(b[:], uint16(nContours))
	for k, v := range bbox {
		putU16(b[2+2*k:], uint16(v))
	}
	w.Write(b[:])
}

func putInstructions(w *bytes.Buffer, n uint16, instructions *byteReader) {
	var b [2]byte
	putU16(b[:], n)
	w.Write(b[:])
	w.Write(instructions.bytes(int(n)))
}

// readComposite copies the component records of a composite glyph.
func readComposite(r *byteReader) ([]byte, bool) {
	start := r.pos
	haveInstructions := false
	for {
		flags := r.u16()
		r.u16() // glyph index
		n := 2
		if flags&compArgsAreWords != 0 {
			n = 4
		}
		switch {
		case flags&compHaveScale != 0:
			n += 2
		case flags&compHaveXYScale != 0:
			n += 4
		case flags&compHaveTwoByTwo != 0:
			n += 8
		}
		r.bytes(n)
		haveInstructions = haveInstructions || flags&compHaveInstruction != 0
		if flags&compMoreComponents == 0 || r.err != nil {
			break
		}
	}
	if r.err != nil {
		return nil, false
	}
	return r.data[start:r.pos], haveInstructions
}

type point struct {
	x, y    int
	onCurve bool
}

func writeSimpleGlyph(w *bytes.Buffer, nContours int, bbox [4]int16, explicitBBox, overlap bool,
	nPoints, flags, glyphs, instructions *byteReader) error {
	endPts := make([]uint16, nContours)
	total := 0
	for c := range endPts {
		total += int(nPoints.read255UInt16())
		if total == 0 || total > 0xffff {
			return errFontFormat("invalid point count")
		}
		endPts[c] = uint16(total - 1)
	}
	pts := make([]point, total)
	x, y := 0, 0
	for i := range pts {
		flag := flags.u8()
		dx, dy := decodeTriplet(flag&0x7f, glyphs)
		x, y = x+dx, y+dy
		pts[i] = point{x: x, y: y, onCurve: flag&0x80 == 0}
	}
	if flags.err != nil || glyphs.err != nil {
		return errFontFormat("point data truncated")
	}
	if !explicitBBox {
		bbox = [4]int16{int16(pts[0].x), int16(pts[0].y), int16(pts[0].x), int16(pts[0].y)}
		for _, p := range pts[1:] {
			bbox[0] = min(bbox[0], int16(p.x))
			bbox[1] = min(bbox[1], int16(p.y))
			bbox[2] = max(bbox[2], int16(p.x))
			bbox[3] = max(bbox[3], int16(p.y))
		}
	}
	writeGlyphHeader(w, int16(nContours), bbox)
	var b [2]byte
	for _, e := range endPts {
		putU16(b[:], e)
		w.Write(b[:])
	}
	putInstructions(w, glyphs.read255UInt16(), instructions)
	// Flags are written one per point, coordinates as 16-bit deltas.
	for i, p := range pts {
		var f byte
		if p.onCurve {
			f = 0x01
		}
		if i == 0 && overlap {
			f |= glyfOverlapSimple
		}
		w.WriteByte(f)
	}
	prev := 0
	for _, p := range pts {
		putU16(b[:], uint16(int16(p.x-prev)))
		w.Write(b[:])
		prev = p.x
	}
	prev = 0
	for _, p := range pts {
		putU16(b[:], uint16(int16(p.y-prev)))
		w.Write(b[:])
		prev = p.y
	}
	return nil
}

// decodeTriplet decodes a point delta of the WOFF2 triplet encoding.
func decodeTriplet(flag uint8, r *byteReader) (dx, dy int) {
	withSign := func(flag uint8, base int) int {
		if flag&1 != 0 {
			return base
		}
		return -base
	}
	f := int(flag)
	switch {
	case flag < 10:
		dy = withSign(flag, (f&14)<<7+int(r.u8()))
	case flag < 20:
		dx = withSign(flag, ((f-10)&14)<<7+int(r.u8()))
	case flag < 84:
		b0, b1 := f-20, int(r.u8())
		dx = withSign(flag, 1+(b0&0x30)+(b1>>4))
		dy = withSign(flag>>1, 1+(b0&0x0c)<<2+(b1&0x0f))
	case flag < 120:
		b0 := f - 84
		dx = withSign(flag, 1+(b0/12)<<8+int(r.u8()))
		dy = withSign(flag>>1, 1+((b0%12)>>2)<<8+int(r.u8()))
	case flag < 124:
		b0, b1, b2 := int(r.u8()), int(r.u8()), int(r.u8())
		dx = withSign(flag, b0<<4+b1>>4)
		dy = withSign(flag>>1, (b1&0x0f)<<8+b2)
	default:
		dx = withSign(flag, int(r.u16()))
		dy = withSign(flag>>1, int(r.u16()))
	}
	return
}

// --- hmtx reconstruction ---------------------------------------------------

func reconstructHmtx(data []byte, byTag map[Tag]*woff2Entry, xMins []int16) ([]byte, error) {
	hhea, ok := byTag[T("hhea")]
	if !ok || len(hhea.data) < 36 {
		return nil, errFontFormat("WOFF2 transformed 'hmtx' requires 'hhea'")
	}
	maxp, ok := byTag[T("maxp")]
	if !ok || len(maxp.data) < 6 {
		return nil, errFontFormat("WOFF2 transformed 'hmtx' requires 'maxp'")
	}
	numHMetrics := int(u16(hhea.data[34:]))
	numGlyphs := int(u16(maxp.data[4:]))
	if numHMetrics < 1 || numHMetrics > numGlyphs {
		return nil, errFontFormat("WOFF2 hmtx: invalid numberOfHMetrics")
	}
	r := &byteReader{data: data}
	flags := r.u8()
	lsbFromGlyf := flags&1 != 0
	monoLsbFromGlyf := flags&2 != 0
	if (lsbFromGlyf || monoLsbFromGlyf) && len(xMins) < numGlyphs {
		return nil, errFontFormat("WOFF2 hmtx: side bearings depend on missing 'glyf' data")
	}
	advances := make([]uint16, numHMetrics)
	for i := range advances {
		advances[i] = r.u16()
	}
	lsbs := make([]int16, numGlyphs)
	for i := 0; i < numHMetrics; i++ {
		if lsbFromGlyf {
			lsbs[i] = xMins[i]
		} else {
			lsbs[i] = r.i16()
		}
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		if monoLsbFromGlyf {
			lsbs[i] = xMins[i]
		} else {
			lsbs[i] = r.i16()
		}
	}
	if r.err != nil {
		return nil, errFontFormat("WOFF2 hmtx transform truncated")
	}
	out := make([]byte, 4*numHMetrics+2*(numGlyphs-numHMetrics))
	for i := 0; i < numHMetrics; i++ {
		putU16(out[4*i:], advances[i])
		putU16(out[4*i+2:], uint16(lsbs[i]))
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		putU16(out[4*numHMetrics+2*(i-numHMetrics):], uint16(lsbs[i]))
	}
	return out, nil
}
