package ot

import (
	"fmt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// Maximum reasonable counts for font structures. These limits prevent malicious
// fonts from claiming unreasonably large counts that could lead to excessive
// memory allocation.
const (
	MaxTableCount = 1024
	MaxGlyphCount = 65536 // glyph indices are uint16
)

const (
	signatureWOFF  = 0x774f4646 // wOFF
	signatureWOFF2 = 0x774f4632 // wOF2
	signatureTTC   = 0x74746366 // ttcf
)

// Parse parses an OpenType font from a byte slice. Fonts wrapped in WOFF or
// WOFF2 containers are unwrapped first.
//
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// Errors returned by Parse wrap ErrFontFormat.
func Parse(font []byte) (*Font, error) {
	if len(font) < 12 {
		return nil, errFontFormat("font data too short")
	}
	container := ContainerSFNT
	switch u32(font) {
	case signatureWOFF:
		sfnt, err := unwrapWOFF(font)
		if err != nil {
			return nil, err
		}
		font, container = sfnt, ContainerWOFF
	case signatureWOFF2:
		sfnt, err := unwrapWOFF2(font)
		if err != nil {
			return nil, err
		}
		font, container = sfnt, ContainerWOFF2
	case signatureTTC:
		return nil, errFontFormat("font collections are not supported")
	}
	otf, err := parseSFNT(font)
	if err != nil {
		return nil, err
	}
	otf.Container = container
	return otf, nil
}

func parseSFNT(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := binarySegm(font)
	h := FontHeader{FontType: src.U32(0), TableCount: src.U16(4)}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())

	ec := &errorCollector{}
	if !(h.FontType == sfntVersionCFF || h.FontType == sfntVersionTrueType || h.FontType == sfntVersionApple) {
		ec.addError(T(""), "Header", fmt.Sprintf("font type not supported: %x", h.FontType), SeverityCritical, 0)
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	if h.TableCount > MaxTableCount {
		ec.addError(T(""), "TableRecords", fmt.Sprintf("table count too large: %d", h.TableCount), SeverityCritical, 4)
		return nil, errFontFormat(fmt.Sprintf("table count too large: %d", h.TableCount))
	}
	otf := &Font{Header: h, Binary: font, tables: make(map[Tag]*Table)}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		ec.addError(T(""), "TableRecords", "table record entries", SeverityCritical, 12)
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := Tag(u32(b))
		if tag < prevTag {
			ec.addWarning(tag, "table records not sorted by tag", 12)
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundries".
			ec.addWarning(tag, "table offset not 4-byte aligned", off)
		}
		end, ok := checkedAddUint32(off, size)
		if !ok || end > uint32(len(src)) {
			ec.addError(tag, "Bounds", fmt.Sprintf("bounds [%d:%d] exceed font size %d", off, off+size, len(src)), SeverityCritical, off)
			return nil, errFontFormat(fmt.Sprintf("table %s: bounds exceed font size %d", tag, len(src)))
		}
		otf.tables[tag] = &Table{Tag: tag, Offset: off, Length: size, data: src[off:end]}
	}
	if err := extractMappingInfo(otf, ec); err != nil {
		return nil, err
	}
	otf.errs = *ec
	return otf, nil
}

// extractMappingInfo parses the tables needed to map code-points to named
// glyphs: 'maxp', 'cmap' and 'post'.
func extractMappingInfo(otf *Font, ec *errorCollector) error {
	maxp := otf.Table(T("maxp"))
	if maxp == nil {
		ec.addError(T("maxp"), "Table", "missing required table", SeverityCritical, 0)
		return errFontFormat("missing required table 'maxp'")
	}
	n, err := maxp.data.u16(4) // version(4) numGlyphs(2)
	if err != nil || n == 0 {
		ec.addError(T("maxp"), "NumGlyphs", "invalid number of glyphs", SeverityCritical, maxp.Offset)
		return errFontFormat("invalid number of glyphs")
	}
	otf.NumGlyphs = int(n)

	cmap := otf.Table(T("cmap"))
	if cmap == nil {
		ec.addError(T("cmap"), "Table", "missing required table", SeverityCritical, 0)
		return errFontFormat("missing required table 'cmap'")
	}
	if otf.CMap, err = parseCMap(cmap.Tag, cmap.data, cmap.Offset, otf.NumGlyphs, ec); err != nil {
		return err
	}
	if post := otf.Table(T("post")); post != nil {
		otf.Post = parsePost(post.Tag, post.data, post.Offset, otf.NumGlyphs, ec)
	}
	return nil
}
