package ot

import (
	"fmt"
	"strconv"
)

// --- Post table ------------------------------------------------------------

// PostTable holds the glyph names of table 'post'.
//
// Version 1.0 fonts use the standard Macintosh ordering of 258 glyphs.
// Version 2.0 fonts carry an index per glyph, pointing either into the standard
// names (index < 258) or to custom Pascal strings stored after the index array.
// Version 3.0 fonts provide no names at all.
type PostTable struct {
	Version uint32
	names   []string
}

// HasNames returns true if the table provides glyph names.
func (t *PostTable) HasNames() bool {
	return t != nil && len(t.names) > 0
}

const postHeaderSize = 32

func parsePost(tag Tag, b binarySegm, offset uint32, numGlyphs int, ec *errorCollector) *PostTable {
	if len(b) < postHeaderSize {
		ec.addError(tag, "Header", "table too short", SeverityMajor, offset)
		return nil
	}
	t := &PostTable{Version: b.U32(0)}
	switch t.Version {
	case 0x00010000:
		n := min(numGlyphs, len(macStandardNames))
		t.names = make([]string, n)
		copy(t.names, macStandardNames[:n])
	case 0x00020000:
		names, err := parsePostNames(b, numGlyphs)
		if err != nil {
			ec.addError(tag, "GlyphNames", err.Error(), SeverityMajor, offset)
			return t
		}
		t.names = names
	case 0x00025000, 0x00030000, 0x00040000:
		tracer().Debugf("post table version %x carries no usable glyph names", t.Version)
	default:
		ec.addWarning(tag, fmt.Sprintf("unknown post table version %x", t.Version), offset)
	}
	return t
}

func parsePostNames(b binarySegm, numGlyphs int) ([]string, error) {
	n, err := b.u16(postHeaderSize)
	if err != nil {
		return nil, err
	}
	if int(n) != numGlyphs {
		tracer().Debugf("post table has %d glyphs, maxp has %d", n, numGlyphs)
	}
	indexes, err := b.view(postHeaderSize+2, 2*int(n))
	if err != nil {
		return nil, fmt.Errorf("glyph name index array out of bounds")
	}
	// custom names are stored as Pascal strings
	var custom []string
	for r := (byteReader{data: b, pos: postHeaderSize + 2 + 2*int(n)}); r.pos < len(b); {
		l := int(r.u8())
		s := r.bytes(l)
		if r.err != nil {
			break // tolerate trailing garbage
		}
		custom = append(custom, string(s))
	}
	names := make([]string, n)
	for i := range names {
		inx := int(u16(indexes[2*i:]))
		switch {
		case inx < len(macStandardNames):
			names[i] = macStandardNames[inx]
		case inx-len(macStandardNames) < len(custom):
			names[i] = custom[inx-len(macStandardNames)]
		default:
			return nil, fmt.Errorf("glyph %d: name index %d out of range", i, inx)
		}
	}
	return names, nil
}

// --- Glyph names -----------------------------------------------------------

// GlyphNames returns the names of all glyphs of the font, indexed by glyph.
//
// Names are taken from table 'post' where available. Glyphs without a name are
// named after the code-point mapping to them: the standard name for printable
// ASCII, "uniXXXX" for other BMP code-points, "uXXXXX" beyond the BMP. Glyphs
// not reachable through the character map are named "glyphNNNNN", glyph 0 is
// ".notdef". Duplicate names are made unique by appending "#1", "#2", ….
// The charset of CFF fonts is not consulted.
func (otf *Font) GlyphNames() []string {
	if otf.names == nil {
		otf.names = otf.buildGlyphNames()
	}
	return otf.names
}

// GlyphName returns the name of glyph gid, or "" if gid is out of range.
func (otf *Font) GlyphName(gid GlyphIndex) string {
	names := otf.GlyphNames()
	if int(gid) >= len(names) {
		return ""
	}
	return names[gid]
}

func (otf *Font) buildGlyphNames() []string {
	var rev map[GlyphIndex]rune
	if otf.CMap != nil {
		rev = otf.CMap.reverse()
	}
	names := make([]string, otf.NumGlyphs)
	seen := make(map[string]int, otf.NumGlyphs)
	for gid := range names {
		var name string
		if otf.Post.HasNames() && gid < len(otf.Post.names) {
			name = otf.Post.names[gid]
		}
		if name == "" {
			name = synthesizeGlyphName(GlyphIndex(gid), rev)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "#" + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[gid] = name
	}
	return names
}

func synthesizeGlyphName(gid GlyphIndex, rev map[GlyphIndex]rune) string {
	if gid == 0 {
		return ".notdef"
	}
	r, ok := rev[gid]
	if !ok {
		return fmt.Sprintf("glyph%05d", gid)
	}
	return NameForCodepoint(r)
}

// NameForCodepoint returns the conventional glyph name for a code-point:
// the standard name for printable ASCII, "uniXXXX" within the BMP and
// "uXXXXX" beyond.
func NameForCodepoint(r rune) string {
	if r >= 0x20 && r <= 0x7e {
		// standard names 3…97 cover U+0020…U+007E in order
		return macStandardNames[int(r)-0x20+3]
	}
	if r <= 0xffff {
		return fmt.Sprintf("uni%04X", r)
	}
	return fmt.Sprintf("u%X", r)
}

// macStandardNames is the standard Macintosh ordering of glyph names.
var macStandardNames = [...]string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl",
	"numbersign", "dollar", "percent", "ampersand", "quotesingle", "parenleft",
	"parenright", "asterisk", "plus", "comma", "hyphen", "period", "slash",
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "colon", "semicolon", "less", "equal", "greater", "question", "at",
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O",
	"P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z", "bracketleft",
	"backslash", "bracketright", "asciicircum", "underscore", "grave",
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o",
	"p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z", "braceleft", "bar",
	"braceright", "asciitilde", "Adieresis", "Aring", "Ccedilla", "Eacute",
	"Ntilde", "Odieresis", "Udieresis", "aacute", "agrave", "acircumflex",
	"adieresis", "atilde", "aring", "ccedilla", "eacute", "egrave",
	"ecircumflex", "edieresis", "iacute", "igrave", "icircumflex", "idieresis",
	"ntilde", "oacute", "ograve", "ocircumflex", "odieresis", "otilde", "uacute",
	"ugrave", "ucircumflex", "udieresis", "dagger", "degree", "cent", "sterling",
	"section", "bullet", "paragraph", "germandbls", "registered", "copyright",
	"trademark", "acute", "dieresis", "notequal", "AE", "Oslash", "infinity",
	"plusminus", "lessequal", "greaterequal", "yen", "mu", "partialdiff",
	"summation", "product", "pi", "integral", "ordfeminine", "ordmasculine",
	"Omega", "ae", "oslash", "questiondown", "exclamdown", "logicalnot",
	"radical", "florin", "approxequal", "Delta", "guillemotleft",
	"guillemotright", "ellipsis", "nonbreakingspace", "Agrave", "Atilde",
	"Otilde", "OE", "oe", "endash", "emdash", "quotedblleft", "quotedblright",
	"quoteleft", "quoteright", "divide", "lozenge", "ydieresis", "Ydieresis",
	"fraction", "currency", "guilsinglleft", "guilsinglright", "fi", "fl",
	"daggerdbl", "periodcentered", "quotesinglbase", "quotedblbase",
	"perthousand", "Acircumflex", "Ecircumflex", "Aacute", "Edieresis",
	"Egrave", "Iacute", "Icircumflex", "Idieresis", "Igrave", "Oacute",
	"Ocircumflex", "apple", "Ograve", "Uacute", "Ucircumflex", "Ugrave",
	"dotlessi", "circumflex", "tilde", "macron", "breve", "dotaccent", "ring",
	"cedilla", "hungarumlaut", "ogonek", "caron", "Lslash", "lslash", "Scaron",
	"scaron", "Zcaron", "zcaron", "brokenbar", "Eth", "eth", "Yacute", "yacute",
	"Thorn", "thorn", "minus", "multiply", "onesuperior", "twosuperior",
	"threesuperior", "onehalf", "onequarter", "threequarters", "franc", "Gbreve",
	"gbreve", "Idotaccent", "Scedilla", "scedilla", "Cacute", "cacute", "Ccaron",
	"ccaron", "dcroat",
}
