package ot

import (
	"sort"
)

// Font represents the tables of an OpenType font relevant for mapping
// code-points to glyphs.
//
// A Font needs ongoing access to its binary data; clients must not modify
// Binary while the Font is in use.
type Font struct {
	Header    FontHeader
	Binary    []byte     // plain SFNT data, unwrapped from WOFF/WOFF2 if necessary
	Container Container  // container format the font was delivered in
	NumGlyphs int        // from table 'maxp'
	CMap      *CMapTable // selected character map
	Post      *PostTable // glyph names, may be nil
	tables    map[Tag]*Table
	errs      errorCollector
	names     []string // glyph names, lazily built
}

// Container denotes the wrapping format of a font binary.
type Container int

// Supported containers
const (
	ContainerSFNT  Container = iota // TrueType or CFF OpenType
	ContainerWOFF                   // WOFF 1.0
	ContainerWOFF2                  // WOFF 2.0
)

func (c Container) String() string {
	switch c {
	case ContainerSFNT:
		return "SFNT"
	case ContainerWOFF:
		return "WOFF"
	case ContainerWOFF2:
		return "WOFF2"
	}
	return "unknown"
}

// FontHeader is the offset table at the start of an SFNT font.
//
// OpenType fonts that contain TrueType outlines use 0x00010000 as FontType.
// OpenType fonts containing CFF data use 0x4F54544F ('OTTO').
// Apple allows 'true' as well.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// IsCFF returns true if the font contains CFF outlines.
func (h FontHeader) IsCFF() bool {
	return h.FontType == sfntVersionCFF
}

const (
	sfntVersionTrueType = 0x00010000
	sfntVersionCFF      = 0x4f54544f // OTTO
	sfntVersionApple    = 0x74727565 // true
)

// Table returns the font table for a given tag, or nil.
// Table tag names are case-sensitive, following the names in the OpenType
// specification, e.g. "cmap" or "OS/2".
func (otf *Font) Table(tag Tag) *Table {
	if otf == nil {
		return nil
	}
	return otf.tables[tag]
}

// TableTags returns the tags of all tables of the font, sorted.
func (otf *Font) TableTags() []Tag {
	tags := make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Errors returns all non-fatal errors collected while parsing.
func (otf *Font) Errors() []FontError {
	return otf.errs.errors
}

// Warnings returns all warnings collected while parsing.
func (otf *Font) Warnings() []FontWarning {
	return otf.errs.warnings
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table is a raw font table: a view into the font's binary data.
type Table struct {
	Tag    Tag
	Offset uint32 // offset within Font.Binary
	Length uint32
	data   binarySegm
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (t *Table) Binary() []byte {
	if t == nil {
		return nil
	}
	return t.data
}
