package otquery

import (
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/fontocr/ot"
)

// FontSummary is a short description of a font, for display by tools.
type FontSummary struct {
	FontType    string // "TrueType" or "CFF"
	Container   string // SFNT, WOFF or WOFF2
	NumGlyphs   int
	UnitsPerEm  uint16
	CMap        string // selected cmap sub-table, e.g. "(3,1) format 4"
	Codepoints  int    // number of entries in the character map
	GlyphNames  string // "post" or "synthesized"
	Tables      []string
	ParseIssues int // number of collected errors and warnings
}

// Summary collects a FontSummary from a font.
func Summary(otf *ot.Font) FontSummary {
	s := FontSummary{
		FontType:   FontType(otf),
		Container:  otf.Container.String(),
		NumGlyphs:  otf.NumGlyphs,
		Codepoints: otf.CMap.Len(),
		GlyphNames: "synthesized",
	}
	if upem, ok := UnitsPerEm(otf); ok {
		s.UnitsPerEm = upem
	}
	if otf.CMap != nil {
		s.CMap = cmapLabel(otf.CMap)
	}
	if otf.Post.HasNames() {
		s.GlyphNames = "post"
	}
	for _, tag := range otf.TableTags() {
		s.Tables = append(s.Tables, tag.String())
	}
	s.ParseIssues = len(otf.Errors()) + len(otf.Warnings())
	return s
}

// FontType returns "CFF" for fonts with PostScript outlines, "TrueType" otherwise.
func FontType(otf *ot.Font) string {
	if otf.Header.IsCFF() {
		return "CFF"
	}
	return "TrueType"
}

const headTableSize = 54

// UnitsPerEm decodes the units per em from table 'head'.
// Returns (upem, true) on success, or (0, false) if table is missing/too short.
func UnitsPerEm(otf *ot.Font) (uint16, bool) {
	if otf == nil {
		return 0, false
	}
	table := otf.Table(ot.T("head"))
	if table == nil {
		return 0, false
	}
	b := table.Binary()
	if len(b) < headTableSize {
		return 0, false
	}
	return binary.BigEndian.Uint16(b[18:20]), true
}

func cmapLabel(cmap *ot.CMapTable) string {
	return fmt.Sprintf("(%d,%d) format %d", cmap.PlatformID, cmap.EncodingID, cmap.Format)
}
