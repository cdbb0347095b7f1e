/*
Package ttxtest reads expectations for font tests from TTX dumps.

TTX is the XML format fontTools uses to dump fonts ("ttx -t cmap -t name
font.ttf"). Only the glyph order, the character map sub-tables and the name
records are read; everything else in a dump is ignored.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ttxtest

// ExpectedFont is a normalized model of the parts of a TTX dump needed for
// tests.
type ExpectedFont struct {
	GlyphOrder []string
	CMaps      []ExpectedCMap
	Names      []ExpectedName
}

// ExpectedCMap is a cmap sub-table, mapping code-points to glyph names.
type ExpectedCMap struct {
	Platform uint16
	Encoding uint16
	Format   int
	Map      map[rune]string
}

// ExpectedName is a name record. Text is whitespace-trimmed.
type ExpectedName struct {
	NameID   uint16
	Platform uint16
	Encoding uint16
	Language uint16
	Text     string
}

// cmapPriority lists (platform, encoding) pairs in the order a font tool
// selects the best Unicode sub-table.
var cmapPriority = [][2]uint16{
	{3, 10}, {0, 6}, {0, 4}, {3, 1}, {0, 3}, {0, 2}, {0, 1}, {0, 0},
}

// BestCMap returns the sub-table a font tool would use to map Unicode
// code-points, or nil if there is none.
func (f *ExpectedFont) BestCMap() *ExpectedCMap {
	for _, pe := range cmapPriority {
		for i := range f.CMaps {
			if f.CMaps[i].Platform == pe[0] && f.CMaps[i].Encoding == pe[1] {
				return &f.CMaps[i]
			}
		}
	}
	return nil
}

// Name returns the text of the last Unicode name record with the given ID.
func (f *ExpectedFont) Name(nameID uint16) (string, bool) {
	text, found := "", false
	for _, rec := range f.Names {
		if rec.NameID != nameID || !rec.isUnicode() {
			continue
		}
		text, found = rec.Text, true
	}
	return text, found
}

func (rec ExpectedName) isUnicode() bool {
	return rec.Platform == 0 ||
		(rec.Platform == 3 && (rec.Encoding == 0 || rec.Encoding == 1 || rec.Encoding == 10))
}
