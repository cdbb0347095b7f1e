package fontocr

import (
	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/otquery"
	"golang.org/x/image/font/sfnt"
)

// Font is a loaded font, with views for character map queries (OT) and for
// rendering (SFNT).
type Font = fontload.ScalableFont

// LoadFont loads a TrueType, OpenType, WOFF or WOFF2 font from a file.
// Errors match ErrFontNotFound or ErrFontParse.
func LoadFont(fontPath string) (*Font, error) {
	return fontload.LoadFont(fontPath)
}

// ParseFont loads a font from memory. Errors match ErrFontParse.
func ParseFont(data []byte) (*Font, error) {
	return fontload.ParseFont(data)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded as Unicode text.
func FamilyName(f *Font) (family, subfamily string) {
	info := otquery.NameInfo(f.OT)
	return info[sfnt.NameIDFamily], info[sfnt.NameIDSubfamily]
}
