/*
Package fontocr recovers the text hidden by obfuscated web fonts.

Some web sites protect text from scraping by serving a custom font whose glyph
identifiers are randomized with every build. The page source then contains
private use characters, or character references such as "&#xe78c;", which only
turn into readable text when displayed with that font. fontocr renders every
glyph of such a font to a normalized image, classifies the image with an OCR
back end, and returns a mapping from glyph identifier to text:

	clf, _ := template.New()
	mapping, err := fontocr.ExtractMapping(ctx, "price.woff", clf)
	...
	text := mapping.Decode("&#xe78c;&#xe562;")

The building blocks live in sub-packages:

	ot          OpenType tables: character map, glyph names, WOFF/WOFF2 unwrapping
	otquery     font metadata and character map queries
	raster      glyph rendering and render caches
	ocr         the classifier capability and its back ends
	glyphmap    mapping extraction and decoding

Fetching fonts and pages from web sites is not part of this module.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontocr

import (
	"context"

	"github.com/npillmayer/fontocr/glyphmap"
	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/otquery"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontocr'
func tracer() tracing.Trace {
	return tracing.Select("fontocr")
}

// Errors, to be checked with errors.Is.
var (
	ErrFontNotFound     = fontload.ErrFontNotFound
	ErrFontParse        = fontload.ErrFontParse
	ErrInvalidCodepoint = raster.ErrInvalidCodepoint
	ErrInvalidSize      = raster.ErrInvalidSize
	ErrClassification   = ocr.ErrClassification
)

// ExtractMapping renders and classifies every glyph of a font and returns
// a mapping from glyph identifier to recognized text, with one entry per
// glyph identifier. See glyphmap.ExtractMapping.
func ExtractMapping(ctx context.Context, fontPath string, clf ocr.Classifier,
	opts ...glyphmap.Option) (glyphmap.Mapping, error) {
	//
	return glyphmap.ExtractMapping(ctx, fontPath, clf, opts...)
}

// FontInfo returns the Unicode-encoded name records of a font, keyed by name
// ID, and its character map. No glyphs are rendered.
func FontInfo(fontPath string) (map[sfnt.NameID]string, otquery.CharacterMap, error) {
	f, err := LoadFont(fontPath)
	if err != nil {
		return nil, nil, err
	}
	info := otquery.NameInfo(f.OT)
	cmap := otquery.CharMap(f.OT)
	tracer().Debugf("font %s: %d names, %d code-points", fontPath, len(info), len(cmap))
	return info, cmap, nil
}
