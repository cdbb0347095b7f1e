/*
Package fontload loads font files for rendering and character map extraction.

A loaded font carries two views of the same binary: the ot view, which knows
about character maps and glyph names, and the sfnt view from golang.org/x/image,
which is used for rasterizing. WOFF and WOFF2 fonts are unwrapped by package ot,
the sfnt view is created from the unwrapped data.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/npillmayer/fontocr/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontocr.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ot")
}

// ErrFontNotFound is returned if a font file cannot be read.
var ErrFontNotFound = errors.New("font not found")

// ErrFontParse is returned if a font binary cannot be parsed as a supported
// font format.
var ErrFontParse = errors.New("cannot parse font")

// ScalableFont is a parsed scalable font with original bytes, an OpenType view
// and an SFNT view.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, empty for fonts parsed from memory
	Binary   []byte     // raw data as read, possibly WOFF/WOFF2
	SFNT     *sfnt.Font // for rasterizing; not safe for concurrent LoadGlyph calls with a shared buffer
	OT       *ot.Font   // character map and glyph names
}

// LoadFont loads a font (TTF, OTF, WOFF or WOFF2) from a file.
// Errors match ErrFontNotFound or ErrFontParse.
func LoadFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontNotFound, err)
	}
	f, err := ParseFont(bytez)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fontfile, err)
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseFont loads a font from memory. Errors match ErrFontParse.
func ParseFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	if f.OT, err = ot.Parse(fbytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontParse, err)
	}
	if f.SFNT, err = sfnt.Parse(f.OT.Binary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontParse, err)
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err == nil {
		tracer().Debugf("loaded and parsed font %s", f.Fontname)
	}
	for _, e := range f.OT.Errors() {
		tracer().Infof("font %q: %v", f.Fontname, e)
	}
	return f, nil
}

// Exists reports whether fontfile names a readable regular file.
func Exists(fontfile string) error {
	_, err := Stat(fontfile)
	return err
}

// Stat returns file information for a font file. Errors match ErrFontNotFound.
func Stat(fontfile string) (fs.FileInfo, error) {
	info, err := os.Stat(fontfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFontNotFound, fontfile)
	}
	return info, nil
}
