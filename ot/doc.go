/*
Package ot provides access to the OpenType font tables needed to map characters
to glyphs: the table directory, 'cmap', 'maxp', 'post' and 'name'.

Package ot will not rasterize glyphs or interpret outlines; that is left to
golang.org/x/image/font/sfnt, which is well suited for rasterizing. However,
the sfnt package does not expose the character map as a whole, nor the
font's glyph names, and these are exactly what is needed to recover the
mapping of an obfuscated web font. Package ot parses these tables itself.

Fonts served on the web are frequently wrapped as WOFF or WOFF2. Parse will
unwrap both containers and afterwards operate on the plain SFNT data, which is
available as Font.Binary, so other font packages can consume it as well.

Character map selection follows the usual priority of font tooling:

	(3,10) Windows, Unicode full repertoire
	(0,6)  Unicode, full repertoire (format 13, unsupported, will be skipped)
	(0,4)  Unicode 2.0, full repertoire
	(3,1)  Windows, Unicode BMP
	(0,3)  Unicode 2.0, BMP only
	(0,2)  ISO 10646
	(0,1)  Unicode 1.1
	(0,0)  Unicode 1.0

Symbol encodings (3,0) and Macintosh subtables are never selected.

Glyph names follow the conventions of font tooling as well. Names are taken
from the 'post' table if present; otherwise they are synthesized from the
character map as "uniXXXX" (or "uXXXXX" outside the BMP), which makes it
possible for clients to derive a glyph name from a code-point.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ot")
}
