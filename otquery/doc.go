/*
Package otquery answers questions about a parsed font without rendering it:
which human readable names the font carries, and which glyph identifier each
code-point maps to.

The character map produced here is the basis for recovering obfuscated text:
a glyph identifier such as "uniE78C" names the glyph a code-point is drawn
with, and clients map identifiers to recognized text.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ot")
}
