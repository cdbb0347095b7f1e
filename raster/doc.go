/*
Package raster renders single glyphs of a font to normalized square bitmaps.

A glyph is first drawn onto an oversized monochrome canvas, anchored by the
centre of its outline rather than by its baseline. The ink on the canvas is then
cropped to a square region around its bounding box, with some padding, and
resampled to the requested size. This makes glyphs of different natural size
and vertical position comparable, which is what a character classifier needs.

Rendered glyphs are memoized in a bounded LRU cache keyed by code-point, font
path and size. Optionally, bitmaps are mirrored to a directory as PNG files,
written at most once per file name.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package raster

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.raster'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.raster")
}
