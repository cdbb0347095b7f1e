/*
Package glyphmap recovers the text behind the glyphs of an obfuscated font.

Web sites protecting text from scraping serve a custom font whose glyph
identifiers are randomized, so the text in the page source is meaningless
without the font. ExtractMapping renders every glyph of such a font and
classifies the rendered image, resulting in a Mapping from glyph identifier to
text. The mapping can then be used to decode scraped text.

Extraction is total: a Mapping contains exactly one entry per glyph identifier
of the font's character map. Glyphs which fail to render or to classify are
mapped to the empty string. Only failures concerning the font as a whole abort
an extraction.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyphmap

import (
	"context"
	"fmt"

	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/otquery"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.glyphmap'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.glyphmap")
}

// DefaultImageSize is the default size of rendered glyph images.
const DefaultImageSize = 1024

type options struct {
	imageSize int
	progress  bool
	cacheDir  string
	renderer  *raster.Renderer
}

// Option configures an extraction.
type Option func(*options)

// WithImageSize sets the size of the square glyph images handed to the
// classifier. Smaller sizes are faster.
func WithImageSize(size int) Option {
	return func(o *options) { o.imageSize = size }
}

// WithProgress enables progress messages, traced at level Info.
func WithProgress(on bool) Option {
	return func(o *options) { o.progress = on }
}

// WithCacheDir mirrors glyph images to directory dir, see raster.DiskCache.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

// WithRenderer sets the renderer to use. Default is raster.DefaultRenderer.
func WithRenderer(r *raster.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// Stats summarizes an extraction.
type Stats struct {
	Total      int // entries of the character map
	Rendered   int // glyphs rendered successfully
	Recognized int // glyphs classified to non-empty text
	Failed     int // glyphs which failed to render or to classify
}

func (s Stats) String() string {
	return fmt.Sprintf("%d glyphs: %d rendered, %d recognized, %d failed",
		s.Total, s.Rendered, s.Recognized, s.Failed)
}

// ExtractMapping renders and classifies every glyph of the font at fontPath.
//
// Errors matching fontload.ErrFontNotFound or fontload.ErrFontParse are
// returned before any glyph is processed, as is a failure to create the cache
// directory. The font file is parsed anew for every extraction. All other
// failures are traced and the glyph concerned is mapped to "".
//
// ctx is handed to the classifier; the extraction itself is not interrupted
// by a cancelled context, glyphs not yet classified will map to "".
func ExtractMapping(ctx context.Context, fontPath string, clf ocr.Classifier, opts ...Option) (Mapping, error) {
	m, _, err := ExtractMappingWithStats(ctx, fontPath, clf, opts...)
	return m, err
}

// ExtractMappingWithStats is ExtractMapping, additionally returning a summary.
func ExtractMappingWithStats(ctx context.Context, fontPath string, clf ocr.Classifier,
	opts ...Option) (Mapping, Stats, error) {
	//
	o := options{imageSize: DefaultImageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		o.renderer = raster.DefaultRenderer()
	}
	var stats Stats
	if err := fontload.Exists(fontPath); err != nil {
		return nil, stats, err
	}
	var disk *raster.DiskCache
	if o.cacheDir != "" {
		var err error
		if disk, err = raster.NewDiskCache(o.cacheDir); err != nil {
			return nil, stats, err
		}
	}
	f, err := o.renderer.ReloadFont(fontPath)
	if err != nil {
		return nil, stats, err
	}
	cmap := otquery.CharMap(f.OT)
	codepoints := cmap.Codepoints()
	stats.Total = len(codepoints)
	mapping := make(Mapping, len(codepoints))
	step := max(1, stats.Total/10)
	for i, cp := range codepoints {
		if o.progress && i%step == 0 {
			tracer().Infof("progress: %d/%d (%.1f%%)", i, stats.Total, float64(i)/float64(stats.Total)*100)
		}
		glyphID := cmap[cp]
		text, err := processGlyph(ctx, o, disk, clf, cp, glyphID, fontPath, &stats)
		if err != nil {
			tracer().Errorf("glyph U+%04X (%s): %v", cp, glyphID, err)
			stats.Failed++
		}
		// several code-points may share a glyph; keep the first recognized text
		if prev, ok := mapping[glyphID]; !ok || prev == "" {
			mapping[glyphID] = text
		}
	}
	if o.progress {
		tracer().Infof("completed: %d glyphs", stats.Total)
	}
	tracer().Infof("font %s: %s", fontPath, stats)
	return mapping, stats, nil
}

func processGlyph(ctx context.Context, o options, disk *raster.DiskCache, clf ocr.Classifier,
	cp rune, glyphID, fontPath string, stats *Stats) (string, error) {
	//
	g, err := o.renderer.RenderGlyph(cp, fontPath, o.imageSize)
	if err != nil {
		return "", fmt.Errorf("rendering: %w", err)
	}
	stats.Rendered++
	if disk != nil {
		if _, err := disk.Store(cp, glyphID, g); err != nil {
			tracer().Errorf("cannot cache image of glyph %s: %v", glyphID, err)
		}
	}
	img, err := g.PNG()
	if err != nil {
		return "", fmt.Errorf("encoding: %w", err)
	}
	text, err := ocr.Classify(ctx, clf, img)
	if err != nil {
		return "", err
	}
	if text != "" {
		stats.Recognized++
	}
	tracer().Debugf("glyph U+%04X (%s) = %q", cp, glyphID, text)
	return text, nil
}
