/*
Package template implements a pure Go glyph classifier.

The classifier renders an alphabet of reference glyphs from a reference font
through the same pipeline that is used for obfuscated fonts, and matches an
input image against these templates by pixel distance. It works well for the
digits and Latin letters that font obfuscation schemes typically protect,
provided the obfuscated font's design is not too far from the reference font.
The default reference font is Go Regular.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package template

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontocr.ocr'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ocr")
}

// DefaultAlphabet is tried in order; on equal distance the earlier rune wins.
const DefaultAlphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const (
	// RenderSize is the size reference glyphs are rendered at.
	RenderSize = 128
	// SampleSize is the size images are reduced to for comparison.
	SampleSize = 32
)

// Classifier matches glyph images against reference glyphs.
type Classifier struct {
	templates  []sample
	sampleSize int
}

type sample struct {
	text string
	pix  []float32 // sampleSize², 0 = white, 1 = ink
}

type config struct {
	font       []byte
	alphabet   string
	renderSize int
	sampleSize int
}

// Option configures a template classifier.
type Option func(*config)

// WithFont sets the reference font (TTF, OTF, WOFF or WOFF2 data).
func WithFont(font []byte) Option {
	return func(c *config) { c.font = font }
}

// WithAlphabet sets the characters a classifier is able to recognize.
func WithAlphabet(alphabet string) Option {
	return func(c *config) { c.alphabet = alphabet }
}

// WithSampleSize sets the resolution of the pixel comparison.
func WithSampleSize(size int) Option {
	return func(c *config) { c.sampleSize = size }
}

// New creates a classifier, rendering the reference alphabet. Characters the
// reference font has no visible glyph for are left out.
func New(opts ...Option) (*Classifier, error) {
	conf := config{
		font:       goregular.TTF,
		alphabet:   DefaultAlphabet,
		renderSize: RenderSize,
		sampleSize: SampleSize,
	}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.sampleSize < 1 {
		return nil, fmt.Errorf("invalid sample size %d", conf.sampleSize)
	}
	f, err := fontload.ParseFont(conf.font)
	if err != nil {
		return nil, fmt.Errorf("reference font: %w", err)
	}
	c := &Classifier{sampleSize: conf.sampleSize}
	var buf sfnt.Buffer
	for _, r := range conf.alphabet {
		if f.OT.CMap.Lookup(r) == 0 {
			tracer().Debugf("reference font has no glyph for %q", r)
			continue
		}
		g, err := raster.Rasterize(f, r, conf.renderSize, &buf)
		if err != nil {
			return nil, fmt.Errorf("reference glyph %q: %w", r, err)
		}
		if g.IsBlank() {
			continue
		}
		c.templates = append(c.templates, sample{text: string(r), pix: c.reduce(g.Bitmap)})
	}
	if len(c.templates) == 0 {
		return nil, fmt.Errorf("reference font has no glyphs for alphabet %q", conf.alphabet)
	}
	tracer().Debugf("template classifier with %d reference glyphs", len(c.templates))
	return c, nil
}

// Len is the number of reference glyphs.
func (c *Classifier) Len() int {
	return len(c.templates)
}

// Classify decodes a PNG image and returns the text of the closest reference
// glyph. Images without ink are classified as "".
func (c *Classifier) Classify(ctx context.Context, data []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("cannot decode glyph image: %w", err)
	}
	pix := c.reduce(img)
	if !hasInk(pix) {
		return "", nil
	}
	best, dist := "", math.Inf(1)
	for _, t := range c.templates {
		if d := distance(pix, t.pix); d < dist {
			best, dist = t.text, d
		}
	}
	tracer().Debugf("classified glyph as %q, distance %.4f", best, dist)
	return best, ctx.Err()
}

// reduce scales an image to sampleSize² ink values.
func (c *Classifier) reduce(img image.Image) []float32 {
	n := c.sampleSize
	small := image.NewGray(image.Rect(0, 0, n, n))
	draw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)
	pix := make([]float32, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			pix[y*n+x] = 1 - float32(small.Pix[y*small.Stride+x])/255
		}
	}
	return pix
}

func hasInk(pix []float32) bool {
	for _, v := range pix {
		if v >= 0.5 {
			return true
		}
	}
	return false
}

// distance is the mean absolute difference of two samples.
func distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i] - b[i]))
	}
	return sum / float64(len(a))
}
