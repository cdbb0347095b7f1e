package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/npillmayer/fontocr/internal/fontload"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrInvalidCodepoint is returned for code-points outside of the Unicode range.
var ErrInvalidCodepoint = errors.New("invalid code-point")

// ErrInvalidSize is returned for a target size < 1.
var ErrInvalidSize = errors.New("invalid glyph image size")

// Glyph is a rendered glyph. Glyphs are shared between callers through the
// render cache and must not be modified.
type Glyph struct {
	Codepoint rune
	FontPath  string
	Size      int
	Bitmap    *image.Gray     // Size×Size, black ink on white
	BBox      image.Rectangle // ink bounding box on the canvas, empty for blank glyphs
	Crop      image.Rectangle // region of the canvas which has been resampled
}

// IsBlank is true if the glyph has no ink.
func (g *Glyph) IsBlank() bool {
	return g.BBox.Empty()
}

// PNG encodes the glyph's bitmap as a PNG image.
func (g *Glyph) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.Bitmap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Rasterize renders a code-point of a font to a size×size bitmap. The result
// is not cached. Code-points not covered by the font render glyph 0 (.notdef).
//
// buf may be nil. If it is not, it must not be used concurrently.
func Rasterize(f *fontload.ScalableFont, codepoint rune, size int, buf *sfnt.Buffer) (*Glyph, error) {
	if err := checkArgs(codepoint, size); err != nil {
		return nil, err
	}
	if buf == nil {
		buf = &sfnt.Buffer{}
	}
	gid := f.OT.CMap.Lookup(codepoint)
	segs, err := f.SFNT.LoadGlyph(buf, sfnt.GlyphIndex(gid), fixed.I(size), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot load glyph %d for U+%04X: %w", gid, codepoint, err)
	}
	g := &Glyph{Codepoint: codepoint, FontPath: f.Filepath, Size: size}
	canvas := drawCentered(segs, 2*size)
	g.BBox = inkBounds(canvas)
	if g.BBox.Empty() {
		tracer().Debugf("glyph %d for U+%04X is blank", gid, codepoint)
		g.Bitmap = blank(size)
		return g, nil
	}
	g.Crop = CropRegion(g.BBox, size, canvas.Bounds())
	g.Bitmap = image.NewGray(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(g.Bitmap, g.Bitmap.Bounds(), canvas, g.Crop, draw.Src, nil)
	return g, nil
}

// drawCentered rasterizes an outline onto a white square canvas of dimension
// dim. The centre of the outline's bounds is placed at the canvas centre.
func drawCentered(segs sfnt.Segments, dim int) *image.Gray {
	coverage := image.NewAlpha(image.Rect(0, 0, dim, dim))
	if len(segs) > 0 {
		bounds := segs.Bounds()
		glyphCenterX := (float32(bounds.Min.X) + float32(bounds.Max.X)) / 128
		glyphCenterY := (float32(bounds.Min.Y) + float32(bounds.Max.Y)) / 128
		tx := float32(dim)/2 - glyphCenterX
		ty := float32(dim)/2 - glyphCenterY
		rast := vector.NewRasterizer(dim, dim)
		rast.DrawOp = draw.Src
		for _, seg := range segs {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				rast.MoveTo(tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64)
			case sfnt.SegmentOpLineTo:
				rast.LineTo(tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64)
			case sfnt.SegmentOpQuadTo:
				rast.QuadTo(
					tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64,
					tx+float32(seg.Args[1].X)/64, ty+float32(seg.Args[1].Y)/64,
				)
			case sfnt.SegmentOpCubeTo:
				rast.CubeTo(
					tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64,
					tx+float32(seg.Args[1].X)/64, ty+float32(seg.Args[1].Y)/64,
					tx+float32(seg.Args[2].X)/64, ty+float32(seg.Args[2].Y)/64,
				)
			}
		}
		rast.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})
	}
	return threshold(coverage)
}

func checkArgs(codepoint rune, size int) error {
	if codepoint < 0 || codepoint > utf8.MaxRune {
		return fmt.Errorf("%w: %d", ErrInvalidCodepoint, codepoint)
	}
	if size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}

// --- Renderer --------------------------------------------------------------

// DefaultFontCapacity is the number of parsed fonts a Renderer keeps.
const DefaultFontCapacity = 16

// Renderer renders glyphs of font files, memoizing results in a Cache.
// A Renderer is safe for concurrent use, but renders one glyph at a time.
type Renderer struct {
	// DebugDir, if set, receives a copy of every freshly rendered glyph as
	// <codepoint>.png. Failures to write it are traced, not returned.
	DebugDir string
	cache    *Cache
	mu       sync.Mutex
	fonts    *lru.Cache[string, loadedFont]
	buf      sfnt.Buffer
}

// loadedFont is a parsed font together with the state of its file at the
// time of loading.
type loadedFont struct {
	font    *fontload.ScalableFont
	modTime time.Time
	size    int64
}

// NewRenderer creates a renderer using a render cache. If cache is nil, the
// process-global DefaultCache is used.
func NewRenderer(cache *Cache) *Renderer {
	if cache == nil {
		cache = DefaultCache()
	}
	fonts, err := lru.New[string, loadedFont](DefaultFontCapacity)
	if err != nil {
		panic(err) // only possible for capacity <= 0
	}
	return &Renderer{cache: cache, fonts: fonts}
}

// Cache returns the render cache of r.
func (r *Renderer) Cache() *Cache {
	return r.cache
}

// RenderGlyph renders a code-point of the font at fontPath to a size×size
// bitmap. Repeated calls with identical arguments return the identical glyph.
//
// Errors match ErrInvalidCodepoint, ErrInvalidSize, fontload.ErrFontNotFound
// or fontload.ErrFontParse.
func (r *Renderer) RenderGlyph(codepoint rune, fontPath string, size int) (*Glyph, error) {
	if err := checkArgs(codepoint, size); err != nil {
		return nil, err
	}
	if err := fontload.Exists(fontPath); err != nil {
		return nil, err
	}
	key := Key{Codepoint: codepoint, FontPath: fontPath, Size: size}
	if g, ok := r.cache.Get(key); ok {
		return g, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.cache.Get(key); ok { // rendered while we were waiting
		return g, nil
	}
	f, err := r.font(fontPath)
	if err != nil {
		return nil, err
	}
	g, err := Rasterize(f, codepoint, size, &r.buf)
	if err != nil {
		return nil, err
	}
	g.FontPath = fontPath
	r.cache.Add(key, g)
	r.writeDebugImage(g)
	return g, nil
}

// LoadFont returns the parsed font for fontPath, loading it if necessary.
// A font whose file has changed (modification time or size) since it has
// been parsed is loaded again.
func (r *Renderer) LoadFont(fontPath string) (*fontload.ScalableFont, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.font(fontPath)
}

// ReloadFont parses the font at fontPath again, regardless of any parsed
// font kept by r. If the contents of the file have changed, glyphs rendered
// from the previous contents are dropped from the render cache.
func (r *Renderer) ReloadFont(fontPath string) (*fontload.ScalableFont, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, err := fontload.Stat(fontPath)
	if err != nil {
		r.ForgetFont(fontPath)
		return nil, err
	}
	return r.load(fontPath, info)
}

func (r *Renderer) font(fontPath string) (*fontload.ScalableFont, error) {
	info, err := fontload.Stat(fontPath)
	if err != nil {
		r.ForgetFont(fontPath)
		return nil, err
	}
	if lf, ok := r.fonts.Get(fontPath); ok && lf.size == info.Size() && lf.modTime.Equal(info.ModTime()) {
		return lf.font, nil
	}
	return r.load(fontPath, info)
}

func (r *Renderer) load(fontPath string, info fs.FileInfo) (*fontload.ScalableFont, error) {
	f, err := fontload.LoadFont(fontPath)
	if err != nil {
		r.ForgetFont(fontPath)
		return nil, err
	}
	if prev, ok := r.fonts.Peek(fontPath); ok && !bytes.Equal(prev.font.Binary, f.Binary) {
		tracer().Debugf("font %s has changed", fontPath)
		r.ForgetFont(fontPath)
	}
	r.fonts.Add(fontPath, loadedFont{font: f, modTime: info.ModTime(), size: info.Size()})
	return f, nil
}

// ForgetFont drops a parsed font together with all glyphs rendered from it,
// e.g. after the font file has changed.
func (r *Renderer) ForgetFont(fontPath string) {
	r.fonts.Remove(fontPath)
	if n := r.cache.RemoveFont(fontPath); n > 0 {
		tracer().Debugf("dropped %d rendered glyphs of %s", n, fontPath)
	}
}

func (r *Renderer) writeDebugImage(g *Glyph) {
	if r.DebugDir == "" {
		return
	}
	data, err := g.PNG()
	if err == nil {
		if err = os.MkdirAll(r.DebugDir, 0o755); err == nil {
			path := filepath.Join(r.DebugDir, strconv.Itoa(int(g.Codepoint))+".png")
			err = os.WriteFile(path, data, 0o644)
		}
	}
	if err != nil {
		tracer().Infof("cannot write debug image for U+%04X: %v", g.Codepoint, err)
	}
}

var defaultRenderer struct {
	once sync.Once
	r    *Renderer
}

// DefaultRenderer returns a process-global renderer using DefaultCache.
func DefaultRenderer() *Renderer {
	defaultRenderer.once.Do(func() {
		defaultRenderer.r = NewRenderer(DefaultCache())
	})
	return defaultRenderer.r
}

// RenderGlyph renders a glyph with the DefaultRenderer.
func RenderGlyph(codepoint rune, fontPath string, size int) (*Glyph, error) {
	return DefaultRenderer().RenderGlyph(codepoint, fontPath, size)
}
