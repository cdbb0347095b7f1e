package raster

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func digitsFont(t *testing.T) string {
	t.Helper()
	path, err := testfont.WriteFile(t.TempDir(), "digits.ttf", testfont.Digits().TTF())
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	cache, err := NewCache(DefaultCacheCapacity)
	require.NoError(t, err)
	return NewRenderer(cache)
}

func inkCount(img *image.Gray) int {
	n := 0
	for _, v := range img.Pix {
		if v < 0x80 {
			n++
		}
	}
	return n
}

func TestCropRegion(t *testing.T) {
	canvas := image.Rect(0, 0, 200, 200)
	for _, tc := range []struct {
		bbox image.Rectangle
		size int
		want image.Rectangle
	}{
		{image.Rect(75, 65, 125, 135), 100, image.Rect(55, 55, 145, 145)},
		{image.Rect(90, 90, 110, 100), 100, image.Rect(80, 75, 120, 115)},
		{image.Rect(0, 0, 40, 40), 100, image.Rect(0, 0, 50, 50)},        // clamped
		{image.Rect(190, 10, 200, 20), 100, image.Rect(180, 0, 200, 30)}, // clamped
		{image.Rect(5, 5, 6, 6), 5, image.Rect(4, 4, 6, 6)},              // minimum half extent
	} {
		if crop := CropRegion(tc.bbox, tc.size, canvas); crop != tc.want {
			t.Errorf("bbox %v: expected crop %v, have %v", tc.bbox, tc.want, crop)
		}
	}
	if !CropRegion(image.Rectangle{}, 100, canvas).Empty() {
		t.Errorf("expected empty crop region for empty bounding box")
	}
}

func TestCropRegionCentered(t *testing.T) {
	canvas := image.Rect(0, 0, 2048, 2048)
	for _, bbox := range []image.Rectangle{
		image.Rect(700, 800, 1300, 1250),
		image.Rect(1000, 1000, 1001, 1400),
		image.Rect(333, 901, 1777, 1111),
	} {
		crop := CropRegion(bbox, 1024, canvas)
		bc := image.Pt((bbox.Min.X+bbox.Max.X)/2, (bbox.Min.Y+bbox.Max.Y)/2)
		cc := image.Pt((crop.Min.X+crop.Max.X)/2, (crop.Min.Y+crop.Max.Y)/2)
		if d := bc.Sub(cc); d.X < -1 || d.X > 1 || d.Y < -1 || d.Y > 1 {
			t.Errorf("crop %v not centred on bbox %v", crop, bbox)
		}
		if half := crop.Dx() / 2; half < max(bbox.Dx(), bbox.Dy())/2 {
			t.Errorf("crop %v too small for bbox %v", crop, bbox)
		}
		if crop.Dx() != crop.Dy() {
			t.Errorf("expected square crop region, have %v", crop)
		}
	}
}

func TestInkBounds(t *testing.T) {
	img := blank(20)
	if !inkBounds(img).Empty() {
		t.Fatalf("expected blank image to have empty ink bounds")
	}
	img.Pix[3*img.Stride+4] = 0
	img.Pix[10*img.Stride+12] = 0x40
	if b := inkBounds(img); b != image.Rect(4, 3, 13, 11) {
		t.Errorf("expected ink bounds (4,3)-(13,11), have %v", b)
	}
}

func TestRenderGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	for _, size := range []int{1, 17, 64, 100} {
		g, err := r.RenderGlyph(0xe001, path, size)
		require.NoError(t, err)
		b := g.Bitmap.Bounds()
		if b.Dx() != size || b.Dy() != size {
			t.Errorf("expected bitmap %d×%d, have %v", size, size, b)
		}
	}
	g, err := r.RenderGlyph(0xe001, path, 100)
	require.NoError(t, err)
	if g.IsBlank() || inkCount(g.Bitmap) == 0 {
		t.Fatalf("expected glyph U+E001 to have ink")
	}
	// outline 500×700 units at 100 ppem, centred on a 200×200 canvas
	want := image.Rect(75, 65, 125, 135)
	if d := g.BBox.Min.Sub(want.Min); d.X*d.X > 1 || d.Y*d.Y > 1 {
		t.Errorf("expected bbox near %v, have %v", want, g.BBox)
	}
	if d := g.BBox.Max.Sub(want.Max); d.X*d.X > 1 || d.Y*d.Y > 1 {
		t.Errorf("expected bbox near %v, have %v", want, g.BBox)
	}
	if g.Crop != CropRegion(g.BBox, 100, image.Rect(0, 0, 200, 200)) {
		t.Errorf("unexpected crop region %v", g.Crop)
	}
}

func TestRenderBlankGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	for _, cp := range []rune{0xe003, 'A'} { // empty glyph, unmapped code-point (.notdef)
		g, err := r.RenderGlyph(cp, path, 32)
		require.NoError(t, err)
		if !g.IsBlank() || inkCount(g.Bitmap) != 0 {
			t.Errorf("U+%04X: expected blank glyph", cp)
		}
		if b := g.Bitmap.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
			t.Errorf("U+%04X: expected blank bitmap of 32×32, have %v", cp, b)
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	g1, err := r.RenderGlyph(0xe002, path, 48)
	require.NoError(t, err)
	g2, err := r.RenderGlyph(0xe002, path, 48)
	require.NoError(t, err)
	if g1 != g2 {
		t.Errorf("expected memoized glyph to be returned")
	}
	if !r.Cache().Contains(Key{Codepoint: 0xe002, FontPath: path, Size: 48}) {
		t.Errorf("expected glyph to be in render cache")
	}
	r.Cache().Purge()
	g3, err := r.RenderGlyph(0xe002, path, 48)
	require.NoError(t, err)
	if g3 == g1 || !bytes.Equal(g1.Bitmap.Pix, g3.Bitmap.Pix) {
		t.Errorf("expected re-rendered glyph to be bit-identical")
	}
}

func TestRenderErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	if _, err := r.RenderGlyph(-1, path, 32); !errors.Is(err, ErrInvalidCodepoint) {
		t.Errorf("expected ErrInvalidCodepoint, have %v", err)
	}
	if _, err := r.RenderGlyph(0x110000, path, 32); !errors.Is(err, ErrInvalidCodepoint) {
		t.Errorf("expected ErrInvalidCodepoint, have %v", err)
	}
	if _, err := r.RenderGlyph(0xe001, path, 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, have %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := r.RenderGlyph(0xe001, missing, 32); !errors.Is(err, fontload.ErrFontNotFound) {
		t.Errorf("expected ErrFontNotFound, have %v", err)
	}
	if r.Cache().Len() != 0 {
		t.Errorf("expected failed renders not to be cached")
	}
}

func TestRenderDebugDir(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	r := newTestRenderer(t)
	r.DebugDir = filepath.Join(t.TempDir(), "imgs")
	if _, err := r.RenderGlyph(0xe001, digitsFont(t), 24); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(r.DebugDir, "57345.png")); err != nil {
		t.Errorf("expected debug image to be written: %v", err)
	}
}

func TestRasterizeInMemory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	f, err := fontload.ParseFont(testfont.WOFF2(testfont.Digits().TTF()))
	require.NoError(t, err)
	g, err := Rasterize(f, 0xe002, 40, nil)
	require.NoError(t, err)
	if g.IsBlank() || g.FontPath != "" {
		t.Errorf("unexpected glyph rendered from memory: %+v", g)
	}
}

// rewriteFont replaces the file at path and moves its modification time
// forward, as a fresh download of a font would.
func rewriteFont(t *testing.T, path string, data []byte, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
	mtime := time.Now().Add(age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestRendererNoticesChangedFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	seven, err := r.RenderGlyph(0xe001, path, 48)
	require.NoError(t, err)
	b := testfont.New()
	b.AddGlyph(0xe001, "", testfont.One)
	b.AddGlyph(0xe555, "", testfont.Seven)
	rewriteFont(t, path, b.TTF(), time.Hour)
	f, err := r.LoadFont(path)
	require.NoError(t, err)
	if f.OT.CMap.Lookup(0xe555) == 0 {
		t.Errorf("expected character map of rewritten font")
	}
	if r.Cache().Contains(Key{Codepoint: 0xe001, FontPath: path, Size: 48}) {
		t.Errorf("expected glyphs of the previous font to be dropped")
	}
	one, err := r.RenderGlyph(0xe001, path, 48)
	require.NoError(t, err)
	if bytes.Equal(seven.Bitmap.Pix, one.Bitmap.Pix) {
		t.Errorf("expected glyph to be rendered from the rewritten font")
	}
	rewriteFont(t, path, []byte("not a font at all"), 2*time.Hour)
	if _, err := r.LoadFont(path); !errors.Is(err, fontload.ErrFontParse) {
		t.Errorf("expected ErrFontParse for rewritten garbage, have %v", err)
	}
	if r.fonts.Contains(path) || r.Cache().Len() != 0 {
		t.Errorf("expected unparsable font to be forgotten")
	}
}

func TestReloadFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.raster")
	defer teardown()
	//
	path := digitsFont(t)
	r := newTestRenderer(t)
	key := Key{Codepoint: 0xe002, FontPath: path, Size: 32}
	_, err := r.RenderGlyph(key.Codepoint, path, key.Size)
	require.NoError(t, err)
	_, err = r.ReloadFont(path)
	require.NoError(t, err)
	if !r.Cache().Contains(key) {
		t.Errorf("expected glyphs to survive reloading an unchanged font")
	}
	b := testfont.Digits()
	b.AddName(5, "Version 2") // same glyphs, different bytes
	require.NoError(t, os.WriteFile(path, b.TTF(), 0o644))
	_, err = r.ReloadFont(path)
	require.NoError(t, err)
	if r.Cache().Contains(key) {
		t.Errorf("expected glyphs to be dropped after the font has changed")
	}
	r.ForgetFont(path)
	if r.fonts.Contains(path) {
		t.Errorf("expected font to be forgotten")
	}
}
