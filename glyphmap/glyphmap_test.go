package glyphmap

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/fontocr/internal/fontload"
	"github.com/npillmayer/fontocr/internal/testfont"
	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/ocr/template"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func writeFont(t *testing.T, name string, data []byte) string {
	t.Helper()
	path, err := testfont.WriteFile(t.TempDir(), name, data)
	require.NoError(t, err)
	return path
}

func sevenFont() []byte {
	b := testfont.New()
	b.AddGlyph(0xe001, "uniE001", testfont.Seven)
	return b.TTF()
}

func testRenderer(t *testing.T) *raster.Renderer {
	cache, err := raster.NewCache(raster.DefaultCacheCapacity)
	require.NoError(t, err)
	return raster.NewRenderer(cache)
}

func always(text string, err error) ocr.Classifier {
	return ocr.ClassifierFunc(func(context.Context, []byte) (string, error) {
		return text, err
	})
}

func TestExtractMappingSingleDigit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "digits.ttf", sevenFont())
	ctx := context.Background()
	m, err := ExtractMapping(ctx, path, always("7", nil), WithImageSize(64), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	if diff := cmp.Diff(Mapping{"uniE001": "7"}, m); diff != "" {
		t.Errorf("unexpected mapping (-want +have):\n%s", diff)
	}
	m, err = ExtractMapping(ctx, path, always("", errors.New("no model")), WithImageSize(64))
	require.NoError(t, err)
	if diff := cmp.Diff(Mapping{"uniE001": ""}, m); diff != "" {
		t.Errorf("unexpected mapping for failing classifier (-want +have):\n%s", diff)
	}
}

func TestExtractMappingFontErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	calls := 0
	clf := ocr.ClassifierFunc(func(context.Context, []byte) (string, error) {
		calls++
		return "x", nil
	})
	missing := filepath.Join(t.TempDir(), "missing.woff")
	if _, err := ExtractMapping(context.Background(), missing, clf); !errors.Is(err, fontload.ErrFontNotFound) {
		t.Errorf("expected ErrFontNotFound, have %v", err)
	}
	garbage := writeFont(t, "garbage.woff", []byte("wOFF but not really a font file"))
	if _, err := ExtractMapping(context.Background(), garbage, clf); !errors.Is(err, fontload.ErrFontParse) {
		t.Errorf("expected ErrFontParse, have %v", err)
	}
	if calls != 0 {
		t.Errorf("expected classifier not to be called for font errors, was called %d times", calls)
	}
}

func TestExtractMappingTotal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "digits.woff2", testfont.WOFF2(testfont.Digits().TTF()))
	failEvery := 0
	clf := ocr.ClassifierFunc(func(context.Context, []byte) (string, error) {
		failEvery++
		if failEvery%2 == 0 {
			panic("classifier crashed")
		}
		return "d", nil
	})
	m, stats, err := ExtractMappingWithStats(context.Background(), path, clf,
		WithImageSize(32), WithProgress(true), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	want := Mapping{"uniE001": "d", "uniE002": "", "uniE003": "d"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("unexpected mapping (-want +have):\n%s", diff)
	}
	if stats != (Stats{Total: 3, Rendered: 3, Recognized: 2, Failed: 1}) {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestExtractMappingWithTemplates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	clf, err := template.New(template.WithAlphabet("17"))
	require.NoError(t, err)
	path := writeFont(t, "digits.woff", testfont.WOFF(testfont.Digits().TTF()))
	m, stats, err := ExtractMappingWithStats(context.Background(), path, clf,
		WithImageSize(128), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	want := Mapping{"uniE001": "7", "uniE002": "1", "uniE003": ""}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("unexpected mapping (-want +have):\n%s", diff)
	}
	if stats.Failed != 0 || stats.Recognized != 2 {
		t.Errorf("unexpected stats %v", stats)
	}
	if got := m.Decode("&#xe002;&#xe001;&#xe001;"); got != "177" {
		t.Errorf("expected decoded text 177, have %q", got)
	}
}

func TestExtractMappingCacheDir(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "digits.ttf", testfont.Digits().TTF())
	dir := filepath.Join(t.TempDir(), "font_cache", "digits")
	_, err := ExtractMapping(context.Background(), path, always("7", nil),
		WithImageSize(32), WithCacheDir(dir), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	for _, name := range []string{"57345_uniE001.png", "57346_uniE002.png", "57347_uniE003.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected cached image %s: %v", name, err)
		}
	}
	// cache directory which cannot be created is a fatal error
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	_, err = ExtractMapping(context.Background(), path, always("7", nil), WithCacheDir(filepath.Join(blocker, "sub")))
	if err == nil {
		t.Errorf("expected error for invalid cache directory")
	}
}

func TestExtractMappingSharedGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	b := testfont.New()
	gid := b.AddGlyph(0xe010, "", testfont.One)
	b.Map(0xe020, gid)
	b.AddGlyph(0xe030, "", testfont.Seven)
	path := writeFont(t, "shared.ttf", b.TTF())
	m, stats, err := ExtractMappingWithStats(context.Background(), path, always("1", nil),
		WithImageSize(32), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	if len(m) != 2 || stats.Total != 3 {
		t.Errorf("expected one entry per glyph identifier, have %v (%v)", m, stats)
	}
	if _, ok := m["uniE010"]; !ok {
		t.Errorf("expected glyph to be named after its smallest code-point, have %v", m.Keys())
	}
}

func TestExtractMappingCancelled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "digits.ttf", testfont.Digits().TTF())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := ExtractMapping(ctx, path, always("7", nil), WithImageSize(16), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	if diff := cmp.Diff(Mapping{"uniE001": "", "uniE002": "", "uniE003": ""}, m); diff != "" {
		t.Errorf("expected all glyphs unrecognized (-want +have):\n%s", diff)
	}
}

func TestExtractMappingRewrittenFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "site.ttf", sevenFont())
	r := testRenderer(t)
	ctx := context.Background()
	m, err := ExtractMapping(ctx, path, always("7", nil), WithImageSize(32), WithRenderer(r))
	require.NoError(t, err)
	if diff := cmp.Diff(Mapping{"uniE001": "7"}, m); diff != "" {
		t.Errorf("unexpected mapping (-want +have):\n%s", diff)
	}
	// the site serves a new font under the same path
	b := testfont.New()
	b.AddGlyph(0xe555, "", testfont.One)
	require.NoError(t, os.WriteFile(path, b.TTF(), 0o644))
	m, err = ExtractMapping(ctx, path, always("1", nil), WithImageSize(32), WithRenderer(r))
	require.NoError(t, err)
	if diff := cmp.Diff(Mapping{"uniE555": "1"}, m); diff != "" {
		t.Errorf("expected mapping of the rewritten font (-want +have):\n%s", diff)
	}
	require.NoError(t, os.WriteFile(path, []byte("not a font at all"), 0o644))
	if _, err = ExtractMapping(ctx, path, always("1", nil), WithRenderer(r)); !errors.Is(err, fontload.ErrFontParse) {
		t.Errorf("expected ErrFontParse for rewritten garbage, have %v", err)
	}
}

// breakFirstGlyph sets numberOfContours of the first non-empty glyph of a
// TrueType binary built by testfont to an impossible value.
func breakFirstGlyph(t *testing.T, ttf []byte) []byte {
	t.Helper()
	numTables := int(binary.BigEndian.Uint16(ttf[4:6]))
	for i := range numTables {
		rec := ttf[12+16*i:]
		if string(rec[:4]) == "glyf" {
			off := binary.BigEndian.Uint32(rec[8:12])
			binary.BigEndian.PutUint16(ttf[off:], 0x7fff)
			return ttf
		}
	}
	t.Fatalf("test font has no glyf table")
	return nil
}

func TestExtractMappingRenderFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.glyphmap")
	defer teardown()
	//
	path := writeFont(t, "broken.ttf", breakFirstGlyph(t, testfont.Digits().TTF()))
	m, stats, err := ExtractMappingWithStats(context.Background(), path, always("7", nil),
		WithImageSize(32), WithRenderer(testRenderer(t)))
	require.NoError(t, err)
	want := Mapping{"uniE001": "", "uniE002": "7", "uniE003": "7"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("unexpected mapping (-want +have):\n%s", diff)
	}
	if stats != (Stats{Total: 3, Rendered: 2, Recognized: 2, Failed: 1}) {
		t.Errorf("unexpected stats %v", stats)
	}
}
