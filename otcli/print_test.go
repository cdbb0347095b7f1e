package main

import (
	"testing"

	"github.com/npillmayer/fontocr/glyphmap"
	"github.com/npillmayer/fontocr/internal/testfont"
	"github.com/npillmayer/fontocr/raster"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodepoint(t *testing.T) {
	for in, want := range map[string]rune{
		"e78c": 0xe78c, "U+E78C": 0xe78c, "0xE78C": 0xe78c, "&#xe78c;": 0xe78c, "7": '7', "€": '€',
	} {
		r, err := parseCodepoint(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, r, in)
	}
	for _, in := range []string{"", "xyz", "110000"} {
		_, err := parseCodepoint(in)
		assert.Error(t, err, in)
	}
}

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.cli")
	defer teardown()
	//
	intp := &Intp{}
	cmd, err := intp.parseCommand("render:e001:64 decode:price &#xe001; now")
	require.NoError(t, err)
	assert.Equal(t, 2, cmd.count)
	assert.Equal(t, RENDER, cmd.op[0].code)
	assert.Equal(t, "e001", cmd.op[0].arg)
	assert.Equal(t, "64", cmd.op[0].format)
	assert.Equal(t, DECODE, cmd.op[1].code)
	assert.Equal(t, "price &#xe001; now", cmd.op[1].arg)
	cmd, err = intp.parseCommand("nonsense")
	require.NoError(t, err)
	assert.Equal(t, HELP, cmd.op[0].code)
}

func TestInterpreterSession(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.cli")
	defer teardown()
	//
	path, err := testfont.WriteFile(t.TempDir(), "digits.ttf", testfont.Digits().TTF())
	require.NoError(t, err)
	cache, err := raster.NewCache(raster.DefaultCacheCapacity)
	require.NoError(t, err)
	intp := &Intp{renderer: raster.NewRenderer(cache), size: 32}
	err, _ = renderOp(intp, &Op{code: RENDER, arg: "e001"})
	assert.Error(t, err, "expected error without font")
	require.NoError(t, intp.loadFont(path))
	err, _ = renderOp(intp, &Op{code: RENDER, arg: "e001", format: "64"})
	assert.NoError(t, err)
	err, _ = decodeOp(intp, &Op{code: DECODE, arg: "&#xe001;"})
	assert.Error(t, err, "expected error without mapping")
	intp.mapping = glyphmap.Mapping{"uniE001": "7"}
	err, stop := decodeOp(intp, &Op{code: DECODE, arg: "&#xe001;"})
	assert.NoError(t, err)
	assert.False(t, stop)
	_, stop = quitOp(intp, &Op{code: QUIT})
	assert.True(t, stop)
}

func TestPreview(t *testing.T) {
	path, err := testfont.WriteFile(t.TempDir(), "digits.ttf", testfont.Digits().TTF())
	require.NoError(t, err)
	cache, err := raster.NewCache(4)
	require.NoError(t, err)
	g, err := raster.NewRenderer(cache).RenderGlyph(0xe002, path, 48)
	require.NoError(t, err)
	p := preview(g, 48)
	assert.Contains(t, p, "#")
	assert.Contains(t, p, ".")
}
