package otquery

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/fontocr/internal/testfont"
	"github.com/npillmayer/fontocr/internal/ttxtest"
	"github.com/npillmayer/fontocr/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf *ot.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("fontocr.ot").SetTraceLevel(tracing.LevelError)
	b := testfont.Digits()
	b.AddNameRecord(1, 0, 0, 1, []byte("Mac Family"))                       // Macintosh, skipped
	b.AddNameRecord(0, 3, 0, 5, []byte{0, 'v', 0, '1'})                     // Unicode platform
	b.AddNameRecord(3, 1, 0x407, 2, []byte{0, 'S', 0, 't', 0, 'a', 0, 'n'}) // later record wins
	otf, err := ot.Parse(b.TTF())
	env.Require().NoError(err)
	env.otf = otf
	tracing.Select("fontocr.ot").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *InfoTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	fti := FontType(env.otf)
	env.Equal("TrueType", fti, "expected font type of test font to be TrueType")
}

func (env *InfoTestEnviron) TestNameInfo() {
	info := NameInfo(env.otf)
	env.T().Logf("info = %v", info)
	env.Equal("Obfuscated Digits", info[sfnt.NameIDFamily])
	env.Equal("Obfuscated Digits Regular", info[sfnt.NameIDFull])
	env.Equal("v1", info[sfnt.NameIDVersion], "expected Unicode platform record to be decoded")
	env.Equal("Stan", info[sfnt.NameIDSubfamily], "expected later record to replace earlier one")
	env.Len(info, 4)
}

func (env *InfoTestEnviron) TestNamesRangeSkipsMacRecords() {
	for key := range NamesRange(env.otf) {
		env.NotEqual(PlatformIDMacintosh, key.Platform)
	}
}

func (env *InfoTestEnviron) TestCharMap() {
	cmap := CharMap(env.otf)
	env.Equal(CharacterMap{0xe001: "uniE001", 0xe002: "uniE002", 0xe003: "uniE003"}, cmap)
	env.Equal([]rune{0xe001, 0xe002, 0xe003}, cmap.Codepoints())
	env.Equal([]string{"uniE001", "uniE002", "uniE003"}, cmap.GlyphIDs())
	r, ok := cmap.CodepointForGlyph("uniE002")
	env.True(ok)
	env.Equal(rune(0xe002), r)
	_, ok = cmap.CodepointForGlyph("nonexistent")
	env.False(ok)
}

func (env *InfoTestEnviron) TestSummary() {
	s := Summary(env.otf)
	env.Equal("SFNT", s.Container)
	env.Equal(4, s.NumGlyphs)
	env.Equal(uint16(1000), s.UnitsPerEm)
	env.Equal("(3,1) format 4", s.CMap)
	env.Equal("synthesized", s.GlyphNames)
	env.Contains(s.Tables, "cmap")
}

func TestCharMapSharedGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	b := testfont.New()
	gid := b.AddGlyph(0xe010, "", testfont.Seven)
	b.Map(0xe020, gid)
	otf, err := ot.Parse(b.TTF())
	if err != nil {
		t.Fatal(err)
	}
	cmap := CharMap(otf)
	if len(cmap) != 2 || cmap[0xe010] != cmap[0xe020] {
		t.Errorf("expected two code-points sharing one glyph, have %v", cmap)
	}
	if ids := cmap.GlyphIDs(); len(ids) != 1 || ids[0] != "uniE010" {
		t.Errorf("expected a single glyph identifier uniE010, have %v", ids)
	}
}

func TestGoRegularNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	otf, err := ot.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	sf, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	family, err := sf.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		t.Fatal(err)
	}
	if info := NameInfo(otf); info[sfnt.NameIDFamily] != family {
		t.Errorf("expected family %q, have %q", family, info[sfnt.NameIDFamily])
	}
	cmap := CharMap(otf)
	for r, name := range map[rune]string{'0': "zero", '{': "braceleft", 0xf800: "gopher"} {
		if cmap[r] != name {
			t.Errorf("expected glyph for U+%04X to be named %q, is %q", r, name, cmap[r])
		}
	}
}

func TestCharMapMatchesTTX(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontocr.ot")
	defer teardown()
	//
	exp, err := ttxtest.ParseTTX(filepath.Join("..", "internal", "ttxtest", "testdata", "digits.ttx"))
	if err != nil {
		t.Fatalf("cannot read TTX expectations: %v", err)
	}
	b := testfont.Digits()
	b.Format12 = true
	otf, err := ot.Parse(b.TTF())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(exp.GlyphOrder, otf.GlyphNames()); diff != "" {
		t.Errorf("glyph order differs from TTX (-ttx +have):\n%s", diff)
	}
	want := CharacterMap(exp.BestCMap().Map)
	if diff := cmp.Diff(want, CharMap(otf)); diff != "" {
		t.Errorf("character map differs from TTX (-ttx +have):\n%s", diff)
	}
	names := NameInfo(otf)
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDSubfamily, sfnt.NameIDFull} {
		if text, _ := exp.Name(uint16(id)); names[id] != text {
			t.Errorf("name %d: expected %q, have %q", id, text, names[id])
		}
	}
}
