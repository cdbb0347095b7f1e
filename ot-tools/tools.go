/*
Command ot-tools recovers the text behind obfuscated web fonts from the command
line.

	ot-tools info    font.woff            show names, character map and parse issues
	ot-tools render  font.woff U+E78C     render glyphs to PNG files
	ot-tools extract font.woff            classify all glyphs, print the mapping as JSON
	ot-tools decode  map.json '&#xe78c;'  decode text with a mapping

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/thatisuday/commando"
)

// tracer traces with key 'fontocr.cli'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.cli")
}

func main() {
	commando.
		SetExecutableName("ot-tools").
		SetVersion("v0.1.0").
		SetDescription("CLI for recovering the text behind obfuscated web fonts.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("info").
		SetDescription("Print names, character map and parse issues of a font.").
		SetShortDescription("font information").
		AddArgument("font", "font file path (TTF, OTF, WOFF, WOFF2)", "").
		AddFlag("cmap,c", "print the character map", commando.Bool, nil).
		AddFlag("errors,e", "print parse errors and warnings", commando.Bool, nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runInfoCommand)

	commando.
		Register("render").
		SetDescription("Render glyphs to normalized PNG images, named <codepoint>_<glyph>.png.").
		SetShortDescription("glyphs to images").
		AddArgument("font", "font file path (TTF, OTF, WOFF, WOFF2)", "").
		AddArgument("codepoints...", "codepoints (e.g. U+E78C,0xe562) or 'all'", "all").
		AddFlag("size,s", "image size in pixels", commando.Int, 256).
		AddFlag("output,o", "output directory", commando.String, "imgs").
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runRenderCommand)

	commando.
		Register("extract").
		SetDescription("Render and classify every glyph of a font, print the glyph mapping as JSON.").
		SetShortDescription("extract glyph mapping").
		AddArgument("font", "font file path (TTF, OTF, WOFF, WOFF2)", "").
		AddFlag("ocr,r", "classifier: template|tesseract|remote", commando.String, "template").
		AddFlag("alphabet,a", "characters to recognize (template classifier)", commando.String, "-").
		AddFlag("lang,l", "tesseract language", commando.String, "eng").
		AddFlag("url,u", "recognition service URL (remote classifier)", commando.String, "-").
		AddFlag("size,s", "image size in pixels", commando.Int, 1024).
		AddFlag("cache-dir,d", "directory to keep glyph images in", commando.String, "-").
		AddFlag("output,o", "output JSON file, '-' for stdout", commando.String, "-").
		AddFlag("progress,p", "report progress", commando.Bool, nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runExtractCommand)

	commando.
		Register("decode").
		SetDescription("Decode text containing character references like &#xe78c; with a glyph mapping.").
		SetShortDescription("decode text").
		AddArgument("mapping", "glyph mapping JSON file, as written by 'extract'", "").
		AddArgument("text", "text to decode, quoted if it contains blanks", "").
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runDecodeCommand)

	commando.Parse(nil)
}

// setupTracing routes tracing to the Go logger. Level Info reports progress
// and per-glyph warnings, Debug adds details.
func setupTracing(flags map[string]commando.FlagValue) {
	level := "Info"
	if v, ok := flags["verbose"]; ok {
		if verbose, err := v.GetBool(); err == nil && verbose {
			level = "Debug"
		}
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.fontocr":          level,
		"trace.fontocr.ot":       "Error",
		"trace.fontocr.raster":   level,
		"trace.fontocr.ocr":      level,
		"trace.fontocr.cli":      level,
		"trace.fontocr.glyphmap": level,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fatalf("cannot configure tracing: %v", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
}

func parseCodepoints(spec string) ([]rune, error) {
	parts := splitCSVSpace(spec)
	out := make([]rune, 0, len(parts))
	for _, p := range parts {
		r, err := parseCodepointToken(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCodepointToken(token string) (rune, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("empty codepoint token")
	}
	hex := token
	switch {
	case strings.HasPrefix(hex, "U+"), strings.HasPrefix(hex, "u+"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "&#x") && strings.HasSuffix(hex, ";"):
		hex = hex[3 : len(hex)-1]
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q: %w", token, err)
	}
	return rune(u), nil
}

func splitCSVSpace(spec string) []string {
	return strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// flagString returns a string flag, with "-" meaning "not set".
func flagString(flags map[string]commando.FlagValue, name string) string {
	s, err := flags[name].GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	if s = strings.TrimSpace(s); s == "-" {
		return ""
	}
	return s
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "ot-tools: "+format+"\n", args...)
	os.Exit(1)
}
