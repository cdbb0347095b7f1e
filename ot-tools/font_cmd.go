package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/fontocr"
	"github.com/npillmayer/fontocr/otquery"
	"github.com/thatisuday/commando"
	"golang.org/x/image/font/sfnt"
)

func runInfoCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	f, err := fontocr.LoadFont(fontPath)
	if err != nil {
		fatalf("%v", err)
	}
	otf := f.OT
	s := otquery.Summary(otf)

	fmt.Printf("Path: %s\n", fontPath)
	fmt.Printf("Type: %s (%s)\n", s.FontType, s.Container)
	names := otquery.NameInfo(otf)
	ids := make([]sfnt.NameID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("Name %d (%s): %s\n", id, otquery.NameIDString(id), names[id])
	}
	fmt.Printf("Glyphs: %d, units per em: %d\n", s.NumGlyphs, s.UnitsPerEm)
	fmt.Printf("Character map: %s, %d code-points, glyph names %s\n", s.CMap, s.Codepoints, s.GlyphNames)
	fmt.Printf("Tables (%d): %s\n", len(s.Tables), strings.Join(s.Tables, " "))

	errs := otf.Errors()
	warns := otf.Warnings()
	fmt.Printf("Issues: errors=%d warnings=%d\n", len(errs), len(warns))

	if mustFlagBool(flags["cmap"], "cmap") {
		cmap := otquery.CharMap(otf)
		for _, r := range cmap.Codepoints() {
			fmt.Printf("U+%04X %-8s %s\n", r, printable(r), cmap[r])
		}
	}
	if mustFlagBool(flags["errors"], "errors") {
		for _, e := range errs {
			fmt.Printf("error: %s\n", e.Error())
		}
		for _, w := range warns {
			fmt.Printf("warning: %s\n", w.String())
		}
	}
}

// printable quotes a rune, private use characters will show up as escapes.
func printable(r rune) string {
	return fmt.Sprintf("%+q", r)
}
