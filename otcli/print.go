package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/fontocr/glyphmap"
	"github.com/npillmayer/fontocr/ocr/backend"
	"github.com/npillmayer/fontocr/otquery"
	"github.com/npillmayer/fontocr/raster"
	"github.com/pterm/pterm"
	"golang.org/x/image/font/sfnt"
)

func infoOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	otf := intp.font.OT
	s := otquery.Summary(otf)
	data := [][]string{
		{"Property", "Value"},
		{"Path", intp.path},
		{"Type", fmt.Sprintf("%s (%s)", s.FontType, s.Container)},
		{"Glyphs", strconv.Itoa(s.NumGlyphs)},
		{"Units per em", strconv.Itoa(int(s.UnitsPerEm))},
		{"Character map", fmt.Sprintf("%s, %d code-points", s.CMap, s.Codepoints)},
		{"Glyph names", s.GlyphNames},
	}
	names := otquery.NameInfo(otf)
	ids := make([]sfnt.NameID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		data = append(data, []string{otquery.NameIDString(id), names[id]})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if n := len(otf.Errors()); n > 0 {
		pterm.Error.Printf("font has %d errors\n", n)
	}
	return nil, false
}

func cmapOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	limit := 20
	if arg, ok := op.hasArg(); ok {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count: %q", arg), false
		}
		limit = n
	}
	cmap := otquery.CharMap(intp.font.OT)
	codepoints := cmap.Codepoints()
	pterm.Printf("character map has %d entries\n", len(codepoints))
	data := [][]string{{"Code-point", "Glyph", "Text"}}
	for i, cp := range codepoints {
		if i == limit {
			break
		}
		text := ""
		if intp.mapping != nil {
			text = fmt.Sprintf("%q", intp.mapping[cmap[cp]])
		}
		data = append(data, []string{fmt.Sprintf("U+%04X", cp), cmap[cp], text})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func sizeOp(intp *Intp, op *Op) (error, bool) {
	size, err := parseSize(op.arg)
	if err != nil {
		return err, false
	}
	intp.size = size
	return nil, false
}

func renderOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: render:<code-point>[:size]"), false
	}
	cp, err := parseCodepoint(arg)
	if err != nil {
		return err, false
	}
	size := intp.size
	if op.format != "" {
		if size, err = parseSize(op.format); err != nil {
			return err, false
		}
	}
	g, err := intp.renderer.RenderGlyph(cp, intp.path, size)
	if err != nil {
		return err, false
	}
	if g.IsBlank() {
		pterm.Info.Printf("glyph U+%04X is blank\n", cp)
		return nil, false
	}
	pterm.Printf("U+%04X at %d×%d, ink %v\n", cp, size, size, g.BBox)
	pterm.Println(preview(g, 48))
	return nil, false
}

// preview draws a glyph with characters, cols characters wide.
func preview(g *raster.Glyph, cols int) string {
	b := g.Bitmap.Bounds()
	step := max(1, b.Dx()/cols)
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 * step { // characters are about twice as high as wide
		for x := b.Min.X; x < b.Max.X; x += step {
			if g.Bitmap.GrayAt(x, y).Y < 0x80 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func ocrOp(intp *Intp, op *Op) (error, bool) {
	name, ok := op.hasArg()
	if !ok {
		pterm.Printf("classifier is %s\n", intp.settings.Backend)
		return nil, false
	}
	settings := intp.settings
	settings.Backend = name
	clf, err := backend.New(settings)
	if err != nil {
		return err, false
	}
	intp.settings, intp.clf = settings, clf
	return nil, false
}

func extractOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	size := intp.size
	if op.arg != "" {
		var err error
		if size, err = parseSize(op.arg); err != nil {
			return err, false
		}
	}
	if intp.clf == nil {
		clf, err := backend.New(intp.settings)
		if err != nil {
			return err, false
		}
		intp.clf = clf
	}
	pterm.Info.Printf("extracting glyph mapping with %s at size %d\n", intp.settings.Backend, size)
	m, stats, err := glyphmap.ExtractMappingWithStats(context.Background(), intp.path, intp.clf,
		glyphmap.WithImageSize(size), glyphmap.WithRenderer(intp.renderer), glyphmap.WithProgress(true))
	if err != nil {
		return err, false
	}
	pterm.Info.Println(stats.String())
	intp.mapping = m
	return nil, false
}

func decodeOp(intp *Intp, op *Op) (error, bool) {
	if intp.mapping == nil {
		return errors.New("no mapping, use extract first"), false
	}
	pterm.Println(intp.mapping.DecodeRunes(intp.mapping.Decode(op.arg)))
	return nil, false
}

func saveOp(intp *Intp, op *Op) (error, bool) {
	if intp.mapping == nil {
		return errors.New("no mapping, use extract first"), false
	}
	name, ok := op.hasArg()
	if !ok {
		return errors.New("usage: save:<file>"), false
	}
	f, err := os.Create(name)
	if err != nil {
		return err, false
	}
	if err = intp.mapping.WriteJSON(f); err != nil {
		f.Close()
		return err, false
	}
	if err = f.Close(); err == nil {
		pterm.Info.Printf("saved %d entries to %s\n", len(intp.mapping), name)
	}
	return err, false
}

// ----------------------------------------------------------------------

func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return n, nil
}

// parseCodepoint accepts "e78c", "U+E78C", "0xe78c", "&#xe78c;" or a single
// character.
func parseCodepoint(s string) (rune, error) {
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}
	hex := strings.ToLower(s)
	hex = strings.TrimSuffix(strings.TrimPrefix(hex, "&#x"), ";")
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "u+"), "0x")
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || n > utf8.MaxRune {
		return 0, fmt.Errorf("invalid code-point: %q", s)
	}
	return rune(n), nil
}
