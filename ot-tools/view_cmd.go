package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/fontocr/otquery"
	"github.com/npillmayer/fontocr/raster"
	"github.com/thatisuday/commando"
)

func runRenderCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	size := mustFlagInt(flags["size"], "size")
	if size <= 0 {
		fatalf("--size must be > 0")
	}
	outDir := flagString(flags, "output")
	if outDir == "" {
		fatalf("output directory is empty")
	}
	r := raster.NewRenderer(nil)
	f, err := r.LoadFont(fontPath)
	if err != nil {
		fatalf("%v", err)
	}
	cmap := otquery.CharMap(f.OT)
	var codepoints []rune
	if spec := strings.TrimSpace(args["codepoints"].Value); spec == "" || spec == "all" {
		codepoints = cmap.Codepoints()
	} else if codepoints, err = parseCodepoints(spec); err != nil {
		fatalf("%v", err)
	}
	dc, err := raster.NewDiskCache(outDir)
	if err != nil {
		fatalf("%v", err)
	}
	for _, cp := range codepoints {
		g, err := r.RenderGlyph(cp, fontPath, size)
		if err != nil {
			fmt.Fprintf(os.Stderr, "U+%04X: %v\n", cp, err)
			continue
		}
		glyphID, ok := cmap[cp]
		if !ok {
			glyphID = ".notdef"
		}
		written, err := dc.Store(cp, glyphID, g)
		if err != nil {
			fmt.Fprintf(os.Stderr, "U+%04X: %v\n", cp, err)
			continue
		}
		status := "wrote"
		if !written {
			status = "kept existing"
		}
		fmt.Printf("%s %s (glyph %s, bbox=%v, crop=%v)\n", status, dc.Path(cp, glyphID), glyphID, g.BBox, g.Crop)
	}
}
