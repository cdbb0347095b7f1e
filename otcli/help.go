package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "render", "size":
		pterm.Info.Println("render:<code-point>[:size]")
		pterm.Println(`
	Renders a glyph and prints a preview. Code-points are given as hex
	("e78c", "U+E78C", "&#xe78c;") or as a single character ("7").
	Without a size, the size set by size:<n> is used.
	Glyphs are rendered centered on a white square and cropped to the ink,
	with a margin of a tenth of the image size.
	`)
	case "extract", "ocr":
		pterm.Info.Println("ocr:<backend> / extract[:size]")
		pterm.Println(`
	extract renders every glyph of the character map and classifies it,
	building a mapping from glyph identifier to text:
	+-----------+------+
	| uniE78C   | "3"  |
	+-----------+------+
	| uniE562   | "5"  |
	+-----------+------+
	Glyphs which cannot be recognized map to "".
	ocr:<backend> selects the classifier: template, tesseract or remote.
	`)
	case "decode", "save":
		pterm.Info.Println("decode:<text> / save:<file>")
		pterm.Println(`
	decode replaces character references like "&#xe78c;" in the rest of the
	line by their mapped text; unknown references turn into "?".
	save writes the current mapping as JSON.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	load:<file>        load a font (TTF, OTF, WOFF, WOFF2)
	info               font summary and names
	cmap[:n]           first n entries of the character map
	render:<cp>[:size] render a glyph
	size:<n>           set the image size
	ocr:<backend>      select the classifier
	extract[:size]     extract the glyph mapping
	decode:<text>      decode text with the mapping
	save:<file>        save the mapping
	help:<command>     help on a command
	quit               leave
	`)
	}
}
