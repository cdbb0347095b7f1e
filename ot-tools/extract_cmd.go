package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/fontocr/glyphmap"
	"github.com/npillmayer/fontocr/ocr"
	"github.com/npillmayer/fontocr/ocr/backend"
	"github.com/thatisuday/commando"
)

func runExtractCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	clf, err := backend.New(backend.Settings{
		Backend:  flagString(flags, "ocr"),
		Alphabet: flagString(flags, "alphabet"),
		Lang:     flagString(flags, "lang"),
		URL:      flagString(flags, "url"),
	})
	if err != nil {
		fatalf("%v", err)
	}
	defer ocr.Close(clf)
	opts := []glyphmap.Option{
		glyphmap.WithImageSize(mustFlagInt(flags["size"], "size")),
		glyphmap.WithProgress(mustFlagBool(flags["progress"], "progress")),
	}
	if dir := flagString(flags, "cache-dir"); dir != "" {
		opts = append(opts, glyphmap.WithCacheDir(dir))
	}
	m, stats, err := glyphmap.ExtractMappingWithStats(context.Background(), fontPath, clf, opts...)
	if err != nil {
		fatalf("%v", err)
	}
	var w io.Writer = os.Stdout
	if out := flagString(flags, "output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			fatalf("cannot create output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := m.WriteJSON(w); err != nil {
		fatalf("cannot write mapping: %v", err)
	}
	tracer().Infof("%s", stats)
}

func runDecodeCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	m, err := readMappingFile(strings.TrimSpace(args["mapping"].Value))
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println(decodeText(m, args["text"].Value))
}

// decodeText decodes character references as well as raw mapped characters.
func decodeText(m glyphmap.Mapping, text string) string {
	return m.DecodeRunes(m.Decode(text))
}

func readMappingFile(path string) (glyphmap.Mapping, error) {
	if path == "" {
		return nil, fmt.Errorf("mapping file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return glyphmap.ReadMapping(f)
}
