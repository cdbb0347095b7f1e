package glyphmap

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/fontocr/ot"
)

// Mapping maps glyph identifiers to recognized text. The empty string marks
// a glyph which has not been recognized.
type Mapping map[string]string

// Unknown is substituted for characters missing from a mapping.
const Unknown = "?"

// KeyForCodepoint derives the glyph identifier for a code-point the way web
// pages encode obfuscated text: "uni" followed by the uppercase hexadecimal
// code-point, at least 4 digits.
func KeyForCodepoint(r rune) string {
	return fmt.Sprintf("uni%04X", r)
}

// Keys returns the glyph identifiers of m, sorted.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the text for code-point r. Besides the "uniXXXX" key, the
// glyph name font tooling would synthesize for r is tried.
func (m Mapping) Lookup(r rune) (string, bool) {
	if text, ok := m[KeyForCodepoint(r)]; ok {
		return text, true
	}
	text, ok := m[ot.NameForCodepoint(r)]
	return text, ok
}

var charRef = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)

// Decode replaces hexadecimal character references "&#xe78c;" by the text
// mapped to their code-point, or by Unknown if there is none. Other text is
// copied unchanged.
func (m Mapping) Decode(s string) string {
	return charRef.ReplaceAllStringFunc(s, func(ref string) string {
		hex := charRef.FindStringSubmatch(ref)[1]
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || n > utf8.MaxRune {
			return Unknown
		}
		if text, ok := m.Lookup(rune(n)); ok {
			return text
		}
		return Unknown
	})
}

// RuneTable converts m to a table keyed by code-point, for glyph identifiers
// of the form "uniXXXX" or "uXXXXX". Other identifiers are skipped.
func (m Mapping) RuneTable() map[rune]string {
	table := make(map[rune]string, len(m))
	for key, text := range m {
		if r, ok := codepointFromKey(key); ok {
			table[r] = text
		}
	}
	return table
}

// DecodeRunes replaces characters of s which are mapped by m, e.g. private
// use characters of a page rendered with an obfuscated font. Unmapped
// characters are copied unchanged.
func (m Mapping) DecodeRunes(s string) string {
	table := m.RuneTable()
	var b strings.Builder
	for _, r := range s {
		if text, ok := table[r]; ok {
			b.WriteString(text)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func codepointFromKey(key string) (rune, bool) {
	var hex string
	switch {
	case strings.HasPrefix(key, "uni") && len(key) == 7:
		hex = key[3:]
	case strings.HasPrefix(key, "u") && len(key) >= 5 && len(key) <= 7:
		hex = key[1:]
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || n > utf8.MaxRune {
		return 0, false
	}
	return rune(n), true
}

// WriteJSON writes m as a JSON object with sorted keys.
func (m Mapping) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}

// ReadMapping reads a mapping written by WriteJSON.
func ReadMapping(r io.Reader) (Mapping, error) {
	var m Mapping
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("cannot read glyph mapping: %w", err)
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}
