package ttxtest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseTTX parses a TTX XML dump into an ExpectedFont model.
func ParseTTX(path string) (*ExpectedFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var font ttxFont
	if err := xml.Unmarshal(data, &font); err != nil {
		return nil, err
	}
	exp := &ExpectedFont{}
	for _, g := range font.GlyphOrder.Glyphs {
		id, err := strconv.Atoi(g.ID)
		if err != nil {
			return nil, fmt.Errorf("ttx: invalid glyph id %q: %w", g.ID, err)
		}
		if id != len(exp.GlyphOrder) {
			return nil, fmt.Errorf("ttx: glyph order not consecutive at id %d", id)
		}
		exp.GlyphOrder = append(exp.GlyphOrder, g.Name)
	}
	for _, st := range font.CMap.Subtables {
		fmtNo, ok := strings.CutPrefix(st.XMLName.Local, "cmap_format_")
		if !ok {
			continue // tableVersion
		}
		sub, err := normalizeCMap(fmtNo, st)
		if err != nil {
			return nil, err
		}
		exp.CMaps = append(exp.CMaps, sub)
	}
	for _, rec := range font.Name.Records {
		name, err := normalizeName(rec)
		if err != nil {
			return nil, err
		}
		exp.Names = append(exp.Names, name)
	}
	return exp, nil
}

func normalizeCMap(format string, st ttxCMapSubtable) (ExpectedCMap, error) {
	var sub ExpectedCMap
	var err error
	if sub.Format, err = strconv.Atoi(format); err != nil {
		return sub, fmt.Errorf("ttx: invalid cmap format %q", format)
	}
	if sub.Platform, err = parseU16(st.Platform); err != nil {
		return sub, fmt.Errorf("ttx: invalid cmap platformID: %w", err)
	}
	if sub.Encoding, err = parseU16(st.Encoding); err != nil {
		return sub, fmt.Errorf("ttx: invalid cmap platEncID: %w", err)
	}
	sub.Map = make(map[rune]string, len(st.Maps))
	for _, m := range st.Maps {
		code, err := strconv.ParseUint(m.Code, 0, 32)
		if err != nil {
			return sub, fmt.Errorf("ttx: invalid cmap code %q: %w", m.Code, err)
		}
		sub.Map[rune(code)] = m.Name
	}
	return sub, nil
}

func normalizeName(rec ttxNameRecord) (ExpectedName, error) {
	name := ExpectedName{Text: strings.TrimSpace(rec.Text)}
	var err error
	for _, f := range []struct {
		attr string
		dst  *uint16
	}{
		{rec.NameID, &name.NameID},
		{rec.Platform, &name.Platform},
		{rec.Encoding, &name.Encoding},
		{rec.Language, &name.Language},
	} {
		if *f.dst, err = parseU16(f.attr); err != nil {
			return name, fmt.Errorf("ttx: invalid namerecord: %w", err)
		}
	}
	return name, nil
}

// parseU16 parses decimal or 0x-prefixed hexadecimal attribute values.
func parseU16(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	return uint16(n), err
}

// --- XML model ---------------------------------------------------------

type ttxFont struct {
	GlyphOrder ttxGlyphOrder `xml:"GlyphOrder"`
	CMap       ttxCMap       `xml:"cmap"`
	Name       ttxName       `xml:"name"`
}

type ttxGlyphOrder struct {
	Glyphs []ttxGlyphID `xml:"GlyphID"`
}

type ttxGlyphID struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type ttxCMap struct {
	Subtables []ttxCMapSubtable `xml:",any"`
}

type ttxCMapSubtable struct {
	XMLName  xml.Name
	Platform string   `xml:"platformID,attr"`
	Encoding string   `xml:"platEncID,attr"`
	Maps     []ttxMap `xml:"map"`
}

type ttxMap struct {
	Code string `xml:"code,attr"`
	Name string `xml:"name,attr"`
}

type ttxName struct {
	Records []ttxNameRecord `xml:"namerecord"`
}

type ttxNameRecord struct {
	NameID   string `xml:"nameID,attr"`
	Platform string `xml:"platformID,attr"`
	Encoding string `xml:"platEncID,attr"`
	Language string `xml:"langID,attr"`
	Text     string `xml:",chardata"`
}
