package otquery

import (
	"fmt"
	"iter"

	"github.com/npillmayer/fontocr/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/unicode"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

// NameKey identifies a NameRecord entry in OpenType table 'name'.
// The key follows the OpenType NameRecord fields directly.
type NameKey struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
}

// PlatformID is the platform of a name record.
type PlatformID uint16

// Platforms
const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1 // never decoded
	PlatformIDWindows   PlatformID = 3
)

// EncodingID is the platform-specific encoding of a name record.
type EncodingID uint16

// Windows encodings
const (
	EncodingIDWindowsSymbol EncodingID = 0 // not Unicode text
	EncodingIDWindowsBMP    EncodingID = 1
	EncodingIDWindowsUCS4   EncodingID = 10
)

// IsUnicode reports whether records with this key carry UTF-16BE encoded text:
// all records of the Unicode platform, and Windows records encoded as Unicode
// BMP or full repertoire. Windows symbol encoding is counted as Unicode by
// font tooling as well, as its strings are UTF-16BE, too.
func (key NameKey) IsUnicode() bool {
	switch key.Platform {
	case PlatformIDUnicode:
		return true
	case PlatformIDWindows:
		return key.Encoding == EncodingIDWindowsSymbol || key.Encoding == EncodingIDWindowsBMP ||
			key.Encoding == EncodingIDWindowsUCS4
	}
	return false
}

// NamesRange yields decoded `(key, value)` pairs from a font's OpenType
// `name` table, in table order.
//
// Only records encoded as Unicode text are yielded (see NameKey.IsUnicode),
// and malformed or out-of-bounds records are skipped.
func NamesRange(otf *ot.Font) iter.Seq2[NameKey, string] {
	names := checkNameTableSafe(otf)
	return func(yield func(NameKey, string) bool) {
		if names == nil {
			return
		}
		binary := names.Binary()
		count := int(u16(binary[2:4])) // number of name records
		stringStorageOffset := int(u16(binary[4:6]))
		for i := range count {
			recordSlice := binary[nameHeaderSize+i*nameRecordSize : nameHeaderSize+(i+1)*nameRecordSize]
			key := NameKey{
				Platform: PlatformID(u16(recordSlice[0:2])),
				Encoding: EncodingID(u16(recordSlice[2:4])),
				Language: u16(recordSlice[4:6]),
				Name:     sfnt.NameID(u16(recordSlice[6:8])),
			}
			if !key.IsUnicode() {
				continue
			}
			strLen := int(u16(recordSlice[8:10]))
			recordOffset := int(u16(recordSlice[10:12]))
			start := stringStorageOffset + recordOffset
			end := start + strLen
			if end > len(binary) {
				tracer().Debugf("name record %d out of bounds", i)
				continue
			}
			stringValue, err := decodeNameUTF16(binary[start:end])
			if err != nil {
				tracer().Debugf("name record %d: %v", i, err)
				continue
			}
			if !yield(key, stringValue) {
				return
			}
		}
	}
}

// NameInfo collects the Unicode-encoded name records of a font, keyed by
// name ID. If more than one record exists for an ID, the last one in table
// order wins.
func NameInfo(otf *ot.Font) map[sfnt.NameID]string {
	info := make(map[sfnt.NameID]string)
	for key, value := range NamesRange(otf) {
		info[key.Name] = value
	}
	return info
}

// checkNameTableSafe checks if the name table is safe to use, i.e. no out-of-bounds access,
// no empty tables, etc.
func checkNameTableSafe(otf *ot.Font) *ot.Table {
	if otf == nil {
		return nil
	}
	table := otf.Table(ot.T("name"))
	if table == nil {
		tracer().Debugf("no name table found in font")
		return nil
	}
	b := table.Binary()
	if len(b) < nameHeaderSize {
		tracer().Debugf("name table too short: %d", len(b))
		return nil
	}
	count := int(u16(b[2:4]))
	strOff := int(u16(b[4:6]))
	if strOff > len(b) {
		tracer().Debugf("name table invalid string offset: %d", strOff)
		return nil
	}
	recordsEnd := nameHeaderSize + count*nameRecordSize
	if recordsEnd > len(b) {
		tracer().Debugf("name table record section out of bounds: count=%d", count)
		return nil
	}
	return table
}

func decodeNameUTF16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}

// NameIDString returns a readable label for well-known name IDs.
func NameIDString(id sfnt.NameID) string {
	switch id {
	case sfnt.NameIDCopyright:
		return "copyright"
	case sfnt.NameIDFamily:
		return "family"
	case sfnt.NameIDSubfamily:
		return "subfamily"
	case sfnt.NameIDUniqueIdentifier:
		return "unique identifier"
	case sfnt.NameIDFull:
		return "full name"
	case sfnt.NameIDVersion:
		return "version"
	case sfnt.NameIDPostScript:
		return "PostScript name"
	case sfnt.NameIDTrademark:
		return "trademark"
	case sfnt.NameIDManufacturer:
		return "manufacturer"
	case sfnt.NameIDDesigner:
		return "designer"
	case sfnt.NameIDDescription:
		return "description"
	case sfnt.NameIDLicense:
		return "license"
	}
	return fmt.Sprintf("name #%d", id)
}

// u16 reads a big-endian uint16.
func u16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
