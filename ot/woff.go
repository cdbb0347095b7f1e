package ot

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math/bits"
	"sort"
)

// --- SFNT assembly ---------------------------------------------------------

// sfntTable is a table to be placed into a reconstructed SFNT binary.
type sfntTable struct {
	tag  Tag
	data []byte
}

// assembleSFNT creates a plain SFNT binary from a set of tables. Tables are
// sorted by tag and padded to 4-byte boundaries.
func assembleSFNT(flavor uint32, tables []sfntTable) []byte {
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })
	n := len(tables)
	size := 12 + 16*n
	for _, t := range tables {
		size += pad4(len(t.data))
	}
	out := make([]byte, size)
	putU32(out, flavor)
	putU16(out[4:], uint16(n))
	entrySelector := 0
	if n > 0 {
		entrySelector = bits.Len(uint(n)) - 1
	}
	searchRange := (1 << entrySelector) * 16
	putU16(out[6:], uint16(searchRange))
	putU16(out[8:], uint16(entrySelector))
	putU16(out[10:], uint16(n*16-searchRange))
	off := 12 + 16*n
	for i, t := range tables {
		rec := out[12+16*i:]
		putU32(rec, uint32(t.tag))
		putU32(rec[4:], tableChecksum(t.data))
		putU32(rec[8:], uint32(off))
		putU32(rec[12:], uint32(len(t.data)))
		copy(out[off:], t.data)
		off += pad4(len(t.data))
	}
	return out
}

func tableChecksum(b []byte) uint32 {
	var sum uint32
	for len(b) >= 4 {
		sum += u32(b)
		b = b[4:]
	}
	if len(b) > 0 {
		var last [4]byte
		copy(last[:], b)
		sum += u32(last[:])
	}
	return sum
}

// --- WOFF 1.0 --------------------------------------------------------------

// https://www.w3.org/TR/WOFF/
const (
	woffHeaderSize   = 44
	woffTableDirSize = 20
)

// unwrapWOFF decompresses a WOFF 1.0 font into a plain SFNT binary.
// Metadata and private data blocks are ignored.
func unwrapWOFF(font []byte) ([]byte, error) {
	src := binarySegm(font)
	if len(src) < woffHeaderSize {
		return nil, errFontFormat("WOFF header too short")
	}
	flavor := src.U32(4)
	numTables := int(src.U16(12))
	if numTables > MaxTableCount {
		return nil, errFontFormat(fmt.Sprintf("WOFF table count too large: %d", numTables))
	}
	dir, err := src.view(woffHeaderSize, numTables*woffTableDirSize)
	if err != nil {
		return nil, errFontFormat("WOFF table directory out of bounds")
	}
	tables := make([]sfntTable, 0, numTables)
	for i := 0; i < numTables; i++ {
		e := dir[i*woffTableDirSize:]
		tag := Tag(u32(e))
		off, compLen, origLen := u32(e[4:]), u32(e[8:]), u32(e[12:])
		end, ok := checkedAddUint32(off, compLen)
		if !ok || end > uint32(len(src)) {
			return nil, errFontFormat(fmt.Sprintf("WOFF table %s out of bounds", tag))
		}
		data := src[off:end]
		switch {
		case compLen == origLen:
			// stored uncompressed
		case compLen < origLen:
			if data, err = inflate(data, origLen); err != nil {
				return nil, errFontFormat(fmt.Sprintf("WOFF table %s: %v", tag, err))
			}
		default:
			return nil, errFontFormat(fmt.Sprintf("WOFF table %s: compressed length exceeds original length", tag))
		}
		tables = append(tables, sfntTable{tag: tag, data: data})
	}
	tracer().Debugf("unwrapped WOFF font with %d tables", numTables)
	return assembleSFNT(flavor, tables), nil
}

func inflate(data []byte, origLen uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make([]byte, 0, origLen)
	buf := bytes.NewBuffer(out)
	// read one byte more than announced to detect a size mismatch
	if _, err := io.Copy(buf, io.LimitReader(zr, int64(origLen)+1)); err != nil {
		return nil, err
	}
	if buf.Len() != int(origLen) {
		return nil, fmt.Errorf("decompressed size %d, expected %d", buf.Len(), origLen)
	}
	return buf.Bytes(), nil
}
