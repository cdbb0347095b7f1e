package testfont

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	"github.com/andybalholm/brotli"
)

type dirEntry struct {
	tag  string
	data []byte
}

func tableDirectory(sfnt []byte) (flavor uint32, entries []dirEntry) {
	flavor = binary.BigEndian.Uint32(sfnt)
	n := int(binary.BigEndian.Uint16(sfnt[4:]))
	for i := 0; i < n; i++ {
		rec := sfnt[12+16*i:]
		off := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		entries = append(entries, dirEntry{tag: string(rec[:4]), data: sfnt[off : off+length]})
	}
	return
}

// WOFF wraps an SFNT binary into a WOFF 1.0 container. Tables are compressed
// with zlib where this makes them smaller.
func WOFF(sfnt []byte) []byte {
	flavor, entries := tableDirectory(sfnt)
	type stored struct {
		data    []byte
		origLen int
	}
	tables := make([]stored, len(entries))
	for i, e := range entries {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		_, _ = zw.Write(e.data)
		_ = zw.Close()
		if z.Len() < len(e.data) {
			tables[i] = stored{data: z.Bytes(), origLen: len(e.data)}
		} else {
			tables[i] = stored{data: e.data, origLen: len(e.data)}
		}
	}
	const headerSize, entrySize = 44, 20
	off := headerSize + entrySize*len(entries)
	w := &writer{}
	w.u32(0x774f4646) // wOFF
	w.u32(flavor)
	total := off
	for _, t := range tables {
		total += pad4(len(t.data))
	}
	w.u32(uint32(total))
	w.u16(uint16(len(entries)))
	w.u16(0)                 // reserved
	w.u32(uint32(len(sfnt))) // totalSfntSize
	w.u16(1)                 // majorVersion
	w.u16(0)
	w.buf.Write(make([]byte, 20)) // no metadata, no private block
	for i, e := range entries {
		w.buf.WriteString(e.tag)
		w.u32(uint32(off))
		w.u32(uint32(len(tables[i].data)))
		w.u32(uint32(tables[i].origLen))
		w.u32(checksum(e.data))
		off += pad4(len(tables[i].data))
	}
	for _, t := range tables {
		w.buf.Write(t.data)
		w.pad()
	}
	return w.buf.Bytes()
}

var woff2Tags = map[string]byte{
	"cmap": 0, "head": 1, "hhea": 2, "hmtx": 3, "maxp": 4, "name": 5, "OS/2": 6,
	"post": 7, "glyf": 10, "loca": 11,
}

// WOFF2 wraps an SFNT binary into a WOFF 2.0 container. All tables use the
// null transform; 'glyf' and 'loca' are flagged with transform version 3.
func WOFF2(sfnt []byte) []byte {
	flavor, entries := tableDirectory(sfnt)
	dir := &writer{}
	var stream bytes.Buffer
	for _, e := range entries {
		inx, known := woff2Tags[e.tag]
		var flags byte = 63
		if known {
			flags = inx
		}
		if e.tag == "glyf" || e.tag == "loca" {
			flags |= 3 << 6
		}
		dir.buf.WriteByte(flags)
		if !known {
			dir.buf.WriteString(e.tag)
		}
		writeBase128(&dir.buf, uint32(len(e.data)))
		stream.Write(e.data)
	}
	var compressed bytes.Buffer
	bw := brotli.NewWriter(&compressed)
	_, _ = bw.Write(stream.Bytes())
	_ = bw.Close()

	const headerSize = 48
	w := &writer{}
	w.u32(0x774f4632) // wOF2
	w.u32(flavor)
	w.u32(uint32(headerSize + dir.buf.Len() + pad4(compressed.Len())))
	w.u16(uint16(len(entries)))
	w.u16(0)
	w.u32(uint32(len(sfnt)))
	w.u32(uint32(compressed.Len()))
	w.u16(1)
	w.u16(0)
	w.buf.Write(make([]byte, 20)) // no metadata, no private block
	w.buf.Write(dir.buf.Bytes())
	w.buf.Write(compressed.Bytes())
	w.pad()
	return w.buf.Bytes()
}

func writeBase128(buf *bytes.Buffer, n uint32) {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(n & 0x7f)
	for n >>= 7; n > 0; n >>= 7 {
		i--
		tmp[i] = byte(n&0x7f) | 0x80
	}
	buf.Write(tmp[i:])
}
