package ot

import (
	"errors"
	"math"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

func putU16(b []byte, n uint16) {
	_ = b[1]
	b[0] = byte(n >> 8)
	b[1] = byte(n)
}

func putU32(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// binarySegm is a segment of byte data.
// We use it throughout this package to navigate the font's binary data.
type binarySegm []byte

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset > len(b) || n > len(b)-offset {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// U16 is a lenient version of u16, returning 0 for out-of-bounds access.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is a lenient version of u32, returning 0 for out-of-bounds access.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// --- Bytes readers for WOFF containers --------------------------------------

// byteReader reads big-endian values sequentially from a byte slice.
// The first out-of-bounds access sets err, all subsequent reads return 0.
type byteReader struct {
	data binarySegm
	pos  int
	err  error
}

func (r *byteReader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *byteReader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return u16(b)
}

func (r *byteReader) i16() int16 {
	return int16(r.u16())
}

func (r *byteReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return u32(b)
}

func (r *byteReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.data.view(r.pos, n)
	if err != nil {
		r.err = err
		return nil
	}
	r.pos += n
	return b
}

// uintBase128 reads a variable-length unsigned integer as defined by WOFF2.
func (r *byteReader) uintBase128() uint32 {
	var accum uint32
	for i := 0; i < 5; i++ {
		b := r.u8()
		if r.err != nil {
			return 0
		}
		if i == 0 && b == 0x80 { // no leading zeros
			r.err = errFontFormat("UIntBase128 with leading zeros")
			return 0
		}
		if accum&0xfe000000 != 0 { // would overflow
			r.err = errFontFormat("UIntBase128 overflow")
			return 0
		}
		accum = accum<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return accum
		}
	}
	r.err = errFontFormat("UIntBase128 exceeds 5 bytes")
	return 0
}

// read255UInt16 reads a variable-length unsigned 16-bit integer as defined by WOFF2.
func (r *byteReader) read255UInt16() uint16 {
	const (
		oneMoreByteCode1 = 255
		oneMoreByteCode2 = 254
		wordCode         = 253
		lowestUCode      = 253
	)
	code := r.u8()
	switch code {
	case wordCode:
		return r.u16()
	case oneMoreByteCode1:
		return uint16(r.u8()) + lowestUCode
	case oneMoreByteCode2:
		return uint16(r.u8()) + lowestUCode*2
	}
	return uint16(code)
}

// --- Arithmetic -------------------------------------------------------------

// checkedAddUint32 checks for overflow in addition of two uint32 values
func checkedAddUint32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// pad4 rounds n up to the next multiple of 4.
func pad4(n int) int {
	return (n + 3) &^ 3
}
