// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// ByteView is the single mutable byte buffer backing an Image and every
// view derived from it. All multi-byte integers are little-endian. Offsets
// are always relative to the start of the buffer; no view owns a private
// copy of the data it describes.
//
// A ByteView is cheap to share: every directory view holds a pointer back
// to the same ByteView rather than copying bytes, so a write made through
// any setter is observable immediately through every other view.
type ByteView struct {
	data []byte
}

// NewByteView wraps data as the backing buffer of a ByteView. The slice is
// not copied; writes through the returned ByteView mutate it in place.
func NewByteView(data []byte) *ByteView {
	return &ByteView{data: data}
}

// Len returns the total length of the backing buffer.
func (b *ByteView) Len() uint32 {
	return uint32(len(b.data))
}

// Bytes returns the current backing buffer verbatim. It is the snapshot
// used to persist the image: the caller must not mutate the returned slice
// through any means other than the ByteView's own writers.
func (b *ByteView) Bytes() []byte {
	return b.data
}

func (b *ByteView) checkBounds(op string, offset, width uint32) error {
	if offset > uint32(len(b.data)) || width > uint32(len(b.data))-offset {
		return boundsErr(op)
	}
	return nil
}

// ReadUint8 reads a single byte at offset.
func (b *ByteView) ReadUint8(offset uint32) (uint8, error) {
	if err := b.checkBounds("ByteView.ReadUint8", offset, 1); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

// ReadUint16 reads a little-endian u16 at offset.
func (b *ByteView) ReadUint16(offset uint32) (uint16, error) {
	if err := b.checkBounds("ByteView.ReadUint16", offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data[offset:]), nil
}

// ReadUint32 reads a little-endian u32 at offset.
func (b *ByteView) ReadUint32(offset uint32) (uint32, error) {
	if err := b.checkBounds("ByteView.ReadUint32", offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[offset:]), nil
}

// ReadUint64 reads a little-endian u64 at offset.
func (b *ByteView) ReadUint64(offset uint32) (uint64, error) {
	if err := b.checkBounds("ByteView.ReadUint64", offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b.data[offset:]), nil
}

// WriteUint8 writes a single byte at offset.
func (b *ByteView) WriteUint8(offset uint32, value uint8) error {
	if err := b.checkBounds("ByteView.WriteUint8", offset, 1); err != nil {
		return err
	}
	b.data[offset] = value
	return nil
}

// WriteUint16 writes the full 16-bit value, little-endian, at offset.
//
// The C++ source this library is modeled on has a WriteUnsignedShort that
// truncates to the low byte before writing; that is a bug, not a contract,
// and is not reproduced here.
func (b *ByteView) WriteUint16(offset uint32, value uint16) error {
	if err := b.checkBounds("ByteView.WriteUint16", offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.data[offset:], value)
	return nil
}

// WriteUint32 writes the full 32-bit value, little-endian, at offset.
func (b *ByteView) WriteUint32(offset uint32, value uint32) error {
	if err := b.checkBounds("ByteView.WriteUint32", offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[offset:], value)
	return nil
}

// WriteUint64 writes the full 64-bit value, little-endian, at offset.
func (b *ByteView) WriteUint64(offset uint32, value uint64) error {
	if err := b.checkBounds("ByteView.WriteUint64", offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.data[offset:], value)
	return nil
}

// WriteBytes copies value into the buffer starting at offset.
func (b *ByteView) WriteBytes(offset uint32, value []byte) error {
	if err := b.checkBounds("ByteView.WriteBytes", offset, uint32(len(value))); err != nil {
		return err
	}
	copy(b.data[offset:], value)
	return nil
}

// SubArray returns a copy of length bytes starting at offset.
func (b *ByteView) SubArray(offset, length uint32) ([]byte, error) {
	if err := b.checkBounds("ByteView.SubArray", offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// ReadASCIIString reads a NUL-terminated ASCII string starting at offset.
// If no NUL byte is found before the end of the buffer, the remainder of
// the buffer is returned.
func (b *ByteView) ReadASCIIString(offset uint32) (string, error) {
	if offset > uint32(len(b.data)) {
		return "", boundsErr("ByteView.ReadASCIIString")
	}
	end := offset
	for end < uint32(len(b.data)) && b.data[end] != 0 {
		end++
	}
	return string(b.data[offset:end]), nil
}

// ReadASCIIStringBounded behaves like ReadASCIIString but never reads past
// offset+maxLen, even when no NUL byte is encountered first.
func (b *ByteView) ReadASCIIStringBounded(offset, maxLen uint32) (string, error) {
	if offset > uint32(len(b.data)) {
		return "", boundsErr("ByteView.ReadASCIIStringBounded")
	}
	limit := offset + maxLen
	if limit > uint32(len(b.data)) || limit < offset {
		limit = uint32(len(b.data))
	}
	end := offset
	for end < limit && b.data[end] != 0 {
		end++
	}
	return string(b.data[offset:end]), nil
}

// ReadUTF16String decodes a UTF-16LE string of exactly charCount 16-bit
// characters starting at offset. Decoding does not stop at an embedded
// NUL character and does not assume termination; the caller supplies the
// exact character count (as resource directories do, via a length prefix).
func (b *ByteView) ReadUTF16String(offset, charCount uint32) (string, error) {
	byteLen := charCount * 2
	if err := b.checkBounds("ByteView.ReadUTF16String", offset, byteLen); err != nil {
		return "", err
	}
	raw := b.data[offset : offset+byteLen]
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(raw)
	if err != nil {
		return "", newError(KindInvalidData, "ByteView.ReadUTF16String", err)
	}
	return string(out), nil
}

// RemoveRange deletes length bytes starting at offset, shrinking the buffer.
func (b *ByteView) RemoveRange(offset, length uint32) error {
	if err := b.checkBounds("ByteView.RemoveRange", offset, length); err != nil {
		return err
	}
	b.data = append(b.data[:offset], b.data[offset+length:]...)
	return nil
}
