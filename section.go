// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// Section characteristics bit flags (a subset of the documented set; the
// ones useful for telling code from data from uninitialized storage).
const (
	ImageScnCntCode               = 0x00000020
	ImageScnCntInitializedData    = 0x00000040
	ImageScnCntUninitializedData  = 0x00000080
	ImageScnLnkNRelocOvfl         = 0x01000000
	ImageScnMemDiscardable        = 0x02000000
	ImageScnMemNotCached          = 0x04000000
	ImageScnMemNotPaged           = 0x08000000
	ImageScnMemShared             = 0x10000000
	ImageScnMemExecute            = 0x20000000
	ImageScnMemRead               = 0x40000000
	ImageScnMemWrite              = 0x80000000
)

// sectionHeaderSize is the fixed on-disk size of IMAGE_SECTION_HEADER.
const sectionHeaderSize = 40

// SectionHeader is a value snapshot of one 40-byte IMAGE_SECTION_HEADER
// record. Unlike most structures in this library it is a plain data
// struct, not a live view: the RVA resolver and section-vector code need a
// stable, copyable representation to scan and sort.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// NameString returns the section name with trailing zero padding trimmed.
// The name is not necessarily NUL-terminated: a full 8-byte name occupies
// the whole field with no terminator at all.
func (s SectionHeader) NameString() string {
	end := 0
	for end < len(s.Name) && s.Name[end] != 0 {
		end++
	}
	return string(s.Name[:end])
}

// Contains reports whether rva falls within this section's virtual range.
func (s SectionHeader) Contains(rva uint32) bool {
	return rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize
}

// readSectionHeaderAt decodes one 40-byte section record at offset.
func readSectionHeaderAt(bv *ByteView, offset uint32) (SectionHeader, error) {
	var s SectionHeader
	name, err := bv.SubArray(offset, 8)
	if err != nil {
		return s, err
	}
	copy(s.Name[:], name)

	fields := []struct {
		dst *uint32
	}{
		{&s.VirtualSize}, {&s.VirtualAddress}, {&s.SizeOfRawData},
		{&s.PointerToRawData}, {&s.PointerToRelocations}, {&s.PointerToLineNumbers},
	}
	o := offset + 8
	for _, f := range fields {
		v, err := bv.ReadUint32(o)
		if err != nil {
			return s, err
		}
		*f.dst = v
		o += 4
	}

	numRelocs, err := bv.ReadUint16(o)
	if err != nil {
		return s, err
	}
	s.NumberOfRelocations = numRelocs
	o += 2

	numLines, err := bv.ReadUint16(o)
	if err != nil {
		return s, err
	}
	s.NumberOfLineNumbers = numLines
	o += 2

	characteristics, err := bv.ReadUint32(o)
	if err != nil {
		return s, err
	}
	s.Characteristics = characteristics

	return s, nil
}

// encode reconstructs the 40-byte on-disk record from the struct fields.
// This is the only view in the library that supports whole-record
// re-encoding, used when a new section is appended to the vector.
func (s SectionHeader) encode() []byte {
	buf := make([]byte, sectionHeaderSize)
	copy(buf[0:8], s.Name[:])
	putU32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	putU16 := func(off int, v uint16) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	}
	putU32(8, s.VirtualSize)
	putU32(12, s.VirtualAddress)
	putU32(16, s.SizeOfRawData)
	putU32(20, s.PointerToRawData)
	putU32(24, s.PointerToRelocations)
	putU32(28, s.PointerToLineNumbers)
	putU16(32, s.NumberOfRelocations)
	putU16(34, s.NumberOfLineNumbers)
	putU32(36, s.Characteristics)
	return buf
}

// readSectionHeaders decodes count contiguous 40-byte records starting at
// offset into a flat vector.
func readSectionHeaders(bv *ByteView, offset uint32, count uint16) ([]SectionHeader, error) {
	out := make([]SectionHeader, 0, count)
	for i := uint16(0); i < count; i++ {
		s, err := readSectionHeaderAt(bv, offset+uint32(i)*sectionHeaderSize)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// sectionByRVA scans (does not assume RVA order) for the section
// containing rva, using the same strict containment as resolveRVA's primary
// pass; resolveRVA's end-of-section fallback is not applied here.
func sectionByRVA(sections []SectionHeader, rva uint32) (SectionHeader, bool) {
	for _, s := range sections {
		if s.Contains(rva) {
			return s, true
		}
	}
	return SectionHeader{}, false
}

// SectionHeaderAt writes a freshly-encoded 40-byte record for s at offset,
// used when appending a new section header to the vector on disk.
func SectionHeaderAt(bv *ByteView, offset uint32, s SectionHeader) error {
	return bv.WriteBytes(offset, s.encode())
}
