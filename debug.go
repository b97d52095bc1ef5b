// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const debugDirectoryEntrySize = 28

// Debug directory Type values (a subset; the ones this library decodes
// beyond the raw record).
const (
	ImageDebugTypeUnknown                = 0
	ImageDebugTypeCodeView                = 2
	ImageDebugTypeExtendedDllCharacteristics = 20
)

// codeViewRSDSSignature is the "RSDS" magic of a PDB 7.0 CodeView subrecord.
const codeViewRSDSSignature = 0x53445352

// DebugDirectoryEntry is one 28-byte IMAGE_DEBUG_DIRECTORY record.
type DebugDirectoryEntry struct {
	view
}

func newDebugDirectoryEntry(bv *ByteView, offset uint32) DebugDirectoryEntry {
	return DebugDirectoryEntry{view{bv: bv, offset: offset}}
}

// Characteristics is reserved and normally zero.
func (d DebugDirectoryEntry) Characteristics() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x00) }

// TimeDateStamp returns the record's creation timestamp.
func (d DebugDirectoryEntry) TimeDateStamp() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x04) }

// MajorVersion returns the major version number.
func (d DebugDirectoryEntry) MajorVersion() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x08) }

// MinorVersion returns the minor version number.
func (d DebugDirectoryEntry) MinorVersion() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x0A) }

// Type returns the debug information format discriminant.
func (d DebugDirectoryEntry) Type() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x0C) }

// SizeOfData returns the size of the debug data pointed to by
// AddressOfRawData/PointerToRawData.
func (d DebugDirectoryEntry) SizeOfData() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x10) }

// AddressOfRawData returns the RVA of the debug data, or zero if it is not
// mapped into memory.
func (d DebugDirectoryEntry) AddressOfRawData() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x14) }

// PointerToRawData returns the file offset of the debug data.
func (d DebugDirectoryEntry) PointerToRawData() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x18) }

// readDebugDirectoryEntries decodes directorySize/28 contiguous records at
// offset.
func readDebugDirectoryEntries(bv *ByteView, offset, directorySize uint32) []DebugDirectoryEntry {
	count := directorySize / debugDirectoryEntrySize
	out := make([]DebugDirectoryEntry, count)
	for i := uint32(0); i < count; i++ {
		out[i] = newDebugDirectoryEntry(bv, offset+i*debugDirectoryEntrySize)
	}
	return out
}

// CodeViewInfo is the decoded RSDS subrecord of a CodeView (Type == 2)
// debug directory entry: the path to the matching PDB.
type CodeViewInfo struct {
	Signature uint32
	GUID      [16]byte
	Age       uint32
	PDBPath   string
}

// CodeView parses the RSDS subrecord at this entry's PointerToRawData. The
// caller is responsible for checking Type() == ImageDebugTypeCodeView
// first.
func (d DebugDirectoryEntry) CodeView() (CodeViewInfo, error) {
	off, err := d.PointerToRawData()
	if err != nil {
		return CodeViewInfo{}, err
	}

	sig, err := d.bv.ReadUint32(off)
	if err != nil {
		return CodeViewInfo{}, err
	}
	if sig != codeViewRSDSSignature {
		return CodeViewInfo{}, invalidDataErr("DebugDirectoryEntry.CodeView", "RSDS signature not found")
	}

	guidBytes, err := d.bv.SubArray(off+4, 16)
	if err != nil {
		return CodeViewInfo{}, err
	}
	var guid [16]byte
	copy(guid[:], guidBytes)

	age, err := d.bv.ReadUint32(off + 20)
	if err != nil {
		return CodeViewInfo{}, err
	}

	path, err := d.bv.ReadASCIIString(off + 24)
	if err != nil {
		return CodeViewInfo{}, err
	}

	return CodeViewInfo{Signature: sig, GUID: guid, Age: age, PDBPath: path}, nil
}

// ExtendedDllCharacteristics parses the single u32 bit-flag set carried by
// an ExtendedDllCharacteristics (Type == 20) debug directory entry. The
// caller is responsible for checking Type() first.
func (d DebugDirectoryEntry) ExtendedDllCharacteristics() (uint32, error) {
	off, err := d.PointerToRawData()
	if err != nil {
		return 0, err
	}
	return d.bv.ReadUint32(off)
}
