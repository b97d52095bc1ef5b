// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const fileHeaderSize = 20

// NTHeader is anchored at e_lfanew: the 4-byte PE signature followed by the
// File Header and the bitness-polymorphic Optional Header.
type NTHeader struct {
	view
}

func newNTHeader(bv *ByteView, offset uint32) NTHeader {
	return NTHeader{view{bv: bv, offset: offset}}
}

// Signature returns the 4-byte value at the start of the NT header,
// expected to equal ImageNTSignature ("PE\0\0").
func (h NTHeader) Signature() (uint32, error) { return h.bv.ReadUint32(h.offset) }

// SetSignature writes the NT signature.
func (h NTHeader) SetSignature(v uint32) error { return h.bv.WriteUint32(h.offset, v) }

// FileHeader returns the COFF file header immediately following the
// signature.
func (h NTHeader) FileHeader() FileHeader {
	return FileHeader{view{bv: h.bv, offset: h.offset + 4}}
}

// optionalHeaderOffset is the fixed offset of the Optional Header relative
// to the NT header, regardless of bitness.
const optionalHeaderOffset = 0x18

// magicOffset probes the bitness without needing a FileHeader round trip:
// it is the offset of the Optional Header's Magic field relative to the NT
// header.
func (h NTHeader) magicOffset() uint32 { return h.offset + optionalHeaderOffset }

// bitness reads the Optional Header Magic field and reports whether the
// image is PE32+ (64-bit).
func (h NTHeader) bitness() (is64 bool, err error) {
	magic, err := h.bv.ReadUint16(h.magicOffset())
	if err != nil {
		return false, err
	}
	return magic == ImageNtOptionalHeader64Magic, nil
}

// OptionalHeader returns the bitness-selected Optional Header view.
func (h NTHeader) OptionalHeader() (OptionalHeader, error) {
	is64, err := h.bitness()
	if err != nil {
		return OptionalHeader{}, err
	}
	return OptionalHeader{
		view:  view{bv: h.bv, offset: h.offset + optionalHeaderOffset},
		is64:  is64,
	}, nil
}

// FileHeader is the 20-byte IMAGE_FILE_HEADER.
type FileHeader struct {
	view
}

// Machine returns the target machine type.
func (h FileHeader) Machine() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x00) }

// SetMachine writes the target machine type.
func (h FileHeader) SetMachine(v uint16) error { return h.bv.WriteUint16(h.offset+0x00, v) }

// NumberOfSections returns the section count that sizes the section vector.
func (h FileHeader) NumberOfSections() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x02) }

// SetNumberOfSections writes the section count.
func (h FileHeader) SetNumberOfSections(v uint16) error { return h.bv.WriteUint16(h.offset+0x02, v) }

// TimeDateStamp returns the linker timestamp.
func (h FileHeader) TimeDateStamp() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x04) }

// SetTimeDateStamp writes the linker timestamp.
func (h FileHeader) SetTimeDateStamp(v uint32) error { return h.bv.WriteUint32(h.offset+0x04, v) }

// PointerToSymbolTable returns the file offset of the (deprecated) COFF
// symbol table.
func (h FileHeader) PointerToSymbolTable() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x08) }

// NumberOfSymbols returns the COFF symbol count.
func (h FileHeader) NumberOfSymbols() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x0C) }

// SizeOfOptionalHeader returns the declared size of the Optional Header,
// used to locate the section-header vector immediately after it.
func (h FileHeader) SizeOfOptionalHeader() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x10) }

// SetSizeOfOptionalHeader writes the declared Optional Header size.
func (h FileHeader) SetSizeOfOptionalHeader(v uint16) error {
	return h.bv.WriteUint16(h.offset+0x10, v)
}

// Characteristics returns the FileHeader.Characteristics bit-flag set.
func (h FileHeader) Characteristics() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x12) }

// SetCharacteristics writes the FileHeader.Characteristics bit-flag set.
func (h FileHeader) SetCharacteristics(v uint16) error { return h.bv.WriteUint16(h.offset+0x12, v) }

// optionalHeaderLayout holds the bitness-dependent field offsets described
// in the Optional Header table. PE32 and PE32+ share every field up through
// BaseOfCode; PE32 alone has BaseOfData, so ImageBase sits at 0x1C in PE32
// and 0x18 in PE32+. SectionAlignment through DllCharacteristics share the
// same offsets; the stack and heap sizes are 4 or 8 bytes wide, which
// shifts every field after them.
type optionalHeaderLayout struct {
	imageBase            uint32
	sectionAlignment     uint32
	fileAlignment        uint32
	majorOSVersion       uint32
	minorOSVersion       uint32
	majorImageVersion    uint32
	minorImageVersion    uint32
	majorSubsystemVer    uint32
	minorSubsystemVer    uint32
	win32VersionValue    uint32
	sizeOfImage          uint32
	sizeOfHeaders        uint32
	checkSum             uint32
	subsystem            uint32
	dllCharacteristics   uint32
	stackReserve         uint32
	stackCommit          uint32
	heapReserve          uint32
	heapCommit           uint32
	loaderFlags          uint32
	numberOfRvaAndSizes  uint32
	dataDirectory        uint32
	pointerWidth         uint32
}

var layout32 = optionalHeaderLayout{
	imageBase: 0x1C, sectionAlignment: 0x20, fileAlignment: 0x24,
	majorOSVersion: 0x28, minorOSVersion: 0x2A, majorImageVersion: 0x2C,
	minorImageVersion: 0x2E, majorSubsystemVer: 0x30, minorSubsystemVer: 0x32,
	win32VersionValue: 0x34, sizeOfImage: 0x38, sizeOfHeaders: 0x3C,
	checkSum: 0x40, subsystem: 0x44, dllCharacteristics: 0x46,
	stackReserve: 0x48, stackCommit: 0x4C, heapReserve: 0x50, heapCommit: 0x54,
	loaderFlags: 0x58, numberOfRvaAndSizes: 0x5C, dataDirectory: 0x60,
	pointerWidth: 4,
}

var layout64 = optionalHeaderLayout{
	imageBase: 0x18, sectionAlignment: 0x20, fileAlignment: 0x24,
	majorOSVersion: 0x28, minorOSVersion: 0x2A, majorImageVersion: 0x2C,
	minorImageVersion: 0x2E, majorSubsystemVer: 0x30, minorSubsystemVer: 0x32,
	win32VersionValue: 0x34, sizeOfImage: 0x38, sizeOfHeaders: 0x3C,
	checkSum: 0x40, subsystem: 0x44, dllCharacteristics: 0x46,
	stackReserve: 0x48, stackCommit: 0x50, heapReserve: 0x58, heapCommit: 0x60,
	loaderFlags: 0x68, numberOfRvaAndSizes: 0x6C, dataDirectory: 0x70,
	pointerWidth: 8,
}

// OptionalHeader is the bitness-polymorphic IMAGE_OPTIONAL_HEADER. Fields
// at the same offset in both layouts (Magic through BaseOfCode) are read at
// fixed offsets; the accessors from ImageBase onward consult a small
// offset table selected by is64, per the "carry a bitness flag, not an
// inheritance tree" design.
type OptionalHeader struct {
	view
	is64 bool
}

func (h OptionalHeader) layout() optionalHeaderLayout {
	if h.is64 {
		return layout64
	}
	return layout32
}

// Is64Bit reports whether this is a PE32+ optional header.
func (h OptionalHeader) Is64Bit() bool { return h.is64 }

// Magic returns the layout-selecting Magic field.
func (h OptionalHeader) Magic() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x00) }

// MajorLinkerVersion returns the linker major version.
func (h OptionalHeader) MajorLinkerVersion() (uint8, error) { return h.bv.ReadUint8(h.offset + 0x02) }

// SetMajorLinkerVersion writes the linker major version.
func (h OptionalHeader) SetMajorLinkerVersion(v uint8) error {
	return h.bv.WriteUint8(h.offset+0x02, v)
}

// MinorLinkerVersion returns the linker minor version.
//
// Note: this field has its own offset, distinct from MajorLinkerVersion.
// A prior implementation this library is modeled on wrote both the major
// and minor setters to the major field's offset; that bug is not
// reproduced here.
func (h OptionalHeader) MinorLinkerVersion() (uint8, error) { return h.bv.ReadUint8(h.offset + 0x03) }

// SetMinorLinkerVersion writes the linker minor version at its own offset.
func (h OptionalHeader) SetMinorLinkerVersion(v uint8) error {
	return h.bv.WriteUint8(h.offset+0x03, v)
}

// SizeOfCode returns the combined size of all code sections.
func (h OptionalHeader) SizeOfCode() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x04) }

// SizeOfInitializedData returns the combined size of initialized data sections.
func (h OptionalHeader) SizeOfInitializedData() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x08) }

// SizeOfUninitializedData returns the combined size of uninitialized data sections.
func (h OptionalHeader) SizeOfUninitializedData() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x0C) }

// AddressOfEntryPoint returns the RVA of the entry point.
func (h OptionalHeader) AddressOfEntryPoint() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x10) }

// SetAddressOfEntryPoint writes the entry point RVA.
func (h OptionalHeader) SetAddressOfEntryPoint(v uint32) error {
	return h.bv.WriteUint32(h.offset+0x10, v)
}

// BaseOfCode returns the RVA of the start of the code section.
func (h OptionalHeader) BaseOfCode() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x14) }

// BaseOfData returns the RVA of the start of the data section. It exists
// only in PE32; calling it on a PE32+ image returns an invalid-operation
// error.
func (h OptionalHeader) BaseOfData() (uint32, error) {
	if h.is64 {
		return 0, invalidOperationErr("OptionalHeader.BaseOfData")
	}
	return h.bv.ReadUint32(h.offset + 0x18)
}

// SetBaseOfData writes BaseOfData. PE32+ has no such field; attempting to
// write it is an invalid-operation error, matching the read side.
func (h OptionalHeader) SetBaseOfData(v uint32) error {
	if h.is64 {
		return invalidOperationErr("OptionalHeader.SetBaseOfData")
	}
	return h.bv.WriteUint32(h.offset+0x18, v)
}

// ImageBase returns the preferred load address of the image.
func (h OptionalHeader) ImageBase() (uint64, error) {
	l := h.layout()
	if h.is64 {
		return h.bv.ReadUint64(h.offset + l.imageBase)
	}
	v, err := h.bv.ReadUint32(h.offset + l.imageBase)
	return uint64(v), err
}

// SetImageBase writes the preferred load address.
func (h OptionalHeader) SetImageBase(v uint64) error {
	l := h.layout()
	if h.is64 {
		return h.bv.WriteUint64(h.offset+l.imageBase, v)
	}
	return h.bv.WriteUint32(h.offset+l.imageBase, uint32(v))
}

// SectionAlignment returns the in-memory section alignment.
func (h OptionalHeader) SectionAlignment() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().sectionAlignment)
}

// FileAlignment returns the on-disk section alignment.
func (h OptionalHeader) FileAlignment() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().fileAlignment)
}

// SetFileAlignment writes the on-disk section alignment.
func (h OptionalHeader) SetFileAlignment(v uint32) error {
	return h.bv.WriteUint32(h.offset+h.layout().fileAlignment, v)
}

// MajorSubsystemVersion returns the subsystem major version.
func (h OptionalHeader) MajorSubsystemVersion() (uint16, error) {
	return h.bv.ReadUint16(h.offset + h.layout().majorSubsystemVer)
}

// MinorSubsystemVersion returns the subsystem minor version.
func (h OptionalHeader) MinorSubsystemVersion() (uint16, error) {
	return h.bv.ReadUint16(h.offset + h.layout().minorSubsystemVer)
}

// SizeOfImage returns the in-memory size of the whole image including headers.
func (h OptionalHeader) SizeOfImage() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().sizeOfImage)
}

// SetSizeOfImage writes the in-memory image size.
func (h OptionalHeader) SetSizeOfImage(v uint32) error {
	return h.bv.WriteUint32(h.offset+h.layout().sizeOfImage, v)
}

// SizeOfHeaders returns the size of all headers rounded to FileAlignment.
func (h OptionalHeader) SizeOfHeaders() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().sizeOfHeaders)
}

// CheckSum returns the image checksum field.
func (h OptionalHeader) CheckSum() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().checkSum)
}

// SetCheckSum writes the image checksum field.
func (h OptionalHeader) SetCheckSum(v uint32) error {
	return h.bv.WriteUint32(h.offset+h.layout().checkSum, v)
}

// Subsystem returns the required subsystem (GUI, console, native, ...).
func (h OptionalHeader) Subsystem() (uint16, error) {
	return h.bv.ReadUint16(h.offset + h.layout().subsystem)
}

// SetSubsystem writes the required subsystem.
func (h OptionalHeader) SetSubsystem(v uint16) error {
	return h.bv.WriteUint16(h.offset+h.layout().subsystem, v)
}

// DllCharacteristics returns the DLL characteristics bit-flag set.
func (h OptionalHeader) DllCharacteristics() (uint16, error) {
	return h.bv.ReadUint16(h.offset + h.layout().dllCharacteristics)
}

// SetDllCharacteristics writes the DLL characteristics bit-flag set.
func (h OptionalHeader) SetDllCharacteristics(v uint16) error {
	return h.bv.WriteUint16(h.offset+h.layout().dllCharacteristics, v)
}

// SizeOfStackReserve returns the reserved stack size in bytes.
func (h OptionalHeader) SizeOfStackReserve() (uint64, error) {
	return h.readPointerSized(h.layout().stackReserve)
}

// SizeOfStackCommit returns the committed stack size in bytes.
func (h OptionalHeader) SizeOfStackCommit() (uint64, error) {
	return h.readPointerSized(h.layout().stackCommit)
}

// SizeOfHeapReserve returns the reserved heap size in bytes.
func (h OptionalHeader) SizeOfHeapReserve() (uint64, error) {
	return h.readPointerSized(h.layout().heapReserve)
}

// SizeOfHeapCommit returns the committed heap size in bytes.
func (h OptionalHeader) SizeOfHeapCommit() (uint64, error) {
	return h.readPointerSized(h.layout().heapCommit)
}

func (h OptionalHeader) readPointerSized(fieldOffset uint32) (uint64, error) {
	if h.is64 {
		return h.bv.ReadUint64(h.offset + fieldOffset)
	}
	v, err := h.bv.ReadUint32(h.offset + fieldOffset)
	return uint64(v), err
}

// LoaderFlags returns the obsolete LoaderFlags field.
func (h OptionalHeader) LoaderFlags() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().loaderFlags)
}

// NumberOfRvaAndSizes returns the declared Data Directory slot count. The
// Data Directory view always exposes all 16 slots regardless of this
// value; slots beyond the declared count read as whatever bytes are
// present (typically zero) rather than erroring.
func (h OptionalHeader) NumberOfRvaAndSizes() (uint32, error) {
	return h.bv.ReadUint32(h.offset + h.layout().numberOfRvaAndSizes)
}

// DataDirectory returns the 16-slot Data Directory table nested in this
// Optional Header.
func (h OptionalHeader) DataDirectory() DataDirectory {
	return DataDirectory{view{bv: h.bv, offset: h.offset + h.layout().dataDirectory}}
}

// end returns the offset immediately following this Optional Header, where
// the section-header vector begins. sizeOfOptionalHeader is the File
// Header's own declared size of the Optional Header
// (FileHeader.SizeOfOptionalHeader): the Data Directory is not guaranteed
// to carry the full 16 slots, so the section vector's start must be derived
// from the declared size rather than assumed.
func (h OptionalHeader) end(sizeOfOptionalHeader uint16) uint32 {
	return h.offset + uint32(sizeOfOptionalHeader)
}
