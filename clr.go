// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const clrHeaderSize = 72

// COMDescriptor.Flags bit flags.
const (
	ComImageFlagsILOnly       = 0x00000001
	ComImageFlags32BitRequired = 0x00000002
	ComImageFlagsILLibrary    = 0x00000004
	ComImageFlagsStrongNameSigned = 0x00000008
	ComImageFlagsNativeEntryPoint = 0x00000010
	ComImageFlagsTrackDebugData   = 0x00010000
)

// COMDescriptor is the 72-byte IMAGE_COR20_HEADER (the .NET/CLR header).
type COMDescriptor struct {
	view
}

func newCOMDescriptor(bv *ByteView, offset uint32) COMDescriptor {
	return COMDescriptor{view{bv: bv, offset: offset}}
}

// Cb returns the size of this header, in bytes.
func (c COMDescriptor) Cb() (uint32, error) { return c.bv.ReadUint32(c.offset + 0x00) }

// MajorRuntimeVersion returns the minimum required major runtime version.
func (c COMDescriptor) MajorRuntimeVersion() (uint16, error) { return c.bv.ReadUint16(c.offset + 0x04) }

// MinorRuntimeVersion returns the minimum required minor runtime version.
func (c COMDescriptor) MinorRuntimeVersion() (uint16, error) { return c.bv.ReadUint16(c.offset + 0x06) }

// MetaData returns the (RVA, size) of the runtime metadata.
func (c COMDescriptor) MetaData() (rva, size uint32, err error) { return c.directoryEntry(0x08) }

// Resources returns the (RVA, size) of the managed resources.
func (c COMDescriptor) Resources() (rva, size uint32, err error) { return c.directoryEntry(0x10) }

// StrongNameSignature returns the (RVA, size) of the strong name signature.
func (c COMDescriptor) StrongNameSignature() (rva, size uint32, err error) {
	return c.directoryEntry(0x18)
}

// CodeManagerTable returns the (RVA, size) of the code manager table,
// deprecated and normally zero.
func (c COMDescriptor) CodeManagerTable() (rva, size uint32, err error) {
	return c.directoryEntry(0x20)
}

// VTableFixups returns the (RVA, size) of the v-table fixup array.
func (c COMDescriptor) VTableFixups() (rva, size uint32, err error) { return c.directoryEntry(0x28) }

// ExportAddressTableJumps returns the (RVA, size) of the export address
// table jumps, deprecated and normally zero.
func (c COMDescriptor) ExportAddressTableJumps() (rva, size uint32, err error) {
	return c.directoryEntry(0x30)
}

// ManagedNativeHeader returns the (RVA, size) of the managed native
// header, reserved for future use.
func (c COMDescriptor) ManagedNativeHeader() (rva, size uint32, err error) {
	return c.directoryEntry(0x38)
}

func (c COMDescriptor) directoryEntry(fieldOffset uint32) (rva, size uint32, err error) {
	rva, err = c.bv.ReadUint32(c.offset + fieldOffset)
	if err != nil {
		return 0, 0, err
	}
	size, err = c.bv.ReadUint32(c.offset + fieldOffset + 4)
	return rva, size, err
}

// Flags returns the runtime behavior bit-flag set.
func (c COMDescriptor) Flags() (uint32, error) { return c.bv.ReadUint32(c.offset + 0x40) }

// EntryPointToken returns the metadata token of the entry point method.
// Valid only when Flags has ComImageFlagsNativeEntryPoint clear; otherwise
// the same field holds EntryPointRVA.
func (c COMDescriptor) EntryPointToken() (uint32, error) { return c.bv.ReadUint32(c.offset + 0x44) }

// EntryPointRVA returns the RVA of the native entry point. Valid only when
// Flags has ComImageFlagsNativeEntryPoint set.
func (c COMDescriptor) EntryPointRVA() (uint32, error) { return c.bv.ReadUint32(c.offset + 0x44) }
