// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"os"
	"path/filepath"
	"testing"
)

// buildMinimalPE32 constructs a byte-accurate, minimal well-formed PE32
// image: DOS stub, NT header, a single zeroed data directory table, and one
// ".text" section. No directory slots are populated, so every directory
// accessor should report absence rather than error.
func buildMinimalPE32(t *testing.T) []byte {
	t.Helper()

	const (
		ntOffset   = 0x80
		fileHdr    = ntOffset + 4
		optHdr     = fileHdr + fileHeaderSize
		sizeOfOpt  = 0x60 + 16*8
		sectionHdr = optHdr + sizeOfOpt
		fileSize   = 0x400
	)

	bv := NewByteView(make([]byte, fileSize))

	putU16(bv, 0x00, ImageDOSSignature)
	putU32(bv, 0x3C, ntOffset)

	putU32(bv, ntOffset, ImageNTSignature)

	putU16(bv, fileHdr+0x00, ImageFileMachineI386)
	putU16(bv, fileHdr+0x02, 1) // NumberOfSections
	putU16(bv, fileHdr+0x10, uint16(sizeOfOpt))
	putU16(bv, fileHdr+0x12, ImageFileExecutableImage|ImageFile32BitMachine)

	putU16(bv, optHdr+0x00, ImageNtOptionalHeader32Magic)
	putU32(bv, optHdr+0x1C, 0x400000) // ImageBase
	putU32(bv, optHdr+0x5C, 16)       // NumberOfRvaAndSizes

	copy(bv.data[sectionHdr:], ".text\x00\x00\x00")
	putU32(bv, sectionHdr+8, 0x1000)  // VirtualSize
	putU32(bv, sectionHdr+12, 0x1000) // VirtualAddress
	putU32(bv, sectionHdr+16, 0x200)  // SizeOfRawData
	putU32(bv, sectionHdr+20, 0x200)  // PointerToRawData
	putU32(bv, sectionHdr+36, ImageScnCntCode|ImageScnMemExecute|ImageScnMemRead)

	return bv.Bytes()
}

// buildMinimalPE32WithDirectorySlots is buildMinimalPE32 generalized to an
// arbitrary Data Directory slot count, to exercise images whose
// SizeOfOptionalHeader does not carry the full 16-slot table.
func buildMinimalPE32WithDirectorySlots(t *testing.T, numSlots uint32) []byte {
	t.Helper()

	const (
		ntOffset = 0x80
		fileHdr  = ntOffset + 4
		optHdr   = fileHdr + fileHeaderSize
	)
	sizeOfOpt := 0x60 + numSlots*8
	sectionHdr := optHdr + sizeOfOpt
	const fileSize = 0x400

	bv := NewByteView(make([]byte, fileSize))

	putU16(bv, 0x00, ImageDOSSignature)
	putU32(bv, 0x3C, ntOffset)

	putU32(bv, ntOffset, ImageNTSignature)

	putU16(bv, fileHdr+0x00, ImageFileMachineI386)
	putU16(bv, fileHdr+0x02, 1) // NumberOfSections
	putU16(bv, fileHdr+0x10, uint16(sizeOfOpt))
	putU16(bv, fileHdr+0x12, ImageFileExecutableImage|ImageFile32BitMachine)

	putU16(bv, optHdr+0x00, ImageNtOptionalHeader32Magic)
	putU32(bv, optHdr+0x1C, 0x400000) // ImageBase
	putU32(bv, optHdr+0x5C, numSlots) // NumberOfRvaAndSizes

	copy(bv.data[sectionHdr:], ".text\x00\x00\x00")
	putU32(bv, sectionHdr+8, 0x1000)  // VirtualSize
	putU32(bv, sectionHdr+12, 0x1000) // VirtualAddress
	putU32(bv, sectionHdr+16, 0x200)  // SizeOfRawData
	putU32(bv, sectionHdr+20, 0x200)  // PointerToRawData
	putU32(bv, sectionHdr+36, ImageScnCntCode|ImageScnMemExecute|ImageScnMemRead)

	return bv.Bytes()
}

// TestNewBytesNonFullOptionalHeader guards against assuming the Data
// Directory always carries its full 16 slots: the section-header vector
// must be located from FileHeader.SizeOfOptionalHeader, not a hardcoded
// 16*8 offset past the Optional Header's fixed fields.
func TestNewBytesNonFullOptionalHeader(t *testing.T) {
	data := buildMinimalPE32WithDirectorySlots(t, 8)

	img, err := NewBytes(data)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}

	sections, err := img.Sections()
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	if len(sections) != 1 || sections[0].NameString() != ".text" {
		t.Fatalf("Sections = %+v, want one .text section", sections)
	}
	if sections[0].VirtualAddress != 0x1000 {
		t.Errorf("section VirtualAddress = 0x%x, want 0x1000", sections[0].VirtualAddress)
	}
}

func TestNewBytesMinimalPE32(t *testing.T) {
	data := buildMinimalPE32(t)

	img, err := NewBytes(data)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	if !img.Is32Bit() || img.Is64Bit() {
		t.Errorf("Is32Bit/Is64Bit = %v/%v, want true/false", img.Is32Bit(), img.Is64Bit())
	}
	if !img.IsEXE() || img.IsDLL() {
		t.Errorf("IsEXE/IsDLL = %v/%v, want true/false", img.IsEXE(), img.IsDLL())
	}

	sections, err := img.Sections()
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	if len(sections) != 1 || sections[0].NameString() != ".text" {
		t.Fatalf("Sections = %+v, want one .text section", sections)
	}
}

func TestImageEmptyDirectoriesAreAbsentNotError(t *testing.T) {
	data := buildMinimalPE32(t)
	img, err := NewBytes(data)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}

	exports, err := img.Export()
	if err != nil {
		t.Fatalf("Export on an empty directory returned an error: %v", err)
	}
	if exports != nil {
		t.Errorf("Export = %v, want nil", exports)
	}

	_, ok, err := img.TLS()
	if err != nil {
		t.Fatalf("TLS on an empty directory returned an error: %v", err)
	}
	if ok {
		t.Errorf("TLS ok = true, want false")
	}
}

func TestNewBytesRejectsTooSmall(t *testing.T) {
	_, err := NewBytes(make([]byte, 10))
	if err == nil {
		t.Fatal("expected an error for a file smaller than TinyPESize")
	}
}

func TestNewBytesRejectsBadMagic(t *testing.T) {
	data := buildMinimalPE32(t)
	data[0] = 'X'
	_, err := NewBytes(data)
	if err == nil {
		t.Fatal("expected an error for a bad DOS signature")
	}
}

func TestImageSaveAsRoundTrip(t *testing.T) {
	data := buildMinimalPE32(t)
	img, err := NewBytes(data)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}

	oh, err := img.OptionalHeader()
	if err != nil {
		t.Fatalf("OptionalHeader failed: %v", err)
	}
	if err := oh.SetAddressOfEntryPoint(0x1234); err != nil {
		t.Fatalf("SetAddressOfEntryPoint failed: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.exe")
	if err := img.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(saved) != string(img.Bytes()) {
		t.Fatal("saved bytes do not match the in-memory image")
	}

	reloaded, err := NewBytes(saved)
	if err != nil {
		t.Fatalf("reloading saved bytes failed: %v", err)
	}
	reloadedOH, err := reloaded.OptionalHeader()
	if err != nil {
		t.Fatalf("OptionalHeader on reloaded image failed: %v", err)
	}
	ep, err := reloadedOH.AddressOfEntryPoint()
	if err != nil {
		t.Fatalf("AddressOfEntryPoint failed: %v", err)
	}
	if ep != 0x1234 {
		t.Errorf("AddressOfEntryPoint after reload = 0x%x, want 0x1234", ep)
	}
}
