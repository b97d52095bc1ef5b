// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

// oneSectionView builds a buffer of size length with a single section
// spanning the whole file 1:1 mapped from RVA 0x1000, so fileOffset =
// rva - 0x1000.
func oneSectionView(length uint32) (*ByteView, []SectionHeader) {
	bv := NewByteView(make([]byte, length))
	sections := []SectionHeader{
		{VirtualAddress: 0x1000, VirtualSize: length, PointerToRawData: 0},
	}
	return bv, sections
}

func putU32(bv *ByteView, offset uint32, v uint32) {
	if err := bv.WriteUint32(offset, v); err != nil {
		panic(err)
	}
}

func putU16(bv *ByteView, offset uint32, v uint16) {
	if err := bv.WriteUint16(offset, v); err != nil {
		panic(err)
	}
}

func putString(bv *ByteView, offset uint32, s string) {
	if err := bv.WriteBytes(offset, append([]byte(s), 0)); err != nil {
		panic(err)
	}
}

func TestExportFunctionEnumerationAndNameBinding(t *testing.T) {
	bv, sections := oneSectionView(0x1000)

	const exportDirOffset = 0x100
	const funcTableOffset = 0x200
	const nameTableOffset = 0x220
	const ordTableOffset = 0x230
	const stringsOffset = 0x300

	e := newExportDirectory(bv, exportDirOffset)
	putU32(bv, exportDirOffset+0x10, 1) // Base
	putU32(bv, exportDirOffset+0x14, 3) // NumberOfFunctions
	putU32(bv, exportDirOffset+0x18, 2) // NumberOfNames
	putU32(bv, exportDirOffset+0x1C, funcTableOffset+0x1000)
	putU32(bv, exportDirOffset+0x20, nameTableOffset+0x1000)
	putU32(bv, exportDirOffset+0x24, ordTableOffset+0x1000)

	putU32(bv, funcTableOffset+0, 0x1400)
	putU32(bv, funcTableOffset+4, 0x1410)
	putU32(bv, funcTableOffset+8, 0x1420)

	putString(bv, stringsOffset, "FuncA")
	putString(bv, stringsOffset+8, "FuncB")
	putU32(bv, nameTableOffset+0, stringsOffset+0x1000)
	putU32(bv, nameTableOffset+4, stringsOffset+8+0x1000)

	putU16(bv, ordTableOffset+0, 0)
	putU16(bv, ordTableOffset+2, 2)

	functions, err := e.Functions(sections, 0 /* dirRVA */, 0 /* dirSize: no forward window */)
	if err != nil {
		t.Fatalf("Functions failed: %v", err)
	}
	if len(functions) != 3 {
		t.Fatalf("len(functions) = %d, want 3", len(functions))
	}

	if functions[0].Name != "FuncA" || functions[0].Ordinal != 1 || functions[0].RVA != 0x1400 {
		t.Errorf("functions[0] = %+v, want Name=FuncA Ordinal=1 RVA=0x1400", functions[0])
	}
	if functions[1].Name != "" || functions[1].Ordinal != 2 {
		t.Errorf("functions[1] = %+v, want empty name, ordinal=2", functions[1])
	}
	if functions[2].Name != "FuncB" || functions[2].Ordinal != 3 || functions[2].RVA != 0x1420 {
		t.Errorf("functions[2] = %+v, want Name=FuncB Ordinal=3 RVA=0x1420", functions[2])
	}
}

func TestExportForwardedFunction(t *testing.T) {
	bv, sections := oneSectionView(0x1000)

	const exportDirOffset = 0x100
	const funcTableOffset = 0x200
	const nameTableOffset = 0x220
	const ordTableOffset = 0x230
	const forwardStringOffset = 0x280
	const nameStringOffset = 0x2C0

	e := newExportDirectory(bv, exportDirOffset)
	putU32(bv, exportDirOffset+0x10, 0) // Base
	putU32(bv, exportDirOffset+0x14, 1) // NumberOfFunctions
	putU32(bv, exportDirOffset+0x18, 1) // NumberOfNames
	putU32(bv, exportDirOffset+0x1C, funcTableOffset+0x1000)
	putU32(bv, exportDirOffset+0x20, nameTableOffset+0x1000)
	putU32(bv, exportDirOffset+0x24, ordTableOffset+0x1000)

	// Forwarding is detected while names are bound, so the function is
	// given a name that binds to ordinal index 0.
	putString(bv, nameStringOffset, "AllocHeap")
	putU32(bv, nameTableOffset+0, nameStringOffset+0x1000)
	putU16(bv, ordTableOffset+0, 0)

	// The function's RVA points inside the export directory's own window,
	// which is how a forwarded export is recognized: the target is a
	// string, not code.
	forwardRVA := uint32(forwardStringOffset + 0x1000)
	putU32(bv, funcTableOffset+0, forwardRVA)
	putString(bv, forwardStringOffset, "NTDLL.RtlAllocateHeap")

	dirRVA := uint32(exportDirOffset + 0x1000)
	dirSize := uint32(0x300)

	functions, err := e.Functions(sections, dirRVA, dirSize)
	if err != nil {
		t.Fatalf("Functions failed: %v", err)
	}
	if len(functions) != 1 {
		t.Fatalf("len(functions) = %d, want 1", len(functions))
	}
	if !functions[0].IsForwarded {
		t.Fatalf("functions[0].IsForwarded = false, want true")
	}
	if functions[0].ForwardedName != "NTDLL.RtlAllocateHeap" {
		t.Errorf("ForwardedName = %q, want %q", functions[0].ForwardedName, "NTDLL.RtlAllocateHeap")
	}
}

func TestExportNoFunctions(t *testing.T) {
	bv, sections := oneSectionView(0x1000)
	e := newExportDirectory(bv, 0x100)
	// AddressOfFunctions left at zero.
	functions, err := e.Functions(sections, 0, 0)
	if err != nil {
		t.Fatalf("Functions failed: %v", err)
	}
	if functions != nil {
		t.Errorf("Functions = %v, want nil for a zero AddressOfFunctions", functions)
	}
}
