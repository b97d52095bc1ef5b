// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestTLSDirectoryFields32(t *testing.T) {
	bv, _ := oneSectionView(0x1000)
	const dirOffset = 0x100
	tls := newTLSDirectory(bv, dirOffset, false)

	putU32(bv, dirOffset+0x00, 0x403000) // StartAddressOfRawData
	putU32(bv, dirOffset+0x04, 0x404000) // EndAddressOfRawData
	putU32(bv, dirOffset+0x08, 0x405000) // AddressOfIndex
	putU32(bv, dirOffset+0x0C, 0x406000) // AddressOfCallBacks
	putU32(bv, dirOffset+0x10, 0x20)     // SizeOfZeroFill
	putU32(bv, dirOffset+0x14, 0)        // Characteristics

	if v, err := tls.StartAddressOfRawData(); err != nil || v != 0x403000 {
		t.Errorf("StartAddressOfRawData = %v, %v; want 0x403000, nil", v, err)
	}
	if v, err := tls.AddressOfCallBacks(); err != nil || v != 0x406000 {
		t.Errorf("AddressOfCallBacks = %v, %v; want 0x406000, nil", v, err)
	}
	if v, err := tls.SizeOfZeroFill(); err != nil || v != 0x20 {
		t.Errorf("SizeOfZeroFill = %v, %v; want 0x20, nil", v, err)
	}
}

func TestTLSCallbacksWalk(t *testing.T) {
	bv, sections := oneSectionView(0x4000)
	const dirOffset = 0x100
	const imageBase = 0x400000
	const callbackArrayRVA = 0x2000

	const callbackArrayFileOffset = callbackArrayRVA - 0x1000

	tls := newTLSDirectory(bv, dirOffset, false)
	putU32(bv, dirOffset+0x0C, imageBase+callbackArrayRVA)

	putU32(bv, callbackArrayFileOffset+0, imageBase+0x1500)
	putU32(bv, callbackArrayFileOffset+4, imageBase+0x1600)
	putU32(bv, callbackArrayFileOffset+8, 0) // terminator

	cbs, err := tls.Callbacks(imageBase, sections)
	if err != nil {
		t.Fatalf("Callbacks failed: %v", err)
	}
	if len(cbs) != 2 || cbs[0] != imageBase+0x1500 || cbs[1] != imageBase+0x1600 {
		t.Errorf("Callbacks = %v, want [0x401500, 0x401600]", cbs)
	}
}

func TestTLSCallbacksAbsentWhenZero(t *testing.T) {
	bv, sections := oneSectionView(0x1000)
	tls := newTLSDirectory(bv, 0x100, false)
	cbs, err := tls.Callbacks(0x400000, sections)
	if err != nil {
		t.Fatalf("Callbacks failed: %v", err)
	}
	if cbs != nil {
		t.Errorf("Callbacks = %v, want nil", cbs)
	}
}
