// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestReadRelocationBlocks(t *testing.T) {
	bv, _ := oneSectionView(0x1000)

	const dirOffset = 0x100
	// One block: VirtualAddress=0x1000, 2 entries -> SizeOfBlock = 8 + 2*2 = 12
	putU32(bv, dirOffset+0, 0x1000)
	putU32(bv, dirOffset+4, 12)
	putU16(bv, dirOffset+8, (uint16(RelocationHighLow)<<12)|0x010)
	putU16(bv, dirOffset+10, (uint16(RelocationDir64)<<12)|0x020)

	blocks, err := ReadRelocationBlocks(bv, dirOffset, 12)
	if err != nil {
		t.Fatalf("ReadRelocationBlocks failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	b := blocks[0]
	if b.VirtualAddress != 0x1000 || b.SizeOfBlock != 12 {
		t.Errorf("block = %+v, want VA=0x1000 Size=12", b)
	}
	if len(b.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(b.Entries))
	}
	if b.Entries[0].Type != RelocationHighLow || b.Entries[0].Offset != 0x010 {
		t.Errorf("Entries[0] = %+v, want Type=HIGHLOW Offset=0x010", b.Entries[0])
	}
	if b.Entries[1].Type != RelocationDir64 || b.Entries[1].Offset != 0x020 {
		t.Errorf("Entries[1] = %+v, want Type=DIR64 Offset=0x020", b.Entries[1])
	}

	// entries_count * 2 + 8 == SizeOfBlock invariant.
	if uint32(len(b.Entries))*2+8 != b.SizeOfBlock {
		t.Errorf("entries*2+8 = %d, want SizeOfBlock %d", len(b.Entries)*2+8, b.SizeOfBlock)
	}
}

func TestReadRelocationBlocksRejectsUndersizedBlock(t *testing.T) {
	bv, _ := oneSectionView(0x1000)
	const dirOffset = 0x100
	putU32(bv, dirOffset+0, 0x1000)
	putU32(bv, dirOffset+4, 4) // smaller than the 8-byte header

	_, err := ReadRelocationBlocks(bv, dirOffset, 8)
	if err == nil {
		t.Fatal("expected an invalid-data error for SizeOfBlock < 8")
	}
}

func TestReadRelocationBlocksZeroTerminator(t *testing.T) {
	bv, _ := oneSectionView(0x1000)
	const dirOffset = 0x100
	// A fully-zeroed block terminates iteration without error.
	blocks, err := ReadRelocationBlocks(bv, dirOffset, 64)
	if err != nil {
		t.Fatalf("ReadRelocationBlocks failed: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("len(blocks) = %d, want 0", len(blocks))
	}
}
