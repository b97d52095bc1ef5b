// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func putUTF16(bv *ByteView, offset uint32, s string) {
	for i, r := range s {
		if err := bv.WriteUint16(offset+uint32(i)*2, uint16(r)); err != nil {
			panic(err)
		}
	}
}

func TestResourceDirectoryEntriesNameAndIDLeafAndSubdir(t *testing.T) {
	const rootLength = 0x200
	bv := NewByteView(make([]byte, rootLength))

	putU16(bv, 0x0C, 1) // NumberOfNameEntries
	putU16(bv, 0x0E, 1) // NumberOfIDEntries

	const nameStrOffset = 0x100
	const leafOffset = 0x150
	const subdirOffset = 0x180

	putU16(bv, nameStrOffset, 5)
	putUTF16(bv, nameStrOffset+2, "Hello")

	putU32(bv, leafOffset+0, 0x2000) // DataRVA
	putU32(bv, leafOffset+4, 0x10)   // Size
	putU32(bv, leafOffset+8, 0)      // CodePage

	// entry 0: named, leaf
	entryBase := uint32(resourceDirectorySize)
	putU32(bv, entryBase+0, resourceNameIsStringFlag|nameStrOffset)
	putU32(bv, entryBase+4, leafOffset)

	// entry 1: id, subdirectory. 16 ("Version") is one of the well-known
	// resource type IDs, so it survives the unknown-ID sanity check.
	putU32(bv, entryBase+8, 16)
	putU32(bv, entryBase+12, resourceOffsetIsDirFlag|subdirOffset)

	root := newResourceRoot(bv, 0, rootLength)
	entries, err := root.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	named := entries[0]
	if !named.IsNamedEntry || named.Name != "Hello" {
		t.Errorf("entries[0] = %+v, want IsNamedEntry=true Name=Hello", named)
	}
	if named.DataIsDirectory {
		t.Errorf("entries[0].DataIsDirectory = true, want false")
	}
	data := root.DataEntry(named)
	if rva, _ := data.DataRVA(); rva != 0x2000 {
		t.Errorf("DataRVA = 0x%x, want 0x2000", rva)
	}

	idEntry := entries[1]
	if idEntry.IsNamedEntry {
		t.Errorf("entries[1].IsNamedEntry = true, want false (XOR invariant)")
	}
	if idEntry.ID != 16 {
		t.Errorf("entries[1].ID = %d, want 16", idEntry.ID)
	}
	if !idEntry.DataIsDirectory {
		t.Fatalf("entries[1].DataIsDirectory = false, want true")
	}
	sub := root.Subdirectory(idEntry)
	if sub.Offset() != subdirOffset {
		t.Errorf("Subdirectory offset = %d, want %d", sub.Offset(), subdirOffset)
	}
}

func TestResourceDirectoryRejectsOverflowingEntryCount(t *testing.T) {
	const rootLength = 16 // deliberately tiny: 20 entries * 10 = 200 overflow it
	bv := NewByteView(make([]byte, 256))

	putU16(bv, 0x0C, 10)
	putU16(bv, 0x0E, 10)

	root := newResourceRoot(bv, 0, rootLength)
	_, err := root.Entries()
	if err == nil {
		t.Fatal("expected an invalid-data error when entry count overflows the directory window")
	}
}

func TestResourceDirectoryRejectsUnknownID(t *testing.T) {
	const rootLength = 0x200
	bv := NewByteView(make([]byte, rootLength))

	putU16(bv, 0x0C, 0) // NumberOfNameEntries
	putU16(bv, 0x0E, 2) // NumberOfIDEntries

	const leafOffset = 0x150

	putU32(bv, leafOffset+0, 0x2000) // DataRVA
	putU32(bv, leafOffset+4, 0x10)   // Size
	putU32(bv, leafOffset+8, 0)      // CodePage

	entryBase := uint32(resourceDirectorySize)

	// entry 0: id=6 ("String"), a well-known type, should survive.
	putU32(bv, entryBase+0, 6)
	putU32(bv, entryBase+4, leafOffset)

	// entry 1: id=42, not one of the documented 1..24 types, so
	// ResourceIDLabel reports "unknown" and this entry (and anything
	// after it) must be rejected, terminating sibling enumeration.
	putU32(bv, entryBase+8, 42)
	putU32(bv, entryBase+12, leafOffset)

	root := newResourceRoot(bv, 0, rootLength)
	entries, err := root.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 (unknown ID must stop enumeration)", len(entries))
	}
	if entries[0].ID != 6 {
		t.Errorf("entries[0].ID = %d, want 6", entries[0].ID)
	}
}

func TestResourceIDLabel(t *testing.T) {
	if got := ResourceIDLabel(3); got != "Icon" {
		t.Errorf("ResourceIDLabel(3) = %q, want Icon", got)
	}
	if got := ResourceIDLabel(13); got != "unknown" {
		t.Errorf("ResourceIDLabel(13) = %q, want unknown (documented gap)", got)
	}
	if got := ResourceIDLabel(999); got != "unknown" {
		t.Errorf("ResourceIDLabel(999) = %q, want unknown", got)
	}
}
