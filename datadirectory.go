// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// DataDirectory is the fixed 16-slot table of (RVA, size) pairs nested at
// the end of the Optional Header. Each slot's meaning is determined purely
// by its index (see DirectoryEntry), not by any tag in the data itself.
type DataDirectory struct {
	view
}

const dataDirectoryEntrySize = 8

// slotOffset returns the byte offset of directory slot i.
func (d DataDirectory) slotOffset(i DirectoryEntry) uint32 {
	return d.offset + uint32(i)*dataDirectoryEntrySize
}

// VirtualAddress returns the RVA of directory slot i.
func (d DataDirectory) VirtualAddress(i DirectoryEntry) (uint32, error) {
	return d.bv.ReadUint32(d.slotOffset(i))
}

// Size returns the size in bytes of directory slot i.
func (d DataDirectory) Size(i DirectoryEntry) (uint32, error) {
	return d.bv.ReadUint32(d.slotOffset(i) + 4)
}

// SetEntry writes both fields of directory slot i.
func (d DataDirectory) SetEntry(i DirectoryEntry, rva, size uint32) error {
	if err := d.bv.WriteUint32(d.slotOffset(i), rva); err != nil {
		return err
	}
	return d.bv.WriteUint32(d.slotOffset(i)+4, size)
}

// Present reports whether slot i carries a non-zero RVA and size: the
// convention this library (and the format) uses to mean "this directory
// exists in the image".
func (d DataDirectory) Present(i DirectoryEntry) (bool, error) {
	rva, err := d.VirtualAddress(i)
	if err != nil {
		return false, err
	}
	size, err := d.Size(i)
	if err != nil {
		return false, err
	}
	return rva != 0 && size != 0, nil
}

// Entries returns all 16 (RVA, size) pairs in table order. Reading beyond
// a small NumberOfRvaAndSizes is well-defined: slots past the declared
// count still decode (typically as zero), they simply will not correspond
// to anything meaningful.
func (d DataDirectory) Entries() ([16]DirectoryEntryValue, error) {
	var out [16]DirectoryEntryValue
	for i := DirectoryEntry(0); i < numberOfDirectoryEntries; i++ {
		rva, err := d.VirtualAddress(i)
		if err != nil {
			return out, err
		}
		size, err := d.Size(i)
		if err != nil {
			return out, err
		}
		out[i] = DirectoryEntryValue{Kind: i, VirtualAddress: rva, Size: size}
	}
	return out, nil
}

// DirectoryEntryValue is a decoded snapshot of one Data Directory slot.
type DirectoryEntryValue struct {
	Kind           DirectoryEntry
	VirtualAddress uint32
	Size           uint32
}
