// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	resourceDirectorySize = 16
	resourceEntrySize     = 8

	resourceNameIsStringFlag = uint32(1) << 31
	resourceOffsetIsDirFlag  = uint32(1) << 31

	unknownResourceID = ^uint32(0)
)

// resourceTypeNames maps the well-known resource type IDs (1..24, with gaps
// at 13, 15 and 18) to their documented labels. All other IDs are "unknown".
var resourceTypeNames = map[uint32]string{
	1: "Cursor", 2: "Bitmap", 3: "Icon", 4: "Menu", 5: "Dialog",
	6: "String", 7: "FontDirectory", 8: "Font", 9: "Accelerator",
	10: "RcData", 11: "MessageTable", 12: "GroupCursor",
	14: "GroupIcon", 16: "Version", 17: "DlgInclude",
	19: "PlugAndPlay", 20: "VXD", 21: "AnimatedCursor",
	22: "AnimatedIcon", 23: "HTML", 24: "Manifest",
}

// ResourceIDLabel renders the well-known label for a resource type/name ID,
// or "unknown" if id does not name one of the documented resource types.
func ResourceIDLabel(id uint32) string {
	if name, ok := resourceTypeNames[id]; ok {
		return name
	}
	return "unknown"
}

// ResourceDirectory is one level of the three-level resource tree: Type,
// then Name/ID, then Language. All three levels share this same 16-byte
// header shape.
type ResourceDirectory struct {
	view
	rootOffset uint32
	rootLength uint32
}

// newResourceRoot constructs the tree's Type-level directory, anchored at
// the Resource Data Directory's own RVA translated to a file offset.
// rootLength is the declared size of the Resource Data Directory, used by
// the sanity checks applied at every level.
func newResourceRoot(bv *ByteView, offset, length uint32) ResourceDirectory {
	return ResourceDirectory{view: view{bv: bv, offset: offset}, rootOffset: offset, rootLength: length}
}

func (d ResourceDirectory) child(offset uint32) ResourceDirectory {
	return ResourceDirectory{view: view{bv: d.bv, offset: offset}, rootOffset: d.rootOffset, rootLength: d.rootLength}
}

// Characteristics is reserved and normally zero.
func (d ResourceDirectory) Characteristics() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x00) }

// TimeDateStamp returns the directory's creation timestamp.
func (d ResourceDirectory) TimeDateStamp() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x04) }

// MajorVersion returns the major version number.
func (d ResourceDirectory) MajorVersion() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x08) }

// MinorVersion returns the minor version number.
func (d ResourceDirectory) MinorVersion() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x0A) }

// NumberOfNameEntries returns the count of name-keyed entries, which sort
// before the id-keyed entries in the entry array.
func (d ResourceDirectory) NumberOfNameEntries() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x0C) }

// NumberOfIDEntries returns the count of integer-ID-keyed entries.
func (d ResourceDirectory) NumberOfIDEntries() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x0E) }

// ResourceEntry is one decoded (name-or-id, data/subdirectory) pair.
type ResourceEntry struct {
	IsNamedEntry bool
	Name         string
	ID           uint32
	DataIsDirectory bool
	offset       uint32 // offset_to_data's low 31 bits, relative to the resource root
}

// ResourceDataEntry is a leaf: the (RVA, size, codepage) descriptor for one
// resource's raw bytes.
type ResourceDataEntry struct {
	view
}

// DataRVA returns the RVA of the resource's raw data.
func (e ResourceDataEntry) DataRVA() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x00) }

// Size returns the size in bytes of the resource's raw data.
func (e ResourceDataEntry) Size() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x04) }

// CodePage returns the code page used to decode any text in the resource.
func (e ResourceDataEntry) CodePage() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x08) }

// valid applies the mandatory sanity checks to this directory record before
// any of its entries may be read: a malformed entry count, relative to the
// resource root's declared length, rejects the whole sibling set rather
// than risking an unbounded or out-of-window read.
func (d ResourceDirectory) valid() (bool, error) {
	nameCount, err := d.NumberOfNameEntries()
	if err != nil {
		return false, err
	}
	idCount, err := d.NumberOfIDEntries()
	if err != nil {
		return false, err
	}
	total := uint32(nameCount) + uint32(idCount)
	return total*10 <= d.rootLength, nil
}

// Entries decodes this directory's entry array, applying the mandatory
// sanity checks to each entry before it is returned. An entry that fails a
// check terminates enumeration of the remaining siblings, per the
// traversal invariant.
func (d ResourceDirectory) Entries() ([]ResourceEntry, error) {
	ok, err := d.valid()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidDataErr("ResourceDirectory.Entries", "entry count overflows resource directory window")
	}

	nameCount, err := d.NumberOfNameEntries()
	if err != nil {
		return nil, err
	}
	idCount, err := d.NumberOfIDEntries()
	if err != nil {
		return nil, err
	}
	total := uint32(nameCount) + uint32(idCount)

	entries := make([]ResourceEntry, 0, total)
	base := d.offset + resourceDirectorySize
	for i := uint32(0); i < total; i++ {
		entryOffset := base + i*resourceEntrySize
		nameOrID, err := d.bv.ReadUint32(entryOffset)
		if err != nil {
			return nil, err
		}
		offsetToData, err := d.bv.ReadUint32(entryOffset + 4)
		if err != nil {
			return nil, err
		}

		entry := ResourceEntry{
			DataIsDirectory: offsetToData&resourceOffsetIsDirFlag != 0,
			offset:          offsetToData &^ resourceOffsetIsDirFlag,
		}

		if nameOrID&resourceNameIsStringFlag != 0 {
			strOffset := d.rootOffset + (nameOrID &^ resourceNameIsStringFlag)
			if strOffset-d.rootOffset >= d.rootLength {
				return entries, nil
			}
			length, err := d.bv.ReadUint16(strOffset)
			if err != nil {
				return nil, err
			}
			name, err := d.bv.ReadUTF16String(strOffset+2, uint32(length))
			if err != nil {
				return nil, err
			}
			if name == "" {
				return entries, nil
			}
			entry.IsNamedEntry = true
			entry.Name = name
			entry.ID = unknownResourceID
		} else {
			if ResourceIDLabel(nameOrID) == "unknown" {
				return entries, nil
			}
			entry.ID = nameOrID
		}

		if entry.DataIsDirectory && entry.offset > d.rootLength {
			return entries, nil
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// Subdirectory descends into entry's nested directory record. The caller
// must have checked entry.DataIsDirectory first.
func (d ResourceDirectory) Subdirectory(entry ResourceEntry) ResourceDirectory {
	return d.child(d.rootOffset + entry.offset)
}

// DataEntry resolves entry's leaf data descriptor. The caller must have
// checked !entry.DataIsDirectory first.
func (d ResourceDirectory) DataEntry(entry ResourceEntry) ResourceDataEntry {
	return ResourceDataEntry{view{bv: d.bv, offset: d.rootOffset + entry.offset}}
}
