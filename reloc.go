// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// Base relocation entry types: the high 4 bits of each relocation word.
const (
	RelocationAbsolute = 0
	RelocationHigh     = 1
	RelocationLow      = 2
	RelocationHighLow  = 3
	RelocationHighAdj  = 4
	RelocationDir64    = 10
)

// relocationTypeNames renders the documented relocation type names; values
// 5 through 9 are machine-specific or reserved and fall through to
// "Unknown" along with anything past DIR64.
var relocationTypeNames = map[uint16]string{
	RelocationAbsolute: "ABSOLUTE",
	RelocationHigh:     "HIGH",
	RelocationLow:      "LOW",
	RelocationHighLow:  "HIGHLOW",
	RelocationHighAdj:  "HIGHADJ",
	RelocationDir64:    "DIR64",
}

// RelocationTypeName renders t's documented name, or "Unknown" for a
// machine-specific, reserved, or out-of-range type.
func RelocationTypeName(t uint16) string {
	if name, ok := relocationTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// RelocationEntry is one decoded 16-bit relocation word: a 4-bit type and
// a 12-bit offset relative to its block's VirtualAddress.
type RelocationEntry struct {
	Type   uint16
	Offset uint16
}

// RelocationBlock is one base relocation block: a page-relative
// VirtualAddress plus its list of type/offset entries.
type RelocationBlock struct {
	VirtualAddress uint32
	SizeOfBlock    uint32
	Entries        []RelocationEntry
}

const relocationBlockHeaderSize = 8

// ReadRelocationBlocks walks the base relocation directory at offset, sized
// directorySize bytes, decoding each block in turn. A block whose declared
// SizeOfBlock is smaller than the 8-byte header is rejected as invalid
// data; a block whose VirtualAddress and SizeOfBlock are both zero also
// ends the walk, mirroring real-world zero-padded directories.
func ReadRelocationBlocks(bv *ByteView, offset, directorySize uint32) ([]RelocationBlock, error) {
	var out []RelocationBlock
	end := offset + directorySize

	for cur := offset; cur < end; {
		if cur+relocationBlockHeaderSize > end {
			break
		}
		va, err := bv.ReadUint32(cur)
		if err != nil {
			return nil, err
		}
		size, err := bv.ReadUint32(cur + 4)
		if err != nil {
			return nil, err
		}
		if va == 0 && size == 0 {
			break
		}
		if size < relocationBlockHeaderSize || size > directorySize {
			return nil, invalidDataErr("ReadRelocationBlocks", "relocation block SizeOfBlock out of range")
		}

		entryCount := (size - relocationBlockHeaderSize) / 2
		entries := make([]RelocationEntry, 0, entryCount)
		for i := uint32(0); i < entryCount; i++ {
			word, err := bv.ReadUint16(cur + relocationBlockHeaderSize + i*2)
			if err != nil {
				return nil, err
			}
			entries = append(entries, RelocationEntry{
				Type:   word >> 12,
				Offset: word & 0x0FFF,
			})
		}

		out = append(out, RelocationBlock{VirtualAddress: va, SizeOfBlock: size, Entries: entries})
		cur += size
	}

	return out, nil
}
