// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// TLSDirectory is the IMAGE_TLS_DIRECTORY, bitness-polymorphic in exactly
// the fields that are pointer-sized.
type TLSDirectory struct {
	view
	is64 bool
}

func newTLSDirectory(bv *ByteView, offset uint32, is64 bool) TLSDirectory {
	return TLSDirectory{view{bv: bv, offset: offset}, is64}
}

func (t TLSDirectory) pointerWidth() uint32 {
	if t.is64 {
		return 8
	}
	return 4
}

func (t TLSDirectory) readPointer(fieldOffset uint32) (uint64, error) {
	if t.is64 {
		return t.bv.ReadUint64(t.offset + fieldOffset)
	}
	v, err := t.bv.ReadUint32(t.offset + fieldOffset)
	return uint64(v), err
}

// StartAddressOfRawData returns the VA of the start of the TLS template.
func (t TLSDirectory) StartAddressOfRawData() (uint64, error) { return t.readPointer(0x00) }

// EndAddressOfRawData returns the VA of the end of the TLS template.
func (t TLSDirectory) EndAddressOfRawData() (uint64, error) { return t.readPointer(t.pointerWidth()) }

// AddressOfIndex returns the VA of the location the loader writes the
// assigned TLS index to.
func (t TLSDirectory) AddressOfIndex() (uint64, error) { return t.readPointer(2 * t.pointerWidth()) }

// AddressOfCallBacks returns the VA of the null-terminated TLS callback
// pointer array.
func (t TLSDirectory) AddressOfCallBacks() (uint64, error) { return t.readPointer(3 * t.pointerWidth()) }

// SizeOfZeroFill returns the size, in bytes, of the zero-fill region
// following the TLS template.
func (t TLSDirectory) SizeOfZeroFill() (uint32, error) {
	return t.bv.ReadUint32(t.offset + 4*t.pointerWidth())
}

// Characteristics returns the TLS directory's reserved characteristics
// bit field.
func (t TLSDirectory) Characteristics() (uint32, error) {
	return t.bv.ReadUint32(t.offset + 4*t.pointerWidth() + 4)
}

// Callbacks walks the null-terminated TLS callback pointer array and
// returns each callback's VA as stored. imageBase and sections are used to
// translate AddressOfCallBacks to a file offset; the pointer slots are then
// read consecutively from there.
func (t TLSDirectory) Callbacks(imageBase uint64, sections []SectionHeader) ([]uint64, error) {
	callbacksVA, err := t.AddressOfCallBacks()
	if err != nil {
		return nil, err
	}
	if callbacksVA == 0 {
		return nil, nil
	}

	offset, err := resolveVA(callbacksVA, imageBase, sections)
	if err != nil {
		return nil, err
	}

	var out []uint64
	width := t.pointerWidth()
	for i := uint32(0); ; i++ {
		o := offset + i*width
		var v uint64
		if t.is64 {
			v, err = t.bv.ReadUint64(o)
		} else {
			var v32 uint32
			v32, err = t.bv.ReadUint32(o)
			v = uint64(v32)
		}
		if err != nil {
			return nil, err
		}
		if v == 0 {
			break
		}
		out = append(out, v)
	}
	return out, nil
}
