// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const importDescriptorSize = 20

// ordinalFlag32 and ordinalFlag64 mark a thunk value as an import-by-ordinal
// rather than an RVA to a hint/name entry: the top bit of a 32- or 64-bit
// thunk, respectively.
const (
	ordinalFlag32 = uint64(1) << 31
	ordinalFlag64 = uint64(1) << 63
)

// ImportDescriptor is one 20-byte IMAGE_IMPORT_DESCRIPTOR.
type ImportDescriptor struct {
	view
}

func newImportDescriptor(bv *ByteView, offset uint32) ImportDescriptor {
	return ImportDescriptor{view{bv: bv, offset: offset}}
}

// ImportLookupTable returns the RVA of the Import Lookup Table (called
// OriginalFirstThunk in some references).
func (d ImportDescriptor) ImportLookupTable() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x00) }

// TimeDateStamp returns the descriptor's timestamp. It is ignored when
// deciding whether the descriptor list has ended.
func (d ImportDescriptor) TimeDateStamp() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x04) }

// ForwarderChain returns the index of the first forwarder chain entry, or
// -1 (as an unsigned 0xFFFFFFFF) if there are none.
func (d ImportDescriptor) ForwarderChain() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x08) }

// NameRVA returns the RVA of the imported DLL's ASCII name.
func (d ImportDescriptor) NameRVA() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x0C) }

// ImportAddressTable returns the RVA of the Import Address Table (called
// FirstThunk in some references): the slot the loader overwrites with
// resolved addresses.
func (d ImportDescriptor) ImportAddressTable() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x10) }

// SetImportAddressTable writes the Import Address Table RVA, at its own
// offset (0x10).
//
// A prior implementation this library is modeled on wrote this setter to
// the Name field's offset (0x0C) instead of its own; that bug is not
// reproduced here.
func (d ImportDescriptor) SetImportAddressTable(v uint32) error {
	return d.bv.WriteUint32(d.offset+0x10, v)
}

// isZero reports whether all four RVA fields of the descriptor are zero:
// the terminator condition for the descriptor array. TimeDateStamp plays no
// part in this check.
func (d ImportDescriptor) isZero() (bool, error) {
	ilt, err := d.ImportLookupTable()
	if err != nil {
		return false, err
	}
	chain, err := d.ForwarderChain()
	if err != nil {
		return false, err
	}
	name, err := d.NameRVA()
	if err != nil {
		return false, err
	}
	iat, err := d.ImportAddressTable()
	if err != nil {
		return false, err
	}
	return ilt == 0 && chain == 0 && name == 0 && iat == 0, nil
}

// ImportedFunction is one decoded thunk-table entry.
type ImportedFunction struct {
	Name        string
	Hint        uint16
	Ordinal     uint32
	ByOrdinal   bool
	ThunkRVA    uint32
	IATSlotOffset int64
}

// ImportedModule is one descriptor's worth of decoded DLL name and imported
// function list.
type ImportedModule struct {
	Name      string
	Functions []ImportedFunction
}

// readImportDescriptors walks the descriptor array at offset until it finds
// a zero terminator or runs off the end of the buffer.
func readImportDescriptors(bv *ByteView, offset uint32) ([]ImportDescriptor, error) {
	var out []ImportDescriptor
	for o := offset; ; o += importDescriptorSize {
		if o+importDescriptorSize > bv.Len() {
			return out, nil
		}
		d := newImportDescriptor(bv, o)
		zero, err := d.isZero()
		if err != nil {
			return nil, err
		}
		if zero {
			return out, nil
		}
		out = append(out, d)
	}
}

// Module decodes the DLL name and the full thunk table for a single import
// descriptor. is64 selects 4- vs 8-byte thunks; sections resolves RVAs;
// iatDirectorySize is the declared size of the IAT Data Directory window,
// used to express each function's IAT slot offset relative to it.
func (d ImportDescriptor) Module(is64 bool, sections []SectionHeader, iatDirectorySize uint32) (ImportedModule, error) {
	nameRVA, err := d.NameRVA()
	if err != nil {
		return ImportedModule{}, err
	}
	nameOffset, err := resolveRVA(nameRVA, sections)
	if err != nil {
		return ImportedModule{}, err
	}
	name, err := d.bv.ReadASCIIString(nameOffset)
	if err != nil {
		return ImportedModule{}, err
	}

	ilt, err := d.ImportLookupTable()
	if err != nil {
		return ImportedModule{}, err
	}
	iat, err := d.ImportAddressTable()
	if err != nil {
		return ImportedModule{}, err
	}

	thunkRVA := ilt
	if thunkRVA == 0 {
		thunkRVA = iat
	}
	if thunkRVA == 0 {
		return ImportedModule{Name: name}, nil
	}

	width := uint32(4)
	ordinalFlag := ordinalFlag32
	if is64 {
		width = 8
		ordinalFlag = ordinalFlag64
	}

	thunkOffset, err := resolveRVA(thunkRVA, sections)
	if err != nil {
		return ImportedModule{}, err
	}

	var functions []ImportedFunction
	for i := uint32(0); ; i++ {
		o := thunkOffset + i*width
		var value uint64
		if is64 {
			value, err = d.bv.ReadUint64(o)
		} else {
			var v32 uint32
			v32, err = d.bv.ReadUint32(o)
			value = uint64(v32)
		}
		if err != nil {
			return ImportedModule{}, err
		}
		if value == 0 {
			break
		}

		fn := ImportedFunction{
			ThunkRVA:      thunkRVA + i*width,
			IATSlotOffset: int64(iat) + int64(i*width) - int64(iatDirectorySize),
		}
		if value&ordinalFlag != 0 {
			fn.ByOrdinal = true
			if is64 {
				fn.Ordinal = uint32(value &^ ordinalFlag64)
			} else {
				fn.Ordinal = uint32(value &^ ordinalFlag32)
			}
		} else {
			entryRVA := uint32(value)
			entryOffset, err := resolveRVA(entryRVA, sections)
			if err != nil {
				return ImportedModule{}, err
			}
			hint, err := d.bv.ReadUint16(entryOffset)
			if err != nil {
				return ImportedModule{}, err
			}
			fnName, err := d.bv.ReadASCIIString(entryOffset + 2)
			if err != nil {
				return ImportedModule{}, err
			}
			fn.Hint = hint
			fn.Name = fnName
		}
		functions = append(functions, fn)
	}

	return ImportedModule{Name: name, Functions: functions}, nil
}

const delayImportDescriptorSize = 32

// DelayImportDescriptor is the single 32-byte delay-load import descriptor.
type DelayImportDescriptor struct {
	view
}

func newDelayImportDescriptor(bv *ByteView, offset uint32) DelayImportDescriptor {
	return DelayImportDescriptor{view{bv: bv, offset: offset}}
}

// Attributes returns the descriptor's attribute bit field.
func (d DelayImportDescriptor) Attributes() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x00) }

// DllNameRVA returns the RVA of the delay-loaded DLL's ASCII name.
func (d DelayImportDescriptor) DllNameRVA() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x04) }

// ModuleHandleRVA returns the RVA of the module handle slot the loader
// fills in once the DLL is loaded.
func (d DelayImportDescriptor) ModuleHandleRVA() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x08) }

// ImportAddressTableRVA returns the RVA of the delay-load IAT.
func (d DelayImportDescriptor) ImportAddressTableRVA() (uint32, error) {
	return d.bv.ReadUint32(d.offset + 0x0C)
}

// ImportNameTableRVA returns the RVA of the delay-load import name table.
func (d DelayImportDescriptor) ImportNameTableRVA() (uint32, error) {
	return d.bv.ReadUint32(d.offset + 0x10)
}

// BoundImportAddressTableRVA returns the RVA of the bound delay-load IAT.
func (d DelayImportDescriptor) BoundImportAddressTableRVA() (uint32, error) {
	return d.bv.ReadUint32(d.offset + 0x14)
}

// UnloadInformationTableRVA returns the RVA of the unload information table.
func (d DelayImportDescriptor) UnloadInformationTableRVA() (uint32, error) {
	return d.bv.ReadUint32(d.offset + 0x18)
}

// TimeDateStamp returns the delay-load descriptor's timestamp.
func (d DelayImportDescriptor) TimeDateStamp() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x1C) }

// isZero reports whether the four RVA fields used for termination are all
// zero, mirroring ImportDescriptor.isZero for descriptors that extend the
// list by convention rather than by a documented requirement.
func (d DelayImportDescriptor) isZero() (bool, error) {
	dll, err := d.DllNameRVA()
	if err != nil {
		return false, err
	}
	mod, err := d.ModuleHandleRVA()
	if err != nil {
		return false, err
	}
	iat, err := d.ImportAddressTableRVA()
	if err != nil {
		return false, err
	}
	int_, err := d.ImportNameTableRVA()
	if err != nil {
		return false, err
	}
	return dll == 0 && mod == 0 && iat == 0 && int_ == 0, nil
}

// readDelayImportDescriptors walks the delay-import descriptor array at
// offset until a zero terminator or the buffer end.
func readDelayImportDescriptors(bv *ByteView, offset uint32) ([]DelayImportDescriptor, error) {
	var out []DelayImportDescriptor
	for o := offset; ; o += delayImportDescriptorSize {
		if o+delayImportDescriptorSize > bv.Len() {
			return out, nil
		}
		d := newDelayImportDescriptor(bv, o)
		zero, err := d.isZero()
		if err != nil {
			return nil, err
		}
		if zero {
			return out, nil
		}
		out = append(out, d)
	}
}
