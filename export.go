// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const exportDirectorySize = 0x28

// ExportDirectory is the IMAGE_EXPORT_DIRECTORY header: the entry point
// into a module's exported function, name and ordinal tables.
type ExportDirectory struct {
	view
}

func newExportDirectory(bv *ByteView, offset uint32) ExportDirectory {
	return ExportDirectory{view{bv: bv, offset: offset}}
}

// Characteristics is reserved and normally zero.
func (e ExportDirectory) Characteristics() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x00) }

// TimeDateStamp returns the export table's creation timestamp.
func (e ExportDirectory) TimeDateStamp() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x04) }

// MajorVersion returns the major version number.
func (e ExportDirectory) MajorVersion() (uint16, error) { return e.bv.ReadUint16(e.offset + 0x08) }

// MinorVersion returns the minor version number.
func (e ExportDirectory) MinorVersion() (uint16, error) { return e.bv.ReadUint16(e.offset + 0x0A) }

// NameRVA returns the RVA of the module's own name string (e.g. "foo.dll").
func (e ExportDirectory) NameRVA() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x0C) }

// Base returns the starting ordinal number for exports in this table.
func (e ExportDirectory) Base() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x10) }

// NumberOfFunctions returns the size of the AddressOfFunctions table.
func (e ExportDirectory) NumberOfFunctions() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x14) }

// NumberOfNames returns the size of the AddressOfNames/AddressOfNameOrdinals
// tables. It is always ≤ NumberOfFunctions.
func (e ExportDirectory) NumberOfNames() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x18) }

// AddressOfFunctions returns the RVA of the export address table.
func (e ExportDirectory) AddressOfFunctions() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x1C) }

// AddressOfNames returns the RVA of the export name pointer table.
func (e ExportDirectory) AddressOfNames() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x20) }

// AddressOfNameOrdinals returns the RVA of the export ordinal table.
func (e ExportDirectory) AddressOfNameOrdinals() (uint32, error) { return e.bv.ReadUint32(e.offset + 0x24) }

// ExportFunction is one decoded entry of the export function table, after
// the optional name-binding pass has run.
type ExportFunction struct {
	Name          string
	RVA           uint32
	Ordinal       uint32
	IsForwarded   bool
	ForwardedName string
}

// Functions enumerates every exported function, binding names and detecting
// forwarded exports along the way. sections resolves RVAs to file offsets;
// dirRVA and dirSize describe the Export Data Directory's own (RVA, size)
// window, used to tell an ordinary code RVA from a forwarder string RVA.
// Forwarding is checked while names are bound, so only functions that
// receive a name can be reported as forwarded.
func (e ExportDirectory) Functions(sections []SectionHeader, dirRVA, dirSize uint32) ([]ExportFunction, error) {
	addrOfFunctions, err := e.AddressOfFunctions()
	if err != nil {
		return nil, err
	}
	if addrOfFunctions == 0 {
		return nil, nil
	}

	numFunctions, err := e.NumberOfFunctions()
	if err != nil {
		return nil, err
	}
	numNames, err := e.NumberOfNames()
	if err != nil {
		return nil, err
	}
	base, err := e.Base()
	if err != nil {
		return nil, err
	}

	funcTableOffset, err := resolveRVA(addrOfFunctions, sections)
	if err != nil {
		return nil, err
	}

	functions := make([]ExportFunction, numFunctions)
	for i := uint32(0); i < numFunctions; i++ {
		rva, err := e.bv.ReadUint32(funcTableOffset + 4*i)
		if err != nil {
			return nil, err
		}
		functions[i] = ExportFunction{RVA: rva, Ordinal: base + i}
	}

	if numNames == 0 {
		return functions, nil
	}

	addrOfNameOrdinals, err := e.AddressOfNameOrdinals()
	if err != nil {
		return nil, err
	}
	nameOrdOffset, err := resolveRVA(addrOfNameOrdinals, sections)
	if err != nil {
		return nil, err
	}
	addrOfNames, err := e.AddressOfNames()
	if err != nil {
		return nil, err
	}
	nameOffset, err := resolveRVA(addrOfNames, sections)
	if err != nil {
		return nil, err
	}

	for j := uint32(0); j < numNames; j++ {
		namePtr, err := e.bv.ReadUint32(nameOffset + 4*j)
		if err != nil {
			return nil, err
		}
		nameFileOffset, err := resolveRVA(namePtr, sections)
		if err != nil {
			return nil, err
		}
		name, err := e.bv.ReadASCIIString(nameFileOffset)
		if err != nil {
			return nil, err
		}

		ordIndex, err := e.bv.ReadUint16(nameOrdOffset + 2*j)
		if err != nil {
			return nil, err
		}
		if uint32(ordIndex) >= numFunctions {
			continue
		}

		fn := &functions[ordIndex]
		fn.Name = name

		if dirSize > 0 && fn.RVA >= dirRVA && fn.RVA < dirRVA+dirSize {
			forwardedOffset, err := resolveRVA(fn.RVA, sections)
			if err != nil {
				return nil, err
			}
			forwarded, err := e.bv.ReadASCIIString(forwardedOffset)
			if err != nil {
				return nil, err
			}
			fn.IsForwarded = true
			fn.ForwardedName = forwarded
		}
	}

	return functions, nil
}
