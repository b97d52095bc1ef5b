// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const boundImportDescriptorSize = 8

// BoundImportDescriptor is one 8-byte IMAGE_BOUND_IMPORT_DESCRIPTOR,
// followed in the file by NumberOfModuleForwarderRefs 8-byte forwarder
// reference records of the same shape.
type BoundImportDescriptor struct {
	view
}

func newBoundImportDescriptor(bv *ByteView, offset uint32) BoundImportDescriptor {
	return BoundImportDescriptor{view{bv: bv, offset: offset}}
}

// TimeDateStamp returns the descriptor's timestamp, used by the loader to
// decide whether the binding is stale.
func (d BoundImportDescriptor) TimeDateStamp() (uint32, error) { return d.bv.ReadUint32(d.offset + 0x00) }

// OffsetModuleName returns the offset, relative to the start of the Bound
// Import Data Directory, of the bound module's ASCII name.
func (d BoundImportDescriptor) OffsetModuleName() (uint16, error) { return d.bv.ReadUint16(d.offset + 0x04) }

// NumberOfModuleForwarderRefs returns the count of forwarder reference
// records immediately following this descriptor.
func (d BoundImportDescriptor) NumberOfModuleForwarderRefs() (uint16, error) {
	return d.bv.ReadUint16(d.offset + 0x06)
}

// isZero reports whether this record is the all-zero terminator.
func (d BoundImportDescriptor) isZero() (bool, error) {
	ts, err := d.TimeDateStamp()
	if err != nil {
		return false, err
	}
	off, err := d.OffsetModuleName()
	if err != nil {
		return false, err
	}
	refs, err := d.NumberOfModuleForwarderRefs()
	if err != nil {
		return false, err
	}
	return ts == 0 && off == 0 && refs == 0, nil
}

// BoundImportModule pairs a decoded descriptor with its module name and
// skips over its forwarder reference records.
type BoundImportModule struct {
	Descriptor BoundImportDescriptor
	Name       string
}

// readBoundImportModules walks the Bound Import Data Directory at offset,
// decoding each descriptor's module name and skipping its forwarder
// reference records, until the zero terminator or the directory end.
func readBoundImportModules(bv *ByteView, directoryOffset, directorySize uint32) ([]BoundImportModule, error) {
	end := directoryOffset + directorySize
	var out []BoundImportModule

	cur := directoryOffset
	for cur+boundImportDescriptorSize <= end {
		d := newBoundImportDescriptor(bv, cur)
		zero, err := d.isZero()
		if err != nil {
			return nil, err
		}
		if zero {
			break
		}

		nameOff, err := d.OffsetModuleName()
		if err != nil {
			return nil, err
		}
		name, err := bv.ReadASCIIString(directoryOffset + uint32(nameOff))
		if err != nil {
			return nil, err
		}

		refs, err := d.NumberOfModuleForwarderRefs()
		if err != nil {
			return nil, err
		}

		out = append(out, BoundImportModule{Descriptor: d, Name: name})
		cur += boundImportDescriptorSize + uint32(refs)*boundImportDescriptorSize
	}

	return out, nil
}
