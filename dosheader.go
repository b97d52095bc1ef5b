// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// DOSHeader is a view anchored at file offset 0: the legacy MS-DOS stub
// header every PE file carries for backward compatibility with non-Windows
// loaders.
type DOSHeader struct {
	view
}

const dosHeaderSize = 0x40

func newDOSHeader(bv *ByteView) DOSHeader {
	return DOSHeader{view{bv: bv, offset: 0}}
}

// Magic returns e_magic, expected to be ImageDOSSignature ("MZ").
func (h DOSHeader) Magic() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x00) }

// SetMagic writes e_magic.
func (h DOSHeader) SetMagic(v uint16) error { return h.bv.WriteUint16(h.offset+0x00, v) }

// BytesOnLastPageOfFile returns e_cblp.
func (h DOSHeader) BytesOnLastPageOfFile() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x02) }

// PagesInFile returns e_cp.
func (h DOSHeader) PagesInFile() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x04) }

// Relocations returns e_crlc.
func (h DOSHeader) Relocations() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x06) }

// SizeOfHeaderInParagraphs returns e_cparhdr.
func (h DOSHeader) SizeOfHeaderInParagraphs() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x08) }

// MinExtraParagraphsNeeded returns e_minalloc.
func (h DOSHeader) MinExtraParagraphsNeeded() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x0A) }

// MaxExtraParagraphsNeeded returns e_maxalloc.
func (h DOSHeader) MaxExtraParagraphsNeeded() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x0C) }

// InitialSS returns e_ss.
func (h DOSHeader) InitialSS() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x0E) }

// InitialSP returns e_sp.
func (h DOSHeader) InitialSP() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x10) }

// Checksum returns e_csum.
func (h DOSHeader) Checksum() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x12) }

// InitialIP returns e_ip.
func (h DOSHeader) InitialIP() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x14) }

// InitialCS returns e_cs.
func (h DOSHeader) InitialCS() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x16) }

// AddressOfRelocationTable returns e_lfarlc.
func (h DOSHeader) AddressOfRelocationTable() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x18) }

// OverlayNumber returns e_ovno.
func (h DOSHeader) OverlayNumber() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x1A) }

// OEMIdentifier returns e_oemid.
func (h DOSHeader) OEMIdentifier() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x24) }

// OEMInformation returns e_oeminfo.
func (h DOSHeader) OEMInformation() (uint16, error) { return h.bv.ReadUint16(h.offset + 0x26) }

// AddressOfNewEXEHeader returns e_lfanew: the file offset of the NT header.
func (h DOSHeader) AddressOfNewEXEHeader() (uint32, error) { return h.bv.ReadUint32(h.offset + 0x3C) }

// SetAddressOfNewEXEHeader writes e_lfanew.
func (h DOSHeader) SetAddressOfNewEXEHeader(v uint32) error {
	return h.bv.WriteUint32(h.offset+0x3C, v)
}
