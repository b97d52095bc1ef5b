// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// TinyPESize is the smallest possible PE file, reproduced from the minimal
// Windows XP (x32) executable documented by the corkami PE research.
const TinyPESize = 97

// Sentinel errors surfaced by the facade.
var (
	// ErrInvalidPESize is returned when the input is smaller than the
	// smallest possible PE file.
	ErrInvalidPESize = newError(KindInvalidData, "New", errors.New("file too small to be a PE image"))

	// ErrDOSMagicNotFound is returned when the DOS signature is neither
	// "MZ" nor "ZM".
	ErrDOSMagicNotFound = newError(KindInvalidData, "Image.parse", errors.New("DOS header magic not found"))

	// ErrInvalidElfanewValue is returned when e_lfanew points outside the
	// file or before the signature it names.
	ErrInvalidElfanewValue = newError(KindInvalidData, "Image.parse", errors.New("invalid e_lfanew value"))

	// ErrNTSignatureNotFound is returned when the NT header signature is
	// not "PE\x00\x00".
	ErrNTSignatureNotFound = newError(KindInvalidData, "Image.parse", errors.New("PE signature not found"))

	// ErrOptionalHeaderMagicNotFound is returned when the Optional Header
	// magic is neither PE32 nor PE32+.
	ErrOptionalHeaderMagicNotFound = newError(KindInvalidData, "Image.parse", errors.New("optional header magic not found"))
)

// Image is the single entry point into a PE file: it owns the ByteView and
// hands out every header and directory view on demand. Nothing beyond the
// DOS/NT signature and Optional Header magic checks is parsed eagerly.
type Image struct {
	bv   *ByteView
	path string
}

// NewBytes wraps an in-memory buffer as an Image, validating only that the
// DOS and NT signatures are present and that the Optional Header magic
// selects a known bitness. The slice is not copied: mutations through the
// resulting Image's setters modify it in place.
func NewBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, invalidArgErr("NewBytes")
	}
	if len(data) < TinyPESize {
		return nil, ErrInvalidPESize
	}

	img := &Image{bv: NewByteView(data)}
	if err := img.validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// New reads path into memory (via a temporary memory mapping, copied into
// an owned, mutable buffer) and wraps it as an Image.
func New(path string) (*Image, error) {
	if path == "" {
		return nil, invalidArgErr("New")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr("New", err)
	}
	defer f.Close()

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, ioErr("New", err)
	}
	defer mapped.Unmap()

	owned := make([]byte, len(mapped))
	copy(owned, mapped)

	img, err := NewBytes(owned)
	if err != nil {
		return nil, err
	}
	img.path = path
	return img, nil
}

func (img *Image) validate() error {
	dos := img.DOSHeader()
	magic, err := dos.Magic()
	if err != nil {
		return err
	}
	if magic != ImageDOSSignature && magic != ImageDOSZMSignature {
		return ErrDOSMagicNotFound
	}

	lfanew, err := dos.AddressOfNewEXEHeader()
	if err != nil {
		return err
	}
	if lfanew < 4 || lfanew > img.bv.Len() {
		return ErrInvalidElfanewValue
	}

	nt := newNTHeader(img.bv, lfanew)
	sig, err := nt.Signature()
	if err != nil {
		return err
	}
	if sig != ImageNTSignature {
		return ErrNTSignatureNotFound
	}

	magic16, err := img.bv.ReadUint16(nt.magicOffset())
	if err != nil {
		return err
	}
	if magic16 != ImageNtOptionalHeader32Magic && magic16 != ImageNtOptionalHeader64Magic {
		return ErrOptionalHeaderMagicNotFound
	}

	return nil
}

// DOSHeader returns the DOS stub header view.
func (img *Image) DOSHeader() DOSHeader { return newDOSHeader(img.bv) }

// NTHeader returns the NT header view, anchored at e_lfanew.
func (img *Image) NTHeader() (NTHeader, error) {
	lfanew, err := img.DOSHeader().AddressOfNewEXEHeader()
	if err != nil {
		return NTHeader{}, err
	}
	return newNTHeader(img.bv, lfanew), nil
}

// FileHeader returns the COFF file header view.
func (img *Image) FileHeader() (FileHeader, error) {
	nt, err := img.NTHeader()
	if err != nil {
		return FileHeader{}, err
	}
	return nt.FileHeader(), nil
}

// OptionalHeader returns the bitness-selected Optional Header view.
func (img *Image) OptionalHeader() (OptionalHeader, error) {
	nt, err := img.NTHeader()
	if err != nil {
		return OptionalHeader{}, err
	}
	return nt.OptionalHeader()
}

// DataDirectory returns the 16-slot Data Directory table.
func (img *Image) DataDirectory() (DataDirectory, error) {
	oh, err := img.OptionalHeader()
	if err != nil {
		return DataDirectory{}, err
	}
	return oh.DataDirectory(), nil
}

// Is32Bit reports whether the Optional Header magic is PE32.
func (img *Image) Is32Bit() bool {
	oh, err := img.OptionalHeader()
	if err != nil {
		return false
	}
	return !oh.is64
}

// Is64Bit reports whether the Optional Header magic is PE32+.
func (img *Image) Is64Bit() bool {
	oh, err := img.OptionalHeader()
	if err != nil {
		return false
	}
	return oh.is64
}

// IsDLL reports whether FileHeader.Characteristics has ImageFileDLL set.
func (img *Image) IsDLL() bool {
	fh, err := img.FileHeader()
	if err != nil {
		return false
	}
	c, err := fh.Characteristics()
	if err != nil {
		return false
	}
	return c&ImageFileDLL != 0
}

// IsEXE reports whether FileHeader.Characteristics has ImageFileExecutableImage
// set and ImageFileDLL clear.
func (img *Image) IsEXE() bool {
	fh, err := img.FileHeader()
	if err != nil {
		return false
	}
	c, err := fh.Characteristics()
	if err != nil {
		return false
	}
	return c&ImageFileExecutableImage != 0 && c&ImageFileDLL == 0
}

// Sections returns the section-header vector, located immediately after
// the Optional Header.
func (img *Image) Sections() ([]SectionHeader, error) {
	fh, err := img.FileHeader()
	if err != nil {
		return nil, err
	}
	count, err := fh.NumberOfSections()
	if err != nil {
		return nil, err
	}
	oh, err := img.OptionalHeader()
	if err != nil {
		return nil, err
	}
	sizeOfOptionalHeader, err := fh.SizeOfOptionalHeader()
	if err != nil {
		return nil, err
	}
	return readSectionHeaders(img.bv, oh.end(sizeOfOptionalHeader), count)
}

// ResolveRVA translates rva to a raw file offset using this image's
// section-header vector.
func (img *Image) ResolveRVA(rva uint32) (uint32, error) {
	sections, err := img.Sections()
	if err != nil {
		return 0, err
	}
	return resolveRVA(rva, sections)
}

// ResolveVA translates a virtual address to a raw file offset by
// subtracting ImageBase and delegating to ResolveRVA.
func (img *Image) ResolveVA(va uint64) (uint32, error) {
	oh, err := img.OptionalHeader()
	if err != nil {
		return 0, err
	}
	base, err := oh.ImageBase()
	if err != nil {
		return 0, err
	}
	sections, err := img.Sections()
	if err != nil {
		return 0, err
	}
	return resolveVA(va, base, sections)
}

// directoryWindow resolves a Data Directory slot down to a raw file offset
// and size, applying the facade's option-like absence policy: a slot that
// is zeroed, or whose RVA no section contains, reports present=false with
// a nil error rather than surfacing a resolution error.
func (img *Image) directoryWindow(kind DirectoryEntry) (fileOffset, size uint32, present bool, err error) {
	dd, err := img.DataDirectory()
	if err != nil {
		return 0, 0, false, err
	}
	ok, err := dd.Present(kind)
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		return 0, 0, false, nil
	}

	rva, err := dd.VirtualAddress(kind)
	if err != nil {
		return 0, 0, false, err
	}
	size, err = dd.Size(kind)
	if err != nil {
		return 0, 0, false, err
	}

	off, err := img.ResolveRVA(rva)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind == KindResolution {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return off, size, true, nil
}

// Export returns the decoded export function list, or nil if the image has
// no Export Data Directory.
func (img *Image) Export() ([]ExportFunction, error) {
	off, size, present, err := img.directoryWindow(DirectoryEntryExport)
	if err != nil || !present {
		return nil, err
	}
	dd, err := img.DataDirectory()
	if err != nil {
		return nil, err
	}
	dirRVA, err := dd.VirtualAddress(DirectoryEntryExport)
	if err != nil {
		return nil, err
	}
	sections, err := img.Sections()
	if err != nil {
		return nil, err
	}
	return newExportDirectory(img.bv, off).Functions(sections, dirRVA, size)
}

// Imports returns the decoded import descriptor list, or nil if the image
// has no Import Data Directory.
func (img *Image) Imports() ([]ImportedModule, error) {
	off, _, present, err := img.directoryWindow(DirectoryEntryImport)
	if err != nil || !present {
		return nil, err
	}
	descriptors, err := readImportDescriptors(img.bv, off)
	if err != nil {
		return nil, err
	}

	oh, err := img.OptionalHeader()
	if err != nil {
		return nil, err
	}
	sections, err := img.Sections()
	if err != nil {
		return nil, err
	}
	_, iatSize, _, err := img.directoryWindow(DirectoryEntryIAT)
	if err != nil {
		return nil, err
	}

	modules := make([]ImportedModule, 0, len(descriptors))
	for _, d := range descriptors {
		m, err := d.Module(oh.Is64Bit(), sections, iatSize)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// DelayImports returns the decoded delay-load import descriptor list, or
// nil if the image has no Delay Import Data Directory.
func (img *Image) DelayImports() ([]DelayImportDescriptor, error) {
	off, _, present, err := img.directoryWindow(DirectoryEntryDelayImport)
	if err != nil || !present {
		return nil, err
	}
	return readDelayImportDescriptors(img.bv, off)
}

// Resources returns the root (Type-level) of the three-level resource
// directory tree, or ok=false if the image has no Resource Data Directory.
func (img *Image) Resources() (root ResourceDirectory, ok bool, err error) {
	off, size, present, err := img.directoryWindow(DirectoryEntryResource)
	if err != nil || !present {
		return ResourceDirectory{}, false, err
	}
	return newResourceRoot(img.bv, off, size), true, nil
}

// ExceptionTable returns the amd64 runtime-function table, or nil for a
// 32-bit image or one with no Exception Data Directory.
func (img *Image) ExceptionTable() ([]RuntimeFunction, error) {
	if img.Is32Bit() {
		return nil, nil
	}
	off, size, present, err := img.directoryWindow(DirectoryEntryException)
	if err != nil || !present {
		return nil, err
	}
	return ExceptionTable(img.bv, off, size)
}

// TLS returns the TLS directory view, or ok=false if the image has no TLS
// Data Directory.
func (img *Image) TLS() (tls TLSDirectory, ok bool, err error) {
	off, _, present, err := img.directoryWindow(DirectoryEntryTLS)
	if err != nil || !present {
		return TLSDirectory{}, false, err
	}
	return newTLSDirectory(img.bv, off, img.Is64Bit()), true, nil
}

// LoadConfig returns the Load Config directory view, or ok=false if the
// image has no Load Config Data Directory.
func (img *Image) LoadConfig() (lc LoadConfigDirectory, ok bool, err error) {
	off, _, present, err := img.directoryWindow(DirectoryEntryLoadConfig)
	if err != nil || !present {
		return LoadConfigDirectory{}, false, err
	}
	return newLoadConfigDirectory(img.bv, off, img.Is64Bit()), true, nil
}

// Relocations returns the decoded base relocation blocks, or nil if the
// image has no Base Relocation Data Directory.
func (img *Image) Relocations() ([]RelocationBlock, error) {
	off, size, present, err := img.directoryWindow(DirectoryEntryBaseReloc)
	if err != nil || !present {
		return nil, err
	}
	return ReadRelocationBlocks(img.bv, off, size)
}

// Debug returns the decoded debug directory entries, or nil if the image
// has no Debug Data Directory.
func (img *Image) Debug() ([]DebugDirectoryEntry, error) {
	off, size, present, err := img.directoryWindow(DirectoryEntryDebug)
	if err != nil || !present {
		return nil, err
	}
	return readDebugDirectoryEntries(img.bv, off, size), nil
}

// BoundImports returns the decoded bound import module list, or nil if the
// image has no Bound Import Data Directory.
func (img *Image) BoundImports() ([]BoundImportModule, error) {
	off, size, present, err := img.directoryWindow(DirectoryEntryBoundImport)
	if err != nil || !present {
		return nil, err
	}
	return readBoundImportModules(img.bv, off, size)
}

// Certificates returns the decoded certificate table. The Certificate Data
// Directory's RVA field is a raw file offset, so this accessor bypasses
// the RVA resolver entirely rather than going through directoryWindow.
func (img *Image) Certificates() ([]Certificate, error) {
	dd, err := img.DataDirectory()
	if err != nil {
		return nil, err
	}
	present, err := dd.Present(DirectoryEntryCertificate)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	fileOffset, err := dd.VirtualAddress(DirectoryEntryCertificate)
	if err != nil {
		return nil, err
	}
	size, err := dd.Size(DirectoryEntryCertificate)
	if err != nil {
		return nil, err
	}
	if fileOffset+size > img.bv.Len() {
		return nil, boundsErr("Image.Certificates")
	}
	return readCertificates(img.bv, fileOffset, size)
}

// CLRHeader returns the COM/CLR (.NET) header view, or ok=false if the
// image has no CLR Data Directory.
func (img *Image) CLRHeader() (hdr COMDescriptor, ok bool, err error) {
	off, _, present, err := img.directoryWindow(DirectoryEntryCLR)
	if err != nil || !present {
		return COMDescriptor{}, false, err
	}
	return newCOMDescriptor(img.bv, off), true, nil
}

// Bytes returns the current backing buffer of the image.
func (img *Image) Bytes() []byte { return img.bv.Bytes() }

// Save writes the current image bytes to the path the Image was opened
// from. It fails with invalid-argument if the Image was constructed from
// bytes rather than a path.
func (img *Image) Save() error {
	if img.path == "" {
		return invalidArgErr("Image.Save")
	}
	return img.SaveAs(img.path)
}

// SaveAs writes the current image bytes to path, truncating any existing
// file there.
func (img *Image) SaveAs(path string) error {
	if path == "" {
		return invalidArgErr("Image.SaveAs")
	}
	if err := os.WriteFile(path, img.bv.Bytes(), 0o644); err != nil {
		return ioErr("Image.SaveAs", err)
	}
	return nil
}
