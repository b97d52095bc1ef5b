// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// loadConfigLayout holds the bitness-dependent offsets of every field past
// CriticalSectionDefaultTimeout, the last field shared verbatim between
// PE32 and PE32+.
type loadConfigLayout struct {
	deCommitFreeBlockThreshold uint32
	deCommitTotalFreeThreshold uint32
	lockPrefixTable            uint32
	maximumAllocationSize      uint32
	virtualMemoryThreshold     uint32
	processAffinityMask        uint32
	processHeapFlags           uint32
	csdVersion                 uint32
	reserved1                  uint32
	editList                   uint32
	securityCookie             uint32
	sehHandlerTable            uint32
	sehHandlerCount            uint32
	guardCFCheckFunctionPtr    uint32
	reserved2                  uint32
	guardCFFunctionTable       uint32
	guardCFFunctionCount       uint32
	guardFlags                 uint32
}

var loadConfigLayout32 = loadConfigLayout{
	deCommitFreeBlockThreshold: 0x18, deCommitTotalFreeThreshold: 0x1C,
	lockPrefixTable: 0x20, maximumAllocationSize: 0x24,
	virtualMemoryThreshold: 0x28, processAffinityMask: 0x30,
	processHeapFlags: 0x2C, csdVersion: 0x34, reserved1: 0x36,
	editList: 0x38, securityCookie: 0x3C, sehHandlerTable: 0x40,
	sehHandlerCount: 0x44, guardCFCheckFunctionPtr: 0x48, reserved2: 0x4C,
	guardCFFunctionTable: 0x50, guardCFFunctionCount: 0x54, guardFlags: 0x58,
}

var loadConfigLayout64 = loadConfigLayout{
	deCommitFreeBlockThreshold: 0x18, deCommitTotalFreeThreshold: 0x20,
	lockPrefixTable: 0x28, maximumAllocationSize: 0x30,
	virtualMemoryThreshold: 0x38, processAffinityMask: 0x40,
	processHeapFlags: 0x48, csdVersion: 0x4C, reserved1: 0x4E,
	editList: 0x50, securityCookie: 0x58, sehHandlerTable: 0x60,
	sehHandlerCount: 0x68, guardCFCheckFunctionPtr: 0x70, reserved2: 0x78,
	guardCFFunctionTable: 0x80, guardCFFunctionCount: 0x88, guardFlags: 0x90,
}

// LoadConfigDirectory is the IMAGE_LOAD_CONFIG_DIRECTORY, bitness-
// polymorphic after CriticalSectionDefaultTimeout.
type LoadConfigDirectory struct {
	view
	is64 bool
}

func newLoadConfigDirectory(bv *ByteView, offset uint32, is64 bool) LoadConfigDirectory {
	return LoadConfigDirectory{view{bv: bv, offset: offset}, is64}
}

func (l LoadConfigDirectory) layout() loadConfigLayout {
	if l.is64 {
		return loadConfigLayout64
	}
	return loadConfigLayout32
}

func (l LoadConfigDirectory) readPointerSized(fieldOffset uint32) (uint64, error) {
	if l.is64 {
		return l.bv.ReadUint64(l.offset + fieldOffset)
	}
	v, err := l.bv.ReadUint32(l.offset + fieldOffset)
	return uint64(v), err
}

// Size returns the declared size of the structure, used by loaders to tell
// how many of the trailing Control Flow Guard fields are actually present.
func (l LoadConfigDirectory) Size() (uint32, error) { return l.bv.ReadUint32(l.offset + 0x00) }

// SetSize writes the declared structure size.
func (l LoadConfigDirectory) SetSize(v uint32) error { return l.bv.WriteUint32(l.offset+0x00, v) }

// TimeDateStamp returns the directory's creation timestamp.
func (l LoadConfigDirectory) TimeDateStamp() (uint32, error) { return l.bv.ReadUint32(l.offset + 0x04) }

// MajorVersion returns the major version number.
func (l LoadConfigDirectory) MajorVersion() (uint16, error) { return l.bv.ReadUint16(l.offset + 0x08) }

// MinorVersion returns the minor version number.
func (l LoadConfigDirectory) MinorVersion() (uint16, error) { return l.bv.ReadUint16(l.offset + 0x0A) }

// GlobalFlagsClear returns the global flags cleared at process creation.
func (l LoadConfigDirectory) GlobalFlagsClear() (uint32, error) { return l.bv.ReadUint32(l.offset + 0x0C) }

// GlobalFlagsSet returns the global flags set at process creation.
func (l LoadConfigDirectory) GlobalFlagsSet() (uint32, error) { return l.bv.ReadUint32(l.offset + 0x10) }

// CriticalSectionDefaultTimeout returns the default critical section
// timeout: the last field whose offset is identical in both bitnesses.
func (l LoadConfigDirectory) CriticalSectionDefaultTimeout() (uint32, error) {
	return l.bv.ReadUint32(l.offset + 0x14)
}

// DeCommitFreeBlockThreshold returns the minimum block size decommitted
// before being freed.
func (l LoadConfigDirectory) DeCommitFreeBlockThreshold() (uint64, error) {
	return l.readPointerSized(l.layout().deCommitFreeBlockThreshold)
}

// DeCommitTotalFreeThreshold returns the minimum total heap free size
// before blocks are decommitted.
func (l LoadConfigDirectory) DeCommitTotalFreeThreshold() (uint64, error) {
	return l.readPointerSized(l.layout().deCommitTotalFreeThreshold)
}

// LockPrefixTable returns the VA of the x86-only LOCK-prefix address list.
func (l LoadConfigDirectory) LockPrefixTable() (uint64, error) {
	return l.readPointerSized(l.layout().lockPrefixTable)
}

// MaximumAllocationSize returns the debugging-only maximum allocation size.
func (l LoadConfigDirectory) MaximumAllocationSize() (uint64, error) {
	return l.readPointerSized(l.layout().maximumAllocationSize)
}

// VirtualMemoryThreshold returns the maximum block size allocated from
// heap segments.
func (l LoadConfigDirectory) VirtualMemoryThreshold() (uint64, error) {
	return l.readPointerSized(l.layout().virtualMemoryThreshold)
}

// ProcessAffinityMask returns the CPU affinity mask.
func (l LoadConfigDirectory) ProcessAffinityMask() (uint64, error) {
	return l.readPointerSized(l.layout().processAffinityMask)
}

// ProcessHeapFlags returns the process heap flags.
func (l LoadConfigDirectory) ProcessHeapFlags() (uint32, error) {
	return l.bv.ReadUint32(l.offset + l.layout().processHeapFlags)
}

// CSDVersion returns the service pack version.
func (l LoadConfigDirectory) CSDVersion() (uint16, error) {
	return l.bv.ReadUint16(l.offset + l.layout().csdVersion)
}

// SecurityCookie returns the VA of the /GS buffer-overrun cookie.
func (l LoadConfigDirectory) SecurityCookie() (uint64, error) {
	return l.readPointerSized(l.layout().securityCookie)
}

// SEHandlerTable returns the VA of the x86-only sorted SEH handler table.
func (l LoadConfigDirectory) SEHandlerTable() (uint64, error) {
	return l.readPointerSized(l.layout().sehHandlerTable)
}

// SEHandlerCount returns the count of entries in SEHandlerTable.
func (l LoadConfigDirectory) SEHandlerCount() (uint64, error) {
	return l.readPointerSized(l.layout().sehHandlerCount)
}

// GuardCFCheckFunctionPointer returns the VA of the Control Flow Guard
// check-function thunk.
func (l LoadConfigDirectory) GuardCFCheckFunctionPointer() (uint64, error) {
	return l.readPointerSized(l.layout().guardCFCheckFunctionPtr)
}

// GuardCFFunctionTable returns the VA of the Control Flow Guard function
// table.
func (l LoadConfigDirectory) GuardCFFunctionTable() (uint64, error) {
	return l.readPointerSized(l.layout().guardCFFunctionTable)
}

// GuardCFFunctionCount returns the count of entries in GuardCFFunctionTable.
func (l LoadConfigDirectory) GuardCFFunctionCount() (uint64, error) {
	return l.readPointerSized(l.layout().guardCFFunctionCount)
}

// GuardFlags returns the Control Flow Guard behavior flags.
func (l LoadConfigDirectory) GuardFlags() (uint32, error) {
	return l.bv.ReadUint32(l.offset + l.layout().guardFlags)
}
