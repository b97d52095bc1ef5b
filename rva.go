// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// resolveRVA translates an image-relative virtual address to a raw file
// offset, given the section-header vector it must be checked against. The
// resolver does not assume sections are ordered by RVA; it scans.
//
// The primary pass looks for a section whose [VirtualAddress,
// VirtualAddress+VirtualSize) strictly contains rva. When nothing matches,
// a second pass walks the sections in reverse and accepts an rva that sits
// exactly at a section's upper bound, to tolerate the well-known pattern of
// addresses pointing one-past-the-end of a section.
func resolveRVA(rva uint32, sections []SectionHeader) (uint32, error) {
	if len(sections) == 0 {
		return 0, invalidArgErr("ResolveRVA")
	}

	for _, s := range sections {
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return rva - s.VirtualAddress + s.PointerToRawData, nil
		}
	}

	for i := len(sections) - 1; i >= 0; i-- {
		s := sections[i]
		if rva >= s.VirtualAddress && rva <= s.VirtualAddress+s.VirtualSize {
			return rva - s.VirtualAddress + s.PointerToRawData, nil
		}
	}

	return 0, resolutionErr("ResolveRVA")
}

// resolveVA translates a virtual address (image base + RVA) to a raw file
// offset by subtracting imageBase and delegating to resolveRVA.
func resolveVA(va uint64, imageBase uint64, sections []SectionHeader) (uint32, error) {
	if va < imageBase {
		return 0, invalidArgErr("ResolveVA")
	}
	return resolveRVA(uint32(va-imageBase), sections)
}
