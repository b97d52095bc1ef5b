// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// Fuzz is a go-fuzz entry point exercising every directory accessor on
// arbitrary input, so a malformed file can only ever surface as a returned
// error, never a panic.
func Fuzz(data []byte) int {
	img, err := NewBytes(data)
	if err != nil {
		return 0
	}

	_, _ = img.Sections()
	_, _ = img.Export()
	_, _ = img.Imports()
	_, _ = img.DelayImports()
	_, _ = img.Relocations()
	_, _ = img.Debug()
	_, _ = img.BoundImports()
	_, _ = img.Certificates()
	_, _, _ = img.TLS()
	_, _, _ = img.LoadConfig()
	_, _, _ = img.CLRHeader()
	_, _ = img.ExceptionTable()

	root, ok, err := img.Resources()
	if err == nil && ok {
		walkResourcesForFuzz(root, 0)
	}

	return 1
}

// walkResourcesForFuzz descends the resource tree up to its documented
// three-level depth, surfacing any traversal error as a non-panicking
// return rather than letting it propagate.
func walkResourcesForFuzz(dir ResourceDirectory, depth int) {
	if depth >= 3 {
		return
	}
	entries, err := dir.Entries()
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.DataIsDirectory {
			walkResourcesForFuzz(dir.Subdirectory(e), depth+1)
		}
	}
}
