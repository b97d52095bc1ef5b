// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// view is the common anchor every PE structure is built on: a back
// reference to the shared ByteView plus the base offset this particular
// structure starts at. Views are cheap value types; cloning one to
// construct a child (e.g. descending one level into a resource directory)
// is just copying offset and bv.
type view struct {
	bv     *ByteView
	offset uint32
}

// Offset returns the file offset this view is anchored at.
func (v view) Offset() uint32 { return v.offset }
