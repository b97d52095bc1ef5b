// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const runtimeFunctionSize = 12

// RuntimeFunction is one 12-byte IMAGE_RUNTIME_FUNCTION_ENTRY record from
// the amd64 exception directory. Addresses are widened to uint64 for
// uniformity with the library's other address-typed fields, even though
// the on-disk fields are 32-bit RVAs.
type RuntimeFunction struct {
	BeginAddress uint64
	EndAddress   uint64
	UnwindInfo   uint64
}

// ExceptionTable decodes the amd64 exception directory at offset, sized
// directorySize bytes, into its runtime-function records. On a 32-bit
// image the exception directory carries no such table; callers should not
// invoke this for a PE32 image (the facade omits it in that case).
func ExceptionTable(bv *ByteView, offset, directorySize uint32) ([]RuntimeFunction, error) {
	count := directorySize / runtimeFunctionSize
	out := make([]RuntimeFunction, 0, count)
	for i := uint32(0); i < count; i++ {
		o := offset + i*runtimeFunctionSize
		begin, err := bv.ReadUint32(o)
		if err != nil {
			return nil, err
		}
		end, err := bv.ReadUint32(o + 4)
		if err != nil {
			return nil, err
		}
		unwind, err := bv.ReadUint32(o + 8)
		if err != nil {
			return nil, err
		}
		out = append(out, RuntimeFunction{
			BeginAddress: uint64(begin),
			EndAddress:   uint64(end),
			UnwindInfo:   uint64(unwind),
		})
	}
	return out, nil
}
