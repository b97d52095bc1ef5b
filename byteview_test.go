// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"errors"
	"testing"
)

func TestByteViewReadWriteRoundTrip(t *testing.T) {
	bv := NewByteView(make([]byte, 64))

	if err := bv.WriteUint8(0, 0xAB); err != nil {
		t.Fatalf("WriteUint8 failed: %v", err)
	}
	if err := bv.WriteUint16(4, 0x1234); err != nil {
		t.Fatalf("WriteUint16 failed: %v", err)
	}
	if err := bv.WriteUint32(8, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	if err := bv.WriteUint64(16, 0x0123456789ABCDEF); err != nil {
		t.Fatalf("WriteUint64 failed: %v", err)
	}

	if v, err := bv.ReadUint8(0); err != nil || v != 0xAB {
		t.Errorf("ReadUint8 = %x, %v, want 0xAB, nil", v, err)
	}
	if v, err := bv.ReadUint16(4); err != nil || v != 0x1234 {
		t.Errorf("ReadUint16 = %x, %v, want 0x1234, nil", v, err)
	}
	if v, err := bv.ReadUint32(8); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadUint32 = %x, %v, want 0xDEADBEEF, nil", v, err)
	}
	if v, err := bv.ReadUint64(16); err != nil || v != 0x0123456789ABCDEF {
		t.Errorf("ReadUint64 = %x, %v, want 0x0123456789ABCDEF, nil", v, err)
	}
}

func TestByteViewWriteDoesNotDisturbNeighbors(t *testing.T) {
	bv := NewByteView(make([]byte, 16))
	for i := range bv.data {
		bv.data[i] = 0xFF
	}

	if err := bv.WriteUint32(4, 0x00000000); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}

	for i, b := range bv.data {
		if i >= 4 && i < 8 {
			if b != 0x00 {
				t.Errorf("byte %d = %x, want 0x00", i, b)
			}
			continue
		}
		if b != 0xFF {
			t.Errorf("byte %d = %x, want 0xFF (untouched)", i, b)
		}
	}
}

func TestByteViewBoundsErrors(t *testing.T) {
	bv := NewByteView(make([]byte, 4))

	_, err := bv.ReadUint32(2)
	if err == nil {
		t.Fatal("expected a bounds error reading past the end of the buffer")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindBounds {
		t.Errorf("error kind = %v, want bounds", err)
	}
}

func TestByteViewASCIIString(t *testing.T) {
	data := append([]byte("kernel32.dll"), 0x00, 0xAA, 0xBB)
	bv := NewByteView(data)

	s, err := bv.ReadASCIIString(0)
	if err != nil {
		t.Fatalf("ReadASCIIString failed: %v", err)
	}
	if s != "kernel32.dll" {
		t.Errorf("ReadASCIIString = %q, want %q", s, "kernel32.dll")
	}
}

func TestByteViewASCIIStringBoundedNoTerminator(t *testing.T) {
	data := []byte("abcdefgh")
	bv := NewByteView(data)

	s, err := bv.ReadASCIIStringBounded(0, 4)
	if err != nil {
		t.Fatalf("ReadASCIIStringBounded failed: %v", err)
	}
	if s != "abcd" {
		t.Errorf("ReadASCIIStringBounded = %q, want %q", s, "abcd")
	}
}

func TestByteViewRemoveRange(t *testing.T) {
	bv := NewByteView([]byte{0, 1, 2, 3, 4, 5})
	if err := bv.RemoveRange(1, 2); err != nil {
		t.Fatalf("RemoveRange failed: %v", err)
	}
	want := []byte{0, 3, 4, 5}
	if string(bv.Bytes()) != string(want) {
		t.Errorf("RemoveRange result = %v, want %v", bv.Bytes(), want)
	}
}
