// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "go.mozilla.org/pkcs7"

const certificateHeaderSize = 8

// Certificate.wCertificateType values.
const (
	WinCertTypeX509             = 0x0001
	WinCertTypePKCSSignedData   = 0x0002
	WinCertTypeReserved1        = 0x0003
	WinCertTypeTSStackSigned    = 0x0004
)

// Certificate is one WIN_CERTIFICATE record from the Certificate Table.
// Unlike every other directory, the Certificate Data Directory's
// VirtualAddress is a raw file offset, not an RVA: certificates live
// outside the mapped image.
type Certificate struct {
	view
}

func newCertificate(bv *ByteView, offset uint32) Certificate {
	return Certificate{view{bv: bv, offset: offset}}
}

// Length returns the total size of the certificate record, header included.
func (c Certificate) Length() (uint32, error) { return c.bv.ReadUint32(c.offset + 0x00) }

// Revision returns the certificate revision (WIN_CERT_REVISION_2_0, etc).
func (c Certificate) Revision() (uint16, error) { return c.bv.ReadUint16(c.offset + 0x04) }

// CertificateType returns the WIN_CERT_TYPE discriminant.
func (c Certificate) CertificateType() (uint16, error) { return c.bv.ReadUint16(c.offset + 0x06) }

// RawData returns the dwLength-8 opaque bytes following the header: the
// ASN.1/PKCS#7 blob itself, left undecoded by this library's core.
func (c Certificate) RawData() ([]byte, error) {
	length, err := c.Length()
	if err != nil {
		return nil, err
	}
	if length < certificateHeaderSize {
		return nil, invalidDataErr("Certificate.RawData", "certificate length smaller than its own header")
	}
	return c.bv.SubArray(c.offset+certificateHeaderSize, length-certificateHeaderSize)
}

// readCertificates walks the Certificate Table at fileOffset (a raw file
// offset, not an RVA), sized directorySize bytes. Each record is padded to
// an 8-byte boundary; a record whose length is zero ends the walk.
func readCertificates(bv *ByteView, fileOffset, directorySize uint32) ([]Certificate, error) {
	end := fileOffset + directorySize
	var out []Certificate

	for cur := fileOffset; cur+certificateHeaderSize <= end; {
		c := newCertificate(bv, cur)
		length, err := c.Length()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			break
		}
		if length < certificateHeaderSize || cur+length > bv.Len() {
			return nil, boundsErr("readCertificates")
		}
		out = append(out, c)

		advance := (length + 7) &^ 7
		if advance == 0 {
			break
		}
		cur += advance
	}

	return out, nil
}

// PKCS7 is an optional, best-effort helper that attempts to parse a
// certificate's raw bytes as a PKCS#7 signed-data structure. It is not part
// of the certificate directory's core contract — ASN.1/PKCS decoding
// failures here are not structural PE errors, just a failed best-effort
// parse of an opaque blob the core already exposed successfully.
func (c Certificate) PKCS7() (*pkcs7.PKCS7, error) {
	raw, err := c.RawData()
	if err != nil {
		return nil, err
	}
	p7, err := pkcs7.Parse(raw)
	if err != nil {
		return nil, newError(KindInvalidData, "Certificate.PKCS7", err)
	}
	return p7, nil
}
