// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"unicode/utf16"

	xunicode "golang.org/x/text/encoding/unicode"
)

// byteOrderFromMarker recovers the declared byte order from the two marker
// bytes MATLAB writes at offset 2 of a MAT v5 header or subsystem blob:
// "IM" means little-endian, "MI" means big-endian. Any other pair is
// malformed input.
func byteOrderFromMarker(b0, b1 byte) (binary.ByteOrder, bool) {
	switch {
	case b0 == 'I' && b1 == 'M':
		return binary.LittleEndian, true
	case b0 == 'M' && b1 == 'I':
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

// padTo64Bit rounds n up to the next multiple of 8, matching MAT v5's
// element alignment rule (spec.md §3: property blocks pad so that
// (nblocks*block_size + 4) is a multiple of 8; the top-level element stream
// pads every non-matrix element to 8 bytes the same way).
func padTo64Bit(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}

// columnMajorIndex converts a column-major linear offset into its
// per-dimension subscript, first dimension varying fastest, which is the
// element order MATLAB uses on disk. Arrays in this package are kept as flat
// slices in that order alongside their Dims; nothing is reshaped.
func columnMajorIndex(dims []int, linear int) []int {
	idx := make([]int, len(dims))
	for i, d := range dims {
		if d == 0 {
			continue
		}
		idx[i] = linear % d
		linear /= d
	}
	return idx
}

// linearColumnMajor is the inverse of columnMajorIndex: it computes the
// column-major linear offset of a multi-dimensional subscript.
func linearColumnMajor(dims []int, idx []int) int {
	stride := 1
	linear := 0
	for i, d := range dims {
		linear += idx[i] * stride
		stride *= d
	}
	return linear
}

// decodeUTF16 decodes a slice of native-endian UTF-16 code units (already
// byte-order-corrected by the primitive reader) into a Go string, via
// golang.org/x/text's UTF-16 decoder so surrogate pairs and unpaired
// surrogates follow the same replacement-character policy MATLAB's own
// string/char decoding relies on rather than stdlib's more permissive
// utf16.Decode. Falls back to stdlib on decode failure rather than dropping
// the value entirely.
func decodeUTF16(u []uint16) string {
	buf := make([]byte, len(u)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(buf[i*2:], c)
	}
	out, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(buf)
	if err != nil {
		return string(utf16.Decode(u))
	}
	return string(out)
}

// minInt and maxInt mirror the small numeric helpers every pack repo keeps
// next to its binary-layout code (saferwall/pe's helper.go has Max/Min for
// uint32; this package needs the plain int form for dimension arithmetic).
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
