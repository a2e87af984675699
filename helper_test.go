// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteOrderFromMarker(t *testing.T) {
	tests := []struct {
		b0, b1 byte
		want   binary.ByteOrder
		ok     bool
	}{
		{'I', 'M', binary.LittleEndian, true},
		{'M', 'I', binary.BigEndian, true},
		{'X', 'X', nil, false},
	}
	for _, tt := range tests {
		got, ok := byteOrderFromMarker(tt.b0, tt.b1)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestPadTo64Bit(t *testing.T) {
	assert.Equal(t, 0, padTo64Bit(0))
	assert.Equal(t, 8, padTo64Bit(1))
	assert.Equal(t, 8, padTo64Bit(8))
	assert.Equal(t, 16, padTo64Bit(9))
}

// TestColumnMajorRoundTrip exercises the invariant spec.md calls load-bearing:
// reshaping into column-major order and back must recover the original
// subscript for every linear offset.
func TestColumnMajorRoundTrip(t *testing.T) {
	dims := []int{2, 3, 4}
	total := prodDims(dims)
	require.Equal(t, 24, total)

	for linear := 0; linear < total; linear++ {
		idx := columnMajorIndex(dims, linear)
		require.Len(t, idx, len(dims))
		back := linearColumnMajor(dims, idx)
		assert.Equalf(t, linear, back, "subscript %v did not round-trip", idx)
	}
}

func TestColumnMajorFirstDimFastest(t *testing.T) {
	dims := []int{2, 2}
	assert.Equal(t, []int{0, 0}, columnMajorIndex(dims, 0))
	assert.Equal(t, []int{1, 0}, columnMajorIndex(dims, 1))
	assert.Equal(t, []int{0, 1}, columnMajorIndex(dims, 2))
	assert.Equal(t, []int{1, 1}, columnMajorIndex(dims, 3))
}
