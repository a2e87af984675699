// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildReference constructs a well-formed object-reference sentinel column:
// [0xDD000000, ndims, dims..., object_ids..., class_id].
func buildReference(dims []int, objectIDs []uint32, classID uint32) *NumericArray {
	col := []uint32{objectReferenceSentinel, uint32(len(dims))}
	for _, d := range dims {
		col = append(col, uint32(d))
	}
	col = append(col, objectIDs...)
	col = append(col, classID)

	real := make([]float64, len(col))
	for i, v := range col {
		real[i] = float64(v)
	}
	return &NumericArray{Dims: []int{len(col), 1}, Class: ClassUint32, Real: real, U32: col}
}

func TestIsObjectReferenceValid(t *testing.T) {
	ref := buildReference([]int{2, 3}, []uint32{1, 2, 3, 4, 5, 6}, 7)
	assert.True(t, isObjectReference(ref))
}

func TestIsObjectReferenceRejectsWrongShape(t *testing.T) {
	ref := buildReference([]int{2, 3}, []uint32{1, 2, 3, 4, 5, 6}, 7)
	ref.Dims = []int{1, 6}
	assert.False(t, isObjectReference(ref))
}

func TestIsObjectReferenceRejectsBadSentinel(t *testing.T) {
	ref := buildReference([]int{2, 3}, []uint32{1, 2, 3, 4, 5, 6}, 7)
	ref.U32[0] = 0
	assert.False(t, isObjectReference(ref))
}

func TestIsObjectReferenceRejectsZeroObjectID(t *testing.T) {
	ref := buildReference([]int{2, 3}, []uint32{1, 2, 3, 4, 0, 6}, 7)
	assert.False(t, isObjectReference(ref))
}

func TestIsObjectReferenceRejectsLengthMismatch(t *testing.T) {
	ref := buildReference([]int{2, 3}, []uint32{1, 2, 3, 4, 5, 6}, 7)
	ref.U32 = append(ref.U32, 9)
	assert.False(t, isObjectReference(ref))
}

func TestIsObjectReferenceRejectsPlainUint32Array(t *testing.T) {
	plain := &NumericArray{
		Dims:  []int{6, 1},
		Class: ClassUint32,
		U32:   []uint32{1, 2, 3, 4, 5, 6},
		Real:  []float64{1, 2, 3, 4, 5, 6},
	}
	assert.False(t, isObjectReference(plain))
}

func TestIsEnumerationInstanceTag(t *testing.T) {
	sa := &StructArray{
		Dims:   []int{1, 1},
		Fields: []string{"EnumerationInstanceTag"},
		Data: []map[string]Value{
			{"EnumerationInstanceTag": &NumericArray{Dims: []int{1, 1}, Class: ClassUint32, Real: []float64{objectReferenceSentinel}}},
		},
	}
	assert.True(t, isEnumerationInstanceTag(sa))

	notTag := &StructArray{Dims: []int{1, 1}, Fields: []string{"x"}, Data: []map[string]Value{{"x": &NumericArray{}}}}
	assert.False(t, isEnumerationInstanceTag(notTag))
}
