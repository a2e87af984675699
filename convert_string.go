// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "encoding/binary"

// convertString builds a *StringArray from a string object's "any" property,
// which packs a small self-describing header (format version, ndims, shape)
// followed by one character count per string and finally the UTF-16 code
// units for every string back to back, in the declared shape's column-major
// element order.
func convertString(props map[string]Value, dims []int, bo binary.ByteOrder) (Value, bool) {
	data, ok := numericField(props, "any")
	if !ok || len(data.Real) == 0 {
		return &StringArray{Dims: dims}, true
	}
	words := data.Real

	if len(words) < 2 {
		return &StringArray{Dims: dims}, true
	}
	// A format version other than 1 is tolerated and parsed with the same
	// layout, matching the upstream reader's "may work unexpectedly"
	// stance rather than failing the whole load over a version bump.
	ndims := int(words[1])
	if ndims <= 0 || 2+ndims > len(words) {
		return &StringArray{Dims: dims}, true
	}
	shape := make([]int, ndims)
	numStrings := 1
	for i := 0; i < ndims; i++ {
		shape[i] = int(words[2+i])
		numStrings *= shape[i]
	}

	countsStart := 2 + ndims
	if countsStart+numStrings > len(words) {
		return &StringArray{Dims: dims}, true
	}
	counts := words[countsStart : countsStart+numStrings]

	pos := countsStart + numStrings
	values := make([]string, numStrings)
	for i, c := range counts {
		n := int(c)
		if pos+n > len(words) {
			break
		}
		units := make([]uint16, n)
		for j := 0; j < n; j++ {
			units[j] = uint16(words[pos+j])
		}
		values[i] = decodeUTF16(units)
		pos += n
	}

	return &StringArray{Dims: shape, Values: values}, true
}
