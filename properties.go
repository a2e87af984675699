// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// getIDs walks the variable-length, 8-byte-padded block sequence starting at
// byteOffset, skipping the first id blocks, and returns the (id+1)th block's
// contents reshaped into nblocks rows of nbytes/4 uint32 columns. This is the
// shared layout underlying both the type1/type2 property-block tables and
// the handle-attachment table (spec.md §3: "property blocks, variable
// length, padded to 8 bytes").
func (ss *subsystem) getIDs(id uint32, byteOffset uint32, nbytes int) ([][]uint32, error) {
	meta := ss.fwrapMetadata
	off := int(byteOffset)

	for ; id > 0; id-- {
		if off+4 > len(meta) {
			return nil, fmt.Errorf("%w: property block index out of bounds", ErrMalformed)
		}
		nblocks := int(ss.bo.Uint32(meta[off : off+4]))
		blockBytes := nblocks * nbytes
		off += 4 + blockBytes
		if (blockBytes+4)%8 != 0 {
			off += 4
		}
	}

	if off+4 > len(meta) {
		return nil, fmt.Errorf("%w: property block header out of bounds", ErrMalformed)
	}
	nblocks := int(ss.bo.Uint32(meta[off : off+4]))
	off += 4

	cols := nbytes / 4
	total := nblocks * cols
	if off+total*4 > len(meta) {
		return nil, fmt.Errorf("%w: property block contents out of bounds", ErrMalformed)
	}

	rows := make([][]uint32, nblocks)
	for r := 0; r < nblocks; r++ {
		row := make([]uint32, cols)
		for c := 0; c < cols; c++ {
			p := off + (r*cols+c)*4
			row[c] = ss.bo.Uint32(meta[p : p+4])
		}
		rows[r] = row
	}
	return rows, nil
}

// extractProperties builds the property map for one object, given its
// (type1_id, type2_id, dep_id) triple from the object descriptor table.
// Exactly one of type1_id/type2_id is non-zero; it selects which of the two
// parallel property-block tables (offsets 12 and 20) to read from, per
// spec.md's "type1/type2 dispatch must never be inverted" invariant.
func (ss *subsystem) extractProperties(type1ID, type2ID, depID uint32) (map[string]Value, error) {
	var objTypeID, byteOffset uint32
	switch {
	case type1ID == 0 && type2ID != 0:
		objTypeID = type2ID
		if len(ss.fwrapMetadata) < 24 {
			return nil, fmt.Errorf("%w: property table header truncated", ErrMalformed)
		}
		byteOffset = ss.bo.Uint32(ss.fwrapMetadata[20:24])
	case type1ID != 0 && type2ID == 0:
		objTypeID = type1ID
		if len(ss.fwrapMetadata) < 16 {
			return nil, fmt.Errorf("%w: property table header truncated", ErrMalformed)
		}
		byteOffset = ss.bo.Uint32(ss.fwrapMetadata[12:16])
	default:
		return nil, fmt.Errorf("%w: object has neither or both of type1/type2 set", ErrMalformed)
	}

	fieldIDs, err := ss.getIDs(objTypeID, byteOffset, 12)
	if err != nil {
		return nil, err
	}

	props := make(map[string]Value, len(fieldIDs)+1)
	for _, row := range fieldIDs {
		if len(row) != 3 {
			continue
		}
		fieldIdx, fieldType, fieldValue := row[0], row[1], row[2]
		name, ok := ss.nameAt(fieldIdx)
		if !ok {
			return nil, fmt.Errorf("%w: field index %d", ErrMalformed, fieldIdx)
		}
		switch fieldType {
		case 1:
			if int(fieldValue) >= len(ss.fwrapVals) {
				return nil, fmt.Errorf("%w: field value index %d", ErrMalformed, fieldValue)
			}
			resolved, err := ss.walk(ss.fwrapVals[fieldValue])
			if err != nil {
				return nil, err
			}
			props[name] = resolved
		case 2:
			props[name] = &NumericArray{Dims: []int{1, 1}, Class: ClassLogical, Real: []float64{float64(fieldValue)}}
		default:
			return nil, fmt.Errorf("%w: field type %d", ErrUnknownField, fieldType)
		}
	}

	handles, err := ss.extractHandles(depID)
	if err != nil {
		return nil, err
	}
	for k, v := range handles {
		props[k] = v
	}
	return props, nil
}
