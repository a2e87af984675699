// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// objectDeps is one 24-byte object descriptor table entry.
type objectDeps struct {
	classID uint32
	type1ID uint32
	type2ID uint32
	depID   uint32
}

// objectDependencies reads the descriptor entry for objectID, whose table
// starts at the byte offset recorded at metadata offset 16 (immediately
// after a 24-byte zero header entry for object id 0).
func (ss *subsystem) objectDependencies(objectID uint32) (objectDeps, error) {
	if len(ss.fwrapMetadata) < 20 {
		return objectDeps{}, fmt.Errorf("%w: object table header truncated", ErrMalformed)
	}
	base := ss.bo.Uint32(ss.fwrapMetadata[16:20])
	off := int(base) + int(objectID)*24
	if off+24 > len(ss.fwrapMetadata) {
		return objectDeps{}, fmt.Errorf("%w: object id %d out of range", ErrMalformed, objectID)
	}
	return objectDeps{
		classID: ss.bo.Uint32(ss.fwrapMetadata[off+0 : off+4]),
		type1ID: ss.bo.Uint32(ss.fwrapMetadata[off+12 : off+16]),
		type2ID: ss.bo.Uint32(ss.fwrapMetadata[off+16 : off+20]),
		depID:   ss.bo.Uint32(ss.fwrapMetadata[off+20 : off+24]),
	}, nil
}

// handleClassInstance finds the object id of the handle-class instance
// backing a type2_id, by scanning the object descriptor table for the entry
// whose own type2_id field matches (the table's row index is then an object
// id in disguise, per subsystem.py's get_handle_class_instance).
func (ss *subsystem) handleClassInstance(type2ID uint32) (classID uint32, objectID uint32, err error) {
	if len(ss.fwrapMetadata) < 24 {
		return 0, 0, fmt.Errorf("%w: object table header truncated", ErrMalformed)
	}
	start := ss.bo.Uint32(ss.fwrapMetadata[16:20])
	end := ss.bo.Uint32(ss.fwrapMetadata[20:24])
	if int(end) > len(ss.fwrapMetadata) || start > end {
		return 0, 0, fmt.Errorf("%w: object table region out of bounds", ErrMalformed)
	}
	region := ss.fwrapMetadata[start:end]
	const rowBytes = 24
	for i := 0; i+rowBytes <= len(region); i += rowBytes {
		rowType2 := ss.bo.Uint32(region[i+16 : i+20])
		if rowType2 == type2ID {
			idx := uint32(i / rowBytes)
			return ss.bo.Uint32(region[i : i+4]), idx, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: type2_id %d", ErrLookupFailure, type2ID)
}
