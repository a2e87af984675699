// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// extractHandles attaches any handle-class instances dependent on depID
// under synthetic "_Handle_N" property names, mirroring MATLAB's own
// convention for objects that hold a reference to a handle-class object
// (e.g. a listener referencing its source).
func (ss *subsystem) extractHandles(depID uint32) (map[string]Value, error) {
	if len(ss.fwrapMetadata) < 28 {
		return nil, fmt.Errorf("%w: handle table header truncated", ErrMalformed)
	}
	byteOffset := ss.bo.Uint32(ss.fwrapMetadata[24:28])

	rows, err := ss.getIDs(depID, byteOffset, 4)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	handles := make(map[string]Value, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			continue
		}
		type2ID := row[0]
		classID, objectID, err := ss.handleClassInstance(type2ID)
		if err != nil {
			return nil, err
		}
		obj, err := ss.resolveArray([]uint32{objectID}, classID, []int{1, 1})
		if err != nil {
			return nil, err
		}
		handles[fmt.Sprintf("_Handle_%d", i+1)] = obj
	}
	return handles, nil
}
