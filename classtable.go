// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// classInfo is one 16-byte class descriptor table entry: a handle-class name
// index and a class name index (the other two fields are unidentified and
// unused by any reader in the wild).
type classInfo struct {
	handleNameIdx uint32
	classNameIdx  uint32
}

// classAt reads the class descriptor entry at classID, whose table starts at
// the byte offset recorded at metadata offset 8.
func (ss *subsystem) classAt(classID uint32) (classInfo, error) {
	if len(ss.fwrapMetadata) < 12 {
		return classInfo{}, fmt.Errorf("%w: class table header truncated", ErrMalformed)
	}
	base := ss.bo.Uint32(ss.fwrapMetadata[8:12])
	off := int(base) + int(classID)*16
	if off+16 > len(ss.fwrapMetadata) {
		return classInfo{}, fmt.Errorf("%w: class id %d out of range", ErrMalformed, classID)
	}
	return classInfo{
		handleNameIdx: ss.bo.Uint32(ss.fwrapMetadata[off : off+4]),
		classNameIdx:  ss.bo.Uint32(ss.fwrapMetadata[off+4 : off+8]),
	}, nil
}

// className resolves a class id to its (possibly package-qualified) name,
// e.g. "containers.Map" when the class table records a handle-class prefix.
func (ss *subsystem) className(classID uint32) (string, error) {
	info, err := ss.classAt(classID)
	if err != nil {
		return "", err
	}
	name, ok := ss.nameAt(info.classNameIdx)
	if !ok {
		return "", fmt.Errorf("%w: class id %d has no name", ErrMalformed, classID)
	}
	if handle, ok := ss.nameAt(info.handleNameIdx); ok {
		return handle + "." + name, nil
	}
	return name, nil
}
