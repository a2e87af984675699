// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/foreverallama/readmat/log"
)

// subsystem decodes the opaque MCOS ("FileWrapper") blob that a MAT-file's
// __function_workspace__ variable carries. Every Opaque value with
// TypeSystem == "MCOS" is resolved through this type.
//
// The blob is a self-contained binary structure: a small metadata header
// (the "TOC") gives byte offsets into six logical regions that all live in
// the same buffer (fwrapMetadata below). This mirrors subsystem.py's
// SubsystemReader, which is this package's primary grounding source.
type subsystem struct {
	bo   binary.ByteOrder
	opts *Options
	log  *log.Helper

	fwrapMetadata []byte // the raw TOC + names + id-table region
	fwrapVals     []Value // fwrap_vals: per-object property-block arrays
	fwrapDefaults []Value // fwrap_defaults: 3-element [_u1, _u2, class defaults]
	names         []string

	tocVersion     uint32
	versionOffsets int

	visiting map[uint32]bool // cycle guard; keyed by object_id
}

// newSubsystem builds a subsystem decoder from the FileWrapper cell array
// found at __function_workspace__{1,1}.MCOS{1}._Metadata.
func newSubsystem(mcosCell *CellArray, bo binary.ByteOrder, opts *Options) (*subsystem, error) {
	if opts == nil {
		opts = &Options{}
	}
	helper := log.NewHelper(opts.loggerOrDefault())

	if len(mcosCell.Elems) == 0 {
		return nil, fmt.Errorf("%w: empty MCOS cell", ErrMalformed)
	}
	metaValue := mcosCell.Elems[0]
	metaChar, ok := metaValue.(*CharArray)
	var metaBytes []byte
	if ok {
		metaBytes = uint16ToBytes(metaChar.Data)
	} else if numeric, ok := metaValue.(*NumericArray); ok {
		metaBytes = float64sToUint8(numeric.Real)
	} else {
		return nil, fmt.Errorf("%w: _Metadata is neither char nor numeric", ErrMalformed)
	}

	if len(metaBytes) < 8 {
		return nil, fmt.Errorf("%w: FileWrapper metadata too short", ErrMalformed)
	}
	tocVersion := bo.Uint32(metaBytes[0:4])
	if tocVersion <= 1 || tocVersion > 4 {
		return nil, fmt.Errorf("%w: FileWrapper TOC version %d", ErrUnsupportedVersion, tocVersion)
	}
	versionOffsets := 6
	if tocVersion == 4 {
		versionOffsets = 8
	}

	ss := &subsystem{
		bo:             bo,
		opts:           opts,
		log:            helper,
		fwrapMetadata:  metaBytes,
		tocVersion:     tocVersion,
		versionOffsets: versionOffsets,
		visiting:       make(map[uint32]bool),
	}

	if len(mcosCell.Elems) > 2 {
		vals, ok := mcosCell.Elems[2].(*CellArray)
		if !ok {
			return nil, fmt.Errorf("%w: fwrap_vals is not a cell array", ErrMalformed)
		}
		if len(vals.Elems) < 3 {
			return nil, fmt.Errorf("%w: fwrap_vals too short", ErrMalformed)
		}
		ss.fwrapVals = vals.Elems[:len(vals.Elems)-3]
		ss.fwrapDefaults = vals.Elems[len(vals.Elems)-3:]
	}

	names, err := ss.readNames(versionOffsets)
	if err != nil {
		return nil, err
	}
	ss.names = names
	return ss, nil
}

// readNames extracts the NUL-delimited, 1-based names table that every
// class-id and field-id lookup indexes into.
func (ss *subsystem) readNames(numOffsets int) ([]string, error) {
	if len(ss.fwrapMetadata) < 12 {
		return nil, fmt.Errorf("%w: names region header truncated", ErrMalformed)
	}
	byteEnd := ss.bo.Uint32(ss.fwrapMetadata[8:12])
	byteStart := 8 + numOffsets*4
	if int(byteEnd) > len(ss.fwrapMetadata) || byteStart > int(byteEnd) {
		return nil, fmt.Errorf("%w: names region out of bounds", ErrMalformed)
	}
	raw := ss.fwrapMetadata[byteStart:byteEnd]
	parts := bytes.Split(raw, []byte{0})
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			names = append(names, string(p))
		}
	}
	return names, nil
}

// nameAt returns the 1-based name at idx, per the FileWrapper convention
// that index 0 means "no name".
func (ss *subsystem) nameAt(idx uint32) (string, bool) {
	if idx == 0 {
		return "", false
	}
	if int(idx-1) >= len(ss.names) {
		return "", false
	}
	return ss.names[idx-1], true
}

func uint16ToBytes(u []uint16) []byte {
	out := make([]byte, len(u))
	for i, v := range u {
		out[i] = byte(v)
	}
	return out
}

func float64sToUint8(f []float64) []byte {
	out := make([]byte, len(f))
	for i, v := range f {
		out[i] = byte(uint8(v))
	}
	return out
}
