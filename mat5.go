// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// dataType is a MAT v5 element tag type, as spec.md §6 enumerates.
type dataType uint32

// MAT v5 element tag types.
const (
	miINT8 dataType = iota + 1
	miUINT8
	miINT16
	miUINT16
	miINT32
	miUINT32
	miSINGLE
	_
	miDOUBLE
	_
	_
	miINT64
	miUINT64
	miMATRIX
	miCOMPRESSED
	miUTF8
	miUTF16
	miUTF32
)

func (d dataType) numBytes() int {
	switch d {
	case miINT8, miUINT8, miUTF8:
		return 1
	case miINT16, miUINT16, miUTF16:
		return 2
	case miINT32, miUINT32, miUTF32, miSINGLE:
		return 4
	case miDOUBLE, miINT64, miUINT64:
		return 8
	default:
		return 0
	}
}

// mxClass is a MAT v5 array class byte (array flags, low 8 bits).
type mxClass uint8

// MATLAB array classes.
const (
	mxCELL mxClass = iota + 1
	mxSTRUCT
	mxOBJECT
	mxCHAR
	mxSPARSE
	mxDOUBLE
	mxSINGLE
	mxINT8
	mxUINT8
	mxINT16
	mxUINT16
	mxINT32
	mxUINT32
	mxINT64
	mxUINT64
	mxFUNCTION
	mxOPAQUE
)

const (
	flagComplex = 1 << 11
	flagGlobal  = 1 << 10
	flagLogical = 1 << 9
)

// MAT5Header is the 128-byte MAT v5 text header.
type MAT5Header struct {
	Level     string
	Platform  string
	Created   time.Time
	ByteOrder binary.ByteOrder
}

// MAT5Container holds everything a MAT v5/v7 (non-HDF5) file decodes to
// before the MCOS subsystem has been resolved.
type MAT5Container struct {
	Header MAT5Header
	Vars   map[string]Value
}

const (
	mat5HeaderLen     = 128
	mat5HeaderTextLen = 116
)

// ReadMAT5 parses a MAT v5/v7 file already held in memory (the loader shell
// mmaps the file and hands the resulting byte slice here).
func ReadMAT5(data []byte) (*MAT5Container, error) {
	if len(data) < mat5HeaderLen {
		return nil, fmt.Errorf("%w: file shorter than MAT v5 header", ErrMalformed)
	}
	hdr, err := parseMAT5Header(data[:mat5HeaderLen])
	if err != nil {
		return nil, err
	}

	elems, err := readAllElements(hdr.ByteOrder, data[mat5HeaderLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	vars := make(map[string]Value, len(elems))
	for _, e := range elems {
		vars[e.name] = e.value
	}
	return &MAT5Container{Header: *hdr, Vars: vars}, nil
}

func parseMAT5Header(buf []byte) (*MAT5Header, error) {
	h := &MAT5Header{}
	text := string(buf[:mat5HeaderTextLen])

	if strings.HasPrefix(text, "MATLAB 5.0 MAT-file") {
		h.Level = "5.0"
	} else if strings.TrimSpace(text) != "" {
		// Tolerate non-standard headers (e.g. truncated synthetic test
		// fixtures) the way the original reader tolerates bad Octave dates.
		h.Level = "5.0"
	}

	if idx := strings.Index(text, "Platform: "); idx >= 0 {
		rest := text[idx+len("Platform: "):]
		if end := strings.IndexByte(rest, ','); end >= 0 {
			h.Platform = strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(text, "Created on: "); idx >= 0 {
		rest := strings.TrimSpace(text[idx+len("Created on: "):])
		if t, err := time.Parse(time.ANSIC, rest); err == nil {
			h.Created = t
		}
	}

	order, ok := byteOrderFromMarker(buf[126], buf[127])
	if !ok {
		return nil, fmt.Errorf("%w: invalid byte order marker", ErrMalformed)
	}
	h.ByteOrder = order
	return h, nil
}

type namedValue struct {
	name  string
	value Value
}

// readAllElements reads every top-level element (each a named matrix, or the
// raw __function_workspace__ blob) out of buf.
func readAllElements(bo binary.ByteOrder, buf []byte) ([]namedValue, error) {
	var out []namedValue
	r := bytes.NewReader(buf)
	for r.Len() > 0 {
		nv, err := readTopLevelElement(bo, r)
		if err != nil {
			return nil, err
		}
		if nv != nil {
			out = append(out, *nv)
		}
	}
	return out, nil
}

func readTopLevelElement(bo binary.ByteOrder, r *bytes.Reader) (*namedValue, error) {
	dt, size, isSmall, smallBuf, err := readTag(bo, r)
	if err != nil {
		return nil, err
	}
	if isSmall {
		// Small data elements never occur at the top level of a MAT5 file;
		// skip defensively rather than failing the whole load.
		_ = smallBuf
		return nil, nil
	}

	switch dt {
	case miCOMPRESSED:
		raw := make([]byte, size)
		if _, err := readFull(r, raw); err != nil {
			return nil, err
		}
		inflated, err := inflateZlib(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: inflating compressed element: %v", ErrMalformed, err)
		}
		sub := bytes.NewReader(inflated)
		return readTopLevelElement(bo, sub)
	case miMATRIX:
		raw := make([]byte, size)
		if _, err := readFull(r, raw); err != nil {
			return nil, err
		}
		name, v, err := readMatrix(bo, raw)
		if err != nil {
			return nil, err
		}
		return &namedValue{name: name, value: v}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected top-level element type %d", ErrMalformed, dt)
	}
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// readTag reads an 8-byte element tag, which is either a small-data-element
// (SDE) tag (length and type packed into the same 4 bytes, followed directly
// by up to 4 bytes of inline data) or a normal tag (4-byte type, 4-byte
// length, data follows out-of-line). Endianness must be applied before
// inspecting which form this is, exactly as the upstream MATLAB reader does.
func readTag(bo binary.ByteOrder, r *bytes.Reader) (dt dataType, size int, isSmall bool, smallBuf []byte, err error) {
	buf := make([]byte, 8)
	if _, err = readFull(r, buf); err != nil {
		return 0, 0, false, nil, err
	}

	var sdeLen, sdeType uint16
	if bo == binary.BigEndian {
		sdeType = binary.BigEndian.Uint16(buf[0:2])
		sdeLen = binary.BigEndian.Uint16(buf[2:4])
	} else {
		sdeType = binary.LittleEndian.Uint16(buf[0:2])
		sdeLen = binary.LittleEndian.Uint16(buf[2:4])
	}
	if sdeLen != 0 {
		return dataType(sdeType), 0, true, buf[4:8], nil
	}

	dt = dataType(bo.Uint32(buf[0:4]))
	size = int(bo.Uint32(buf[4:8]))
	return dt, size, false, nil, nil
}

// readNumericTag reads a tag and, for SDE form, returns the inline payload
// bytes trimmed to the element count implied by the SDE length; for normal
// form it reads the out-of-line (padded) payload from r.
func readNumericTag(bo binary.ByteOrder, r *bytes.Reader) (dataType, []byte, error) {
	dt, size, isSmall, smallBuf, err := readTag(bo, r)
	if err != nil {
		return 0, nil, err
	}
	if isSmall {
		n := dt.numBytes()
		if n == 0 {
			return dt, nil, fmt.Errorf("%w: small element of variable-length type", ErrMalformed)
		}
		count := 4 / n
		return dt, smallBuf[:count*n], nil
	}
	padded := padTo64Bit(size)
	buf := make([]byte, padded)
	if _, err := readFull(r, buf); err != nil {
		return 0, nil, err
	}
	return dt, buf[:size], nil
}
