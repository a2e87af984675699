// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/foreverallama/readmat/log"
)

// MaxFieldsPerObjectDefault bounds how many properties resolveArray will
// merge onto a single object element before giving up, guarding against a
// corrupt property-block id looping back on itself outside the cycle guard's
// reach.
const MaxFieldsPerObjectDefault = 4096

// Options configures how a File is opened and how its subsystem is resolved.
type Options struct {
	// RawData disables class-aware conversion: every MCOS object decodes to
	// an *Object with Props populated, never Typed.
	RawData bool

	// SPMatrix, if false (the default), decodes sparse arrays into dense
	// NumericArray values the way MATLAB's full() does. When true, sparse
	// arrays are returned as *SparseArray unmodified.
	SPMatrix bool

	// VariableNames restricts which top-level variables are resolved and
	// returned in File.Vars. Every variable is still parsed from the file. A
	// nil or empty slice returns every variable.
	VariableNames []string

	// CharsAsStrings, if true, returns each 1xN char array as a 1x1
	// *StringArray holding its text instead of a *CharArray.
	CharsAsStrings bool

	// Uint16Codec is not consulted by any decoder in this package: char and
	// string payloads are always decoded as UTF-16.
	Uint16Codec func(units []uint16) string

	// MaxFieldsPerObject bounds property-block traversal length, by default
	// MaxFieldsPerObjectDefault.
	MaxFieldsPerObject int

	// Logger is a custom logger; nil uses a stderr logger filtered to
	// warnings and above.
	Logger log.Logger
}

func (o *Options) loggerOrDefault() log.Logger {
	if o == nil || o.Logger == nil {
		return log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelWarn))
	}
	return o.Logger
}

func (o *Options) maxFields() int {
	if o == nil || o.MaxFieldsPerObject == 0 {
		return MaxFieldsPerObjectDefault
	}
	return o.MaxFieldsPerObject
}

// File represents an open MAT-file together with its decoded top-level
// variables and, if present, its resolved MCOS subsystem.
type File struct {
	Vars      map[string]Value
	ByteOrder binary.ByteOrder

	data   mmap.MMap
	f      *os.File
	opts   *Options
	logger *log.Helper

	raw *MAT5Container
	ss  *subsystem
}

// Open memory-maps the named MAT-file and decodes it.
func Open(name string, opts *Options) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := &File{f: f, data: data}
	if err := file.init(data, opts); err != nil {
		_ = data.Unmap()
		f.Close()
		return nil, err
	}
	return file, nil
}

// OpenBytes decodes a MAT-file already held in memory.
func OpenBytes(data []byte, opts *Options) (*File, error) {
	file := &File{}
	if err := file.init(data, opts); err != nil {
		return nil, err
	}
	return file, nil
}

func (file *File) init(data []byte, opts *Options) error {
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	file.logger = log.NewHelper(file.opts.loggerOrDefault())

	if isHDF5(data) {
		return file.initMAT73(data)
	}

	container, err := ReadMAT5(data)
	if err != nil {
		return err
	}
	file.raw = container
	file.ByteOrder = container.Header.ByteOrder
	return file.load()
}

// initMAT73 handles the v7.3 (HDF5) container path: it has no text header
// or byte-order marker (HDF5 fixes little-endian metadata encoding and
// records each dataset's own byte order), so byte order defaults to
// little-endian, matching every MATLAB-written v7.3 file in practice.
func (file *File) initMAT73(data []byte) error {
	c, err := ReadMAT73(data, file.opts)
	if err != nil {
		return err
	}
	file.ByteOrder = binary.LittleEndian
	file.raw = &MAT5Container{
		Header: MAT5Header{Level: "7.3", ByteOrder: binary.LittleEndian},
		Vars:   c.Vars,
	}
	return file.load()
}

// Close releases the memory-mapped file, if any.
func (file *File) Close() error {
	if file.data != nil {
		_ = file.data.Unmap()
	}
	if file.f != nil {
		return file.f.Close()
	}
	return nil
}

// load performs the seven-step Load procedure from the loader shell's
// contract: locate __function_workspace__, build the subsystem decoder if
// present, walk every requested variable for object references, resolve
// them, apply class conversion, and expose the result on file.Vars.
func (file *File) load() error {
	fw, hasSubsystem := file.raw.Vars["__function_workspace__"]
	delete(file.raw.Vars, "__function_workspace__")

	var ss *subsystem
	if hasSubsystem {
		mcosCell, err := extractFunctionWorkspaceMCOS(fw, file.ByteOrder)
		if err != nil {
			file.logger.Warnf("could not decode __function_workspace__: %v", err)
		} else if mcosCell != nil {
			ss, err = newSubsystem(mcosCell, file.ByteOrder, file.opts)
			if err != nil {
				file.logger.Warnf("subsystem decode failed: %v", err)
			}
		}
	}
	file.ss = ss

	wanted := file.variableSet()
	out := make(map[string]Value, len(file.raw.Vars))
	for name, v := range file.raw.Vars {
		if wanted != nil && !wanted[name] {
			continue
		}
		resolved := v
		if ss != nil {
			var err error
			resolved, err = ss.walk(v)
			if err != nil {
				file.logger.Warnf("variable %q: %v", name, err)
				resolved = v
			}
		}
		resolved = file.postProcess(resolved)
		out[name] = resolved
	}
	file.Vars = out
	return nil
}

func (file *File) variableSet() map[string]bool {
	if len(file.opts.VariableNames) == 0 {
		return nil
	}
	set := make(map[string]bool, len(file.opts.VariableNames))
	for _, n := range file.opts.VariableNames {
		set[n] = true
	}
	return set
}

// postProcess applies the loader-level Options that act after subsystem
// resolution: densifying sparse arrays and collapsing 1xN char arrays to 1x1
// string arrays, recursively through cell and struct containers.
func (file *File) postProcess(v Value) Value {
	switch t := v.(type) {
	case *SparseArray:
		if file.opts.SPMatrix {
			return t
		}
		return densifySparse(t)
	case *CharArray:
		if file.opts.CharsAsStrings && len(t.Dims) == 2 && t.Dims[0] <= 1 {
			return &StringArray{Dims: []int{1, 1}, Values: []string{t.String()}}
		}
		return t
	case *CellArray:
		elems := make([]Value, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = file.postProcess(e)
		}
		return &CellArray{Name: t.Name, Dims: t.Dims, Elems: elems}
	case *StructArray:
		data := make([]map[string]Value, len(t.Data))
		for i, m := range t.Data {
			nm := make(map[string]Value, len(m))
			for k, v := range m {
				nm[k] = file.postProcess(v)
			}
			data[i] = nm
		}
		return &StructArray{Name: t.Name, Dims: t.Dims, Fields: t.Fields, Data: data}
	default:
		return v
	}
}

func densifySparse(s *SparseArray) Value {
	rows := 0
	if len(s.Dims) > 0 {
		rows = s.Dims[0]
	}
	n := prodDims(s.Dims)
	real := make([]float64, n)
	var imag []float64
	if s.Imag != nil {
		imag = make([]float64, n)
	}
	for col := 0; col+1 < len(s.ColPtr); col++ {
		for k := s.ColPtr[col]; k < s.ColPtr[col+1]; k++ {
			if k >= len(s.RowIdx) {
				break
			}
			row := s.RowIdx[k]
			linear := col*rows + row
			if linear >= n {
				continue
			}
			if k < len(s.Real) {
				real[linear] = s.Real[k]
			}
			if imag != nil && k < len(s.Imag) {
				imag[linear] = s.Imag[k]
			}
		}
	}
	class := ClassDouble
	if s.Logical {
		class = ClassLogical
	}
	return &NumericArray{Name: s.Name, Dims: s.Dims, Class: class, Real: real, Imag: imag}
}

// isHDF5 reports whether data begins with the HDF5 superblock signature,
// which distinguishes a v7.3 MAT-file from a v5/v7 one.
func isHDF5(data []byte) bool {
	sig := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	if len(data) < len(sig) {
		return false
	}
	for i, b := range sig {
		if data[i] != b {
			return false
		}
	}
	return true
}

// extractFunctionWorkspaceMCOS pulls the "MCOS" cell out of the struct array
// that __function_workspace__ always decodes to (a 1x1 struct with field
// names matching registered opaque type systems).
func extractFunctionWorkspaceMCOS(fw Value, bo binary.ByteOrder) (*CellArray, error) {
	sa, ok := fw.(*StructArray)
	if !ok || len(sa.Data) == 0 {
		return nil, fmt.Errorf("%w: __function_workspace__ is not a struct", ErrMalformed)
	}
	mcosVal, ok := sa.Data[0]["MCOS"]
	if !ok {
		return nil, nil
	}
	mcosCellOuter, ok := mcosVal.(*CellArray)
	if !ok || len(mcosCellOuter.Elems) == 0 {
		return nil, fmt.Errorf("%w: MCOS field is not a cell array", ErrMalformed)
	}
	// MCOS{1} is stored as a plain 1x1 struct (not an opaque reference --
	// the subsystem can't resolve opaque objects before it exists) whose
	// single "_Metadata" field is the fwrap_data cell array subsystem.go
	// operates on directly.
	wrapper, ok := mcosCellOuter.Elems[0].(*StructArray)
	if !ok || len(wrapper.Data) == 0 {
		return nil, fmt.Errorf("%w: MCOS{1} is not a struct", ErrMalformed)
	}
	metaField, ok := wrapper.Data[0]["_Metadata"]
	if !ok {
		return nil, fmt.Errorf("%w: MCOS{1} has no _Metadata field", ErrMalformed)
	}
	inner, ok := metaField.(*CellArray)
	if !ok {
		return nil, fmt.Errorf("%w: _Metadata is not a cell array", ErrMalformed)
	}
	return inner, nil
}
