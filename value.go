// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

// Package readmat decodes MATLAB MAT-files, with particular emphasis on the
// opaque MCOS ("MATLAB Class Object System") subsystem where instances of
// user-defined classes and most built-in opaque classes (datetime, duration,
// string, table, categorical, dictionary, containers.Map, calendarDuration,
// enumerations) live.
//
// Ordinary numeric, cell, struct, sparse, and character arrays are produced
// by the mat5 and mat73 primitive readers. The hard part — reverse
// engineering MCOS's undocumented, self-referential, offset-addressed binary
// layout into a navigable object graph — lives in this package.
package readmat

import "fmt"

// NumericClass identifies the element type backing a NumericArray.
type NumericClass uint8

// MATLAB numeric, logical and character array classes.
const (
	ClassDouble NumericClass = iota
	ClassSingle
	ClassInt8
	ClassUint8
	ClassInt16
	ClassUint16
	ClassInt32
	ClassUint32
	ClassInt64
	ClassUint64
	ClassLogical
)

// String implements the Stringer interface for NumericClass.
func (c NumericClass) String() string {
	switch c {
	case ClassDouble:
		return "double"
	case ClassSingle:
		return "single"
	case ClassInt8:
		return "int8"
	case ClassUint8:
		return "uint8"
	case ClassInt16:
		return "int16"
	case ClassUint16:
		return "uint16"
	case ClassInt32:
		return "int32"
	case ClassUint32:
		return "uint32"
	case ClassInt64:
		return "int64"
	case ClassUint64:
		return "uint64"
	case ClassLogical:
		return "logical"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Value is the closed set of types this package moves data around as.
// Every value produced by a primitive reader (mat5, mat73) and every value
// materialised by the MCOS decoder implements this interface.
type Value interface {
	// valueKind is unexported so that only this package may add new Value
	// implementors — callers match on the concrete pointer types below.
	valueKind() string
}

// NumericArray is a dense N-dimensional MATLAB numeric or logical array,
// stored column-major as every MATLAB array is laid out on disk.
type NumericArray struct {
	Name  string
	Dims  []int
	Class NumericClass
	Real  []float64
	Imag  []float64 // non-nil only when the array is complex

	// U32 holds the exact uint32 bit pattern when Class == ClassUint32. MCOS
	// reference sentinels and object/class ids must never be recovered by
	// rounding Real back to an integer; they are read from here instead.
	U32 []uint32

	Global bool
}

func (*NumericArray) valueKind() string { return "numeric" }

// Len returns the number of elements (product of Dims).
func (a *NumericArray) Len() int { return prodDims(a.Dims) }

// CharArray is a dense N-dimensional MATLAB character array, stored as UTF-16
// code units (MATLAB's native character representation).
type CharArray struct {
	Name string
	Dims []int
	Data []uint16
}

func (*CharArray) valueKind() string { return "char" }

// String renders a 2-D character array as its rows joined by newlines, as
// MATLAB does when displaying a char matrix (each row read left to right).
func (a *CharArray) String() string {
	if len(a.Dims) != 2 || a.Dims[0] == 0 {
		return decodeUTF16(a.Data)
	}
	rows, cols := a.Dims[0], a.Dims[1]
	if rows == 1 {
		return decodeUTF16(a.Data)
	}
	out := make([]uint16, cols)
	line := make([]string, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c] = a.Data[c*rows+r]
		}
		line[r] = decodeUTF16(out)
	}
	s := ""
	for i, l := range line {
		if i > 0 {
			s += "\n"
		}
		s += l
	}
	return s
}

// CellArray is a dense N-dimensional array of heterogeneous Values, stored
// column-major.
type CellArray struct {
	Name  string
	Dims  []int
	Elems []Value
}

func (*CellArray) valueKind() string { return "cell" }

// StructArray is a dense N-dimensional array of field-name to Value maps,
// stored column-major. Fields preserves MATLAB's field declaration order.
type StructArray struct {
	Name   string
	Dims   []int
	Fields []string
	Data   []map[string]Value
}

func (*StructArray) valueKind() string { return "struct" }

// SparseArray is a coordinate-list sparse numeric array. Full sparse
// semantics are out of scope (spec.md non-goals); this type exists so the
// loader's spmatrix option can pass the shape through unmodified.
type SparseArray struct {
	Name    string
	Dims    []int
	RowIdx  []int
	ColPtr  []int
	Real    []float64
	Imag    []float64
	Logical bool
	NzMax   int
}

func (*SparseArray) valueKind() string { return "sparse" }

// Opaque is a MAT v5 "opaque" (mxOPAQUE) array: the wire form of an MCOS (or
// unsupported Java/COM) object reference before the subsystem decoder has
// resolved it.
type Opaque struct {
	Name       string
	ClassName  string
	TypeSystem string // "MCOS" is the only system this package resolves.
	Metadata   Value  // a *NumericArray sentinel or *StructArray enumeration tag.
}

func (*Opaque) valueKind() string { return "opaque" }

// Object is the materialised result of resolving an MCOS object reference:
// a class name tag plus either the raw per-element property maps (RawData
// mode, or no converter registered for Class) or a converter's typed value.
type Object struct {
	Class string
	Dims  []int

	// Props holds one property map per element, column-major, when Typed is
	// nil. Exactly one of Props/Typed is meaningful for a given Object.
	Props []map[string]Value
	Typed Value
}

func (*Object) valueKind() string { return "object" }

// EnumerationInstance is the materialised result of resolving an MCOS
// enumeration-instance sentinel (spec.md §4.5).
type EnumerationInstance struct {
	Class            string
	BuiltinClassName string
	Dims             []int
	ValueNames       []string
	Values           []Value
}

func (*EnumerationInstance) valueKind() string { return "enum" }

// DateTimeArray is the resolved form of a MATLAB datetime object: one
// millisecond-since-epoch (UTC) value per element, plus the originating
// timezone name when the object carried one.
type DateTimeArray struct {
	Dims     []int
	Millis   []float64
	TimeZone string
}

func (*DateTimeArray) valueKind() string { return "datetime" }

// DurationArray is the resolved form of a MATLAB duration object: one value
// per element, rescaled from the wire millisecond count into the unit named
// by Format (s, m, h, d), or left in milliseconds when Format is absent or
// unrecognised.
type DurationArray struct {
	Dims   []int
	Millis []float64
	Format string
}

func (*DurationArray) valueKind() string { return "duration" }

// StringArray is the resolved form of a MATLAB string object (distinct from
// a CharArray, which backs char/cellstr data).
type StringArray struct {
	Dims   []int
	Values []string
}

func (*StringArray) valueKind() string { return "string" }

// Table is the resolved form of a MATLAB table object. The Variable* side
// attributes are only populated when their cell array's length matches
// NVars; a mismatched length (an older/newer wire layout than this decoder
// expects) leaves the field nil rather than attaching misaligned data.
type Table struct {
	NRows                int
	NVars                int
	VariableNames        []string
	Columns              []Value
	RowNames             []string
	Description          string
	VariableUnits        []string
	VariableContinuity   []string
	VariableDescriptions []string
	DimensionNames       []string
	UserData             Value
}

func (*Table) valueKind() string { return "table" }

// Timetable is the resolved form of a MATLAB timetable object: a Table whose
// rows are indexed by time rather than by name.
type Timetable struct {
	Table
	RowTimes     []float64 // raw millisecond values, one per row (datetime or duration encoding, not distinguished)
	RowTimesName string
}

// valueKind overrides the embedded Table's promoted method so a *Timetable
// identifies itself correctly to callers matching on Value's concrete type.
func (*Timetable) valueKind() string { return "timetable" }

// MatMap is the resolved form of a MATLAB containers.Map object.
type MatMap struct {
	Keys   []string
	Values []Value
}

func (*MatMap) valueKind() string { return "map" }

func prodDims(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
