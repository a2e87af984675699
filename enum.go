// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// resolveEnumeration decodes an enumeration-instance sentinel struct (the
// one isEnumerationInstanceTag matched) into an *EnumerationInstance: the
// enumeration's class name, its built-in base class if any, and the
// per-element value name plus resolved underlying value.
//
// The struct's ValueIndices array gives both the enumeration array's shape
// and, per element, which entry of the Values cell array to resolve; both
// ValueIndices and the parallel ValueNames index array are already stored
// column-major by the primitive reader, so no Fortran-order reshape is
// needed here (only the raw Python reference implementation needed one,
// since numpy defaults to row-major).
func (ss *subsystem) resolveEnumeration(sa *StructArray) (*EnumerationInstance, error) {
	if len(sa.Data) == 0 {
		return nil, fmt.Errorf("%w: empty enumeration instance struct", ErrMalformed)
	}
	fields := sa.Data[0]

	classIdx, err := scalarUint32(fields["ClassName"])
	if err != nil {
		return nil, fmt.Errorf("%w: enumeration ClassName: %v", ErrMalformed, err)
	}
	className, err := ss.className(classIdx)
	if err != nil {
		return nil, err
	}

	builtinClassName := ""
	if builtinIdx, err := scalarUint32(fields["BuiltinClassName"]); err == nil && builtinIdx != 0 {
		if name, err := ss.className(builtinIdx); err == nil {
			builtinClassName = name
		}
	}

	valueNameIdx, ok := fields["ValueNames"].(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("%w: enumeration ValueNames is not numeric", ErrMalformed)
	}
	valueIndices, ok := fields["ValueIndices"].(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("%w: enumeration ValueIndices is not numeric", ErrMalformed)
	}

	valueNames := make([]string, len(valueNameIdx.Real))
	for i, f := range valueNameIdx.Real {
		name, ok := ss.nameAt(uint32(f))
		if !ok {
			return nil, fmt.Errorf("%w: enumeration value name index %v", ErrMalformed, f)
		}
		valueNames[i] = name
	}

	valuesCell, _ := fields["Values"].(*CellArray)

	// An enumeration with no Values cell (or an empty one) resolves to an
	// empty Values slice, not a same-shaped slice of nil placeholders --
	// matching wrap_enumeration_instance's explicit len(enum_array) == 0
	// special case in the upstream reader.
	var values []Value
	if valuesCell != nil && len(valuesCell.Elems) > 0 {
		values = make([]Value, len(valueIndices.Real))
		for i, f := range valueIndices.Real {
			idx := int(f)
			if idx < 0 || idx >= len(valuesCell.Elems) {
				continue
			}
			resolved, err := ss.resolveReference(valuesCell.Elems[idx])
			if err != nil {
				return nil, err
			}
			values[i] = resolved
		}
	}

	return &EnumerationInstance{
		Class:            className,
		BuiltinClassName: builtinClassName,
		Dims:             valueIndices.Dims,
		ValueNames:       valueNames,
		Values:           values,
	}, nil
}

// scalarUint32 reads the single element of a 1x1 numeric array as a uint32,
// used for the small index fields (ClassName, BuiltinClassName) in an
// enumeration-instance struct.
func scalarUint32(v Value) (uint32, error) {
	n, ok := v.(*NumericArray)
	if !ok {
		return 0, fmt.Errorf("not a numeric array")
	}
	if n.U32 != nil && len(n.U32) > 0 {
		return n.U32[0], nil
	}
	if len(n.Real) == 0 {
		return 0, fmt.Errorf("empty numeric array")
	}
	return uint32(n.Real[0]), nil
}
