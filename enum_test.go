// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func classNameField(id uint32) *NumericArray {
	return &NumericArray{Class: ClassUint32, Real: []float64{float64(id)}, U32: []uint32{id}}
}

// TestResolveEnumerationEmptyValues covers spec.md's testable invariant that
// an enumeration instance with no Values cell resolves to an empty _Values
// slice rather than a slice shaped like ValueIndices and filled with nils.
func TestResolveEnumerationEmptyValues(t *testing.T) {
	ss := newFixtureSubsystem(t)

	sa := &StructArray{
		Dims: []int{1, 1},
		Data: []map[string]Value{{
			"ClassName":        classNameField(0),
			"BuiltinClassName": classNameField(0),
			"ValueNames":       &NumericArray{Real: []float64{}},
			"ValueIndices":     &NumericArray{Real: []float64{}, Dims: []int{0, 1}},
		}},
	}

	inst, err := ss.resolveEnumeration(sa)
	require.NoError(t, err)
	require.Equal(t, "MyClass", inst.Class)
	require.Empty(t, inst.Values)
}

// TestResolveEnumerationResolvesValues covers the non-empty case: each
// ValueIndices entry selects the matching Values cell element, resolved
// through resolveReference the same way any other property value would be.
func TestResolveEnumerationResolvesValues(t *testing.T) {
	ss := newFixtureSubsystem(t)

	units := []uint16{'o', 'k'}
	valuesCell := &CellArray{Dims: []int{1, 1}, Elems: []Value{&CharArray{Dims: []int{1, 2}, Data: units}}}

	sa := &StructArray{
		Dims: []int{1, 1},
		Data: []map[string]Value{{
			"ClassName":        classNameField(0),
			"BuiltinClassName": classNameField(0),
			"ValueNames":       &NumericArray{Real: []float64{2}},
			"ValueIndices":     &NumericArray{Real: []float64{0}, Dims: []int{1, 1}},
			"Values":           valuesCell,
		}},
	}

	inst, err := ss.resolveEnumeration(sa)
	require.NoError(t, err)
	require.Equal(t, []string{"propA"}, inst.ValueNames)
	require.Len(t, inst.Values, 1)
	ch, ok := inst.Values[0].(*CharArray)
	require.True(t, ok)
	require.Equal(t, "ok", ch.String())
}
