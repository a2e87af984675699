// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cellOfStrings(ss ...string) *CellArray {
	elems := make([]Value, len(ss))
	for i, s := range ss {
		elems[i] = charFieldValue("", s)
	}
	return &CellArray{Dims: []int{1, len(ss)}, Elems: elems}
}

func TestConvertTableAttachesMatchingLengthSideAttributes(t *testing.T) {
	col := &NumericArray{Real: []float64{1, 2, 3}}
	props := map[string]Value{
		"nrows":    &NumericArray{Real: []float64{3}},
		"varnames": cellOfStrings("a", "b"),
		"data":     &CellArray{Elems: []Value{col, col}},
		"props": &Object{Props: []map[string]Value{{
			"Description":          charFieldValue("", "a table"),
			"VariableUnits":        cellOfStrings("kg", "m"),
			"VariableContinuity":   cellOfStrings("step"), // length mismatch: 1 vs nvars 2
			"VariableDescriptions": cellOfStrings("first", "second"),
			"DimensionNames":       cellOfStrings("Row", "Variables"),
			"UserData":             &NumericArray{Real: []float64{7}},
		}}},
	}

	v, ok := convertTable(props)
	require.True(t, ok)
	tab, ok := v.(*Table)
	require.True(t, ok)

	require.Equal(t, 3, tab.NRows)
	require.Equal(t, 2, tab.NVars)
	require.Equal(t, []string{"a", "b"}, tab.VariableNames)
	require.Equal(t, "a table", tab.Description)
	require.Equal(t, []string{"kg", "m"}, tab.VariableUnits)
	require.Nil(t, tab.VariableContinuity, "length-1 continuity list must not attach against nvars=2")
	require.Equal(t, []string{"first", "second"}, tab.VariableDescriptions)
	require.Equal(t, []string{"Row", "Variables"}, tab.DimensionNames)
	require.NotNil(t, tab.UserData)
}

func TestConvertTableNoPropsObject(t *testing.T) {
	props := map[string]Value{
		"varnames": cellOfStrings("x"),
		"data":     &CellArray{Elems: []Value{&NumericArray{Real: []float64{1}}}},
	}
	v, ok := convertTable(props)
	require.True(t, ok)
	tab := v.(*Table)
	require.Equal(t, 1, tab.NVars)
	require.Nil(t, tab.VariableUnits)
	require.Nil(t, tab.UserData)
}
