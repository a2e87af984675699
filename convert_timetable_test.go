// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertTimetable(t *testing.T) {
	col := &NumericArray{Real: []float64{1, 2}}
	any := &Object{Props: []map[string]Value{{
		"numRows":  &NumericArray{Real: []float64{2}},
		"numVars":  &NumericArray{Real: []float64{1}},
		"varNames": cellOfStrings("reading"),
		"data":     &CellArray{Elems: []Value{col}},
		"dimNames": cellOfStrings("Time", "Variables"),
		"rowTimes": &NumericArray{Real: []float64{0, 86400000}},
	}}}
	props := map[string]Value{"any": any}

	v, ok := convertTimetable(props)
	require.True(t, ok)
	tt, ok := v.(*Timetable)
	require.True(t, ok)
	require.Equal(t, 2, tt.NRows)
	require.Equal(t, 1, tt.NVars)
	require.Equal(t, []string{"reading"}, tt.VariableNames)
	require.Equal(t, "Time", tt.RowTimesName)
	require.Equal(t, []float64{0, 86400000}, tt.RowTimes)
	require.Len(t, tt.Columns, 1)
	require.Equal(t, "timetable", tt.valueKind())
}

func TestConvertTimetableMissingAnyProperty(t *testing.T) {
	_, ok := convertTimetable(map[string]Value{})
	require.False(t, ok)
}
