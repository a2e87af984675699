// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertMapPairsUpKeysAndValues(t *testing.T) {
	props := map[string]Value{
		"serialization": &Object{Props: []map[string]Value{{
			"keys":   cellOfStrings("a", "b"),
			"values": &CellArray{Elems: []Value{&NumericArray{Real: []float64{1}}, &NumericArray{Real: []float64{2}}}},
		}}},
	}
	v, ok := convertMap(props)
	require.True(t, ok)
	m := v.(*MatMap)
	require.Equal(t, []string{"a", "b"}, m.Keys)
	require.Len(t, m.Values, 2)
}

func TestConvertMapNoSerialization(t *testing.T) {
	v, ok := convertMap(map[string]Value{})
	require.True(t, ok)
	m := v.(*MatMap)
	require.Empty(t, m.Keys)
}
