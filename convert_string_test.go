// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildStringAnyWords packs the "any" property payload convertString
// expects: [version, ndims, shape..., counts..., code units...].
func buildStringAnyWords(values []string) []float64 {
	words := []float64{1, 2, 1, float64(len(values))}
	for _, s := range values {
		words = append(words, float64(len(s)))
	}
	for _, s := range values {
		for _, r := range s {
			words = append(words, float64(r))
		}
	}
	return words
}

func TestConvertStringDecodesValues(t *testing.T) {
	props := map[string]Value{
		"any": &NumericArray{Real: buildStringAnyWords([]string{"foo", "bar"})},
	}
	v, ok := convertString(props, []int{1, 2}, binary.LittleEndian)
	require.True(t, ok)
	s := v.(*StringArray)
	require.Equal(t, []string{"foo", "bar"}, s.Values)
	require.Equal(t, []int{1, 2}, s.Dims)
}

func TestConvertStringEmptyAnyProperty(t *testing.T) {
	v, ok := convertString(map[string]Value{}, []int{0, 0}, binary.LittleEndian)
	require.True(t, ok)
	s := v.(*StringArray)
	require.Nil(t, s.Values)
}

func TestConvertStringTruncatedHeaderIsTolerated(t *testing.T) {
	props := map[string]Value{"any": &NumericArray{Real: []float64{1}}}
	v, ok := convertString(props, []int{1, 1}, binary.LittleEndian)
	require.True(t, ok)
	require.Nil(t, v.(*StringArray).Values)
}
