// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertDurationRescalesByFmt(t *testing.T) {
	cases := []struct {
		fmtStr string
		want   float64
	}{
		{"s", 1},
		{"m", 1.0 / 60},
		{"h", 1.0 / 3600},
		{"d", 1.0 / 86400},
		{"", 1000},
		{"hh:mm:ss", 1000},
	}
	for _, c := range cases {
		props := map[string]Value{
			"millis": &NumericArray{Real: []float64{1000}},
			"fmt":    &CharArray{Dims: []int{1, len(c.fmtStr)}, Data: utf16Units(c.fmtStr)},
		}
		v, ok := convertDuration(props, []int{1, 1})
		require.True(t, ok)
		d, ok := v.(*DurationArray)
		require.True(t, ok)
		require.InDelta(t, c.want, d.Millis[0], 1e-9, "fmt=%q", c.fmtStr)
		require.Equal(t, c.fmtStr, d.Format)
	}
}

func TestConvertDurationMissingMillis(t *testing.T) {
	v, ok := convertDuration(map[string]Value{}, []int{1, 1})
	require.True(t, ok)
	d, ok := v.(*DurationArray)
	require.True(t, ok)
	require.Nil(t, d.Millis)
}

func utf16Units(s string) []uint16 {
	out := make([]uint16, len(s))
	for i, r := range s {
		out[i] = uint16(r)
	}
	return out
}
