// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func charFieldValue(name, s string) Value {
	return &CharArray{Dims: []int{1, len(s)}, Data: utf16Units(s)}
}

func TestConvertDatetimeNoTimezoneLeavesMillisUnshifted(t *testing.T) {
	props := map[string]Value{
		"data": &NumericArray{Real: []float64{1000}, Imag: []float64{500}},
	}
	v, ok := convertDatetime(props, []int{1, 1})
	require.True(t, ok)
	dt, ok := v.(*DateTimeArray)
	require.True(t, ok)
	require.InDelta(t, 1000.5, dt.Millis[0], 1e-9)
	require.Empty(t, dt.TimeZone)
}

// TestConvertDatetimeAppliesFixedZoneOffset uses a fixed-offset, DST-free
// zone (Etc/GMT+5, UTC-5 year round) so the expected shift is deterministic
// regardless of when this test runs.
func TestConvertDatetimeAppliesFixedZoneOffset(t *testing.T) {
	props := map[string]Value{
		"data": &NumericArray{Real: []float64{0}},
		"tz":   charFieldValue("tz", "Etc/GMT+5"),
	}
	v, ok := convertDatetime(props, []int{1, 1})
	require.True(t, ok)
	dt, ok := v.(*DateTimeArray)
	require.True(t, ok)
	require.Equal(t, "Etc/GMT+5", dt.TimeZone)
	require.InDelta(t, -5*3600*1000, dt.Millis[0], 1e-6)
}

func TestConvertDatetimeUnknownZoneLeavesMillisUnshifted(t *testing.T) {
	props := map[string]Value{
		"data": &NumericArray{Real: []float64{42}},
		"tz":   charFieldValue("tz", "Not/AZone"),
	}
	v, ok := convertDatetime(props, []int{1, 1})
	require.True(t, ok)
	dt, ok := v.(*DateTimeArray)
	require.True(t, ok)
	require.Equal(t, float64(42), dt.Millis[0])
}
