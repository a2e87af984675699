// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

// durationDivisors maps a duration object's "fmt" field to the millisecond
// divisor that rescales the wire value into that unit. An fmt absent from
// this table (including MATLAB's default "hh:mm:ss" rendering) keeps the
// value as raw milliseconds.
var durationDivisors = map[string]float64{
	"s": 1000,
	"m": 60000,
	"h": 3600000,
	"d": 86400000,
}

// convertDuration builds a *DurationArray from a duration object's resolved
// properties. "millis" holds the duration in milliseconds; "fmt" selects the
// unit MATLAB rescales that value into for display (s, m, h, d), with an
// unrecognised or absent fmt leaving the value in milliseconds.
func convertDuration(props map[string]Value, dims []int) (Value, bool) {
	millisField, ok := numericField(props, "millis")
	if !ok {
		return &DurationArray{Dims: dims}, true
	}
	fmtStr, _ := charField(props, "fmt")

	millis := millisField.Real
	if div, ok := durationDivisors[fmtStr]; ok {
		rescaled := make([]float64, len(millis))
		for i, v := range millis {
			rescaled[i] = v / div
		}
		millis = rescaled
	}

	return &DurationArray{Dims: dims, Millis: millis, Format: fmtStr}, true
}
