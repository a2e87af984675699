// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "time"

// convertDatetime builds a *DateTimeArray from a datetime object's resolved
// properties. "data" is a complex numeric array: the real part is whole
// milliseconds since the Unix epoch (UTC), the imaginary part is a
// sub-millisecond microsecond remainder MATLAB keeps for display precision
// beyond what a float64 millisecond count alone would carry.
//
// When "tz" names a loadable IANA zone, Millis is shifted by that zone's
// UTC offset computed at conversion time (time.LoadLocation + Zone() against
// the current instant), mirroring the source reader's own "now"-based offset
// lookup. Known limitation: because the offset is resolved for the current
// instant rather than for each individual timestamp, a zone that observes
// daylight saving time will shift historical values by today's offset, not
// the offset actually in effect on the date the value represents. An
// unloadable or empty tz leaves Millis as the raw UTC value.
func convertDatetime(props map[string]Value, dims []int) (Value, bool) {
	data, ok := numericField(props, "data")
	if !ok || len(data.Real) == 0 {
		return &DateTimeArray{Dims: dims}, true
	}

	millis := make([]float64, len(data.Real))
	for i, r := range data.Real {
		imag := 0.0
		if i < len(data.Imag) {
			imag = data.Imag[i]
		}
		millis[i] = r + imag/1000.0
	}

	tz, _ := charField(props, "tz")
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			_, offsetSec := time.Now().In(loc).Zone()
			offsetMillis := float64(offsetSec) * 1000
			for i := range millis {
				millis[i] += offsetMillis
			}
		}
	}

	return &DateTimeArray{Dims: dims, Millis: millis, TimeZone: tz}, true
}
