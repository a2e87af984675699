// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"time"

	"github.com/foreverallama/readmat/log"
)

// convertClass dispatches a resolved object's per-element property maps to
// the matching class-aware converter. props has one entry per element of
// dims; convertClass only handles the scalar (1x1) case that every built-in
// opaque class actually uses on the wire -- a non-scalar "array of tables"
// is not a thing MATLAB produces, so element 0 is authoritative whenever a
// converter fires. The bool result reports whether className was recognised;
// callers fall back to the raw *Object.Props representation when it is not.
func convertClass(className string, props []map[string]Value, dims []int, bo binary.ByteOrder, opts *Options) (Value, bool) {
	if len(props) == 0 {
		return nil, false
	}
	first := props[0]

	switch className {
	case "datetime":
		if tz, _ := charField(first, "tz"); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				log.NewHelper(opts.loggerOrDefault()).Warnf("datetime: unknown time zone %q, keeping UTC: %v", tz, err)
			}
		}
		return convertDatetime(first, dims)
	case "duration":
		return convertDuration(first, dims)
	case "string":
		if data, ok := numericField(first, "any"); ok && len(data.Real) > 0 && data.Real[0] != 1 {
			log.NewHelper(opts.loggerOrDefault()).Warnf("string: unexpected format version %v", data.Real[0])
		}
		return convertString(first, dims, bo)
	case "table":
		return convertTable(first)
	case "timetable":
		return convertTimetable(first)
	case "containers.Map":
		return convertMap(first)
	case "categorical", "calendarDuration", "dictionary":
		// These classes carry enough structure (categories/value lists,
		// components, key/value pairs) that collapsing them further without
		// a concrete corpus of test files to verify against risks silently
		// getting the semantics wrong; expose the raw property map instead,
		// same as an unrecognised class.
		return nil, false
	default:
		return nil, false
	}
}

func numericField(props map[string]Value, name string) (*NumericArray, bool) {
	v, ok := props[name]
	if !ok {
		return nil, false
	}
	n, ok := v.(*NumericArray)
	return n, ok
}

func charField(props map[string]Value, name string) (string, bool) {
	v, ok := props[name]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case *CharArray:
		return t.String(), true
	case *StringArray:
		if len(t.Values) > 0 {
			return t.Values[0], true
		}
	}
	return "", false
}
