// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertClassDispatchesRegisteredClasses(t *testing.T) {
	empty := []map[string]Value{{}}
	timetableProps := []map[string]Value{{"any": &Object{Props: []map[string]Value{{}}}}}

	cases := []struct {
		class string
		props []map[string]Value
		want  string
	}{
		{"datetime", empty, "datetime"},
		{"duration", empty, "duration"},
		{"string", empty, "string"},
		{"table", empty, "table"},
		{"timetable", timetableProps, "timetable"},
		{"containers.Map", empty, "map"},
	}
	for _, c := range cases {
		v, ok := convertClass(c.class, c.props, []int{1, 1}, binary.LittleEndian, &Options{})
		require.True(t, ok, "class %q should be recognised", c.class)
		require.Equal(t, c.want, v.valueKind())
	}
}

func TestConvertClassDeclinesUnmodelledClasses(t *testing.T) {
	props := []map[string]Value{{}}
	for _, class := range []string{"categorical", "calendarDuration", "dictionary", "SomeUserClass"} {
		_, ok := convertClass(class, props, []int{1, 1}, binary.LittleEndian, &Options{})
		require.False(t, ok, "class %q should fall back to raw props", class)
	}
}

func TestConvertClassNoElements(t *testing.T) {
	_, ok := convertClass("table", nil, []int{0, 0}, binary.LittleEndian, &Options{})
	require.False(t, ok)
}
