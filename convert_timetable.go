// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

// convertTimetable builds a *Timetable from a timetable object's resolved
// properties. Unlike table, a timetable packs its whole payload inside a
// single nested "any" struct property, with field names of its own
// (numRows/numVars/varNames/data/rowTimes/dimNames) rather than table's flat
// nrows/varnames/data/rownames/props layout.
//
// rowTimes is read as a plain numeric field: it may be a datetime's
// millisecond-since-epoch encoding or a duration's millisecond count
// depending on how the timetable was constructed, and this decoder does not
// attempt to distinguish the two -- callers that need that distinction
// should resolve RowTimesName against the object's own field metadata. This
// mirrors the upstream reader's own acknowledged incompleteness for this
// class.
func convertTimetable(props map[string]Value) (Value, bool) {
	anyObj, ok := props["any"].(*Object)
	if !ok || len(anyObj.Props) == 0 {
		return nil, false
	}
	fields := anyObj.Props[0]

	tt := &Timetable{}

	if n, ok := numericField(fields, "numRows"); ok && len(n.Real) > 0 {
		tt.NRows = int(n.Real[0])
	}
	if n, ok := numericField(fields, "numVars"); ok && len(n.Real) > 0 {
		tt.NVars = int(n.Real[0])
	}

	tt.VariableNames = cellStrings(fields["varNames"])

	if data, ok := fields["data"].(*CellArray); ok {
		tt.Columns = make([]Value, len(data.Elems))
		copy(tt.Columns, data.Elems)
	}

	dimNames := cellStrings(fields["dimNames"])
	if len(dimNames) > 0 {
		tt.DimensionNames = dimNames
		tt.RowTimesName = dimNames[0]
	}

	if rt, ok := numericField(fields, "rowTimes"); ok {
		tt.RowTimes = rt.Real
	}

	return tt, true
}
