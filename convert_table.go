// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

// convertTable builds a *Table from a table object's resolved properties:
// "data" is a cell array of columns, "varnames"/"rownames" are cell arrays
// of names, and "props" is a nested object carrying the table's descriptive
// metadata (Description, per-variable units, and so on).
func convertTable(props map[string]Value) (Value, bool) {
	t := &Table{}

	if n, ok := numericField(props, "nrows"); ok && len(n.Real) > 0 {
		t.NRows = int(n.Real[0])
	}

	varnames := cellStrings(props["varnames"])
	t.VariableNames = varnames

	if data, ok := props["data"].(*CellArray); ok {
		t.Columns = make([]Value, len(data.Elems))
		copy(t.Columns, data.Elems)
	}

	t.RowNames = cellStrings(props["rownames"])

	nvars := len(t.Columns)
	if nvars == 0 {
		nvars = len(varnames)
	}
	t.NVars = nvars

	if propsObj, ok := props["props"].(*Object); ok && len(propsObj.Props) > 0 {
		tabProps := propsObj.Props[0]
		if s, ok := charField(tabProps, "Description"); ok {
			t.Description = s
		}
		// Units/continuity/descriptions only attach when the cell array's
		// length actually matches the table's variable count; a mismatch
		// means this decoder's assumed layout doesn't hold for this file,
		// and attaching misaligned data is worse than leaving the field nil.
		if units := cellStrings(tabProps["VariableUnits"]); len(units) == nvars {
			t.VariableUnits = units
		}
		if cont := cellStrings(tabProps["VariableContinuity"]); len(cont) == nvars {
			t.VariableContinuity = cont
		}
		if desc := cellStrings(tabProps["VariableDescriptions"]); len(desc) == nvars {
			t.VariableDescriptions = desc
		}
		t.DimensionNames = cellStrings(tabProps["DimensionNames"])
		t.UserData = tabProps["UserData"]
	}

	return t, true
}

// cellStrings flattens a cell array of CharArray/StringArray elements into a
// plain []string, used for the several name lists a table object carries.
func cellStrings(v Value) []string {
	cell, ok := v.(*CellArray)
	if !ok {
		return nil
	}
	out := make([]string, len(cell.Elems))
	for i, e := range cell.Elems {
		switch t := e.(type) {
		case *CharArray:
			out[i] = t.String()
		case *StringArray:
			if len(t.Values) > 0 {
				out[i] = t.Values[0]
			}
		}
	}
	return out
}
