// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

// convertMap builds a *MatMap from a containers.Map object's resolved
// properties. A Map's actual key/value pairs live inside a nested
// "serialization" object (keys and values as parallel cell arrays), not
// directly on the Map object itself.
func convertMap(props map[string]Value) (Value, bool) {
	serialization, ok := props["serialization"].(*Object)
	if !ok || len(serialization.Props) == 0 {
		return &MatMap{}, true
	}
	ser := serialization.Props[0]

	keysCell, _ := ser["keys"].(*CellArray)
	valsCell, _ := ser["values"].(*CellArray)
	if keysCell == nil {
		return &MatMap{}, true
	}

	m := &MatMap{Keys: make([]string, 0, len(keysCell.Elems)), Values: make([]Value, 0, len(keysCell.Elems))}
	for i, k := range keysCell.Elems {
		var key string
		switch t := k.(type) {
		case *CharArray:
			key = t.String()
		case *StringArray:
			if len(t.Values) > 0 {
				key = t.Values[0]
			}
		default:
			continue
		}
		m.Keys = append(m.Keys, key)
		if valsCell != nil && i < len(valsCell.Elems) {
			m.Values = append(m.Values, valsCell.Elems[i])
		} else {
			m.Values = append(m.Values, nil)
		}
	}
	return m, true
}
