// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

// walk recursively searches v for reference-shaped values (object-array
// sentinels, enumeration-instance tags, or opaque wrappers around either)
// and replaces them with their resolved form. Ordinary numeric/char/sparse
// leaves pass through unchanged; cell and struct arrays are walked
// element-wise and field-wise.
//
// This mirrors subsystem.py's find_object_reference: a reference can appear
// anywhere inside a heterogeneous container (a cell holding an object, a
// struct field holding an object, an object property holding a cell holding
// another object), so the walk has to be fully recursive rather than a
// single-level scan.
func (ss *subsystem) walk(v Value) (Value, error) {
	if isReferenceLike(v) {
		return ss.resolveReference(v)
	}
	if op, ok := v.(*Opaque); ok {
		return ss.resolveReference(op)
	}

	switch t := v.(type) {
	case *CellArray:
		elems := make([]Value, len(t.Elems))
		for i, e := range t.Elems {
			r, err := ss.walk(e)
			if err != nil {
				return nil, err
			}
			elems[i] = r
		}
		return &CellArray{Name: t.Name, Dims: t.Dims, Elems: elems}, nil
	case *StructArray:
		data := make([]map[string]Value, len(t.Data))
		for i, m := range t.Data {
			nm := make(map[string]Value, len(m))
			for k, fv := range m {
				r, err := ss.walk(fv)
				if err != nil {
					return nil, err
				}
				nm[k] = r
			}
			data[i] = nm
		}
		return &StructArray{Name: t.Name, Dims: t.Dims, Fields: t.Fields, Data: data}, nil
	default:
		return v, nil
	}
}
