// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

const objectReferenceSentinel = 0xDD000000

// isObjectReference reports whether v is a well-formed MCOS object-reference
// sentinel: a column vector of uint32s shaped [N,1] starting with the magic
// value 0xDD000000, an ndims field, a dims block whose product is the object
// count, a block of positive object ids, and a trailing positive class id --
// with the exact invariant object_ids.len()+ndims+3 == len(column) that rules
// out any all-uint32 array that merely happens to start with the sentinel.
func isObjectReference(v Value) bool {
	n, ok := v.(*NumericArray)
	if !ok || n.Class != ClassUint32 || n.U32 == nil {
		return false
	}
	if len(n.Dims) != 2 || n.Dims[1] != 1 {
		return false
	}
	col := n.U32
	if len(col) < 6 {
		return false
	}
	if col[0] != objectReferenceSentinel {
		return false
	}
	ndims := int(col[1])
	if ndims <= 1 {
		return false
	}
	if 2+ndims > len(col) {
		return false
	}
	dims := col[2 : 2+ndims]
	total := 1
	for _, d := range dims {
		total *= int(d)
	}
	if total <= 0 {
		return false
	}
	if 2+ndims+total > len(col) {
		return false
	}
	objectIDs := col[2+ndims : 2+ndims+total]
	for _, id := range objectIDs {
		if id <= 0 {
			return false
		}
	}
	if len(objectIDs)+ndims+3 != len(col) {
		return false
	}
	classID := col[len(col)-1]
	return classID > 0
}

// isEnumerationInstanceTag reports whether v is the struct-array sentinel
// MATLAB uses to wrap an enumeration instance inside an opaque element: a 1x1
// struct carrying an EnumerationInstanceTag field equal to the sentinel.
func isEnumerationInstanceTag(v Value) bool {
	sa, ok := v.(*StructArray)
	if !ok || len(sa.Data) == 0 {
		return false
	}
	tag, ok := sa.Data[0]["EnumerationInstanceTag"]
	if !ok {
		return false
	}
	n, ok := tag.(*NumericArray)
	if !ok || len(n.Real) == 0 {
		return false
	}
	return uint32(n.Real[0]) == objectReferenceSentinel
}

// isReferenceLike is the union isObjectReference / isEnumerationInstanceTag
// test used by walk to decide whether a value needs resolveReference.
func isReferenceLike(v Value) bool {
	return isObjectReference(v) || isEnumerationInstanceTag(v)
}

// resolveReference dispatches a reference-shaped value (a plain object-array
// sentinel, or an enumeration-instance struct) to the matching resolver, and
// is also the entry point for an *Opaque value whose Metadata already is one
// of those two shapes.
func (ss *subsystem) resolveReference(v Value) (Value, error) {
	switch t := v.(type) {
	case *Opaque:
		if t.TypeSystem != "MCOS" {
			ss.log.Warnf("opaque value %q: %v: %s", t.Name, ErrUnknownTypeSystem, t.TypeSystem)
			return t, nil
		}
		return ss.resolveReference(t.Metadata)
	case *NumericArray:
		if !isObjectReference(t) {
			return t, nil
		}
		return ss.resolveNormalReference(t)
	case *StructArray:
		if !isEnumerationInstanceTag(t) {
			return t, nil
		}
		return ss.resolveEnumeration(t)
	default:
		return v, nil
	}
}

// resolveNormalReference decodes a plain object-reference sentinel: ndims,
// dims, object ids, and a trailing class id, then hands off to resolveArray.
func (ss *subsystem) resolveNormalReference(n *NumericArray) (Value, error) {
	col := n.U32
	ndims := int(col[1])
	dims32 := col[2 : 2+ndims]
	dims := make([]int, ndims)
	total := 1
	for i, d := range dims32 {
		dims[i] = int(d)
		total *= int(d)
	}
	objectIDs := col[2+ndims : 2+ndims+total]
	classID := col[len(col)-1]
	return ss.resolveArray(objectIDs, classID, dims)
}
