// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "fmt"

// resolveArray materialises an N-dimensional MCOS object array: one property
// map per object id, merged with that class's default properties, tagged
// with the (possibly handle-qualified) class name, and finally handed to the
// class-aware converters unless Options.RawData suppresses that step.
func (ss *subsystem) resolveArray(objectIDs []uint32, classID uint32, dims []int) (*Object, error) {
	props := make([]map[string]Value, len(objectIDs))

	// Every id touched by this call stays marked in ss.visiting until the
	// object is fully built, including the mergeDefaults pass below: a
	// class's default properties can themselves reference the very object
	// currently being resolved, and that recursion must still see the guard.
	marked := make([]uint32, 0, len(objectIDs))
	defer func() {
		for _, id := range marked {
			delete(ss.visiting, id)
		}
	}()

	for i, id := range objectIDs {
		if ss.visiting[id] {
			return nil, fmt.Errorf("%w: object id %d", ErrCycle, id)
		}
		ss.visiting[id] = true
		marked = append(marked, id)

		deps, err := ss.objectDependencies(id)
		if err != nil {
			return nil, err
		}
		p, err := ss.extractProperties(deps.type1ID, deps.type2ID, deps.depID)
		if err != nil {
			return nil, err
		}
		if len(p) > ss.opts.maxFields() {
			return nil, fmt.Errorf("%w: object id %d has %d properties", ErrMalformed, id, len(p))
		}
		props[i] = p
	}

	if err := ss.mergeDefaults(props, classID); err != nil {
		return nil, err
	}

	className, err := ss.className(classID)
	if err != nil {
		return nil, err
	}

	obj := &Object{Class: className, Dims: dims, Props: props}
	if ss.opts.RawData {
		return obj, nil
	}
	if typed, ok := convertClass(className, props, dims, ss.bo, ss.opts); ok {
		obj.Typed = typed
	}
	return obj, nil
}

// mergeDefaults fills in any property missing from an object's own property
// map with that class's default value, without overwriting properties the
// object already has (spec.md: "merging instance properties with class
// defaults").
func (ss *subsystem) mergeDefaults(props []map[string]Value, classID uint32) error {
	if len(ss.fwrapDefaults) < 3 {
		return nil
	}
	classDefaultsCell, ok := ss.fwrapDefaults[2].(*CellArray)
	if !ok {
		return nil
	}
	if int(classID) >= len(classDefaultsCell.Elems) {
		return nil
	}
	defaultsVal := classDefaultsCell.Elems[classID]
	if defaultsVal == nil {
		return nil
	}
	resolved, err := ss.walk(defaultsVal)
	if err != nil {
		return err
	}
	sa, ok := resolved.(*StructArray)
	if !ok || len(sa.Data) == 0 {
		return nil
	}
	defaults := sa.Data[0]
	for _, m := range props {
		for name, val := range defaults {
			if _, has := m[name]; !has {
				m[name] = val
			}
		}
	}
	return nil
}
