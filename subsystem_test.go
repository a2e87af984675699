// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foreverallama/readmat/log"
)

// buildFixtureMetadata hand-assembles a minimal FileWrapper metadata blob for
// a single NoConstructor-style object ("MyClass" with one boolean property
// "propA" set true, no handles, no defaults) at the offsets subsystem.go,
// classtable.go, objecttable.go, properties.go, and handles.go expect.
func buildFixtureMetadata(bo binary.ByteOrder) []byte {
	buf := make([]byte, 400)
	put := func(off int, v uint32) { bo.PutUint32(buf[off:off+4], v) }

	const (
		namesStart  = 32
		classBase   = 46 // == byteEnd of names
		objBase     = 78 // == classBase + 2*16 (two class table entries)
		objEnd      = 126
		type1Offset = 200
		handleOff   = 300
	)

	put(0, 3)           // TOC version
	put(4, 0)           // unused
	put(8, classBase)   // names byteEnd / class table base
	put(12, type1Offset) // type1 property-block table base
	put(16, objBase)    // object descriptor table base / dep-id table start
	put(20, objEnd)     // object descriptor table end / type2 property-block table base
	put(24, handleOff)  // handle-attachment table base

	copy(buf[namesStart:], "MyClass\x00propA\x00")

	// Class table: class id 0 and class id 1 both name "MyClass" (id 1 exists
	// solely so object-reference sentinels, whose class_id must be > 0 per
	// their wire-format invariant, have a class id to resolve in this fixture).
	put(classBase+0, 0)
	put(classBase+4, 1)
	put(classBase+16, 0)
	put(classBase+20, 1)

	// Object descriptor table: 24-byte zero row for object id 0, then the
	// real row for object id 1.
	put(objBase+24+0, 0) // class id
	put(objBase+24+12, 1) // type1 id
	put(objBase+24+16, 0) // type2 id
	put(objBase+24+20, 0) // dep id

	// type1 property-block table: block 0 (skipped, empty), block 1 (the
	// real one) holding a single field entry {fieldIdx=2 ("propA"),
	// fieldType=2 (inline bool), fieldValue=1}.
	put(type1Offset, 0) // block 0: nblocks=0
	// blockBytes=0, (0+4)%8 != 0 so the skip adds 4 padding bytes: next
	// block starts at type1Offset+4+0+4 = type1Offset+8.
	put(type1Offset+8, 1) // block 1: nblocks=1
	put(type1Offset+12, 2) // field index -> "propA"
	put(type1Offset+16, 2) // field type 2: inline bool
	put(type1Offset+20, 1) // field value: true

	// Handle-attachment table: dep id 0 has zero handles.
	put(handleOff, 0)

	return buf
}

func newFixtureSubsystem(t *testing.T) *subsystem {
	t.Helper()
	bo := binary.LittleEndian
	meta := buildFixtureMetadata(bo)
	ss := &subsystem{
		bo:             bo,
		opts:           &Options{},
		log:            log.NewHelper(log.NewStdLogger(io.Discard)),
		fwrapMetadata:  meta,
		tocVersion:     3,
		versionOffsets: 6,
		visiting:       make(map[uint32]bool),
	}
	names, err := ss.readNames(6)
	require.NoError(t, err)
	ss.names = names
	return ss
}

func TestClassNameLookup(t *testing.T) {
	ss := newFixtureSubsystem(t)
	name, err := ss.className(0)
	require.NoError(t, err)
	require.Equal(t, "MyClass", name)
}

func TestObjectDependenciesLookup(t *testing.T) {
	ss := newFixtureSubsystem(t)
	deps, err := ss.objectDependencies(1)
	require.NoError(t, err)
	require.Equal(t, objectDeps{classID: 0, type1ID: 1, type2ID: 0, depID: 0}, deps)
}

func TestExtractPropertiesNoConstructor(t *testing.T) {
	ss := newFixtureSubsystem(t)
	props, err := ss.extractProperties(1, 0, 0)
	require.NoError(t, err)
	require.Contains(t, props, "propA")
	n, ok := props["propA"].(*NumericArray)
	require.True(t, ok)
	require.Equal(t, ClassLogical, n.Class)
	require.Equal(t, float64(1), n.Real[0])
}

func TestResolveArrayNoConstructor(t *testing.T) {
	ss := newFixtureSubsystem(t)
	ss.opts.RawData = true
	obj, err := ss.resolveArray([]uint32{1}, 0, []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, "MyClass", obj.Class)
	require.Len(t, obj.Props, 1)
	require.Contains(t, obj.Props[0], "propA")
}

func TestResolveArrayCycleGuard(t *testing.T) {
	ss := newFixtureSubsystem(t)
	ss.visiting[1] = true
	_, err := ss.resolveArray([]uint32{1}, 0, []int{1, 1})
	require.ErrorIs(t, err, ErrCycle)
}

// TestResolveArrayCycleGuardCoversDefaults exercises the real path the
// synthetic flag above does not: a class default property that itself
// references the object currently being resolved. The guard has to stay
// live through mergeDefaults's own ss.walk -> resolveReference ->
// resolveArray recursion, not just through extractProperties, or this
// re-entry silently succeeds instead of reporting ErrCycle.
func TestResolveArrayCycleGuardCoversDefaults(t *testing.T) {
	ss := newFixtureSubsystem(t)

	selfRef := buildReference([]int{1, 1}, []uint32{1}, 1)
	classDefaults := &CellArray{
		Dims: []int{1, 1},
		Elems: []Value{
			&StructArray{
				Dims:   []int{1, 1},
				Fields: []string{"propB"},
				Data:   []map[string]Value{{"propB": selfRef}},
			},
		},
	}
	ss.fwrapDefaults = []Value{nil, nil, classDefaults}

	_, err := ss.resolveArray([]uint32{1}, 0, []int{1, 1})
	require.ErrorIs(t, err, ErrCycle)
}

// TestWalkResolvesOpaqueReference exercises the full opaque-value ->
// sentinel-check -> resolveArray path that walk() drives for every property
// and cell/struct element encountered while decoding a variable.
func TestWalkResolvesOpaqueReference(t *testing.T) {
	ss := newFixtureSubsystem(t)
	ss.opts.RawData = true

	ref := buildReference([]int{1, 1}, []uint32{1}, 1)
	opaque := &Opaque{ClassName: "MyClass", TypeSystem: "MCOS", Metadata: ref}

	resolved, err := ss.walk(opaque)
	require.NoError(t, err)
	obj, ok := resolved.(*Object)
	require.True(t, ok)
	require.Equal(t, "MyClass", obj.Class)
	require.Contains(t, obj.Props[0], "propA")
}

// TestWalkThroughCellArray exercises the heterogeneous-container case:
// an object reference nested inside a cell array must still be found and
// resolved, not just one living at the top level.
func TestWalkThroughCellArray(t *testing.T) {
	ss := newFixtureSubsystem(t)
	ss.opts.RawData = true

	ref := buildReference([]int{1, 1}, []uint32{1}, 1)
	opaque := &Opaque{ClassName: "MyClass", TypeSystem: "MCOS", Metadata: ref}
	cell := &CellArray{Dims: []int{1, 1}, Elems: []Value{opaque}}

	resolved, err := ss.walk(cell)
	require.NoError(t, err)
	outCell, ok := resolved.(*CellArray)
	require.True(t, ok)
	obj, ok := outCell.Elems[0].(*Object)
	require.True(t, ok)
	require.Equal(t, "MyClass", obj.Class)
}
