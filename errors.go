// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import "errors"

// Sentinel errors, one per error kind in spec.md §7. Wrap these with
// fmt.Errorf("%w: ...") to attach context; callers can still errors.Is
// against the sentinel.
var (
	// ErrUnsupportedVersion is returned when the subsystem TOC flag falls
	// outside {2,3,4}, or when a v7.3 file's HDF5 superblock version is
	// above 1. The v7.3 reader does not read the MATLAB_int_decode attribute.
	ErrUnsupportedVersion = errors.New("readmat: unsupported FileWrapper version")

	// ErrMalformed is returned for an inconsistent reference sentinel, a
	// mis-sized property block, a truncated buffer, or invalid dimensions.
	ErrMalformed = errors.New("readmat: malformed subsystem data")

	// ErrUnknownField is returned when a property block entry's field_kind
	// is outside {1,2}.
	ErrUnknownField = errors.New("readmat: unknown property field kind")

	// ErrUnknownTypeSystem is named in the logged warning (not returned) when
	// an opaque value's _TypeSystem is not "MCOS"; the opaque value is then
	// left unresolved.
	ErrUnknownTypeSystem = errors.New("readmat: unsupported opaque type system")

	// ErrLookupFailure is returned when a handle's type2_id cannot be found
	// in the object table.
	ErrLookupFailure = errors.New("readmat: handle class instance not found")

	// ErrDecodeFailure is the error kind for class-conversion failures. No
	// function in this package returns it: the class converters tolerate
	// malformed input and return partial or empty values instead.
	ErrDecodeFailure = errors.New("readmat: class converter failed")

	// ErrUnsupported marks input this package does not decode; mat73.go's
	// ErrUnsupportedLayout wraps it. Java and function-handle opaque values
	// are not reported through it: they are logged with ErrUnknownTypeSystem
	// and left unresolved.
	ErrUnsupported = errors.New("readmat: unsupported object kind")

	// ErrCycle is returned when resolveArray re-enters an object id that is
	// already being materialised (spec.md §5/§9: defaults may reference the
	// same class; this breaks the cycle rather than looping forever).
	ErrCycle = errors.New("readmat: cyclic object reference")
)
