// Copyright 2024 The readmat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package readmat

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrUnsupportedLayout is returned while reading a single dataset stored with
// a chunked, compact, or filtered (compressed/shuffled) HDF5 layout, or whose
// datatype is not a little-endian 8-byte float, and by ReadMAT73 for a
// multi-level root-group B-tree. MATLAB
// v7.3 files almost always use plain contiguous storage for the array
// payload itself (compression, when enabled, is applied by MATLAB at the
// variable level via a chunked+deflate filter pipeline, which this minimal
// reader does not implement); callers that need those files should fall back
// to a general-purpose HDF5 library.
var ErrUnsupportedLayout = fmt.Errorf("%w: chunked/compact/filtered HDF5 dataset layout", ErrUnsupported)

var hdf5Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// MAT73Container holds the top-level variables decoded from a v7.3
// (HDF5-backed) MAT-file. Resolving the MCOS subsystem for a v7.3 file
// proceeds exactly as for v5 once the raw variables are in hand: the
// subsystem's own wire format does not depend on which container format
// carries it, since it is itself a flat byte blob stored as one more
// dataset.
type MAT73Container struct {
	Vars map[string]Value
}

// ReadMAT73 parses a v7.3 MAT-file's HDF5 container, reading every root-group
// dataset it understands into a Value. A root-group entry that fails to
// decode (a group-nested variable such as a MATLAB struct, or a dataset with
// an unsupported layout or datatype) is skipped without a log record rather
// than aborting the whole load.
func ReadMAT73(data []byte, opts *Options) (*MAT73Container, error) {
	if len(data) < len(hdf5Signature) || !bytesEqual(data[:len(hdf5Signature)], hdf5Signature) {
		return nil, fmt.Errorf("%w: missing HDF5 signature", ErrMalformed)
	}

	sb, err := readSuperblock(data)
	if err != nil {
		return nil, err
	}

	root, err := readSymbolTableGroup(data, sb, sb.rootGroupObjectHeaderAddr)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]Value, len(root))
	for name, entry := range root {
		if name == "#refs#" {
			// Internal reference-group MATLAB uses for cell/object string
			// indirection; never itself a user variable.
			continue
		}
		v, err := readDataset(data, sb, entry)
		if err != nil {
			continue
		}
		vars[name] = v
	}
	return &MAT73Container{Vars: vars}, nil
}

type superblock struct {
	offsetSize                int
	lengthSize                int
	rootGroupObjectHeaderAddr uint64
}

// readSuperblock parses just enough of an HDF5 v0/v1 superblock to locate
// the root group's object header: the size-of-offsets/lengths fields (which
// every other address/length in the file is encoded with) and the root
// symbol table entry's object header address.
func readSuperblock(data []byte) (*superblock, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("%w: superblock truncated", ErrMalformed)
	}
	versionSB := data[8]
	if versionSB > 1 {
		return nil, fmt.Errorf("%w: HDF5 superblock version %d", ErrUnsupportedVersion, versionSB)
	}
	offsetSize := int(data[13])
	lengthSize := int(data[14])

	base := 24
	if versionSB == 1 {
		base += 4
	}
	// base now points at the base address (size offsetSize), followed by
	// free-space address, end-of-file address, driver-info address (each
	// offsetSize), then the root group's symbol table entry.
	symTableOff := base + offsetSize*4
	if symTableOff+offsetSize*2+8 > len(data) {
		return nil, fmt.Errorf("%w: superblock root entry truncated", ErrMalformed)
	}
	// A symbol table entry is: link name offset, object header address,
	// cache type, reserved, scratch (16 bytes) -- we only need the object
	// header address, which follows the link name offset.
	ohAddrOff := symTableOff + offsetSize
	rootAddr := readOffset(data[ohAddrOff:], offsetSize)

	return &superblock{offsetSize: offsetSize, lengthSize: lengthSize, rootGroupObjectHeaderAddr: rootAddr}, nil
}

func readOffset(b []byte, size int) uint64 {
	var v uint64
	for i := 0; i < size && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// readSymbolTableGroup reads a version-1 object header at ohAddr expected to
// contain a Symbol Table message, and returns the B-tree/local-heap-derived
// name -> object-header-address map for its direct children. Only the
// simplest single-node B-tree (no internal fan-out) is supported, which
// covers every MATLAB-written v7.3 file this package has been grounded
// against: MATLAB never nests enough top-level variables to force a
// multi-node root group B-tree.
func readSymbolTableGroup(data []byte, sb *superblock, ohAddr uint64) (map[string]uint64, error) {
	msgs, err := readObjectHeaderMessages(data, sb, ohAddr)
	if err != nil {
		return nil, err
	}
	stMsg, ok := msgs[0x11] // Symbol Table message type
	if !ok {
		return nil, fmt.Errorf("%w: root group has no symbol table message", ErrMalformed)
	}
	if len(stMsg) < sb.offsetSize*2 {
		return nil, fmt.Errorf("%w: symbol table message truncated", ErrMalformed)
	}
	btreeAddr := readOffset(stMsg, sb.offsetSize)
	heapAddr := readOffset(stMsg[sb.offsetSize:], sb.offsetSize)

	heapDataAddr, err := readLocalHeapDataAddr(data, sb, heapAddr)
	if err != nil {
		return nil, err
	}

	return readBTreeLeafNames(data, sb, btreeAddr, heapDataAddr)
}

func readLocalHeapDataAddr(data []byte, sb *superblock, heapAddr uint64) (uint64, error) {
	off := int(heapAddr)
	if off+4+sb.lengthSize*2+sb.offsetSize > len(data) {
		return 0, fmt.Errorf("%w: local heap header truncated", ErrMalformed)
	}
	// Signature(4) + version(1) + reserved(3) + data segment size + free
	// list head offset + data segment address.
	p := off + 4 + 1 + 3
	p += sb.lengthSize * 2
	return readOffset(data[p:], sb.offsetSize), nil
}

// readBTreeLeafNames reads a single HDF5 v1 B-tree node (group-node type 0)
// and resolves each symbol table entry's name via the local heap.
func readBTreeLeafNames(data []byte, sb *superblock, btreeAddr, heapDataAddr uint64) (map[string]uint64, error) {
	off := int(btreeAddr)
	if off+4+2+2+sb.offsetSize*2 > len(data) {
		return nil, fmt.Errorf("%w: B-tree node header truncated", ErrMalformed)
	}
	if string(data[off:off+4]) != "TREE" {
		return nil, fmt.Errorf("%w: missing B-tree signature", ErrMalformed)
	}
	nodeLevel := data[off+5]
	entriesUsed := binary.LittleEndian.Uint16(data[off+6 : off+8])
	p := off + 8 + sb.offsetSize*2 // left/right sibling addresses

	if nodeLevel != 0 {
		return nil, fmt.Errorf("%w: internal (multi-level) B-tree group node", ErrUnsupportedLayout)
	}

	result := make(map[string]uint64, entriesUsed)
	for i := 0; i < int(entriesUsed); i++ {
		p += sb.lengthSize // key (heap offset of child's first name) -- unused
		childAddr := readOffset(data[p:], sb.offsetSize)
		p += sb.offsetSize

		names, err := readSymbolTableNode(data, sb, childAddr, heapDataAddr)
		if err != nil {
			return nil, err
		}
		for k, v := range names {
			result[k] = v
		}
	}
	return result, nil
}

func readSymbolTableNode(data []byte, sb *superblock, nodeAddr, heapDataAddr uint64) (map[string]uint64, error) {
	off := int(nodeAddr)
	if off+8 > len(data) || string(data[off:off+4]) != "SNOD" {
		return nil, fmt.Errorf("%w: missing symbol table node signature", ErrMalformed)
	}
	numSymbols := int(binary.LittleEndian.Uint16(data[off+6 : off+8]))
	p := off + 8

	entrySize := sb.offsetSize*2 + 4 + 4 + 16
	result := make(map[string]uint64, numSymbols)
	for i := 0; i < numSymbols; i++ {
		if p+entrySize > len(data) {
			break
		}
		nameOffset := readOffset(data[p:], sb.offsetSize)
		ohAddr := readOffset(data[p+sb.offsetSize:], sb.offsetSize)
		name := readHeapString(data, int(heapDataAddr)+int(nameOffset))
		result[name] = ohAddr
		p += entrySize
	}
	return result, nil
}

func readHeapString(data []byte, off int) string {
	end := off
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[off:end])
}

// readObjectHeaderMessages reads a version-1 HDF5 object header's messages
// into a map keyed by message type, concatenating repeated message types'
// bodies is not supported (no MATLAB-written object header repeats a type
// this reader cares about).
func readObjectHeaderMessages(data []byte, sb *superblock, ohAddr uint64) (map[uint16][]byte, error) {
	off := int(ohAddr)
	if off+16 > len(data) {
		return nil, fmt.Errorf("%w: object header truncated", ErrMalformed)
	}
	totalHeaderMsgs := int(binary.LittleEndian.Uint16(data[off+2 : off+4]))
	p := off + 16 // version(1)+reserved(1)+numMsgs(2)+refCount(4)+headerSize(4)+padding(4)

	msgs := make(map[uint16][]byte, totalHeaderMsgs)
	for i := 0; i < totalHeaderMsgs; i++ {
		if p+8 > len(data) {
			break
		}
		msgType := binary.LittleEndian.Uint16(data[p : p+2])
		msgSize := binary.LittleEndian.Uint16(data[p+2 : p+4])
		body := data[p+8 : p+8+int(msgSize)]
		msgs[msgType] = body
		p += 8 + int(msgSize)
		// Header messages are each padded to a multiple of 8 bytes.
		if pad := int(msgSize) % 8; pad != 0 {
			p += 8 - pad
		}
	}
	return msgs, nil
}

// readDataset decodes the dataset whose object header lives at ohAddr into a
// Value, consulting the dataspace, datatype, and layout messages. The
// MATLAB_class/MATLAB_empty attributes are not read; every decoded dataset
// is returned as a double array.
func readDataset(data []byte, sb *superblock, ohAddr uint64) (Value, error) {
	msgs, err := readObjectHeaderMessages(data, sb, ohAddr)
	if err != nil {
		return nil, err
	}

	layoutMsg, ok := msgs[0x08] // Data Layout message
	if !ok {
		return nil, fmt.Errorf("%w: dataset has no layout message", ErrMalformed)
	}
	if len(layoutMsg) < 2 {
		return nil, fmt.Errorf("%w: layout message truncated", ErrMalformed)
	}
	layoutClass := layoutMsg[1]
	const contiguousLayout = 1
	if layoutClass != contiguousLayout {
		return nil, ErrUnsupportedLayout
	}

	// Datatype message: class in the low 4 bits of byte 0 (1 = floating
	// point), byte-order bit in byte 1 (0 = little-endian), size at bytes 4-8.
	if dtMsg, ok := msgs[0x03]; ok && len(dtMsg) >= 8 {
		if dtMsg[0]&0x0F != 1 || dtMsg[1]&0x01 != 0 || binary.LittleEndian.Uint32(dtMsg[4:8]) != 8 {
			return nil, ErrUnsupportedLayout
		}
	}

	dataspaceMsg, ok := msgs[0x01]
	dims := []int{1, 1}
	if ok {
		dims = parseDataspaceDims(dataspaceMsg, sb)
	}

	dataAddr := readOffset(layoutMsg[2:], sb.offsetSize)
	size := prodDims(dims) * 8 // 8-byte floats only, per the datatype check above
	if int(dataAddr)+size > len(data) {
		size = len(data) - int(dataAddr)
	}
	raw := data[dataAddr : int(dataAddr)+size]

	real := make([]float64, size/8)
	for i := range real {
		bits := binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
		real[i] = math.Float64frombits(bits)
	}
	return &NumericArray{Dims: dims, Class: ClassDouble, Real: real}, nil
}

func parseDataspaceDims(msg []byte, sb *superblock) []int {
	if len(msg) < 4 {
		return []int{1, 1}
	}
	rank := int(msg[1])
	if rank == 0 {
		return []int{1, 1}
	}
	p := 4
	if len(msg) > 0 && msg[0] >= 1 {
		p = 8
	}
	dims := make([]int, rank)
	for i := 0; i < rank; i++ {
		if p+sb.lengthSize > len(msg) {
			break
		}
		dims[i] = int(readOffset(msg[p:], sb.lengthSize))
		p += sb.lengthSize
	}
	// HDF5 stores dataspace dims in C (row-major, slowest-varying first)
	// order; MATLAB's own writer already reverses them to match MATLAB's
	// column-major dimension order, so no further reversal happens here.
	return dims
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
