// Package flatbuf implements the relocatable flat buffer encoding used by scene
// files: a Builder that grows a single byte buffer from its tail, and zero-copy
// readers (Table, Vector, Struct) over finished bytes.
//
// Layout:
//
//	[root uoffset][padding, vtables, tables, vectors, strings ...]
//
// Every offset except the root is stored relative to its own location, so a
// finished buffer can be copied or memory-mapped without rewriting pointers.
package flatbuf

import (
	"encoding/binary"
	"errors"
	"math"
)

// Offset types.
type (
	UOffsetT = uint32 // unsigned offset, relative to where it is stored
	SOffsetT = int32  // signed offset from a table to its vtable
	VOffsetT = uint16 // field offset inside a vtable
)

// Scalar sizes in bytes.
const (
	SizeBool     = 1
	SizeUint8    = 1
	SizeInt8     = 1
	SizeUint16   = 2
	SizeInt16    = 2
	SizeUint32   = 4
	SizeInt32    = 4
	SizeFloat32  = 4
	SizeUOffsetT = 4
	SizeSOffsetT = 4
	SizeVOffsetT = 2
)

// VtableMetadataFields is the number of leading vtable entries that are not
// field offsets: the vtable byte size and the table byte size.
const VtableMetadataFields = 2

// Format errors.
var (
	ErrMalformedBuffer = errors.New("malformed buffer")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrCountMismatch   = errors.New("vector element count mismatch")
	ErrBuilderState    = errors.New("invalid builder state")
)

var byteOrder = binary.LittleEndian

func getFloat32(b []byte) float32 { return math.Float32frombits(byteOrder.Uint32(b)) }

func putFloat32(b []byte, v float32) { byteOrder.PutUint32(b, math.Float32bits(v)) }

// slotOffset returns the vtable byte offset that stores the field offset of slot.
func slotOffset(slot int) VOffsetT {
	return VOffsetT((slot + VtableMetadataFields) * SizeVOffsetT)
}
