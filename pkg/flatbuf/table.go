package flatbuf

import "fmt"

// Table is a read-only view of a table record. Opening a table checks that
// its header, vtable and declared byte size lie inside the buffer, so field
// reads afterwards never touch memory outside the table.
type Table struct {
	Bytes []byte
	Pos   UOffsetT

	vtable    UOffsetT
	vtableLen VOffsetT
	tableLen  VOffsetT
}

// GetRoot reads the absolute root offset stored in the first four bytes of
// buf and opens the table it points to.
func GetRoot(buf []byte) (Table, error) {
	if len(buf) < SizeUOffsetT {
		return Table{}, fmt.Errorf("%w: %d bytes is too short for a root offset", ErrMalformedBuffer, len(buf))
	}
	return NewTable(buf, byteOrder.Uint32(buf))
}

// NewTable opens the table whose header starts at pos.
func NewTable(buf []byte, pos UOffsetT) (Table, error) {
	n := uint64(len(buf))
	if uint64(pos)+SizeSOffsetT > n {
		return Table{}, fmt.Errorf("%w: table at %d outside %d-byte buffer", ErrMalformedBuffer, pos, n)
	}
	vt := int64(pos) - int64(SOffsetT(byteOrder.Uint32(buf[pos:])))
	if vt < 0 || uint64(vt)+VtableMetadataFields*SizeVOffsetT > n {
		return Table{}, fmt.Errorf("%w: vtable of table at %d lies at %d", ErrMalformedBuffer, pos, vt)
	}
	vtLen := byteOrder.Uint16(buf[vt:])
	tLen := byteOrder.Uint16(buf[vt+SizeVOffsetT:])
	if vtLen < VtableMetadataFields*SizeVOffsetT || vtLen%SizeVOffsetT != 0 || uint64(vt)+uint64(vtLen) > n {
		return Table{}, fmt.Errorf("%w: vtable at %d declares %d bytes", ErrMalformedBuffer, vt, vtLen)
	}
	if tLen < SizeSOffsetT || uint64(pos)+uint64(tLen) > n {
		return Table{}, fmt.Errorf("%w: table at %d declares %d bytes", ErrMalformedBuffer, pos, tLen)
	}
	return Table{
		Bytes:     buf,
		Pos:       pos,
		vtable:    UOffsetT(vt),
		vtableLen: vtLen,
		tableLen:  tLen,
	}, nil
}

// Offset returns the byte offset of the field in slot relative to the table
// start, or 0 when the field was never written. Slots beyond the vtable, as
// written by an older schema, also report 0.
func (t Table) Offset(slot int) VOffsetT {
	if slot < 0 {
		return 0
	}
	vo := slotOffset(slot)
	if vo+SizeVOffsetT > t.vtableLen {
		return 0
	}
	return byteOrder.Uint16(t.Bytes[t.vtable+UOffsetT(vo):])
}

// Present reports whether slot was written.
func (t Table) Present(slot int) bool {
	_, ok := t.field(slot, 1)
	return ok
}

func (t Table) field(slot, size int) ([]byte, bool) {
	o := t.Offset(slot)
	if o == 0 || int(o)+size > int(t.tableLen) {
		return nil, false
	}
	return t.Bytes[t.Pos+UOffsetT(o):], true
}

// Scalar getters return d when the field is absent.

func (t Table) GetBool(slot int, d bool) bool {
	if b, ok := t.field(slot, SizeBool); ok {
		return b[0] != 0
	}
	return d
}

func (t Table) GetUint8(slot int, d uint8) uint8 {
	if b, ok := t.field(slot, SizeUint8); ok {
		return b[0]
	}
	return d
}

func (t Table) GetUint16(slot int, d uint16) uint16 {
	if b, ok := t.field(slot, SizeUint16); ok {
		return byteOrder.Uint16(b)
	}
	return d
}

func (t Table) GetUint32(slot int, d uint32) uint32 {
	if b, ok := t.field(slot, SizeUint32); ok {
		return byteOrder.Uint32(b)
	}
	return d
}

func (t Table) GetInt32(slot int, d int32) int32 {
	if b, ok := t.field(slot, SizeInt32); ok {
		return int32(byteOrder.Uint32(b))
	}
	return d
}

func (t Table) GetFloat32(slot int, d float32) float32 {
	if b, ok := t.field(slot, SizeFloat32); ok {
		return getFloat32(b)
	}
	return d
}

// indirect follows the offset stored in slot. ok is false when the field is
// absent.
func (t Table) indirect(slot int) (pos UOffsetT, ok bool, err error) {
	b, ok := t.field(slot, SizeUOffsetT)
	if !ok {
		return 0, false, nil
	}
	at := uint64(t.Pos) + uint64(t.Offset(slot))
	target := at + uint64(byteOrder.Uint32(b))
	if target >= uint64(len(t.Bytes)) {
		return 0, true, fmt.Errorf("%w: field %d points to %d past the end of the buffer", ErrMalformedBuffer, slot, target)
	}
	return UOffsetT(target), true, nil
}

// Vector opens the vector stored in slot. An absent field yields an empty
// vector and no error.
func (t Table) Vector(slot, stride int) (Vector, error) {
	pos, ok, err := t.indirect(slot)
	if err != nil || !ok {
		return Vector{}, err
	}
	return newVector(t.Bytes, pos, stride)
}

// Table opens the child table stored in slot. ok is false when absent.
func (t Table) Table(slot int) (child Table, ok bool, err error) {
	pos, ok, err := t.indirect(slot)
	if err != nil || !ok {
		return Table{}, ok, err
	}
	child, err = NewTable(t.Bytes, pos)
	return child, true, err
}

// ByteString returns the raw bytes of the string in slot, or nil when
// absent. No encoding validation is applied.
func (t Table) ByteString(slot int) ([]byte, error) {
	pos, ok, err := t.indirect(slot)
	if err != nil || !ok {
		return nil, err
	}
	return byteString(t.Bytes, pos)
}

// Struct returns the inline struct of size bytes stored in slot.
func (t Table) Struct(slot, size int) (Struct, bool) {
	if _, ok := t.field(slot, size); !ok {
		return Struct{}, false
	}
	return Struct{Bytes: t.Bytes, Pos: t.Pos + UOffsetT(t.Offset(slot))}, true
}

func byteString(buf []byte, pos UOffsetT) ([]byte, error) {
	n := uint64(len(buf))
	if uint64(pos)+SizeUint32 > n {
		return nil, fmt.Errorf("%w: string at %d outside %d-byte buffer", ErrMalformedBuffer, pos, n)
	}
	l := uint64(byteOrder.Uint32(buf[pos:]))
	start := uint64(pos) + SizeUint32
	if start+l > n {
		return nil, fmt.Errorf("%w: string at %d declares %d bytes", ErrMalformedBuffer, pos, l)
	}
	return buf[start : start+l : start+l], nil
}
