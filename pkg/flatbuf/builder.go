package flatbuf

import "fmt"

// Builder accumulates records into a single buffer that is written back to
// front. Nested structure is built inside-out: leaves (strings, vectors,
// child tables) are finished and given offsets before the table that
// references them is started.
//
// A Builder is single-use and must not be shared between goroutines.
type Builder struct {
	// Bytes is the backing buffer; live data occupies Bytes[head:].
	Bytes []byte

	head      int
	minAlign  int
	vtable    []UOffsetT
	vtables   []UOffsetT
	objectEnd UOffsetT

	inTable  bool
	inVector bool
	finished bool

	vectorStart    UOffsetT
	vectorElemSize int
	vectorLen      int

	err error
}

// NewBuilder returns a builder whose buffer starts at initialSize bytes and
// doubles whenever it runs out of room.
func NewBuilder(initialSize int) *Builder {
	if initialSize < 0 {
		initialSize = 0
	}
	return &Builder{
		Bytes:    make([]byte, initialSize),
		head:     initialSize,
		minAlign: 1,
		vtables:  make([]UOffsetT, 0, 16),
	}
}

// Offset returns the current write position measured from the end of the
// buffer. Offsets returned by End*/Create* calls use the same measure.
func (b *Builder) Offset() UOffsetT {
	return UOffsetT(len(b.Bytes) - b.head)
}

// Err returns the first misuse recorded by the builder, if any.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: "+format, append([]any{ErrBuilderState}, args...)...)
	}
}

func (b *Builder) nested() bool {
	return b.inTable || b.inVector
}

func (b *Builder) assertNotNested(op string) {
	if b.nested() {
		b.fail("%s inside an unfinished table or vector", op)
	}
}

func (b *Builder) grow() {
	old := len(b.Bytes)
	n := old * 2
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n)
	copy(buf[n-old:], b.Bytes)
	b.Bytes = buf
	b.head += n - old
}

// Prep reserves room for additionalBytes followed by a value aligned to
// alignment, writing zero padding as needed. alignment must be a power of two
// no smaller than the largest scalar later written into the reserved region.
func (b *Builder) Prep(alignment, additionalBytes int) {
	if alignment > b.minAlign {
		b.minAlign = alignment
	}
	alignSize := (^(len(b.Bytes) - b.head + additionalBytes) + 1) & (alignment - 1)
	for b.head <= alignSize+alignment+additionalBytes {
		b.grow()
	}
	b.Pad(alignSize)
}

// Pad writes n zero bytes.
func (b *Builder) Pad(n int) {
	for i := 0; i < n; i++ {
		b.head--
		b.Bytes[b.head] = 0
	}
}

// Place* write a scalar without preparing space or alignment; the caller must
// have called Prep for it.

func (b *Builder) PlaceBool(x bool) {
	var v uint8
	if x {
		v = 1
	}
	b.PlaceUint8(v)
}

func (b *Builder) PlaceUint8(x uint8) {
	b.head -= SizeUint8
	b.Bytes[b.head] = x
}

func (b *Builder) PlaceInt8(x int8) {
	b.PlaceUint8(uint8(x))
}

func (b *Builder) PlaceUint16(x uint16) {
	b.head -= SizeUint16
	byteOrder.PutUint16(b.Bytes[b.head:], x)
}

func (b *Builder) PlaceInt16(x int16) {
	b.PlaceUint16(uint16(x))
}

func (b *Builder) PlaceUint32(x uint32) {
	b.head -= SizeUint32
	byteOrder.PutUint32(b.Bytes[b.head:], x)
}

func (b *Builder) PlaceInt32(x int32) {
	b.PlaceUint32(uint32(x))
}

func (b *Builder) PlaceFloat32(x float32) {
	b.head -= SizeFloat32
	putFloat32(b.Bytes[b.head:], x)
}

// Prepend* align and write a single scalar.

func (b *Builder) PrependBool(x bool) {
	b.Prep(SizeBool, 0)
	b.PlaceBool(x)
}

func (b *Builder) PrependUint8(x uint8) {
	b.Prep(SizeUint8, 0)
	b.PlaceUint8(x)
}

func (b *Builder) PrependInt8(x int8) {
	b.Prep(SizeInt8, 0)
	b.PlaceInt8(x)
}

func (b *Builder) PrependUint16(x uint16) {
	b.Prep(SizeUint16, 0)
	b.PlaceUint16(x)
}

func (b *Builder) PrependInt16(x int16) {
	b.Prep(SizeInt16, 0)
	b.PlaceInt16(x)
}

func (b *Builder) PrependUint32(x uint32) {
	b.Prep(SizeUint32, 0)
	b.PlaceUint32(x)
}

func (b *Builder) PrependInt32(x int32) {
	b.Prep(SizeInt32, 0)
	b.PlaceInt32(x)
}

func (b *Builder) PrependFloat32(x float32) {
	b.Prep(SizeFloat32, 0)
	b.PlaceFloat32(x)
}

// PrependUOffsetT writes off as an offset relative to its own location.
// off must refer to something already written.
func (b *Builder) PrependUOffsetT(off UOffsetT) {
	b.Prep(SizeUOffsetT, 0)
	if off > b.Offset() {
		b.fail("offset %d refers to unwritten data (head at %d)", off, b.Offset())
		off = b.Offset()
	}
	b.PlaceUint32(b.Offset() - off + SizeUOffsetT)
}

// StartVector begins a vector of numElems elements of elemSize bytes each.
// Elements are then prepended in reverse order and the vector is closed with
// EndVector.
func (b *Builder) StartVector(elemSize, numElems, alignment int) UOffsetT {
	b.assertNotNested("StartVector")
	b.inVector = true
	b.Prep(SizeUint32, elemSize*numElems)
	b.Prep(alignment, elemSize*numElems)
	b.vectorStart = b.Offset()
	b.vectorElemSize = elemSize
	b.vectorLen = numElems
	return b.Offset()
}

// EndVector writes the length prefix of the vector begun by StartVector and
// returns its offset. It fails with ErrCountMismatch when the bytes appended
// do not amount to exactly the declared element count.
func (b *Builder) EndVector() (UOffsetT, error) {
	if !b.inVector {
		b.fail("EndVector without StartVector")
		return 0, b.err
	}
	written := int(b.Offset() - b.vectorStart)
	if want := b.vectorElemSize * b.vectorLen; written != want {
		got := written
		if b.vectorElemSize > 0 {
			got = written / b.vectorElemSize
		}
		if b.err == nil {
			b.err = fmt.Errorf("%w: declared %d elements, appended %d", ErrCountMismatch, b.vectorLen, got)
		}
		b.Prep(SizeUint32, 0)
	}
	b.PlaceUint32(uint32(b.vectorLen))
	b.inVector = false
	return b.Offset(), b.err
}

// CreateString writes a length-prefixed string. A zero terminator follows
// the bytes but is not counted in the length.
func (b *Builder) CreateString(s string) UOffsetT {
	return b.CreateByteString([]byte(s))
}

// CreateByteString writes a length-prefixed byte run plus a zero terminator.
func (b *Builder) CreateByteString(s []byte) UOffsetT {
	b.assertNotNested("CreateString")
	b.Prep(SizeUOffsetT, len(s)+1)
	b.PlaceUint8(0)
	b.head -= len(s)
	copy(b.Bytes[b.head:], s)
	b.PlaceUint32(uint32(len(s)))
	return b.Offset()
}

// CreateByteVector writes a length-prefixed byte vector without terminator.
func (b *Builder) CreateByteVector(v []byte) UOffsetT {
	b.assertNotNested("CreateByteVector")
	b.Prep(SizeUOffsetT, len(v))
	b.head -= len(v)
	copy(b.Bytes[b.head:], v)
	b.PlaceUint32(uint32(len(v)))
	return b.Offset()
}

// PrependStruct copies an encoded fixed-width struct into the buffer and
// returns its offset. It is valid inside tables and vectors.
func (b *Builder) PrependStruct(alignment int, data []byte) UOffsetT {
	b.Prep(alignment, len(data))
	b.head -= len(data)
	copy(b.Bytes[b.head:], data)
	return b.Offset()
}

// StartTable begins a table with numFields field slots.
func (b *Builder) StartTable(numFields int) {
	b.assertNotNested("StartTable")
	if cap(b.vtable) < numFields {
		b.vtable = make([]UOffsetT, numFields)
	} else {
		b.vtable = b.vtable[:numFields]
		for i := range b.vtable {
			b.vtable[i] = 0
		}
	}
	b.objectEnd = b.Offset()
	b.inTable = true
}

// Slot records that the value just written belongs to field slot.
func (b *Builder) Slot(slot int) {
	if !b.inTable {
		b.fail("Slot(%d) outside a table", slot)
		return
	}
	if slot < 0 || slot >= len(b.vtable) {
		b.fail("slot %d out of range for a %d-field table", slot, len(b.vtable))
		return
	}
	b.vtable[slot] = b.Offset()
}

// Prepend*Slot write a table field unless it equals its declared default,
// in which case the field is left absent and readers report the default.

func (b *Builder) PrependBoolSlot(slot int, x, d bool) {
	if x != d {
		b.PrependBool(x)
		b.Slot(slot)
	}
}

func (b *Builder) PrependUint8Slot(slot int, x, d uint8) {
	if x != d {
		b.PrependUint8(x)
		b.Slot(slot)
	}
}

func (b *Builder) PrependUint16Slot(slot int, x, d uint16) {
	if x != d {
		b.PrependUint16(x)
		b.Slot(slot)
	}
}

func (b *Builder) PrependUint32Slot(slot int, x, d uint32) {
	if x != d {
		b.PrependUint32(x)
		b.Slot(slot)
	}
}

func (b *Builder) PrependInt32Slot(slot int, x, d int32) {
	if x != d {
		b.PrependInt32(x)
		b.Slot(slot)
	}
}

func (b *Builder) PrependFloat32Slot(slot int, x, d float32) {
	if x != d {
		b.PrependFloat32(x)
		b.Slot(slot)
	}
}

// PrependUOffsetTSlot writes an offset field; a zero offset means absent.
func (b *Builder) PrependUOffsetTSlot(slot int, x, d UOffsetT) {
	if x != d {
		b.PrependUOffsetT(x)
		b.Slot(slot)
	}
}

// PrependStructSlot records an inline struct that was written immediately
// before this call.
func (b *Builder) PrependStructSlot(slot int, x, d UOffsetT) {
	if x != d {
		if x != b.Offset() {
			b.fail("inline struct for slot %d must be written in place", slot)
			return
		}
		b.Slot(slot)
	}
}

// EndTable writes the vtable of the table begun by StartTable, reusing an
// identical vtable already in the buffer, and returns the table offset.
func (b *Builder) EndTable() (UOffsetT, error) {
	if !b.inTable {
		b.fail("EndTable without StartTable")
		return 0, b.err
	}
	b.Prep(SizeSOffsetT, 0)
	b.PlaceInt32(0)
	objectOffset := b.Offset()

	i := len(b.vtable) - 1
	for ; i >= 0 && b.vtable[i] == 0; i-- {
	}
	b.vtable = b.vtable[:i+1]

	objectSize := objectOffset - b.objectEnd
	if objectSize > math16 {
		b.fail("table of %d bytes exceeds the vtable field range", objectSize)
	}

	var existing UOffsetT
	for j := len(b.vtables) - 1; j >= 0; j-- {
		vt := b.vtables[j]
		start := len(b.Bytes) - int(vt)
		size := int(byteOrder.Uint16(b.Bytes[start:]))
		tsize := byteOrder.Uint16(b.Bytes[start+SizeVOffsetT:])
		if UOffsetT(tsize) != objectSize {
			continue
		}
		meta := VtableMetadataFields * SizeVOffsetT
		if vtableEqual(b.vtable, objectOffset, b.Bytes[start+meta:start+size]) {
			existing = vt
			break
		}
	}

	if existing == 0 {
		for k := len(b.vtable) - 1; k >= 0; k-- {
			var off UOffsetT
			if b.vtable[k] != 0 {
				off = objectOffset - b.vtable[k]
			}
			b.PrependUint16(uint16(off))
		}
		b.PrependUint16(uint16(objectSize))
		b.PrependUint16(uint16((len(b.vtable) + VtableMetadataFields) * SizeVOffsetT))
		objectStart := len(b.Bytes) - int(objectOffset)
		byteOrder.PutUint32(b.Bytes[objectStart:], uint32(SOffsetT(b.Offset())-SOffsetT(objectOffset)))
		b.vtables = append(b.vtables, b.Offset())
	} else {
		objectStart := len(b.Bytes) - int(objectOffset)
		byteOrder.PutUint32(b.Bytes[objectStart:], uint32(SOffsetT(existing)-SOffsetT(objectOffset)))
	}

	b.vtable = b.vtable[:0]
	b.inTable = false
	return objectOffset, b.err
}

const math16 = 1<<16 - 1

func vtableEqual(fields []UOffsetT, objectOffset UOffsetT, vt []byte) bool {
	if len(vt) != len(fields)*SizeVOffsetT {
		return false
	}
	for i, f := range fields {
		x := byteOrder.Uint16(vt[i*SizeVOffsetT:])
		if (x == 0) != (f == 0) {
			return false
		}
		if f != 0 && UOffsetT(x) != objectOffset-f {
			return false
		}
	}
	return true
}

// Finish prepends the root offset and returns the finished bytes. The
// returned slice aliases the builder's buffer; the builder cannot be used
// again afterwards.
func (b *Builder) Finish(root UOffsetT) ([]byte, error) {
	if b.finished {
		return nil, fmt.Errorf("%w: Finish called twice", ErrBuilderState)
	}
	b.assertNotNested("Finish")
	b.Prep(b.minAlign, SizeUOffsetT)
	b.PrependUOffsetT(root)
	b.finished = true
	if b.err != nil {
		return nil, b.err
	}
	return b.Bytes[b.head:], nil
}
