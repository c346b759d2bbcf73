package flatbuf

import "fmt"

// Vector is a read-only view of a length-prefixed vector. Its whole extent is
// checked against the buffer when opened; element accessors only check the
// index.
type Vector struct {
	bytes  []byte
	start  UOffsetT
	n      int
	stride int
}

func newVector(buf []byte, pos UOffsetT, stride int) (Vector, error) {
	n := uint64(len(buf))
	if uint64(pos)+SizeUint32 > n {
		return Vector{}, fmt.Errorf("%w: vector at %d outside %d-byte buffer", ErrMalformedBuffer, pos, n)
	}
	count := uint64(byteOrder.Uint32(buf[pos:]))
	if uint64(pos)+SizeUint32+count*uint64(stride) > n {
		return Vector{}, fmt.Errorf("%w: vector at %d declares %d elements of %d bytes", ErrMalformedBuffer, pos, count, stride)
	}
	return Vector{bytes: buf, start: pos + SizeUint32, n: int(count), stride: stride}, nil
}

// Len returns the number of elements.
func (v Vector) Len() int {
	return v.n
}

func (v Vector) at(i int) (UOffsetT, error) {
	if i < 0 || i >= v.n {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, v.n)
	}
	return v.start + UOffsetT(i*v.stride), nil
}

// Data returns the raw element bytes without copying.
func (v Vector) Data() []byte {
	if v.n == 0 {
		return nil
	}
	end := int(v.start) + v.n*v.stride
	return v.bytes[v.start:end:end]
}

func (v Vector) Bool(i int) (bool, error) {
	p, err := v.at(i)
	if err != nil {
		return false, err
	}
	return v.bytes[p] != 0, nil
}

func (v Vector) Uint8(i int) (uint8, error) {
	p, err := v.at(i)
	if err != nil {
		return 0, err
	}
	return v.bytes[p], nil
}

func (v Vector) Uint32(i int) (uint32, error) {
	p, err := v.at(i)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(v.bytes[p:]), nil
}

func (v Vector) Int32(i int) (int32, error) {
	x, err := v.Uint32(i)
	return int32(x), err
}

func (v Vector) Float32(i int) (float32, error) {
	p, err := v.at(i)
	if err != nil {
		return 0, err
	}
	return getFloat32(v.bytes[p:]), nil
}

// Struct returns element i of a vector of inline structs.
func (v Vector) Struct(i int) (Struct, error) {
	p, err := v.at(i)
	if err != nil {
		return Struct{}, err
	}
	return Struct{Bytes: v.bytes, Pos: p}, nil
}

// Table returns element i of a vector of table offsets. The slot holds an
// offset relative to itself, which is followed to reach the table header.
func (v Vector) Table(i int) (Table, error) {
	p, err := v.at(i)
	if err != nil {
		return Table{}, err
	}
	target := uint64(p) + uint64(byteOrder.Uint32(v.bytes[p:]))
	if target >= uint64(len(v.bytes)) {
		return Table{}, fmt.Errorf("%w: table element %d points past the end of the buffer", ErrMalformedBuffer, i)
	}
	return NewTable(v.bytes, UOffsetT(target))
}

// ByteString returns element i of a vector of string offsets.
func (v Vector) ByteString(i int) ([]byte, error) {
	p, err := v.at(i)
	if err != nil {
		return nil, err
	}
	target := uint64(p) + uint64(byteOrder.Uint32(v.bytes[p:]))
	if target >= uint64(len(v.bytes)) {
		return nil, fmt.Errorf("%w: string element %d points past the end of the buffer", ErrMalformedBuffer, i)
	}
	return byteString(v.bytes, UOffsetT(target))
}

// Struct is a view of a fixed-width record. Its position is validated by the
// Vector or Table it came from; field reads are plain loads at fixed offsets.
type Struct struct {
	Bytes []byte
	Pos   UOffsetT
}

func (s Struct) Bool(off int) bool {
	return s.Bytes[int(s.Pos)+off] != 0
}

func (s Struct) Uint8(off int) uint8 {
	return s.Bytes[int(s.Pos)+off]
}

func (s Struct) Uint16(off int) uint16 {
	return byteOrder.Uint16(s.Bytes[int(s.Pos)+off:])
}

func (s Struct) Uint32(off int) uint32 {
	return byteOrder.Uint32(s.Bytes[int(s.Pos)+off:])
}

func (s Struct) Int32(off int) int32 {
	return int32(s.Uint32(off))
}

func (s Struct) Float32(off int) float32 {
	return getFloat32(s.Bytes[int(s.Pos)+off:])
}
