package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Value pool errors.
var (
	ErrInvalidValueID       = errors.New("invalid value id")
	ErrPoolCapacityExceeded = errors.New("value pool capacity exceeded")
	ErrValueType            = errors.New("value has a different type")
)

// ValueType is the type tag stored in the low bits of a ValueID.
type ValueType uint8

const (
	ValueBool   ValueType = 0
	ValueInt    ValueType = 1
	ValueFloat  ValueType = 2
	ValueFloat2 ValueType = 3 // two consecutive FloatValues entries
	ValueFloat3 ValueType = 4 // three consecutive FloatValues entries
	ValueFloat4 ValueType = 5 // four consecutive FloatValues entries
	ValueString ValueType = 6
)

func (t ValueType) String() string {
	switch t {
	case ValueBool:
		return "bool"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueFloat2:
		return "float2"
	case ValueFloat3:
		return "float3"
	case ValueFloat4:
		return "float4"
	case ValueString:
		return "string"
	default:
		return fmt.Sprintf("ValueType(%d)", t)
	}
}

// floatWidth returns how many FloatValues entries a value of type t
// occupies, or 0 for types stored in another pool.
func (t ValueType) floatWidth() int {
	switch t {
	case ValueFloat:
		return 1
	case ValueFloat2:
		return 2
	case ValueFloat3:
		return 3
	case ValueFloat4:
		return 4
	}
	return 0
}

// ValueID packs a type tag (bits 0-3) and a pool index (bits 8-19). An id
// is only meaningful for the scene whose pools produced it.
type ValueID uint32

// MaxPoolEntries is the number of entries a single pool may hold.
const MaxPoolEntries = 0xFFF

// MakeValueID packs t and index. index must be below MaxPoolEntries.
func MakeValueID(t ValueType, index int) ValueID {
	return ValueID(uint32(t)&0xF | uint32(index&0xFFF)<<8)
}

func (id ValueID) Type() ValueType { return ValueType(id & 0xF) }

func (id ValueID) Index() int { return int(id>>8) & 0xFFF }

func (id ValueID) String() string {
	return fmt.Sprintf("%s#%d", id.Type(), id.Index())
}

// Value is a resolved pool entry.
type Value interface {
	Type() ValueType
}

type (
	BoolValue   bool
	IntValue    int32
	FloatValue  float32
	Float2Value mgl32.Vec2
	Float3Value mgl32.Vec3
	Float4Value mgl32.Vec4
	StringValue string
)

func (BoolValue) Type() ValueType   { return ValueBool }
func (IntValue) Type() ValueType    { return ValueInt }
func (FloatValue) Type() ValueType  { return ValueFloat }
func (Float2Value) Type() ValueType { return ValueFloat2 }
func (Float3Value) Type() ValueType { return ValueFloat3 }
func (Float4Value) Type() ValueType { return ValueFloat4 }
func (StringValue) Type() ValueType { return ValueString }

// ValueSource gives indexed access to the four value pools. Both the
// in-memory Pools and a SceneView over finished bytes implement it.
type ValueSource interface {
	BoolValuesLength() int
	BoolValues(i int) (bool, error)
	IntValuesLength() int
	IntValues(i int) (int32, error)
	FloatValuesLength() int
	FloatValues(i int) (float32, error)
	StringValuesLength() int
	StringValues(i int) (string, error)
}

// Pools holds the append-only value pools of a scene under construction.
// Pushing never deduplicates.
type Pools struct {
	Bools   []bool
	Ints    []int32
	Floats  []float32
	Strings []string
}

func poolFull(kind string, n, width int) error {
	if n+width > MaxPoolEntries {
		return fmt.Errorf("%w: %s pool holds %d of %d entries", ErrPoolCapacityExceeded, kind, n, MaxPoolEntries)
	}
	return nil
}

func (p *Pools) PushBool(v bool) (ValueID, error) {
	if err := poolFull("bool", len(p.Bools), 1); err != nil {
		return 0, err
	}
	p.Bools = append(p.Bools, v)
	return MakeValueID(ValueBool, len(p.Bools)-1), nil
}

func (p *Pools) PushInt(v int32) (ValueID, error) {
	if err := poolFull("int", len(p.Ints), 1); err != nil {
		return 0, err
	}
	p.Ints = append(p.Ints, v)
	return MakeValueID(ValueInt, len(p.Ints)-1), nil
}

func (p *Pools) pushFloats(t ValueType, v ...float32) (ValueID, error) {
	if err := poolFull("float", len(p.Floats), len(v)); err != nil {
		return 0, err
	}
	idx := len(p.Floats)
	p.Floats = append(p.Floats, v...)
	return MakeValueID(t, idx), nil
}

func (p *Pools) PushFloat(v float32) (ValueID, error) {
	return p.pushFloats(ValueFloat, v)
}

func (p *Pools) PushFloat2(v mgl32.Vec2) (ValueID, error) {
	return p.pushFloats(ValueFloat2, v[:]...)
}

func (p *Pools) PushFloat3(v mgl32.Vec3) (ValueID, error) {
	return p.pushFloats(ValueFloat3, v[:]...)
}

func (p *Pools) PushFloat4(v mgl32.Vec4) (ValueID, error) {
	return p.pushFloats(ValueFloat4, v[:]...)
}

func (p *Pools) PushString(v string) (ValueID, error) {
	if err := poolFull("string", len(p.Strings), 1); err != nil {
		return 0, err
	}
	p.Strings = append(p.Strings, v)
	return MakeValueID(ValueString, len(p.Strings)-1), nil
}

// Push appends any resolved value to its pool.
func (p *Pools) Push(v Value) (ValueID, error) {
	switch x := v.(type) {
	case BoolValue:
		return p.PushBool(bool(x))
	case IntValue:
		return p.PushInt(int32(x))
	case FloatValue:
		return p.PushFloat(float32(x))
	case Float2Value:
		return p.PushFloat2(mgl32.Vec2(x))
	case Float3Value:
		return p.PushFloat3(mgl32.Vec3(x))
	case Float4Value:
		return p.PushFloat4(mgl32.Vec4(x))
	case StringValue:
		return p.PushString(string(x))
	}
	return 0, fmt.Errorf("%w: unsupported value %T", ErrValueType, v)
}

func (p *Pools) BoolValuesLength() int   { return len(p.Bools) }
func (p *Pools) IntValuesLength() int    { return len(p.Ints) }
func (p *Pools) FloatValuesLength() int  { return len(p.Floats) }
func (p *Pools) StringValuesLength() int { return len(p.Strings) }

func (p *Pools) BoolValues(i int) (bool, error) {
	if i < 0 || i >= len(p.Bools) {
		return false, poolIndexError("bool", i, len(p.Bools))
	}
	return p.Bools[i], nil
}

func (p *Pools) IntValues(i int) (int32, error) {
	if i < 0 || i >= len(p.Ints) {
		return 0, poolIndexError("int", i, len(p.Ints))
	}
	return p.Ints[i], nil
}

func (p *Pools) FloatValues(i int) (float32, error) {
	if i < 0 || i >= len(p.Floats) {
		return 0, poolIndexError("float", i, len(p.Floats))
	}
	return p.Floats[i], nil
}

func (p *Pools) StringValues(i int) (string, error) {
	if i < 0 || i >= len(p.Strings) {
		return "", poolIndexError("string", i, len(p.Strings))
	}
	return p.Strings[i], nil
}

func poolIndexError(kind string, i, n int) error {
	return fmt.Errorf("%w: %s index %d, pool length %d", ErrInvalidValueID, kind, i, n)
}

// Resolve decodes id against src. The whole footprint of the value must
// lie inside its pool.
func Resolve(id ValueID, src ValueSource) (Value, error) {
	idx := id.Index()
	switch t := id.Type(); t {
	case ValueBool:
		if idx >= src.BoolValuesLength() {
			return nil, poolIndexError("bool", idx, src.BoolValuesLength())
		}
		v, err := src.BoolValues(idx)
		return BoolValue(v), err
	case ValueInt:
		if idx >= src.IntValuesLength() {
			return nil, poolIndexError("int", idx, src.IntValuesLength())
		}
		v, err := src.IntValues(idx)
		return IntValue(v), err
	case ValueFloat, ValueFloat2, ValueFloat3, ValueFloat4:
		w := t.floatWidth()
		if idx+w > src.FloatValuesLength() {
			return nil, poolIndexError("float", idx+w-1, src.FloatValuesLength())
		}
		var f [4]float32
		for k := 0; k < w; k++ {
			v, err := src.FloatValues(idx + k)
			if err != nil {
				return nil, err
			}
			f[k] = v
		}
		switch t {
		case ValueFloat:
			return FloatValue(f[0]), nil
		case ValueFloat2:
			return Float2Value{f[0], f[1]}, nil
		case ValueFloat3:
			return Float3Value{f[0], f[1], f[2]}, nil
		default:
			return Float4Value(f), nil
		}
	case ValueString:
		if idx >= src.StringValuesLength() {
			return nil, poolIndexError("string", idx, src.StringValuesLength())
		}
		v, err := src.StringValues(idx)
		return StringValue(v), err
	default:
		return nil, fmt.Errorf("%w: unknown type tag %d", ErrInvalidValueID, t)
	}
}

func wrongType(id ValueID, want ValueType) error {
	return fmt.Errorf("%w: %s is not a %s", ErrValueType, id, want)
}

// ResolveString resolves a string value, typically a record name.
func ResolveString(id ValueID, src ValueSource) (string, error) {
	if id.Type() != ValueString {
		return "", wrongType(id, ValueString)
	}
	v, err := Resolve(id, src)
	if err != nil {
		return "", err
	}
	return string(v.(StringValue)), nil
}

func ResolveBool(id ValueID, src ValueSource) (bool, error) {
	if id.Type() != ValueBool {
		return false, wrongType(id, ValueBool)
	}
	v, err := Resolve(id, src)
	if err != nil {
		return false, err
	}
	return bool(v.(BoolValue)), nil
}

// ResolveFloat accepts float and int values.
func ResolveFloat(id ValueID, src ValueSource) (float32, error) {
	v, err := Resolve(id, src)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case FloatValue:
		return float32(x), nil
	case IntValue:
		return float32(x), nil
	}
	return 0, wrongType(id, ValueFloat)
}

// ResolveFloat4 accepts float4 values, and float3 values with w = 1.
func ResolveFloat4(id ValueID, src ValueSource) (mgl32.Vec4, error) {
	v, err := Resolve(id, src)
	if err != nil {
		return mgl32.Vec4{}, err
	}
	switch x := v.(type) {
	case Float4Value:
		return mgl32.Vec4(x), nil
	case Float3Value:
		return mgl32.Vec3(x).Vec4(1), nil
	}
	return mgl32.Vec4{}, wrongType(id, ValueFloat4)
}

// FormatValue renders v for listings.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case StringValue:
		return fmt.Sprintf("%q", string(x))
	case Float2Value:
		return fmt.Sprintf("(%g, %g)", x[0], x[1])
	case Float3Value:
		return fmt.Sprintf("(%g, %g, %g)", x[0], x[1], x[2])
	case Float4Value:
		return fmt.Sprintf("(%g, %g, %g, %g)", x[0], x[1], x[2], x[3])
	}
	return fmt.Sprintf("%v", v)
}
