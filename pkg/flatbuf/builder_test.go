package flatbuf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishTable(t *testing.T, b *Builder) []byte {
	t.Helper()
	root, err := b.EndTable()
	require.NoError(t, err)
	buf, err := b.Finish(root)
	require.NoError(t, err)
	return buf
}

func TestEmptyTable(t *testing.T) {
	b := NewBuilder(0)
	b.StartTable(4)
	buf := finishTable(t, b)

	tbl, err := GetRoot(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), tbl.GetUint32(0, 7))
	assert.False(t, tbl.Present(3))
}

func TestScalarSlotsAndDefaults(t *testing.T) {
	b := NewBuilder(16)
	b.StartTable(5)
	b.PrependUint32Slot(0, 42, 0)
	b.PrependUint8Slot(1, 0, 0)
	b.PrependFloat32Slot(2, 1.5, 0)
	b.PrependUint16Slot(3, 700, 0)
	b.PrependInt32Slot(4, -3, 0)
	buf := finishTable(t, b)

	tbl, err := GetRoot(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), tbl.GetUint32(0, 0))
	assert.False(t, tbl.Present(1), "value equal to default must not be written")
	assert.Equal(t, uint8(9), tbl.GetUint8(1, 9))
	assert.Equal(t, float32(1.5), tbl.GetFloat32(2, 0))
	assert.Equal(t, uint16(700), tbl.GetUint16(3, 0))
	assert.Equal(t, int32(-3), tbl.GetInt32(4, 0))

	// slots the writer never declared read as defaults
	assert.Equal(t, uint16(5), tbl.GetUint16(12, 5))
	assert.True(t, tbl.GetBool(30, true))
}

func TestStringAndVectorFields(t *testing.T) {
	b := NewBuilder(0)
	s := b.CreateString("hello")
	b.StartVector(SizeUint32, 3, SizeUint32)
	b.PrependUint32(3)
	b.PrependUint32(2)
	b.PrependUint32(1)
	vec, err := b.EndVector()
	require.NoError(t, err)

	b.StartTable(3)
	b.PrependUOffsetTSlot(0, s, 0)
	b.PrependUOffsetTSlot(1, vec, 0)
	buf := finishTable(t, b)

	tbl, err := GetRoot(buf)
	require.NoError(t, err)

	str, err := tbl.ByteString(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(str))

	v, err := tbl.Vector(1, SizeUint32)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	for i := 0; i < 3; i++ {
		x, err := v.Uint32(i)
		require.NoError(t, err)
		assert.Equal(t, uint32(i+1), x)
	}

	_, err = v.Uint32(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	absent, err := tbl.Vector(2, SizeUint32)
	require.NoError(t, err)
	assert.Equal(t, 0, absent.Len())
}

func TestVectorOfStringsGrowsBuffer(t *testing.T) {
	b := NewBuilder(1)
	const n = 200
	offs := make([]UOffsetT, n)
	for i := range offs {
		offs[i] = b.CreateString(fmt.Sprintf("value-%03d", i))
	}
	b.StartVector(SizeUOffsetT, n, SizeUOffsetT)
	for i := n - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	vec, err := b.EndVector()
	require.NoError(t, err)

	b.StartTable(1)
	b.PrependUOffsetTSlot(0, vec, 0)
	buf := finishTable(t, b)

	tbl, err := GetRoot(buf)
	require.NoError(t, err)
	v, err := tbl.Vector(0, SizeUOffsetT)
	require.NoError(t, err)
	require.Equal(t, n, v.Len())
	for _, i := range []int{0, 57, n - 1} {
		s, err := v.ByteString(i)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("value-%03d", i), string(s))
	}
}

func TestVectorOfTablesSharesVtable(t *testing.T) {
	b := NewBuilder(0)
	var items [3]UOffsetT
	for i := range items {
		b.StartTable(2)
		b.PrependUint32Slot(0, uint32(10+i), 0)
		b.PrependUint8Slot(1, uint8(i+1), 0)
		off, err := b.EndTable()
		require.NoError(t, err)
		items[i] = off
	}
	b.StartVector(SizeUOffsetT, len(items), SizeUOffsetT)
	for i := len(items) - 1; i >= 0; i-- {
		b.PrependUOffsetT(items[i])
	}
	vec, err := b.EndVector()
	require.NoError(t, err)
	b.StartTable(1)
	b.PrependUOffsetTSlot(0, vec, 0)
	buf := finishTable(t, b)

	root, err := GetRoot(buf)
	require.NoError(t, err)
	v, err := root.Vector(0, SizeUOffsetT)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())

	var vtables []UOffsetT
	for i := 0; i < v.Len(); i++ {
		child, err := v.Table(i)
		require.NoError(t, err)
		assert.Equal(t, uint32(10+i), child.GetUint32(0, 0))
		assert.Equal(t, uint8(i+1), child.GetUint8(1, 0))
		vtables = append(vtables, child.vtable)
	}
	assert.Equal(t, vtables[0], vtables[1])
	assert.Equal(t, vtables[1], vtables[2])
}

func TestInlineStructSlot(t *testing.T) {
	b := NewBuilder(0)
	b.StartTable(2)
	b.Prep(SizeFloat32, 8)
	b.PlaceFloat32(2.5)
	b.PlaceFloat32(-1)
	b.PrependStructSlot(1, b.Offset(), 0)
	buf := finishTable(t, b)

	tbl, err := GetRoot(buf)
	require.NoError(t, err)
	s, ok := tbl.Struct(1, 8)
	require.True(t, ok)
	assert.Equal(t, float32(-1), s.Float32(0))
	assert.Equal(t, float32(2.5), s.Float32(4))

	_, ok = tbl.Struct(0, 8)
	assert.False(t, ok)
}

func TestEndVectorCountMismatch(t *testing.T) {
	b := NewBuilder(0)
	b.StartVector(SizeUint32, 2, SizeUint32)
	b.PrependUint32(1)
	_, err := b.EndVector()
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestBuilderMisuse(t *testing.T) {
	t.Run("nested table", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartTable(1)
		b.StartTable(1)
		assert.ErrorIs(t, b.Err(), ErrBuilderState)
	})

	t.Run("string inside table", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartTable(1)
		b.CreateString("late")
		assert.ErrorIs(t, b.Err(), ErrBuilderState)
	})

	t.Run("slot out of range", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartTable(1)
		b.PrependUint32Slot(4, 1, 0)
		_, err := b.EndTable()
		assert.ErrorIs(t, err, ErrBuilderState)
	})

	t.Run("finish twice", func(t *testing.T) {
		b := NewBuilder(0)
		b.StartTable(0)
		root, err := b.EndTable()
		require.NoError(t, err)
		_, err = b.Finish(root)
		require.NoError(t, err)
		_, err = b.Finish(root)
		assert.ErrorIs(t, err, ErrBuilderState)
	})
}

func TestMalformedBuffers(t *testing.T) {
	_, err := GetRoot([]byte{1, 2})
	assert.ErrorIs(t, err, ErrMalformedBuffer)

	_, err = GetRoot([]byte{0xff, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedBuffer)

	b := NewBuilder(0)
	b.StartVector(SizeUint32, 2, SizeUint32)
	b.PrependUint32(2)
	b.PrependUint32(1)
	vec, err := b.EndVector()
	require.NoError(t, err)
	b.StartTable(1)
	b.PrependUOffsetTSlot(0, vec, 0)
	buf := finishTable(t, b)

	corrupt := append([]byte(nil), buf...)
	tbl, err := GetRoot(corrupt)
	require.NoError(t, err)
	pos, ok, err := tbl.indirect(0)
	require.NoError(t, err)
	require.True(t, ok)
	byteOrder.PutUint32(corrupt[pos:], 0xffffffff)

	_, err = tbl.Vector(0, SizeUint32)
	assert.ErrorIs(t, err, ErrMalformedBuffer)

	// the original bytes are untouched
	tbl, err = GetRoot(buf)
	require.NoError(t, err)
	v, err := tbl.Vector(0, SizeUint32)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
}
