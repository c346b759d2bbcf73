package scene

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenepack/pkg/flatbuf"
)

func TestSampleScene(t *testing.T) {
	s := New()
	tex := NewTexture(0)
	tex.WrapModeU = WrapClamp
	s.Textures = append(s.Textures, tex)

	name, err := s.PushString("doubleSided")
	require.NoError(t, err)
	val, err := s.PushBool(true)
	require.NoError(t, err)
	matName, err := s.PushString("Body")
	require.NoError(t, err)
	s.Materials = append(s.Materials, Material{
		NameID:     matName,
		Properties: []MaterialProp{{NameID: name, ValueID: val}},
	})

	buf, err := s.Encode(0)
	require.NoError(t, err)

	v, err := Open(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v.Version())
	assert.Equal(t, 1, v.TexturesLength())

	gotTex, err := v.Textures(0)
	require.NoError(t, err)
	assert.Equal(t, WrapClamp, gotTex.WrapModeU)
	assert.Equal(t, WrapRepeat, gotTex.WrapModeV)

	mat, err := v.Materials(0)
	require.NoError(t, err)
	props, err := mat.Properties()
	require.NoError(t, err)
	require.Equal(t, 1, props.Len())
	prop, err := props.At(0)
	require.NoError(t, err)

	propName, err := ResolveString(prop.NameID, v)
	require.NoError(t, err)
	assert.Equal(t, "doubleSided", propName)
	on, err := ResolveBool(prop.ValueID, v)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestRoundTripRandomScenes(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 25; i++ {
		want := randomScene(r)
		buf, err := want.Encode(64)
		require.NoError(t, err)

		got, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, want, got, "scene %d", i)
	}
}

func TestRoundTripEmptyScene(t *testing.T) {
	want := &Scene{}
	buf, err := want.Encode(0)
	require.NoError(t, err)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	v, err := Open(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, v.NodesLength())
	assert.Equal(t, 0, v.StringValuesLength())
}

func TestTableDefaults(t *testing.T) {
	// only slots 0 and 2 differ from their defaults
	s := &Scene{Nodes: []Node{{
		ID:                3,
		CullingType:       CullingOnCW,
		MeshID:            NoID,
		LightID:           NoID,
		CameraID:          NoID,
		TransformLimitsID: NoID,
	}}}
	buf, err := s.Encode(0)
	require.NoError(t, err)

	v, err := Open(buf)
	require.NoError(t, err)
	n, err := v.Nodes(0)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), n.ID())
	assert.Equal(t, CullingOnCW, n.CullingType())
	assert.Equal(t, ValueID(0), n.NameID())
	assert.Equal(t, RotationEulerXYZ, n.RotationOrder())
	assert.Equal(t, NoID, n.MeshID())
	assert.Equal(t, NoID, n.LightID())
	assert.Equal(t, NoID, n.CameraID())
	assert.Equal(t, NoID, n.TransformLimitsID())
	for slot := nodeNameID; slot < nodeFieldCount; slot++ {
		if slot == nodeCullingType {
			continue
		}
		assert.False(t, n.t.Present(slot), "slot %d", slot)
	}

	children, err := n.ChildIDs()
	require.NoError(t, err)
	assert.Equal(t, 0, children.Len())
}

func TestTableVectorIndirection(t *testing.T) {
	s := &Scene{}
	for i := 0; i < 3; i++ {
		s.Materials = append(s.Materials, Material{ID: uint32(100 + i)})
	}
	buf, err := s.Encode(0)
	require.NoError(t, err)

	v, err := Open(buf)
	require.NoError(t, err)
	require.Equal(t, 3, v.MaterialsLength())

	var positions []flatbuf.UOffsetT
	for i := 0; i < 3; i++ {
		m, err := v.Materials(i)
		require.NoError(t, err)
		assert.Equal(t, uint32(100+i), m.ID())
		positions = append(positions, m.t.Pos)
	}
	assert.NotEqual(t, positions[1], positions[0])
	assert.NotEqual(t, positions[1], positions[2])

	_, err = v.Materials(3)
	assert.ErrorIs(t, err, flatbuf.ErrIndexOutOfRange)
}

func TestOpenMalformed(t *testing.T) {
	_, err := Open([]byte{0, 0})
	assert.ErrorIs(t, err, flatbuf.ErrMalformedBuffer)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, flatbuf.ErrMalformedBuffer)
}

func TestCreateSubmeshMatchesEncodedLayout(t *testing.T) {
	sub := Submesh{
		BBoxMin:         mgl32.Vec3{-1, -2, -3},
		BBoxMax:         mgl32.Vec3{1, 2, 3},
		BaseVertex:      10,
		VertexCount:     20,
		BaseIndex:       30,
		IndexCount:      40,
		BaseSubset:      5,
		SubsetCount:     6,
		VertexFormat:    VertexStaticSkinned,
		CompressionType: CompressionDraco,
	}

	b := flatbuf.NewBuilder(0)
	off := CreateSubmesh(b, sub)
	placed := b.Bytes[len(b.Bytes)-int(off):]

	w := structWriter{buf: make([]byte, SubmeshSize)}
	sub.encode(&w)

	assert.Equal(t, w.buf, placed[:SubmeshSize])
	assert.Equal(t, sub, readSubmesh(flatbuf.Struct{Bytes: placed}))
}

func TestStructSizes(t *testing.T) {
	for _, s := range []inlineStruct{
		Transform{}, TransformLimits{}, AnimStack{}, AnimLayer{}, Texture{}, Camera{},
		Light{}, Submesh{}, Subset{}, MaterialProp{}, AnimCurveKey{}, Mat4{},
	} {
		w := structWriter{buf: make([]byte, s.size())}
		s.encode(&w)
		assert.Equal(t, s.size(), w.pos, "%T", s)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]Submesh{
		{BBoxMin: mgl32.Vec3{0, 0, 0}, BBoxMax: mgl32.Vec3{1, 1, 1}},
		{BBoxMin: mgl32.Vec3{-2, 0.5, 0}, BBoxMax: mgl32.Vec3{0, 3, 0.5}},
	})
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, hi)

	lo, hi = Bounds(nil)
	assert.Equal(t, mgl32.Vec3{}, lo)
	assert.Equal(t, mgl32.Vec3{}, hi)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Clamp", WrapClamp.String())
	assert.Equal(t, "Draco", CompressionDraco.String())
	assert.Equal(t, "LclRotation", AnimLclRotation.String())
	assert.Equal(t, "LightType(42)", LightType(42).String())
}

func randomScene(r *rand.Rand) *Scene {
	s := &Scene{Version: uint8(r.IntN(4))}
	f := func() float32 { return float32(r.IntN(2000)-1000) / 8 }
	v2 := func() mgl32.Vec2 { return mgl32.Vec2{f(), f()} }
	v3 := func() mgl32.Vec3 { return mgl32.Vec3{f(), f(), f()} }
	b3 := func() Bool3 { return Bool3{r.IntN(2) == 0, r.IntN(2) == 0, r.IntN(2) == 0} }
	u32 := func() uint32 { return r.Uint32() }
	id := func() ValueID { return ValueID(r.Uint32()) }
	u8 := func(n int) uint8 { return uint8(r.IntN(n)) }
	ids := func() []uint32 {
		n := r.IntN(4)
		if n == 0 {
			return nil
		}
		out := make([]uint32, n)
		for i := range out {
			out[i] = u32()
		}
		return out
	}
	blob := func() []byte {
		n := r.IntN(40)
		if n == 0 {
			return nil
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = byte(r.IntN(256))
		}
		return out
	}
	props := func() []MaterialProp {
		n := r.IntN(3)
		if n == 0 {
			return nil
		}
		out := make([]MaterialProp, n)
		for i := range out {
			out[i] = MaterialProp{NameID: id(), ValueID: id()}
		}
		return out
	}
	count := func() int { return r.IntN(3) }

	for i := count(); i > 0; i-- {
		s.Transforms = append(s.Transforms, Transform{
			Translation: v3(), RotationOffset: v3(), RotationPivot: v3(), PreRotation: v3(),
			PostRotation: v3(), Rotation: v3(), ScalingOffset: v3(), ScalingPivot: v3(), Scaling: v3(),
			GeometricTranslation: v3(), GeometricRotation: v3(), GeometricScaling: v3(),
		})
	}
	for i := count(); i > 0; i-- {
		s.TransformLimits = append(s.TransformLimits, TransformLimits{
			TranslationMin: v3(), TranslationMax: v3(), RotationMin: v3(), RotationMax: v3(),
			ScalingMin: v3(), ScalingMax: v3(),
			TranslationMinActive: b3(), TranslationMaxActive: b3(), RotationMinActive: b3(),
			RotationMaxActive: b3(), ScalingMinActive: b3(), ScalingMaxActive: b3(),
		})
	}
	for i := count(); i > 0; i-- {
		s.Nodes = append(s.Nodes, Node{
			ID: u32(), NameID: id(),
			CullingType: CullingType(u8(3)), RotationOrder: RotationOrder(u8(7)),
			InheritType: InheritType(u8(3)), SkeletonType: SkeletonType(u8(4)),
			MeshID: u32(), LightID: NoID, CameraID: u32(), TransformLimitsID: NoID,
			ChildIDs: ids(), MaterialIDs: ids(), AnimCurveIDs: ids(), Properties: props(),
		})
	}
	for i := count(); i > 0; i-- {
		m := Mesh{
			Vertices: blob(), Indices: blob(), SubsetIndices: blob(),
			IndexType: IndexType(u8(2)), SubsetIndexType: IndexType(u8(2)), SkinID: NoID,
		}
		for k := r.IntN(3); k > 0; k-- {
			m.Submeshes = append(m.Submeshes, Submesh{
				BBoxMin: v3(), BBoxMax: v3(), BaseVertex: u32(), VertexCount: u32(),
				BaseIndex: u32(), IndexCount: u32(), BaseSubset: uint16(r.IntN(1 << 16)),
				SubsetCount: uint16(r.IntN(1 << 16)), VertexFormat: VertexFormat(u8(4)),
				CompressionType: CompressionType(u8(2)),
			})
			m.Subsets = append(m.Subsets, Subset{MaterialID: u32(), BaseIndex: u32(), IndexCount: u32()})
		}
		s.Meshes = append(s.Meshes, m)
	}
	for i := count(); i > 0; i-- {
		s.AnimStacks = append(s.AnimStacks, AnimStack{ID: u32(), NameID: id()})
		s.AnimLayers = append(s.AnimLayers, AnimLayer{ID: u32(), NameID: id(), AnimStackID: u32(), AnimStackIdx: u32()})
	}
	for i := count(); i > 0; i-- {
		c := AnimCurve{
			ID: u32(), AnimStackID: u32(), AnimLayerID: u32(), NodeID: u32(), NameID: id(),
			Property: AnimCurveProperty(u8(12)), Channel: AnimCurveChannel(u8(3)),
		}
		for k := r.IntN(4); k > 0; k-- {
			c.Keys = append(c.Keys, AnimCurveKey{Time: f(), Value: f(), Bez1: f(), Bez2: f(), Interpolation: InterpolationMode(u8(3))})
		}
		s.AnimCurves = append(s.AnimCurves, c)
	}
	for i := count(); i > 0; i-- {
		s.Materials = append(s.Materials, Material{ID: u32(), NameID: id(), Properties: props(), TextureProperties: props()})
	}
	for i := count(); i > 0; i-- {
		s.Textures = append(s.Textures, Texture{
			ID: u32(), NameID: id(), FileID: u32(), TextureTypeID: id(),
			BlendMode: BlendMode(u8(5)), WrapModeU: WrapMode(u8(2)), WrapModeV: WrapMode(u8(2)),
			OffsetU: f(), OffsetV: f(), ScaleU: f(), ScaleV: f(),
			CropBottom: int32(r.IntN(100) - 50), CropLeft: int32(r.IntN(100)), CropRight: -1, CropTop: 7,
			RotationU: f(), RotationV: f(), RotationW: f(),
			SwapUV: r.IntN(2) == 0, WipeMode: r.IntN(2) == 0, PremultipliedAlpha: r.IntN(2) == 0,
			AlphaSource: AlphaSource(u8(3)), TextureUse: TextureUse(u8(6)),
			MappingType: MappingType(u8(8)), PlanarMappingNormal: PlanarMappingNormal(u8(3)),
		})
	}
	for i := count(); i > 0; i-- {
		s.Cameras = append(s.Cameras, Camera{ID: u32(), NameID: id(), Up: v3(), AspectRatio: v2()})
	}
	for i := count(); i > 0; i-- {
		s.Lights = append(s.Lights, Light{
			ID: u32(), NameID: id(), Color: v3(),
			NearAttenuationStart: f(), NearAttenuationEnd: f(), FarAttenuationStart: f(), FarAttenuationEnd: f(),
			InnerAngle: f(), OuterAngle: f(), DecayStart: f(), Fog: f(), Intensity: f(),
			CastsShadows: r.IntN(2) == 0, CastsLight: true,
			LightType: LightType(u8(5)), AreaLightType: AreaLightType(u8(2)), DecayType: DecayType(u8(4)),
		})
	}
	for i := count(); i > 0; i-- {
		sk := Skin{NameID: id(), LinkIDs: ids()}
		for range sk.LinkIDs {
			m := Mat4(mgl32.Translate3D(f(), f(), f()))
			sk.TransformLinkMatrices = append(sk.TransformLinkMatrices, m)
			sk.TransformMatrices = append(sk.TransformMatrices, Mat4(mgl32.Scale3D(f(), 1, 1)))
		}
		s.Skins = append(s.Skins, sk)
	}
	for i := count(); i > 0; i-- {
		s.Files = append(s.Files, File{ID: u32(), NameID: id(), Buffer: blob()})
	}
	for i := r.IntN(5); i > 0; i-- {
		_, _ = s.PushBool(r.IntN(2) == 0)
		_, _ = s.PushInt(int32(r.IntN(1000) - 500))
		_, _ = s.PushFloat3(v3())
		_, _ = s.PushString(string(rune('a' + r.IntN(26))))
	}
	return s
}
