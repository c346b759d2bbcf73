package scene

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenepack/pkg/flatbuf"
)

// Inline struct sizes in bytes. Every struct is 4-byte aligned.
const (
	TransformSize       = 144
	TransformLimitsSize = 92
	AnimStackSize       = 8
	AnimLayerSize       = 16
	TextureSize         = 72
	CameraSize          = 28
	LightSize           = 64
	SubmeshSize         = 48
	SubsetSize          = 12
	MaterialPropSize    = 8
	AnimCurveKeySize    = 20
	Mat4Size            = 64
)

const structAlign = 4

// NoID marks an absent record reference.
const NoID = ^uint32(0)

// Transform holds the FBX transform components of a node.
type Transform struct {
	Translation          mgl32.Vec3
	RotationOffset       mgl32.Vec3
	RotationPivot        mgl32.Vec3
	PreRotation          mgl32.Vec3
	PostRotation         mgl32.Vec3
	Rotation             mgl32.Vec3
	ScalingOffset        mgl32.Vec3
	ScalingPivot         mgl32.Vec3
	Scaling              mgl32.Vec3
	GeometricTranslation mgl32.Vec3
	GeometricRotation    mgl32.Vec3
	GeometricScaling     mgl32.Vec3
}

func (t Transform) size() int { return TransformSize }

func (t Transform) encode(w *structWriter) {
	for _, v := range []mgl32.Vec3{
		t.Translation, t.RotationOffset, t.RotationPivot, t.PreRotation, t.PostRotation, t.Rotation,
		t.ScalingOffset, t.ScalingPivot, t.Scaling,
		t.GeometricTranslation, t.GeometricRotation, t.GeometricScaling,
	} {
		w.vec3(v)
	}
}

func readTransform(s flatbuf.Struct) Transform {
	r := structReader{s: s}
	return Transform{
		Translation:          r.vec3(),
		RotationOffset:       r.vec3(),
		RotationPivot:        r.vec3(),
		PreRotation:          r.vec3(),
		PostRotation:         r.vec3(),
		Rotation:             r.vec3(),
		ScalingOffset:        r.vec3(),
		ScalingPivot:         r.vec3(),
		Scaling:              r.vec3(),
		GeometricTranslation: r.vec3(),
		GeometricRotation:    r.vec3(),
		GeometricScaling:     r.vec3(),
	}
}

// Bool3 is a per-axis flag triple.
type Bool3 [3]bool

// TransformLimits bounds a node's translation, rotation and scaling.
type TransformLimits struct {
	TranslationMin mgl32.Vec3
	TranslationMax mgl32.Vec3
	RotationMin    mgl32.Vec3
	RotationMax    mgl32.Vec3
	ScalingMin     mgl32.Vec3
	ScalingMax     mgl32.Vec3

	TranslationMinActive Bool3
	TranslationMaxActive Bool3
	RotationMinActive    Bool3
	RotationMaxActive    Bool3
	ScalingMinActive     Bool3
	ScalingMaxActive     Bool3
}

func (l TransformLimits) size() int { return TransformLimitsSize }

func (l TransformLimits) encode(w *structWriter) {
	for _, v := range []mgl32.Vec3{
		l.TranslationMin, l.TranslationMax, l.RotationMin, l.RotationMax, l.ScalingMin, l.ScalingMax,
	} {
		w.vec3(v)
	}
	for _, f := range []Bool3{
		l.TranslationMinActive, l.TranslationMaxActive, l.RotationMinActive,
		l.RotationMaxActive, l.ScalingMinActive, l.ScalingMaxActive,
	} {
		w.bool3(f)
	}
	w.pad(2)
}

func readTransformLimits(s flatbuf.Struct) TransformLimits {
	r := structReader{s: s}
	return TransformLimits{
		TranslationMin:       r.vec3(),
		TranslationMax:       r.vec3(),
		RotationMin:          r.vec3(),
		RotationMax:          r.vec3(),
		ScalingMin:           r.vec3(),
		ScalingMax:           r.vec3(),
		TranslationMinActive: r.bool3(),
		TranslationMaxActive: r.bool3(),
		RotationMinActive:    r.bool3(),
		RotationMaxActive:    r.bool3(),
		ScalingMinActive:     r.bool3(),
		ScalingMaxActive:     r.bool3(),
	}
}

type AnimStack struct {
	ID     uint32
	NameID ValueID
}

func (a AnimStack) size() int { return AnimStackSize }

func (a AnimStack) encode(w *structWriter) {
	w.u32(a.ID)
	w.u32(uint32(a.NameID))
}

func readAnimStack(s flatbuf.Struct) AnimStack {
	r := structReader{s: s}
	return AnimStack{ID: r.u32(), NameID: ValueID(r.u32())}
}

type AnimLayer struct {
	ID           uint32
	NameID       ValueID
	AnimStackID  uint32
	AnimStackIdx uint32
}

func (a AnimLayer) size() int { return AnimLayerSize }

func (a AnimLayer) encode(w *structWriter) {
	w.u32(a.ID)
	w.u32(uint32(a.NameID))
	w.u32(a.AnimStackID)
	w.u32(a.AnimStackIdx)
}

func readAnimLayer(s flatbuf.Struct) AnimLayer {
	r := structReader{s: s}
	return AnimLayer{ID: r.u32(), NameID: ValueID(r.u32()), AnimStackID: r.u32(), AnimStackIdx: r.u32()}
}

// Texture describes a texture layer and the embedded file it samples.
type Texture struct {
	ID                  uint32
	NameID              ValueID
	FileID              uint32
	TextureTypeID       ValueID
	BlendMode           BlendMode
	WrapModeU           WrapMode
	WrapModeV           WrapMode
	OffsetU             float32
	OffsetV             float32
	ScaleU              float32
	ScaleV              float32
	CropBottom          int32
	CropLeft            int32
	CropRight           int32
	CropTop             int32
	RotationU           float32
	RotationV           float32
	RotationW           float32
	SwapUV              bool
	WipeMode            bool
	PremultipliedAlpha  bool
	AlphaSource         AlphaSource
	TextureUse          TextureUse
	MappingType         MappingType
	PlanarMappingNormal PlanarMappingNormal
}

// NewTexture returns a texture with unit scale that references fileID.
func NewTexture(fileID uint32) Texture {
	return Texture{FileID: fileID, ScaleU: 1, ScaleV: 1, MappingType: MappingUV}
}

func (t Texture) size() int { return TextureSize }

func (t Texture) encode(w *structWriter) {
	w.u32(t.ID)
	w.u32(uint32(t.NameID))
	w.u32(t.FileID)
	w.u32(uint32(t.TextureTypeID))
	w.u8(uint8(t.BlendMode))
	w.u8(uint8(t.WrapModeU))
	w.u8(uint8(t.WrapModeV))
	w.pad(1)
	w.f32(t.OffsetU)
	w.f32(t.OffsetV)
	w.f32(t.ScaleU)
	w.f32(t.ScaleV)
	w.u32(uint32(t.CropBottom))
	w.u32(uint32(t.CropLeft))
	w.u32(uint32(t.CropRight))
	w.u32(uint32(t.CropTop))
	w.f32(t.RotationU)
	w.f32(t.RotationV)
	w.f32(t.RotationW)
	w.bool(t.SwapUV)
	w.bool(t.WipeMode)
	w.bool(t.PremultipliedAlpha)
	w.u8(uint8(t.AlphaSource))
	w.u8(uint8(t.TextureUse))
	w.u8(uint8(t.MappingType))
	w.u8(uint8(t.PlanarMappingNormal))
	w.pad(1)
}

func readTexture(s flatbuf.Struct) Texture {
	r := structReader{s: s}
	t := Texture{
		ID:            r.u32(),
		NameID:        ValueID(r.u32()),
		FileID:        r.u32(),
		TextureTypeID: ValueID(r.u32()),
		BlendMode:     BlendMode(r.u8()),
		WrapModeU:     WrapMode(r.u8()),
		WrapModeV:     WrapMode(r.u8()),
	}
	r.skip(1)
	t.OffsetU, t.OffsetV = r.f32(), r.f32()
	t.ScaleU, t.ScaleV = r.f32(), r.f32()
	t.CropBottom, t.CropLeft = int32(r.u32()), int32(r.u32())
	t.CropRight, t.CropTop = int32(r.u32()), int32(r.u32())
	t.RotationU, t.RotationV, t.RotationW = r.f32(), r.f32(), r.f32()
	t.SwapUV, t.WipeMode, t.PremultipliedAlpha = r.bool(), r.bool(), r.bool()
	t.AlphaSource = AlphaSource(r.u8())
	t.TextureUse = TextureUse(r.u8())
	t.MappingType = MappingType(r.u8())
	t.PlanarMappingNormal = PlanarMappingNormal(r.u8())
	return t
}

type Camera struct {
	ID          uint32
	NameID      ValueID
	Up          mgl32.Vec3
	AspectRatio mgl32.Vec2
}

func (c Camera) size() int { return CameraSize }

func (c Camera) encode(w *structWriter) {
	w.u32(c.ID)
	w.u32(uint32(c.NameID))
	w.vec3(c.Up)
	w.vec2(c.AspectRatio)
}

func readCamera(s flatbuf.Struct) Camera {
	r := structReader{s: s}
	return Camera{ID: r.u32(), NameID: ValueID(r.u32()), Up: r.vec3(), AspectRatio: r.vec2()}
}

type Light struct {
	ID                   uint32
	NameID               ValueID
	Color                mgl32.Vec3
	NearAttenuationStart float32
	NearAttenuationEnd   float32
	FarAttenuationStart  float32
	FarAttenuationEnd    float32
	InnerAngle           float32
	OuterAngle           float32
	DecayStart           float32
	Fog                  float32
	Intensity            float32
	CastsShadows         bool
	CastsLight           bool
	LightType            LightType
	AreaLightType        AreaLightType
	DecayType            DecayType
}

func (l Light) size() int { return LightSize }

func (l Light) encode(w *structWriter) {
	w.u32(l.ID)
	w.u32(uint32(l.NameID))
	w.vec3(l.Color)
	for _, f := range []float32{
		l.NearAttenuationStart, l.NearAttenuationEnd, l.FarAttenuationStart, l.FarAttenuationEnd,
		l.InnerAngle, l.OuterAngle, l.DecayStart, l.Fog, l.Intensity,
	} {
		w.f32(f)
	}
	w.bool(l.CastsShadows)
	w.bool(l.CastsLight)
	w.u8(uint8(l.LightType))
	w.u8(uint8(l.AreaLightType))
	w.u8(uint8(l.DecayType))
	w.pad(3)
}

func readLight(s flatbuf.Struct) Light {
	r := structReader{s: s}
	return Light{
		ID:                   r.u32(),
		NameID:               ValueID(r.u32()),
		Color:                r.vec3(),
		NearAttenuationStart: r.f32(),
		NearAttenuationEnd:   r.f32(),
		FarAttenuationStart:  r.f32(),
		FarAttenuationEnd:    r.f32(),
		InnerAngle:           r.f32(),
		OuterAngle:           r.f32(),
		DecayStart:           r.f32(),
		Fog:                  r.f32(),
		Intensity:            r.f32(),
		CastsShadows:         r.bool(),
		CastsLight:           r.bool(),
		LightType:            LightType(r.u8()),
		AreaLightType:        AreaLightType(r.u8()),
		DecayType:            DecayType(r.u8()),
	}
}

// Submesh is a draw range inside a mesh's vertex and index payload.
type Submesh struct {
	BBoxMin         mgl32.Vec3
	BBoxMax         mgl32.Vec3
	BaseVertex      uint32
	VertexCount     uint32
	BaseIndex       uint32
	IndexCount      uint32
	BaseSubset      uint16
	SubsetCount     uint16
	VertexFormat    VertexFormat
	CompressionType CompressionType
}

func (s Submesh) size() int { return SubmeshSize }

func (s Submesh) encode(w *structWriter) {
	w.vec3(s.BBoxMin)
	w.vec3(s.BBoxMax)
	w.u32(s.BaseVertex)
	w.u32(s.VertexCount)
	w.u32(s.BaseIndex)
	w.u32(s.IndexCount)
	w.u16(s.BaseSubset)
	w.u16(s.SubsetCount)
	w.u8(uint8(s.VertexFormat))
	w.u8(uint8(s.CompressionType))
	w.pad(2)
}

func readSubmesh(s flatbuf.Struct) Submesh {
	r := structReader{s: s}
	return Submesh{
		BBoxMin:         r.vec3(),
		BBoxMax:         r.vec3(),
		BaseVertex:      r.u32(),
		VertexCount:     r.u32(),
		BaseIndex:       r.u32(),
		IndexCount:      r.u32(),
		BaseSubset:      r.u16(),
		SubsetCount:     r.u16(),
		VertexFormat:    VertexFormat(r.u8()),
		CompressionType: CompressionType(r.u8()),
	}
}

// CreateSubmesh writes a submesh in place with explicit scalar writes, last
// field first, and returns its offset.
func CreateSubmesh(b *flatbuf.Builder, s Submesh) flatbuf.UOffsetT {
	b.Prep(structAlign, SubmeshSize)
	b.Pad(2)
	b.PlaceUint8(uint8(s.CompressionType))
	b.PlaceUint8(uint8(s.VertexFormat))
	b.PlaceUint16(s.SubsetCount)
	b.PlaceUint16(s.BaseSubset)
	b.PlaceUint32(s.IndexCount)
	b.PlaceUint32(s.BaseIndex)
	b.PlaceUint32(s.VertexCount)
	b.PlaceUint32(s.BaseVertex)
	for _, v := range []mgl32.Vec3{s.BBoxMax, s.BBoxMin} {
		b.PlaceFloat32(v[2])
		b.PlaceFloat32(v[1])
		b.PlaceFloat32(v[0])
	}
	return b.Offset()
}

// Bounds returns the union of the bounding boxes of subs.
func Bounds(subs []Submesh) (lo, hi mgl32.Vec3) {
	if len(subs) == 0 {
		return lo, hi
	}
	lo, hi = subs[0].BBoxMin, subs[0].BBoxMax
	for _, s := range subs[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math32.Min(lo[k], s.BBoxMin[k])
			hi[k] = math32.Max(hi[k], s.BBoxMax[k])
		}
	}
	return lo, hi
}

// Subset binds a material to a range of a mesh's subset indices.
type Subset struct {
	MaterialID uint32
	BaseIndex  uint32
	IndexCount uint32
}

func (s Subset) size() int { return SubsetSize }

func (s Subset) encode(w *structWriter) {
	w.u32(s.MaterialID)
	w.u32(s.BaseIndex)
	w.u32(s.IndexCount)
}

func readSubset(s flatbuf.Struct) Subset {
	r := structReader{s: s}
	return Subset{MaterialID: r.u32(), BaseIndex: r.u32(), IndexCount: r.u32()}
}

// MaterialProp is a named property. For generic properties ValueID refers
// to a value pool entry; for texture properties it is a texture index.
type MaterialProp struct {
	NameID  ValueID
	ValueID ValueID
}

func (p MaterialProp) size() int { return MaterialPropSize }

func (p MaterialProp) encode(w *structWriter) {
	w.u32(uint32(p.NameID))
	w.u32(uint32(p.ValueID))
}

func readMaterialProp(s flatbuf.Struct) MaterialProp {
	r := structReader{s: s}
	return MaterialProp{NameID: ValueID(r.u32()), ValueID: ValueID(r.u32())}
}

type AnimCurveKey struct {
	Time          float32
	Value         float32
	Bez1          float32
	Bez2          float32
	Interpolation InterpolationMode
}

func (k AnimCurveKey) size() int { return AnimCurveKeySize }

func (k AnimCurveKey) encode(w *structWriter) {
	w.f32(k.Time)
	w.f32(k.Value)
	w.f32(k.Bez1)
	w.f32(k.Bez2)
	w.u8(uint8(k.Interpolation))
	w.pad(3)
}

func readAnimCurveKey(s flatbuf.Struct) AnimCurveKey {
	r := structReader{s: s}
	return AnimCurveKey{
		Time:          r.f32(),
		Value:         r.f32(),
		Bez1:          r.f32(),
		Bez2:          r.f32(),
		Interpolation: InterpolationMode(r.u8()),
	}
}

// Mat4 is a column-major 4x4 matrix stored inline.
type Mat4 mgl32.Mat4

func (m Mat4) size() int { return Mat4Size }

func (m Mat4) encode(w *structWriter) {
	for _, f := range m {
		w.f32(f)
	}
}

func readMat4(s flatbuf.Struct) Mat4 {
	r := structReader{s: s}
	var m Mat4
	for i := range m {
		m[i] = r.f32()
	}
	return m
}

// inlineStruct is implemented by every fixed-width record.
type inlineStruct interface {
	size() int
	encode(w *structWriter)
}

// createStructVector writes items as a packed struct vector. An empty slice
// writes nothing and yields the absent offset.
func createStructVector[T inlineStruct](b *flatbuf.Builder, items []T) flatbuf.UOffsetT {
	if len(items) == 0 {
		return 0
	}
	size := items[0].size()
	b.StartVector(size, len(items), structAlign)
	w := structWriter{buf: make([]byte, size)}
	for i := len(items) - 1; i >= 0; i-- {
		w.reset()
		items[i].encode(&w)
		b.PrependStruct(structAlign, w.buf)
	}
	off, _ := b.EndVector()
	return off
}

// readStructVector decodes the struct vector in slot.
func readStructVector[T any](t flatbuf.Table, slot, size int, read func(flatbuf.Struct) T) ([]T, error) {
	v, err := t.Vector(slot, size)
	if err != nil || v.Len() == 0 {
		return nil, err
	}
	out := make([]T, v.Len())
	for i := range out {
		s, err := v.Struct(i)
		if err != nil {
			return nil, err
		}
		out[i] = read(s)
	}
	return out, nil
}

// structWriter fills a fixed-width struct front to back.
type structWriter struct {
	buf []byte
	pos int
}

func (w *structWriter) reset() {
	clear(w.buf)
	w.pos = 0
}

func (w *structWriter) u8(v uint8) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *structWriter) bool(v bool) {
	var x uint8
	if v {
		x = 1
	}
	w.u8(x)
}

func (w *structWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *structWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *structWriter) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *structWriter) vec2(v mgl32.Vec2) {
	w.f32(v[0])
	w.f32(v[1])
}

func (w *structWriter) vec3(v mgl32.Vec3) {
	w.f32(v[0])
	w.f32(v[1])
	w.f32(v[2])
}

func (w *structWriter) bool3(v Bool3) {
	for _, b := range v {
		w.bool(b)
	}
}

func (w *structWriter) pad(n int) { w.pos += n }

// structReader mirrors structWriter over a finished struct.
type structReader struct {
	s   flatbuf.Struct
	pos int
}

func (r *structReader) skip(n int) { r.pos += n }

func (r *structReader) u8() uint8 {
	v := r.s.Uint8(r.pos)
	r.pos++
	return v
}

func (r *structReader) bool() bool { return r.u8() != 0 }

func (r *structReader) u16() uint16 {
	v := r.s.Uint16(r.pos)
	r.pos += 2
	return v
}

func (r *structReader) u32() uint32 {
	v := r.s.Uint32(r.pos)
	r.pos += 4
	return v
}

func (r *structReader) f32() float32 {
	v := r.s.Float32(r.pos)
	r.pos += 4
	return v
}

func (r *structReader) vec2() mgl32.Vec2 { return mgl32.Vec2{r.f32(), r.f32()} }

func (r *structReader) vec3() mgl32.Vec3 { return mgl32.Vec3{r.f32(), r.f32(), r.f32()} }

func (r *structReader) bool3() Bool3 { return Bool3{r.bool(), r.bool(), r.bool()} }
