package scene

import "github.com/Faultbox/scenepack/pkg/flatbuf"

// Scene root field slots.
const (
	sceneVersion = iota
	sceneTransforms
	sceneTransformLimits
	sceneNodes
	sceneMeshes
	sceneAnimStacks
	sceneAnimLayers
	sceneAnimCurves
	sceneMaterials
	sceneTextures
	sceneCameras
	sceneLights
	sceneSkins
	sceneFiles
	sceneBoolValues
	sceneIntValues
	sceneFloatValues
	sceneStringValues
	sceneFieldCount
)

// SceneView reads a finished scene buffer in place. Length accessors report
// 0 for a field whose vector header is damaged; element accessors report the
// error instead.
type SceneView struct{ t flatbuf.Table }

// Open returns a view of the scene rooted in buf.
func Open(buf []byte) (SceneView, error) {
	t, err := flatbuf.GetRoot(buf)
	if err != nil {
		return SceneView{}, err
	}
	return SceneView{t: t}, nil
}

// Bytes returns the underlying buffer.
func (s SceneView) Bytes() []byte { return s.t.Bytes }

func (s SceneView) Version() uint8 { return s.t.GetUint8(sceneVersion, 0) }

func (s SceneView) length(slot, stride int) int {
	v, err := s.t.Vector(slot, stride)
	if err != nil {
		return 0
	}
	return v.Len()
}

func structAt[T any](t flatbuf.Table, slot, size, i int, read func(flatbuf.Struct) T) (T, error) {
	var zero T
	v, err := t.Vector(slot, size)
	if err != nil {
		return zero, err
	}
	st, err := v.Struct(i)
	if err != nil {
		return zero, err
	}
	return read(st), nil
}

// tableAt follows the i-th offset of a table vector to the table it
// references.
func (s SceneView) tableAt(slot, i int) (flatbuf.Table, error) {
	v, err := s.t.Vector(slot, flatbuf.SizeUOffsetT)
	if err != nil {
		return flatbuf.Table{}, err
	}
	return v.Table(i)
}

func (s SceneView) TransformsLength() int { return s.length(sceneTransforms, TransformSize) }

func (s SceneView) Transforms(i int) (Transform, error) {
	return structAt(s.t, sceneTransforms, TransformSize, i, readTransform)
}

func (s SceneView) TransformLimitsLength() int {
	return s.length(sceneTransformLimits, TransformLimitsSize)
}

func (s SceneView) TransformLimits(i int) (TransformLimits, error) {
	return structAt(s.t, sceneTransformLimits, TransformLimitsSize, i, readTransformLimits)
}

func (s SceneView) NodesLength() int { return s.length(sceneNodes, flatbuf.SizeUOffsetT) }

func (s SceneView) Nodes(i int) (NodeView, error) {
	t, err := s.tableAt(sceneNodes, i)
	return NodeView{t: t}, err
}

func (s SceneView) MeshesLength() int { return s.length(sceneMeshes, flatbuf.SizeUOffsetT) }

func (s SceneView) Meshes(i int) (MeshView, error) {
	t, err := s.tableAt(sceneMeshes, i)
	return MeshView{t: t}, err
}

func (s SceneView) AnimStacksLength() int { return s.length(sceneAnimStacks, AnimStackSize) }

func (s SceneView) AnimStacks(i int) (AnimStack, error) {
	return structAt(s.t, sceneAnimStacks, AnimStackSize, i, readAnimStack)
}

func (s SceneView) AnimLayersLength() int { return s.length(sceneAnimLayers, AnimLayerSize) }

func (s SceneView) AnimLayers(i int) (AnimLayer, error) {
	return structAt(s.t, sceneAnimLayers, AnimLayerSize, i, readAnimLayer)
}

func (s SceneView) AnimCurvesLength() int { return s.length(sceneAnimCurves, flatbuf.SizeUOffsetT) }

func (s SceneView) AnimCurves(i int) (AnimCurveView, error) {
	t, err := s.tableAt(sceneAnimCurves, i)
	return AnimCurveView{t: t}, err
}

func (s SceneView) MaterialsLength() int { return s.length(sceneMaterials, flatbuf.SizeUOffsetT) }

func (s SceneView) Materials(i int) (MaterialView, error) {
	t, err := s.tableAt(sceneMaterials, i)
	return MaterialView{t: t}, err
}

func (s SceneView) TexturesLength() int { return s.length(sceneTextures, TextureSize) }

func (s SceneView) Textures(i int) (Texture, error) {
	return structAt(s.t, sceneTextures, TextureSize, i, readTexture)
}

func (s SceneView) CamerasLength() int { return s.length(sceneCameras, CameraSize) }

func (s SceneView) Cameras(i int) (Camera, error) {
	return structAt(s.t, sceneCameras, CameraSize, i, readCamera)
}

func (s SceneView) LightsLength() int { return s.length(sceneLights, LightSize) }

func (s SceneView) Lights(i int) (Light, error) {
	return structAt(s.t, sceneLights, LightSize, i, readLight)
}

func (s SceneView) SkinsLength() int { return s.length(sceneSkins, flatbuf.SizeUOffsetT) }

func (s SceneView) Skins(i int) (SkinView, error) {
	t, err := s.tableAt(sceneSkins, i)
	return SkinView{t: t}, err
}

func (s SceneView) FilesLength() int { return s.length(sceneFiles, flatbuf.SizeUOffsetT) }

func (s SceneView) Files(i int) (FileView, error) {
	t, err := s.tableAt(sceneFiles, i)
	return FileView{t: t}, err
}

func (s SceneView) BoolValuesLength() int { return s.length(sceneBoolValues, flatbuf.SizeBool) }

func (s SceneView) BoolValues(i int) (bool, error) {
	v, err := s.t.Vector(sceneBoolValues, flatbuf.SizeBool)
	if err != nil {
		return false, err
	}
	return v.Bool(i)
}

func (s SceneView) IntValuesLength() int { return s.length(sceneIntValues, flatbuf.SizeInt32) }

func (s SceneView) IntValues(i int) (int32, error) {
	v, err := s.t.Vector(sceneIntValues, flatbuf.SizeInt32)
	if err != nil {
		return 0, err
	}
	return v.Int32(i)
}

func (s SceneView) FloatValuesLength() int { return s.length(sceneFloatValues, flatbuf.SizeFloat32) }

func (s SceneView) FloatValues(i int) (float32, error) {
	v, err := s.t.Vector(sceneFloatValues, flatbuf.SizeFloat32)
	if err != nil {
		return 0, err
	}
	return v.Float32(i)
}

func (s SceneView) StringValuesLength() int {
	return s.length(sceneStringValues, flatbuf.SizeUOffsetT)
}

// StringValueBytes returns the raw bytes of a string pool entry without
// copying. No text encoding is assumed.
func (s SceneView) StringValueBytes(i int) ([]byte, error) {
	v, err := s.t.Vector(sceneStringValues, flatbuf.SizeUOffsetT)
	if err != nil {
		return nil, err
	}
	return v.ByteString(i)
}

func (s SceneView) StringValues(i int) (string, error) {
	b, err := s.StringValueBytes(i)
	return string(b), err
}

var _ ValueSource = SceneView{}
