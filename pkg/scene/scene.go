// Package scene defines the scene container schema on top of package
// flatbuf: fixed-width inline structs, table records, the root SceneView and
// the typed value pools that records use for names and generic properties.
//
// Scene is the owned, mutable model used while building or patching. Encode
// turns it into an immutable buffer; Open gives a zero-copy view of one and
// Decode copies it back into a Scene.
package scene

import (
	"fmt"

	"github.com/Faultbox/scenepack/pkg/flatbuf"
)

// CurrentVersion is the format revision written by default.
const CurrentVersion = 1

// DefaultBuilderSize is the initial buffer size used by Encode when none is
// given.
const DefaultBuilderSize = 1 << 16

// Scene is the in-memory scene model.
type Scene struct {
	Version         uint8
	Transforms      []Transform
	TransformLimits []TransformLimits
	Nodes           []Node
	Meshes          []Mesh
	AnimStacks      []AnimStack
	AnimLayers      []AnimLayer
	AnimCurves      []AnimCurve
	Materials       []Material
	Textures        []Texture
	Cameras         []Camera
	Lights          []Light
	Skins           []Skin
	Files           []File

	Pools
}

// New returns an empty scene at CurrentVersion.
func New() *Scene {
	return &Scene{Version: CurrentVersion}
}

type packer interface {
	pack(b *flatbuf.Builder) flatbuf.UOffsetT
}

// createTableVector packs every item, then writes the vector of offsets
// that references them.
func createTableVector[T packer](b *flatbuf.Builder, items []T) flatbuf.UOffsetT {
	if len(items) == 0 {
		return 0
	}
	offs := make([]flatbuf.UOffsetT, len(items))
	for i, it := range items {
		offs[i] = it.pack(b)
	}
	return createOffsetVector(b, offs)
}

func createOffsetVector(b *flatbuf.Builder, offs []flatbuf.UOffsetT) flatbuf.UOffsetT {
	b.StartVector(flatbuf.SizeUOffsetT, len(offs), flatbuf.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	off, _ := b.EndVector()
	return off
}

func (p *Pools) pack(b *flatbuf.Builder) (bools, ints, floats, strs flatbuf.UOffsetT) {
	if n := len(p.Bools); n > 0 {
		b.StartVector(flatbuf.SizeBool, n, flatbuf.SizeBool)
		for i := n - 1; i >= 0; i-- {
			b.PrependBool(p.Bools[i])
		}
		bools, _ = b.EndVector()
	}
	if n := len(p.Ints); n > 0 {
		b.StartVector(flatbuf.SizeInt32, n, flatbuf.SizeInt32)
		for i := n - 1; i >= 0; i-- {
			b.PrependInt32(p.Ints[i])
		}
		ints, _ = b.EndVector()
	}
	if n := len(p.Floats); n > 0 {
		b.StartVector(flatbuf.SizeFloat32, n, flatbuf.SizeFloat32)
		for i := n - 1; i >= 0; i-- {
			b.PrependFloat32(p.Floats[i])
		}
		floats, _ = b.EndVector()
	}
	if n := len(p.Strings); n > 0 {
		offs := make([]flatbuf.UOffsetT, n)
		for i, s := range p.Strings {
			offs[i] = b.CreateString(s)
		}
		strs = createOffsetVector(b, offs)
	}
	return bools, ints, floats, strs
}

// Encode builds the scene into a finished buffer. initialSize is the
// starting builder capacity; values <= 0 use DefaultBuilderSize.
func (s *Scene) Encode(initialSize int) ([]byte, error) {
	if initialSize <= 0 {
		initialSize = DefaultBuilderSize
	}
	b := flatbuf.NewBuilder(initialSize)

	transforms := createStructVector(b, s.Transforms)
	limits := createStructVector(b, s.TransformLimits)
	nodes := createTableVector(b, s.Nodes)
	meshes := createTableVector(b, s.Meshes)
	stacks := createStructVector(b, s.AnimStacks)
	layers := createStructVector(b, s.AnimLayers)
	curves := createTableVector(b, s.AnimCurves)
	materials := createTableVector(b, s.Materials)
	textures := createStructVector(b, s.Textures)
	cameras := createStructVector(b, s.Cameras)
	lights := createStructVector(b, s.Lights)
	skins := createTableVector(b, s.Skins)
	files := createTableVector(b, s.Files)
	bools, ints, floats, strs := s.Pools.pack(b)

	b.StartTable(sceneFieldCount)
	b.PrependUOffsetTSlot(sceneStringValues, strs, 0)
	b.PrependUOffsetTSlot(sceneFloatValues, floats, 0)
	b.PrependUOffsetTSlot(sceneIntValues, ints, 0)
	b.PrependUOffsetTSlot(sceneBoolValues, bools, 0)
	b.PrependUOffsetTSlot(sceneFiles, files, 0)
	b.PrependUOffsetTSlot(sceneSkins, skins, 0)
	b.PrependUOffsetTSlot(sceneLights, lights, 0)
	b.PrependUOffsetTSlot(sceneCameras, cameras, 0)
	b.PrependUOffsetTSlot(sceneTextures, textures, 0)
	b.PrependUOffsetTSlot(sceneMaterials, materials, 0)
	b.PrependUOffsetTSlot(sceneAnimCurves, curves, 0)
	b.PrependUOffsetTSlot(sceneAnimLayers, layers, 0)
	b.PrependUOffsetTSlot(sceneAnimStacks, stacks, 0)
	b.PrependUOffsetTSlot(sceneMeshes, meshes, 0)
	b.PrependUOffsetTSlot(sceneNodes, nodes, 0)
	b.PrependUOffsetTSlot(sceneTransformLimits, limits, 0)
	b.PrependUOffsetTSlot(sceneTransforms, transforms, 0)
	b.PrependUint8Slot(sceneVersion, s.Version, 0)
	root, err := b.EndTable()
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	buf, err := b.Finish(root)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return buf, nil
}

// Decode copies a finished buffer into a new Scene.
func Decode(buf []byte) (*Scene, error) {
	v, err := Open(buf)
	if err != nil {
		return nil, err
	}
	return v.Unpack()
}

func unpackAll[T any](n int, at func(int) (T, error)) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]T, n)
	for i := range out {
		x, err := at(i)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

// unpacker is implemented by the table views.
type unpacker[T any] interface {
	Unpack() (T, error)
}

func unpackTables[V unpacker[T], T any](n int, at func(int) (V, error)) ([]T, error) {
	return unpackAll(n, func(i int) (T, error) {
		v, err := at(i)
		if err != nil {
			var zero T
			return zero, err
		}
		return v.Unpack()
	})
}

// Unpack copies the viewed scene into an owned Scene.
func (s SceneView) Unpack() (*Scene, error) {
	out := &Scene{Version: s.Version()}
	var err error
	steps := []struct {
		name string
		run  func() error
	}{
		{"transforms", func() (err error) {
			out.Transforms, err = unpackAll(s.TransformsLength(), s.Transforms)
			return err
		}},
		{"transform limits", func() (err error) {
			out.TransformLimits, err = unpackAll(s.TransformLimitsLength(), s.TransformLimits)
			return err
		}},
		{"nodes", func() (err error) {
			out.Nodes, err = unpackTables[NodeView, Node](s.NodesLength(), s.Nodes)
			return err
		}},
		{"meshes", func() (err error) {
			out.Meshes, err = unpackTables[MeshView, Mesh](s.MeshesLength(), s.Meshes)
			return err
		}},
		{"anim stacks", func() (err error) {
			out.AnimStacks, err = unpackAll(s.AnimStacksLength(), s.AnimStacks)
			return err
		}},
		{"anim layers", func() (err error) {
			out.AnimLayers, err = unpackAll(s.AnimLayersLength(), s.AnimLayers)
			return err
		}},
		{"anim curves", func() (err error) {
			out.AnimCurves, err = unpackTables[AnimCurveView, AnimCurve](s.AnimCurvesLength(), s.AnimCurves)
			return err
		}},
		{"materials", func() (err error) {
			out.Materials, err = unpackTables[MaterialView, Material](s.MaterialsLength(), s.Materials)
			return err
		}},
		{"textures", func() (err error) {
			out.Textures, err = unpackAll(s.TexturesLength(), s.Textures)
			return err
		}},
		{"cameras", func() (err error) {
			out.Cameras, err = unpackAll(s.CamerasLength(), s.Cameras)
			return err
		}},
		{"lights", func() (err error) {
			out.Lights, err = unpackAll(s.LightsLength(), s.Lights)
			return err
		}},
		{"skins", func() (err error) {
			out.Skins, err = unpackTables[SkinView, Skin](s.SkinsLength(), s.Skins)
			return err
		}},
		{"files", func() (err error) {
			out.Files, err = unpackTables[FileView, File](s.FilesLength(), s.Files)
			return err
		}},
		{"bool values", func() (err error) {
			out.Bools, err = unpackAll(s.BoolValuesLength(), s.BoolValues)
			return err
		}},
		{"int values", func() (err error) {
			out.Ints, err = unpackAll(s.IntValuesLength(), s.IntValues)
			return err
		}},
		{"float values", func() (err error) {
			out.Floats, err = unpackAll(s.FloatValuesLength(), s.FloatValues)
			return err
		}},
		{"string values", func() (err error) {
			out.Strings, err = unpackAll(s.StringValuesLength(), s.StringValues)
			return err
		}},
	}
	for _, step := range steps {
		if err = step.run(); err != nil {
			return nil, fmt.Errorf("decode %s: %w", step.name, err)
		}
	}
	return out, nil
}

// Name resolves a string value id against the scene pools, falling back to
// the id itself when it does not resolve.
func (s *Scene) Name(id ValueID) string {
	name, err := ResolveString(id, &s.Pools)
	if err != nil {
		return id.String()
	}
	return name
}
