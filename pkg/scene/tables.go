package scene

import (
	"bytes"

	"github.com/Faultbox/scenepack/pkg/flatbuf"
)

// Node field slots.
const (
	nodeID = iota
	nodeNameID
	nodeCullingType
	nodeRotationOrder
	nodeInheritType
	nodeSkeletonType
	nodeMeshID
	nodeLightID
	nodeCameraID
	nodeTransformLimitsID
	nodeChildIDs
	nodeMaterialIDs
	nodeAnimCurveIDs
	nodeProperties
	nodeFieldCount
)

// Node is a scene graph node. Its transform lives at the same index in
// Scene.Transforms.
type Node struct {
	ID                uint32
	NameID            ValueID
	CullingType       CullingType
	RotationOrder     RotationOrder
	InheritType       InheritType
	SkeletonType      SkeletonType
	MeshID            uint32 // NoID when the node has no mesh
	LightID           uint32
	CameraID          uint32
	TransformLimitsID uint32
	ChildIDs          []uint32
	MaterialIDs       []uint32
	AnimCurveIDs      []uint32
	Properties        []MaterialProp
}

// NewNode returns a node with no attached mesh, light, camera or limits.
func NewNode(id uint32, nameID ValueID) Node {
	return Node{
		ID:                id,
		NameID:            nameID,
		MeshID:            NoID,
		LightID:           NoID,
		CameraID:          NoID,
		TransformLimitsID: NoID,
	}
}

func (n Node) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	children := createUint32Vector(b, n.ChildIDs)
	materials := createUint32Vector(b, n.MaterialIDs)
	curves := createUint32Vector(b, n.AnimCurveIDs)
	props := createStructVector(b, n.Properties)

	b.StartTable(nodeFieldCount)
	b.PrependUOffsetTSlot(nodeProperties, props, 0)
	b.PrependUOffsetTSlot(nodeAnimCurveIDs, curves, 0)
	b.PrependUOffsetTSlot(nodeMaterialIDs, materials, 0)
	b.PrependUOffsetTSlot(nodeChildIDs, children, 0)
	b.PrependUint32Slot(nodeTransformLimitsID, n.TransformLimitsID, NoID)
	b.PrependUint32Slot(nodeCameraID, n.CameraID, NoID)
	b.PrependUint32Slot(nodeLightID, n.LightID, NoID)
	b.PrependUint32Slot(nodeMeshID, n.MeshID, NoID)
	b.PrependUint32Slot(nodeNameID, uint32(n.NameID), 0)
	b.PrependUint32Slot(nodeID, n.ID, 0)
	b.PrependUint8Slot(nodeSkeletonType, uint8(n.SkeletonType), 0)
	b.PrependUint8Slot(nodeInheritType, uint8(n.InheritType), 0)
	b.PrependUint8Slot(nodeRotationOrder, uint8(n.RotationOrder), 0)
	b.PrependUint8Slot(nodeCullingType, uint8(n.CullingType), 0)
	off, _ := b.EndTable()
	return off
}

// NodeView reads a node in place.
type NodeView struct{ t flatbuf.Table }

func (v NodeView) ID() uint32      { return v.t.GetUint32(nodeID, 0) }
func (v NodeView) NameID() ValueID { return ValueID(v.t.GetUint32(nodeNameID, 0)) }

func (v NodeView) CullingType() CullingType {
	return CullingType(v.t.GetUint8(nodeCullingType, 0))
}

func (v NodeView) RotationOrder() RotationOrder {
	return RotationOrder(v.t.GetUint8(nodeRotationOrder, 0))
}

func (v NodeView) InheritType() InheritType {
	return InheritType(v.t.GetUint8(nodeInheritType, 0))
}

func (v NodeView) SkeletonType() SkeletonType {
	return SkeletonType(v.t.GetUint8(nodeSkeletonType, 0))
}

func (v NodeView) MeshID() uint32            { return v.t.GetUint32(nodeMeshID, NoID) }
func (v NodeView) LightID() uint32           { return v.t.GetUint32(nodeLightID, NoID) }
func (v NodeView) CameraID() uint32          { return v.t.GetUint32(nodeCameraID, NoID) }
func (v NodeView) TransformLimitsID() uint32 { return v.t.GetUint32(nodeTransformLimitsID, NoID) }

func (v NodeView) ChildIDs() (IDList, error)     { return idList(v.t, nodeChildIDs) }
func (v NodeView) MaterialIDs() (IDList, error)  { return idList(v.t, nodeMaterialIDs) }
func (v NodeView) AnimCurveIDs() (IDList, error) { return idList(v.t, nodeAnimCurveIDs) }

func (v NodeView) Properties() (StructList[MaterialProp], error) {
	return structList(v.t, nodeProperties, MaterialPropSize, readMaterialProp)
}

// Unpack copies the node into an owned value.
func (v NodeView) Unpack() (Node, error) {
	n := Node{
		ID:                v.ID(),
		NameID:            v.NameID(),
		CullingType:       v.CullingType(),
		RotationOrder:     v.RotationOrder(),
		InheritType:       v.InheritType(),
		SkeletonType:      v.SkeletonType(),
		MeshID:            v.MeshID(),
		LightID:           v.LightID(),
		CameraID:          v.CameraID(),
		TransformLimitsID: v.TransformLimitsID(),
	}
	var err error
	if n.ChildIDs, err = readUint32Vector(v.t, nodeChildIDs); err != nil {
		return Node{}, err
	}
	if n.MaterialIDs, err = readUint32Vector(v.t, nodeMaterialIDs); err != nil {
		return Node{}, err
	}
	if n.AnimCurveIDs, err = readUint32Vector(v.t, nodeAnimCurveIDs); err != nil {
		return Node{}, err
	}
	if n.Properties, err = readStructVector(v.t, nodeProperties, MaterialPropSize, readMaterialProp); err != nil {
		return Node{}, err
	}
	return n, nil
}

// Mesh field slots.
const (
	meshVertices = iota
	meshSubmeshes
	meshSubsets
	meshIndices
	meshIndexType
	meshSubsetIndices
	meshSubsetIndexType
	meshSkinID
	meshFieldCount
)

// Mesh carries opaque vertex and index payloads plus the ranges that
// partition them.
type Mesh struct {
	Vertices        []byte
	Submeshes       []Submesh
	Subsets         []Subset
	Indices         []byte
	IndexType       IndexType
	SubsetIndices   []byte
	SubsetIndexType IndexType
	SkinID          uint32 // NoID when unskinned
}

func (m Mesh) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	vertices := createBytes(b, m.Vertices)
	submeshes := createSubmeshVector(b, m.Submeshes)
	subsets := createStructVector(b, m.Subsets)
	indices := createBytes(b, m.Indices)
	subsetIndices := createBytes(b, m.SubsetIndices)

	b.StartTable(meshFieldCount)
	b.PrependUint32Slot(meshSkinID, m.SkinID, NoID)
	b.PrependUOffsetTSlot(meshSubsetIndices, subsetIndices, 0)
	b.PrependUOffsetTSlot(meshIndices, indices, 0)
	b.PrependUOffsetTSlot(meshSubsets, subsets, 0)
	b.PrependUOffsetTSlot(meshSubmeshes, submeshes, 0)
	b.PrependUOffsetTSlot(meshVertices, vertices, 0)
	b.PrependUint8Slot(meshSubsetIndexType, uint8(m.SubsetIndexType), 0)
	b.PrependUint8Slot(meshIndexType, uint8(m.IndexType), 0)
	off, _ := b.EndTable()
	return off
}

// createSubmeshVector writes submeshes through CreateSubmesh.
func createSubmeshVector(b *flatbuf.Builder, subs []Submesh) flatbuf.UOffsetT {
	if len(subs) == 0 {
		return 0
	}
	b.StartVector(SubmeshSize, len(subs), structAlign)
	for i := len(subs) - 1; i >= 0; i-- {
		CreateSubmesh(b, subs[i])
	}
	off, _ := b.EndVector()
	return off
}

type MeshView struct{ t flatbuf.Table }

// Vertices returns the vertex payload without copying.
func (v MeshView) Vertices() ([]byte, error) { return bytesField(v.t, meshVertices) }
func (v MeshView) Indices() ([]byte, error)  { return bytesField(v.t, meshIndices) }

func (v MeshView) SubsetIndices() ([]byte, error) { return bytesField(v.t, meshSubsetIndices) }

func (v MeshView) IndexType() IndexType       { return IndexType(v.t.GetUint8(meshIndexType, 0)) }
func (v MeshView) SubsetIndexType() IndexType { return IndexType(v.t.GetUint8(meshSubsetIndexType, 0)) }
func (v MeshView) SkinID() uint32             { return v.t.GetUint32(meshSkinID, NoID) }

func (v MeshView) Submeshes() (StructList[Submesh], error) {
	return structList(v.t, meshSubmeshes, SubmeshSize, readSubmesh)
}

func (v MeshView) Subsets() (StructList[Subset], error) {
	return structList(v.t, meshSubsets, SubsetSize, readSubset)
}

func (v MeshView) Unpack() (Mesh, error) {
	m := Mesh{
		IndexType:       v.IndexType(),
		SubsetIndexType: v.SubsetIndexType(),
		SkinID:          v.SkinID(),
	}
	var err error
	if m.Vertices, err = copyBytesField(v.t, meshVertices); err != nil {
		return Mesh{}, err
	}
	if m.Indices, err = copyBytesField(v.t, meshIndices); err != nil {
		return Mesh{}, err
	}
	if m.SubsetIndices, err = copyBytesField(v.t, meshSubsetIndices); err != nil {
		return Mesh{}, err
	}
	if m.Submeshes, err = readStructVector(v.t, meshSubmeshes, SubmeshSize, readSubmesh); err != nil {
		return Mesh{}, err
	}
	if m.Subsets, err = readStructVector(v.t, meshSubsets, SubsetSize, readSubset); err != nil {
		return Mesh{}, err
	}
	return m, nil
}

// Material field slots.
const (
	materialID = iota
	materialNameID
	materialProperties
	materialTextureProperties
	materialFieldCount
)

// Material is a named set of properties. Texture properties hold a texture
// index in ValueID instead of a pooled value.
type Material struct {
	ID                uint32
	NameID            ValueID
	Properties        []MaterialProp
	TextureProperties []MaterialProp
}

func (m Material) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	props := createStructVector(b, m.Properties)
	texProps := createStructVector(b, m.TextureProperties)

	b.StartTable(materialFieldCount)
	b.PrependUOffsetTSlot(materialTextureProperties, texProps, 0)
	b.PrependUOffsetTSlot(materialProperties, props, 0)
	b.PrependUint32Slot(materialNameID, uint32(m.NameID), 0)
	b.PrependUint32Slot(materialID, m.ID, 0)
	off, _ := b.EndTable()
	return off
}

type MaterialView struct{ t flatbuf.Table }

func (v MaterialView) ID() uint32      { return v.t.GetUint32(materialID, 0) }
func (v MaterialView) NameID() ValueID { return ValueID(v.t.GetUint32(materialNameID, 0)) }

func (v MaterialView) Properties() (StructList[MaterialProp], error) {
	return structList(v.t, materialProperties, MaterialPropSize, readMaterialProp)
}

func (v MaterialView) TextureProperties() (StructList[MaterialProp], error) {
	return structList(v.t, materialTextureProperties, MaterialPropSize, readMaterialProp)
}

func (v MaterialView) Unpack() (Material, error) {
	m := Material{ID: v.ID(), NameID: v.NameID()}
	var err error
	if m.Properties, err = readStructVector(v.t, materialProperties, MaterialPropSize, readMaterialProp); err != nil {
		return Material{}, err
	}
	if m.TextureProperties, err = readStructVector(v.t, materialTextureProperties, MaterialPropSize, readMaterialProp); err != nil {
		return Material{}, err
	}
	return m, nil
}

// AnimCurve field slots.
const (
	curveID = iota
	curveAnimStackID
	curveAnimLayerID
	curveNodeID
	curveNameID
	curveProperty
	curveChannel
	curveKeys
	curveFieldCount
)

// AnimCurve animates one channel of one transform property of a node.
type AnimCurve struct {
	ID          uint32
	AnimStackID uint32
	AnimLayerID uint32
	NodeID      uint32
	NameID      ValueID
	Property    AnimCurveProperty
	Channel     AnimCurveChannel
	Keys        []AnimCurveKey
}

func (c AnimCurve) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	keys := createStructVector(b, c.Keys)

	b.StartTable(curveFieldCount)
	b.PrependUOffsetTSlot(curveKeys, keys, 0)
	b.PrependUint32Slot(curveNameID, uint32(c.NameID), 0)
	b.PrependUint32Slot(curveNodeID, c.NodeID, 0)
	b.PrependUint32Slot(curveAnimLayerID, c.AnimLayerID, 0)
	b.PrependUint32Slot(curveAnimStackID, c.AnimStackID, 0)
	b.PrependUint32Slot(curveID, c.ID, 0)
	b.PrependUint8Slot(curveChannel, uint8(c.Channel), 0)
	b.PrependUint8Slot(curveProperty, uint8(c.Property), 0)
	off, _ := b.EndTable()
	return off
}

type AnimCurveView struct{ t flatbuf.Table }

func (v AnimCurveView) ID() uint32          { return v.t.GetUint32(curveID, 0) }
func (v AnimCurveView) AnimStackID() uint32 { return v.t.GetUint32(curveAnimStackID, 0) }
func (v AnimCurveView) AnimLayerID() uint32 { return v.t.GetUint32(curveAnimLayerID, 0) }
func (v AnimCurveView) NodeID() uint32      { return v.t.GetUint32(curveNodeID, 0) }
func (v AnimCurveView) NameID() ValueID     { return ValueID(v.t.GetUint32(curveNameID, 0)) }

func (v AnimCurveView) Property() AnimCurveProperty {
	return AnimCurveProperty(v.t.GetUint8(curveProperty, 0))
}

func (v AnimCurveView) Channel() AnimCurveChannel {
	return AnimCurveChannel(v.t.GetUint8(curveChannel, 0))
}

func (v AnimCurveView) Keys() (StructList[AnimCurveKey], error) {
	return structList(v.t, curveKeys, AnimCurveKeySize, readAnimCurveKey)
}

func (v AnimCurveView) Unpack() (AnimCurve, error) {
	c := AnimCurve{
		ID:          v.ID(),
		AnimStackID: v.AnimStackID(),
		AnimLayerID: v.AnimLayerID(),
		NodeID:      v.NodeID(),
		NameID:      v.NameID(),
		Property:    v.Property(),
		Channel:     v.Channel(),
	}
	var err error
	if c.Keys, err = readStructVector(v.t, curveKeys, AnimCurveKeySize, readAnimCurveKey); err != nil {
		return AnimCurve{}, err
	}
	return c, nil
}

// Skin field slots.
const (
	skinNameID = iota
	skinLinkIDs
	skinTransformLinkMatrices
	skinTransformMatrices
	skinFieldCount
)

// Skin binds a mesh to the bone nodes listed in LinkIDs.
type Skin struct {
	NameID                ValueID
	LinkIDs               []uint32
	TransformLinkMatrices []Mat4
	TransformMatrices     []Mat4
}

func (s Skin) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	links := createUint32Vector(b, s.LinkIDs)
	linkMatrices := createStructVector(b, s.TransformLinkMatrices)
	matrices := createStructVector(b, s.TransformMatrices)

	b.StartTable(skinFieldCount)
	b.PrependUOffsetTSlot(skinTransformMatrices, matrices, 0)
	b.PrependUOffsetTSlot(skinTransformLinkMatrices, linkMatrices, 0)
	b.PrependUOffsetTSlot(skinLinkIDs, links, 0)
	b.PrependUint32Slot(skinNameID, uint32(s.NameID), 0)
	off, _ := b.EndTable()
	return off
}

type SkinView struct{ t flatbuf.Table }

func (v SkinView) NameID() ValueID          { return ValueID(v.t.GetUint32(skinNameID, 0)) }
func (v SkinView) LinkIDs() (IDList, error) { return idList(v.t, skinLinkIDs) }

func (v SkinView) TransformLinkMatrices() (StructList[Mat4], error) {
	return structList(v.t, skinTransformLinkMatrices, Mat4Size, readMat4)
}

func (v SkinView) TransformMatrices() (StructList[Mat4], error) {
	return structList(v.t, skinTransformMatrices, Mat4Size, readMat4)
}

func (v SkinView) Unpack() (Skin, error) {
	s := Skin{NameID: v.NameID()}
	var err error
	if s.LinkIDs, err = readUint32Vector(v.t, skinLinkIDs); err != nil {
		return Skin{}, err
	}
	if s.TransformLinkMatrices, err = readStructVector(v.t, skinTransformLinkMatrices, Mat4Size, readMat4); err != nil {
		return Skin{}, err
	}
	if s.TransformMatrices, err = readStructVector(v.t, skinTransformMatrices, Mat4Size, readMat4); err != nil {
		return Skin{}, err
	}
	return s, nil
}

// File field slots.
const (
	fileID = iota
	fileNameID
	fileBuffer
	fileFieldCount
)

// File is an embedded asset, usually a texture image.
type File struct {
	ID     uint32
	NameID ValueID
	Buffer []byte
}

func (f File) pack(b *flatbuf.Builder) flatbuf.UOffsetT {
	buf := createBytes(b, f.Buffer)

	b.StartTable(fileFieldCount)
	b.PrependUOffsetTSlot(fileBuffer, buf, 0)
	b.PrependUint32Slot(fileNameID, uint32(f.NameID), 0)
	b.PrependUint32Slot(fileID, f.ID, 0)
	off, _ := b.EndTable()
	return off
}

type FileView struct{ t flatbuf.Table }

func (v FileView) ID() uint32      { return v.t.GetUint32(fileID, 0) }
func (v FileView) NameID() ValueID { return ValueID(v.t.GetUint32(fileNameID, 0)) }

// Buffer returns the embedded bytes without copying.
func (v FileView) Buffer() ([]byte, error) { return bytesField(v.t, fileBuffer) }

func (v FileView) Unpack() (File, error) {
	buf, err := copyBytesField(v.t, fileBuffer)
	if err != nil {
		return File{}, err
	}
	return File{ID: v.ID(), NameID: v.NameID(), Buffer: buf}, nil
}

// IDList is a read-only view of a vector of record ids.
type IDList struct{ v flatbuf.Vector }

func (l IDList) Len() int                 { return l.v.Len() }
func (l IDList) At(i int) (uint32, error) { return l.v.Uint32(i) }

// StructList is a read-only view of a packed struct vector.
type StructList[T any] struct {
	v    flatbuf.Vector
	read func(flatbuf.Struct) T
}

func (l StructList[T]) Len() int { return l.v.Len() }

func (l StructList[T]) At(i int) (T, error) {
	s, err := l.v.Struct(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return l.read(s), nil
}

func structList[T any](t flatbuf.Table, slot, size int, read func(flatbuf.Struct) T) (StructList[T], error) {
	v, err := t.Vector(slot, size)
	if err != nil {
		return StructList[T]{}, err
	}
	return StructList[T]{v: v, read: read}, nil
}

func idList(t flatbuf.Table, slot int) (IDList, error) {
	v, err := t.Vector(slot, flatbuf.SizeUint32)
	return IDList{v: v}, err
}

func createUint32Vector(b *flatbuf.Builder, ids []uint32) flatbuf.UOffsetT {
	if len(ids) == 0 {
		return 0
	}
	b.StartVector(flatbuf.SizeUint32, len(ids), flatbuf.SizeUint32)
	for i := len(ids) - 1; i >= 0; i-- {
		b.PrependUint32(ids[i])
	}
	off, _ := b.EndVector()
	return off
}

func readUint32Vector(t flatbuf.Table, slot int) ([]uint32, error) {
	v, err := t.Vector(slot, flatbuf.SizeUint32)
	if err != nil || v.Len() == 0 {
		return nil, err
	}
	out := make([]uint32, v.Len())
	for i := range out {
		if out[i], err = v.Uint32(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func createBytes(b *flatbuf.Builder, p []byte) flatbuf.UOffsetT {
	if len(p) == 0 {
		return 0
	}
	return b.CreateByteVector(p)
}

func bytesField(t flatbuf.Table, slot int) ([]byte, error) {
	v, err := t.Vector(slot, 1)
	if err != nil {
		return nil, err
	}
	return v.Data(), nil
}

func copyBytesField(t flatbuf.Table, slot int) ([]byte, error) {
	p, err := bytesField(t, slot)
	if err != nil || p == nil {
		return nil, err
	}
	return bytes.Clone(p), nil
}
