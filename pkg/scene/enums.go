package scene

import "fmt"

// WrapMode controls texture addressing outside [0,1].
type WrapMode uint8

const (
	WrapRepeat WrapMode = 0
	WrapClamp  WrapMode = 1
)

func (m WrapMode) String() string {
	switch m {
	case WrapRepeat:
		return "Repeat"
	case WrapClamp:
		return "Clamp"
	default:
		return fmt.Sprintf("WrapMode(%d)", m)
	}
}

// BlendMode of a texture layer.
type BlendMode uint8

const (
	BlendTranslucent BlendMode = iota
	BlendAdditive
	BlendModulate
	BlendModulate2
	BlendOver
)

var blendModeNames = []string{"Translucent", "Additive", "Modulate", "Modulate2", "Over"}

func (m BlendMode) String() string { return enumName("BlendMode", blendModeNames, uint8(m)) }

// AlphaSource selects where texture alpha comes from.
type AlphaSource uint8

const (
	AlphaNone AlphaSource = iota
	AlphaRGBIntensity
	AlphaBlack
)

var alphaSourceNames = []string{"None", "RGBIntensity", "Black"}

func (s AlphaSource) String() string { return enumName("AlphaSource", alphaSourceNames, uint8(s)) }

// TextureUse describes the purpose of a texture.
type TextureUse uint8

const (
	TextureUseStandard TextureUse = iota
	TextureUseShadowMap
	TextureUseLightMap
	TextureUseSphericalReflectionMap
	TextureUseSphereReflectionMap
	TextureUseBumpNormalMap
)

var textureUseNames = []string{
	"Standard", "ShadowMap", "LightMap", "SphericalReflectionMap", "SphereReflectionMap", "BumpNormalMap",
}

func (u TextureUse) String() string { return enumName("TextureUse", textureUseNames, uint8(u)) }

// MappingType is the texture projection.
type MappingType uint8

const (
	MappingNull MappingType = iota
	MappingPlanar
	MappingSpherical
	MappingCylindrical
	MappingBox
	MappingFace
	MappingUV
	MappingEnvironment
)

var mappingTypeNames = []string{"Null", "Planar", "Spherical", "Cylindrical", "Box", "Face", "UV", "Environment"}

func (m MappingType) String() string { return enumName("MappingType", mappingTypeNames, uint8(m)) }

// PlanarMappingNormal is the projection axis of planar mapping.
type PlanarMappingNormal uint8

const (
	PlanarMappingX PlanarMappingNormal = iota
	PlanarMappingY
	PlanarMappingZ
)

var planarMappingNames = []string{"X", "Y", "Z"}

func (n PlanarMappingNormal) String() string {
	return enumName("PlanarMappingNormal", planarMappingNames, uint8(n))
}

// LightType of a light source.
type LightType uint8

const (
	LightPoint LightType = iota
	LightDirectional
	LightSpot
	LightArea
	LightVolume
)

var lightTypeNames = []string{"Point", "Directional", "Spot", "Area", "Volume"}

func (t LightType) String() string { return enumName("LightType", lightTypeNames, uint8(t)) }

// AreaLightType is the emitter shape of an area light.
type AreaLightType uint8

const (
	AreaLightRectangle AreaLightType = iota
	AreaLightSphere
)

var areaLightTypeNames = []string{"Rectangle", "Sphere"}

func (t AreaLightType) String() string {
	return enumName("AreaLightType", areaLightTypeNames, uint8(t))
}

// DecayType is the light falloff curve.
type DecayType uint8

const (
	DecayNone DecayType = iota
	DecayLinear
	DecayQuadratic
	DecayCubic
)

var decayTypeNames = []string{"None", "Linear", "Quadratic", "Cubic"}

func (t DecayType) String() string { return enumName("DecayType", decayTypeNames, uint8(t)) }

// CullingType of a node.
type CullingType uint8

const (
	CullingOff CullingType = iota
	CullingOnCCW
	CullingOnCW
)

var cullingTypeNames = []string{"Off", "OnCCW", "OnCW"}

func (t CullingType) String() string { return enumName("CullingType", cullingTypeNames, uint8(t)) }

// RotationOrder of a node's Euler angles.
type RotationOrder uint8

const (
	RotationEulerXYZ RotationOrder = iota
	RotationEulerXZY
	RotationEulerYZX
	RotationEulerYXZ
	RotationEulerZXY
	RotationEulerZYX
	RotationSphericXYZ
)

var rotationOrderNames = []string{"EulerXYZ", "EulerXZY", "EulerYZX", "EulerYXZ", "EulerZXY", "EulerZYX", "SphericXYZ"}

func (o RotationOrder) String() string {
	return enumName("RotationOrder", rotationOrderNames, uint8(o))
}

// InheritType describes how a node inherits parent transforms.
type InheritType uint8

const (
	InheritRrSs InheritType = iota
	InheritRSrs
	InheritRrs
)

var inheritTypeNames = []string{"RrSs", "RSrs", "Rrs"}

func (t InheritType) String() string { return enumName("InheritType", inheritTypeNames, uint8(t)) }

// SkeletonType of a bone node.
type SkeletonType uint8

const (
	SkeletonRoot SkeletonType = iota
	SkeletonLimb
	SkeletonLimbNode
	SkeletonEffector
)

var skeletonTypeNames = []string{"Root", "Limb", "LimbNode", "Effector"}

func (t SkeletonType) String() string { return enumName("SkeletonType", skeletonTypeNames, uint8(t)) }

// IndexType is the element width of an index buffer.
type IndexType uint8

const (
	IndexUInt16 IndexType = iota
	IndexUInt32
)

// Size returns the element width in bytes.
func (t IndexType) Size() int {
	if t == IndexUInt32 {
		return 4
	}
	return 2
}

func (t IndexType) String() string {
	switch t {
	case IndexUInt16:
		return "UInt16"
	case IndexUInt32:
		return "UInt32"
	default:
		return fmt.Sprintf("IndexType(%d)", t)
	}
}

// VertexFormat identifies the layout of the opaque vertex payload.
type VertexFormat uint8

const (
	VertexStatic VertexFormat = iota
	VertexStaticSkinned
	VertexFatSkinned
	VertexPacked
)

var vertexFormatNames = []string{"Static", "StaticSkinned", "FatSkinned", "Packed"}

func (f VertexFormat) String() string { return enumName("VertexFormat", vertexFormatNames, uint8(f)) }

// CompressionType of the vertex/index payload.
type CompressionType uint8

const (
	CompressionNone  CompressionType = 0
	CompressionDraco CompressionType = 1 // Google Draco 3D
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionDraco:
		return "Draco"
	default:
		return fmt.Sprintf("CompressionType(%d)", c)
	}
}

// InterpolationMode of an animation curve key.
type InterpolationMode uint8

const (
	InterpolationConst InterpolationMode = iota
	InterpolationLinear
	InterpolationCubic
)

var interpolationNames = []string{"Const", "Linear", "Cubic"}

func (m InterpolationMode) String() string {
	return enumName("InterpolationMode", interpolationNames, uint8(m))
}

// AnimCurveProperty is the transform component an animation curve drives.
type AnimCurveProperty uint8

const (
	AnimLclTranslation AnimCurveProperty = iota
	AnimRotationOffset
	AnimRotationPivot
	AnimPreRotation
	AnimPostRotation
	AnimLclRotation
	AnimScalingOffset
	AnimScalingPivot
	AnimLclScaling
	AnimGeometricTranslation
	AnimGeometricRotation
	AnimGeometricScaling
)

var animCurvePropertyNames = []string{
	"LclTranslation", "RotationOffset", "RotationPivot", "PreRotation", "PostRotation", "LclRotation",
	"ScalingOffset", "ScalingPivot", "LclScaling", "GeometricTranslation", "GeometricRotation", "GeometricScaling",
}

func (p AnimCurveProperty) String() string {
	return enumName("AnimCurveProperty", animCurvePropertyNames, uint8(p))
}

// AnimCurveChannel is the vector component an animation curve drives.
type AnimCurveChannel uint8

const (
	ChannelX AnimCurveChannel = iota
	ChannelY
	ChannelZ
)

var animCurveChannelNames = []string{"X", "Y", "Z"}

func (c AnimCurveChannel) String() string {
	return enumName("AnimCurveChannel", animCurveChannelNames, uint8(c))
}

func enumName(kind string, names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}
