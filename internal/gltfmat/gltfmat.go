// Package gltfmat patches scene materials from a glTF sidecar file.
//
// Each glTF material is converted into a full replacement record: PBR
// factors become material properties and bound textures are embedded and
// referenced from texture properties. The replacement is stored under the
// material with the same name. When no name matches and the sidecar has as
// many materials as the scene, materials are paired by position, but never
// into a slot another sidecar material already claimed by name.
//
// Only the glTF JSON is read. Buffers are never loaded, so a sidecar whose
// binary payload is missing still patches materials.
package gltfmat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/extension"
	"github.com/Faultbox/scenepack/internal/state"
	"github.com/Faultbox/scenepack/pkg/scene"
)

// Name is the extension name used in configuration.
const Name = "gltf-material"

// ErrSidecarParse is returned when the sidecar is missing or malformed. The
// scene is left untouched.
var ErrSidecarParse = errors.New("glTF sidecar parse error")

// Material property names.
const (
	PropBaseColorFactor = "baseColorFactor"
	PropMetallicFactor  = "metallicFactor"
	PropRoughnessFactor = "roughnessFactor"
	PropEmissiveFactor  = "emissiveFactor"
	PropAlphaMode       = "alphaMode"
	PropAlphaCutoff     = "alphaCutoff"
	PropDoubleSided     = "doubleSided"

	PropBaseColorTexture         = "baseColorTexture"
	PropMetallicRoughnessTexture = "metallicRoughnessTexture"
	PropNormalTexture            = "normalTexture"
	PropOcclusionTexture         = "occlusionTexture"
	PropEmissiveTexture          = "emissiveTexture"
)

func init() {
	extension.Register(Name, Patch)
}

// Patch applies the materials of the glTF file at path to st.
func Patch(st *state.State, path string) error {
	log := st.Logger().Named("gltfmat")

	doc, err := decode(path)
	if err != nil {
		return err
	}
	extension.LogInfo(fmt.Sprintf("patching %d materials from %s", len(doc.Materials), path))

	// Relative image URIs resolve next to the sidecar first.
	if err := st.AddSearchLocation(filepath.Dir(path)); err != nil {
		log.Warn("sidecar directory not searchable", zap.Error(err))
	}

	targets := assign(st, doc.Materials, log)
	p := patcher{st: st, doc: doc, log: log}

	for i, src := range doc.Materials {
		if src == nil {
			continue
		}
		tgt := targets[i]

		m, err := p.material(tgt.name, src)
		if err != nil {
			extension.LogError(fmt.Sprintf("material %q skipped: %v", src.Name, err))
			continue
		}

		if tgt.slot < 0 {
			slot := st.AppendMaterial(m)
			log.Info("material appended", zap.String("name", tgt.name), zap.Int("slot", slot))
			continue
		}
		if _, err := st.SetMaterial(tgt.slot, m); err != nil {
			extension.LogError(fmt.Sprintf("material %q not stored: %v", src.Name, err))
		}
	}
	return nil
}

// decode reads the glTF JSON at path without loading any buffer.
func decode(path string) (*gltf.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSidecarParse, err)
	}
	defer f.Close()

	doc := new(gltf.Document)
	if err := json.NewDecoder(f).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSidecarParse, path, err)
	}
	return doc, nil
}

// target is where a sidecar material is stored. A negative slot appends.
type target struct {
	slot int
	name string
}

// assign resolves the target of every sidecar material before the scene is
// touched. Name matches are resolved first and claim their slots. When both
// sides have the same number of materials, each remaining material is paired
// with the slot at its own position unless a name match claimed it, in which
// case it is appended.
func assign(st *state.State, mats []*gltf.Material, log *zap.Logger) []target {
	targets := make([]target, len(mats))
	claimed := make(map[int]bool)
	for i, src := range mats {
		targets[i].slot = -1
		if src == nil {
			continue
		}
		targets[i].name = src.Name
		if slot, err := st.MaterialIndex(src.Name); err == nil {
			targets[i].slot = slot
			claimed[slot] = true
		}
	}

	if len(mats) != st.MaterialsLength() {
		return targets
	}
	for i, src := range mats {
		if src == nil || targets[i].slot >= 0 {
			continue
		}
		if claimed[i] {
			log.Info("slot already patched by name, appending",
				zap.String("gltf", src.Name), zap.Int("slot", i))
			continue
		}
		// the slot keeps its own name
		targets[i] = target{slot: i, name: st.MaterialName(i)}
		claimed[i] = true
		log.Info("material paired by index",
			zap.String("gltf", src.Name), zap.String("scene", targets[i].name), zap.Int("slot", i))
	}
	return targets
}

type patcher struct {
	st  *state.State
	doc *gltf.Document
	log *zap.Logger
}

// material builds the replacement record for src. Nothing is stored in a
// material slot until it is complete.
func (p *patcher) material(name string, src *gltf.Material) (scene.Material, error) {
	var m scene.Material
	var err error
	if m.NameID, err = p.st.PushString(name); err != nil {
		return m, err
	}

	b := propBuilder{st: p.st}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if c := pbr.BaseColorFactor; c != nil {
			b.add(PropBaseColorFactor, func() (scene.ValueID, error) {
				return p.st.PushFloat4(c[0], c[1], c[2], c[3])
			})
		}
		if f := pbr.MetallicFactor; f != nil {
			b.add(PropMetallicFactor, func() (scene.ValueID, error) { return p.st.PushFloat(*f) })
		}
		if f := pbr.RoughnessFactor; f != nil {
			b.add(PropRoughnessFactor, func() (scene.ValueID, error) { return p.st.PushFloat(*f) })
		}
	}
	if e := src.EmissiveFactor; e != [3]float32{} {
		b.add(PropEmissiveFactor, func() (scene.ValueID, error) {
			return p.st.PushFloat3(e[0], e[1], e[2])
		})
	}
	if src.AlphaMode != gltf.AlphaOpaque {
		b.add(PropAlphaMode, func() (scene.ValueID, error) { return p.st.PushString(alphaModeName(src.AlphaMode)) })
	}
	// the cutoff only applies to masked materials
	if f := src.AlphaCutoff; f != nil && src.AlphaMode == gltf.AlphaMask {
		b.add(PropAlphaCutoff, func() (scene.ValueID, error) { return p.st.PushFloat(*f) })
	}
	if src.DoubleSided {
		b.add(PropDoubleSided, func() (scene.ValueID, error) { return p.st.PushBool(true) })
	}
	if b.err != nil {
		return m, b.err
	}
	m.Properties = b.props

	for _, bound := range boundTextures(src) {
		tex, ok := p.texture(bound.index)
		if !ok {
			continue
		}
		key, err := p.st.PushString(bound.prop)
		if err != nil {
			return m, err
		}
		m.TextureProperties = append(m.TextureProperties, scene.MaterialProp{
			NameID:  key,
			ValueID: scene.ValueID(tex),
		})
	}
	return m, nil
}

type propBuilder struct {
	st    *state.State
	props []scene.MaterialProp
	err   error
}

func (b *propBuilder) add(name string, push func() (scene.ValueID, error)) {
	if b.err != nil {
		return
	}
	key, err := b.st.PushString(name)
	if err != nil {
		b.err = err
		return
	}
	v, err := push()
	if err != nil {
		b.err = err
		return
	}
	b.props = append(b.props, scene.MaterialProp{NameID: key, ValueID: v})
}

type boundTexture struct {
	prop  string
	index int
}

func boundTextures(src *gltf.Material) []boundTexture {
	var out []boundTexture
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if t := pbr.BaseColorTexture; t != nil {
			out = append(out, boundTexture{PropBaseColorTexture, int(t.Index)})
		}
		if t := pbr.MetallicRoughnessTexture; t != nil {
			out = append(out, boundTexture{PropMetallicRoughnessTexture, int(t.Index)})
		}
	}
	if t := src.NormalTexture; t != nil && t.Index != nil {
		out = append(out, boundTexture{PropNormalTexture, int(*t.Index)})
	}
	if t := src.OcclusionTexture; t != nil && t.Index != nil {
		out = append(out, boundTexture{PropOcclusionTexture, int(*t.Index)})
	}
	if t := src.EmissiveTexture; t != nil {
		out = append(out, boundTexture{PropEmissiveTexture, int(t.Index)})
	}
	return out
}

// texture embeds the image of glTF texture i and pushes a texture record
// for it. Missing images are logged and skipped.
func (p *patcher) texture(i int) (uint32, bool) {
	if i < 0 || i >= len(p.doc.Textures) || p.doc.Textures[i] == nil {
		extension.LogError(fmt.Sprintf("texture %d out of range", i))
		return 0, false
	}
	src := p.doc.Textures[i]
	if src.Source == nil || int(*src.Source) >= len(p.doc.Images) {
		extension.LogError(fmt.Sprintf("texture %d has no image", i))
		return 0, false
	}
	img := p.doc.Images[*src.Source]
	if img == nil || img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		extension.LogError(fmt.Sprintf("texture %d: only external image files can be embedded", i))
		return 0, false
	}

	path := p.st.FindTexture(img.URI)
	fileID := p.st.EmbedFile(path)
	if fileID == state.NoFile {
		extension.LogError(fmt.Sprintf("missing: %q", filepath.Base(img.URI)))
		return 0, false
	}

	t := scene.NewTexture(uint32(fileID))
	t.ID = uint32(len(p.st.Scene.Textures))
	name := img.Name
	if name == "" {
		name = src.Name
	}
	if name == "" {
		name = filepath.Base(img.URI)
	}
	var err error
	if t.NameID, err = p.st.PushString(name); err != nil {
		extension.LogError(fmt.Sprintf("texture %q: %v", name, err))
		return 0, false
	}
	if src.Sampler != nil && int(*src.Sampler) < len(p.doc.Samplers) {
		if s := p.doc.Samplers[*src.Sampler]; s != nil {
			t.WrapModeU = wrapMode(s.WrapS)
			t.WrapModeV = wrapMode(s.WrapT)
		}
	}

	idx := p.st.PushTexture(t)
	p.log.Debug("texture bound",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int64("file", fileID),
		zap.Uint32("texture", idx))
	return idx, true
}

// wrapMode maps a glTF sampler wrap mode; the format has no mirrored
// repeat, so it falls back to repeat.
func wrapMode(m gltf.WrappingMode) scene.WrapMode {
	if m == gltf.WrapClampToEdge {
		return scene.WrapClamp
	}
	return scene.WrapRepeat
}

func alphaModeName(m gltf.AlphaMode) string {
	switch m {
	case gltf.AlphaMask:
		return "MASK"
	case gltf.AlphaBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}
