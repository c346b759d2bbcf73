package state

import (
	"fmt"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/pkg/encoding"
	"github.com/Faultbox/scenepack/pkg/flatbuf"
	"github.com/Faultbox/scenepack/pkg/scene"
)

// Policy selects how a material patched by name is stored.
type Policy string

const (
	// PolicyReplace overwrites the matched material in its slot.
	PolicyReplace Policy = "replace"
	// PolicySupersede keeps the matched material in its slot under the name
	// "<name>.superseded" and appends the replacement as a new material.
	PolicySupersede Policy = "supersede"
)

// SupersededSuffix is appended to the name of a superseded material.
const SupersededSuffix = ".superseded"

// ParsePolicy converts a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyReplace, PolicySupersede:
		return p, nil
	case "":
		return PolicyReplace, nil
	default:
		return "", fmt.Errorf("unknown material policy %q", s)
	}
}

// MaterialsLength returns the number of staged materials.
func (st *State) MaterialsLength() int {
	return len(st.Scene.Materials)
}

// Material returns a pointer to material i, or nil when i is out of range.
func (st *State) Material(i int) *scene.Material {
	if i < 0 || i >= len(st.Scene.Materials) {
		return nil
	}
	return &st.Scene.Materials[i]
}

// MaterialName resolves the name of material i.
func (st *State) MaterialName(i int) string {
	m := st.Material(i)
	if m == nil {
		return ""
	}
	name, err := scene.ResolveString(m.NameID, &st.Scene.Pools)
	if err != nil {
		return ""
	}
	return name
}

// MaterialIndex returns the slot of the material named name. An exact match
// wins; otherwise the first material whose name matches after normalisation
// is returned, so "Metal" and "metal" stay distinct when both exist.
func (st *State) MaterialIndex(name string) (int, error) {
	for i := range st.Scene.Materials {
		if st.MaterialName(i) == name {
			return i, nil
		}
	}
	for i := range st.Scene.Materials {
		if encoding.SameName(st.MaterialName(i), name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrMaterialNotFound, name)
}

// MaterialNames maps each normalised material name to its first slot.
func (st *State) MaterialNames() map[string]int {
	names := make(map[string]int, len(st.Scene.Materials))
	for i := range st.Scene.Materials {
		key := encoding.NormalizeName(st.MaterialName(i))
		if _, ok := names[key]; !ok {
			names[key] = i
		}
	}
	return names
}

// AppendMaterial appends m, assigns it the next material id and returns
// its slot.
func (st *State) AppendMaterial(m scene.Material) int {
	slot := len(st.Scene.Materials)
	m.ID = uint32(slot)
	st.Scene.Materials = append(st.Scene.Materials, m)
	return slot
}

// SetMaterial stores m in slot according to the state's Policy and returns
// the slot that now holds m. Under PolicyReplace m takes over the slot and
// its id. Under PolicySupersede the old record stays in the slot, renamed,
// and m is appended.
func (st *State) SetMaterial(slot int, m scene.Material) (int, error) {
	old := st.Material(slot)
	if old == nil {
		return -1, fmt.Errorf("%w: slot %d of %d", flatbuf.ErrIndexOutOfRange, slot, len(st.Scene.Materials))
	}

	switch st.Policy {
	case PolicySupersede:
		var kept scene.Material
		if err := copier.CopyWithOption(&kept, old, copier.Option{DeepCopy: true}); err != nil {
			return -1, fmt.Errorf("copying material %d: %w", slot, err)
		}
		nameID, err := st.Scene.PushString(st.MaterialName(slot) + SupersededSuffix)
		if err != nil {
			return -1, err
		}
		kept.NameID = nameID
		st.Scene.Materials[slot] = kept

		newSlot := st.AppendMaterial(m)
		st.log.Info("material superseded",
			zap.String("name", st.MaterialName(newSlot)),
			zap.Int("old_slot", slot),
			zap.Int("slot", newSlot))
		return newSlot, nil

	default:
		m.ID = old.ID
		st.Scene.Materials[slot] = m
		st.log.Info("material replaced",
			zap.String("name", st.MaterialName(slot)),
			zap.Int("slot", slot))
		return slot, nil
	}
}

// PatchMaterial stores m under name: the material with a matching name is
// overwritten per SetMaterial, otherwise m is appended. It reports the slot
// now holding m and whether an existing material was matched.
func (st *State) PatchMaterial(name string, m scene.Material) (int, bool, error) {
	slot, err := st.MaterialIndex(name)
	if err != nil {
		slot = st.AppendMaterial(m)
		st.log.Info("material appended", zap.String("name", name), zap.Int("slot", slot))
		return slot, false, nil
	}
	slot, err = st.SetMaterial(slot, m)
	return slot, err == nil, err
}
