// Package state is the mutable staging model a scene passes through between
// decoding and the next Encode. Extensions patch records here; a finished
// buffer is never modified in place.
package state

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/assets"
	"github.com/Faultbox/scenepack/internal/logger"
	"github.com/Faultbox/scenepack/pkg/encoding"
	"github.com/Faultbox/scenepack/pkg/scene"
)

// NoFile is returned by EmbedFile when the file cannot be embedded.
const NoFile int64 = -1

// ErrMaterialNotFound is returned by material lookups by name.
var ErrMaterialNotFound = errors.New("material not found")

// State wraps a scene under construction.
type State struct {
	Scene *scene.Scene

	// Policy decides what happens to a material that is patched by name.
	Policy Policy

	assets   *assets.Manager
	log      *zap.Logger
	embedded map[string]int64 // absolute path -> file id
}

// New returns a State for s. A nil s starts an empty scene.
func New(s *scene.Scene) *State {
	if s == nil {
		s = scene.New()
	}
	st := &State{
		Scene:    s,
		Policy:   PolicyReplace,
		assets:   assets.NewManager(),
		log:      logger.Named("state"),
		embedded: make(map[string]int64),
	}
	for i, f := range s.Files {
		if name, err := scene.ResolveString(f.NameID, &s.Pools); err == nil {
			st.embedded[name] = int64(i)
		}
	}
	return st
}

// Load decodes the scene file at path into a new State.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := scene.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return New(s), nil
}

// Logger returns the logger the state reports to.
func (st *State) Logger() *zap.Logger {
	return st.log
}

// Finalize encodes the staged scene. A zero version keeps the scene's own.
func (st *State) Finalize(version uint8, initialSize int) ([]byte, error) {
	if version != 0 {
		st.Scene.Version = version
	}
	buf, err := st.Scene.Encode(initialSize)
	if err != nil {
		return nil, err
	}
	st.log.Info("scene finalized",
		zap.Int("bytes", len(buf)),
		zap.Int("materials", len(st.Scene.Materials)),
		zap.Int("textures", len(st.Scene.Textures)),
		zap.Int("files", len(st.Scene.Files)))
	return buf, nil
}

// Close releases the file contents cached while embedding. The staged scene
// is kept.
func (st *State) Close() {
	st.assets.Close()
}

// Value pushes.

func (st *State) PushBool(v bool) (scene.ValueID, error)     { return st.Scene.PushBool(v) }
func (st *State) PushInt(v int32) (scene.ValueID, error)     { return st.Scene.PushInt(v) }
func (st *State) PushFloat(v float32) (scene.ValueID, error) { return st.Scene.PushFloat(v) }

func (st *State) PushFloat2(x, y float32) (scene.ValueID, error) {
	return st.Scene.PushFloat2(mgl32.Vec2{x, y})
}

func (st *State) PushFloat3(x, y, z float32) (scene.ValueID, error) {
	return st.Scene.PushFloat3(mgl32.Vec3{x, y, z})
}

func (st *State) PushFloat4(x, y, z, w float32) (scene.ValueID, error) {
	return st.Scene.PushFloat4(mgl32.Vec4{x, y, z, w})
}

func (st *State) PushString(v string) (scene.ValueID, error) { return st.Scene.PushString(v) }

// PushTexture appends t and returns its index in the texture sequence.
func (st *State) PushTexture(t scene.Texture) uint32 {
	st.Scene.Textures = append(st.Scene.Textures, t)
	return uint32(len(st.Scene.Textures) - 1)
}

// StringValue returns string pool entry i.
func (st *State) StringValue(i int) (string, error) {
	return st.Scene.StringValues(i)
}

// Name resolves a name id for logging.
func (st *State) Name(id scene.ValueID) string {
	return st.Scene.Name(id)
}

// Search locations.

// AddSearchLocation adds a directory for FindFile. A "/**" suffix includes
// every subdirectory.
func (st *State) AddSearchLocation(location string) error {
	if err := st.assets.AddLocation(location); err != nil {
		return err
	}
	st.log.Debug("search location added", zap.String("location", location))
	return nil
}

// SearchLocations returns the expanded search directories.
func (st *State) SearchLocations() []string {
	return st.assets.Locations()
}

// FindFile returns the full path of the first file in the search locations
// with the same base name as name, or "" when there is none.
func (st *State) FindFile(name string) string {
	return st.assets.Find(name)
}

// FindTexture looks up a texture url. Converters commonly re-encode images
// to PNG, so "<url>.png" and the url with its extension replaced by ".png"
// are tried after the url itself.
func (st *State) FindTexture(url string) string {
	url = encoding.NormalizePath(url)
	candidates := []string{url, url + ".png"}
	if ext := path.Ext(url); ext != "" && !strings.EqualFold(ext, ".png") {
		candidates = append(candidates, strings.TrimSuffix(url, ext)+".png")
	}
	for i, c := range candidates {
		if p := st.FindFile(c); p != "" {
			if i > 0 {
				st.log.Debug("texture found by fallback name", zap.String("url", url), zap.String("path", p))
			}
			return p
		}
	}
	return ""
}

// Embedded files.

// EmbedFile embeds the file at path and returns its file id. Embedding the
// same path twice returns the same id. NoFile is returned when the file
// cannot be read.
func (st *State) EmbedFile(path string) int64 {
	if path == "" {
		return NoFile
	}
	full, err := filepath.Abs(path)
	if err != nil {
		full = path
	}
	key := encoding.NormalizePath(full)
	if id, ok := st.embedded[key]; ok {
		return id
	}

	data, err := st.assets.Load(full)
	if err != nil {
		st.log.Error("embed failed", zap.String("path", path), zap.Error(err))
		return NoFile
	}

	nameID, err := st.Scene.PushString(key)
	if err != nil {
		st.log.Error("embed failed", zap.String("path", path), zap.Error(err))
		return NoFile
	}

	id := int64(len(st.Scene.Files))
	st.Scene.Files = append(st.Scene.Files, scene.File{
		ID:     uint32(id),
		NameID: nameID,
		Buffer: data,
	})
	st.embedded[key] = id

	mime, _ := assets.Kind(data)
	st.log.Info("file embedded",
		zap.String("path", key),
		zap.Int64("id", id),
		zap.Int("bytes", len(data)),
		zap.String("mime", mime))
	return id
}

// EmbedMatching embeds every file in the search locations whose full path
// matches one of the regular expressions, and returns how many were
// embedded.
func (st *State) EmbedMatching(patterns []string) (int, error) {
	n := 0
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return n, fmt.Errorf("embed pattern %q: %w", pattern, err)
		}
		for _, p := range st.assets.Match(re) {
			if st.EmbedFile(p) != NoFile {
				n++
			}
		}
	}
	return n, nil
}
