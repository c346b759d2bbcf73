package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenepack/pkg/scene"
)

// 1x1 PNG header bytes are enough for type detection.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func namedMaterial(t *testing.T, st *State, name string) scene.Material {
	t.Helper()
	id, err := st.PushString(name)
	require.NoError(t, err)
	return scene.Material{NameID: id}
}

func TestPushDelegatesToPools(t *testing.T) {
	st := New(nil)

	c, err := st.PushFloat4(1, 0, 0, 1)
	require.NoError(t, err)
	got, err := scene.ResolveFloat4(c, &st.Scene.Pools)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, got)

	n, err := st.PushString("Body")
	require.NoError(t, err)
	s, err := st.StringValue(n.Index())
	require.NoError(t, err)
	assert.Equal(t, "Body", s)
	assert.Equal(t, "Body", st.Name(n))

	assert.Equal(t, uint32(0), st.PushTexture(scene.NewTexture(0)))
	assert.Equal(t, uint32(1), st.PushTexture(scene.NewTexture(0)))
}

func TestEmbedFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "diffuse.png")
	writeFile(t, img, pngHeader)

	st := New(nil)
	id := st.EmbedFile(img)
	require.Equal(t, int64(0), id)
	assert.Equal(t, id, st.EmbedFile(img), "same path embeds once")
	require.Len(t, st.Scene.Files, 1)
	assert.Equal(t, pngHeader, st.Scene.Files[0].Buffer)
	assert.Equal(t, filepath.ToSlash(img), st.Name(st.Scene.Files[0].NameID))

	assert.Equal(t, NoFile, st.EmbedFile(filepath.Join(dir, "missing.png")))
	assert.Equal(t, NoFile, st.EmbedFile(""))
	assert.Len(t, st.Scene.Files, 1)
}

func TestEmbeddedFilesSurviveReload(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.bin")
	writeFile(t, img, []byte("raw"))

	st := New(nil)
	id := st.EmbedFile(img)

	buf, err := st.Finalize(0, 0)
	require.NoError(t, err)
	out := filepath.Join(dir, "scene.bin")
	writeFile(t, out, buf)

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, id, reloaded.EmbedFile(img))
	assert.Len(t, reloaded.Scene.Files, 1)
}

func TestFindTextureFallbacks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "textures", "wood.png"), pngHeader)
	writeFile(t, filepath.Join(dir, "textures", "stone.tga.png"), pngHeader)

	st := New(nil)
	require.NoError(t, st.AddSearchLocation(filepath.ToSlash(dir)+"/**"))

	assert.Equal(t, filepath.Join(dir, "textures", "wood.png"), st.FindTexture("wood.png"))
	assert.Equal(t, filepath.Join(dir, "textures", "wood.png"), st.FindTexture(`maps\wood.jpg`))
	assert.Equal(t, filepath.Join(dir, "textures", "stone.tga.png"), st.FindTexture("stone.tga"))
	assert.Empty(t, st.FindTexture("missing.jpg"))
	assert.Empty(t, st.FindFile("wood.jpg"))
}

func TestEmbedMatching(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.png"), pngHeader)
	writeFile(t, filepath.Join(dir, "b.png"), pngHeader)
	writeFile(t, filepath.Join(dir, "c.txt"), []byte("c"))

	st := New(nil)
	require.NoError(t, st.AddSearchLocation(dir))
	n, err := st.EmbedMatching([]string{`.*\.png$`})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, st.Scene.Files, 2)

	_, err = st.EmbedMatching([]string{"("})
	assert.Error(t, err)
}

func TestFinalizeVersion(t *testing.T) {
	st := New(nil)
	buf, err := st.Finalize(3, 64)
	require.NoError(t, err)
	v, err := scene.Open(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v.Version())

	buf, err = st.Finalize(0, 0)
	require.NoError(t, err)
	v, err = scene.Open(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v.Version())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.bin")
	writeFile(t, bad, []byte{1, 2})
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestCloseKeepsStagedScene(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "diffuse.png")
	writeFile(t, img, pngHeader)

	st := New(nil)
	require.NoError(t, st.AddSearchLocation(dir))
	require.Equal(t, int64(0), st.EmbedFile(img))

	st.Close()
	assert.Empty(t, st.SearchLocations())
	require.Len(t, st.Scene.Files, 1)
	assert.Equal(t, pngHeader, st.Scene.Files[0].Buffer)
}
