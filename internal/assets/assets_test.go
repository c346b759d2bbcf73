package assets

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestFindFlatLocation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "diffuse.png"), "top")
	writeFile(t, filepath.Join(root, "sub", "normal.png"), "nested")

	m := NewManager()
	require.NoError(t, m.AddLocation(root))

	assert.Equal(t, filepath.Join(root, "diffuse.png"), m.Find("diffuse.png"))
	assert.Equal(t, filepath.Join(root, "diffuse.png"), m.Find(`C:\art\textures\diffuse.png`))
	assert.Empty(t, m.Find("normal.png"), "flat location must not see subdirectories")
	assert.Empty(t, m.Find(""))
}

func TestFindRecursiveLocation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "normal.png"), "nested")

	m := NewManager()
	require.NoError(t, m.AddLocation(filepath.ToSlash(root)+RecursiveSuffix))

	assert.Equal(t, filepath.Join(root, "a", "b", "normal.png"), m.Find("textures/normal.png"))
	assert.Len(t, m.Locations(), 3)
}

func TestAddLocationDeduplicatesAndIgnoresMissing(t *testing.T) {
	root := t.TempDir()
	m := NewManager()
	require.NoError(t, m.AddLocation(root))
	require.NoError(t, m.AddLocation(root))
	require.NoError(t, m.AddLocation(filepath.Join(root, "missing")))
	assert.Equal(t, []string{root}, m.Locations())
}

func TestMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "logo.png"), "png")
	writeFile(t, filepath.Join(root, "notes.txt"), "txt")

	m := NewManager()
	require.NoError(t, m.AddLocation(root))

	got := m.Match(regexp.MustCompile(`.*\.png$`))
	assert.Equal(t, []string{filepath.Join(root, "logo.png")}, got)
}

func TestLoadCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.bin")
	writeFile(t, path, "payload")

	m := NewManager()
	data, err := m.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = m.Load(path)
	require.NoError(t, err)
	hits, misses := m.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	_, err = m.Load(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	m.Close()
	hits, misses = m.Cache().Stats()
	assert.Zero(t, hits+misses)
	assert.Empty(t, m.Locations())
}

func TestKind(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	mime, ext := Kind(png)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)

	mime, ext = Kind([]byte("raw"))
	assert.Equal(t, "application/octet-stream", mime)
	assert.Empty(t, ext)

	mime, _ = Kind(nil)
	assert.Equal(t, "application/octet-stream", mime)
}
