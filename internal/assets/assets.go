// Package assets locates and loads files referenced by a scene from a set of
// search locations.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/h2non/filetype"

	"github.com/Faultbox/scenepack/pkg/encoding"
)

// RecursiveSuffix marks a search location whose subdirectories are searched
// as well.
const RecursiveSuffix = "/**"

// Manager resolves file names against search directories.
// Directories are searched in the order they were added.
type Manager struct {
	dirs  []string
	seen  map[string]bool
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		seen:  make(map[string]bool),
		cache: NewCache(),
	}
}

// AddLocation adds a search directory. A "/**" (or "\**") suffix adds the
// directory and every directory below it. Missing directories are ignored.
func (m *Manager) AddLocation(location string) error {
	location = encoding.NormalizePath(location)
	recursive := false
	if strings.HasSuffix(location, RecursiveSuffix) {
		recursive = true
		location = strings.TrimSuffix(location, RecursiveSuffix)
		if location == "" {
			location = "/"
		}
	}

	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return nil
	}

	root, err := filepath.Abs(location)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", location, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !recursive {
		m.addDir(root)
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped
			if d != nil && d.IsDir() && p != root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			m.addDir(p)
		}
		return nil
	})
}

func (m *Manager) addDir(dir string) {
	if m.seen[dir] {
		return
	}
	m.seen[dir] = true
	m.dirs = append(m.dirs, dir)
}

// Locations returns the expanded list of search directories.
func (m *Manager) Locations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.dirs...)
}

// Find returns the absolute path of the first regular file whose base name
// equals the base name of name, or "" when there is none.
func (m *Manager) Find(name string) string {
	base := path.Base(encoding.NormalizePath(name))
	if name == "" || base == "." || base == "/" {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, dir := range m.dirs {
		p := filepath.Join(dir, base)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// Match returns the regular files directly inside the search directories
// whose full path matches re.
func (m *Manager) Match(re *regexp.Regexp) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			p := filepath.Join(dir, e.Name())
			if re.MatchString(encoding.NormalizePath(p)) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Load reads a file, caching its contents by path.
func (m *Manager) Load(path string) ([]byte, error) {
	// Check cache first
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading asset %s: %w", path, err)
	}
	m.cache.Set(path, data)
	return data, nil
}

// Cache returns the file cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Kind detects the content type of data from its magic bytes and returns
// the MIME type with the usual file extension. Unrecognised data is
// "application/octet-stream" with no extension.
func Kind(data []byte) (mime, ext string) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream", ""
	}
	return kind.MIME.Value, kind.Extension
}

// Close drops all search locations and cached files.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs = nil
	m.seen = make(map[string]bool)
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
