package prefabs

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Embedded copies of everything under the prefab dir. Files on disk win so
// that edits show up without a rebuild.
//
//go:embed *.yaml effects/*.yaml scripts/*.tengo shaders/*.kage
var PrefabsFS embed.FS

var (
	dirMu sync.RWMutex
	dir   = "prefabs"
)

// SetDir changes the directory searched before the embedded files.
func SetDir(d string) {
	dirMu.Lock()
	defer dirMu.Unlock()
	if d == "" {
		d = "prefabs"
	}
	dir = d
}

// Dir returns the on-disk prefab directory.
func Dir() string {
	dirMu.RLock()
	defer dirMu.RUnlock()
	return dir
}

// Load reads a prefab-relative file from disk, falling back to the embedded
// copy.
func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if data, err := os.ReadFile(diskPrefabPath(clean)); err == nil {
		return data, nil
	}
	return PrefabsFS.ReadFile(clean)
}

func LoadScript(name string) ([]byte, error) {
	return Load(cleanSubPath("scripts", name))
}

func LoadShader(name string) ([]byte, error) {
	if path.Ext(name) == "" {
		name += ".kage"
	}
	return Load(cleanSubPath("shaders", name))
}

func LoadEffect(name string) ([]byte, error) {
	if path.Ext(name) == "" {
		name += ".yaml"
	}
	return Load(cleanSubPath("effects", name))
}

func ModTime(name string) (time.Time, bool) {
	clean := cleanPrefabPath(name)
	info, err := os.Stat(diskPrefabPath(clean))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// List returns the prefab-relative paths with extension ext under sub ("" for
// the top level), merging disk and embedded files.
func List(sub, ext string) []string {
	seen := map[string]bool{}
	add := func(name string) {
		if strings.EqualFold(path.Ext(name), ext) {
			seen[path.Join(sub, name)] = true
		}
	}
	if entries, err := fs.ReadDir(PrefabsFS, orDot(sub)); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				add(e.Name())
			}
		}
	}
	if entries, err := os.ReadDir(filepath.Join(Dir(), filepath.FromSlash(sub))); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				add(e.Name())
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func orDot(sub string) string {
	if sub == "" {
		return "."
	}
	return sub
}

func cleanPrefabPath(p string) string {
	if p == "" {
		return ""
	}
	s := filepath.ToSlash(p)
	if after, ok := strings.CutPrefix(s, filepath.ToSlash(Dir())+"/"); ok {
		return after
	}
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

// cleanSubPath maps "x", "sub/x" and "prefabs/sub/x" to "sub/x".
func cleanSubPath(sub, name string) string {
	s := cleanPrefabPath(name)
	if after, ok := strings.CutPrefix(s, sub+"/"); ok {
		s = after
	}
	return sub + "/" + s
}

func diskPrefabPath(clean string) string {
	return filepath.Join(Dir(), filepath.FromSlash(clean))
}
