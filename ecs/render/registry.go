package render

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

var (
	mu      sync.RWMutex
	images  = map[string]*ebiten.Image{}
	shaders = map[string]*ebiten.Shader{}
)

// RegisterImage stores an image by key.
func RegisterImage(key string, img *ebiten.Image) {
	if key == "" || img == nil {
		return
	}
	mu.Lock()
	images[key] = img
	mu.Unlock()
}

// GetImage returns a cached image by key.
func GetImage(key string) *ebiten.Image {
	if key == "" {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	return images[key]
}

// ForgetImage drops a cached image so the next LoadImage reads it again.
func ForgetImage(key string) {
	mu.Lock()
	delete(images, key)
	mu.Unlock()
}

// RegisterShader stores a compiled shader by name, replacing any previous
// one.
func RegisterShader(name string, s *ebiten.Shader) {
	if name == "" || s == nil {
		return
	}
	mu.Lock()
	old := shaders[name]
	shaders[name] = s
	mu.Unlock()
	if old != nil && old != s {
		old.Deallocate()
	}
}

// GetShader returns a compiled shader by name.
func GetShader(name string) *ebiten.Shader {
	if name == "" {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	return shaders[name]
}
