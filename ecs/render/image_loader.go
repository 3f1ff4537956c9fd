package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/overlay/assets"
	"github.com/milk9111/overlay/prefabs"
)

// LoadImage loads an image from assets or filesystem and caches it by key.
func LoadImage(key string) (*ebiten.Image, error) {
	if key == "" {
		return nil, fmt.Errorf("render: empty image key")
	}
	if img := GetImage(key); img != nil {
		return img, nil
	}
	img, err := loadImageFromAssetsOrFS(key)
	if err != nil {
		return nil, err
	}
	RegisterImage(key, img)
	return img, nil
}

func loadImageFromAssetsOrFS(path string) (*ebiten.Image, error) {
	tried := []string{path, filepath.Join(prefabs.Dir(), path), filepath.Join("assets", path)}
	for _, p := range tried {
		if b, err := os.ReadFile(p); err == nil {
			if im, _, err := image.Decode(bytes.NewReader(b)); err == nil {
				return ebiten.NewImageFromImage(im), nil
			}
		}
	}
	if img, err := assets.LoadImage(path); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("render: load image %s", path)
}

// LoadShader compiles the named Kage shader from the prefab shaders and
// registers it. Compiling again replaces the registered shader, which is how
// hot reload swaps it.
func LoadShader(name string) (*ebiten.Shader, error) {
	src, err := prefabs.LoadShader(name)
	if err != nil {
		return nil, fmt.Errorf("render: load shader %s: %w", name, err)
	}
	s, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("render: compile shader %s: %w", name, err)
	}
	RegisterShader(name, s)
	return s, nil
}

// Shader returns the registered shader, compiling it on first use.
func Shader(name string) (*ebiten.Shader, error) {
	if s := GetShader(name); s != nil {
		return s, nil
	}
	return LoadShader(name)
}
