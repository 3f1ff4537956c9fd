package prefabs

import (
	"fmt"

	"github.com/milk9111/overlay/particles"
)

// LoadEffects parses every effect under effects/ into lib. It keeps going
// past bad files and returns the first error.
func LoadEffects(lib *particles.Library) error {
	var first error
	for _, name := range List("effects", ".yaml") {
		if err := LoadEffectInto(lib, name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoadEffectInto parses one effect file and stores it in lib, replacing any
// asset of the same name.
func LoadEffectInto(lib *particles.Library, name string) error {
	data, err := LoadEffect(name)
	if err != nil {
		return fmt.Errorf("prefabs: load effect %s: %w", name, err)
	}
	asset, err := particles.ParseAsset(data)
	if err != nil {
		return fmt.Errorf("prefabs: effect %s: %w", name, err)
	}
	return lib.Put(asset)
}
