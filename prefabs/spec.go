package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// SceneSpec lists the entities the overlay starts with. Each entry names a
// prefab file and may override whole components or single fields of them.
type SceneSpec struct {
	Name     string            `yaml:"name"`
	Entities []SceneEntitySpec `yaml:"entities"`
}

type SceneEntitySpec struct {
	Prefab     string         `yaml:"prefab"`
	Components map[string]any `yaml:"components"`
}

func LoadSceneSpec(filename string) (SceneSpec, error) {
	scene, err := LoadSpec[SceneSpec](filename)
	if err != nil {
		return scene, err
	}
	for i, ent := range scene.Entities {
		if strings.TrimSpace(ent.Prefab) == "" {
			return scene, fmt.Errorf("prefabs: %s: entity %d has no prefab", filename, i)
		}
	}
	return scene, nil
}

// Resolve loads the entry's prefab and applies its overrides.
func (s SceneEntitySpec) Resolve() (EntityBuildSpec, error) {
	base, err := LoadEntityBuildSpec(s.Prefab)
	if err != nil {
		return base, err
	}
	base.Prefab = s.Prefab
	base.Components = MergeComponents(base.Components, s.Components)
	return base, nil
}

// MergeComponents overlays component maps field by field. A non-map
// override replaces the base component.
func MergeComponents(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = MergeComponents(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

func (c YAMLColor) MarshalYAML() (any, error) {
	if c.Color == nil {
		return nil, nil
	}
	n := color.NRGBAModel.Convert(c.Color).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A), nil
}

// Or returns the color, or def when unset.
func (c YAMLColor) Or(def color.Color) color.Color {
	if c.Color == nil {
		return def
	}
	return c.Color
}
