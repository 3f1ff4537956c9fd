package prefabs

import "gopkg.in/yaml.v3"

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
	// Prefab is the file the spec came from, set by Resolve.
	Prefab string `yaml:"-"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	spec, err := LoadSpec[EntityBuildSpec](filename)
	spec.Prefab = filename
	return spec, err
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	ScaleX   float64 `yaml:"scale_x"`
	ScaleY   float64 `yaml:"scale_y"`
	Rotation float64 `yaml:"rotation"`
}

type SpriteComponentSpec struct {
	Image              string    `yaml:"image"`
	OriginX            float64   `yaml:"origin_x"`
	OriginY            float64   `yaml:"origin_y"`
	CenterOriginIfZero bool      `yaml:"center_origin_if_zero"`
	Tint               YAMLColor `yaml:"tint"`
}

type RenderLayerComponentSpec struct {
	Index int `yaml:"index"`
}

type ShapeComponentSpec struct {
	Kind        string    `yaml:"kind"`
	Width       float64   `yaml:"width"`
	Height      float64   `yaml:"height"`
	Sides       int       `yaml:"sides"`
	Radius      float64   `yaml:"radius"`
	InnerRadius float64   `yaml:"inner_radius"`
	Color       YAMLColor `yaml:"color"`
	Stroke      float64   `yaml:"stroke"`
}

type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type MeshComponentSpec struct {
	Primitive string    `yaml:"primitive"`
	Size      float64   `yaml:"size"`
	Color     YAMLColor `yaml:"color"`
	// Spin is in radians per second around each axis.
	Spin  Vec3Spec `yaml:"spin"`
	Angle Vec3Spec `yaml:"angle"`
}

type MaterialComponentSpec struct {
	Shader    string  `yaml:"shader"`
	Intensity float64 `yaml:"intensity"`
}

type DraggableComponentSpec struct {
	ScaleFactor float64 `yaml:"scale_factor"`
	MinScale    float64 `yaml:"min_scale"`
}

type PickableComponentSpec struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
}

type ClockComponentSpec struct {
	Seconds    float64   `yaml:"seconds"`
	Width      float64   `yaml:"width"`
	Height     float64   `yaml:"height"`
	FontSize   float64   `yaml:"font_size"`
	Color      YAMLColor `yaml:"color"`
	Background YAMLColor `yaml:"background"`
}

type AudioClipSpec struct {
	Name   string  `yaml:"name"`
	File   string  `yaml:"file"`
	Volume float64 `yaml:"volume"`
}

type AudioComponentSpec struct {
	Clips    []AudioClipSpec `yaml:"clips"`
	Autoplay []string        `yaml:"autoplay"`
}

type PhysicsBodyComponentSpec struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Radius     float64 `yaml:"radius"`
	Mass       float64 `yaml:"mass"`
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
}

type ParticleEffectComponentSpec struct {
	Asset  string `yaml:"asset"`
	Active bool   `yaml:"active"`
}
