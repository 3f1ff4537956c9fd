package particles

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidAsset = errors.New("particles: invalid effect asset")

// Dimension selects whether positions are sampled on the edge of a shape or
// anywhere inside it.
type Dimension string

const (
	DimensionSurface Dimension = "surface"
	DimensionVolume  Dimension = "volume"
)

// EmitCondition controls when an emit modifier produces spawn events.
type EmitCondition string

const (
	EmitAlways EmitCondition = "always"
	EmitOnDie  EmitCondition = "on_die"
)

// ColorBlend selects how color_over_lifetime combines with the particle's
// base color.
type ColorBlend string

const (
	ColorBlendModulate  ColorBlend = "modulate"
	ColorBlendOverwrite ColorBlend = "overwrite"
)

// Composite is the draw blend of the whole effect.
type Composite string

const (
	CompositeAlpha    Composite = "alpha"
	CompositeAdditive Composite = "additive"
)

// EffectAsset is the declarative description of a particle effect.
type EffectAsset struct {
	Name     string      `yaml:"name"`
	Capacity int         `yaml:"capacity"`
	Spawner  SpawnerSpec `yaml:"spawner"`
	Init     InitSpec    `yaml:"init"`
	Update   UpdateSpec  `yaml:"update"`
	Render   RenderSpec  `yaml:"render"`
}

// SpawnerSpec configures the emitter's own spawning. Rate is in particles per
// second and is resampled for every particle; Once emits a single burst when
// the emitter is (re)activated. With neither set, the effect only spawns
// from a parent's emit events.
type SpawnerSpec struct {
	Rate Range `yaml:"rate"`
	Once int   `yaml:"once"`
}

type PositionCircle struct {
	Center    Vec2      `yaml:"center"`
	Axis      string    `yaml:"axis"`
	Radius    float64   `yaml:"radius"`
	Dimension Dimension `yaml:"dimension"`
}

type PositionSphere struct {
	Center    Vec2      `yaml:"center"`
	Radius    float64   `yaml:"radius"`
	Dimension Dimension `yaml:"dimension"`
}

type VelocityRadial struct {
	Center Vec2  `yaml:"center"`
	Speed  Range `yaml:"speed"`
}

type VelocityLinear struct {
	X     Range   `yaml:"x"`
	Y     Range   `yaml:"y"`
	Scale float64 `yaml:"scale"`
}

type VelocityRandom struct {
	Speed Range   `yaml:"speed"`
	Scale float64 `yaml:"scale"`
}

type ColorRandom struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type InitSpec struct {
	PositionCircle  *PositionCircle `yaml:"position_circle"`
	PositionSphere  *PositionSphere `yaml:"position_sphere"`
	VelocityCircle  *VelocityRadial `yaml:"velocity_circle"`
	VelocitySphere  *VelocityRadial `yaml:"velocity_sphere"`
	Velocity        *VelocityLinear `yaml:"velocity"`
	VelocityRandom  *VelocityRandom `yaml:"velocity_random"`
	Lifetime        Range           `yaml:"lifetime"`
	Size            float64         `yaml:"size"`
	ColorRandom     *ColorRandom    `yaml:"color_random"`
	InheritPosition bool            `yaml:"inherit_position"`
	InheritColor    bool            `yaml:"inherit_color"`
}

type EmitSpec struct {
	Condition EmitCondition `yaml:"condition"`
	Count     int           `yaml:"count"`
	Child     int           `yaml:"child"`
}

type UpdateSpec struct {
	Accel      *Vec2      `yaml:"accel"`
	LinearDrag float64    `yaml:"linear_drag"`
	Emit       []EmitSpec `yaml:"emit"`
}

type ColorOverLifetime struct {
	Gradient `yaml:",inline"`
	Blend    ColorBlend `yaml:"blend"`
}

type SizeOverLifetime struct {
	Gradient `yaml:",inline"`
}

type RenderSpec struct {
	ColorOverLifetime *ColorOverLifetime `yaml:"color_over_lifetime"`
	SizeOverLifetime  *SizeOverLifetime  `yaml:"size_over_lifetime"`
	Orient            string             `yaml:"orient"`
	Composite         Composite          `yaml:"composite"`
}

// ParseAsset decodes and validates a YAML effect asset.
func ParseAsset(data []byte) (*EffectAsset, error) {
	var asset EffectAsset
	if err := yaml.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("particles: unmarshal: %w", err)
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	return &asset, nil
}

// Validate fills defaults and reports the first invalid field.
func (a *EffectAsset) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil asset", ErrInvalidAsset)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAsset)
	}
	if a.Capacity < 0 {
		return fmt.Errorf("%w: %s: negative capacity", ErrInvalidAsset, a.Name)
	}
	if a.Capacity == 0 {
		a.Capacity = 128
	}
	if a.Spawner.Rate.Min < 0 || a.Spawner.Once < 0 {
		return fmt.Errorf("%w: %s: negative spawner", ErrInvalidAsset, a.Name)
	}
	if a.Init.Lifetime.Min < 0 {
		return fmt.Errorf("%w: %s: negative lifetime", ErrInvalidAsset, a.Name)
	}
	if a.Init.Lifetime.IsZero() {
		a.Init.Lifetime = Const(1)
	}
	if a.Init.Size == 0 {
		a.Init.Size = 1
	}
	if c := a.Init.PositionCircle; c != nil {
		if err := checkDimension(a.Name, c.Dimension); err != nil {
			return err
		}
		switch c.Axis {
		case "", "x", "y", "z":
		default:
			return fmt.Errorf("%w: %s: unknown circle axis %q", ErrInvalidAsset, a.Name, c.Axis)
		}
	}
	if s := a.Init.PositionSphere; s != nil {
		if err := checkDimension(a.Name, s.Dimension); err != nil {
			return err
		}
	}
	for i, e := range a.Update.Emit {
		switch e.Condition {
		case EmitAlways, EmitOnDie:
		default:
			return fmt.Errorf("%w: %s: emit[%d]: unknown condition %q", ErrInvalidAsset, a.Name, i, e.Condition)
		}
		if e.Count <= 0 {
			return fmt.Errorf("%w: %s: emit[%d]: count must be positive", ErrInvalidAsset, a.Name, i)
		}
	}
	if a.Update.LinearDrag < 0 {
		return fmt.Errorf("%w: %s: negative drag", ErrInvalidAsset, a.Name)
	}
	if c := a.Render.ColorOverLifetime; c != nil {
		switch c.Blend {
		case "":
			c.Blend = ColorBlendModulate
		case ColorBlendModulate, ColorBlendOverwrite:
		default:
			return fmt.Errorf("%w: %s: unknown color blend %q", ErrInvalidAsset, a.Name, c.Blend)
		}
		if err := c.normalize(); err != nil {
			return fmt.Errorf("%w: %s: color_over_lifetime: %v", ErrInvalidAsset, a.Name, err)
		}
	}
	if s := a.Render.SizeOverLifetime; s != nil {
		if err := s.normalize(); err != nil {
			return fmt.Errorf("%w: %s: size_over_lifetime: %v", ErrInvalidAsset, a.Name, err)
		}
	}
	switch a.Render.Orient {
	case "", "along_velocity":
	default:
		return fmt.Errorf("%w: %s: unknown orient %q", ErrInvalidAsset, a.Name, a.Render.Orient)
	}
	switch a.Render.Composite {
	case "":
		a.Render.Composite = CompositeAlpha
	case CompositeAlpha, CompositeAdditive:
	default:
		return fmt.Errorf("%w: %s: unknown composite %q", ErrInvalidAsset, a.Name, a.Render.Composite)
	}
	return nil
}

func checkDimension(name string, d Dimension) error {
	switch d {
	case "", DimensionSurface, DimensionVolume:
		return nil
	}
	return fmt.Errorf("%w: %s: unknown dimension %q", ErrInvalidAsset, name, d)
}
