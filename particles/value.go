package particles

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

// Vec2 is a screen-space vector. Y grows downward.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

func fromAngle(a, length float64) Vec2 {
	return Vec2{math.Cos(a) * length, math.Sin(a) * length}
}

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Range is a closed interval sampled uniformly. In YAML it is written either
// as a scalar (constant) or as a two element list [min, max].
type Range struct {
	Min float64
	Max float64
}

// Const returns a Range that always samples v.
func Const(v float64) Range {
	return Range{Min: v, Max: v}
}

// Sample draws a value in [Min, Max].
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("range: %w", err)
		}
		*r = Const(v)
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := value.Decode(&vs); err != nil {
			return fmt.Errorf("range: %w", err)
		}
		if len(vs) != 2 {
			return fmt.Errorf("range: want [min, max], got %d values", len(vs))
		}
		if vs[1] < vs[0] {
			return fmt.Errorf("range: min %v greater than max %v", vs[0], vs[1])
		}
		*r = Range{Min: vs[0], Max: vs[1]}
		return nil
	default:
		return fmt.Errorf("range: must be a number or [min, max]")
	}
}

// randomDir3 returns the xy projection of a uniformly distributed unit vector
// in three dimensions.
func randomDir3(rng *rand.Rand) Vec2 {
	z := rng.Float64()*2 - 1
	a := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return Vec2{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

func randomDir2(rng *rand.Rand) Vec2 {
	return fromAngle(rng.Float64()*2*math.Pi, 1)
}
