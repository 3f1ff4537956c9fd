package particles

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Key is one stop of a Gradient.
type Key struct {
	T     float64    `yaml:"t"`
	Value [4]float64 `yaml:"-"`
}

type keyYAML struct {
	T     float64   `yaml:"t"`
	Value []float64 `yaml:"value"`
}

// UnmarshalYAML accepts 1 to 4 components. A single component is splatted
// across all four so that a size gradient may be written as a scalar.
func (k *Key) UnmarshalYAML(value *yaml.Node) error {
	var raw keyYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if len(raw.Value) == 0 || len(raw.Value) > 4 {
		return fmt.Errorf("gradient key at t=%v: want 1 to 4 values, got %d", raw.T, len(raw.Value))
	}
	k.T = raw.T
	if len(raw.Value) == 1 {
		k.Value = [4]float64{raw.Value[0], raw.Value[0], raw.Value[0], raw.Value[0]}
		return nil
	}
	k.Value = [4]float64{0, 0, 0, 1}
	copy(k.Value[:], raw.Value)
	return nil
}

// Gradient interpolates linearly between keys ordered by T in [0, 1].
type Gradient struct {
	Keys []Key `yaml:"keys"`
}

// ConstantGradient returns a gradient that always samples v.
func ConstantGradient(v [4]float64) Gradient {
	return Gradient{Keys: []Key{{T: 0, Value: v}}}
}

// Sample returns the interpolated value at t. Values before the first key and
// after the last key are clamped. An empty gradient samples opaque white.
func (g Gradient) Sample(t float64) [4]float64 {
	if len(g.Keys) == 0 {
		return [4]float64{1, 1, 1, 1}
	}
	if t <= g.Keys[0].T {
		return g.Keys[0].Value
	}
	last := g.Keys[len(g.Keys)-1]
	if t >= last.T {
		return last.Value
	}
	i := sort.Search(len(g.Keys), func(i int) bool { return g.Keys[i].T > t })
	a, b := g.Keys[i-1], g.Keys[i]
	span := b.T - a.T
	if span <= 0 {
		return b.Value
	}
	f := (t - a.T) / span
	var out [4]float64
	for c := range out {
		out[c] = a.Value[c] + (b.Value[c]-a.Value[c])*f
	}
	return out
}

func (g *Gradient) normalize() error {
	for _, k := range g.Keys {
		if k.T < 0 || k.T > 1 {
			return fmt.Errorf("gradient key t=%v outside [0, 1]", k.T)
		}
	}
	sort.SliceStable(g.Keys, func(i, j int) bool { return g.Keys[i].T < g.Keys[j].T })
	return nil
}
