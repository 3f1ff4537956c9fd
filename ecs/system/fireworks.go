package system

import (
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

// Effect asset names used by fireworks.
const (
	RocketEffect       = "rocket"
	SparkleTrailEffect = "sparkle_trail"
	TrailsEffect       = "trails"
)

// FireworksSystem launches fireworks on CreateFireworks events and stops the
// rocket when its Expire runs out.
type FireworksSystem struct{}

func NewFireworksSystem() *FireworksSystem {
	return &FireworksSystem{}
}

func (s *FireworksSystem) Attach(w *ecs.World) {
	ecs.OnAdd(w, component.ExpiredComponent.Kind(), fireworksExpired)
}

// fireworksExpired stops a fireworks rocket and clears the Expired marker from
// any entity so that a later Expire can fire it again.
func fireworksExpired(w *ecs.World, e ecs.Entity) {
	if ecs.Has(w, e, component.FireworksTagComponent.Kind()) {
		if pe, ok := ecs.Get(w, e, component.ParticleEffectComponent.Kind()); ok && pe.Emitter != nil {
			pe.Emitter.Deactivate()
		}
	}
	ecs.Remove(w, e, component.ExpiredComponent.Kind())
}

func (s *FireworksSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	for _, evt := range w.Events().Read(component.EventCreateFireworks) {
		if cf, ok := evt.Data.(component.CreateFireworks); ok && cf.Seconds > 0 {
			CreateFireworks(w, cf.Seconds)
		}
	}
}

// CreateFireworks reactivates the existing rocket and extends its lifetime,
// or spawns a rocket with its sparkle trail and explosion trails.
func CreateFireworks(w *ecs.World, seconds float64) ecs.Entity {
	if rocket, ok := w.First(component.FireworksTagComponent.Kind()); ok {
		if pe, ok := ecs.Get(w, rocket, component.ParticleEffectComponent.Kind()); ok {
			if pe.Emitter != nil && !pe.Emitter.Active() {
				pe.Emitter.Activate()
			}
			pe.Active = true
		}
		if exp, ok := ecs.Get(w, rocket, component.ExpireComponent.Kind()); ok {
			exp.AddTime(seconds)
		} else {
			_ = ecs.Add(w, rocket, component.ExpireComponent.Kind(), component.NewExpire(seconds))
		}
		return rocket
	}

	x, y := 0.0, 0.0
	if e, ok := w.First(component.OverlayComponent.Kind()); ok {
		if o, ok := ecs.Get(w, e, component.OverlayComponent.Kind()); ok {
			x, y = o.Width/2, o.Height
		}
	}

	rocket := ecs.CreateEntity(w)
	_ = ecs.Add(w, rocket, component.NameComponent.Kind(), &component.Name{Value: "rocket"})
	_ = ecs.Add(w, rocket, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1})
	_ = ecs.Add(w, rocket, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: component.LayerParticles})
	_ = ecs.Add(w, rocket, component.ExpireComponent.Kind(), component.NewExpire(seconds))
	_ = ecs.Add(w, rocket, component.FireworksTagComponent.Kind(), &component.FireworksTag{})
	_ = ecs.Add(w, rocket, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{Asset: RocketEffect, Active: true})

	for channel, asset := range []string{SparkleTrailEffect, TrailsEffect} {
		child := ecs.CreateEntity(w)
		_ = ecs.Add(w, child, component.NameComponent.Kind(), &component.Name{Value: asset})
		_ = ecs.Add(w, child, component.TransformComponent.Kind(), &component.Transform{ScaleX: 1, ScaleY: 1})
		_ = ecs.Add(w, child, component.ParentComponent.Kind(), &component.Parent{Entity: uint64(rocket)})
		_ = ecs.Add(w, child, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: component.LayerParticles})
		_ = ecs.Add(w, child, component.ExpireComponent.Kind(), component.NewExpire(seconds))
		_ = ecs.Add(w, child, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{
			Asset:   asset,
			Parent:  uint64(rocket),
			Channel: channel,
		})
	}
	return rocket
}
