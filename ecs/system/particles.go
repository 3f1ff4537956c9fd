package system

import (
	"log"
	"sort"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/particles"
)

// ParticleSystem builds emitters for particle effect entities, links child
// effects to their parents and steps the simulation.
type ParticleSystem struct {
	lib    *particles.Library
	seed   uint64
	warned map[string]bool
}

func NewParticleSystem(lib *particles.Library, seed uint64) *ParticleSystem {
	return &ParticleSystem{lib: lib, seed: seed, warned: make(map[string]bool)}
}

func (s *ParticleSystem) Attach(w *ecs.World) {
	ecs.OnAdd(w, component.ParticleEffectComponent.Kind(), func(w *ecs.World, e ecs.Entity) {
		if pe, ok := ecs.Get(w, e, component.ParticleEffectComponent.Kind()); ok {
			s.build(e, pe)
		}
	})
}

func (s *ParticleSystem) build(e ecs.Entity, pe *component.ParticleEffect) {
	if pe.Emitter != nil || s.lib == nil {
		return
	}
	asset, err := s.lib.Get(pe.Asset)
	if err != nil {
		if !s.warned[pe.Asset] {
			s.warned[pe.Asset] = true
			log.Printf("particles: %v", err)
		}
		return
	}
	pe.Emitter = particles.NewEmitter(asset, s.seed^uint64(e))
	if pe.Active {
		pe.Emitter.Activate()
	}
}

func (s *ParticleSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	type entry struct {
		e     ecs.Entity
		child bool
		em    *particles.Emitter
	}
	var entries []entry

	ecs.ForEach(w, component.ParticleEffectComponent.Kind(), func(e ecs.Entity, pe *component.ParticleEffect) {
		s.build(e, pe)
		if pe.Emitter == nil {
			return
		}
		if s.lib != nil {
			if asset, err := s.lib.Get(pe.Asset); err == nil && asset != pe.Emitter.Asset() {
				pe.Emitter.SetAsset(asset)
			}
		}
		if x, y, ok := worldPosition(w, e); ok {
			pe.Emitter.SetOrigin(particles.Vec2{X: x, Y: y})
		}
		if pe.Parent != 0 {
			if parent, ok := ecs.Get(w, ecs.Entity(pe.Parent), component.ParticleEffectComponent.Kind()); ok && parent.Emitter != nil {
				if parent.Emitter.Child(pe.Channel) != pe.Emitter {
					parent.Emitter.AddChild(pe.Channel, pe.Emitter)
				}
			}
		}
		entries = append(entries, entry{e: e, child: pe.Parent != 0, em: pe.Emitter})
	})

	// Children step before parents so that events emitted this frame are
	// consumed on the next one.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].child && !entries[j].child
	})
	dt := w.Delta().Seconds()
	for _, en := range entries {
		if en.em.Idle() {
			continue
		}
		en.em.Update(dt)
	}
}

// ClickEffectSystem moves the click effect under the cursor and fires its
// burst on every left press.
type ClickEffectSystem struct{}

func NewClickEffectSystem() *ClickEffectSystem {
	return &ClickEffectSystem{}
}

func (s *ClickEffectSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	var bursts []component.ClickBurst
	if in, ok := firstInput(w); ok && in.LeftPressed {
		bursts = append(bursts, component.ClickBurst{X: in.X, Y: in.Y})
	}
	for _, evt := range w.Events().Read(component.EventClickBurst) {
		if b, ok := evt.Data.(component.ClickBurst); ok {
			bursts = append(bursts, b)
		}
	}
	if len(bursts) == 0 {
		return
	}
	last := bursts[len(bursts)-1]

	ecs.ForEach3(w, component.ClickEffectTagComponent.Kind(), component.ParticleEffectComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, _ *component.ClickEffectTag, pe *component.ParticleEffect, t *component.Transform) {
		t.X, t.Y = last.X, last.Y
		if pe.Emitter != nil {
			pe.Emitter.SetOrigin(particles.Vec2{X: last.X, Y: last.Y})
			pe.Emitter.Activate()
		}
	})
}
