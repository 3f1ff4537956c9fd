package system

import (
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

// ExpireSystem counts down Expire timers and swaps finished ones for the
// Expired marker.
type ExpireSystem struct{}

func NewExpireSystem() *ExpireSystem {
	return &ExpireSystem{}
}

func (s *ExpireSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta().Seconds()
	ecs.ForEach(w, component.ExpireComponent.Kind(), func(e ecs.Entity, exp *component.Expire) {
		exp.Elapsed += dt
		if !exp.Finished() {
			return
		}
		ecs.Remove(w, e, component.ExpireComponent.Kind())
		_ = ecs.Add(w, e, component.ExpiredComponent.Kind(), &component.Expired{})
	})
}
