package system

import (
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

// TweenSystem advances scale tweens and drops them when finished.
type TweenSystem struct{}

func NewTweenSystem() *TweenSystem {
	return &TweenSystem{}
}

func (s *TweenSystem) Update(w *ecs.World) {
	dt := float32(w.Delta().Seconds())
	ecs.ForEach2(w, component.ScaleTweenComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, tw *component.ScaleTween, t *component.Transform) {
		done := true
		if tw.X != nil {
			v, finished := tw.X.Update(dt)
			t.ScaleX = float64(v)
			done = done && finished
		}
		if tw.Y != nil {
			v, finished := tw.Y.Update(dt)
			t.ScaleY = float64(v)
			done = done && finished
		}
		if done {
			t.ScaleX, t.ScaleY = tw.Target, tw.Target
			ecs.Remove(w, e, component.ScaleTweenComponent.Kind())
		}
	})
}
