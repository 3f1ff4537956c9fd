package system

import (
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

const maxParentDepth = 8

// worldPosition resolves an entity's screen position through its parents.
func worldPosition(w *ecs.World, e ecs.Entity) (float64, float64, bool) {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return 0, 0, false
	}
	x, y := t.X, t.Y
	cur := e
	for depth := 0; depth < maxParentDepth; depth++ {
		p, ok := ecs.Get(w, cur, component.ParentComponent.Kind())
		if !ok {
			break
		}
		parent := ecs.Entity(p.Entity)
		pt, ok := ecs.Get(w, parent, component.TransformComponent.Kind())
		if !ok {
			break
		}
		x += pt.X
		y += pt.Y
		cur = parent
	}
	return x, y, true
}

func renderLayer(w *ecs.World, e ecs.Entity) int {
	if layer, ok := ecs.Get(w, e, component.RenderLayerComponent.Kind()); ok {
		return layer.Index
	}
	return 0
}

// singleton returns the first entity with kind, creating one when missing.
func singleton[T any](w *ecs.World, kind component.ComponentKind[T]) (ecs.Entity, *T) {
	if e, ok := w.First(kind); ok {
		v, _ := ecs.Get(w, e, kind)
		return e, v
	}
	e := ecs.CreateEntity(w)
	v := new(T)
	if err := ecs.Add(w, e, kind, v); err != nil {
		panic("system: create singleton: " + err.Error())
	}
	return e, v
}

// first returns the component of the first entity that has kind.
func first[T any](w *ecs.World, kind component.ComponentKind[T]) (*T, bool) {
	e, ok := w.First(kind)
	if !ok {
		return nil, false
	}
	return ecs.Get(w, e, kind)
}
