package system

import (
	"fmt"
	"log"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/prefabs"
)

const (
	defaultMinScale   = 0.05
	zoomTweenDuration = 0.12
)

// DraggableSystem wires pointer observers onto draggable entities and
// handles release, zoom and copy for the selection.
type DraggableSystem struct {
	copy func([]byte) error
}

// NewDraggableSystem takes the function used to put copied YAML on the
// clipboard. A nil copy disables Ctrl+C.
func NewDraggableSystem(copy func([]byte) error) *DraggableSystem {
	return &DraggableSystem{copy: copy}
}

func (d *DraggableSystem) Attach(w *ecs.World) {
	ecs.OnAdd(w, component.DraggableComponent.Kind(), func(w *ecs.World, e ecs.Entity) {
		ecs.Observe(w, e, moveOnDrag)
		ecs.Observe(w, e, selectOn[component.DragEnd])
		ecs.Observe(w, e, selectOn[component.PointerOver])
		ecs.Observe(w, e, unselectOnOut)
	})
}

func moveOnDrag(w *ecs.World, t ecs.Trigger[component.Drag]) {
	tr, ok := ecs.Get(w, t.Target, component.TransformComponent.Kind())
	if !ok {
		return
	}
	tr.X += t.Event.DX
	tr.Y += t.Event.DY
}

// selectOn selects the target only when nothing else is selected.
func selectOn[E any](w *ecs.World, t ecs.Trigger[E]) {
	if _, ok := w.First(component.SelectedComponent.Kind()); ok {
		return
	}
	_ = ecs.Add(w, t.Target, component.SelectedComponent.Kind(), &component.Selected{})
}

func unselectOnOut(w *ecs.World, t ecs.Trigger[component.PointerOut]) {
	if in, ok := firstInput(w); ok && in.Left {
		_ = ecs.Add(w, t.Target, component.PendingUnselectComponent.Kind(), &component.PendingUnselect{})
		return
	}
	ecs.Remove(w, t.Target, component.SelectedComponent.Kind())
}

func firstInput(w *ecs.World) (*component.Input, bool) {
	return first(w, component.InputComponent.Kind())
}

func (d *DraggableSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	in, ok := firstInput(w)
	if !ok {
		return
	}

	if in.LeftReleased {
		for _, e := range w.Query(component.PendingUnselectComponent.Kind()) {
			ecs.Remove(w, e, component.SelectedComponent.Kind())
			ecs.Remove(w, e, component.PendingUnselectComponent.Kind())
		}
	}

	if in.WheelY != 0 {
		ecs.ForEach3(w, component.SelectedComponent.Kind(), component.DraggableComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, _ *component.Selected, drag *component.Draggable, t *component.Transform) {
			zoom(w, e, drag, t, in.WheelY)
		})
	}

	if in.CopyPressed && d.copy != nil {
		if e, ok := w.First(component.SelectedComponent.Kind()); ok {
			if err := d.copySelection(w, e); err != nil {
				log.Printf("draggable: copy: %v", err)
			}
		}
	}
}

func zoom(w *ecs.World, e ecs.Entity, drag *component.Draggable, t *component.Transform, wheelY float64) {
	factor := drag.ScaleFactor
	if factor == 0 {
		factor = 1
	}
	minScale := drag.MinScale
	if minScale <= 0 {
		minScale = defaultMinScale
	}
	delta := wheelY * factor
	sx, sy := t.Scale()

	// Clock faces fold their scale into the font size every frame, so they
	// take the change immediately.
	if ecs.Has(w, e, component.ClockFaceComponent.Kind()) {
		t.ScaleX = math.Max(minScale, sx+delta)
		t.ScaleY = math.Max(minScale, sy+delta)
		return
	}

	from := sx
	if tw, ok := ecs.Get(w, e, component.ScaleTweenComponent.Kind()); ok {
		from = tw.Target
	}
	target := math.Max(minScale, from+delta)
	_ = ecs.Add(w, e, component.ScaleTweenComponent.Kind(), &component.ScaleTween{
		X:      gween.New(float32(sx), float32(target), zoomTweenDuration, ease.OutQuad),
		Y:      gween.New(float32(sy), float32(target), zoomTweenDuration, ease.OutQuad),
		Target: target,
	})
}

func (d *DraggableSystem) copySelection(w *ecs.World, e ecs.Entity) error {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return fmt.Errorf("entity %v has no transform", e)
	}
	sx, sy := t.Scale()
	if tw, ok := ecs.Get(w, e, component.ScaleTweenComponent.Kind()); ok {
		sx, sy = tw.Target, tw.Target
	}
	data, err := yaml.Marshal(map[string]any{
		"transform": prefabs.TransformComponentSpec{
			X:        math.Round(t.X),
			Y:        math.Round(t.Y),
			ScaleX:   sx,
			ScaleY:   sy,
			Rotation: t.Rotation,
		},
	})
	if err != nil {
		return err
	}
	if err := d.copy(data); err != nil {
		return err
	}
	log.Printf("draggable: copied transform of %v", e)
	return nil
}
