package system

import (
	"fmt"
	"image/color"
	"math"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

const (
	secondsInHour   = 3600
	secondsInMinute = 60

	defaultClockSeconds = 120
)

// FormatClock renders seconds as zero padded HH:MM:SS. Hours beyond 99 keep
// all their digits.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	hr := total / secondsInHour
	mm := (total % secondsInHour) / secondsInMinute
	ss := total % secondsInMinute
	return fmt.Sprintf("%02d:%02d:%02d", hr, mm, ss)
}

// ClockSystem builds clock faces, counts them down, applies added time and
// folds the face's zoom into the font size.
type ClockSystem struct{}

func NewClockSystem() *ClockSystem {
	return &ClockSystem{}
}

func (s *ClockSystem) Attach(w *ecs.World) {
	ecs.OnAdd(w, component.MakeClockComponent.Kind(), makeClock)
}

func makeClock(w *ecs.World, face ecs.Entity) {
	mk, ok := ecs.Get(w, face, component.MakeClockComponent.Kind())
	if !ok {
		return
	}
	spec := *mk
	if spec.Seconds <= 0 {
		spec.Seconds = defaultClockSeconds
	}
	if spec.Width <= 0 {
		spec.Width = 80
	}
	if spec.Height <= 0 {
		spec.Height = 20
	}
	if spec.FontSize <= 0 {
		spec.FontSize = spec.Height * 0.6
	}
	if spec.Color == nil {
		spec.Color = color.White
	}
	if spec.Background == nil {
		spec.Background = color.RGBA{A: 160}
	}

	if !ecs.Has(w, face, component.TransformComponent.Kind()) {
		_ = ecs.Add(w, face, component.TransformComponent.Kind(), &component.Transform{ScaleX: 1, ScaleY: 1})
	}
	_ = ecs.Add(w, face, component.ShapeComponent.Kind(), &component.Shape{
		Kind:   component.ShapeRect,
		Width:  spec.Width,
		Height: spec.Height,
		Color:  spec.Background,
	})
	if !ecs.Has(w, face, component.PickableComponent.Kind()) {
		_ = ecs.Add(w, face, component.PickableComponent.Kind(), &component.Pickable{
			Width:   spec.Width,
			Height:  spec.Height,
			OriginX: spec.Width / 2,
			OriginY: spec.Height / 2,
		})
	}
	if !ecs.Has(w, face, component.RenderLayerComponent.Kind()) {
		_ = ecs.Add(w, face, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: component.LayerClock})
	}

	clock := ecs.CreateEntity(w)
	_ = ecs.Add(w, clock, component.TransformComponent.Kind(), &component.Transform{ScaleX: 1, ScaleY: 1})
	_ = ecs.Add(w, clock, component.ParentComponent.Kind(), &component.Parent{Entity: uint64(face)})
	_ = ecs.Add(w, clock, component.ClockComponent.Kind(), &component.Clock{Duration: spec.Seconds})
	_ = ecs.Add(w, clock, component.TextComponent.Kind(), &component.Text{Value: "00:00:00", Size: spec.FontSize, Color: spec.Color})
	_ = ecs.Add(w, clock, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: component.LayerClock})

	_ = ecs.Add(w, face, component.ClockFaceComponent.Kind(), &component.ClockFace{Clock: uint64(clock)})
	ecs.Remove(w, face, component.MakeClockComponent.Kind())
}

func (s *ClockSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	for _, evt := range w.Events().Read(component.EventAddTime) {
		add, ok := evt.Data.(component.AddTime)
		if !ok {
			continue
		}
		ecs.ForEach(w, component.ClockComponent.Kind(), func(_ ecs.Entity, c *component.Clock) {
			c.Duration = math.Max(0, c.Remaining()+add.Seconds)
			c.Elapsed = 0
			if c.Duration > 0 {
				c.Finished = false
			}
		})
	}

	dt := w.Delta().Seconds()
	ecs.ForEach2(w, component.ClockComponent.Kind(), component.TextComponent.Kind(), func(e ecs.Entity, c *component.Clock, text *component.Text) {
		c.Elapsed += dt
		if c.Remaining() == 0 && !c.Finished {
			c.Finished = true
			ecs.Fire(w, ecs.Global, component.ClockFinished{Clock: uint64(e)})
		}
		text.Value = FormatClock(c.Remaining())
	})

	ecs.ForEach2(w, component.ClockFaceComponent.Kind(), component.TransformComponent.Kind(), func(face ecs.Entity, cf *component.ClockFace, t *component.Transform) {
		scale, _ := t.Scale()
		if scale == 1 {
			return
		}
		if text, ok := ecs.Get(w, ecs.Entity(cf.Clock), component.TextComponent.Kind()); ok {
			text.Size *= scale
		}
		if shape, ok := ecs.Get(w, face, component.ShapeComponent.Kind()); ok {
			shape.Width *= scale
			shape.Height *= scale
		}
		if p, ok := ecs.Get(w, face, component.PickableComponent.Kind()); ok {
			p.Width *= scale
			p.Height *= scale
			p.OriginX *= scale
			p.OriginY *= scale
		}
		t.ScaleX, t.ScaleY = 1, 1
	})
}
