package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

// scriptedInput replays one Input per frame and repeats the last one.
type scriptedInput struct {
	frames []component.Input
	i      int
}

func (s *scriptedInput) read() component.Input {
	if len(s.frames) == 0 {
		return component.Input{}
	}
	in := s.frames[s.i]
	if s.i < len(s.frames)-1 {
		s.i++
	}
	return in
}

func addDecoration(t *testing.T, w *ecs.World, x, y float64, layer int) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}))
	require.NoError(t, ecs.Add(w, e, component.PickableComponent.Kind(), &component.Pickable{Width: 40, Height: 40, OriginX: 20, OriginY: 20}))
	require.NoError(t, ecs.Add(w, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: layer}))
	require.NoError(t, ecs.Add(w, e, component.DraggableComponent.Kind(), &component.Draggable{ScaleFactor: 0.1, MinScale: 0.25}))
	return e
}

func newPointerWorld(frames ...component.Input) (*ecs.World, *scriptedInput) {
	script := &scriptedInput{frames: frames}
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	w.AddSystem(NewInputSystem(script.read))
	w.AddSystem(NewDraggableSystem(nil))
	return w, script
}

func TestPickPrefersHigherLayerThenNewer(t *testing.T) {
	w := ecs.NewWorld()
	low := addDecoration(t, w, 100, 100, 0)
	high := addDecoration(t, w, 110, 110, 1)
	assert.Equal(t, high, pick(w, 105, 105))

	newer := addDecoration(t, w, 112, 112, 1)
	assert.Equal(t, newer, pick(w, 112, 112))
	assert.Equal(t, low, pick(w, 85, 85))
	assert.Equal(t, ecs.Entity(0), pick(w, 500, 500))
}

func TestHitFollowsScale(t *testing.T) {
	w := ecs.NewWorld()
	e := addDecoration(t, w, 100, 100, 0)
	assert.Equal(t, ecs.Entity(0), pick(w, 135, 100))

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	tr.ScaleX, tr.ScaleY = 2, 2
	assert.Equal(t, e, pick(w, 135, 100))
}

func TestHoverSelectsAndLeavingUnselects(t *testing.T) {
	w, _ := newPointerWorld(
		component.Input{X: 100, Y: 100},
		component.Input{X: 300, Y: 300},
	)
	e := addDecoration(t, w, 100, 100, 0)

	w.Update()
	assert.True(t, ecs.Has(w, e, component.HoveredComponent.Kind()))
	assert.True(t, ecs.Has(w, e, component.SelectedComponent.Kind()))

	w.Update()
	assert.False(t, ecs.Has(w, e, component.HoveredComponent.Kind()))
	assert.False(t, ecs.Has(w, e, component.SelectedComponent.Kind()))
}

func TestOnlyOneSelection(t *testing.T) {
	w, _ := newPointerWorld(
		component.Input{X: 100, Y: 100},
		component.Input{X: 100, Y: 100, Left: true},
		component.Input{X: 300, Y: 100, Left: true},
	)
	a := addDecoration(t, w, 100, 100, 0)
	b := addDecoration(t, w, 300, 100, 0)

	w.Update()
	w.Update()
	w.Update()
	assert.False(t, ecs.Has(w, b, component.SelectedComponent.Kind()), "a pending unselect still holds the selection")
	assert.True(t, ecs.Has(w, a, component.PendingUnselectComponent.Kind()))
}

func TestDragMovesAndReleaseFiresDragEnd(t *testing.T) {
	w, _ := newPointerWorld(
		component.Input{X: 100, Y: 100, Left: true, LeftPressed: true},
		component.Input{X: 101, Y: 100, Left: true},
		component.Input{X: 110, Y: 104, Left: true},
		component.Input{X: 115, Y: 104, Left: true},
		component.Input{X: 115, Y: 104, LeftReleased: true},
	)
	e := addDecoration(t, w, 100, 100, 0)

	var ends []component.DragEnd
	ecs.Observe(w, e, func(w *ecs.World, tr ecs.Trigger[component.DragEnd]) {
		ends = append(ends, tr.Event)
	})

	w.Update()
	w.Update()
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.Equal(t, 100.0, tr.X, "below the drag threshold")
	assert.False(t, ecs.Has(w, e, component.DraggingComponent.Kind()))

	w.Update()
	assert.True(t, ecs.Has(w, e, component.DraggingComponent.Kind()))
	assert.Equal(t, 110.0, tr.X)
	assert.Equal(t, 104.0, tr.Y)

	w.Update()
	assert.Equal(t, 115.0, tr.X)

	w.Update()
	assert.False(t, ecs.Has(w, e, component.DraggingComponent.Kind()))
	require.Len(t, ends, 1)
	assert.Greater(t, ends[0].VX, 0.0)
	assert.True(t, ecs.Has(w, e, component.SelectedComponent.Kind()))
}

func TestWheelZoomsSelection(t *testing.T) {
	w, _ := newPointerWorld(
		component.Input{X: 100, Y: 100},
		component.Input{X: 100, Y: 100, WheelY: 2},
		component.Input{X: 100, Y: 100},
	)
	w.AddSystem(NewTweenSystem())
	e := addDecoration(t, w, 100, 100, 0)

	w.Update()
	w.Update()
	tw, ok := ecs.Get(w, e, component.ScaleTweenComponent.Kind())
	require.True(t, ok)
	assert.InDelta(t, 1.2, tw.Target, 1e-9)

	for i := 0; i < 30; i++ {
		w.Update()
	}
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.InDelta(t, 1.2, tr.ScaleX, 1e-9)
	assert.False(t, ecs.Has(w, e, component.ScaleTweenComponent.Kind()))
}

func TestWheelZoomStopsAtMinScale(t *testing.T) {
	w, _ := newPointerWorld(
		component.Input{X: 100, Y: 100},
		component.Input{X: 100, Y: 100, WheelY: -50},
		component.Input{X: 100, Y: 100},
	)
	e := addDecoration(t, w, 100, 100, 0)

	w.Update()
	w.Update()
	tw, ok := ecs.Get(w, e, component.ScaleTweenComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, 0.25, tw.Target)
}

func TestCopySelectionWritesTransformYAML(t *testing.T) {
	var copied []byte
	script := &scriptedInput{frames: []component.Input{
		{X: 100, Y: 100},
		{X: 100, Y: 100, Ctrl: true, CopyPressed: true},
	}}
	w := ecs.NewWorld()
	w.AddSystem(NewInputSystem(script.read))
	w.AddSystem(NewDraggableSystem(func(b []byte) error {
		copied = b
		return nil
	}))
	addDecoration(t, w, 100.4, 99.6, 0)

	w.Update()
	w.Update()
	require.NotEmpty(t, copied)
	assert.Contains(t, string(copied), "transform:")
	assert.Contains(t, string(copied), "x: 100")
	assert.Contains(t, string(copied), "y: 100")
}
