package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{86399, "23:59:59"},
		{100 * 3600, "100:00:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatClock(c.seconds), "seconds=%v", c.seconds)
	}
}

func newClockWorld(t *testing.T, seconds float64) (*ecs.World, ecs.Entity, ecs.Entity) {
	t.Helper()
	w := ecs.NewWorld()
	w.AddSystem(NewClockSystem())
	w.SetDelta(time.Second)

	face := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, face, component.TransformComponent.Kind(), &component.Transform{X: 10, Y: 20}))
	require.NoError(t, ecs.Add(w, face, component.MakeClockComponent.Kind(), &component.MakeClock{Seconds: seconds}))

	cf, ok := ecs.Get(w, face, component.ClockFaceComponent.Kind())
	require.True(t, ok, "clock face built on add")
	return w, face, ecs.Entity(cf.Clock)
}

func TestMakeClockBuildsFace(t *testing.T) {
	w, face, clock := newClockWorld(t, 90)

	assert.False(t, ecs.Has(w, face, component.MakeClockComponent.Kind()))
	assert.True(t, ecs.Has(w, face, component.ShapeComponent.Kind()))
	assert.True(t, ecs.Has(w, face, component.PickableComponent.Kind()))

	c, ok := ecs.Get(w, clock, component.ClockComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, 90.0, c.Duration)

	p, ok := ecs.Get(w, clock, component.ParentComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, uint64(face), p.Entity)
}

func TestClockCountsDownAndFinishesOnce(t *testing.T) {
	w, _, clock := newClockWorld(t, 2)

	finished := 0
	ecs.Observe(w, ecs.Global, func(w *ecs.World, tr ecs.Trigger[component.ClockFinished]) {
		finished++
		assert.Equal(t, uint64(clock), tr.Event.Clock)
	})

	w.Update()
	text, _ := ecs.Get(w, clock, component.TextComponent.Kind())
	assert.Equal(t, "00:00:01", text.Value)
	assert.Zero(t, finished)

	w.Update()
	w.Update()
	assert.Equal(t, "00:00:00", text.Value)
	assert.Equal(t, 1, finished)
}

func TestClockAddTime(t *testing.T) {
	w, _, clock := newClockWorld(t, 10)
	w.Update()

	w.Events().Push(ecs.Event{Type: component.EventAddTime, Data: component.AddTime{Seconds: 60}})
	w.Update()

	c, _ := ecs.Get(w, clock, component.ClockComponent.Kind())
	assert.InDelta(t, 68, c.Remaining(), 1e-9)

	text, _ := ecs.Get(w, clock, component.TextComponent.Kind())
	assert.Equal(t, "00:01:08", text.Value)
}

func TestClockAddTimeRestartsFinishedClock(t *testing.T) {
	w, _, clock := newClockWorld(t, 1)
	w.Update()
	w.Update()
	c, _ := ecs.Get(w, clock, component.ClockComponent.Kind())
	require.True(t, c.Finished)

	w.Events().Push(ecs.Event{Type: component.EventAddTime, Data: component.AddTime{Seconds: 30}})
	w.Update()
	assert.False(t, c.Finished)
	assert.InDelta(t, 29, c.Remaining(), 1e-9)
}

func TestClockFoldsScaleIntoFont(t *testing.T) {
	w, face, clock := newClockWorld(t, 10)
	text, _ := ecs.Get(w, clock, component.TextComponent.Kind())
	shape, _ := ecs.Get(w, face, component.ShapeComponent.Kind())
	size, width := text.Size, shape.Width

	tr, _ := ecs.Get(w, face, component.TransformComponent.Kind())
	tr.ScaleX, tr.ScaleY = 2, 2
	w.Update()

	assert.InDelta(t, size*2, text.Size, 1e-9)
	assert.InDelta(t, width*2, shape.Width, 1e-9)
	assert.Equal(t, 1.0, tr.ScaleX)
	assert.Equal(t, 1.0, tr.ScaleY)
}

func TestExpireSwapsForExpired(t *testing.T) {
	w := ecs.NewWorld()
	w.AddSystem(NewExpireSystem())
	w.SetDelta(500 * time.Millisecond)

	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.ExpireComponent.Kind(), component.NewExpire(1)))

	w.Update()
	assert.True(t, ecs.Has(w, e, component.ExpireComponent.Kind()))
	w.Update()
	assert.False(t, ecs.Has(w, e, component.ExpireComponent.Kind()))
	assert.True(t, ecs.Has(w, e, component.ExpiredComponent.Kind()))
}

func TestExpireAddTime(t *testing.T) {
	exp := component.NewExpire(5)
	exp.Elapsed = 3
	exp.AddTime(4)
	assert.Equal(t, 6.0, exp.Duration)
	assert.Zero(t, exp.Elapsed)

	exp.Elapsed = 10
	exp.AddTime(2)
	assert.Equal(t, 2.0, exp.Duration, "overdue time does not carry")
}
