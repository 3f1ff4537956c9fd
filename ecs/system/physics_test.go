package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

func newPhysicsWorld(t *testing.T) (*ecs.World, *PhysicsSystem) {
	t.Helper()
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	ps := NewPhysicsSystem(PhysicsConfig{Iterations: 10})
	w.AddSystem(ps)
	ov := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, ov, component.OverlayComponent.Kind(), &component.Overlay{Width: 400, Height: 300}))
	return w, ps
}

func addBody(t *testing.T, w *ecs.World, x, y float64) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}))
	require.NoError(t, ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Radius: 10, Mass: 1, Elasticity: 0.5}))
	return e
}

func TestPhysicsCreatesBodiesAndWalls(t *testing.T) {
	w, ps := newPhysicsWorld(t)
	e := addBody(t, w, 100, 120)
	w.Update()

	pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
	require.NotNil(t, pb.Body)
	require.NotNil(t, pb.Shape)
	assert.Len(t, ps.walls, 4)

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.InDelta(t, 100, tr.X, 1e-6, "no gravity keeps a resting body in place")
	assert.InDelta(t, 120, tr.Y, 1e-6)
}

func TestPhysicsWallsFollowOverlaySize(t *testing.T) {
	w, ps := newPhysicsWorld(t)
	w.Update()
	before := ps.walls[0]
	assert.Equal(t, 400.0, ps.wallWidth)

	ov, ok := first(w, component.OverlayComponent.Kind())
	require.True(t, ok)
	ov.Width, ov.Height = 800, 600
	w.Update()

	require.Len(t, ps.walls, 4)
	assert.NotSame(t, before, ps.walls[0])
	assert.Equal(t, 800.0, ps.wallWidth)
	assert.Equal(t, 600.0, ps.wallHeight)
}

func TestPhysicsThrowOnRelease(t *testing.T) {
	w, _ := newPhysicsWorld(t)
	e := addBody(t, w, 100, 150)
	w.Update()

	ecs.Fire(w, e, component.DragEnd{VX: 120, VY: 0})
	for i := 0; i < 30; i++ {
		w.Update()
	}
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.Greater(t, tr.X, 140.0)
	assert.InDelta(t, 150, tr.Y, 1)
}

func TestPhysicsKeepsBodiesInsideWalls(t *testing.T) {
	w, _ := newPhysicsWorld(t)
	e := addBody(t, w, 200, 150)
	w.Update()

	ecs.Fire(w, e, component.DragEnd{VX: 2000, VY: -1500})
	for i := 0; i < 240; i++ {
		w.Update()
	}
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.True(t, tr.X > 0 && tr.X < 400, "x=%v", tr.X)
	assert.True(t, tr.Y > 0 && tr.Y < 300, "y=%v", tr.Y)
}

func TestPhysicsDraggedBodyFollowsTransform(t *testing.T) {
	w, _ := newPhysicsWorld(t)
	e := addBody(t, w, 100, 100)
	w.Update()

	require.NoError(t, ecs.Add(w, e, component.DraggingComponent.Kind(), &component.Dragging{}))
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	tr.X, tr.Y = 250, 200
	w.Update()

	pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
	pos := pb.Body.Position()
	assert.InDelta(t, 250, pos.X, 1e-6)
	assert.InDelta(t, 200, pos.Y, 1e-6)
	assert.Equal(t, 250.0, tr.X)
}

func TestPhysicsDropsRemovedBodies(t *testing.T) {
	w, ps := newPhysicsWorld(t)
	e := addBody(t, w, 100, 100)
	w.Update()
	require.Len(t, ps.entities, 1)

	ecs.DestroyEntity(w, e)
	w.Update()
	assert.Empty(t, ps.entities)
}
