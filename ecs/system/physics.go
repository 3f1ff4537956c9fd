package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

const (
	collisionTypeDecoration cp.CollisionType = iota + 1
	collisionTypeWall
)

const wallElasticity = 0.8

// PhysicsConfig tunes the chipmunk space.
type PhysicsConfig struct {
	Gravity    float64
	Damping    float64
	Iterations int
}

// PhysicsSystem simulates decorations with a PhysicsBody inside walls at the
// screen edges. Dragged bodies follow their transform and are thrown with
// the pointer velocity on release.
type PhysicsSystem struct {
	space    *cp.Space
	entities map[ecs.Entity]*bodyInfo

	walls      []*cp.Shape
	wallWidth  float64
	wallHeight float64
}

type bodyInfo struct {
	body   *cp.Body
	shape  *cp.Shape
	scaleX float64
	scaleY float64
}

func NewPhysicsSystem(cfg PhysicsConfig) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	if space.Iterations == 0 {
		space.Iterations = 10
	}
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})
	if cfg.Damping > 0 {
		space.SetDamping(cfg.Damping)
	}
	return &PhysicsSystem{
		space:    space,
		entities: make(map[ecs.Entity]*bodyInfo),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) Attach(w *ecs.World) {
	ecs.OnAdd(w, component.PhysicsBodyComponent.Kind(), func(w *ecs.World, e ecs.Entity) {
		ecs.Observe(w, e, throwOnRelease)
	})
}

func throwOnRelease(w *ecs.World, t ecs.Trigger[component.DragEnd]) {
	pb, ok := ecs.Get(w, t.Target, component.PhysicsBodyComponent.Kind())
	if !ok || pb.Body == nil {
		return
	}
	pb.Body.SetVelocity(t.Event.VX, t.Event.VY)
	pb.Body.Activate()
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.syncWalls(w)
	ps.cleanupEntities(w)
	ps.syncEntities(w)

	dt := w.Delta().Seconds()
	if dt > 0 {
		ps.space.Step(dt)
	}

	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) syncWalls(w *ecs.World) {
	ov, ok := first(w, component.OverlayComponent.Kind())
	if !ok || ov.Width <= 0 || ov.Height <= 0 {
		return
	}
	if ov.Width == ps.wallWidth && ov.Height == ps.wallHeight {
		return
	}
	for _, s := range ps.walls {
		ps.space.RemoveShape(s)
	}
	ps.walls = ps.walls[:0]
	ps.wallWidth, ps.wallHeight = ov.Width, ov.Height

	ww, wh := ov.Width, ov.Height
	segments := [][2]cp.Vector{
		{{X: 0, Y: 0}, {X: ww, Y: 0}},
		{{X: 0, Y: wh}, {X: ww, Y: wh}},
		{{X: 0, Y: 0}, {X: 0, Y: wh}},
		{{X: ww, Y: 0}, {X: ww, Y: wh}},
	}
	for _, seg := range segments {
		s := cp.NewSegment(ps.space.StaticBody, seg[0], seg[1], 1)
		s.SetElasticity(wallElasticity)
		s.SetFriction(0.5)
		s.SetCollisionType(collisionTypeWall)
		ps.space.AddShape(s)
		ps.walls = append(ps.walls, s)
	}
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		sx, sy := t.Scale()
		info := ps.entities[e]
		if info != nil && (info.scaleX != sx || info.scaleY != sy) {
			ps.space.RemoveShape(info.shape)
			info.shape = ps.newShape(info.body, pb, sx, sy)
			info.scaleX, info.scaleY = sx, sy
			pb.Shape = info.shape
		}
		if info == nil {
			x, y, _ := worldPosition(w, e)
			info = ps.createBody(pb, x, y, t.Rotation, sx, sy)
			ps.entities[e] = info
			pb.Body, pb.Shape = info.body, info.shape
		}

		if d, dragging := ecs.Get(w, e, component.DraggingComponent.Kind()); dragging {
			x, y, _ := worldPosition(w, e)
			info.body.SetPosition(cp.Vector{X: x, Y: y})
			info.body.SetVelocity(d.VX, d.VY)
			info.body.SetAngularVelocity(0)
		}
	})
}

func (ps *PhysicsSystem) createBody(pb *component.PhysicsBody, x, y, angle, sx, sy float64) *bodyInfo {
	mass := pb.Mass
	if mass <= 0 {
		mass = 1
	}
	w, h, r := pb.Width*sx, pb.Height*sy, pb.Radius*sx
	if r <= 0 && (w <= 0 || h <= 0) {
		w, h = 32, 32
	}

	var moment float64
	if r > 0 {
		moment = cp.MomentForCircle(mass, 0, r, cp.Vector{})
	} else {
		moment = cp.MomentForBox(mass, w, h)
	}
	body := cp.NewBody(mass, moment)
	body.SetPosition(cp.Vector{X: x, Y: y})
	body.SetAngle(angle)
	ps.space.AddBody(body)

	return &bodyInfo{
		body:   body,
		shape:  ps.newShape(body, pb, sx, sy),
		scaleX: sx,
		scaleY: sy,
	}
}

func (ps *PhysicsSystem) newShape(body *cp.Body, pb *component.PhysicsBody, sx, sy float64) *cp.Shape {
	var shape *cp.Shape
	w, h := pb.Width*sx, pb.Height*sy
	switch {
	case pb.Radius > 0:
		shape = cp.NewCircle(body, pb.Radius*sx, cp.Vector{})
	case w > 0 && h > 0:
		shape = cp.NewBox(body, w, h, 0)
	default:
		shape = cp.NewBox(body, 32, 32, 0)
	}
	shape.SetFriction(pb.Friction)
	shape.SetElasticity(pb.Elasticity)
	shape.SetCollisionType(collisionTypeDecoration)
	ps.space.AddShape(shape)
	return shape
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		if pb.Body == nil || ecs.Has(w, e, component.DraggingComponent.Kind()) {
			return
		}
		pos := pb.Body.Position()
		t.X, t.Y = pos.X, pos.Y
		// Children of other entities keep their offset.
		if p, ok := ecs.Get(w, e, component.ParentComponent.Kind()); ok {
			if px, py, ok := worldPosition(w, ecs.Entity(p.Entity)); ok {
				t.X -= px
				t.Y -= py
			}
		}
		t.Rotation = pb.Body.Angle()
	})
}

func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, info := range ps.entities {
		if w.IsAlive(e) && ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			if pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); pb.Body == info.body {
				continue
			}
		}
		ps.space.RemoveShape(info.shape)
		ps.space.RemoveBody(info.body)
		delete(ps.entities, e)
	}
}
