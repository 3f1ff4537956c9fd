package system

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

const dragThreshold = 3.0

// ReadInput samples ebiten's pointer and keyboard state.
func ReadInput() component.Input {
	cx, cy := ebiten.CursorPosition()
	_, wheelY := ebiten.Wheel()
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	return component.Input{
		X:            float64(cx),
		Y:            float64(cy),
		Left:         ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		LeftPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		LeftReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		WheelY:       wheelY,
		Ctrl:         ctrl,
		CopyPressed:  ctrl && inpututil.IsKeyJustPressed(ebiten.KeyC),
	}
}

// InputSystem publishes the Input singleton, picks the topmost pickable
// entity under the cursor and fires pointer events at it.
type InputSystem struct {
	read func() component.Input

	hovered  ecs.Entity
	pressed  ecs.Entity
	dragging bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	vx       float64
	vy       float64
}

func NewInputSystem(read func() component.Input) *InputSystem {
	if read == nil {
		read = ReadInput
	}
	return &InputSystem{read: read}
}

func (i *InputSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	in := i.read()
	in.DX, in.DY = in.X-i.lastX, in.Y-i.lastY
	if w.Frame() <= 1 {
		in.DX, in.DY = 0, 0
	}
	_, state := singleton(w, component.InputComponent.Kind())
	*state = in

	i.updateHover(w, pick(w, in.X, in.Y))

	dt := w.Delta().Seconds()
	if i.pressed != 0 && !w.IsAlive(i.pressed) {
		i.pressed, i.dragging = 0, false
	}

	switch {
	case i.dragging && in.Left:
		if in.DX != 0 || in.DY != 0 {
			ecs.Fire(w, i.pressed, component.Drag{DX: in.DX, DY: in.DY})
		}
		if dt > 0 {
			const smoothing = 0.3
			i.vx += (in.DX/dt - i.vx) * smoothing
			i.vy += (in.DY/dt - i.vy) * smoothing
		}
		if d, ok := ecs.Get(w, i.pressed, component.DraggingComponent.Kind()); ok {
			d.VX, d.VY = i.vx, i.vy
		}
	case i.dragging:
		target := i.pressed
		i.pressed, i.dragging = 0, false
		ecs.Remove(w, target, component.DraggingComponent.Kind())
		ecs.Fire(w, target, component.DragEnd{VX: i.vx, VY: i.vy})
		ecs.Fire(w, target, component.PointerReleased{X: in.X, Y: in.Y})
	case i.pressed != 0 && in.Left:
		if math.Hypot(in.X-i.startX, in.Y-i.startY) >= dragThreshold {
			i.dragging = true
			i.vx, i.vy = 0, 0
			_ = ecs.Add(w, i.pressed, component.DraggingComponent.Kind(), &component.Dragging{})
			ecs.Fire(w, i.pressed, component.DragStart{X: i.startX, Y: i.startY})
			ecs.Fire(w, i.pressed, component.Drag{DX: in.X - i.startX, DY: in.Y - i.startY})
		}
	case i.pressed != 0:
		target := i.pressed
		i.pressed = 0
		ecs.Fire(w, target, component.PointerReleased{X: in.X, Y: in.Y})
	}

	if in.LeftPressed && i.hovered != 0 {
		i.pressed = i.hovered
		i.startX, i.startY = in.X, in.Y
		ecs.Fire(w, i.pressed, component.PointerPressed{X: in.X, Y: in.Y})
	}

	i.lastX, i.lastY = in.X, in.Y
}

func (i *InputSystem) updateHover(w *ecs.World, next ecs.Entity) {
	if next == i.hovered {
		return
	}
	prev := i.hovered
	i.hovered = next
	if prev != 0 && w.IsAlive(prev) {
		ecs.Remove(w, prev, component.HoveredComponent.Kind())
		ecs.Fire(w, prev, component.PointerOut{})
	}
	if next != 0 {
		_ = ecs.Add(w, next, component.HoveredComponent.Kind(), &component.Hovered{})
		ecs.Fire(w, next, component.PointerOver{})
	}
}

// pick returns the topmost pickable entity containing the point: highest
// render layer first, then the most recently created.
func pick(w *ecs.World, x, y float64) ecs.Entity {
	var (
		best      ecs.Entity
		bestLayer int
	)
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.PickableComponent.Kind(), func(e ecs.Entity, t *component.Transform, p *component.Pickable) {
		if s, ok := ecs.Get(w, e, component.SpriteComponent.Kind()); ok && s.Hidden {
			return
		}
		if !hit(w, e, t, p, x, y) {
			return
		}
		layer := renderLayer(w, e)
		if best == 0 || layer > bestLayer || (layer == bestLayer && e.ID() > best.ID()) {
			best, bestLayer = e, layer
		}
	})
	return best
}

func hit(w *ecs.World, e ecs.Entity, t *component.Transform, p *component.Pickable, x, y float64) bool {
	px, py, ok := worldPosition(w, e)
	if !ok {
		return false
	}
	sx, sy := t.Scale()
	left := px - p.OriginX*sx
	top := py - p.OriginY*sy
	return x >= left && x <= left+p.Width*sx && y >= top && y <= top+p.Height*sy
}
