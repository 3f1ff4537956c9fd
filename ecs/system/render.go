package system

import (
	"image"
	"image/color"
	"log"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/ecs/render"
	"github.com/milk9111/overlay/particles"
)

// maxQuads keeps a particle batch inside uint16 indices.
const maxQuads = 65535 / 4

var (
	selectedColor = color.RGBA{255, 214, 10, 255}
	hoveredColor  = color.RGBA{255, 255, 255, 128}
)

// RenderSystem spins meshes and draws every visible entity ordered by
// render layer, then entity id.
type RenderSystem struct {
	white  *ebiten.Image
	verts  []ebiten.Vertex
	inds   []uint16
	warned map[string]bool
}

func NewRenderSystem() *RenderSystem {
	return &RenderSystem{warned: make(map[string]bool)}
}

func (r *RenderSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta().Seconds()
	ecs.ForEach(w, component.Mesh3DComponent.Kind(), func(_ ecs.Entity, m *component.Mesh3D) {
		m.AngleX = math.Mod(m.AngleX+m.SpinX*dt, 2*math.Pi)
		m.AngleY = math.Mod(m.AngleY+m.SpinY*dt, 2*math.Pi)
		m.AngleZ = math.Mod(m.AngleZ+m.SpinZ*dt, 2*math.Pi)
	})
}

// drawOrder returns the drawable entities sorted by layer and id.
func drawOrder(w *ecs.World) []ecs.Entity {
	var out []ecs.Entity
	for _, e := range w.Query(component.TransformComponent.Kind()) {
		if ecs.Has(w, e, component.ShapeComponent.Kind()) ||
			ecs.Has(w, e, component.SpriteComponent.Kind()) ||
			ecs.Has(w, e, component.Mesh3DComponent.Kind()) ||
			ecs.Has(w, e, component.TextComponent.Kind()) ||
			ecs.Has(w, e, component.ParticleEffectComponent.Kind()) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := renderLayer(w, out[i]), renderLayer(w, out[j])
		if li != lj {
			return li < lj
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}
	if r.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		r.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	editMode := false
	if ov, ok := first(w, component.OverlayComponent.Kind()); ok {
		editMode = ov.EditMode
	}

	for _, e := range drawOrder(w) {
		t, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		x, y, _ := worldPosition(w, e)
		sx, sy := t.Scale()

		if s, ok := ecs.Get(w, e, component.ShapeComponent.Kind()); ok {
			r.drawShape(screen, s, x, y, sx, sy)
		}
		if s, ok := ecs.Get(w, e, component.SpriteComponent.Kind()); ok && !s.Hidden && s.Image != nil {
			mat, _ := ecs.Get(w, e, component.MaterialComponent.Kind())
			r.drawSprite(w, screen, s, mat, t, x, y, sx, sy)
		}
		if m, ok := ecs.Get(w, e, component.Mesh3DComponent.Kind()); ok {
			r.drawMesh(screen, m, x, y, math.Min(sx, sy))
		}
		if tx, ok := ecs.Get(w, e, component.TextComponent.Kind()); ok {
			r.drawText(screen, tx, x, y, sy)
		}
		if pe, ok := ecs.Get(w, e, component.ParticleEffectComponent.Kind()); ok && pe.Emitter != nil {
			r.drawParticles(screen, pe.Emitter)
		}

		p, ok := ecs.Get(w, e, component.PickableComponent.Kind())
		if !ok {
			continue
		}
		switch {
		case ecs.Has(w, e, component.SelectedComponent.Kind()):
			outline(screen, p, x, y, sx, sy, 2, selectedColor)
		case editMode && ecs.Has(w, e, component.HoveredComponent.Kind()):
			outline(screen, p, x, y, sx, sy, 1, hoveredColor)
		}
	}
}

func outline(screen *ebiten.Image, p *component.Pickable, x, y, sx, sy float64, width float32, clr color.Color) {
	left := x - p.OriginX*sx
	top := y - p.OriginY*sy
	vector.StrokeRect(screen, float32(left), float32(top), float32(p.Width*sx), float32(p.Height*sy), width, clr, true)
}

func (r *RenderSystem) drawShape(screen *ebiten.Image, s *component.Shape, x, y, sx, sy float64) {
	clr := s.Color
	if clr == nil {
		clr = color.White
	}
	if s.Kind == component.ShapeRect || s.Kind == "" {
		w, h := s.Width*sx, s.Height*sy
		left, top := float32(x-w/2), float32(y-h/2)
		vector.DrawFilledRect(screen, left, top, float32(w), float32(h), clr, true)
		if s.Stroke > 0 {
			vector.StrokeRect(screen, left, top, float32(w), float32(h), float32(s.Stroke), color.White, true)
		}
		return
	}

	pts := outlinePoints(s)
	if len(pts) < 3 {
		return
	}
	cr, cg, cb, ca := straight(clr)
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	r.verts = append(r.verts, vertex(x, y, cr, cg, cb, ca))
	for _, p := range pts {
		r.verts = append(r.verts, vertex(x+p[0]*sx, y+p[1]*sy, cr, cg, cb, ca))
	}
	n := uint16(len(pts))
	for i := uint16(0); i < n; i++ {
		r.inds = append(r.inds, 0, 1+i, 1+(i+1)%n)
	}
	screen.DrawTriangles(r.verts, r.inds, r.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})

	if s.Stroke > 0 {
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			vector.StrokeLine(screen, float32(x+a[0]*sx), float32(y+a[1]*sy), float32(x+b[0]*sx), float32(y+b[1]*sy), float32(s.Stroke), color.White, true)
		}
	}
}

// outlinePoints returns the polygon or star corners around the center, the
// first one pointing up.
func outlinePoints(s *component.Shape) [][2]float64 {
	sides := s.Sides
	if sides < 3 {
		sides = 5
	}
	switch s.Kind {
	case component.ShapePolygon:
		pts := make([][2]float64, sides)
		for i := range pts {
			a := -math.Pi/2 + float64(i)*2*math.Pi/float64(sides)
			pts[i] = [2]float64{s.Radius * math.Cos(a), s.Radius * math.Sin(a)}
		}
		return pts
	case component.ShapeStar:
		inner := s.InnerRadius
		if inner <= 0 {
			inner = s.Radius / 2
		}
		pts := make([][2]float64, sides*2)
		for i := range pts {
			rad := s.Radius
			if i%2 == 1 {
				rad = inner
			}
			a := -math.Pi/2 + float64(i)*math.Pi/float64(sides)
			pts[i] = [2]float64{rad * math.Cos(a), rad * math.Sin(a)}
		}
		return pts
	}
	return nil
}

func (r *RenderSystem) drawSprite(w *ecs.World, screen *ebiten.Image, s *component.Sprite, mat *component.Material, t *component.Transform, x, y, sx, sy float64) {
	var geo ebiten.GeoM
	geo.Translate(-s.OriginX, -s.OriginY)
	geo.Scale(sx, sy)
	geo.Rotate(t.Rotation)
	geo.Translate(x, y)

	if mat != nil && mat.Shader != "" {
		shader, err := render.Shader(mat.Shader)
		if err == nil {
			intensity := mat.Intensity
			if intensity == 0 {
				intensity = 1
			}
			b := s.Image.Bounds()
			op := &ebiten.DrawRectShaderOptions{}
			op.GeoM = geo
			op.Images[0] = s.Image
			op.Uniforms = map[string]any{
				"Time":      float32(w.Elapsed().Seconds()),
				"Intensity": float32(intensity),
			}
			if s.Tint != nil {
				op.ColorScale.ScaleWithColor(s.Tint)
			}
			screen.DrawRectShader(b.Dx(), b.Dy(), shader, op)
			return
		}
		if !r.warned[mat.Shader] {
			r.warned[mat.Shader] = true
			log.Printf("render: %v", err)
		}
	}

	op := &ebiten.DrawImageOptions{GeoM: geo}
	if s.Tint != nil {
		op.ColorScale.ScaleWithColor(s.Tint)
	}
	screen.DrawImage(s.Image, op)
}

func (r *RenderSystem) drawMesh(screen *ebiten.Image, m *component.Mesh3D, x, y, scale float64) {
	tris, ok := render.Primitive(m.Primitive)
	if !ok {
		if !r.warned[m.Primitive] {
			r.warned[m.Primitive] = true
			log.Printf("render: unknown mesh primitive %q", m.Primitive)
		}
		return
	}
	clr := m.Color
	if clr == nil {
		clr = color.White
	}
	cr, cg, cb, ca := straight(clr)

	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	for _, p := range render.Project(tris, m.Size*scale, m.AngleX, m.AngleY, m.AngleZ) {
		base := uint16(len(r.verts))
		for _, pt := range p.Points {
			r.verts = append(r.verts, vertex(x+pt[0], y+pt[1], cr*p.Shade, cg*p.Shade, cb*p.Shade, ca))
		}
		r.inds = append(r.inds, base, base+1, base+2)
	}
	if len(r.inds) == 0 {
		return
	}
	screen.DrawTriangles(r.verts, r.inds, r.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (r *RenderSystem) drawText(screen *ebiten.Image, tx *component.Text, x, y, scale float64) {
	if tx.Value == "" {
		return
	}
	face, err := render.Face(tx.Size * scale)
	if err != nil {
		if !r.warned["font"] {
			r.warned["font"] = true
			log.Printf("render: %v", err)
		}
		return
	}
	op := &text.DrawOptions{}
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	op.GeoM.Translate(x, y)
	if tx.Color != nil {
		op.ColorScale.ScaleWithColor(tx.Color)
	}
	text.Draw(screen, tx.Value, face, op)
}

func (r *RenderSystem) drawParticles(screen *ebiten.Image, em *particles.Emitter) {
	ps := em.Particles()
	if len(ps) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	if a := em.Asset(); a != nil && a.Render.Composite == particles.CompositeAdditive {
		op.Blend = ebiten.BlendLighter
	}

	for start := 0; start < len(ps); start += maxQuads {
		end := min(start+maxQuads, len(ps))
		r.verts = r.verts[:0]
		r.inds = r.inds[:0]
		for i := start; i < end; i++ {
			r.appendQuad(&ps[i])
		}
		screen.DrawTriangles(r.verts, r.inds, r.white, op)
	}
}

func (r *RenderSystem) appendQuad(p *particles.Particle) {
	hx, hy := p.SizeX/2, p.SizeY/2
	s, c := math.Sincos(p.Rotation)
	cr, cg, cb, ca := clamp01(p.Color[0]), clamp01(p.Color[1]), clamp01(p.Color[2]), clamp01(p.Color[3])

	base := uint16(len(r.verts))
	for _, corner := range [4][2]float64{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}} {
		dx := corner[0]*c - corner[1]*s
		dy := corner[0]*s + corner[1]*c
		r.verts = append(r.verts, vertex(p.Pos.X+dx, p.Pos.Y+dy, cr, cg, cb, ca))
	}
	r.inds = append(r.inds, base, base+1, base+2, base, base+2, base+3)
}

func vertex(x, y, cr, cg, cb, ca float64) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   1,
		SrcY:   1,
		ColorR: float32(cr),
		ColorG: float32(cg),
		ColorB: float32(cb),
		ColorA: float32(ca),
	}
}

// straight converts a color to straight-alpha components in [0, 1].
func straight(clr color.Color) (float64, float64, float64, float64) {
	c := color.NRGBAModel.Convert(clr).(color.NRGBA)
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
