package entity

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/ecs/render"
	"github.com/milk9111/overlay/prefabs"
)

type entityPrefabSpec = prefabs.EntityBuildSpec

type buildContext struct {
	PrefabPath string
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"name":            addName,
	"transform":       addTransform,
	"sprite":          addSprite,
	"shape":           addShape,
	"mesh":            addMesh,
	"material":        addMaterial,
	"render_layer":    addRenderLayer,
	"draggable":       addDraggable,
	"pickable":        addPickable,
	"clock":           addClock,
	"physics_body":    addPhysicsBody,
	"audio":           addAudio,
	"click_effect":    addClickEffect,
	"particle_effect": addParticleEffect,
}

// Transform comes first so later builders can read the entity's scale, and
// clock after pickable so an explicit hit box wins over the clock's own.
var componentBuildOrder = []string{
	"name",
	"transform",
	"sprite",
	"shape",
	"mesh",
	"material",
	"render_layer",
	"draggable",
	"pickable",
	"clock",
	"physics_body",
	"audio",
	"click_effect",
	"particle_effect",
}

// ComponentNames returns the component keys a prefab may use.
func ComponentNames() []string {
	names := make([]string, 0, len(componentRegistry))
	for name := range componentRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildEntity loads the prefab at prefabPath and builds it.
func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	return BuildSpec(w, spec)
}

// BuildSpec creates an entity from an already resolved spec. The entity is
// destroyed again if any component fails to build.
func BuildSpec(w *ecs.World, spec entityPrefabSpec) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}
	label := spec.Prefab
	if label == "" {
		label = spec.Name
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", label)
	}

	for name := range spec.Components {
		if _, ok := componentRegistry[name]; !ok {
			return 0, fmt.Errorf("build entity: %q: no builder for component %q", label, name)
		}
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: spec.Prefab}

	if spec.Name != "" {
		if _, ok := spec.Components["name"]; !ok {
			_ = ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: spec.Name})
		}
	}

	for _, name := range componentBuildOrder {
		raw, ok := spec.Components[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			DestroyTree(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", label, name, err)
		}
	}

	if ecs.Has(w, e, component.DraggableComponent.Kind()) && !ecs.Has(w, e, component.PickableComponent.Kind()) {
		if p, ok := derivePickable(w, e); ok {
			_ = ecs.Add(w, e, component.PickableComponent.Kind(), p)
		}
	}

	if spec.Prefab != "" {
		_ = ecs.Add(w, e, component.DecorationTagComponent.Kind(), &component.DecorationTag{Prefab: spec.Prefab})
	}
	return e, nil
}

// ScenePatch returns extra overrides for a resolved scene entity, or nil to
// leave it alone.
type ScenePatch func(spec prefabs.EntityBuildSpec) map[string]any

// BuildScene builds every entity in the scene file. Entities that fail are
// skipped and reported together.
func BuildScene(w *ecs.World, scenePath string, patches ...ScenePatch) ([]ecs.Entity, error) {
	scene, err := prefabs.LoadSceneSpec(scenePath)
	if err != nil {
		return nil, err
	}

	var (
		built []ecs.Entity
		errs  []error
	)
	for _, ent := range scene.Entities {
		spec, err := ent.Resolve()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		overrides := ent.Components
		for _, patch := range patches {
			if extra := patch(spec); len(extra) > 0 {
				overrides = prefabs.MergeComponents(overrides, extra)
				spec.Components = prefabs.MergeComponents(spec.Components, extra)
			}
		}
		e, err := BuildSpec(w, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if tag, ok := ecs.Get(w, e, component.DecorationTagComponent.Kind()); ok {
			tag.Overrides = overrides
		}
		built = append(built, e)
	}
	if len(errs) > 0 {
		return built, fmt.Errorf("build scene %q: %d entities failed, first: %w", scenePath, len(errs), errs[0])
	}
	return built, nil
}

// Rebuild reloads a decoration's prefab and replaces the entity with a fresh
// build, keeping its position and scale. The old entity survives when the
// prefab no longer builds.
func Rebuild(w *ecs.World, e ecs.Entity) (ecs.Entity, error) {
	tag, ok := ecs.Get(w, e, component.DecorationTagComponent.Kind())
	if !ok {
		return e, fmt.Errorf("rebuild %v: not a decoration", e)
	}
	overrides := tag.Overrides
	spec, err := prefabs.SceneEntitySpec{Prefab: tag.Prefab, Components: overrides}.Resolve()
	if err != nil {
		return e, err
	}

	var placed *component.Transform
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		cp := *t
		placed = &cp
	}

	next, err := BuildSpec(w, spec)
	if err != nil {
		return e, err
	}
	if placed != nil {
		if t, ok := ecs.Get(w, next, component.TransformComponent.Kind()); ok {
			t.X, t.Y = placed.X, placed.Y
			t.ScaleX, t.ScaleY = placed.ScaleX, placed.ScaleY
		}
	}
	if nt, ok := ecs.Get(w, next, component.DecorationTagComponent.Kind()); ok {
		nt.Overrides = overrides
	}
	DestroyTree(w, e)
	return next, nil
}

// DestroyTree destroys e and every entity parented to it.
func DestroyTree(w *ecs.World, e ecs.Entity) {
	var children []ecs.Entity
	ecs.ForEach(w, component.ParentComponent.Kind(), func(child ecs.Entity, p *component.Parent) {
		if ecs.Entity(p.Entity) == e {
			children = append(children, child)
		}
	})
	for _, child := range children {
		DestroyTree(w, child)
	}
	ecs.DestroyEntity(w, e)
}

func addName(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	name, ok := raw.(string)
	if !ok {
		return fmt.Errorf("name must be a string, got %T", raw)
	}
	return ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: name})
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	if spec.ScaleX == 0 {
		spec.ScaleX = 1
	}
	if spec.ScaleY == 0 {
		spec.ScaleY = 1
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		X:        spec.X,
		Y:        spec.Y,
		ScaleX:   spec.ScaleX,
		ScaleY:   spec.ScaleY,
		Rotation: spec.Rotation,
	})
}

type spriteSpec = prefabs.SpriteComponentSpec

func addSprite(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[spriteSpec](raw)
	if err != nil {
		return fmt.Errorf("decode sprite spec: %w", err)
	}

	var sprite component.Sprite
	if spec.Image != "" {
		img, err := render.LoadImage(spec.Image)
		if err != nil {
			return fmt.Errorf("load image %q: %w", spec.Image, err)
		}
		sprite.Image = img
		sprite.Key = spec.Image
	}

	sprite.OriginX = spec.OriginX
	sprite.OriginY = spec.OriginY
	if sprite.OriginX == 0 && sprite.OriginY == 0 && spec.CenterOriginIfZero && sprite.Image != nil {
		w, h := sprite.Image.Bounds().Dx(), sprite.Image.Bounds().Dy()
		sprite.OriginX = float64(w) / 2
		sprite.OriginY = float64(h) / 2
	}
	sprite.Tint = spec.Tint.Color

	return ecs.Add(w, e, component.SpriteComponent.Kind(), &sprite)
}

type shapeSpec = prefabs.ShapeComponentSpec

func addShape(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[shapeSpec](raw)
	if err != nil {
		return fmt.Errorf("decode shape spec: %w", err)
	}
	if spec.Kind == "" {
		spec.Kind = component.ShapeRect
	}
	switch spec.Kind {
	case component.ShapeRect:
		if spec.Width <= 0 || spec.Height <= 0 {
			return fmt.Errorf("rect needs a positive width and height")
		}
	case component.ShapePolygon, component.ShapeStar:
		if spec.Sides < 3 {
			return fmt.Errorf("%s needs at least 3 sides, got %d", spec.Kind, spec.Sides)
		}
		if spec.Radius <= 0 {
			return fmt.Errorf("%s needs a positive radius", spec.Kind)
		}
		if spec.Kind == component.ShapeStar && spec.InnerRadius <= 0 {
			spec.InnerRadius = spec.Radius / 2
		}
	default:
		return fmt.Errorf("unknown shape kind %q", spec.Kind)
	}
	return ecs.Add(w, e, component.ShapeComponent.Kind(), &component.Shape{
		Kind:        spec.Kind,
		Width:       spec.Width,
		Height:      spec.Height,
		Sides:       spec.Sides,
		Radius:      spec.Radius,
		InnerRadius: spec.InnerRadius,
		Color:       spec.Color.Or(color.White),
		Stroke:      spec.Stroke,
	})
}

type meshSpec = prefabs.MeshComponentSpec

func addMesh(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[meshSpec](raw)
	if err != nil {
		return fmt.Errorf("decode mesh spec: %w", err)
	}
	if _, ok := render.Primitive(spec.Primitive); !ok {
		return fmt.Errorf("unknown primitive %q, want one of %v", spec.Primitive, render.PrimitiveNames())
	}
	if spec.Size <= 0 {
		spec.Size = 32
	}
	return ecs.Add(w, e, component.Mesh3DComponent.Kind(), &component.Mesh3D{
		Primitive: spec.Primitive,
		Size:      spec.Size,
		Color:     spec.Color.Or(color.White),
		SpinX:     spec.Spin.X,
		SpinY:     spec.Spin.Y,
		SpinZ:     spec.Spin.Z,
		AngleX:    spec.Angle.X,
		AngleY:    spec.Angle.Y,
		AngleZ:    spec.Angle.Z,
	})
}

type materialSpec = prefabs.MaterialComponentSpec

func addMaterial(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[materialSpec](raw)
	if err != nil {
		return fmt.Errorf("decode material spec: %w", err)
	}
	if spec.Shader == "" {
		return fmt.Errorf("material needs a shader")
	}
	if spec.Intensity == 0 {
		spec.Intensity = 1
	}
	return ecs.Add(w, e, component.MaterialComponent.Kind(), &component.Material{
		Shader:    spec.Shader,
		Intensity: spec.Intensity,
	})
}

type renderLayerSpec = prefabs.RenderLayerComponentSpec

func addRenderLayer(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[renderLayerSpec](raw)
	if err != nil {
		return fmt.Errorf("decode render layer spec: %w", err)
	}
	return ecs.Add(w, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: spec.Index})
}

type draggableSpec = prefabs.DraggableComponentSpec

func addDraggable(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[draggableSpec](raw)
	if err != nil {
		return fmt.Errorf("decode draggable spec: %w", err)
	}
	if spec.ScaleFactor <= 0 {
		spec.ScaleFactor = 1
	}
	if spec.MinScale <= 0 {
		spec.MinScale = 0.05
	}
	return ecs.Add(w, e, component.DraggableComponent.Kind(), &component.Draggable{
		ScaleFactor: spec.ScaleFactor,
		MinScale:    spec.MinScale,
	})
}

type pickableSpec = prefabs.PickableComponentSpec

func addPickable(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[pickableSpec](raw)
	if err != nil {
		return fmt.Errorf("decode pickable spec: %w", err)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		p, ok := derivePickable(w, e)
		if !ok {
			return fmt.Errorf("pickable needs a size or a sprite, shape or mesh to measure")
		}
		return ecs.Add(w, e, component.PickableComponent.Kind(), p)
	}
	return ecs.Add(w, e, component.PickableComponent.Kind(), &component.Pickable{
		Width:   spec.Width,
		Height:  spec.Height,
		OriginX: spec.OriginX,
		OriginY: spec.OriginY,
	})
}

// derivePickable sizes a centered hit box from whatever the entity draws.
func derivePickable(w *ecs.World, e ecs.Entity) (*component.Pickable, bool) {
	box := func(width, height, ox, oy float64) (*component.Pickable, bool) {
		return &component.Pickable{Width: width, Height: height, OriginX: ox, OriginY: oy}, true
	}
	if s, ok := ecs.Get(w, e, component.SpriteComponent.Kind()); ok && s.Image != nil {
		b := s.Image.Bounds()
		return box(float64(b.Dx()), float64(b.Dy()), s.OriginX, s.OriginY)
	}
	if s, ok := ecs.Get(w, e, component.ShapeComponent.Kind()); ok {
		if s.Kind == component.ShapeRect {
			return box(s.Width, s.Height, s.Width/2, s.Height/2)
		}
		d := 2 * s.Radius
		return box(d, d, s.Radius, s.Radius)
	}
	if m, ok := ecs.Get(w, e, component.Mesh3DComponent.Kind()); ok {
		// A unit primitive spins within a sphere of radius sqrt(3).
		d := 2 * math.Sqrt(3) * m.Size
		return box(d, d, d/2, d/2)
	}
	return nil, false
}

type clockSpec = prefabs.ClockComponentSpec

func addClock(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[clockSpec](raw)
	if err != nil {
		return fmt.Errorf("decode clock spec: %w", err)
	}
	if spec.Seconds < 0 {
		return fmt.Errorf("clock seconds must not be negative, got %v", spec.Seconds)
	}
	return ecs.Add(w, e, component.MakeClockComponent.Kind(), &component.MakeClock{
		Seconds:    spec.Seconds,
		Width:      spec.Width,
		Height:     spec.Height,
		FontSize:   spec.FontSize,
		Color:      spec.Color.Color,
		Background: spec.Background.Color,
	})
}

type physicsBodySpec = prefabs.PhysicsBodyComponentSpec

func addPhysicsBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[physicsBodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode physics body spec: %w", err)
	}
	if spec.Radius <= 0 && (spec.Width <= 0 || spec.Height <= 0) {
		if p, ok := derivePickable(w, e); ok {
			spec.Width, spec.Height = p.Width, p.Height
		} else {
			spec.Width, spec.Height = 32, 32
		}
	}
	if spec.Mass <= 0 {
		spec.Mass = 1
	}

	return ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:      spec.Width,
		Height:     spec.Height,
		Radius:     spec.Radius,
		Mass:       spec.Mass,
		Friction:   spec.Friction,
		Elasticity: spec.Elasticity,
	})
}

func addClickEffect(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.ClickEffectTagComponent.Kind(), &component.ClickEffectTag{})
}

type particleEffectSpec = prefabs.ParticleEffectComponentSpec

func addParticleEffect(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[particleEffectSpec](raw)
	if err != nil {
		return fmt.Errorf("decode particle effect spec: %w", err)
	}
	if spec.Asset == "" {
		return fmt.Errorf("particle effect needs an asset")
	}
	if !ecs.Has(w, e, component.RenderLayerComponent.Kind()) {
		_ = ecs.Add(w, e, component.RenderLayerComponent.Kind(), &component.RenderLayer{Index: component.LayerParticles})
	}
	return ecs.Add(w, e, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{
		Asset:  spec.Asset,
		Active: spec.Active,
	})
}
