package entity

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/prefabs"
)

// usePrefabDir points prefab loading at a temp dir holding files.
func usePrefabDir(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	prev := prefabs.Dir()
	prefabs.SetDir(dir)
	t.Cleanup(func() { prefabs.SetDir(prev) })
}

const testBox = `
name: box
components:
  transform:
    x: 1
    y: 2
  shape:
    kind: rect
    width: 30
    height: 10
    color: "#ff0000"
  draggable: {}
`

const testGem = `
name: gem
components:
  transform: {}
  mesh:
    primitive: octahedron
    size: 10
  draggable:
    scale_factor: 0.2
`

const testScene = `
name: test
entities:
  - prefab: box.yaml
    components:
      transform:
        x: 100
  - prefab: gem.yaml
    components:
      transform:
        x: 200
        y: 50
`

func TestBuildSpecShapeAndDerivedPickable(t *testing.T) {
	w := ecs.NewWorld()
	e, err := BuildSpec(w, prefabs.EntityBuildSpec{
		Name: "box",
		Components: map[string]any{
			"transform": map[string]any{"x": 5.0, "y": 6.0},
			"shape":     map[string]any{"kind": "rect", "width": 30.0, "height": 10.0},
			"draggable": map[string]any{},
		},
	})
	require.NoError(t, err)

	name, ok := ecs.Get(w, e, component.NameComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, "box", name.Value)

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.Equal(t, component.Transform{X: 5, Y: 6, ScaleX: 1, ScaleY: 1}, *tr)

	drag, _ := ecs.Get(w, e, component.DraggableComponent.Kind())
	assert.Equal(t, component.Draggable{ScaleFactor: 1, MinScale: 0.05}, *drag)

	p, ok := ecs.Get(w, e, component.PickableComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, component.Pickable{Width: 30, Height: 10, OriginX: 15, OriginY: 5}, *p)
	assert.False(t, ecs.Has(w, e, component.DecorationTagComponent.Kind()))
}

func TestBuildSpecStarDefaults(t *testing.T) {
	w := ecs.NewWorld()
	e, err := BuildSpec(w, prefabs.EntityBuildSpec{
		Name: "star",
		Components: map[string]any{
			"transform": map[string]any{},
			"shape":     map[string]any{"kind": "star", "sides": 5, "radius": 40.0},
			"pickable":  map[string]any{},
		},
	})
	require.NoError(t, err)

	s, _ := ecs.Get(w, e, component.ShapeComponent.Kind())
	assert.Equal(t, 20.0, s.InnerRadius)
	assert.NotNil(t, s.Color)

	p, _ := ecs.Get(w, e, component.PickableComponent.Kind())
	assert.Equal(t, component.Pickable{Width: 80, Height: 80, OriginX: 40, OriginY: 40}, *p)
}

func TestBuildSpecMeshPickable(t *testing.T) {
	w := ecs.NewWorld()
	e, err := BuildSpec(w, prefabs.EntityBuildSpec{
		Name: "cube",
		Components: map[string]any{
			"transform": map[string]any{},
			"mesh":      map[string]any{"primitive": "cube", "spin": map[string]any{"y": 1.5}},
			"draggable": map[string]any{},
		},
	})
	require.NoError(t, err)

	m, _ := ecs.Get(w, e, component.Mesh3DComponent.Kind())
	assert.Equal(t, 32.0, m.Size)
	assert.Equal(t, 1.5, m.SpinY)

	p, _ := ecs.Get(w, e, component.PickableComponent.Kind())
	d := 2 * math.Sqrt(3) * 32
	assert.InDelta(t, d, p.Width, 1e-9)
	assert.InDelta(t, d/2, p.OriginX, 1e-9)
}

func TestBuildSpecErrors(t *testing.T) {
	cases := []struct {
		name       string
		components map[string]any
		want       string
	}{
		{"empty", nil, "does not define components"},
		{"unknown component", map[string]any{"laser": map[string]any{}}, `no builder for component "laser"`},
		{"bad shape", map[string]any{"shape": map[string]any{"kind": "blob"}}, `unknown shape kind "blob"`},
		{"few sides", map[string]any{"shape": map[string]any{"kind": "polygon", "sides": 2, "radius": 5.0}}, "at least 3 sides"},
		{"bad mesh", map[string]any{"mesh": map[string]any{"primitive": "teapot"}}, `unknown primitive "teapot"`},
		{"material without shader", map[string]any{"material": map[string]any{}}, "needs a shader"},
		{"effect without asset", map[string]any{"particle_effect": map[string]any{}}, "needs an asset"},
		{"negative clock", map[string]any{"clock": map[string]any{"seconds": -1.0}}, "must not be negative"},
		{"unsized pickable", map[string]any{"transform": map[string]any{}, "pickable": map[string]any{}}, "pickable needs a size"},
		{"name type", map[string]any{"name": 3}, "name must be a string"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			_, err := BuildSpec(w, prefabs.EntityBuildSpec{Name: c.name, Components: c.components})
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
			assert.Empty(t, w.Query(component.TransformComponent.Kind()), "failed builds leave nothing behind")
		})
	}
}

func TestBuildSpecParticleEffectLayer(t *testing.T) {
	w := ecs.NewWorld()
	e, err := BuildSpec(w, prefabs.EntityBuildSpec{
		Name: "sparkles",
		Components: map[string]any{
			"transform":       map[string]any{},
			"particle_effect": map[string]any{"asset": "click_effect", "active": true},
		},
	})
	require.NoError(t, err)
	layer, _ := ecs.Get(w, e, component.RenderLayerComponent.Kind())
	assert.Equal(t, component.LayerParticles, layer.Index)
	pe, _ := ecs.Get(w, e, component.ParticleEffectComponent.Kind())
	assert.True(t, pe.Active)
}

func TestBuildEntityTagsPrefab(t *testing.T) {
	usePrefabDir(t, map[string]string{"box.yaml": testBox})
	w := ecs.NewWorld()
	e, err := BuildEntity(w, "box.yaml")
	require.NoError(t, err)

	tag, ok := ecs.Get(w, e, component.DecorationTagComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, "box.yaml", tag.Prefab)

	_, err = BuildEntity(w, "missing.yaml")
	assert.Error(t, err)
}

func TestBuildSceneAppliesOverridesAndPatches(t *testing.T) {
	usePrefabDir(t, map[string]string{
		"box.yaml":   testBox,
		"gem.yaml":   testGem,
		"scene.yaml": testScene,
	})
	patch := func(spec prefabs.EntityBuildSpec) map[string]any {
		if spec.Name != "gem" {
			return nil
		}
		return map[string]any{"mesh": map[string]any{"size": 20.0}}
	}

	w := ecs.NewWorld()
	built, err := BuildScene(w, "scene.yaml", patch)
	require.NoError(t, err)
	require.Len(t, built, 2)

	box, gem := built[0], built[1]
	tr, _ := ecs.Get(w, box, component.TransformComponent.Kind())
	assert.Equal(t, 100.0, tr.X)
	assert.Equal(t, 2.0, tr.Y, "fields not overridden keep the prefab value")

	m, _ := ecs.Get(w, gem, component.Mesh3DComponent.Kind())
	assert.Equal(t, 20.0, m.Size)
	assert.Equal(t, component.MeshOctahedron, m.Primitive)

	tag, _ := ecs.Get(w, gem, component.DecorationTagComponent.Kind())
	assert.Equal(t, "gem.yaml", tag.Prefab)
	assert.Contains(t, tag.Overrides, "mesh")
	assert.Contains(t, tag.Overrides, "transform")
}

func TestBuildSceneReportsFailures(t *testing.T) {
	usePrefabDir(t, map[string]string{
		"box.yaml": testBox,
		"scene.yaml": `
entities:
  - prefab: box.yaml
  - prefab: nowhere.yaml
`,
	})
	w := ecs.NewWorld()
	built, err := BuildScene(w, "scene.yaml")
	assert.Len(t, built, 1)
	assert.ErrorContains(t, err, "1 entities failed")
}

func TestRebuildKeepsPlacementAndOverrides(t *testing.T) {
	usePrefabDir(t, map[string]string{
		"box.yaml":   testBox,
		"gem.yaml":   testGem,
		"scene.yaml": testScene,
	})
	w := ecs.NewWorld()
	built, err := BuildScene(w, "scene.yaml")
	require.NoError(t, err)
	box := built[0]

	tr, _ := ecs.Get(w, box, component.TransformComponent.Kind())
	tr.X, tr.Y, tr.ScaleX, tr.ScaleY = 300, 400, 2, 2

	child := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, child, component.ParentComponent.Kind(), &component.Parent{Entity: uint64(box)}))

	// Edit the prefab on disk, then rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(prefabs.Dir(), "box.yaml"), []byte(`
name: box
components:
  transform: {}
  shape:
    kind: rect
    width: 50
    height: 50
  draggable: {}
`), 0o644))

	next, err := Rebuild(w, box)
	require.NoError(t, err)
	assert.NotEqual(t, box, next)
	assert.False(t, w.IsAlive(box))
	assert.False(t, w.IsAlive(child))

	nt, _ := ecs.Get(w, next, component.TransformComponent.Kind())
	assert.Equal(t, component.Transform{X: 300, Y: 400, ScaleX: 2, ScaleY: 2}, *nt)
	s, _ := ecs.Get(w, next, component.ShapeComponent.Kind())
	assert.Equal(t, 50.0, s.Width)

	tag, _ := ecs.Get(w, next, component.DecorationTagComponent.Kind())
	assert.Contains(t, tag.Overrides, "transform")
}

func TestRebuildKeepsOldEntityOnError(t *testing.T) {
	usePrefabDir(t, map[string]string{"box.yaml": testBox})
	w := ecs.NewWorld()
	e, err := BuildEntity(w, "box.yaml")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(prefabs.Dir(), "box.yaml"), []byte("components:\n  shape: {kind: blob}\n"), 0o644))
	got, err := Rebuild(w, e)
	assert.Error(t, err)
	assert.Equal(t, e, got)
	assert.True(t, w.IsAlive(e))

	plain := ecs.CreateEntity(w)
	_, err = Rebuild(w, plain)
	assert.ErrorContains(t, err, "not a decoration")
}

func TestComponentNames(t *testing.T) {
	names := ComponentNames()
	assert.Len(t, names, len(componentBuildOrder))
	assert.Contains(t, names, "clock")
	assert.IsIncreasing(t, names)
}
