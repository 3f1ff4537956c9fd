package prefabs

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/overlay/particles"
)

func TestMergeComponents(t *testing.T) {
	base := map[string]any{
		"transform": map[string]any{"x": 1, "y": 2},
		"shape":     map[string]any{"kind": "rect", "width": 10},
		"draggable": map[string]any{},
	}
	over := map[string]any{
		"transform": map[string]any{"x": 5},
		"shape":     "none",
		"clock":     map[string]any{"seconds": 30},
	}
	got := MergeComponents(base, over)

	assert.Equal(t, map[string]any{"x": 5, "y": 2}, got["transform"])
	assert.Equal(t, "none", got["shape"])
	assert.Equal(t, map[string]any{"seconds": 30}, got["clock"])
	assert.Equal(t, map[string]any{}, got["draggable"])
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, base["transform"], "base is not modified")
}

func TestYAMLColor(t *testing.T) {
	var v struct {
		A YAMLColor `yaml:"a"`
		B YAMLColor `yaml:"b"`
		C YAMLColor `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: \"#ff8000\"\nb: \"00000080\"\n"), &v))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x80, A: 0xff}, v.A.Color)
	assert.Equal(t, color.NRGBA{A: 0x80}, v.B.Color)
	assert.Nil(t, v.C.Color)
	assert.Equal(t, color.White, v.C.Or(color.White))
	assert.Equal(t, v.A.Color, v.A.Or(color.White))

	out, err := yaml.Marshal(map[string]YAMLColor{"a": v.A})
	require.NoError(t, err)
	assert.Contains(t, string(out), "#ff8000ff")

	for _, bad := range []string{"a: \"#fff\"", "a: \"#gg0000\"", "a: [1, 2]"} {
		assert.Error(t, yaml.Unmarshal([]byte(bad), &v), bad)
	}
}

func TestEmbeddedSceneResolves(t *testing.T) {
	scene, err := LoadSceneSpec("scene.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, scene.Entities)

	for _, ent := range scene.Entities {
		spec, err := ent.Resolve()
		require.NoError(t, err, ent.Prefab)
		assert.Equal(t, ent.Prefab, spec.Prefab)
		assert.NotEmpty(t, spec.Components, ent.Prefab)
	}

	clock, err := scene.Entities[0].Resolve()
	require.NoError(t, err)
	tr, err := DecodeComponentSpec[TransformComponentSpec](clock.Components["transform"])
	require.NoError(t, err)
	assert.Equal(t, TransformComponentSpec{X: 160, Y: 60, ScaleX: 1, ScaleY: 1}, tr)
}

func TestLoadSceneSpecRequiresPrefab(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("entities:\n  - components: {}\n"), 0o644))
	prev := Dir()
	SetDir(dir)
	t.Cleanup(func() { SetDir(prev) })

	_, err := LoadSceneSpec("bad.yaml")
	assert.ErrorContains(t, err, "has no prefab")
}

func TestListMergesDiskAndEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "effects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "effects", "confetti.yaml"), []byte("name: confetti\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "effects", "notes.txt"), nil, 0o644))
	prev := Dir()
	SetDir(dir)
	t.Cleanup(func() { SetDir(prev) })

	assert.Equal(t, []string{
		"effects/click_effect.yaml",
		"effects/confetti.yaml",
		"effects/rocket.yaml",
		"effects/sparkle_trail.yaml",
		"effects/trails.yaml",
	}, List("effects", ".yaml"))
	assert.Contains(t, List("", ".yaml"), "scene.yaml")
	assert.Equal(t, []string{"scripts/reactions.tengo"}, List("scripts", ".tengo"))
}

func TestLoadPrefersDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "reactions.tengo"), []byte("// local"), 0o644))
	prev := Dir()
	SetDir(dir)
	t.Cleanup(func() { SetDir(prev) })

	for _, name := range []string{"reactions.tengo", "scripts/reactions.tengo", "prefabs/scripts/reactions.tengo"} {
		data, err := LoadScript(name)
		require.NoError(t, err, name)
		assert.Equal(t, "// local", string(data), name)
	}

	data, err := LoadShader("glow")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestLoadEffects(t *testing.T) {
	lib := particles.NewLibrary()
	require.NoError(t, LoadEffects(lib))
	assert.Equal(t, []string{"click_effect", "rocket", "sparkle_trail", "trails"}, lib.Names())

	assert.Error(t, LoadEffectInto(lib, "effects/none.yaml"))
}

func TestLoadEffectsKeepsGoingPastBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "effects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "effects", "broken.yaml"), []byte("capacity: [\n"), 0o644))
	prev := Dir()
	SetDir(dir)
	t.Cleanup(func() { SetDir(prev) })

	lib := particles.NewLibrary()
	err := LoadEffects(lib)
	assert.ErrorContains(t, err, "broken")
	assert.Len(t, lib.Names(), 4)
}

func TestClassify(t *testing.T) {
	w := &Watcher{root: filepath.FromSlash("/tmp/prefabs")}
	cases := []struct {
		path string
		kind ChangeKind
		name string
	}{
		{"/tmp/prefabs/star.yaml", ChangePrefab, "star.yaml"},
		{"/tmp/prefabs/scene.yml", ChangePrefab, "scene.yml"},
		{"/tmp/prefabs/effects/rocket.yaml", ChangeEffect, "effects/rocket.yaml"},
		{"/tmp/prefabs/scripts/reactions.tengo", ChangeScript, "scripts/reactions.tengo"},
		{"/tmp/prefabs/shaders/glow.kage", ChangeShader, "shaders/glow.kage"},
	}
	for _, c := range cases {
		got, ok := w.classify(filepath.FromSlash(c.path))
		require.True(t, ok, c.path)
		assert.Equal(t, c.kind, got.Kind, c.path)
		assert.Equal(t, c.name, got.Name, c.path)
	}

	_, ok := w.classify(filepath.FromSlash("/tmp/prefabs/heart.png"))
	assert.False(t, ok)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "star.yaml"), []byte("name: star\n"), 0o644))

	select {
	case change := <-w.Events:
		assert.Equal(t, "star.yaml", change.Name)
		assert.Equal(t, ChangePrefab, change.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, w.Close())
	for range w.Events {
	}
}

func TestWatcherReportsBurstOnceAfterLastWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	path := filepath.Join(dir, "star.yaml")
	var lastWrite time.Time
	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte("name: star\nz: "+string(rune('0'+i))+"\n"), 0o644))
		lastWrite = time.Now()
		time.Sleep(debounce / 5)
	}

	select {
	case change := <-w.Events:
		assert.Equal(t, "star.yaml", change.Name)
		assert.GreaterOrEqual(t, time.Since(lastWrite), debounce, "change waits for the file to go quiet")
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case change := <-w.Events:
		t.Fatalf("burst reported twice: %+v", change)
	case <-time.After(3 * debounce):
	}
}
