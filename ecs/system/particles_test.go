package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/particles"
	"github.com/milk9111/overlay/prefabs"
)

func bundledEffects(t *testing.T) *particles.Library {
	t.Helper()
	lib := particles.NewLibrary()
	require.NoError(t, prefabs.LoadEffects(lib))
	return lib
}

func TestClickEffectBurstsUnderCursor(t *testing.T) {
	script := &scriptedInput{frames: []component.Input{
		{X: 50, Y: 60, Left: true, LeftPressed: true},
		{X: 50, Y: 60, Left: true},
	}}
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	w.AddSystem(NewInputSystem(script.read))
	w.AddSystem(NewClickEffectSystem())
	w.AddSystem(NewParticleSystem(bundledEffects(t), 1))

	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{}))
	require.NoError(t, ecs.Add(w, e, component.ClickEffectTagComponent.Kind(), &component.ClickEffectTag{}))
	require.NoError(t, ecs.Add(w, e, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{Asset: "click_effect"}))

	pe, _ := ecs.Get(w, e, component.ParticleEffectComponent.Kind())
	require.NotNil(t, pe.Emitter)
	assert.False(t, pe.Emitter.Active())

	w.Update()
	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.Equal(t, 50.0, tr.X)
	assert.Equal(t, 60.0, tr.Y)
	assert.Equal(t, particles.Vec2{X: 50, Y: 60}, pe.Emitter.Origin())
	assert.Equal(t, 32, pe.Emitter.AliveCount())

	w.Update()
	assert.Equal(t, 32, pe.Emitter.AliveCount(), "one burst per press")
}

func TestClickBurstEvent(t *testing.T) {
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	w.AddSystem(NewClickEffectSystem())
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{}))
	require.NoError(t, ecs.Add(w, e, component.ClickEffectTagComponent.Kind(), &component.ClickEffectTag{}))
	require.NoError(t, ecs.Add(w, e, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{Asset: "click_effect"}))

	w.Events().Push(ecs.Event{Type: component.EventClickBurst, Data: component.ClickBurst{X: 10, Y: 20}})
	w.Events().Push(ecs.Event{Type: component.EventClickBurst, Data: component.ClickBurst{X: 30, Y: 40}})
	w.Update()

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	assert.Equal(t, 30.0, tr.X)
	assert.Equal(t, 40.0, tr.Y)
}

func TestFireworksEmittersAreLinked(t *testing.T) {
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	w.AddSystem(NewExpireSystem())
	w.AddSystem(NewFireworksSystem())
	w.AddSystem(NewParticleSystem(bundledEffects(t), 1))

	rocket := CreateFireworks(w, 2)
	w.Update()

	pe, _ := ecs.Get(w, rocket, component.ParticleEffectComponent.Kind())
	require.NotNil(t, pe.Emitter)
	assert.True(t, pe.Emitter.Active())
	assert.NotNil(t, pe.Emitter.Child(0))
	assert.NotNil(t, pe.Emitter.Child(1))

	for i := 0; i < 2*60+1; i++ {
		w.Update()
	}
	assert.False(t, pe.Emitter.Active(), "rocket stops when its time runs out")

	CreateFireworks(w, 1)
	assert.True(t, pe.Emitter.Active())
}

func TestMissingEffectLeavesEntityWithoutEmitter(t *testing.T) {
	w := ecs.NewWorld()
	w.AddSystem(NewParticleSystem(particles.NewLibrary(), 1))
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{Asset: "nope"}))
	w.Update()

	pe, _ := ecs.Get(w, e, component.ParticleEffectComponent.Kind())
	assert.Nil(t, pe.Emitter)
}

func TestIdleEmitterIsSkippedUntilActivated(t *testing.T) {
	w := ecs.NewWorld()
	w.SetDelta(time.Second / 60)
	w.AddSystem(NewParticleSystem(bundledEffects(t), 1))

	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: 5, Y: 6}))
	require.NoError(t, ecs.Add(w, e, component.ParticleEffectComponent.Kind(), &component.ParticleEffect{Asset: "click_effect"}))
	pe, _ := ecs.Get(w, e, component.ParticleEffectComponent.Kind())
	require.NotNil(t, pe.Emitter)

	w.Update()
	assert.True(t, pe.Emitter.Idle())
	assert.Zero(t, pe.Emitter.AliveCount())
	assert.Equal(t, particles.Vec2{X: 5, Y: 6}, pe.Emitter.Origin(), "idle emitters still follow their entity")

	pe.Emitter.Activate()
	w.Update()
	assert.False(t, pe.Emitter.Idle())
	assert.Equal(t, 32, pe.Emitter.AliveCount())
}
