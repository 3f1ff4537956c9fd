package ecs

import (
	"testing"

	"github.com/milk9111/overlay/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poke struct {
	N int
}

func TestOnAddRunsOnlyForNewComponents(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()

	var added []Entity
	OnAdd(w, k, func(_ *World, e Entity) { added = append(added, e) })

	e := CreateEntity(w)
	require.NoError(t, Add(w, e, k, intPtr(1)))
	require.NoError(t, Add(w, e, k, intPtr(2)))
	assert.Equal(t, []Entity{e}, added)

	require.True(t, Remove(w, e, k))
	require.NoError(t, Add(w, e, k, intPtr(3)))
	assert.Len(t, added, 2)
}

func TestOnAddHookMayRemoveTheMarker(t *testing.T) {
	w := NewWorld()
	marker := component.NewComponentKind[struct{}]()
	result := component.NewComponentKind[string]()

	OnAdd(w, marker, func(w *World, e Entity) {
		_ = Add(w, e, result, stringPtr("built"))
		Remove(w, e, marker)
	})

	e := CreateEntity(w)
	require.NoError(t, Add(w, e, marker, &struct{}{}))

	assert.False(t, Has(w, e, marker))
	v, ok := Get(w, e, result)
	require.True(t, ok)
	assert.Equal(t, "built", *v)
}

func TestFireTargetsEntityThenGlobal(t *testing.T) {
	w := NewWorld()
	a := CreateEntity(w)
	b := CreateEntity(w)

	var order []string
	Observe(w, a, func(_ *World, tr Trigger[poke]) {
		order = append(order, "a")
		assert.Equal(t, a, tr.Target)
		assert.Equal(t, 3, tr.Event.N)
	})
	Observe(w, Global, func(_ *World, tr Trigger[poke]) {
		order = append(order, "global:"+tr.Target.String())
	})

	n := Fire(w, a, poke{N: 3})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "global:" + a.String()}, order)

	order = nil
	Fire(w, b, poke{N: 3})
	assert.Equal(t, []string{"global:" + b.String()}, order)
}

func TestFireIgnoresOtherEventTypes(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	called := false
	Observe(w, e, func(*World, Trigger[poke]) { called = true })

	assert.Zero(t, Fire(w, e, "not a poke"))
	assert.False(t, called)
}

func TestDestroyDropsObservers(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	calls := 0
	Observe(w, e, func(*World, Trigger[poke]) { calls++ })

	require.True(t, DestroyEntity(w, e))
	assert.Zero(t, Fire(w, e, poke{}))

	recycled := CreateEntity(w)
	assert.Zero(t, Fire(w, recycled, poke{}))
	assert.Zero(t, calls)
}

func TestObserverRegisteredDuringFireRunsNextTime(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	calls := 0
	Observe(w, e, func(w *World, _ Trigger[poke]) {
		calls++
		Observe(w, e, func(*World, Trigger[poke]) { calls += 10 })
	})

	Fire(w, e, poke{})
	assert.Equal(t, 1, calls)
	Fire(w, e, poke{})
	assert.Equal(t, 12, calls)
}
