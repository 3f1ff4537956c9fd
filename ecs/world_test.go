package ecs

import (
	"testing"
	"time"

	"github.com/milk9111/overlay/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func toSet(ents []Entity) map[Entity]struct{} {
	m := make(map[Entity]struct{}, len(ents))
	for _, e := range ents {
		m[e] = struct{}{}
	}
	return m
}

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_destroy_middle", 3, 1},
		{"none_destroyed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				e := CreateEntity(w)
				require.True(t, e.Valid())
				ents = append(ents, e)
			}
			require.Len(t, Entities(w), c.create)

			if c.destroyIndex < 0 {
				return
			}
			assert.True(t, DestroyEntity(w, ents[c.destroyIndex]))
			assert.False(t, IsAlive(w, ents[c.destroyIndex]))
			assert.False(t, DestroyEntity(w, ents[c.destroyIndex]), "double destroy")
			assert.Len(t, Entities(w), c.create-1)
		})
	}
}

func TestRecycledIDGetsNewGeneration(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()

	old := CreateEntity(w)
	require.NoError(t, Add(w, old, k, intPtr(7)))
	require.True(t, DestroyEntity(w, old))

	fresh := CreateEntity(w)
	assert.Equal(t, old.id(), fresh.id())
	assert.NotEqual(t, old.generation(), fresh.generation())
	assert.False(t, IsAlive(w, old))

	_, ok := Get(w, fresh, k)
	assert.False(t, ok, "recycled slot must not inherit components")
	_, ok = Get(w, old, k)
	assert.False(t, ok, "stale handle must not resolve")
}

func TestComponents(t *testing.T) {
	w := NewWorld()
	ki := component.NewComponent[int]().Kind()
	ks := component.NewComponent[string]().Kind()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int",
			setup: func() error { return Add(w, e1, ki, intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, ki)
				require.True(t, ok)
				assert.Equal(t, 10, *v)
			},
			teardown: func() bool { return Remove(w, e1, ki) },
		},
		{
			name: "add_string_to_both",
			setup: func() error {
				if err := Add(w, e1, ks, stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, ks, stringPtr("b"))
			},
			check: func(t *testing.T) {
				assert.True(t, Has(w, e1, ks))
				assert.True(t, Has(w, e2, ks))
				assert.False(t, Has(w, e2, ki))
			},
			teardown: func() bool { return Remove(w, e1, ks) && Remove(w, e2, ks) },
		},
		{
			name: "replace_keeps_single_entry",
			setup: func() error {
				if err := Add(w, e2, ki, intPtr(1)); err != nil {
					return err
				}
				return Add(w, e2, ki, intPtr(2))
			},
			check: func(t *testing.T) {
				v, ok := Get(w, e2, ki)
				require.True(t, ok)
				assert.Equal(t, 2, *v)
				assert.Equal(t, []Entity{e2}, w.Query(ki))
			},
			teardown: func() bool { return Remove(w, e2, ki) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.setup())
			tc.check(t)
			assert.True(t, tc.teardown())
		})
	}
	live := 0
	for _, s := range w.stores {
		live += s.len()
	}
	assert.Zero(t, live, "teardown leaves no components behind")
}

func TestAddErrors(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()
	e := CreateEntity(w)

	assert.ErrorIs(t, Add(w, e, k, nil), component.ErrNilComponent)
	assert.ErrorIs(t, Add(w, e, component.ComponentKind[int]{}, intPtr(1)), component.ErrInvalidComponentKind)

	DestroyEntity(w, e)
	err := Add(w, e, k, intPtr(1))
	assert.ErrorIs(t, err, component.ErrEntityNotAlive)
	assert.Contains(t, err.Error(), "add int")
}

func TestComponentKindName(t *testing.T) {
	assert.Equal(t, "Clock", component.ClockComponent.Kind().Name())
	assert.Equal(t, "int", component.NewComponentKind[int]().Name())
	assert.Empty(t, component.ComponentKind[int]{}.Name())
}

func TestForEach(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)
	e3 := CreateEntity(w)
	require.NoError(t, Add(w, e1, k, intPtr(1)))
	require.NoError(t, Add(w, e3, k, intPtr(3)))

	var ents []Entity
	ForEach(w, k, func(e Entity, _ *int) { ents = append(ents, e) })
	set := toSet(ents)

	assert.Contains(t, set, e1)
	assert.Contains(t, set, e3)
	assert.NotContains(t, set, e2)
}

func TestForEachAllowsDestroyDuringIteration(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()
	for i := 0; i < 5; i++ {
		require.NoError(t, Add(w, CreateEntity(w), k, intPtr(i)))
	}

	visited := 0
	ForEach(w, k, func(e Entity, v *int) {
		visited++
		if *v%2 == 0 {
			DestroyEntity(w, e)
		}
	})
	assert.Equal(t, 5, visited)
	assert.Len(t, w.Query(k), 2)
}

func TestForEachN(t *testing.T) {
	w := NewWorld()
	ka := component.NewComponentKind[int]()
	kb := component.NewComponentKind[int]()
	kc := component.NewComponentKind[int]()
	kd := component.NewComponentKind[int]()

	all := CreateEntity(w)
	onlyA := CreateEntity(w)
	abc := CreateEntity(w)
	dead := CreateEntity(w)

	for _, e := range []Entity{all, abc, dead} {
		require.NoError(t, Add(w, e, ka, intPtr(1)))
		require.NoError(t, Add(w, e, kb, intPtr(2)))
		require.NoError(t, Add(w, e, kc, intPtr(3)))
	}
	require.NoError(t, Add(w, all, kd, intPtr(4)))
	require.NoError(t, Add(w, dead, kd, intPtr(4)))
	require.NoError(t, Add(w, onlyA, ka, intPtr(1)))
	require.True(t, DestroyEntity(w, dead))

	var two, three, four []Entity
	ForEach2(w, ka, kb, func(e Entity, _, _ *int) { two = append(two, e) })
	ForEach3(w, ka, kb, kc, func(e Entity, _, _, _ *int) { three = append(three, e) })
	ForEach4(w, ka, kb, kc, kd, func(e Entity, _, _, _, _ *int) { four = append(four, e) })

	assert.ElementsMatch(t, []Entity{all, abc}, two)
	assert.ElementsMatch(t, []Entity{all, abc}, three)
	assert.Equal(t, []Entity{all}, four)

	missing := component.NewComponentKind[int]()
	var none []Entity
	ForEach3(w, ka, kb, missing, func(e Entity, _, _, _ *int) { none = append(none, e) })
	assert.Empty(t, none)
}

func TestQueryAndFirst(t *testing.T) {
	w := NewWorld()
	ki := component.NewComponentKind[int]()
	ks := component.NewComponentKind[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)
	e3 := CreateEntity(w)
	require.NoError(t, Add(w, e3, ki, intPtr(3)))
	require.NoError(t, Add(w, e3, ks, stringPtr("c")))
	require.NoError(t, Add(w, e1, ki, intPtr(1)))
	require.NoError(t, Add(w, e1, ks, stringPtr("a")))
	require.NoError(t, Add(w, e2, ki, intPtr(2)))

	assert.Equal(t, []Entity{e1, e3}, w.Query(ki, ks))
	assert.Equal(t, []Entity{e1, e2, e3}, w.Query(ki))

	first, ok := w.First(ks)
	require.True(t, ok)
	assert.Equal(t, e1, first)

	_, ok = w.First(component.NewComponentKind[float64]())
	assert.False(t, ok)
}

type countingSystem struct {
	calls int
	seen  int
}

func (s *countingSystem) Update(w *World) {
	s.calls++
	s.seen += len(w.Events().Read("ping"))
}

type pushingSystem struct{}

func (pushingSystem) Update(w *World) {
	w.Events().Push(Event{Type: "ping"})
}

func TestUpdateRunsSystemsAndFlushesEvents(t *testing.T) {
	w := NewWorld()
	w.SetDelta(20 * time.Millisecond)
	counter := &countingSystem{}
	w.AddSystem(pushingSystem{})
	w.AddSystem(counter)
	w.AddSystem(nil)

	w.Update()
	w.Update()

	assert.Equal(t, 2, counter.calls)
	assert.Equal(t, 2, counter.seen, "events are visible to later systems in the same frame")
	assert.Zero(t, w.Events().Len())
	assert.Equal(t, 40*time.Millisecond, w.Elapsed())
	assert.Equal(t, uint64(2), w.Frame())
	assert.Len(t, w.Systems(), 2)
}

type attachingSystem struct {
	attached *World
}

func (s *attachingSystem) Attach(w *World) { s.attached = w }

func (s *attachingSystem) Update(*World) {}

func TestAddSystemAttaches(t *testing.T) {
	w := NewWorld()
	s := &attachingSystem{}
	w.AddSystem(s)
	assert.Same(t, w, s.attached)
}
