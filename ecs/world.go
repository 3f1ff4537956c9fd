package ecs

import (
	"reflect"
	"time"

	"github.com/milk9111/overlay/ecs/component"
)

// World owns entities, component stores, observers and system order.
type World struct {
	entities  entityStore
	stores    map[component.ComponentID]store
	scheduler *Scheduler
	events    EventQueue

	addHooks  map[component.ComponentID][]func(w *World, e Entity)
	observers map[Entity]map[reflect.Type][]any

	delta   time.Duration
	elapsed time.Duration
	frame   uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores:    make(map[component.ComponentID]store),
		scheduler: NewScheduler(),
		addHooks:  make(map[component.ComponentID][]func(w *World, e Entity)),
		observers: make(map[Entity]map[reflect.Type][]any),
		delta:     time.Second / 60,
	}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	if w == nil {
		return 0
	}
	return w.entities.create()
}

// DestroyEntity removes every component and observer of e. It returns false
// when e was already dead.
func DestroyEntity(w *World, e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	id := e.id()
	for _, s := range w.stores {
		s.remove(id)
	}
	delete(w.observers, e)
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func IsAlive(w *World, e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity in id order.
func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	out := make([]Entity, 0, w.entities.count)
	w.entities.each(func(e Entity) { out = append(out, e) })
	return out
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return IsAlive(w, e)
}

// AddSystem appends a system to the update order. Systems implementing
// Attacher are attached first.
func (w *World) AddSystem(s System) {
	if w == nil || s == nil {
		return
	}
	if a, ok := s.(Attacher); ok {
		a.Attach(w)
	}
	w.scheduler.Add(s)
}

// Systems returns the registered systems in update order.
func (w *World) Systems() []System {
	if w == nil {
		return nil
	}
	return w.scheduler.Systems()
}

// Update advances the clock by the current delta, runs all systems once and
// then flushes the frame's events.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.frame++
	w.elapsed += w.delta
	w.scheduler.Update(w)
	w.events.flush()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// SetDelta sets the simulated time step used by the next Update.
func (w *World) SetDelta(d time.Duration) {
	if w == nil || d < 0 {
		return
	}
	w.delta = d
}

// Delta returns the time step of the current frame.
func (w *World) Delta() time.Duration {
	if w == nil {
		return 0
	}
	return w.delta
}

// Elapsed returns the total simulated time.
func (w *World) Elapsed() time.Duration {
	if w == nil {
		return 0
	}
	return w.elapsed
}

// Frame returns the number of completed updates.
func (w *World) Frame() uint64 {
	if w == nil {
		return 0
	}
	return w.frame
}

