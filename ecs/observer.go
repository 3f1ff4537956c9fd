package ecs

import (
	"reflect"

	"github.com/milk9111/overlay/ecs/component"
)

// Global targets observers that are not bound to a specific entity.
const Global Entity = 0

// Trigger carries an event fired at an entity.
type Trigger[E any] struct {
	Target Entity
	Event  E
}

// OnAdd registers fn to run whenever a component of kind is added to an
// entity that did not have one.
func OnAdd[T any](w *World, kind component.ComponentKind[T], fn func(w *World, e Entity)) {
	if w == nil || fn == nil || !kind.Valid() {
		return
	}
	w.addHooks[kind.ID()] = append(w.addHooks[kind.ID()], fn)
}

func (w *World) runAddHooks(id component.ComponentID, e Entity) {
	hooks := w.addHooks[id]
	for _, fn := range hooks {
		if !w.entities.isAlive(e) {
			return
		}
		fn(w, e)
	}
}

// Observe attaches a handler for events of type E fired at e. Passing Global
// registers a handler that sees the event regardless of target.
func Observe[E any](w *World, e Entity, fn func(w *World, t Trigger[E])) {
	if w == nil || fn == nil {
		return
	}
	if e != Global && !w.entities.isAlive(e) {
		return
	}
	typ := reflect.TypeFor[E]()
	byType, ok := w.observers[e]
	if !ok {
		byType = make(map[reflect.Type][]any)
		w.observers[e] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Fire invokes the handlers registered for target and then the global ones,
// each in registration order. It returns the number of handlers invoked.
func Fire[E any](w *World, target Entity, event E) int {
	if w == nil {
		return 0
	}
	typ := reflect.TypeFor[E]()
	t := Trigger[E]{Target: target, Event: event}

	n := 0
	if target != Global {
		if !w.entities.isAlive(target) {
			return 0
		}
		n += invoke(w, t, w.observers[target][typ])
	}
	n += invoke(w, t, w.observers[Global][typ])
	return n
}

func invoke[E any](w *World, t Trigger[E], handlers []any) int {
	if len(handlers) == 0 {
		return 0
	}
	snapshot := append([]any(nil), handlers...)
	for _, h := range snapshot {
		h.(func(*World, Trigger[E]))(w, t)
	}
	return len(snapshot)
}
