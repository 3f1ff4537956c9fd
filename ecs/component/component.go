package component

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID indexes a world's component stores. Zero is never assigned.
type ComponentID uint32

var (
	nextComponentID atomic.Uint32
	kindNames       sync.Map // ComponentID -> string
)

// ComponentKind identifies the store for components of type T.
type ComponentKind[T any] struct {
	id ComponentID
}

// NewComponentKind allocates a fresh id, so two kinds of the same type keep
// separate stores.
func NewComponentKind[T any]() ComponentKind[T] {
	id := ComponentID(nextComponentID.Add(1))
	kindNames.Store(id, reflect.TypeFor[T]().Name())
	return ComponentKind[T]{id: id}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// Name returns the component's type name, for logs and errors.
func (k ComponentKind[T]) Name() string {
	return NameOf(k.id)
}

// NameOf returns the type name registered for id, or "" when unknown.
func NameOf(id ComponentID) string {
	if v, ok := kindNames.Load(id); ok {
		return v.(string)
	}
	return ""
}

// ComponentHandle is the package-level declaration of a component, e.g.
// var ClockComponent = NewComponent[Clock]().
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
