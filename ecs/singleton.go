package ecs

import (
	"reflect"
)

// Singleton provides access to a single component instance that is not
// associated with any entity. Use it for global simulation state or
// configuration shared by systems.
type Singleton[T any] struct {
	world *World
}

// NewSingleton returns an accessor for the world's T singleton. If the
// singleton does not exist yet it is created from initializer, or from the
// zero value when no initializer is given.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	if _, ok := GetSingleton[T](w); !ok {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		SetSingleton(w, value)
	}
	return &Singleton[T]{world: w}
}

// Get returns a pointer to the singleton, or nil if it was removed.
func (s *Singleton[T]) Get() *T {
	ptr, _ := GetSingleton[T](s.world)
	return ptr
}

// Exists reports whether the singleton is present in the world.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

// SetSingleton stores value as the world's T singleton, replacing any
// previous one, and returns a pointer to the stored copy.
func SetSingleton[T any](w *World, value T) *T {
	ptr := new(T)
	*ptr = value
	w.singletons[reflect.TypeFor[T]()] = ptr
	return ptr
}

// GetSingleton returns the world's T singleton.
func GetSingleton[T any](w *World) (*T, bool) {
	value, ok := w.singletons[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return value.(*T), true
}

// RemoveSingleton drops the world's T singleton. It reports whether one existed.
func RemoveSingleton[T any](w *World) bool {
	t := reflect.TypeFor[T]()
	if _, ok := w.singletons[t]; !ok {
		return false
	}
	delete(w.singletons, t)
	return true
}
