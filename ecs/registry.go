package ecs

import (
	"reflect"
	"slices"

	"github.com/pkg/errors"
)

// slotFunc is a lifecycle callback bound to one component type at
// registration time.
type slotFunc func(id EntityId)

type registryEntry struct {
	column    componentColumn
	initSlot  slotFunc
	eraseSlot slotFunc
}

// ComponentRegistry maps each registered component type to its store and the
// lifecycle callbacks used when entities are created or destroyed.
// Each World owns its own registry.
type ComponentRegistry struct {
	entries map[reflect.Type]*registryEntry
	order   []reflect.Type
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		entries: make(map[reflect.Type]*registryEntry),
	}
}

// ComponentHost is implemented by anything that exposes a component registry,
// namely *ComponentRegistry itself and *World.
type ComponentHost interface {
	Components() *ComponentRegistry
}

// Components returns r, so a bare registry can be used wherever a
// ComponentHost is expected.
func (r *ComponentRegistry) Components() *ComponentRegistry {
	return r
}

// RegisterComponent creates the store for T. A type can be registered once;
// the returned store may be cached by the caller for typed access.
func RegisterComponent[T any](h ComponentHost) (*SparseStore[T], error) {
	r := h.Components()
	t := reflect.TypeFor[T]()
	if _, ok := r.entries[t]; ok {
		return nil, errors.Wrap(ErrComponentAlreadyRegistered, t.String())
	}

	store := NewSparseStore[T]()
	r.entries[t] = &registryEntry{
		column: store,
		initSlot: func(id EntityId) {
			store.InitSlot(int(id))
		},
		eraseSlot: func(id EntityId) {
			store.erase(int(id))
		},
	}
	r.order = append(r.order, t)
	return store, nil
}

// MustRegisterComponent is like RegisterComponent but panics on error.
// Intended for setup code where a duplicate registration is a bug.
func MustRegisterComponent[T any](h ComponentHost) *SparseStore[T] {
	store, err := RegisterComponent[T](h)
	if err != nil {
		panic(err)
	}
	return store
}

// GetStore returns the store registered for T.
func GetStore[T any](h ComponentHost) (*SparseStore[T], error) {
	r := h.Components()
	t := reflect.TypeFor[T]()
	entry, ok := r.entries[t]
	if !ok {
		return nil, errors.Wrap(ErrComponentNotRegistered, t.String())
	}
	return entry.column.(*SparseStore[T]), nil
}

// UnregisterComponent drops the store for T together with all of its data.
func UnregisterComponent[T any](h ComponentHost) error {
	return h.Components().unregister(reflect.TypeFor[T]())
}

func (r *ComponentRegistry) unregister(t reflect.Type) error {
	entry, ok := r.entries[t]
	if !ok {
		return errors.Wrap(ErrComponentNotRegistered, t.String())
	}
	entry.column.clear()
	delete(r.entries, t)
	r.order = slices.DeleteFunc(r.order, func(other reflect.Type) bool {
		return other == t
	})
	return nil
}

// IsRegistered reports whether a store exists for t.
func (r *ComponentRegistry) IsRegistered(t reflect.Type) bool {
	_, ok := r.entries[t]
	return ok
}

// HasAll reports whether the entity holds a component of every listed type.
// A type that was never registered is an error, not a miss. An id beyond a
// store's current length is treated as absent.
func (r *ComponentRegistry) HasAll(id EntityId, types ...reflect.Type) (bool, error) {
	result := true
	for _, t := range types {
		entry, ok := r.entries[t]
		if !ok {
			return false, errors.Wrap(ErrComponentNotRegistered, t.String())
		}
		if result && !entry.column.has(int(id)) {
			result = false
		}
	}
	return result, nil
}

// Has reports whether the entity holds a component of type T.
func Has[T any](h ComponentHost, id EntityId) (bool, error) {
	return h.Components().HasAll(id, reflect.TypeFor[T]())
}

// Types returns the registered component types in registration order.
func (r *ComponentRegistry) Types() []reflect.Type {
	return slices.Clone(r.order)
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.entries)
}

// Component returns a pointer to the entity's component of type t, or nil if
// t is not registered or the entity does not hold it.
func (r *ComponentRegistry) Component(id EntityId, t reflect.Type) any {
	entry, ok := r.entries[t]
	if !ok {
		return nil
	}
	return entry.column.value(int(id))
}

// EraseComponent removes the entity's component of type t, for callers that
// only know the type at run time.
func (r *ComponentRegistry) EraseComponent(id EntityId, t reflect.Type) error {
	entry, ok := r.entries[t]
	if !ok {
		return errors.Wrap(ErrComponentNotRegistered, t.String())
	}
	if !entry.column.has(int(id)) {
		return errors.Wrapf(ErrEmptySlot, "%s of entity %d", t, id)
	}
	entry.eraseSlot(id)
	return nil
}

// ComponentTypesOf lists the registered types the entity currently holds.
func (r *ComponentRegistry) ComponentTypesOf(id EntityId) []reflect.Type {
	var types []reflect.Type
	for _, t := range r.order {
		if r.entries[t].column.has(int(id)) {
			types = append(types, t)
		}
	}
	return types
}

func (r *ComponentRegistry) runInit(id EntityId) {
	for _, t := range r.order {
		r.entries[t].initSlot(id)
	}
}

func (r *ComponentRegistry) runErase(id EntityId) {
	for _, t := range r.order {
		r.entries[t].eraseSlot(id)
	}
}

func (r *ComponentRegistry) column(t reflect.Type) (componentColumn, error) {
	entry, ok := r.entries[t]
	if !ok {
		return nil, errors.Wrap(ErrComponentNotRegistered, t.String())
	}
	return entry.column, nil
}

// ComponentStats describes the occupancy of one component store.
type ComponentStats struct {
	Type  reflect.Type
	Len   int
	Count int
}

// Stats reports the occupancy of every registered store, in registration order.
func (r *ComponentRegistry) Stats() []ComponentStats {
	stats := make([]ComponentStats, 0, len(r.order))
	for _, t := range r.order {
		column := r.entries[t].column
		stats = append(stats, ComponentStats{
			Type:  t,
			Len:   column.Len(),
			Count: column.Count(),
		})
	}
	return stats
}
