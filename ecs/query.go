package ecs

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// QueryFunc is invoked once per matching entity. The fields of item point at
// the entity's live components and may be written through.
type QueryFunc[T any] func(w *World, dt float64, id EntityId, item T)

// Query visits every entity holding all the components named by T.
// T must be a struct whose fields are pointers to registered component types,
// for example:
//
//	ecs.NewQuery[struct {
//		*Position
//		*Velocity
//	}](world)
//
// Each iteration rescans the id range [0, ceiling) in ascending order.
type Query[T any] struct {
	world       *World
	types       []reflect.Type
	fieldOffset []uintptr
}

// NewQuery builds a query over the component signature described by T.
func NewQuery[T any](w *World) (*Query[T], error) {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrInvalidQuery, "%s is not a struct", structType)
	}
	if structType.NumField() == 0 {
		return nil, errors.Wrapf(ErrInvalidQuery, "%s has no fields", structType)
	}

	types := make([]reflect.Type, 0, structType.NumField())
	fieldOffset := make([]uintptr, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			return nil, errors.Wrapf(ErrInvalidQuery, "field %s of %s is not a pointer", field.Name, structType)
		}
		componentType := field.Type.Elem()
		if !w.registry.IsRegistered(componentType) {
			return nil, errors.Wrap(ErrComponentNotRegistered, componentType.String())
		}
		types = append(types, componentType)
		fieldOffset = append(fieldOffset, field.Offset)
	}

	return &Query[T]{
		world:       w,
		types:       types,
		fieldOffset: fieldOffset,
	}, nil
}

// MustQuery is like NewQuery but panics on error.
func MustQuery[T any](w *World) *Query[T] {
	q, err := NewQuery[T](w)
	if err != nil {
		panic(err)
	}
	return q
}

// Types returns the component signature in declaration order.
func (q *Query[T]) Types() []reflect.Type {
	return q.types
}

func (q *Query[T]) columns() ([]componentColumn, error) {
	columns := make([]componentColumn, len(q.types))
	for i, t := range q.types {
		column, err := q.world.registry.column(t)
		if err != nil {
			return nil, err
		}
		columns[i] = column
	}
	return columns, nil
}

func matches(columns []componentColumn, index int) bool {
	for _, column := range columns {
		if !column.has(index) {
			return false
		}
	}
	return true
}

func (q *Query[T]) populate(resultPtr unsafe.Pointer, columns []componentColumn, index int) {
	for i, column := range columns {
		fieldPtr := unsafe.Add(resultPtr, q.fieldOffset[i])
		*(*unsafe.Pointer)(fieldPtr) = column.pointer(index)
	}
}

// ForEach calls fn for every matching entity below the ceiling observed when
// the scan starts. Creating or killing entities from fn is not supported.
func (q *Query[T]) ForEach(dt float64, fn QueryFunc[T]) error {
	columns, err := q.columns()
	if err != nil {
		return err
	}

	ceiling := int(q.world.Ceiling())
	var result T
	resultPtr := unsafe.Pointer(&result)
	for index := 0; index < ceiling; index++ {
		if !matches(columns, index) {
			continue
		}
		q.populate(resultPtr, columns, index)
		fn(q.world, dt, EntityId(index), result)
	}
	return nil
}

// Iter returns an iterator over matching entities and their components.
// It yields nothing if one of the signature types has been unregistered.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		columns, err := q.columns()
		if err != nil {
			return
		}

		ceiling := int(q.world.Ceiling())
		var result T
		resultPtr := unsafe.Pointer(&result)
		for index := 0; index < ceiling; index++ {
			if !matches(columns, index) {
				continue
			}
			q.populate(resultPtr, columns, index)
			if !yield(EntityId(index), result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the component structs.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range q.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Count returns the number of entities currently matching the query.
func (q *Query[T]) Count() int {
	count := 0
	for range q.Iter() {
		count++
	}
	return count
}
