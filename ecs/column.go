package ecs

import (
	"reflect"
	"unsafe"
)

// componentColumn is the type-erased view of a SparseStore used by the
// registry for bulk operations that do not know the concrete component type.
type componentColumn interface {
	initSlot(index int)
	erase(index int)
	has(index int) bool
	pointer(index int) unsafe.Pointer
	value(index int) any
	clear()
	componentType() reflect.Type
	Len() int
	Count() int
}
