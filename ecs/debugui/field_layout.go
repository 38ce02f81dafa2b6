package debugui

import (
	"reflect"
	"sync"
)

// editor selects the inspector widget for a value.
type editor uint8

const (
	editorReadOnly editor = iota
	editorInt
	editorUint
	editorFloat
	editorBool
	editorString
	editorStruct
	editorSlice
	editorMap
)

func editorFor(t reflect.Type) editor {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return editorInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return editorUint
	case reflect.Float32, reflect.Float64:
		return editorFloat
	case reflect.Bool:
		return editorBool
	case reflect.String:
		return editorString
	case reflect.Struct:
		return editorStruct
	case reflect.Slice, reflect.Array:
		return editorSlice
	case reflect.Map:
		return editorMap
	default:
		return editorReadOnly
	}
}

// layoutField is one editable leaf of a component. Fields promoted from
// embedded structs are flattened, so Index may be a path.
type layoutField struct {
	Name   string
	Index  []int
	Deref  bool
	Editor editor
}

// layout is the inspectable shape of a component type. Components that are
// not structs have no fields and are edited as a whole through Self.
type layout struct {
	Self   editor
	Fields []layoutField
}

var layouts sync.Map // reflect.Type -> *layout

func layoutOf(t reflect.Type) *layout {
	if cached, ok := layouts.Load(t); ok {
		return cached.(*layout)
	}
	l := &layout{Self: editorFor(t)}
	if t.Kind() == reflect.Struct {
		for _, field := range reflect.VisibleFields(t) {
			if !field.IsExported() || (field.Anonymous && embedsStruct(field.Type)) {
				continue
			}
			fieldType, deref := field.Type, false
			if fieldType.Kind() == reflect.Pointer {
				fieldType, deref = fieldType.Elem(), true
			}
			l.Fields = append(l.Fields, layoutField{
				Name:   field.Name,
				Index:  field.Index,
				Deref:  deref,
				Editor: editorFor(fieldType),
			})
		}
	}
	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(*layout)
}

func embedsStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
