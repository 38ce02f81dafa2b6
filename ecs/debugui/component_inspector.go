package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

// Render shows and edits the components of the selected entity. Edits are
// written straight into the component stores.
func (ci *ComponentInspectorComponent) Render(w *ecs.World, selected ecs.EntityId, ok bool) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	if !ok {
		imgui.Text("No entity selected")
		return
	}
	ci.selectedEntityId = selected

	if !w.Alive(selected) {
		imgui.Text(fmt.Sprintf("Entity %d is not alive", selected))
		return
	}

	registry := w.Components()
	types := registry.ComponentTypesOf(selected)
	imgui.Text(fmt.Sprintf("Entity ID: %d", selected))
	imgui.Text(fmt.Sprintf("Components: %d", len(types)))
	imgui.Separator()

	for _, t := range types {
		component := registry.Component(selected, t)
		if component == nil {
			continue
		}
		if imgui.TreeNodeStr(t.String()) {
			renderValue(reflect.ValueOf(component).Elem())
			imgui.TreePop()
		}
		imgui.SameLine()
		if imgui.Button("Remove##" + t.String()) {
			ci.queueRemoval(w, t)
		}
	}
}

func (ci *ComponentInspectorComponent) queueRemoval(w *ecs.World, t reflect.Type) {
	id := ci.selectedEntityId
	w.Commands().Defer(func() {
		if err := w.Components().EraseComponent(id, t); err != nil {
			w.Logger().Sugar().Warnf("debugui: removing %s from %d: %v", t, id, err)
		}
	})
}

// renderValue draws the fields of a struct component, or the value itself
// for components of a basic kind.
func renderValue(val reflect.Value) {
	l := layoutOf(val.Type())
	if l.Self != editorStruct {
		renderField("value", l.Self, val)
		return
	}
	for _, field := range l.Fields {
		// A nil embedded pointer fails the lookup of its promoted fields.
		fieldVal, err := val.FieldByIndexErr(field.Index)
		if err != nil || (field.Deref && fieldVal.IsNil()) {
			imgui.Text(fmt.Sprintf("%s: nil", field.Name))
			continue
		}
		if field.Deref {
			fieldVal = fieldVal.Elem()
		}
		renderField(field.Name, field.Editor, fieldVal)
	}
}

func renderField(name string, kind editor, val reflect.Value) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}
	id := "##" + name

	switch kind {
	case editorInt:
		v := int32(val.Int())
		labelled(name, 150)
		if imgui.InputInt(id, &v) {
			assign(val, int64(v))
		}

	case editorUint:
		v := int32(val.Uint())
		labelled(name, 150)
		if imgui.InputInt(id, &v) && v >= 0 {
			assign(val, uint64(v))
		}

	case editorFloat:
		v := float32(val.Float())
		labelled(name, 150)
		if imgui.InputFloat(id, &v) {
			assign(val, float64(v))
		}

	case editorBool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			assign(val, v)
		}

	case editorString:
		v := val.String()
		labelled(name, 200)
		if imgui.InputTextWithHint(id, "", &v, imgui.InputTextFlagsNone, nil) {
			assign(val, v)
		}

	case editorStruct:
		if imgui.TreeNodeStr(name) {
			renderValue(val)
			imgui.TreePop()
		}

	case editorSlice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case editorMap:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		if val.CanInterface() {
			imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
		} else {
			imgui.Text(fmt.Sprintf("%s: <%s>", name, val.Type()))
		}
	}
}

func labelled(name string, width float32) {
	imgui.Text(name + ":")
	imgui.SameLine()
	imgui.SetNextItemWidth(width)
}

// assign writes value into field when the kinds are compatible and the value
// fits. It reports whether the field changed.
func assign(field reflect.Value, value any) bool {
	if !field.CanSet() {
		return false
	}
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, ok := value.(int64)
		if !ok || field.OverflowInt(v) {
			return false
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, ok := value.(uint64)
		if !ok || field.OverflowUint(v) {
			return false
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, ok := value.(float64)
		if !ok {
			return false
		}
		field.SetFloat(v)
	case reflect.Bool:
		v, ok := value.(bool)
		if !ok {
			return false
		}
		field.SetBool(v)
	case reflect.String:
		v, ok := value.(string)
		if !ok {
			return false
		}
		field.SetString(v)
	default:
		return false
	}
	return true
}
