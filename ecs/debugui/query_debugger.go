package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

const queryDebuggerListLimit = 50

func NewQueryDebuggerComponent() QueryDebuggerComponent {
	return QueryDebuggerComponent{
		selected: make(map[reflect.Type]bool),
	}
}

// Render lets the user assemble a component signature and shows the
// entities that currently hold all of it.
func (qd *QueryDebuggerComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		clear(qd.selected)
	}

	registry := w.Components()
	signature := make([]reflect.Type, 0, len(qd.selected))
	for _, t := range registry.Types() {
		checked := qd.selected[t]
		if imgui.Checkbox(t.String(), &checked) {
			if checked {
				qd.selected[t] = true
			} else {
				delete(qd.selected, t)
			}
		}
		if qd.selected[t] {
			signature = append(signature, t)
		}
	}
	imgui.Separator()

	if len(signature) == 0 {
		imgui.Text("No component types selected")
		return
	}

	matches, err := matchEntities(w, signature)
	if err != nil {
		imgui.Text(err.Error())
		return
	}

	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matches)))
	if imgui.TreeNodeStr("Entities") {
		for i, id := range matches {
			if i == queryDebuggerListLimit {
				imgui.Text(fmt.Sprintf("... and %d more", len(matches)-i))
				break
			}
			imgui.BulletText(fmt.Sprintf("%d", id))
		}
		imgui.TreePop()
	}
}

// matchEntities returns the live entities holding every type of signature,
// in ascending id order.
func matchEntities(w *ecs.World, signature []reflect.Type) ([]ecs.EntityId, error) {
	registry := w.Components()
	var matches []ecs.EntityId
	for id := range w.Entities() {
		ok, err := registry.HasAll(id, signature...)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, id)
		}
	}
	return matches, nil
}
