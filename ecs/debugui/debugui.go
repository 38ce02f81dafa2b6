// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers the render function of every ImguiItem to the end of
// the scheduler run and refreshes the ImguiInputState singleton.
type ImguiSystem struct {
	ecs.BaseSystem
	world      *ecs.World
	items      *ecs.Query[struct{ *ImguiItem }]
	inputState *ecs.Singleton[ImguiInputState]
}

// NewImguiSystem creates the system. ImguiItem must be registered on w.
func NewImguiSystem(w *ecs.World) (*ImguiSystem, error) {
	items, err := ecs.NewQuery[struct{ *ImguiItem }](w)
	if err != nil {
		return nil, err
	}
	return &ImguiSystem{
		world:      w,
		items:      items,
		inputState: ecs.NewSingleton[ImguiInputState](w),
	}, nil
}

func (i *ImguiSystem) Update() error {
	state := i.inputState.Get()
	io := imgui.CurrentIO()
	state.WantCaptureMouse = io.WantCaptureMouse()
	state.WantCaptureKeyboard = io.WantCaptureKeyboard()

	commands := i.world.Commands()
	for item := range i.items.Values() {
		if item.ImguiItem.Render != nil {
			commands.Defer(item.ImguiItem.Render)
		}
	}
	return nil
}
