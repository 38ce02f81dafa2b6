package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs/event"
)

// EventRow summarizes the queue of one event type.
type EventRow struct {
	Type    reflect.Type
	Pending int
}

func NewEventViewerComponent() EventViewerComponent {
	return EventViewerComponent{}
}

func (ev *EventViewerComponent) Render(bus *event.Bus) {
	if !imgui.BeginV("Event Queues", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	ev.rows = collectEventRows(bus)
	if len(ev.rows) == 0 {
		imgui.Text("No event types ensured")
		return
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("EventTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Event")
		imgui.TableSetupColumn("Pending")
		imgui.TableSetupColumn("")
		imgui.TableHeadersRow()

		for _, row := range ev.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(row.Type.String())

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Pending))

			imgui.TableNextColumn()
			if imgui.Button("Clear##" + row.Type.String()) {
				clearEventQueue(bus, row.Type)
			}
		}

		imgui.EndTable()
	}
}

// clearEventQueue empties the queue of t, logging rather than returning a
// failure since it runs from a button handler.
func clearEventQueue(bus *event.Bus, t reflect.Type) {
	if err := bus.ClearType(t); err != nil {
		bus.Logger().Warn("debugui: clearing event queue failed", zap.Stringer("type", t), zap.Error(err))
	}
}

func collectEventRows(bus *event.Bus) []EventRow {
	pending := bus.Pending()
	types := bus.Types()
	rows := make([]EventRow, len(types))
	for i, t := range types {
		rows[i] = EventRow{Type: t, Pending: pending[t]}
	}
	return rows
}
