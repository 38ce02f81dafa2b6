package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

// StoreRow summarizes one component store.
type StoreRow struct {
	Type      string
	Slots     int
	Present   int
	Occupancy float64
}

func NewStoreViewerComponent() StoreViewerComponent {
	return StoreViewerComponent{
		sortColumn:    2,
		sortAscending: false,
	}
}

func (sv *StoreViewerComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Component Stores", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	sv.rows = collectStoreRows(w.Components())
	sortStoreRows(sv.rows, sv.sortColumn, sv.sortAscending)

	maxPresent := 0
	for _, row := range sv.rows {
		maxPresent = max(maxPresent, row.Present)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("StoreTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Component")
		imgui.TableSetupColumn("Slots")
		imgui.TableSetupColumn("Present")
		imgui.TableSetupColumn("Occupancy")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sv.sortColumn = int(spec.ColumnIndex())
			sv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortStoreRows(sv.rows, sv.sortColumn, sv.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range sv.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(row.Type)

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Slots))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Present))
			if maxPresent > 0 {
				barWidth := float32(row.Present) / float32(maxPresent) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f%%", row.Occupancy*100))
		}

		imgui.EndTable()
	}

	imgui.End()
}

func collectStoreRows(registry *ecs.ComponentRegistry) []StoreRow {
	stats := registry.Stats()
	rows := make([]StoreRow, len(stats))
	for i, s := range stats {
		rows[i] = StoreRow{
			Type:    s.Type.String(),
			Slots:   s.Len,
			Present: s.Count,
		}
		if s.Len > 0 {
			rows[i].Occupancy = float64(s.Count) / float64(s.Len)
		}
	}
	return rows
}

func sortStoreRows(rows []StoreRow, column int, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !ascending {
			a, b = b, a
		}
		switch column {
		case 0:
			return a.Type < b.Type
		case 1:
			return a.Slots < b.Slots
		case 3:
			return a.Occupancy < b.Occupancy
		default:
			return a.Present < b.Present
		}
	})
}
