package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return PerformanceStatsComponent{
		clock:         ecs.NewClock(nil),
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// record stores the frame time, in milliseconds, and returns the average
// over the history window.
func (ps *PerformanceStatsComponent) record(frameMillis float64) float32 {
	ps.frameHistory[ps.frameIndex] = float32(frameMillis)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames

	var sum float32
	for _, ft := range ps.frameHistory {
		sum += ft
	}
	return sum / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	avgFrameTime := ps.record(ps.clock.Restart())

	imgui.Text(fmt.Sprintf("Live Entities: %d", w.EntityCount()))
	imgui.Text(fmt.Sprintf("Entity Ceiling: %d", w.Ceiling()))
	imgui.Text(fmt.Sprintf("Component Types: %d", w.Components().Len()))
	imgui.Text(fmt.Sprintf("Pending Commands: %d", w.Commands().Pending()))
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Systems") {
		renderSystemStats(w.Scheduler())
		imgui.TreePop()
	}
}

func renderSystemStats(scheduler *ecs.Scheduler) {
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if !imgui.BeginTableV("SystemStatsTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	imgui.TableSetupColumn("System")
	imgui.TableSetupColumn("Active")
	imgui.TableSetupColumn("Runs")
	imgui.TableSetupColumn("Errors")
	imgui.TableSetupColumn("Avg")
	imgui.TableSetupColumn("Max")
	imgui.TableHeadersRow()

	for _, stats := range scheduler.GetStats().Systems {
		imgui.TableNextRow()

		imgui.TableNextColumn()
		imgui.Text(stats.Name)

		imgui.TableNextColumn()
		active := stats.Active
		if system, err := scheduler.Get(stats.Name); err == nil {
			if a, ok := system.(ecs.Activatable); ok {
				if imgui.Checkbox("##active-"+stats.Name, &active) {
					a.SetActive(active)
				}
			} else {
				imgui.Text("always")
			}
		}

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", stats.ExecutionCount))

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", stats.ErrorCount))

		imgui.TableNextColumn()
		imgui.Text(stats.AvgDuration.String())

		imgui.TableNextColumn()
		imgui.Text(stats.MaxDuration.String())
	}

	imgui.EndTable()
}
