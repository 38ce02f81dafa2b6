package debugui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/tessera/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	ComponentTypes []string
}

type entityBrowserCache struct {
	entities      []EntityInfo
	ceiling       ecs.EntityId
	live          int
	stale         bool
	sortColumn    int
	sortAscending bool
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) EntityBrowserComponent {
	if maxEntitiesPerPage <= 0 {
		maxEntitiesPerPage = 100
	}
	return EntityBrowserComponent{
		cache: &entityBrowserCache{
			stale:         true,
			sortAscending: true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (eb *EntityBrowserComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(w)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		eb.cache.stale = true
	}

	filtered := filterEntities(eb.cache.entities, eb.filterText)
	totalPages := (len(filtered) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
	if eb.currentPage >= totalPages {
		eb.currentPage = max(totalPages-1, 0)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		start := eb.currentPage * eb.maxEntitiesPerPage
		end := min(start+eb.maxEntitiesPerPage, len(filtered))
		for _, entity := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			selected := eb.hasSelection && eb.selectedEntityId == entity.ID
			if imgui.SelectableBoolV(strconv.FormatUint(uint64(entity.ID), 10), selected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selectedEntityId = entity.ID
				eb.hasSelection = true
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(len(entity.ComponentTypes)))
		}

		imgui.EndTable()
	}

	if totalPages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	imgui.End()
}

// rebuildCacheIfNeeded refreshes the entity list when entities were created
// or killed. Component changes on existing entities need a manual refresh.
func (eb *EntityBrowserComponent) rebuildCacheIfNeeded(w *ecs.World) {
	if !eb.cache.stale && eb.cache.ceiling == w.Ceiling() && eb.cache.live == w.EntityCount() {
		return
	}
	eb.cache.entities = collectEntities(w)
	eb.cache.ceiling = w.Ceiling()
	eb.cache.live = w.EntityCount()
	eb.cache.stale = false
	sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)

	if eb.hasSelection && !w.Alive(eb.selectedEntityId) {
		eb.hasSelection = false
	}
}

// Selected returns the entity picked in the table, if any.
func (eb *EntityBrowserComponent) Selected() (ecs.EntityId, bool) {
	return eb.selectedEntityId, eb.hasSelection
}

func collectEntities(w *ecs.World) []EntityInfo {
	registry := w.Components()
	entities := make([]EntityInfo, 0, w.EntityCount())
	for id := range w.Entities() {
		types := registry.ComponentTypesOf(id)
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.String()
		}
		entities = append(entities, EntityInfo{ID: id, ComponentTypes: names})
	}
	return entities
}

func sortEntities(entities []EntityInfo, column int, ascending bool) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if !ascending {
			a, b = b, a
		}
		switch column {
		case 1:
			return strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 2:
			return len(a.ComponentTypes) < len(b.ComponentTypes)
		default:
			return a.ID < b.ID
		}
	})
}

// filterEntities keeps entities whose id or component names contain text,
// ignoring case.
func filterEntities(entities []EntityInfo, text string) []EntityInfo {
	if text == "" {
		return entities
	}
	needle := strings.ToLower(text)
	filtered := make([]EntityInfo, 0, len(entities))
	for _, entity := range entities {
		if strings.Contains(strconv.FormatUint(uint64(entity.ID), 10), needle) ||
			strings.Contains(strings.ToLower(strings.Join(entity.ComponentTypes, " ")), needle) {
			filtered = append(filtered, entity)
		}
	}
	return filtered
}
