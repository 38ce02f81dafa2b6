package debugui

import (
	"reflect"

	"github.com/plus3/tessera/ecs"
)

type EntityBrowserComponent struct {
	cache              *entityBrowserCache
	selectedEntityId   ecs.EntityId
	hasSelection       bool
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	selectedEntityId ecs.EntityId
}

type StoreViewerComponent struct {
	rows          []StoreRow
	sortColumn    int
	sortAscending bool
}

type PerformanceStatsComponent struct {
	clock         *ecs.Clock
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebuggerComponent struct {
	selected map[reflect.Type]bool
}

type EventViewerComponent struct {
	rows []EventRow
}
