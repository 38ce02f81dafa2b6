package debugui

import (
	"github.com/pkg/errors"

	"github.com/plus3/tessera/ecs"
	"github.com/plus3/tessera/ecs/event"
)

// RegisterDebugUIComponents registers the window components and ImguiItem
// on w. Types that are already registered are left alone.
func RegisterDebugUIComponents(w *ecs.World) error {
	for _, register := range []func(ecs.ComponentHost) error{
		registerOnce[ImguiItem],
		registerOnce[EntityBrowserComponent],
		registerOnce[ComponentInspectorComponent],
		registerOnce[StoreViewerComponent],
		registerOnce[PerformanceStatsComponent],
		registerOnce[QueryDebuggerComponent],
		registerOnce[EventViewerComponent],
	} {
		if err := register(w); err != nil {
			return err
		}
	}
	return nil
}

func registerOnce[T any](h ecs.ComponentHost) error {
	_, err := ecs.RegisterComponent[T](h)
	if errors.Is(err, ecs.ErrComponentAlreadyRegistered) {
		return nil
	}
	return err
}

// SpawnDebugUI creates one entity per debug window.
func SpawnDebugUI(w *ecs.World) error {
	if err := RegisterDebugUIComponents(w); err != nil {
		return err
	}
	spawns := []func(id ecs.EntityId) error{
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewEntityBrowserComponent(100))
			return err
		},
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewComponentInspectorComponent())
			return err
		},
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewStoreViewerComponent())
			return err
		},
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewPerformanceStatsComponent(120))
			return err
		},
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewQueryDebuggerComponent())
			return err
		},
		func(id ecs.EntityId) error {
			_, err := ecs.AddComponent(w, id, NewEventViewerComponent())
			return err
		},
	}
	for _, spawn := range spawns {
		if err := spawn(w.CreateEntity()); err != nil {
			return err
		}
	}
	return nil
}

// DebugUISystem renders every debug window entity. Rendering is deferred to
// the end of the scheduler run, after all other systems have updated.
type DebugUISystem struct {
	ecs.BaseSystem
	world *ecs.World
	bus   *event.Bus

	browsers   *ecs.Query[struct{ *EntityBrowserComponent }]
	inspectors *ecs.Query[struct{ *ComponentInspectorComponent }]
	stores     *ecs.Query[struct{ *StoreViewerComponent }]
	perf       *ecs.Query[struct{ *PerformanceStatsComponent }]
	queries    *ecs.Query[struct{ *QueryDebuggerComponent }]
	events     *ecs.Query[struct{ *EventViewerComponent }]
}

// NewDebugUISystem creates the system. bus may be nil, in which case the
// event window is not drawn.
func NewDebugUISystem(w *ecs.World, bus *event.Bus) (*DebugUISystem, error) {
	if err := RegisterDebugUIComponents(w); err != nil {
		return nil, err
	}
	s := &DebugUISystem{world: w, bus: bus}
	var err error
	if s.browsers, err = ecs.NewQuery[struct{ *EntityBrowserComponent }](w); err != nil {
		return nil, err
	}
	if s.inspectors, err = ecs.NewQuery[struct{ *ComponentInspectorComponent }](w); err != nil {
		return nil, err
	}
	if s.stores, err = ecs.NewQuery[struct{ *StoreViewerComponent }](w); err != nil {
		return nil, err
	}
	if s.perf, err = ecs.NewQuery[struct{ *PerformanceStatsComponent }](w); err != nil {
		return nil, err
	}
	if s.queries, err = ecs.NewQuery[struct{ *QueryDebuggerComponent }](w); err != nil {
		return nil, err
	}
	if s.events, err = ecs.NewQuery[struct{ *EventViewerComponent }](w); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DebugUISystem) Update() error {
	s.world.Commands().Defer(s.render)
	return nil
}

func (s *DebugUISystem) render() {
	w := s.world

	var (
		selected    ecs.EntityId
		hasSelected bool
	)
	for item := range s.browsers.Values() {
		item.EntityBrowserComponent.Render(w)
		if id, ok := item.EntityBrowserComponent.Selected(); ok {
			selected, hasSelected = id, true
		}
	}
	for item := range s.inspectors.Values() {
		item.ComponentInspectorComponent.Render(w, selected, hasSelected)
	}
	for item := range s.stores.Values() {
		item.StoreViewerComponent.Render(w)
	}
	for item := range s.perf.Values() {
		item.PerformanceStatsComponent.Render(w)
	}
	for item := range s.queries.Values() {
		item.QueryDebuggerComponent.Render(w)
	}
	if s.bus != nil {
		for item := range s.events.Values() {
			item.EventViewerComponent.Render(s.bus)
		}
	}
}
