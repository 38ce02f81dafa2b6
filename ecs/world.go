package ecs

import (
	"iter"
	"reflect"

	"go.uber.org/zap"
)

// World is the runtime object user code interacts with. It owns the entity
// ids, the component stores and the systems of one simulation.
//
// A World is not safe for concurrent use.
type World struct {
	registry   *ComponentRegistry
	pool       *entityPool
	scheduler  *Scheduler
	commands   *Commands
	singletons map[reflect.Type]any
	log        *zap.Logger
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger used by the world and its scheduler.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorld creates an empty world.
func NewWorld(opts ...Option) *World {
	w := &World{
		registry:   NewComponentRegistry(),
		pool:       newEntityPool(),
		commands:   newCommands(),
		singletons: make(map[reflect.Type]any),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.scheduler = newScheduler(w, w.log.Named("scheduler"))
	return w
}

// Components returns the world's component registry.
func (w *World) Components() *ComponentRegistry {
	return w.registry
}

// Scheduler returns the world's system scheduler.
func (w *World) Scheduler() *Scheduler {
	return w.scheduler
}

// Commands returns the buffer of deferred structural changes, flushed after
// every scheduler run.
func (w *World) Commands() *Commands {
	return w.commands
}

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger {
	return w.log
}

// CreateEntity returns the smallest previously killed id, or a fresh id when
// none is free. Every registered component slot of the id starts absent.
func (w *World) CreateEntity() EntityId {
	id := w.pool.allocate()
	w.log.Debug("creating entity", zap.Uint64("entity", uint64(id)))
	w.registry.runInit(id)
	return id
}

// KillEntity erases every component of the entity and frees its id for
// reuse. Killing an id that is not alive fails with ErrEntityNotAlive and
// leaves the world untouched.
func (w *World) KillEntity(id EntityId) error {
	if err := w.pool.release(id); err != nil {
		return err
	}
	w.log.Debug("killing entity", zap.Uint64("entity", uint64(id)))
	w.registry.runErase(id)
	return nil
}

// Alive reports whether id was created and not killed since.
func (w *World) Alive(id EntityId) bool {
	return w.pool.alive(id)
}

// Ceiling returns the exclusive upper bound of every id ever allocated.
func (w *World) Ceiling() EntityId {
	return w.pool.ceiling
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.pool.liveCount()
}

// Entities iterates over live entity ids in ascending order.
func (w *World) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		ceiling := w.pool.ceiling
		for id := EntityId(0); id < ceiling; id++ {
			if !w.pool.alive(id) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// AddSystem registers system under name. Systems run in ascending name order.
func (w *World) AddSystem(name string, system System) error {
	return w.scheduler.Add(name, system)
}

// RemoveSystem unregisters the system called name.
func (w *World) RemoveSystem(name string) error {
	return w.scheduler.Remove(name)
}

// RunSystems updates every system once, in ascending name order, whatever
// their activation flag.
func (w *World) RunSystems() error {
	return w.scheduler.Once()
}

// RunActiveSystems is like RunSystems but skips deactivated systems.
func (w *World) RunActiveSystems() error {
	return w.scheduler.OnceActive()
}

// Systems returns the registered system names in execution order.
func (w *World) Systems() []string {
	return w.scheduler.Names()
}

// AddComponent overwrites the entity's T slot with value. The entity must
// have been created after T was registered.
func AddComponent[T any](w *World, id EntityId, value T) (*T, error) {
	store, err := GetStore[T](w)
	if err != nil {
		return nil, err
	}
	if err := store.Set(int(id), value); err != nil {
		return nil, err
	}
	return store.Get(int(id))
}

// EmplaceComponent stores value in the entity's T slot, growing the store if
// the slot does not exist yet. Ids that do not fit an int fail with
// ErrOutOfRange.
func EmplaceComponent[T any](w *World, id EntityId, value T) (*T, error) {
	store, err := GetStore[T](w)
	if err != nil {
		return nil, err
	}
	return store.Emplace(int(id), value)
}

// RemoveComponent erases the entity's T component.
func RemoveComponent[T any](w *World, id EntityId) error {
	store, err := GetStore[T](w)
	if err != nil {
		return err
	}
	return store.Erase(int(id))
}

// GetComponent returns a pointer to the entity's T component.
func GetComponent[T any](w *World, id EntityId) (*T, error) {
	store, err := GetStore[T](w)
	if err != nil {
		return nil, err
	}
	return store.Get(int(id))
}
