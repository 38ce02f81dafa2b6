package ecs

import (
	"go.uber.org/zap"
)

// Commands buffers structural changes requested while systems run. The
// buffer is flushed by the scheduler once every system has been updated, so
// queries never observe entities appearing or disappearing mid-iteration.
type Commands struct {
	kills   []EntityId
	creates []func(w *World, id EntityId)
	adds    []componentCommand
	removes []componentCommand
	defers  []func()
}

type componentCommand struct {
	entity EntityId
	apply  func(w *World) error
}

func newCommands() *Commands {
	return &Commands{}
}

// Create queues the creation of an entity. init, if not nil, runs right
// after the entity exists and may attach components to it.
func (c *Commands) Create(init func(w *World, id EntityId)) {
	c.creates = append(c.creates, init)
}

// Kill queues the destruction of an entity.
func (c *Commands) Kill(id EntityId) {
	c.kills = append(c.kills, id)
}

// Defer queues a function to run after structural changes are applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// QueueAdd queues attaching value to the entity.
func QueueAdd[T any](c *Commands, id EntityId, value T) {
	c.adds = append(c.adds, componentCommand{
		entity: id,
		apply: func(w *World) error {
			_, err := AddComponent(w, id, value)
			return err
		},
	})
}

// QueueRemove queues removing the entity's component of type T.
func QueueRemove[T any](c *Commands, id EntityId) {
	c.removes = append(c.removes, componentCommand{
		entity: id,
		apply: func(w *World) error {
			return RemoveComponent[T](w, id)
		},
	})
}

// Pending returns the number of queued operations.
func (c *Commands) Pending() int {
	return len(c.kills) + len(c.creates) + len(c.adds) + len(c.removes) + len(c.defers)
}

// flush applies every queued operation to w. Failing operations are logged
// and skipped. Operations queued while flushing are kept for the next flush.
func (c *Commands) flush(w *World) {
	kills, creates, adds, removes, defers := c.kills, c.creates, c.adds, c.removes, c.defers
	c.kills, c.creates, c.adds, c.removes, c.defers = nil, nil, nil, nil, nil

	killed := make(map[EntityId]bool, len(kills))
	for _, id := range kills {
		if err := w.KillEntity(id); err != nil {
			w.log.Warn("deferred kill failed", zap.Uint64("entity", uint64(id)), zap.Error(err))
			continue
		}
		killed[id] = true
	}

	for _, cmd := range removes {
		if killed[cmd.entity] {
			continue
		}
		if err := cmd.apply(w); err != nil {
			w.log.Warn("deferred component removal failed", zap.Uint64("entity", uint64(cmd.entity)), zap.Error(err))
		}
	}

	for _, cmd := range adds {
		if killed[cmd.entity] {
			continue
		}
		if err := cmd.apply(w); err != nil {
			w.log.Warn("deferred component add failed", zap.Uint64("entity", uint64(cmd.entity)), zap.Error(err))
		}
	}

	for _, init := range creates {
		id := w.CreateEntity()
		if init != nil {
			init(w, id)
		}
	}

	for _, fn := range defers {
		fn()
	}
}

// Flush applies the queued operations immediately, outside of a scheduler run.
func (w *World) Flush() {
	w.commands.flush(w)
}
