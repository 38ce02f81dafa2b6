package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/plus3/tessera/ecs"
)

func TestCommandsApplyAfterRun(t *testing.T) {
	w := newTestWorld()
	target := w.CreateEntity()
	_, err := ecs.AddComponent(w, target, Velocity{})
	require.NoError(t, err)

	var seenDuringRun int
	require.NoError(t, w.AddSystem("spawner", ecs.SystemFunc(func() error {
		cmds := w.Commands()
		cmds.Create(func(w *ecs.World, id ecs.EntityId) {
			_, err := ecs.AddComponent(w, id, Name{Value: "spawned"})
			assert.NoError(t, err)
		})
		ecs.QueueAdd(cmds, target, Position{X: 5})
		ecs.QueueRemove[Velocity](cmds, target)
		seenDuringRun = w.EntityCount()
		return nil
	})))

	require.NoError(t, w.RunSystems())
	assert.Equal(t, 1, seenDuringRun, "nothing is applied while systems run")
	assert.Zero(t, w.Commands().Pending())

	assert.Equal(t, 2, w.EntityCount())
	name, err := ecs.GetComponent[Name](w, 1)
	require.NoError(t, err)
	assert.Equal(t, "spawned", name.Value)

	p, err := ecs.GetComponent[Position](w, target)
	require.NoError(t, err)
	assert.Equal(t, float32(5), p.X)
	has, err := ecs.Has[Velocity](w, target)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCommandsKillBeforeCreate(t *testing.T) {
	w := newTestWorld()
	victim := w.CreateEntity()
	w.CreateEntity()

	cmds := w.Commands()
	var created ecs.EntityId
	cmds.Create(func(_ *ecs.World, id ecs.EntityId) { created = id })
	cmds.Kill(victim)
	ecs.QueueAdd(cmds, victim, Position{})
	assert.Equal(t, 3, cmds.Pending())

	w.Flush()
	assert.Equal(t, victim, created, "the killed id is free for the queued create")
	has, err := ecs.Has[Position](w, created)
	require.NoError(t, err)
	assert.False(t, has, "component commands for killed entities are dropped")
}

func TestCommandsFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))
	ecs.MustRegisterComponent[Position](w)

	w.Commands().Kill(42)
	ecs.QueueRemove[Position](w.Commands(), 7)
	ran := false
	w.Commands().Defer(func() { ran = true })
	w.Flush()

	assert.True(t, ran, "failures do not stop the flush")
	require.Equal(t, 1, logs.FilterMessage("deferred kill failed").Len())
	entry := logs.FilterMessage("deferred kill failed").All()[0]
	assert.Contains(t, entry.ContextMap()["error"], ecs.ErrEntityNotAlive.Error())
	assert.Equal(t, 1, logs.FilterMessage("deferred component removal failed").Len())
}

func TestCommandsQueuedDuringFlushWait(t *testing.T) {
	w := newTestWorld()
	var order []string
	w.Commands().Defer(func() {
		order = append(order, "first")
		w.Commands().Defer(func() { order = append(order, "second") })
	})

	w.Flush()
	assert.Equal(t, []string{"first"}, order)
	assert.Equal(t, 1, w.Commands().Pending())

	w.Flush()
	assert.Equal(t, []string{"first", "second"}, order)
}
