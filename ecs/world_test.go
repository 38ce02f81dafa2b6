package ecs_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/plus3/tessera/ecs"
)

func TestCreateEntityIsSequential(t *testing.T) {
	w := newTestWorld()
	for want := ecs.EntityId(0); want < 5; want++ {
		assert.Equal(t, want, w.CreateEntity())
	}
	assert.Equal(t, ecs.EntityId(5), w.Ceiling())
	assert.Equal(t, 5, w.EntityCount())
}

func TestKillEntityRecyclesSmallestId(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 6; i++ {
		w.CreateEntity()
	}

	require.NoError(t, w.KillEntity(4))
	require.NoError(t, w.KillEntity(1))
	require.NoError(t, w.KillEntity(3))
	assert.Equal(t, 3, w.EntityCount())

	assert.Equal(t, ecs.EntityId(1), w.CreateEntity())
	assert.Equal(t, ecs.EntityId(3), w.CreateEntity())
	assert.Equal(t, ecs.EntityId(4), w.CreateEntity())
	assert.Equal(t, ecs.EntityId(6), w.CreateEntity())
	assert.Equal(t, ecs.EntityId(7), w.Ceiling())
}

func TestKillEntityErasesComponents(t *testing.T) {
	w := newTestWorld()
	id := w.CreateEntity()
	_, err := ecs.AddComponent(w, id, Position{X: 1})
	require.NoError(t, err)
	_, err = ecs.AddComponent(w, id, Name{Value: "a"})
	require.NoError(t, err)

	require.NoError(t, w.KillEntity(id))
	assert.False(t, w.Alive(id))
	assert.Empty(t, w.Components().ComponentTypesOf(id))

	reused := w.CreateEntity()
	assert.Equal(t, id, reused)
	_, err = ecs.GetComponent[Position](w, reused)
	assert.True(t, errors.Is(err, ecs.ErrEmptySlot), "a recycled id starts empty")
}

func TestKillEntityNotAlive(t *testing.T) {
	w := newTestWorld()
	id := w.CreateEntity()
	other := w.CreateEntity()

	assert.True(t, errors.Is(w.KillEntity(99), ecs.ErrEntityNotAlive), "never created")

	require.NoError(t, w.KillEntity(id))
	assert.True(t, errors.Is(w.KillEntity(id), ecs.ErrEntityNotAlive), "double kill")
	assert.Equal(t, 1, w.EntityCount())

	// The id is handed out exactly once.
	assert.Equal(t, id, w.CreateEntity())
	assert.Equal(t, ecs.EntityId(2), w.CreateEntity())
	assert.True(t, w.Alive(other))
}

func TestEntitiesIteratesLiveIds(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 5; i++ {
		w.CreateEntity()
	}
	require.NoError(t, w.KillEntity(0))
	require.NoError(t, w.KillEntity(3))

	var ids []ecs.EntityId
	for id := range w.Entities() {
		ids = append(ids, id)
	}
	assert.Equal(t, []ecs.EntityId{1, 2, 4}, ids)
}

func TestEntitiesCreatedBeforeRegistration(t *testing.T) {
	w := ecs.NewWorld()
	early := w.CreateEntity()
	ecs.MustRegisterComponent[Position](w)

	_, err := ecs.AddComponent(w, early, Position{})
	assert.True(t, errors.Is(err, ecs.ErrOutOfRange), "the store has no slot for the entity yet")

	p, err := ecs.EmplaceComponent(w, early, Position{X: 2})
	require.NoError(t, err)
	assert.Equal(t, float32(2), p.X)

	late := w.CreateEntity()
	_, err = ecs.AddComponent(w, late, Position{})
	assert.NoError(t, err)
}

func TestEmplaceComponentIdBeyondInt(t *testing.T) {
	w := newTestWorld()
	p, err := ecs.EmplaceComponent(w, ecs.EntityId(1<<63), Health{HP: 1})
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ecs.ErrOutOfRange))

	store, err := ecs.GetStore[Health](w)
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func TestComponentAccess(t *testing.T) {
	w := newTestWorld()
	id := w.CreateEntity()

	h, err := ecs.AddComponent(w, id, Health{HP: 10})
	require.NoError(t, err)
	h.HP--

	got, err := ecs.GetComponent[Health](w, id)
	require.NoError(t, err)
	assert.Equal(t, 9, got.HP)

	require.NoError(t, ecs.RemoveComponent[Health](w, id))
	_, err = ecs.GetComponent[Health](w, id)
	assert.True(t, errors.Is(err, ecs.ErrEmptySlot))

	_, err = ecs.AddComponent(w, id, 3.5)
	assert.True(t, errors.Is(err, ecs.ErrComponentNotRegistered))
	assert.True(t, errors.Is(ecs.RemoveComponent[float64](w, id), ecs.ErrComponentNotRegistered))
}

func TestWorldLogsLifecycle(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))

	id := w.CreateEntity()
	require.NoError(t, w.KillEntity(id))

	assert.Equal(t, 1, logs.FilterMessage("creating entity").Len())
	assert.Equal(t, 1, logs.FilterMessage("killing entity").Len())
}
