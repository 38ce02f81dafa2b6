package ecs_test

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/tessera/ecs"
)

type armored struct {
	*Health
	*Shield
}

func TestQueryMatchesFullSignature(t *testing.T) {
	w := newTestWorld()
	e0, e1, e2 := w.CreateEntity(), w.CreateEntity(), w.CreateEntity()
	for _, id := range []ecs.EntityId{e0, e2} {
		_, err := ecs.AddComponent(w, id, Health{HP: 10 * int(id+1)})
		require.NoError(t, err)
	}
	for _, id := range []ecs.EntityId{e0, e1, e2} {
		_, err := ecs.AddComponent(w, id, Shield{Cap: 5})
		require.NoError(t, err)
	}

	query, err := ecs.NewQuery[armored](w)
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Health](), reflect.TypeFor[Shield]()}, query.Types())

	var visited []ecs.EntityId
	err = query.ForEach(16, func(w *ecs.World, dt float64, id ecs.EntityId, item armored) {
		assert.Equal(t, 16.0, dt)
		visited = append(visited, id)
		item.Health.HP -= item.Shield.Cap
	})
	require.NoError(t, err)
	assert.Equal(t, []ecs.EntityId{e0, e2}, visited, "entities without Health are skipped")

	h0, _ := ecs.GetComponent[Health](w, e0)
	h2, _ := ecs.GetComponent[Health](w, e2)
	assert.Equal(t, 5, h0.HP, "writes go to the live component")
	assert.Equal(t, 25, h2.HP)
	assert.Equal(t, 2, query.Count())
}

func TestSystemSkipsEntitiesMissingAComponent(t *testing.T) {
	w := ecs.NewWorld()
	ecs.MustRegisterComponent[Health](w)
	ecs.MustRegisterComponent[Shield](w)

	e0, e1, e2 := w.CreateEntity(), w.CreateEntity(), w.CreateEntity()
	for _, id := range []ecs.EntityId{e0, e2} {
		_, err := ecs.AddComponent(w, id, Health{HP: 10})
		require.NoError(t, err)
		_, err = ecs.AddComponent(w, id, Shield{Cap: 10})
		require.NoError(t, err)
	}
	_, err := ecs.AddComponent(w, e1, Shield{Cap: 10})
	require.NoError(t, err)

	wear, err := ecs.NewSystem(w, func(_ *ecs.World, _ float64, _ ecs.EntityId, item armored) {
		item.Health.HP--
		item.Shield.Cap -= 2
	})
	require.NoError(t, err)
	require.NoError(t, w.AddSystem("wear", wear))
	require.NoError(t, w.RunSystems())

	for _, id := range []ecs.EntityId{e0, e2} {
		h, err := ecs.GetComponent[Health](w, id)
		require.NoError(t, err)
		assert.Equal(t, 9, h.HP, "entity %d", id)
		s, err := ecs.GetComponent[Shield](w, id)
		require.NoError(t, err)
		assert.Equal(t, 8, s.Cap, "entity %d", id)
	}

	s1, err := ecs.GetComponent[Shield](w, e1)
	require.NoError(t, err)
	assert.Equal(t, 10, s1.Cap, "entity without Health is untouched")
	has, err := ecs.Has[Health](w, e1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestQueryIterStopsEarly(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 10; i++ {
		id := w.CreateEntity()
		_, err := ecs.AddComponent(w, id, Position{X: float32(i)})
		require.NoError(t, err)
	}

	query := ecs.MustQuery[struct{ *Position }](w)
	var xs []float32
	for id, item := range query.Iter() {
		if id == 3 {
			break
		}
		xs = append(xs, item.Position.X)
	}
	assert.Equal(t, []float32{0, 1, 2}, xs)

	total := float32(0)
	for item := range query.Values() {
		total += item.Position.X
	}
	assert.Equal(t, float32(45), total)
}

func TestQueryRescansEachIteration(t *testing.T) {
	w := newTestWorld()
	query := ecs.MustQuery[struct{ *Name }](w)
	assert.Zero(t, query.Count())

	id := w.CreateEntity()
	_, err := ecs.AddComponent(w, id, Name{Value: "late"})
	require.NoError(t, err)
	assert.Equal(t, 1, query.Count())

	require.NoError(t, w.KillEntity(id))
	assert.Zero(t, query.Count())
}

func TestQueryIgnoresEntitiesCreatedDuringScan(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 3; i++ {
		id := w.CreateEntity()
		_, err := ecs.AddComponent(w, id, Score(i))
		require.NoError(t, err)
	}

	visits := 0
	err := ecs.MustQuery[struct{ *Score }](w).ForEach(0, func(w *ecs.World, _ float64, _ ecs.EntityId, _ struct{ *Score }) {
		visits++
		if visits == 1 {
			id := w.CreateEntity()
			_, err := ecs.AddComponent(w, id, Score(99))
			require.NoError(t, err)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, visits, "the scan stops at the ceiling seen when it started")
}

func TestNewQueryErrors(t *testing.T) {
	w := newTestWorld()

	tests := []struct {
		name string
		new  func() error
		want error
	}{
		{
			name: "not a struct",
			new:  func() error { _, err := ecs.NewQuery[*Position](w); return err },
			want: ecs.ErrInvalidQuery,
		},
		{
			name: "empty struct",
			new:  func() error { _, err := ecs.NewQuery[struct{}](w); return err },
			want: ecs.ErrInvalidQuery,
		},
		{
			name: "value field",
			new:  func() error { _, err := ecs.NewQuery[struct{ Position }](w); return err },
			want: ecs.ErrInvalidQuery,
		},
		{
			name: "unregistered component",
			new:  func() error { _, err := ecs.NewQuery[struct{ *float64 }](w); return err },
			want: ecs.ErrComponentNotRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.new()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	assert.Panics(t, func() { ecs.MustQuery[struct{}](w) })
}

func TestQueryAfterUnregister(t *testing.T) {
	w := newTestWorld()
	query := ecs.MustQuery[struct{ *Tag }](w)
	require.NoError(t, ecs.UnregisterComponent[Tag](w))

	err := query.ForEach(0, func(*ecs.World, float64, ecs.EntityId, struct{ *Tag }) {})
	assert.True(t, errors.Is(err, ecs.ErrComponentNotRegistered))
	assert.Zero(t, query.Count())
}
