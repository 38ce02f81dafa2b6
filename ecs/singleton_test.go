package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/tessera/ecs"
)

type GameTime struct {
	Ticks int
}

func TestSingleton(t *testing.T) {
	w := ecs.NewWorld()

	s := ecs.NewSingleton(w, GameTime{Ticks: 3})
	require.True(t, s.Exists())
	s.Get().Ticks++

	again := ecs.NewSingleton(w, GameTime{Ticks: 100})
	assert.Equal(t, 4, again.Get().Ticks, "an existing singleton is not overwritten")

	got, ok := ecs.GetSingleton[GameTime](w)
	require.True(t, ok)
	assert.Same(t, s.Get(), got)

	replaced := ecs.SetSingleton(w, GameTime{Ticks: 9})
	assert.Same(t, replaced, s.Get())

	assert.True(t, ecs.RemoveSingleton[GameTime](w))
	assert.False(t, ecs.RemoveSingleton[GameTime](w))
	assert.False(t, s.Exists())
	assert.Nil(t, s.Get())
}

func TestSingletonZeroValue(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.NewSingleton[GameTime](w)
	assert.Equal(t, GameTime{}, *s.Get())

	_, ok := ecs.GetSingleton[Position](w)
	assert.False(t, ok)
}
