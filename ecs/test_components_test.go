package ecs_test

import "github.com/plus3/tessera/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	HP int
}

type Shield struct {
	Cap int
}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

type Inventory struct {
	Items []string
}

func newTestWorld() *ecs.World {
	w := ecs.NewWorld()
	ecs.MustRegisterComponent[Position](w)
	ecs.MustRegisterComponent[Velocity](w)
	ecs.MustRegisterComponent[Name](w)
	ecs.MustRegisterComponent[Health](w)
	ecs.MustRegisterComponent[Shield](w)
	ecs.MustRegisterComponent[Score](w)
	ecs.MustRegisterComponent[Tag](w)
	ecs.MustRegisterComponent[Inventory](w)
	return w
}
