package event_test

import (
	"fmt"
	"reflect"

	"github.com/plus3/tessera/ecs/event"
)

type Collision struct {
	A, B uint64
}

type Achievement struct {
	Title string
}

// ExampleBus shows a frame policy where achievements survive across frames
// while collisions are dropped at the end of every frame.
func ExampleBus() {
	bus := event.NewBus()
	event.EnsureHandlers(bus, event.Ensurer[Collision], event.Ensurer[Achievement])

	_ = event.Push(bus, Collision{A: 1, B: 2})
	_ = event.Push(bus, Collision{A: 3, B: 4})
	_ = event.Push(bus, Achievement{Title: "first blood"})

	collisions, _ := event.Events[Collision](bus)
	fmt.Println("collisions this frame:", len(collisions))

	bus.RetainOnly(reflect.TypeFor[Achievement]())

	collisions, _ = event.Events[Collision](bus)
	achievements, _ := event.Events[Achievement](bus)
	fmt.Println("collisions after frame:", len(collisions))
	fmt.Println("achievements after frame:", achievements[0].Title)

	// Output:
	// collisions this frame: 2
	// collisions after frame: 0
	// achievements after frame: first blood
}
