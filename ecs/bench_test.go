package ecs_test

import (
	"testing"

	"github.com/plus3/tessera/ecs"
)

func populated(b *testing.B, n int) *ecs.World {
	b.Helper()
	w := newTestWorld()
	for i := 0; i < n; i++ {
		id := w.CreateEntity()
		ecs.AddComponent(w, id, Position{X: float32(i)})
		if i%2 == 0 {
			ecs.AddComponent(w, id, Velocity{DX: 1, DY: 1})
		}
		if i%3 == 0 {
			ecs.AddComponent(w, id, Health{HP: 100})
		}
	}
	return w
}

func BenchmarkCreateEntity(b *testing.B) {
	w := newTestWorld()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.CreateEntity()
	}
}

func BenchmarkCreateKillCycle(b *testing.B) {
	w := populated(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := ecs.EntityId(i % 1000)
		w.KillEntity(id)
		w.CreateEntity()
	}
}

func BenchmarkAddComponent(b *testing.B) {
	w := populated(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ecs.AddComponent(w, ecs.EntityId(i%1000), Name{Value: "bench"})
	}
}

func BenchmarkGetComponent(b *testing.B) {
	w := populated(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ecs.GetComponent[Position](w, ecs.EntityId(i%1000))
	}
}

func BenchmarkQueryForEach(b *testing.B) {
	for _, n := range []int{1_000, 10_000, 100_000} {
		w := populated(b, n)
		query := ecs.MustQuery[struct {
			*Position
			*Velocity
		}](w)

		b.Run(sizeName(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				query.ForEach(16, func(_ *ecs.World, dt float64, _ ecs.EntityId, item struct {
					*Position
					*Velocity
				}) {
					item.Position.X += item.Velocity.DX * float32(dt)
				})
			}
		})
	}
}

func BenchmarkQueryIter(b *testing.B) {
	w := populated(b, 10_000)
	query := ecs.MustQuery[struct {
		*Position
		*Velocity
		*Health
	}](w)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, item := range query.Iter() {
			item.Health.HP--
		}
	}
}

func BenchmarkRunSystems(b *testing.B) {
	w := populated(b, 10_000)
	movement, err := ecs.NewSystem(w, func(_ *ecs.World, dt float64, _ ecs.EntityId, item struct {
		*Position
		*Velocity
	}) {
		item.Position.X += item.Velocity.DX
	})
	if err != nil {
		b.Fatal(err)
	}
	w.AddSystem("movement", movement)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.RunSystems()
	}
}

func sizeName(n int) string {
	switch {
	case n >= 1_000_000:
		return "1M"
	case n >= 100_000:
		return "100k"
	case n >= 10_000:
		return "10k"
	default:
		return "1k"
	}
}
