package main

import (
	"math/rand"
	"reflect"

	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs"
	"github.com/plus3/tessera/ecs/event"
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	HP int
}

type Shield struct {
	Cap int
}

type Lifetime struct {
	RemainingMs float64
}

// Hit is pushed when an entity leaves the arena and bounces back.
type Hit struct {
	Target ecs.EntityId
	Damage int
}

// Death is kept across frames and drained by the reaper.
type Death struct {
	Target ecs.EntityId
}

const (
	arenaSize  = 1000
	reapBudget = 256 // deaths handled per frame, the rest wait in the queue
)

// workload owns the components, systems and event queues the harness drives.
type workload struct {
	world *ecs.World
	bus   *event.Bus
	rng   *rand.Rand
	log   *zap.Logger

	positions  *ecs.SparseStore[Position]
	velocities *ecs.SparseStore[Velocity]
	healths    *ecs.SparseStore[Health]
	shields    *ecs.SparseStore[Shield]
	lifetimes  *ecs.SparseStore[Lifetime]

	pendingKill map[ecs.EntityId]bool

	spawned int64
	killed  int64
}

func newWorkload(w *ecs.World, bus *event.Bus, seed int64) (*workload, error) {
	wl := &workload{
		world: w,
		bus:   bus,
		rng:   rand.New(rand.NewSource(seed)),
		log:   w.Logger().Named("workload"),

		pendingKill: make(map[ecs.EntityId]bool),
	}

	var err error
	if wl.positions, err = ecs.RegisterComponent[Position](w); err != nil {
		return nil, err
	}
	if wl.velocities, err = ecs.RegisterComponent[Velocity](w); err != nil {
		return nil, err
	}
	if wl.healths, err = ecs.RegisterComponent[Health](w); err != nil {
		return nil, err
	}
	if wl.shields, err = ecs.RegisterComponent[Shield](w); err != nil {
		return nil, err
	}
	if wl.lifetimes, err = ecs.RegisterComponent[Lifetime](w); err != nil {
		return nil, err
	}

	event.EnsureHandlers(bus, event.Ensurer[Hit], event.Ensurer[Death])

	movement, err := ecs.NewSystem(w, wl.move)
	if err != nil {
		return nil, err
	}
	damage, err := ecs.NewSystem(w, wl.damage)
	if err != nil {
		return nil, err
	}
	aging, err := ecs.NewSystem(w, wl.age)
	if err != nil {
		return nil, err
	}

	// Names order the systems: movement, then damage, then aging, then reaping.
	for name, system := range map[string]ecs.System{
		"10_movement": movement,
		"20_damage":   damage,
		"30_aging":    aging,
		"40_reaper":   ecs.SystemFunc(wl.reap),
	} {
		if err := w.AddSystem(name, system); err != nil {
			return nil, err
		}
	}
	return wl, nil
}

// spawn creates one entity with a random subset of the workload components.
func (wl *workload) spawn() ecs.EntityId {
	id := wl.world.CreateEntity()
	wl.populate(wl.world, id)
	return id
}

func (wl *workload) populate(_ *ecs.World, id ecs.EntityId) {
	r, i := wl.rng, int(id)
	_, err := wl.positions.Emplace(i, Position{X: r.Float32() * arenaSize, Y: r.Float32() * arenaSize})
	wl.check("emplace position", id, err)
	if r.Intn(4) != 0 {
		_, err = wl.velocities.Emplace(i, Velocity{DX: r.Float32()*2 - 1, DY: r.Float32()*2 - 1})
		wl.check("emplace velocity", id, err)
	}
	if r.Intn(2) == 0 {
		_, err = wl.healths.Emplace(i, Health{HP: 50 + r.Intn(50)})
		wl.check("emplace health", id, err)
		_, err = wl.shields.Emplace(i, Shield{Cap: r.Intn(20)})
		wl.check("emplace shield", id, err)
	}
	if r.Intn(3) == 0 {
		_, err = wl.lifetimes.Emplace(i, Lifetime{RemainingMs: float64(500 + r.Intn(5000))})
		wl.check("emplace lifetime", id, err)
	}
	wl.spawned++
}

// check logs err, if any, against the entity it concerns.
func (wl *workload) check(op string, id ecs.EntityId, err error) {
	if err != nil {
		wl.log.Warn("workload "+op+" failed", zap.Uint64("entity", uint64(id)), zap.Error(err))
	}
}

func (wl *workload) move(w *ecs.World, dt float64, id ecs.EntityId, e struct {
	*Position
	*Velocity
}) {
	e.Position.X += e.Velocity.DX * float32(dt)
	e.Position.Y += e.Velocity.DY * float32(dt)
	if e.Position.X < 0 || e.Position.X > arenaSize || e.Position.Y < 0 || e.Position.Y > arenaSize {
		e.Velocity.DX, e.Velocity.DY = -e.Velocity.DX, -e.Velocity.DY
		wl.check("push hit", id, event.Push(wl.bus, Hit{Target: id, Damage: 5}))
	}
}

func (wl *workload) damage(w *ecs.World, dt float64, id ecs.EntityId, e struct {
	*Health
	*Shield
}) {
	e.Health.HP--
	if e.Shield.Cap > 0 {
		e.Shield.Cap -= 2
	}
	if e.Health.HP <= 0 {
		wl.check("push death", id, event.Push(wl.bus, Death{Target: id}))
	}
}

func (wl *workload) age(w *ecs.World, dt float64, id ecs.EntityId, e struct{ *Lifetime }) {
	e.Lifetime.RemainingMs -= dt
	if e.Lifetime.RemainingMs <= 0 {
		ecs.QueueRemove[Lifetime](w.Commands(), id)
		wl.check("push death", id, event.Push(wl.bus, Death{Target: id}))
	}
}

// reap applies queued hits and turns deaths into deferred kills followed by
// respawns. Hits live for one frame; deaths stay queued until handled.
func (wl *workload) reap() error {
	hits, err := event.Snapshot[Hit](wl.bus)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		health, err := wl.healths.Get(int(hit.Target))
		if err != nil {
			continue
		}
		if shield, err := wl.shields.Get(int(hit.Target)); err == nil && shield.Cap > 0 {
			shield.Cap -= hit.Damage
			continue
		}
		health.HP -= hit.Damage
	}

	deaths, err := event.Snapshot[Death](wl.bus)
	if err != nil {
		return err
	}
	// Deaths of entities already queued for a kill are dropped whatever the
	// budget: once the kill is flushed the id may belong to a respawn.
	handled := make([]int, 0, len(deaths))
	budget := reapBudget
	for i, death := range deaths {
		switch {
		case !wl.world.Alive(death.Target) || wl.pendingKill[death.Target]:
			handled = append(handled, i)
		case budget > 0:
			budget--
			handled = append(handled, i)
			wl.kill(death.Target)
		}
	}
	if err := event.RemoveIndices[Death](wl.bus, handled); err != nil {
		return err
	}

	wl.bus.RetainOnly(reflect.TypeFor[Death]())
	return nil
}

func (wl *workload) kill(id ecs.EntityId) {
	commands := wl.world.Commands()
	commands.Kill(id)
	commands.Create(wl.populate)
	commands.Defer(func() { delete(wl.pendingKill, id) })
	wl.pendingKill[id] = true
	wl.killed++
}

// churn kills a random fraction of the live entities and replaces them.
func (wl *workload) churn(fraction float64) {
	live := wl.world.EntityCount()
	n := int(float64(live) * fraction)
	if n == 0 {
		return
	}
	ceiling := int(wl.world.Ceiling())
	for i := 0; i < n; i++ {
		id := ecs.EntityId(wl.rng.Intn(ceiling))
		if wl.world.Alive(id) && !wl.pendingKill[id] {
			wl.kill(id)
		}
	}
}
