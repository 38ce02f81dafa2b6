package ecs

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/kamstrup/intmap"
	"github.com/pkg/errors"
)

// EntityId is an opaque entity identity. It doubles as the slot index of the
// entity in every component store.
type EntityId uint64

func compareEntityIds(a, b any) int {
	x, y := a.(EntityId), b.(EntityId)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// entityPool allocates and recycles entity ids. Freed ids are handed out
// again smallest first, before any new id is minted.
type entityPool struct {
	ceiling EntityId
	free    *binaryheap.Heap
	freed   *intmap.Map[EntityId, struct{}]
}

func newEntityPool() *entityPool {
	return &entityPool{
		free:  binaryheap.NewWith(compareEntityIds),
		freed: intmap.New[EntityId, struct{}](64),
	}
}

func (p *entityPool) allocate() EntityId {
	if value, ok := p.free.Pop(); ok {
		id := value.(EntityId)
		p.freed.Del(id)
		return id
	}
	id := p.ceiling
	p.ceiling++
	return id
}

func (p *entityPool) release(id EntityId) error {
	if !p.alive(id) {
		return errors.Wrapf(ErrEntityNotAlive, "entity %d", id)
	}
	p.free.Push(id)
	p.freed.Put(id, struct{}{})
	return nil
}

func (p *entityPool) alive(id EntityId) bool {
	if id >= p.ceiling {
		return false
	}
	_, dead := p.freed.Get(id)
	return !dead
}

func (p *entityPool) liveCount() int {
	return int(p.ceiling) - p.freed.Len()
}
