// Package app holds several named worlds and tracks which one is current,
// for hosts that switch between scenes or run a menu world next to a game
// world.
package app

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs"
)

var (
	ErrKeyNotFound      = errors.New("app: key not found")
	ErrKeyAlreadyExists = errors.New("app: key already exists")
)

// App owns a set of worlds keyed by K. Worlds are kept in insertion order.
type App[K comparable] struct {
	worlds  *linkedhashmap.Map
	current K
	hasCur  bool
	log     *zap.Logger
}

// Option configures an App.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger sets the logger handed to worlds created through NewWorld.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates an App without worlds.
func New[K comparable](opts ...Option) *App[K] {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &App[K]{
		worlds: linkedhashmap.New(),
		log:    o.log,
	}
}

func keyString[K comparable](key K) string {
	return fmt.Sprint(key)
}

// AddWorld stores w under key.
func (a *App[K]) AddWorld(key K, w *ecs.World) error {
	if _, found := a.worlds.Get(key); found {
		return errors.Wrap(ErrKeyAlreadyExists, keyString(key))
	}
	a.worlds.Put(key, w)
	a.log.Debug("world added", zap.String("key", keyString(key)))
	return nil
}

// NewWorld creates a world, stores it under key and returns it. The app
// logger, named after key, is used unless opts override it.
func (a *App[K]) NewWorld(key K, opts ...ecs.Option) (*ecs.World, error) {
	opts = append([]ecs.Option{ecs.WithLogger(a.log.Named(keyString(key)))}, opts...)
	w := ecs.NewWorld(opts...)
	if err := a.AddWorld(key, w); err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveWorld drops the world stored under key. Removing the current world
// leaves the app without a current world.
func (a *App[K]) RemoveWorld(key K) error {
	if _, found := a.worlds.Get(key); !found {
		return errors.Wrap(ErrKeyNotFound, keyString(key))
	}
	a.worlds.Remove(key)
	if a.hasCur && a.current == key {
		var zero K
		a.current, a.hasCur = zero, false
	}
	a.log.Debug("world removed", zap.String("key", keyString(key)))
	return nil
}

// World returns the world stored under key.
func (a *App[K]) World(key K) (*ecs.World, error) {
	value, found := a.worlds.Get(key)
	if !found {
		return nil, errors.Wrap(ErrKeyNotFound, keyString(key))
	}
	return value.(*ecs.World), nil
}

// SetCurrent makes the world under key the current one.
func (a *App[K]) SetCurrent(key K) error {
	if _, found := a.worlds.Get(key); !found {
		return errors.Wrap(ErrKeyNotFound, keyString(key))
	}
	a.current, a.hasCur = key, true
	return nil
}

// Current returns the current world and its key.
func (a *App[K]) Current() (K, *ecs.World, error) {
	if !a.hasCur {
		var zero K
		return zero, nil, errors.Wrap(ErrKeyNotFound, "no current world")
	}
	w, err := a.World(a.current)
	return a.current, w, err
}

// Keys returns the world keys in insertion order.
func (a *App[K]) Keys() []K {
	keys := make([]K, 0, a.worlds.Size())
	for _, key := range a.worlds.Keys() {
		keys = append(keys, key.(K))
	}
	return keys
}

// Len returns the number of worlds.
func (a *App[K]) Len() int {
	return a.worlds.Size()
}

// RunCurrent runs the systems of the current world once.
func (a *App[K]) RunCurrent() error {
	_, w, err := a.Current()
	if err != nil {
		return err
	}
	return w.RunSystems()
}
