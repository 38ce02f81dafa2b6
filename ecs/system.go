package ecs

import (
	"github.com/benbjohnson/clock"
)

// System is a unit of per-frame behavior. Systems are registered on a World
// under a unique name and run once per World.RunSystems call.
type System interface {
	Update() error
}

// Activatable is implemented by systems carrying an activation flag.
// RunSystems ignores the flag; RunActiveSystems honours it.
type Activatable interface {
	Active() bool
	SetActive(active bool)
}

// BaseSystem provides the activation flag. Embed it in custom systems.
// The zero value is active.
type BaseSystem struct {
	inactive bool
}

func (b *BaseSystem) Active() bool          { return !b.inactive }
func (b *BaseSystem) SetActive(active bool) { b.inactive = !active }

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func() error

func (f SystemFunc) Update() error { return f() }

// GenericSystem runs a callback over a query every update. The delta time
// passed to the callback is the time since the system's previous update, in
// milliseconds, measured by a clock private to the system.
type GenericSystem[T any] struct {
	BaseSystem
	query *Query[T]
	fn    QueryFunc[T]
	clock *Clock
}

type systemOptions struct {
	clockSource clock.Clock
}

// SystemOption configures a GenericSystem.
type SystemOption func(*systemOptions)

// WithClockSource sets the time source of the system's clock.
func WithClockSource(source clock.Clock) SystemOption {
	return func(o *systemOptions) {
		o.clockSource = source
	}
}

// NewSystem creates a system that calls fn for each entity matching T.
func NewSystem[T any](w *World, fn QueryFunc[T], opts ...SystemOption) (*GenericSystem[T], error) {
	var options systemOptions
	for _, opt := range opts {
		opt(&options)
	}

	query, err := NewQuery[T](w)
	if err != nil {
		return nil, err
	}
	return &GenericSystem[T]{
		query: query,
		fn:    fn,
		clock: NewClock(options.clockSource),
	}, nil
}

// Update runs the callback over every matching entity.
func (s *GenericSystem[T]) Update() error {
	dt := s.clock.Restart()
	return s.query.ForEach(dt, s.fn)
}

// Query returns the query the system iterates.
func (s *GenericSystem[T]) Query() *Query[T] {
	return s.query
}
