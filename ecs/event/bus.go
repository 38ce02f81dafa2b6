// Package event provides type-keyed event queues for decoupled signaling
// between systems.
//
// A Bus holds one Handler per event type. Types must be ensured before use:
//
//	bus := event.NewBus()
//	event.EnsureHandlers(bus, event.Ensurer[Damage], event.Ensurer[Death])
//	if err := event.Push(bus, Damage{Target: id, Amount: 3}); err != nil {
//		return err
//	}
//
// At the end of a frame RetainOnly clears every queue except the listed types,
// which keeps long-lived events around while dropping per-frame ones.
package event

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type busEntry struct {
	handler any
	clear   func()
	len     func() int
}

// Bus owns the event queues of an application. Construct one in the
// composition root and pass it to whatever needs it.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]*busEntry
	log      *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the bus logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBus creates a bus without any handler.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[reflect.Type]*busEntry),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Logger returns the bus logger, for callers reporting failures of bus
// operations.
func (b *Bus) Logger() *zap.Logger {
	return b.log
}

// EnsureHandler returns the handler for E, creating it on first use.
func EnsureHandler[E any](b *Bus) *Handler[E] {
	t := reflect.TypeFor[E]()

	b.mu.RLock()
	entry, ok := b.handlers[t]
	b.mu.RUnlock()
	if ok {
		return entry.handler.(*Handler[E])
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.handlers[t]; ok {
		return entry.handler.(*Handler[E])
	}
	h := NewHandler[E]()
	b.handlers[t] = &busEntry{handler: h, clear: h.Clear, len: h.Len}
	b.log.Debug("event handler created", zap.Stringer("type", t))
	return h
}

// Ensurer is EnsureHandler without a return value, for use with
// EnsureHandlers.
func Ensurer[E any](b *Bus) {
	EnsureHandler[E](b)
}

// EnsureHandlers runs every ensurer against b.
func EnsureHandlers(b *Bus, ensurers ...func(*Bus)) {
	for _, ensure := range ensurers {
		ensure(b)
	}
}

// HandlerOf returns the handler for E if it has been ensured.
func HandlerOf[E any](b *Bus) (*Handler[E], error) {
	t := reflect.TypeFor[E]()
	b.mu.RLock()
	entry, ok := b.handlers[t]
	b.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrNoHandler, t.String())
	}
	return entry.handler.(*Handler[E]), nil
}

// Push appends e to the queue of its type.
func Push[E any](b *Bus, e E) error {
	h, err := HandlerOf[E](b)
	if err != nil {
		return err
	}
	h.Push(e)
	return nil
}

// Events returns the live queue of E. See Handler.View.
func Events[E any](b *Bus) ([]E, error) {
	h, err := HandlerOf[E](b)
	if err != nil {
		return nil, err
	}
	return h.View(), nil
}

// Snapshot returns a copy of the queue of E.
func Snapshot[E any](b *Bus) ([]E, error) {
	h, err := HandlerOf[E](b)
	if err != nil {
		return nil, err
	}
	return h.Snapshot(), nil
}

// Len returns the number of queued events of type E.
func Len[E any](b *Bus) (int, error) {
	h, err := HandlerOf[E](b)
	if err != nil {
		return 0, err
	}
	return h.Len(), nil
}

// RemoveAt removes the index-th event of type E. An out of range index is
// ignored.
func RemoveAt[E any](b *Bus, index int) error {
	h, err := HandlerOf[E](b)
	if err != nil {
		return err
	}
	h.RemoveAt(index)
	return nil
}

// RemoveValue removes the first event of type E equal to e.
func RemoveValue[E any](b *Bus, e E) (bool, error) {
	h, err := HandlerOf[E](b)
	if err != nil {
		return false, err
	}
	return h.RemoveValue(e), nil
}

// RemoveIndices removes several events of type E at once. Indices are
// positions in the queue before the call and must be strictly ascending.
func RemoveIndices[E any](b *Bus, indices []int) error {
	h, err := HandlerOf[E](b)
	if err != nil {
		return err
	}
	if err := h.RemoveIndices(indices); err != nil {
		return errors.Wrapf(err, "%s %v", reflect.TypeFor[E](), indices)
	}
	return nil
}

// Clear empties the queue of E.
func Clear[E any](b *Bus) error {
	h, err := HandlerOf[E](b)
	if err != nil {
		return err
	}
	h.Clear()
	return nil
}

// RetainOnly clears the queue of every ensured type not listed in keep.
func (b *Bus) RetainOnly(keep ...reflect.Type) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for t, entry := range b.handlers {
		if slices.Contains(keep, t) {
			continue
		}
		entry.clear()
	}
}

// ClearType empties the queue of t, for callers that only hold the
// reflect.Type of an event.
func (b *Bus) ClearType(t reflect.Type) error {
	b.mu.RLock()
	entry, ok := b.handlers[t]
	b.mu.RUnlock()
	if !ok {
		return errors.Wrap(ErrNoHandler, t.String())
	}
	entry.clear()
	return nil
}

// ClearAll empties every queue.
func (b *Bus) ClearAll() {
	b.RetainOnly()
}

// Types returns the ensured event types.
func (b *Bus) Types() []reflect.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	types := make([]reflect.Type, 0, len(b.handlers))
	for t := range b.handlers {
		types = append(types, t)
	}
	slices.SortFunc(types, func(x, y reflect.Type) int {
		return strings.Compare(x.String(), y.String())
	})
	return types
}

// Pending returns the queue length of every ensured type.
func (b *Bus) Pending() map[reflect.Type]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pending := make(map[reflect.Type]int, len(b.handlers))
	for t, entry := range b.handlers {
		pending[t] = entry.len()
	}
	return pending
}
