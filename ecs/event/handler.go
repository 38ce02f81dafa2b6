package event

import (
	"reflect"
	"slices"
	"sync"
)

// Handler is the queue of pending events of one type. Push, Clear and the
// removal methods are safe for concurrent use.
type Handler[E any] struct {
	mu     sync.Mutex
	events []E
}

// NewHandler creates an empty queue.
func NewHandler[E any]() *Handler[E] {
	return &Handler[E]{}
}

// Push appends e to the queue.
func (h *Handler[E]) Push(e E) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

// View returns the live backing slice. No lock is held once View returns:
// reading it while another goroutine pushes or removes is a race, so callers
// sharing a handler across goroutines should use Snapshot.
func (h *Handler[E]) View() []E {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

// Snapshot returns a copy of the queue taken under the lock.
func (h *Handler[E]) Snapshot() []E {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.events)
}

// Len returns the number of queued events.
func (h *Handler[E]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// Clear empties the queue.
func (h *Handler[E]) Clear() {
	h.mu.Lock()
	clear(h.events)
	h.events = h.events[:0]
	h.mu.Unlock()
}

// RemoveAt removes the event at index and shifts later events down. An out
// of range index is ignored.
func (h *Handler[E]) RemoveAt(index int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeAt(index)
}

// RemoveValue removes the first queued event deeply equal to e and reports
// whether one was found.
func (h *Handler[E]) RemoveValue(e E) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.events {
		if reflect.DeepEqual(h.events[i], e) {
			h.removeAt(i)
			return true
		}
	}
	return false
}

// RemoveIndices removes the events found at the given positions of the
// queue as it was before the call. Positions must be strictly ascending;
// otherwise nothing is removed and ErrUnsortedIndices is returned. Positions
// past the end are ignored.
func (h *Handler[E]) RemoveIndices(indices []int) error {
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return ErrUnsortedIndices
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for _, index := range indices {
		if index < 0 || index-removed >= len(h.events) {
			continue
		}
		h.removeAt(index - removed)
		removed++
	}
	return nil
}

func (h *Handler[E]) removeAt(index int) {
	if index < 0 || index >= len(h.events) {
		return
	}
	h.events = slices.Delete(h.events, index, index+1)
}
