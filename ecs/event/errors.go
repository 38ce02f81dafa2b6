package event

import "github.com/pkg/errors"

var (
	// ErrNoHandler is returned when operating on an event type that was
	// never ensured on the bus.
	ErrNoHandler = errors.New("event: no handler for type")

	// ErrUnsortedIndices is returned by RemoveIndices when the positions are
	// not strictly ascending.
	ErrUnsortedIndices = errors.New("event: indices not strictly ascending")
)
