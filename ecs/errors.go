package ecs

import "github.com/pkg/errors"

// Storage errors.
var (
	ErrOutOfRange = errors.New("ecs: index out of range")
	ErrEmptySlot  = errors.New("ecs: slot holds no component")
)

// Registry and world errors.
var (
	ErrComponentAlreadyRegistered = errors.New("ecs: component already registered")
	ErrComponentNotRegistered     = errors.New("ecs: component not registered")
	ErrSystemAlreadyRegistered    = errors.New("ecs: system already registered")
	ErrSystemNotRegistered        = errors.New("ecs: system not registered")
	ErrEntityNotAlive             = errors.New("ecs: entity is not alive")
	ErrInvalidQuery               = errors.New("ecs: invalid query type")
)
