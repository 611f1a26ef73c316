package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity is returned when a command targets an entity the
	// plugin does not expose.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownAction is returned for commands an entity does not support.
	ErrUnknownAction = errors.New("unknown action")
)

// Error is the host-level error for a failed entity operation. Plugins
// translate integration-specific failures into this type so callers (the
// HTTP API, the MQTT command path) can handle every integration the same way.
type Error struct {
	Plugin string
	Entity string
	Op     string
	Err    error
}

// NewError creates a host error for op on entity
func NewError(plugin, entity, op string, err error) *Error {
	return &Error{Plugin: plugin, Entity: entity, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s failed: %v", e.Plugin, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s failed: %v", e.Plugin, e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsHostError reports whether err is (or wraps) a *Error
func IsHostError(err error) bool {
	var hostErr *Error
	return errors.As(err, &hostErr)
}
