// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrRecursive is returned when adding a subcircuit would make a circuit
// contain itself.
//
var ErrRecursive = errors.New("circuit cannot contain itself")

// PlacementError is returned when a component footprint collides with an
// existing component.
//
type PlacementError struct {
	Component *Component
	Other     *Component
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%s at (%d, %d) collides with %s at (%d, %d)",
		e.Component.Name(), e.Component.x, e.Component.y,
		e.Other.Name(), e.Other.x, e.Other.y)
}

// WidthError is returned when ports of different widths would be linked
// together or when a component update cannot rewire a link.
//
type WidthError struct {
	Want, Got int
	Port      string
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("bit width mismatch on %s: expected %d, got %d", e.Port, e.Want, e.Got)
}

// PropertyError reports a malformed property value.
//
type PropertyError struct {
	Key, Value, Reason string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("invalid property %s=%q: %s", e.Key, e.Value, e.Reason)
}

// KindError reports an unknown component kind identifier.
//
type KindError struct {
	ID string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("unknown component kind %q", e.ID)
}

// OscillationError is attached to a CircuitState when propagation does not
// settle within the simulator's iteration bound.
//
type OscillationError struct {
	Circuit    string
	Iterations int
}

func (e *OscillationError) Error() string {
	return fmt.Sprintf("oscillation apparent in %s: no quiescence after %d iterations", e.Circuit, e.Iterations)
}

// IsValidation returns true if err (or its cause) is one of the structural
// validation errors of this package.
//
func IsValidation(err error) bool {
	switch errors.Cause(err).(type) {
	case *PlacementError, *WidthError, *PropertyError, *KindError:
		return true
	}
	return errors.Cause(err) == ErrRecursive
}
