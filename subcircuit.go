// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// NewSubcircuit creates a component wrapping the circuit sub. Its ports are
// the pins of sub, in insertion order: input pins become input ports, output
// pins become output ports. The PropCircuit property is set to the name of
// sub.
//
// The ports are sampled at creation time. When the pin set of sub changes,
// existing subcircuits must be replaced by a new one obtained with
// Component.With in order to reflect the change.
//
func NewSubcircuit(sub *Circuit, props Properties, x, y int) (*Component, error) {
	if sub == nil {
		return nil, errors.New("nil subcircuit")
	}
	sub.sim.mu.Lock()
	defer sub.sim.mu.Unlock()
	props = props.Merge(Properties{PropCircuit: sub.name})
	return newComponent(KindSubcircuit, subcircuitSpec, props, x, y, sub)
}

// Stale returns true if c is a subcircuit whose ports no longer match the pins
// of its nested circuit.
//
func (c *Component) Stale() bool {
	if c.sub == nil {
		return false
	}
	c.sub.sim.mu.Lock()
	defer c.sub.sim.mu.Unlock()
	ps := c.sub.pins()
	if len(ps) != len(c.pins) {
		return true
	}
	for i := range ps {
		if ps[i] != c.pins[i] {
			return true
		}
	}
	return false
}

var subcircuitSpec = &KindSpec{
	ID:    "SUBCIRCUIT",
	Width: 4,
	Ports: func(c *Component) ([]Port, error) {
		if c.sub == nil {
			return nil, errors.New("no nested circuit")
		}
		ps := make([]Port, len(c.pins))
		for i, p := range c.pins {
			name := p.props.Label()
			if name == "" {
				name = "pin" + strconv.Itoa(i)
			}
			dir := Input
			if !isInputPin(p) {
				dir = Output
			}
			ps[i] = Port{name, dir, p.ports[0].Width}
		}
		return ps, nil
	},
	Update: updateSubcircuit,
}

// updateSubcircuit forwards the values seen on the input ports of c down to
// the matching pins of the nested state. Outputs travel the other way, see
// updatePin.
//
func updateSubcircuit(s *CircuitState, c *Component) {
	ch := s.child(c)
	if ch == nil {
		return
	}
	for i, pin := range c.pins {
		if c.ports[i].Dir != Input || pin.circuit != c.sub {
			continue
		}
		m, ok := ch.memory[pin].(*pinMemory)
		if !ok {
			continue
		}
		v := s.get(c, i)
		if v.Width() != pin.ports[0].Width || m.value.Equal(v) {
			continue
		}
		m.value = v
		s.sim.enqueue(ch, pin)
	}
}

// seedPins sets the input pins of the nested state ch to the values currently
// seen on the ports of c in s, so that a new nested state does not observe a
// transition from a default pin value.
//
func seedPins(s *CircuitState, c *Component, ch *CircuitState) {
	for i, pin := range c.pins {
		if c.ports[i].Dir != Input || pin.circuit != c.sub {
			continue
		}
		m, ok := ch.memory[pin].(*pinMemory)
		if !ok {
			continue
		}
		if v := s.get(c, i); v.Width() == pin.ports[0].Width {
			m.value = v
		}
	}
}
