// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"strconv"
)

// common port names
const (
	pIn     = "in"
	pOut    = "out"
	pEnable = "enable"
	pClk    = "clk"
	pClear  = "clear"
)

// PropFanouts is the number of outputs of a splitter.
//
const PropFanouts = "fanouts"

func init() {
	validators[PropFanouts] = intRange(1, MaxWidth)

	kinds[KindPin] = &KindSpec{
		ID:       "PIN",
		Defaults: Properties{PropBits: "1", PropDirection: DirIn},
		Width:    2,
		Ports:    pinPorts,
		Memory: func(c *Component) interface{} {
			return &pinMemory{value: ValueOf(c.ports[0].Width, 0)}
		},
		Update: updatePin,
	}
	kinds[KindClock] = &KindSpec{
		ID:    "CLOCK",
		Width: 2,
		Ports: func(*Component) ([]Port, error) {
			return []Port{{pClk, Output, 1}}, nil
		},
		Update: func(s *CircuitState, c *Component) {
			s.push(c, 0, s.sim.clock.value())
		},
	}
	kinds[KindSplitter] = &KindSpec{
		ID:       "SPLITTER",
		Defaults: Properties{PropBits: "2", PropFanouts: "2"},
		Ports:    splitterPorts,
		Update:   updateSplitter,
	}
	kinds[KindAnd] = newGate("AND", and, false)
	kinds[KindOr] = newGate("OR", or, false)
	kinds[KindNand] = newGate("NAND", and, true)
	kinds[KindNor] = newGate("NOR", or, true)
	kinds[KindXor] = newGate("XOR", xor, false)
	kinds[KindXnor] = newGate("XNOR", xor, true)
	kinds[KindNot] = &KindSpec{
		ID:       "NOT",
		Defaults: Properties{PropBits: "1"},
		Ports: func(c *Component) ([]Port, error) {
			w, err := c.props.Int(PropBits, 1)
			if err != nil {
				return nil, err
			}
			return []Port{{pIn, Input, w}, {pOut, Output, w}}, nil
		},
		Update: func(s *CircuitState, c *Component) {
			s.push(c, 1, not(s.get(c, 0)))
		},
	}
	kinds[KindBuffer] = &KindSpec{
		ID:       "BUFFER",
		Defaults: Properties{PropBits: "1"},
		Ports: func(c *Component) ([]Port, error) {
			w, err := c.props.Int(PropBits, 1)
			if err != nil {
				return nil, err
			}
			return []Port{{pIn, Input, w}, {pEnable, Input, 1}, {pOut, Output, w}}, nil
		},
		Update: updateBuffer,
	}
	kinds[KindRegister] = registerSpec
	kinds[KindRAM] = ramSpec
	kinds[KindMux] = muxSpec
	kinds[KindAdder] = adderSpec
	kinds[KindSubcircuit] = subcircuitSpec
}

// Pins

type pinMemory struct {
	value Value
}

func isInputPin(c *Component) bool {
	return c.props[PropDirection] != DirOut
}

func pinPorts(c *Component) ([]Port, error) {
	w, err := c.props.Int(PropBits, 1)
	if err != nil {
		return nil, err
	}
	name := c.props.Label()
	if name == "" {
		name = "pin"
	}
	// an input pin drives its port, an output pin reads it.
	dir := Output
	if !isInputPin(c) {
		dir = Input
	}
	return []Port{{name, dir, w}}, nil
}

func updatePin(s *CircuitState, c *Component) {
	if isInputPin(c) {
		s.push(c, 0, s.memory[c].(*pinMemory).value)
		return
	}
	// forward output pins to the enclosing subcircuit.
	p := s.parentState()
	if p == nil || !p.alive {
		return
	}
	sc := s.parentComp
	for i, pin := range sc.pins {
		if pin == c {
			if v := s.get(c, 0); sc.ports[i].Width == v.Width() {
				p.push(sc, i, v)
			}
			return
		}
	}
}

// Gates

func newGate(id string, fn func(...Value) Value, invert bool) *KindSpec {
	return &KindSpec{
		ID:       id,
		Defaults: Properties{PropBits: "1", PropInputs: "2"},
		Width:    4,
		Ports:    gatePorts,
		Update: func(s *CircuitState, c *Component) {
			n := len(c.ports) - 1
			vs := make([]Value, n)
			for i := range vs {
				vs[i] = s.get(c, i)
			}
			v := fn(vs...)
			if invert {
				v = not(v)
			}
			s.push(c, n, v)
		},
	}
}

func gatePorts(c *Component) ([]Port, error) {
	w, err := c.props.Int(PropBits, 1)
	if err != nil {
		return nil, err
	}
	n, err := c.props.Int(PropInputs, 2)
	if err != nil {
		return nil, err
	}
	ps := make([]Port, n+1)
	for i := 0; i < n; i++ {
		ps[i] = Port{pIn + strconv.Itoa(i), Input, w}
	}
	ps[n] = Port{pOut, Output, w}
	return ps, nil
}

// Controlled buffer

func updateBuffer(s *CircuitState, c *Component) {
	w := c.ports[2].Width
	switch s.get(c, 1).Bit(0) {
	case One:
		s.push(c, 2, s.get(c, 0))
	case Zero, Floating:
		s.push(c, 2, NewValue(w))
	default:
		s.push(c, 2, ErrorValue(w))
	}
}

// Splitter

// splitWidths returns the widths of the outputs of a splitter: every output
// gets bits/fanouts bits, the last one also gets the remainder.
//
func splitWidths(bits, fanouts int) []int {
	ws := make([]int, fanouts)
	for i := range ws {
		ws[i] = bits / fanouts
	}
	ws[fanouts-1] += bits % fanouts
	return ws
}

func splitterPorts(c *Component) ([]Port, error) {
	w, err := c.props.Int(PropBits, 2)
	if err != nil {
		return nil, err
	}
	f, err := c.props.Int(PropFanouts, 2)
	if err != nil {
		return nil, err
	}
	if f > w {
		return nil, &PropertyError{Key: PropFanouts, Value: c.props[PropFanouts], Reason: "more fanouts than bits"}
	}
	ps := []Port{{pIn, Input, w}}
	for i, fw := range splitWidths(w, f) {
		ps = append(ps, Port{pOut + strconv.Itoa(i), Output, fw})
	}
	return ps, nil
}

func updateSplitter(s *CircuitState, c *Component) {
	in := s.get(c, 0)
	from := 0
	for i := 1; i < len(c.ports); i++ {
		w := c.ports[i].Width
		s.push(c, i, in.Slice(from, w))
		from += w
	}
}
