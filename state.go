// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"github.com/pkg/errors"
)

// A CircuitState is one concrete value assignment for one instantiation of a
// Circuit: the values on its links and the memory of its stateful components.
//
// States live in an arena owned by the Simulator and are addressed by stable
// IDs. A state created for a subcircuit component records its parent state
// and the subcircuit component it sits under. IDs are never reused, so a
// destroyed state still knows its ancestry.
//
type CircuitState struct {
	sim     *Simulator
	id      int
	circuit *Circuit
	alive   bool

	parent     int        // parent state ID, -1 for top level states
	parentComp *Component // subcircuit component in the parent state
	children   map[*Component]int

	driven map[PortRef]Value // values driven by output ports
	links  map[*Link]Value
	shorts map[*Link]bool
	memory map[*Component]interface{}
	err    error
}

// ID returns the arena index of s.
//
func (s *CircuitState) ID() int { return s.id }

// Circuit returns the circuit s is an instance of.
//
func (s *CircuitState) Circuit() *Circuit { return s.circuit }

// Alive returns false once s has been destroyed.
//
func (s *CircuitState) Alive() bool {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.alive
}

// IsTopLevel returns true if s is the top level state of its circuit.
//
func (s *CircuitState) IsTopLevel() bool { return s.parent < 0 }

// Parent returns the state that instantiates s through a subcircuit, or nil
// for top level states.
//
func (s *CircuitState) Parent() *CircuitState {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.parentState()
}

func (s *CircuitState) parentState() *CircuitState {
	if s.parent < 0 {
		return nil
	}
	return s.sim.states[s.parent]
}

// Subcomponent returns the subcircuit component under which s is
// instantiated in its parent state, or nil.
//
func (s *CircuitState) Subcomponent() *Component {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.parentComp
}

// Child returns the state instantiated by subcircuit component c in s.
//
func (s *CircuitState) Child(c *Component) *CircuitState {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.child(c)
}

func (s *CircuitState) child(c *Component) *CircuitState {
	id, ok := s.children[c]
	if !ok {
		return nil
	}
	return s.sim.states[id]
}

// Children returns the child states of s in component order.
//
func (s *CircuitState) Children() []*CircuitState {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.childList()
}

func (s *CircuitState) childList() []*CircuitState {
	var cs []*CircuitState
	for _, c := range s.circuit.components {
		if ch := s.child(c); ch != nil {
			cs = append(cs, ch)
		}
	}
	return cs
}

// Value returns the value seen on port i of component c. For a linked port,
// this is the link value. For an unlinked port, it is the value the port
// drives, or floating.
//
func (s *CircuitState) Value(c *Component, i int) Value {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.get(c, i)
}

// LinkValue returns the current value of link l.
//
func (s *CircuitState) LinkValue(l *Link) Value {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.linkValue(l)
}

// Err returns the simulation error for s: an *OscillationError if the last
// propagation did not settle, a short circuit error if any link has
// conflicting drivers, nil otherwise.
//
func (s *CircuitState) Err() error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, l := range s.circuit.links {
		if s.shorts[l] {
			return errors.Errorf("short circuit detected on %d bit link", l.width)
		}
	}
	return nil
}

// SetPin sets the value driven by input pin p. Only pins of top level states
// can be set, nested pins being driven by the enclosing subcircuit.
//
func (s *CircuitState) SetPin(p *Component, v Value) error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if p.kind != KindPin || p.circuit != s.circuit || !isInputPin(p) {
		return errors.Errorf("%s is not an input pin of %s", p.Name(), s.circuit.name)
	}
	if !s.alive {
		return errors.New("state has been destroyed")
	}
	if s.parent >= 0 {
		return errors.New("cannot set pins of a nested state")
	}
	if v.Width() != p.ports[0].Width {
		return &WidthError{Want: p.ports[0].Width, Got: v.Width(), Port: PortRef{p, 0}.String()}
	}
	s.memory[p].(*pinMemory).value = v
	s.sim.enqueue(s, p)
	s.sim.run()
	return nil
}

// Peek returns the stored memory of a register (addr is ignored) or the word
// at addr of a RAM. ok is false for other components.
//
func (s *CircuitState) Peek(c *Component, addr int) (v Value, ok bool) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	switch m := s.memory[c].(type) {
	case *registerMemory:
		return m.value, true
	case *ramMemory:
		return m.load(uint32(addr), c.ports[ramData].Width), true
	}
	return Value{}, false
}

func (s *CircuitState) linkValue(l *Link) Value {
	if v, ok := s.links[l]; ok {
		return v
	}
	return NewValue(l.width)
}

// get returns the value on port i of c.
//
func (s *CircuitState) get(c *Component, i int) Value {
	if l := c.Link(i); l != nil {
		return s.linkValue(l)
	}
	if v, ok := s.driven[PortRef{c, i}]; ok {
		return v
	}
	return NewValue(c.ports[i].Width)
}

// push drives v on port i of c. If the link value changes, every other port on
// the link has its component scheduled for update.
//
func (s *CircuitState) push(c *Component, i int, v Value) {
	r := PortRef{c, i}
	if old, ok := s.driven[r]; ok && old.Equal(v) {
		return
	}
	s.driven[r] = v
	if l := c.Link(i); l != nil {
		s.refresh(l, r)
	}
}

// refresh recomputes the value of l from its drivers and schedules the
// components on l, except the port src, if it changed.
//
func (s *CircuitState) refresh(l *Link, src PortRef) {
	v := NewValue(l.width)
	short := false
	for _, r := range l.ports {
		d, ok := s.driven[r]
		if !ok {
			continue
		}
		var c bool
		v, c = v.Merge(d)
		short = short || c
	}
	if short {
		s.shorts[l] = true
	} else {
		delete(s.shorts, l)
	}
	if old, ok := s.links[l]; ok && old.Equal(v) {
		return
	}
	s.links[l] = v
	for _, r := range l.ports {
		if r != src {
			s.sim.enqueue(s, r.Component)
		}
	}
}

func (s *CircuitState) memoryFor(c *Component) interface{} {
	return s.memory[c]
}

// forget removes every trace of component c from s.
//
func (s *CircuitState) forget(c *Component) {
	for i := range c.ports {
		delete(s.driven, PortRef{c, i})
	}
	delete(s.memory, c)
}
