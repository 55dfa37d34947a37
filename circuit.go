// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// A ChangeFn is notified of components added to or removed from a circuit.
//
type ChangeFn func(c *Circuit, comp *Component, added bool)

// Circuit is a named graph of components and links. A circuit has exactly one
// top level state, created along with the circuit, plus one state per place it
// is instantiated as a subcircuit.
//
// All mutating methods are atomic: on error, the circuit is left unchanged.
// On success, propagation has run to quiescence in every state of the circuit
// before they return.
//
type Circuit struct {
	id   uuid.UUID
	name string
	sim  *Simulator

	components []*Component
	links      []*Link
	states     []*CircuitState // live states, top level first
	top        *CircuitState

	listeners []ChangeFn
}

// NewCircuit creates a new circuit and its top level state.
//
func NewCircuit(sim *Simulator, name string) *Circuit {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	c := &Circuit{
		id:   uuid.New(),
		name: name,
		sim:  sim,
	}
	c.top = sim.newState(c, nil, nil)
	return c
}

// ID returns a unique identifier for c that stays the same for its whole
// lifetime, renames included.
//
func (c *Circuit) ID() uuid.UUID { return c.id }

// Name returns the circuit name.
//
func (c *Circuit) Name() string {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return c.name
}

// SetName renames the circuit. Subcircuits reference circuits by pointer, so
// renaming never invalidates them.
//
func (c *Circuit) SetName(name string) error {
	if name == "" {
		return errors.New("empty circuit name")
	}
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	c.name = name
	return nil
}

// Simulator returns the simulator c runs in.
//
func (c *Circuit) Simulator() *Simulator { return c.sim }

// TopLevelState returns the top level state of c.
//
func (c *Circuit) TopLevelState() *CircuitState { return c.top }

// States returns all live states of c, top level first.
//
func (c *Circuit) States() []*CircuitState {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return append([]*CircuitState(nil), c.states...)
}

// Components returns the components of c in insertion order.
//
func (c *Circuit) Components() []*Component {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return append([]*Component(nil), c.components...)
}

// Links returns the links of c.
//
func (c *Circuit) Links() []*Link {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return append([]*Link(nil), c.links...)
}

// Pins returns the pins of c in insertion order. These define the ports of
// subcircuits wrapping c.
//
func (c *Circuit) Pins() []*Component {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return c.pins()
}

func (c *Circuit) pins() []*Component {
	var ps []*Component
	for _, cc := range c.components {
		if cc.kind == KindPin {
			ps = append(ps, cc)
		}
	}
	return ps
}

// Contains returns true if c contains o, directly or through nested
// subcircuits.
//
func (c *Circuit) Contains(o *Circuit) bool {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return c.contains(o)
}

func (c *Circuit) contains(o *Circuit) bool {
	for _, cc := range c.components {
		if cc.sub != nil && (cc.sub == o || cc.sub.contains(o)) {
			return true
		}
	}
	return false
}

// Dispose destroys every state of c, nested ones included. c must not be used
// afterwards.
//
func (c *Circuit) Dispose() {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	for _, s := range append([]*CircuitState(nil), c.states...) {
		if s.alive {
			c.sim.destroy(s)
		}
	}
}

// OnChange registers fn to be notified of structural changes.
//
func (c *Circuit) OnChange(fn ChangeFn) {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Circuit) notify(comp *Component, added bool) {
	c.sim.mu.Lock()
	ls := append([]ChangeFn(nil), c.listeners...)
	c.sim.mu.Unlock()
	for _, fn := range ls {
		fn(c, comp, added)
	}
}

func (c *Circuit) index(comp *Component) int {
	for i, cc := range c.components {
		if cc == comp {
			return i
		}
	}
	return -1
}

// checkPlacement checks that comp does not collide with any component but
// skip.
//
func (c *Circuit) checkPlacement(comp, skip *Component) error {
	for _, cc := range c.components {
		if cc != skip && cc != comp && comp.overlaps(cc) {
			return &PlacementError{Component: comp, Other: cc}
		}
	}
	if comp.sub != nil && (comp.sub == c || comp.sub.contains(c)) {
		return ErrRecursive
	}
	return nil
}

// AddComponent adds comp to c. It fails with a *PlacementError if comp
// collides with an existing component, or ErrRecursive if comp is a
// subcircuit that contains c.
//
func (c *Circuit) AddComponent(comp *Component) error {
	err := c.addComponent(comp)
	if err == nil {
		c.notify(comp, true)
	}
	return err
}

func (c *Circuit) addComponent(comp *Component) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	if comp.circuit != nil {
		return errors.Errorf("%s already belongs to a circuit", comp.Name())
	}
	if err := c.checkPlacement(comp, nil); err != nil {
		return err
	}
	comp.circuit = c
	comp.links = make([]*Link, len(comp.ports))
	c.components = append(c.components, comp)
	for _, s := range append([]*CircuitState(nil), c.states...) {
		c.sim.attach(s, comp)
	}
	c.sim.run()
	return nil
}

// RemoveComponent removes comp from c. Its links are kept (and removed if they
// no longer have any port) and if comp is a subcircuit, all its nested states
// are destroyed.
//
func (c *Circuit) RemoveComponent(comp *Component) error {
	err := c.removeComponent(comp)
	if err == nil {
		c.notify(comp, false)
	}
	return err
}

func (c *Circuit) removeComponent(comp *Component) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	i := c.index(comp)
	if i < 0 {
		return errors.Errorf("%s does not belong to %s", comp.Name(), c.name)
	}
	var ls []*Link
	for p, l := range comp.links {
		if l != nil {
			l.detach(PortRef{comp, p})
			ls = append(ls, l)
		}
	}
	c.components = append(c.components[:i:i], c.components[i+1:]...)
	comp.circuit = nil
	comp.links = nil
	for _, s := range append([]*CircuitState(nil), c.states...) {
		if ch := s.child(comp); ch != nil {
			c.sim.destroy(ch)
		}
		s.forget(comp)
		for _, l := range ls {
			s.refresh(l, PortRef{})
		}
	}
	c.pruneLinks(ls)
	c.sim.run()
	return nil
}

// MoveComponent moves comp to (x, y).
//
func (c *Circuit) MoveComponent(comp *Component, x, y int) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	if c.index(comp) < 0 {
		return errors.Errorf("%s does not belong to %s", comp.Name(), c.name)
	}
	ox, oy := comp.x, comp.y
	comp.x, comp.y = x, y
	if err := c.checkPlacement(comp, nil); err != nil {
		comp.x, comp.y = ox, oy
		return err
	}
	return nil
}

// MoveComponents moves every component of comps by (dx, dy). Collisions are
// checked once all components have moved, so that components moved together
// never collide with each other's previous positions.
//
func (c *Circuit) MoveComponents(comps []*Component, dx, dy int) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	for _, comp := range comps {
		if comp.circuit != c {
			return errors.Errorf("%s does not belong to %s", comp.Name(), c.name)
		}
	}
	move := func(d int) {
		for _, comp := range comps {
			comp.x += d * dx
			comp.y += d * dy
		}
	}
	move(1)
	for _, comp := range comps {
		if err := c.checkPlacement(comp, nil); err != nil {
			move(-1)
			return err
		}
	}
	return nil
}

// UpdateComponent replaces old with nu, keeping nu at the same position in the
// component order. Every link attached to a port of old is moved to the port
// at the same index on nu. If a port does not exist on nu or has a different
// width, UpdateComponent fails with a *WidthError and c is left unchanged.
//
// The nested states of a subcircuit are handled according to the simulator's
// SubcircuitPolicy.
//
func (c *Circuit) UpdateComponent(old, nu *Component) error {
	return c.Replace(old, nu, true)
}

// Replace is like UpdateComponent. If strict is false, links that cannot be
// moved to nu are detached instead of failing.
//
func (c *Circuit) Replace(old, nu *Component, strict bool) error {
	err := c.replace(old, nu, strict)
	if err == nil {
		c.notify(old, false)
		c.notify(nu, true)
	}
	return err
}

func (c *Circuit) replace(old, nu *Component, strict bool) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	i := c.index(old)
	if i < 0 {
		return errors.Errorf("%s does not belong to %s", old.Name(), c.name)
	}
	if nu.circuit != nil {
		return errors.Errorf("%s already belongs to a circuit", nu.Name())
	}
	if err := c.checkPlacement(nu, old); err != nil {
		return err
	}
	if strict {
		for p, l := range old.links {
			if l == nil {
				continue
			}
			if p >= len(nu.ports) {
				return &WidthError{Want: l.width, Got: 0, Port: PortRef{old, p}.String()}
			}
			if w := nu.ports[p].Width; w != l.width {
				return &WidthError{Want: l.width, Got: w, Port: PortRef{nu, p}.String()}
			}
		}
	}

	nu.circuit = c
	nu.links = make([]*Link, len(nu.ports))
	var ls []*Link
	for _, l := range old.links {
		if l != nil {
			l.replace(old, nu)
			ls = append(ls, l)
		}
	}
	c.components[i] = nu
	old.circuit = nil
	old.links = nil

	keep := c.sim.policy == PreserveSameCircuit && old.sub != nil && old.sub == nu.sub
	for _, s := range append([]*CircuitState(nil), c.states...) {
		ch := s.child(old)
		s.forget(old)
		switch {
		case ch != nil && keep:
			delete(s.children, old)
			s.children[nu] = ch.id
			ch.parentComp = nu
			// nested output pins drive the new component's ports.
			for _, p := range ch.circuit.pins() {
				c.sim.enqueue(ch, p)
			}
			if nu.spec.Memory != nil {
				s.memory[nu] = nu.spec.Memory(nu)
			}
			c.sim.enqueue(s, nu)
		default:
			if ch != nil {
				c.sim.destroy(ch)
			}
			c.sim.attach(s, nu)
		}
		for _, l := range ls {
			s.refresh(l, PortRef{})
		}
	}
	c.pruneLinks(ls)
	c.sim.run()
	return nil
}

// AddLink creates a link between the given ports. All ports must belong to
// components of c, have the same width and not be linked already.
//
func (c *Circuit) AddLink(ports ...PortRef) (*Link, error) {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	if len(ports) == 0 {
		return nil, errors.New("empty link")
	}
	w := ports[0].Width()
	seen := make(map[PortRef]bool, len(ports))
	for _, r := range ports {
		if r.Component.circuit != c {
			return nil, errors.Errorf("%s does not belong to %s", r.Component.Name(), c.name)
		}
		if r.Port < 0 || r.Port >= len(r.Component.ports) {
			return nil, errors.Errorf("%s has no port %d", r.Component.Name(), r.Port)
		}
		if r.Component.links[r.Port] != nil || seen[r] {
			return nil, errors.Errorf("port %s is already linked", r)
		}
		if r.Width() != w {
			return nil, &WidthError{Want: w, Got: r.Width(), Port: r.String()}
		}
		seen[r] = true
	}
	l := &Link{circuit: c, width: w, ports: append([]PortRef(nil), ports...)}
	for _, r := range ports {
		r.Component.links[r.Port] = l
	}
	c.links = append(c.links, l)
	for _, s := range c.states {
		s.refresh(l, PortRef{})
		// components now see the link value instead of their own port.
		for _, r := range ports {
			c.sim.enqueue(s, r.Component)
		}
	}
	c.sim.run()
	return l, nil
}

// RemoveLink removes l from c, detaching all its ports.
//
func (c *Circuit) RemoveLink(l *Link) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	if l.circuit != c {
		return errors.New("link does not belong to " + c.name)
	}
	ports := l.ports
	for _, r := range ports {
		r.Component.links[r.Port] = nil
	}
	l.ports = nil
	c.dropLink(l)
	for _, s := range c.states {
		for _, r := range ports {
			c.sim.enqueue(s, r.Component)
		}
	}
	c.sim.run()
	return nil
}

func (c *Circuit) dropLink(l *Link) {
	for i := range c.links {
		if c.links[i] == l {
			c.links = append(c.links[:i:i], c.links[i+1:]...)
			break
		}
	}
	l.circuit = nil
	for _, s := range c.states {
		delete(s.links, l)
		delete(s.shorts, l)
	}
}

// pruneLinks removes links without ports.
//
func (c *Circuit) pruneLinks(ls []*Link) {
	for _, l := range ls {
		if len(l.ports) == 0 && l.circuit == c {
			c.dropLink(l)
		}
	}
}
