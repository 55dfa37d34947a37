// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies a component variant.
//
type Kind int

// Component kinds.
//
const (
	KindPin Kind = iota
	KindClock
	KindSplitter
	KindAnd
	KindOr
	KindNand
	KindNor
	KindXor
	KindXnor
	KindNot
	KindBuffer
	KindRegister
	KindRAM
	KindMux
	KindAdder
	KindSubcircuit
	kindCount
)

// Direction is the direction of a port, seen from the component.
//
type Direction int

// Port directions.
//
const (
	Input Direction = iota
	Output
)

// A Port is a typed connection point on a component.
//
type Port struct {
	Name  string
	Dir   Direction
	Width int
}

// An UpdateFn recomputes the outputs of component c in state s. It reads
// current link values with s.get and drives outputs with s.push.
//
type UpdateFn func(s *CircuitState, c *Component)

// A KindSpec is the static description of a component kind: how to lay out
// its ports for a given set of properties, its per-state memory and how it
// updates.
//
type KindSpec struct {
	// Stable identifier used by persistence and clipboard representations.
	ID string
	// Default property values. Properties given to NewComponent are merged
	// over these.
	Defaults Properties
	// Width of the component footprint in grid units. Height is computed
	// from the port count.
	Width int
	// Ports returns the port layout. c has its properties (and nested circuit
	// for subcircuits) set.
	Ports func(c *Component) ([]Port, error)
	// Memory, if not nil, returns a fresh per-state memory for c.
	Memory func(c *Component) interface{}
	// Update function.
	Update UpdateFn
}

var kinds [kindCount]*KindSpec

// Spec returns the KindSpec for k.
//
func (k Kind) Spec() *KindSpec {
	if k < 0 || k >= kindCount {
		return nil
	}
	return kinds[k]
}

func (k Kind) String() string {
	if s := k.Spec(); s != nil {
		return s.ID
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// KindByID returns the kind with the given identifier.
//
func KindByID(id string) (Kind, error) {
	for k, s := range kinds {
		if s.ID == id {
			return Kind(k), nil
		}
	}
	return -1, &KindError{ID: id}
}

// Kinds returns all component kinds in registry order.
//
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// A Component is a unit with a fixed set of typed ports. The same Component can
// have independent memory in every CircuitState of the circuit it belongs to.
//
// Components are immutable once created, except for their position.
//
type Component struct {
	kind  Kind
	spec  *KindSpec
	props Properties
	ports []Port
	x, y  int
	w, h  int

	sub  *Circuit     // nested circuit, subcircuits only
	pins []*Component // nested pins matching ports, subcircuits only

	circuit *Circuit
	links   []*Link
}

// NewComponent creates a new component of the given kind at grid position
// (x, y). Subcircuits must be created with NewSubcircuit.
//
func NewComponent(kind Kind, props Properties, x, y int) (*Component, error) {
	if kind == KindSubcircuit {
		return nil, errors.New("subcircuits must be created with NewSubcircuit")
	}
	spec := kind.Spec()
	if spec == nil {
		return nil, &KindError{ID: kind.String()}
	}
	return newComponent(kind, spec, props, x, y, nil)
}

// NewComponentByID is like NewComponent but takes a kind identifier.
//
func NewComponentByID(id string, props Properties, x, y int) (*Component, error) {
	k, err := KindByID(id)
	if err != nil {
		return nil, err
	}
	return NewComponent(k, props, x, y)
}

func newComponent(kind Kind, spec *KindSpec, props Properties, x, y int, sub *Circuit) (*Component, error) {
	props = spec.Defaults.Merge(props)
	if err := props.Validate(); err != nil {
		return nil, err
	}
	c := &Component{
		kind:  kind,
		spec:  spec,
		props: props,
		x:     x,
		y:     y,
		sub:   sub,
	}
	if sub != nil {
		c.pins = sub.pins()
	}
	ports, err := spec.Ports(c)
	if err != nil {
		return nil, errors.Wrap(err, spec.ID)
	}
	c.ports = ports
	var ins, outs int
	for _, p := range ports {
		if p.Dir == Input {
			ins++
		} else {
			outs++
		}
	}
	c.w = spec.Width
	if c.w == 0 {
		c.w = 3
	}
	c.h = ins
	if outs > c.h {
		c.h = outs
	}
	c.h++
	if c.h < 2 {
		c.h = 2
	}
	return c, nil
}

// Kind returns the component kind.
//
func (c *Component) Kind() Kind { return c.kind }

// Properties returns a copy of the component properties.
//
func (c *Component) Properties() Properties { return c.props.Copy() }

// Property returns the value of property key.
//
func (c *Component) Property(key string) string { return c.props[key] }

// Name returns the component label, or its kind identifier if it has none.
//
func (c *Component) Name() string {
	if l := c.props.Label(); l != "" {
		return l
	}
	return c.spec.ID
}

// Ports returns the component ports.
//
func (c *Component) Ports() []Port {
	return append([]Port(nil), c.ports...)
}

// PortCount returns the number of ports.
//
func (c *Component) PortCount() int { return len(c.ports) }

// Port returns port i.
//
func (c *Component) Port(i int) Port { return c.ports[i] }

// PortIndex returns the index of the named port, or -1.
//
func (c *Component) PortIndex(name string) int {
	for i := range c.ports {
		if c.ports[i].Name == name {
			return i
		}
	}
	return -1
}

// Position returns the grid position of the component's top left corner.
//
func (c *Component) Position() (x, y int) { return c.x, c.y }

// Size returns the footprint size in grid units.
//
func (c *Component) Size() (w, h int) { return c.w, c.h }

// PortPosition returns the grid position of port i. Inputs are laid out
// along the left edge and outputs along the right edge, one unit apart.
//
func (c *Component) PortPosition(i int) (x, y int) {
	n := 0
	for j := 0; j < i; j++ {
		if c.ports[j].Dir == c.ports[i].Dir {
			n++
		}
	}
	if c.ports[i].Dir == Input {
		return c.x, c.y + 1 + n
	}
	return c.x + c.w, c.y + 1 + n
}

func (c *Component) overlaps(o *Component) bool {
	return c.x < o.x+o.w && o.x < c.x+c.w && c.y < o.y+o.h && o.y < c.y+c.h
}

// Circuit returns the circuit c belongs to, or nil.
//
func (c *Component) Circuit() *Circuit { return c.circuit }

// Link returns the link attached to port i, or nil.
//
func (c *Component) Link(i int) *Link {
	if c.links == nil {
		return nil
	}
	return c.links[i]
}

// Subcircuit returns the nested circuit of a subcircuit component, or nil.
//
func (c *Component) Subcircuit() *Circuit { return c.sub }

// At returns a copy of c, not attached to any circuit, placed at (x, y).
//
func (c *Component) At(x, y int) *Component {
	n := *c
	n.x, n.y = x, y
	n.props = c.props.Copy()
	n.ports = c.Ports()
	n.circuit = nil
	n.links = nil
	return &n
}

// With returns a new component of the same kind with props merged over the
// properties of c. For subcircuits, the nested pins are sampled again so that
// the new component reflects the current pin set of the nested circuit.
//
func (c *Component) With(props Properties) (*Component, error) {
	if c.sub != nil {
		c.sub.sim.mu.Lock()
		defer c.sub.sim.mu.Unlock()
	}
	return newComponent(c.kind, c.spec, c.props.Merge(props), c.x, c.y, c.sub)
}
