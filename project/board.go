// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package project

import (
	"strconv"

	"github.com/db47h/circsim"
	"github.com/db47h/circsim/history"
	"github.com/pkg/errors"
)

// A Board is the editing context of one circuit: its layout and the state
// being displayed.
//
type Board struct {
	p       *Project
	circuit *circsim.Circuit
	wires   []Wire
	state   *circsim.CircuitState
}

// Name returns the circuit name.
//
func (b *Board) Name() string { return b.circuit.Name() }

// Circuit returns the circuit edited on b.
//
func (b *Board) Circuit() *circsim.Circuit { return b.circuit }

// Components returns the components of the circuit.
//
func (b *Board) Components() []*circsim.Component { return b.circuit.Components() }

// Wires returns the wires of b.
//
func (b *Board) Wires() []Wire { return append([]Wire(nil), b.wires...) }

// State returns the displayed state. If the displayed state has been
// destroyed, the board falls back to the top level state of its circuit.
//
func (b *Board) State() *circsim.CircuitState {
	if b.state != nil && b.state.Alive() {
		return b.state
	}
	b.state = nil
	return b.circuit.TopLevelState()
}

// SetState selects the displayed state. s must be a live state of the board's
// circuit.
//
func (b *Board) SetState(s *circsim.CircuitState) error {
	if s.Circuit() != b.circuit || !s.Alive() {
		return errors.Errorf("state %d cannot be displayed on %s", s.ID(), b.Name())
	}
	b.state = s
	return nil
}

// Err returns the simulation error of the displayed state, or an empty string.
//
func (b *Board) Err() string {
	if err := b.State().Err(); err != nil {
		return err.Error()
	}
	return ""
}

// NewComponent creates a component from a kind identifier. Kinds having a bit
// width get the project default unless props sets one.
//
func (b *Board) NewComponent(kind string, props circsim.Properties, x, y int) (*circsim.Component, error) {
	k, err := circsim.KindByID(kind)
	if err != nil {
		return nil, err
	}
	if _, ok := k.Spec().Defaults[circsim.PropBits]; ok && b.p.bitSize > 1 {
		props = circsim.Properties{circsim.PropBits: strconv.Itoa(b.p.bitSize)}.Merge(props)
	}
	return circsim.NewComponent(k, props, x, y)
}

// NewSubcircuit creates a subcircuit wrapping the circuit of board sub.
//
func (b *Board) NewSubcircuit(sub *Board, x, y int) (*circsim.Component, error) {
	return circsim.NewSubcircuit(sub.circuit, nil, x, y)
}

// AddComponent places comp on b and connects its ports to whatever lies at
// their positions. It fails if comp collides with another component or if a
// connection would join ports of different widths.
//
func (b *Board) AddComponent(comp *circsim.Component) error {
	if err := b.add(comp, true); err != nil {
		return err
	}
	b.p.history.AddAction(history.AddComponent, b, comp)
	return nil
}

// RemoveComponent removes comp from b.
//
func (b *Board) RemoveComponent(comp *circsim.Component) error {
	if err := b.remove(comp); err != nil {
		return err
	}
	b.p.history.AddAction(history.RemoveComponent, b, comp)
	return nil
}

// AddWire adds w to b.
//
func (b *Board) AddWire(w Wire) error {
	if err := b.addWire(w, true); err != nil {
		return err
	}
	b.p.history.AddAction(history.AddWire, b, w)
	return nil
}

// RemoveWire removes w from b.
//
func (b *Board) RemoveWire(w Wire) error {
	if err := b.removeWire(w); err != nil {
		return err
	}
	b.p.history.AddAction(history.RemoveWire, b, w)
	return nil
}

// MoveElements moves a selection of components and wires by (dx, dy).
//
func (b *Board) MoveElements(comps []*circsim.Component, wires []Wire, dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	if err := b.move(comps, wires, dx, dy, true); err != nil {
		return err
	}
	b.p.history.AddAction(history.MoveElements, b,
		append([]*circsim.Component(nil), comps...), append([]Wire(nil), wires...), dx, dy)
	return nil
}

// SetProperty replaces comp with a copy having property key set to value and
// returns the new component. Connections follow the new port layout.
//
func (b *Board) SetProperty(comp *circsim.Component, key, value string) (*circsim.Component, error) {
	if key == circsim.PropCircuit {
		return nil, errors.New("the nested circuit of a subcircuit cannot be changed")
	}
	nu, err := comp.With(circsim.Properties{key: value})
	if err != nil {
		return nil, err
	}
	if err = b.replace(comp, nu, true); err != nil {
		return nil, err
	}
	b.p.history.AddAction(history.SetProperty, b, comp, nu)
	return nu, nil
}

func isPin(c *circsim.Component) bool { return c.Kind() == circsim.KindPin }

func (b *Board) add(comp *circsim.Component, strict bool) error {
	groups, err := connect(append(b.circuit.Components(), comp), nil, b.wires, strict)
	if err != nil {
		return err
	}
	if err = b.circuit.AddComponent(comp); err != nil {
		return err
	}
	b.relink(groups)
	if isPin(comp) {
		b.p.resync(b.circuit)
	}
	return nil
}

func (b *Board) remove(comp *circsim.Component) error {
	if err := b.circuit.RemoveComponent(comp); err != nil {
		return err
	}
	b.sync()
	if isPin(comp) {
		b.p.resync(b.circuit)
	}
	return nil
}

func (b *Board) replace(old, nu *circsim.Component, strict bool) error {
	comps := b.circuit.Components()
	for i := range comps {
		if comps[i] == old {
			comps[i] = nu
		}
	}
	groups, err := connect(comps, nil, b.wires, strict)
	if err != nil {
		return err
	}
	if err = b.circuit.Replace(old, nu, false); err != nil {
		return err
	}
	b.p.forwardTo(old, nu)
	b.relink(groups)
	if isPin(old) || isPin(nu) {
		b.p.resync(b.circuit)
	}
	return nil
}

func (b *Board) wireIndex(w Wire) int {
	for i := range b.wires {
		if b.wires[i] == w {
			return i
		}
	}
	return -1
}

func (b *Board) addWire(w Wire, strict bool) error {
	if err := w.check(); err != nil {
		return err
	}
	if b.wireIndex(w) >= 0 {
		return errors.Errorf("duplicate wire %+v", w)
	}
	ws := append(b.Wires(), w)
	groups, err := connect(b.circuit.Components(), nil, ws, strict)
	if err != nil {
		return err
	}
	b.wires = ws
	b.relink(groups)
	return nil
}

func (b *Board) removeWire(w Wire) error {
	i := b.wireIndex(w)
	if i < 0 {
		return errors.Errorf("no wire %+v", w)
	}
	b.wires = append(b.wires[:i:i], b.wires[i+1:]...)
	b.sync()
	return nil
}

func (b *Board) move(comps []*circsim.Component, wires []Wire, dx, dy int, strict bool) error {
	ws := b.Wires()
	for _, w := range wires {
		i := -1
		for j := range ws {
			if ws[j] == w {
				i = j
				break
			}
		}
		if i < 0 {
			return errors.Errorf("no wire %+v", w)
		}
		ws[i] = w.Shift(dx, dy)
	}
	offset := make(map[*circsim.Component]point, len(comps))
	for _, c := range comps {
		offset[c] = point{dx, dy}
	}
	groups, err := connect(b.circuit.Components(), offset, ws, strict)
	if err != nil {
		return err
	}
	if err = b.circuit.MoveComponents(comps, dx, dy); err != nil {
		return err
	}
	b.wires = ws
	b.relink(groups)
	return nil
}
