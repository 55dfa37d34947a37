// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package project manages an ordered set of circuits being edited together.
//
// Each circuit sits on a Board, which adds a layout (component positions and
// wires, from which links are derived) and a viewer selecting the displayed
// CircuitState. Every structural edit goes through the Project so that it is
// recorded for undo and redo, and so that subcircuits elsewhere follow changes
// to the circuits they wrap.
//
// A Project is not safe for concurrent use. Simulation values can be read
// concurrently.
//
package project

import (
	"github.com/db47h/circsim"
	"github.com/db47h/circsim/history"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultCircuitName is the name of the circuit created when the last one is
// deleted.
//
const DefaultCircuitName = "New circuit"

// A ChangeFn is notified of components added to or removed from a board.
//
type ChangeFn func(b *Board, comp *circsim.Component, added bool)

// Project is an ordered list of boards sharing one simulator and one edit
// history.
//
type Project struct {
	sim     *circsim.Simulator
	history *history.History[*Board]
	boards  []*Board
	limit   int
	bitSize int
	saved   int

	// components replaced behind the back of recorded actions, old to new.
	forward map[*circsim.Component]*circsim.Component

	listeners []ChangeFn
}

// An Option configures a Project.
//
type Option func(*Project)

// HistoryLimit limits the number of undo units kept.
//
func HistoryLimit(n int) Option {
	return func(p *Project) { p.limit = n }
}

// BitSize sets the default bit width of new components.
//
func BitSize(n int) Option {
	return func(p *Project) {
		if n > 0 && n <= circsim.MaxWidth {
			p.bitSize = n
		}
	}
}

// New returns an empty project.
//
func New(sim *circsim.Simulator, opts ...Option) *Project {
	p := &Project{
		sim:     sim,
		bitSize: 1,
		forward: make(map[*circsim.Component]*circsim.Component),
	}
	for _, o := range opts {
		o(p)
	}
	p.history = history.New[*Board](history.ApplierFunc[*Board](p.apply), p.limit)
	return p
}

// Simulator returns the project simulator.
//
func (p *Project) Simulator() *circsim.Simulator { return p.sim }

// History returns the edit history.
//
func (p *Project) History() *history.History[*Board] { return p.history }

// BitSize returns the default bit width of new components.
//
func (p *Project) BitSize() int { return p.bitSize }

// OnChange registers fn to be notified of components added to or removed from
// any board.
//
func (p *Project) OnChange(fn ChangeFn) {
	p.listeners = append(p.listeners, fn)
}

// Boards returns the boards in display order.
//
func (p *Project) Boards() []*Board {
	return append([]*Board(nil), p.boards...)
}

// Board returns the board named name, or nil.
//
func (p *Project) Board(name string) *Board {
	for _, b := range p.boards {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Index returns the position of b in the board list, or -1.
//
func (p *Project) Index(b *Board) int {
	for i := range p.boards {
		if p.boards[i] == b {
			return i
		}
	}
	return -1
}

func (p *Project) checkName(name string, self *Board) error {
	if name == "" {
		return &NameError{Name: name, Reason: "empty name"}
	}
	if o := p.Board(name); o != nil && o != self {
		return &NameError{Name: name, Reason: "name already in use"}
	}
	return nil
}

func (p *Project) newBoard(name string) *Board {
	b := &Board{p: p, circuit: circsim.NewCircuit(p.sim, name)}
	b.circuit.OnChange(func(_ *circsim.Circuit, comp *circsim.Component, added bool) {
		for _, fn := range p.listeners {
			fn(b, comp, added)
		}
	})
	return b
}

// CreateCircuit appends a new empty circuit. It fails with a *NameError if
// name is empty or taken.
//
func (p *Project) CreateCircuit(name string) (*Board, error) {
	if err := p.checkName(name, nil); err != nil {
		return nil, err
	}
	b := p.newBoard(name)
	i := len(p.boards)
	if err := p.insert(b, i); err != nil {
		return nil, err
	}
	p.history.AddAction(history.CreateCircuit, b, i)
	return b, nil
}

// DeleteCircuit removes b from the project. Every subcircuit wrapping b on
// other boards is removed first. If b was the last board, a new empty one
// named DefaultCircuitName is created. All of this is undone as one unit.
//
// The circuit and its states are kept as is, so that undoing brings back the
// very same circuit.
//
func (p *Project) DeleteCircuit(b *Board) error {
	i := p.Index(b)
	if i < 0 {
		return errors.Errorf("circuit %s is not part of the project", b.Name())
	}
	p.history.BeginGroup()
	defer p.history.EndGroup()
	for _, o := range p.boards {
		if o == b {
			continue
		}
		for _, comp := range o.circuit.Components() {
			if comp.Subcircuit() == b.circuit {
				if err := o.RemoveComponent(comp); err != nil {
					return err
				}
			}
		}
	}
	if err := p.remove(b); err != nil {
		return err
	}
	p.history.AddAction(history.DeleteCircuit, b, i)
	if len(p.boards) == 0 {
		if _, err := p.CreateCircuit(DefaultCircuitName); err != nil {
			return err
		}
	}
	return nil
}

// RenameCircuit renames the circuit of b. Every subcircuit wrapping it gets
// its circuit property updated.
//
func (p *Project) RenameCircuit(b *Board, name string) error {
	old := b.Name()
	if old == name {
		return nil
	}
	if err := p.checkName(name, b); err != nil {
		return err
	}
	if err := p.rename(b, name); err != nil {
		return err
	}
	p.history.AddAction(history.RenameCircuit, b, old, name)
	return nil
}

// MoveCircuit moves b to position to in the board list.
//
func (p *Project) MoveCircuit(b *Board, to int) error {
	from := p.Index(b)
	if from < 0 {
		return errors.Errorf("circuit %s is not part of the project", b.Name())
	}
	if from == to {
		return nil
	}
	if err := p.move(b, to); err != nil {
		return err
	}
	p.history.AddAction(history.MoveCircuit, b, from, to)
	return nil
}

func (p *Project) insert(b *Board, i int) error {
	if i < 0 || i > len(p.boards) {
		return errors.Errorf("invalid circuit index %d", i)
	}
	if err := p.checkName(b.Name(), b); err != nil {
		return err
	}
	p.boards = append(p.boards, nil)
	copy(p.boards[i+1:], p.boards[i:])
	p.boards[i] = b
	// the pins of wrapped circuits may have changed while b was out.
	for _, comp := range b.circuit.Components() {
		if sub := comp.Subcircuit(); sub != nil && (comp.Stale() || comp.Property(circsim.PropCircuit) != sub.Name()) {
			p.refresh(b, comp)
		}
	}
	return nil
}

func (p *Project) remove(b *Board) error {
	i := p.Index(b)
	if i < 0 {
		return errors.Errorf("circuit %s is not part of the project", b.Name())
	}
	for _, o := range p.boards {
		if o == b {
			continue
		}
		for _, comp := range o.circuit.Components() {
			if comp.Subcircuit() == b.circuit {
				return errors.Errorf("circuit %s is used in %s", b.Name(), o.Name())
			}
		}
	}
	p.boards = append(p.boards[:i:i], p.boards[i+1:]...)
	return nil
}

func (p *Project) move(b *Board, to int) error {
	from := p.Index(b)
	if from < 0 || to < 0 || to >= len(p.boards) {
		return errors.Errorf("cannot move circuit %s to %d", b.Name(), to)
	}
	p.boards = append(p.boards[:from:from], p.boards[from+1:]...)
	p.boards = append(p.boards[:to], append([]*Board{b}, p.boards[to:]...)...)
	return nil
}

func (p *Project) rename(b *Board, name string) error {
	if err := b.circuit.SetName(name); err != nil {
		return err
	}
	p.history.Disable()
	defer p.history.Enable()
	for _, o := range p.boards {
		for _, comp := range o.circuit.Components() {
			if comp.Subcircuit() != b.circuit {
				continue
			}
			nu, err := comp.With(circsim.Properties{circsim.PropCircuit: name})
			if err != nil {
				return err
			}
			if err = o.replace(comp, nu, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// resync replaces every stale subcircuit wrapping c with one matching the
// current pins of c.
//
func (p *Project) resync(c *circsim.Circuit) {
	for _, o := range p.boards {
		for _, comp := range o.circuit.Components() {
			if comp.Subcircuit() == c && comp.Stale() {
				p.refresh(o, comp)
			}
		}
	}
}

func (p *Project) refresh(b *Board, comp *circsim.Component) {
	p.history.Disable()
	defer p.history.Enable()
	nu, err := comp.With(circsim.Properties{circsim.PropCircuit: comp.Subcircuit().Name()})
	if err == nil {
		err = b.replace(comp, nu, false)
	}
	if err != nil {
		log.WithError(err).WithField("circuit", b.Name()).Warn("subcircuit not updated")
	}
}

func (p *Project) forwardTo(old, nu *circsim.Component) {
	if old == nu {
		return
	}
	p.forward[old] = nu
	delete(p.forward, nu)
}

// resolve returns the component currently standing for c.
//
func (p *Project) resolve(c *circsim.Component) *circsim.Component {
	for i := 0; c.Circuit() == nil && i <= len(p.forward); i++ {
		n, ok := p.forward[c]
		if !ok {
			break
		}
		c = n
	}
	return c
}

// fresh returns c, or a copy of c matching the current pins of its nested
// circuit.
//
func (p *Project) fresh(c *circsim.Component) *circsim.Component {
	sub := c.Subcircuit()
	if sub == nil || !c.Stale() && c.Property(circsim.PropCircuit) == sub.Name() {
		return c
	}
	nu, err := c.With(circsim.Properties{circsim.PropCircuit: sub.Name()})
	if err != nil {
		log.WithError(err).Warn("subcircuit not updated")
		return c
	}
	p.forwardTo(c, nu)
	return nu
}

// Undo reverts the last edit unit. It returns the board affected, or nil if
// there was nothing to undo or the board is no longer part of the project.
//
func (p *Project) Undo() (*Board, error) {
	b, ok, err := p.history.Undo()
	if !ok || p.Index(b) < 0 {
		return nil, err
	}
	return b, nil
}

// Redo reapplies the last undone edit unit.
//
func (p *Project) Redo() (*Board, error) {
	b, ok, err := p.history.Redo()
	if !ok || p.Index(b) < 0 {
		return nil, err
	}
	return b, nil
}

// CanUndo returns true if there is something to undo.
//
func (p *Project) CanUndo() bool { return p.history.CanUndo() }

// CanRedo returns true if there is something to redo.
//
func (p *Project) CanRedo() bool { return p.history.CanRedo() }

// MarkSaved records the current edit position as saved.
//
func (p *Project) MarkSaved() { p.saved = p.history.UndoSize() }

// Modified returns true if the project changed since the last call to
// MarkSaved.
//
func (p *Project) Modified() bool { return p.history.UndoSize() != p.saved }

// Clear removes every board and clears the edit history.
//
func (p *Project) Clear() {
	for _, b := range p.boards {
		b.circuit.Dispose()
	}
	p.boards = nil
	p.forward = make(map[*circsim.Component]*circsim.Component)
	p.history.Clear()
	p.saved = 0
}
