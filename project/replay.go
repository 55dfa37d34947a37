// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package project

import (
	"github.com/db47h/circsim"
	"github.com/db47h/circsim/format"
	"github.com/db47h/circsim/history"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// pasteTries is the number of positions tried by Paste, each one 3 grid units
// further down and to the right.
//
const pasteTries = 16

const pasteOffset = 3

// Save returns the persistent representation of the project.
//
func (p *Project) Save() *format.File {
	f := &format.File{
		Version:    format.Version,
		ClockSpeed: p.sim.Clock().Frequency(),
	}
	if p.bitSize > 1 {
		f.GlobalBitSize = p.bitSize
	}
	for _, b := range p.boards {
		f.Circuits = append(f.Circuits, *b.Copy(b.Components(), b.wires))
	}
	return f
}

// Copy returns the representation of a selection of components and wires of
// b, as used for the clipboard.
//
func (b *Board) Copy(comps []*circsim.Component, wires []Wire) *format.Circuit {
	c := &format.Circuit{Name: b.Name()}
	for _, comp := range comps {
		x, y := comp.Position()
		c.Components = append(c.Components, format.Component{
			Kind:       comp.Kind().String(),
			X:          x,
			Y:          y,
			Properties: comp.Properties(),
		})
	}
	for _, w := range wires {
		c.Wires = append(c.Wires, format.Wire(w))
	}
	return c
}

// Load replaces the content of the project with f.
//
// Loading is all or nothing: if any element cannot be loaded, the project is
// left empty and a *ReplayError lists every failing element. Loading is not
// recorded in the edit history, which is cleared.
//
func (p *Project) Load(f *format.File) error {
	p.Clear()
	p.history.Disable()
	defer p.history.Enable()

	var errs []error
	fail := func(err error, circuit string, i int) {
		errs = append(errs, errors.Wrapf(err, "%s: component %d", circuit, i))
	}
	if f.GlobalBitSize > 0 && f.GlobalBitSize <= circsim.MaxWidth {
		p.bitSize = f.GlobalBitSize
	}
	boards := make([]*Board, len(f.Circuits))
	for i, fc := range f.Circuits {
		if err := p.checkName(fc.Name, nil); err != nil {
			errs = append(errs, err)
			continue
		}
		boards[i] = p.newBoard(fc.Name)
		p.boards = append(p.boards, boards[i])
	}
	// pins first: subcircuits take their ports from them.
	for _, sub := range []bool{false, true} {
		for i, fc := range f.Circuits {
			b := boards[i]
			if b == nil {
				continue
			}
			for j, fcomp := range fc.Components {
				if (fcomp.Kind == circsim.KindSubcircuit.String()) != sub {
					continue
				}
				comp, err := p.component(fcomp, 0)
				if err == nil {
					err = b.circuit.AddComponent(comp)
				}
				if err != nil {
					fail(err, fc.Name, j)
				}
			}
		}
	}
	for i, fc := range f.Circuits {
		b := boards[i]
		if b == nil {
			continue
		}
		for j, fw := range fc.Wires {
			w := Wire(fw)
			if err := w.check(); err != nil {
				errs = append(errs, errors.Wrapf(err, "%s: wire %d", fc.Name, j))
				continue
			}
			b.wires = append(b.wires, w)
		}
		groups, err := connect(b.circuit.Components(), nil, b.wires, true)
		if err != nil {
			errs = append(errs, errors.Wrap(err, fc.Name))
			continue
		}
		b.relink(groups)
	}

	if len(errs) > 0 {
		p.Clear()
		return &ReplayError{Errs: errs}
	}
	if f.ClockSpeed > 0 {
		if err := p.sim.Clock().SetFrequency(f.ClockSpeed); err != nil {
			log.WithError(err).Warn("clock speed ignored")
		}
	}
	if len(p.boards) == 0 {
		p.boards = append(p.boards, p.newBoard(DefaultCircuitName))
	}
	p.history.Clear()
	p.MarkSaved()
	log.WithField("circuits", len(p.boards)).Debug("project loaded")
	return nil
}

// component builds the component described by fc, moved by off grid units on
// both axes.
//
func (p *Project) component(fc format.Component, off int) (*circsim.Component, error) {
	k, err := circsim.KindByID(fc.Kind)
	if err != nil {
		return nil, err
	}
	if k != circsim.KindSubcircuit {
		return circsim.NewComponent(k, fc.Properties, fc.X+off, fc.Y+off)
	}
	name := fc.Properties[circsim.PropCircuit]
	sub := p.Board(name)
	if sub == nil {
		return nil, errors.Errorf("unknown circuit %q", name)
	}
	return circsim.NewSubcircuit(sub.circuit, fc.Properties, fc.X+off, fc.Y+off)
}

// Paste adds the components and wires of c to b and returns the components
// added.
//
// Elements that cannot be created (unknown kind, bad property, unknown nested
// circuit) are skipped and reported in a *ReplayError, the rest is pasted
// anyway. If the components collide with existing ones, the whole selection is
// tried again 3 grid units down and to the right, up to 16 times. The paste is
// recorded as a single edit unit.
//
func (b *Board) Paste(c *format.Circuit) ([]*circsim.Component, error) {
	p := b.p
	var skipped []error
	var valid []format.Component
	for i, fc := range c.Components {
		comp, err := p.component(fc, 0)
		if err == nil {
			if sub := comp.Subcircuit(); sub != nil && (sub == b.circuit || sub.Contains(b.circuit)) {
				err = circsim.ErrRecursive
			}
		}
		if err != nil {
			skipped = append(skipped, errors.Wrapf(err, "component %d", i))
			log.WithError(err).Warn("paste: component skipped")
			continue
		}
		valid = append(valid, fc)
	}

	p.history.BeginGroup()
	defer p.history.EndGroup()
	p.history.Disable()
	var placed []*circsim.Component
	var err error
	off := 0
	for try := 0; try < pasteTries; try++ {
		off = try * pasteOffset
		if placed, err = b.place(valid, off); err == nil {
			break
		}
		if _, ok := errors.Cause(err).(*circsim.PlacementError); !ok {
			break
		}
	}
	if err != nil {
		p.history.Enable()
		return nil, errors.Wrap(err, "paste")
	}
	var wires []Wire
	for i, fw := range c.Wires {
		w := Wire(fw).Shift(off, off)
		if err := b.addWire(w, true); err != nil {
			skipped = append(skipped, errors.Wrapf(err, "wire %d", i))
			log.WithError(err).Warn("paste: wire skipped")
			continue
		}
		wires = append(wires, w)
	}
	p.history.Enable()

	for _, comp := range placed {
		p.history.AddAction(history.AddComponent, b, comp)
	}
	for _, w := range wires {
		p.history.AddAction(history.AddWire, b, w)
	}
	if len(skipped) > 0 {
		return placed, &ReplayError{Errs: skipped}
	}
	return placed, nil
}

// place tries to add every component of fcs at offset off. On failure,
// everything placed so far is removed again.
//
func (b *Board) place(fcs []format.Component, off int) ([]*circsim.Component, error) {
	var placed []*circsim.Component
	for _, fc := range fcs {
		comp, err := b.p.component(fc, off)
		if err == nil {
			err = b.add(comp, false)
		}
		if err == nil {
			placed = append(placed, comp)
			continue
		}
		for i := len(placed) - 1; i >= 0; i-- {
			if rerr := b.remove(placed[i]); rerr != nil {
				log.WithError(rerr).Error("paste: rollback")
			}
		}
		return nil, err
	}
	return placed, nil
}
