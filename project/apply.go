// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package project

import (
	"github.com/db47h/circsim"
	"github.com/db47h/circsim/history"
	"github.com/pkg/errors"
)

// apply reverts or reapplies a recorded action. Components referenced by the
// action may have been replaced since it was recorded (subcircuits following
// pin changes), so they are resolved to their current counterpart first.
//
func (p *Project) apply(a history.Action[*Board], undo bool) error {
	b := a.Context
	switch a.Kind {
	case history.CreateCircuit, history.DeleteCircuit:
		if (a.Kind == history.CreateCircuit) != undo {
			return p.insert(b, a.Params[0].(int))
		}
		return p.remove(b)
	case history.RenameCircuit:
		name := a.Params[1].(string)
		if undo {
			name = a.Params[0].(string)
		}
		return p.rename(b, name)
	case history.MoveCircuit:
		to := a.Params[1].(int)
		if undo {
			to = a.Params[0].(int)
		}
		return p.move(b, to)
	case history.AddComponent, history.RemoveComponent:
		comp := a.Params[0].(*circsim.Component)
		if (a.Kind == history.AddComponent) != undo {
			return b.add(p.fresh(comp), false)
		}
		return b.remove(p.resolve(comp))
	case history.AddWire, history.RemoveWire:
		w := a.Params[0].(Wire)
		if (a.Kind == history.AddWire) != undo {
			return b.addWire(w, false)
		}
		return b.removeWire(w)
	case history.MoveElements:
		comps := a.Params[0].([]*circsim.Component)
		wires := a.Params[1].([]Wire)
		dx, dy := a.Params[2].(int), a.Params[3].(int)
		cs := make([]*circsim.Component, len(comps))
		for i, c := range comps {
			cs[i] = p.resolve(c)
		}
		if undo {
			moved := make([]Wire, len(wires))
			for i, w := range wires {
				moved[i] = w.Shift(dx, dy)
			}
			return b.move(cs, moved, -dx, -dy, false)
		}
		return b.move(cs, wires, dx, dy, false)
	case history.SetProperty:
		old, nu := a.Params[0].(*circsim.Component), a.Params[1].(*circsim.Component)
		if undo {
			return b.replace(p.resolve(nu), p.fresh(old), false)
		}
		return b.replace(p.resolve(old), p.fresh(nu), false)
	}
	return errors.Errorf("unsupported action %v", a.Kind)
}
