// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package history implements an undo/redo log of edit actions.
//
// Actions are recorded with AddAction and grouped into atomic units with
// BeginGroup and EndGroup. The History does not know how to revert or
// reapply an action: this is delegated to an Applier.
//
package history

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// An Applier reverts (undo is true) or reapplies an action.
//
type Applier[C comparable] interface {
	Apply(a Action[C], undo bool) error
}

// ApplierFunc adapts a function to the Applier interface.
//
type ApplierFunc[C comparable] func(a Action[C], undo bool) error

// Apply calls f(a, undo).
//
func (f ApplierFunc[C]) Apply(a Action[C], undo bool) error { return f(a, undo) }

// A Listener is notified of every action recorded, undone or redone. For
// Cleared, a is the zero Action.
//
type Listener[C comparable] func(a Action[C], op Op)

// ErrGroupOpen is returned by Undo and Redo while a group is open.
//
var ErrGroupOpen = errors.New("cannot undo or redo while a group is open")

// History is an undo/redo log. It is not safe for concurrent use.
//
type History[C comparable] struct {
	applier   Applier[C]
	undo      [][]Action[C]
	redo      [][]Action[C]
	group     []Action[C]
	depth     int
	disabled  int
	limit     int
	listeners []Listener[C]
}

// New returns a new History that applies undo and redo operations with a.
// If limit is greater than 0, only the limit most recent units are kept.
//
func New[C comparable](a Applier[C], limit int) *History[C] {
	return &History[C]{applier: a, limit: limit}
}

// AddListener registers fn.
//
func (h *History[C]) AddListener(fn Listener[C]) {
	h.listeners = append(h.listeners, fn)
}

func (h *History[C]) notify(a Action[C], op Op) {
	for _, fn := range h.listeners {
		fn(a, op)
	}
}

// Enabled returns true if actions are being recorded.
//
func (h *History[C]) Enabled() bool { return h.disabled == 0 }

// Disable suspends recording. Calls nest: recording resumes once Enable has
// been called as many times as Disable.
//
func (h *History[C]) Disable() { h.disabled++ }

// Enable undoes one call to Disable.
//
func (h *History[C]) Enable() {
	if h.disabled > 0 {
		h.disabled--
	}
}

// BeginGroup starts a group: every action recorded until the matching
// EndGroup is undone and redone as a single unit. Groups nest, only the
// outermost one counts. BeginGroup is a no-op while recording is disabled.
//
func (h *History[C]) BeginGroup() {
	if h.disabled > 0 {
		return
	}
	h.depth++
}

// EndGroup closes a group opened by BeginGroup. It is a no-op while recording
// is disabled.
//
func (h *History[C]) EndGroup() {
	if h.disabled > 0 || h.depth == 0 {
		return
	}
	h.depth--
	if h.depth > 0 || len(h.group) == 0 {
		return
	}
	h.push(h.group)
	h.group = nil
}

func (h *History[C]) push(unit []Action[C]) {
	h.undo = append(h.undo, unit)
	if h.limit > 0 && len(h.undo) > h.limit {
		n := len(h.undo) - h.limit
		copy(h.undo, h.undo[n:])
		h.undo = h.undo[:h.limit]
	}
}

// AddAction records an action. Unless a group is open, the action is a unit
// of its own. Recording an action clears the redo stack. AddAction is a no-op
// while recording is disabled.
//
func (h *History[C]) AddAction(kind Kind, ctx C, params ...interface{}) {
	if h.disabled > 0 {
		return
	}
	a := Action[C]{Kind: kind, Context: ctx, Params: params}
	h.redo = h.redo[:0]
	if h.depth > 0 {
		h.group = append(h.group, a)
	} else {
		h.push([]Action[C]{a})
	}
	log.WithField("action", kind).Debug("edit recorded")
	h.notify(a, Recorded)
}

// UndoSize returns the number of units that can be undone.
//
func (h *History[C]) UndoSize() int { return len(h.undo) }

// RedoSize returns the number of units that can be redone.
//
func (h *History[C]) RedoSize() int { return len(h.redo) }

// CanUndo returns true if the undo stack is not empty.
//
func (h *History[C]) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo returns true if the redo stack is not empty.
//
func (h *History[C]) CanRedo() bool { return len(h.redo) > 0 }

// Clear empties both stacks and discards any open group.
//
func (h *History[C]) Clear() {
	h.undo, h.redo, h.group = nil, nil, nil
	h.depth = 0
	var zero Action[C]
	h.notify(zero, Cleared)
}

// Undo reverts the most recent unit. It returns the context of the first
// action of the unit, and ok set to false if there was nothing to undo.
//
// A unit is reverted in full or not at all: if the Applier fails, the actions
// already reverted are reapplied and the unit stays on the undo stack.
//
func (h *History[C]) Undo() (ctx C, ok bool, err error) {
	if h.depth > 0 {
		return ctx, false, ErrGroupOpen
	}
	if len(h.undo) == 0 {
		return ctx, false, nil
	}
	unit := h.undo[len(h.undo)-1]
	if err = h.apply(unit, true); err != nil {
		return ctx, false, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, unit)
	for i := len(unit) - 1; i >= 0; i-- {
		h.notify(unit[i], Undone)
	}
	log.WithField("actions", len(unit)).Debug("undo")
	return unit[0].Context, true, nil
}

// Redo reapplies the most recently undone unit. It returns the context of the
// last action of the unit, and ok set to false if there was nothing to redo.
//
func (h *History[C]) Redo() (ctx C, ok bool, err error) {
	if h.depth > 0 {
		return ctx, false, ErrGroupOpen
	}
	if len(h.redo) == 0 {
		return ctx, false, nil
	}
	unit := h.redo[len(h.redo)-1]
	if err = h.apply(unit, false); err != nil {
		return ctx, false, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, unit)
	for _, a := range unit {
		h.notify(a, Redone)
	}
	log.WithField("actions", len(unit)).Debug("redo")
	return unit[len(unit)-1].Context, true, nil
}

// apply reverts a unit in reverse order or reapplies it in order, with
// recording disabled. On failure, it rolls back what was already applied.
//
func (h *History[C]) apply(unit []Action[C], undo bool) error {
	h.Disable()
	defer h.Enable()
	n := len(unit)
	at := func(i int) Action[C] {
		if undo {
			return unit[n-1-i]
		}
		return unit[i]
	}
	for i := 0; i < n; i++ {
		err := h.applier.Apply(at(i), undo)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if rerr := h.applier.Apply(at(j), !undo); rerr != nil {
				log.WithError(rerr).Error("rollback failed")
			}
		}
		op := "redo"
		if undo {
			op = "undo"
		}
		return errors.Wrapf(err, "%s of %s", op, at(i).Kind)
	}
	return nil
}
