// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package history

import "strconv"

// Kind is the kind of a recorded Action.
//
type Kind int

// Action kinds. The parameters each one carries are defined by the code that
// records them and applies them back.
//
const (
	CreateCircuit Kind = iota
	DeleteCircuit
	RenameCircuit
	MoveCircuit
	AddComponent
	RemoveComponent
	AddWire
	RemoveWire
	MoveElements
	SetProperty
)

var kindNames = [...]string{
	CreateCircuit:   "CREATE_CIRCUIT",
	DeleteCircuit:   "DELETE_CIRCUIT",
	RenameCircuit:   "RENAME_CIRCUIT",
	MoveCircuit:     "MOVE_CIRCUIT",
	AddComponent:    "ADD_COMPONENT",
	RemoveComponent: "REMOVE_COMPONENT",
	AddWire:         "ADD_WIRE",
	RemoveWire:      "REMOVE_WIRE",
	MoveElements:    "MOVE_ELEMENTS",
	SetProperty:     "SET_PROPERTY",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// An Action is one recorded edit. Context identifies what the edit applies to,
// so that callers can bring it into view after an undo or redo. Params holds
// everything needed to both revert and reapply the edit.
//
type Action[C comparable] struct {
	Kind    Kind
	Context C
	Params  []interface{}
}

// Op tells listeners what happened to an action.
//
type Op int

// Operations reported to listeners.
//
const (
	Recorded Op = iota
	Undone
	Redone
	Cleared
)

func (o Op) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case Undone:
		return "undone"
	case Redone:
		return "redone"
	}
	return "cleared"
}
