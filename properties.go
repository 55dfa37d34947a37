// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Property keys understood by the builtin component kinds.
//
const (
	PropLabel     = "label"
	PropBits      = "bits"
	PropInputs    = "inputs"
	PropDirection = "direction"
	PropSelBits   = "selbits"
	PropAddrBits  = "addrbits"
	PropCircuit   = "circuit"
)

// Pin directions, as used with PropDirection.
//
const (
	DirIn  = "in"
	DirOut = "out"
)

// Properties is a bag of component properties. Keys are one of the Prop*
// constants. Values are stored in their string form, which is also the form
// used by persistence and clipboard representations.
//
type Properties map[string]string

func intRange(min, max int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("not an integer")
		}
		if n < min || n > max {
			return errors.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}

var validators = map[string]func(string) error{
	PropLabel:    func(string) error { return nil },
	PropBits:     intRange(1, MaxWidth),
	PropInputs:   intRange(2, 32),
	PropSelBits:  intRange(1, 8),
	PropAddrBits: intRange(1, 16),
	PropDirection: func(s string) error {
		if s != DirIn && s != DirOut {
			return errors.New("must be \"in\" or \"out\"")
		}
		return nil
	},
	PropCircuit: func(s string) error {
		if s == "" {
			return errors.New("empty circuit name")
		}
		return nil
	},
}

// Validate checks every property value. Unknown keys are errors.
//
func (p Properties) Validate() error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := validators[k]
		if !ok {
			return &PropertyError{Key: k, Value: p[k], Reason: "unknown property"}
		}
		if err := v(p[k]); err != nil {
			return &PropertyError{Key: k, Value: p[k], Reason: err.Error()}
		}
	}
	return nil
}

// Copy returns a copy of p.
//
func (p Properties) Copy() Properties {
	t := make(Properties, len(p))
	for k, v := range p {
		t[k] = v
	}
	return t
}

// Merge returns the union of p and o. Values in o take precedence.
//
func (p Properties) Merge(o Properties) Properties {
	t := p.Copy()
	for k, v := range o {
		t[k] = v
	}
	return t
}

// Get returns the value for key or def if not set.
//
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the integer value for key or def if not set.
//
func (p Properties) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	if val, ok := validators[key]; ok {
		if err := val(v); err != nil {
			return 0, &PropertyError{Key: key, Value: v, Reason: err.Error()}
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &PropertyError{Key: key, Value: v, Reason: "not an integer"}
	}
	return n, nil
}

// Label is a shorthand for p.Get(PropLabel, "").
//
func (p Properties) Label() string { return p.Get(PropLabel, "") }
