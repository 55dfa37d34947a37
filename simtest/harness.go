// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing circuits.
//
package simtest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/db47h/circsim"
)

// A Harness wraps a single component in a test circuit where every port is
// linked to a pin of the same name and width: input ports are driven by input
// pins, output ports feed output pins.
//
type Harness struct {
	t       testing.TB
	Sim     *circsim.Simulator
	Circuit *circsim.Circuit
	Part    *circsim.Component
	pins    map[string]*circsim.Component
}

// New creates a harness around a detached copy of part. If sim is nil, a new
// simulator is created. Subcircuit parts must use the simulator their nested
// circuit belongs to.
//
func New(t testing.TB, sim *circsim.Simulator, part *circsim.Component) *Harness {
	t.Helper()
	if sim == nil {
		sim = circsim.NewSimulator()
	}
	h := &Harness{
		t:       t,
		Sim:     sim,
		Circuit: circsim.NewCircuit(sim, "harness"),
		pins:    make(map[string]*circsim.Component),
	}
	h.Part = h.add(part, 10, 0, "")
	return h
}

// add places part at (x, y) and links each of its ports to a pin. Pins are
// named after the port, with suffix appended for output ports. Input pins
// that already exist are shared.
//
func (h *Harness) add(part *circsim.Component, x, y int, suffix string) *circsim.Component {
	h.t.Helper()
	p := part.At(x, y)
	if err := h.Circuit.AddComponent(p); err != nil {
		h.t.Fatal(err)
	}
	var ins, outs int
	for _, c := range h.Circuit.Components() {
		if c.Kind() != circsim.KindPin {
			continue
		}
		if c.Property(circsim.PropDirection) == circsim.DirOut {
			outs++
		} else {
			ins++
		}
	}
	for i, port := range p.Ports() {
		name := port.Name
		dir, px, py := circsim.DirIn, 0, 3*ins
		if port.Dir == circsim.Output {
			name += suffix
			dir, px, py = circsim.DirOut, 40, 3*outs
		}
		pin, ok := h.pins[name]
		if !ok {
			var err error
			pin, err = circsim.NewComponent(circsim.KindPin, circsim.Properties{
				circsim.PropLabel:     name,
				circsim.PropBits:      strconv.Itoa(port.Width),
				circsim.PropDirection: dir,
			}, px, py)
			if err != nil {
				h.t.Fatal(err)
			}
			if err = h.Circuit.AddComponent(pin); err != nil {
				h.t.Fatal(err)
			}
			h.pins[name] = pin
			if port.Dir == circsim.Output {
				outs++
			} else {
				ins++
			}
		}
		if l := pin.Link(0); l != nil {
			ports := append(l.Ports(), circsim.PortRef{Component: p, Port: i})
			if err := h.Circuit.RemoveLink(l); err != nil {
				h.t.Fatal(err)
			}
			if _, err := h.Circuit.AddLink(ports...); err != nil {
				h.t.Fatal(err)
			}
			continue
		}
		if _, err := h.Circuit.AddLink(circsim.PortRef{Component: p, Port: i}, circsim.PortRef{Component: pin, Port: 0}); err != nil {
			h.t.Fatal(err)
		}
	}
	return p
}

// State returns the top level state of the harness circuit.
//
func (h *Harness) State() *circsim.CircuitState { return h.Circuit.TopLevelState() }

// Pin returns the pin linked to the named port.
//
func (h *Harness) Pin(name string) *circsim.Component {
	h.t.Helper()
	p, ok := h.pins[name]
	if !ok {
		h.t.Fatalf("no pin named %q", name)
	}
	return p
}

// Set drives the named input with v.
//
func (h *Harness) Set(name string, v circsim.Value) {
	h.t.Helper()
	if err := h.State().SetPin(h.Pin(name), v); err != nil {
		h.t.Fatal(err)
	}
}

// SetUint drives the named input with the fully defined value n.
//
func (h *Harness) SetUint(name string, n uint32) {
	h.t.Helper()
	h.Set(name, circsim.ValueOf(h.Pin(name).Port(0).Width, n))
}

// Get returns the value seen by the named pin.
//
func (h *Harness) Get(name string) circsim.Value {
	h.t.Helper()
	return h.State().Value(h.Pin(name), 0)
}

// Pulse brings the named input low then high, producing a rising edge.
//
func (h *Harness) Pulse(name string) {
	h.t.Helper()
	h.SetUint(name, 0)
	h.SetUint(name, 1)
}

// A Vector maps pin names to values in the form accepted by
// circsim.ParseValue.
//
type Vector map[string]string

func (v Vector) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteRune('=')
		b.WriteString(v[k])
	}
	return b.String()
}

// Check sets every input of in, then checks that every output of want has the
// expected value.
//
func (h *Harness) Check(in, want Vector) {
	h.t.Helper()
	for _, k := range sortedKeys(in) {
		v, err := circsim.ParseValue(in[k])
		if err != nil {
			h.t.Fatal(err)
		}
		h.Set(k, v)
	}
	for _, k := range sortedKeys(want) {
		if got := h.Get(k).String(); got != want[k] {
			h.t.Errorf("%v: expected %s=%s, got %s", in, k, want[k], got)
		}
	}
}

// Table runs Check on each pair of vectors.
//
func (h *Harness) Table(rows [][2]Vector) {
	h.t.Helper()
	for _, r := range rows {
		h.Check(r[0], r[1])
	}
}

func sortedKeys(v Vector) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h *Harness) inputs() []*circsim.Component {
	var ps []*circsim.Component
	for _, name := range sortedPins(h.pins) {
		if p := h.pins[name]; p.Property(circsim.PropDirection) != circsim.DirOut {
			ps = append(ps, p)
		}
	}
	return ps
}

func sortedPins(m map[string]*circsim.Component) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func errString(in []*circsim.Component, s *circsim.CircuitState, out string, a, b circsim.Value) string {
	var sb strings.Builder
	for _, p := range in {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%s", p.Name(), s.Value(p, 0))
	}
	return fmt.Sprintf("\nWith %s\n%s: %s != %s", sb.String(), out, a, b)
}
