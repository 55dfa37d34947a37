package circlib_test

import (
	"testing"

	"github.com/db47h/circsim"
	"github.com/db47h/circsim/circlib"
	"github.com/db47h/circsim/simtest"
	"github.com/pkg/errors"
)

type row = [2]simtest.Vector

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func sub(t *testing.T, c *circsim.Circuit, err error) *circsim.Component {
	t.Helper()
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	s, err := circsim.NewSubcircuit(c, nil, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func builtin(t *testing.T, k circsim.Kind, props circsim.Properties) *circsim.Component {
	t.Helper()
	c, err := circsim.NewComponent(k, props, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNandXor(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.NandXor(sim)
	simtest.ComparePart(t, sim, builtin(t, circsim.KindXor, nil), sub(t, c, err))
}

func TestMux(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.Mux(sim)
	simtest.ComparePart(t, sim, builtin(t, circsim.KindMux, nil), sub(t, c, err))
}

func TestDMux(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.DMux(sim)
	h := simtest.New(t, sim, sub(t, c, err))
	h.Table([]row{
		{{"in": "0", "sel": "0"}, {"a": "0", "b": "0"}},
		{{"in": "1", "sel": "0"}, {"a": "1", "b": "0"}},
		{{"in": "0", "sel": "1"}, {"a": "0", "b": "0"}},
		{{"in": "1", "sel": "1"}, {"a": "0", "b": "1"}},
	})
}

func TestHalfAdder(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.HalfAdder(sim)
	h := simtest.New(t, sim, sub(t, c, err))
	h.Table([]row{
		{{"a": "0", "b": "0"}, {"s": "0", "c": "0"}},
		{{"a": "1", "b": "0"}, {"s": "1", "c": "0"}},
		{{"a": "0", "b": "1"}, {"s": "1", "c": "0"}},
		{{"a": "1", "b": "1"}, {"s": "0", "c": "1"}},
	})
}

func TestFullAdder(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.FullAdder(sim)
	simtest.ComparePart(t, sim, builtin(t, circsim.KindAdder, circsim.Properties{circsim.PropBits: "1"}), sub(t, c, err))
}

func TestDFF(t *testing.T) {
	sim := circsim.NewSimulator()
	c, err := circlib.DFF(sim, 4)
	h := simtest.New(t, sim, sub(t, c, err))
	clk := sim.Clock()
	tick := func() {
		t.Helper()
		if err := clk.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	h.Check(simtest.Vector{"in": "0101"}, simtest.Vector{"out": "0000"})
	tick() // rising edge
	h.Check(nil, simtest.Vector{"out": "0101"})
	h.Check(simtest.Vector{"in": "0011"}, simtest.Vector{"out": "0101"})
	tick()
	h.Check(nil, simtest.Vector{"out": "0101"})
	tick()
	h.Check(nil, simtest.Vector{"out": "0011"})
}

func TestChip_errors(t *testing.T) {
	sim := circsim.NewSimulator()
	data := []struct {
		name         string
		inputs, outs string
		parts        []circlib.Part
	}{
		{"bad pins", "a[", "out", nil},
		{"duplicate pin", "a", "a", nil},
		{"bad conns", "a", "out", []circlib.Part{circlib.Not("in=")}},
		{"no such port", "a", "out", []circlib.Part{circlib.Not("x=a")}},
		{"width", "a[2]", "out", []circlib.Part{circlib.Not("in=a, out=out")}},
		{"bad property", "a", "out", []circlib.Part{circlib.Not("in=a").With(circsim.Properties{circsim.PropBits: "0"})}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			if _, err := circlib.Chip(sim, d.name, d.inputs, d.outs, d.parts...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
