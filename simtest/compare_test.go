package simtest_test

import (
	"testing"

	cs "github.com/db47h/circsim"
	"github.com/db47h/circsim/simtest"
)

func part(t *testing.T, k cs.Kind, props cs.Properties, x, y int) *cs.Component {
	t.Helper()
	c, err := cs.NewComponent(k, props, x, y)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func link(t *testing.T, c *cs.Circuit, refs ...cs.PortRef) {
	t.Helper()
	if _, err := c.AddLink(refs...); err != nil {
		t.Fatal(err)
	}
}

// nandXor builds a XOR out of four NAND gates.
func nandXor(t *testing.T, sim *cs.Simulator) *cs.Circuit {
	c := cs.NewCircuit(sim, "xor")
	a := part(t, cs.KindPin, cs.Properties{cs.PropLabel: "in0"}, 0, 0)
	b := part(t, cs.KindPin, cs.Properties{cs.PropLabel: "in1"}, 0, 3)
	out := part(t, cs.KindPin, cs.Properties{cs.PropLabel: "out", cs.PropDirection: cs.DirOut}, 40, 0)
	n := make([]*cs.Component, 4)
	for i := range n {
		n[i] = part(t, cs.KindNand, nil, 10+6*i, 0)
	}
	for _, p := range append([]*cs.Component{a, b, out}, n...) {
		if err := c.AddComponent(p); err != nil {
			t.Fatal(err)
		}
	}
	link(t, c, cs.PortRef{Component: a, Port: 0}, cs.PortRef{Component: n[0], Port: 0}, cs.PortRef{Component: n[1], Port: 0})
	link(t, c, cs.PortRef{Component: b, Port: 0}, cs.PortRef{Component: n[0], Port: 1}, cs.PortRef{Component: n[2], Port: 0})
	link(t, c, cs.PortRef{Component: n[0], Port: 2}, cs.PortRef{Component: n[1], Port: 1}, cs.PortRef{Component: n[2], Port: 1})
	link(t, c, cs.PortRef{Component: n[1], Port: 2}, cs.PortRef{Component: n[3], Port: 0})
	link(t, c, cs.PortRef{Component: n[2], Port: 2}, cs.PortRef{Component: n[3], Port: 1})
	link(t, c, cs.PortRef{Component: n[3], Port: 2}, cs.PortRef{Component: out, Port: 0})
	return c
}

func TestComparePart(t *testing.T) {
	sim := cs.NewSimulator()
	sub, err := cs.NewSubcircuit(nandXor(t, sim), nil, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	simtest.ComparePart(t, sim, part(t, cs.KindXor, nil, 0, 0), sub)
}

func TestHarness_table(t *testing.T) {
	h := simtest.New(t, nil, part(t, cs.KindOr, cs.Properties{cs.PropBits: "2"}, 0, 0))
	h.Table([][2]simtest.Vector{
		{{"in0": "00", "in1": "00"}, {"out": "00"}},
		{{"in0": "01", "in1": "10"}, {"out": "11"}},
		{{"in0": "11", "in1": "xx"}, {"out": "11"}},
		{{"in0": "00", "in1": "xE"}, {"out": "xE"}},
	})
}
