// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package circlib provides a library of reusable circuits built from the
// builtin components, and Chip, the function used to compose them.
//
package circlib

import (
	"sort"
	"strconv"

	"github.com/db47h/circsim"
	"github.com/db47h/circsim/internal/hdl"
	"github.com/pkg/errors"
)

// A Part is a component to be placed in a chip together with its connections:
// a list of port=net assignments. Nets named after a chip pin connect to that
// pin, other nets are internal to the chip. Unconnected ports float.
//
type Part struct {
	Kind  circsim.Kind
	Props circsim.Properties
	Sub   *circsim.Circuit
	Conns string
}

// With returns a copy of p with props merged over its properties.
//
func (p Part) With(props circsim.Properties) Part {
	p.Props = p.Props.Merge(props)
	return p
}

func (p Part) component(x, y int) (*circsim.Component, error) {
	if p.Sub != nil {
		return circsim.NewSubcircuit(p.Sub, p.Props, x, y)
	}
	return circsim.NewComponent(p.Kind, p.Props, x, y)
}

// Gate returns a part of kind k.
//
func Gate(k circsim.Kind, conns string) Part { return Part{Kind: k, Conns: conns} }

// Sub returns a subcircuit part wrapping c.
//
func Sub(c *circsim.Circuit, conns string) Part {
	return Part{Kind: circsim.KindSubcircuit, Sub: c, Conns: conns}
}

// Not returns a NOT gate part. Ports: in, out.
//
func Not(conns string) Part { return Gate(circsim.KindNot, conns) }

// And returns an AND gate part. Ports: in0, in1, out.
//
func And(conns string) Part { return Gate(circsim.KindAnd, conns) }

// Or returns an OR gate part. Ports: in0, in1, out.
//
func Or(conns string) Part { return Gate(circsim.KindOr, conns) }

// Nand returns a NAND gate part. Ports: in0, in1, out.
//
func Nand(conns string) Part { return Gate(circsim.KindNand, conns) }

// Xor returns a XOR gate part. Ports: in0, in1, out.
//
func Xor(conns string) Part { return Gate(circsim.KindXor, conns) }

// layout
const (
	partsX = 10
	pinGap = 3
)

// Chip composes parts into a new circuit named name. The inputs and outputs
// pin lists (see package hdl) become the pins of the circuit, in that order,
// so that a subcircuit wrapping it has one port per pin.
//
// A XOR gate could be created like this:
//
//	xor, err := Chip(sim, "XOR", "a, b", "out",
//		Nand("in0=a, in1=b, out=nab"),
//		Nand("in0=a, in1=nab, out=w0"),
//		Nand("in0=b, in1=nab, out=w1"),
//		Nand("in0=w0, in1=w1, out=out"),
//	)
//
// Components are laid out in a column between the input and output pins and
// linked directly, without wires.
//
func Chip(sim *circsim.Simulator, name, inputs, outputs string, parts ...Part) (*circsim.Circuit, error) {
	c := circsim.NewCircuit(sim, name)
	if err := build(c, inputs, outputs, parts); err != nil {
		c.Dispose()
		return nil, errors.Wrap(err, name)
	}
	return c, nil
}

func build(c *circsim.Circuit, inputs, outputs string, parts []Part) error {
	ins, err := hdl.ParsePins(inputs)
	if err != nil {
		return err
	}
	outs, err := hdl.ParsePins(outputs)
	if err != nil {
		return err
	}
	nets := make(map[string][]circsim.PortRef)
	pins := make(map[string]bool)
	addPin := func(p hdl.Pin, dir string, x, y int) error {
		if pins[p.Name] {
			return errors.Errorf("duplicate pin %s", p.Name)
		}
		pins[p.Name] = true
		pin, err := circsim.NewComponent(circsim.KindPin, circsim.Properties{
			circsim.PropLabel:     p.Name,
			circsim.PropBits:      strconv.Itoa(p.Bits),
			circsim.PropDirection: dir,
		}, x, y)
		if err == nil {
			err = c.AddComponent(pin)
		}
		if err != nil {
			return err
		}
		nets[p.Name] = append(nets[p.Name], circsim.PortRef{Component: pin, Port: 0})
		return nil
	}
	for i, p := range ins {
		if err = addPin(p, circsim.DirIn, 0, pinGap*i); err != nil {
			return err
		}
	}

	y, w := 0, 0
	for i, p := range parts {
		comp, err := p.component(partsX, y)
		if err != nil {
			return errors.Wrapf(err, "part %d", i)
		}
		if err = c.AddComponent(comp); err != nil {
			return errors.Wrapf(err, "part %d", i)
		}
		cw, ch := comp.Size()
		y += ch + 1
		if cw > w {
			w = cw
		}
		conns, err := hdl.ParseConns(p.Conns)
		if err != nil {
			return errors.Wrapf(err, "part %d", i)
		}
		for _, cn := range conns {
			port := comp.PortIndex(cn.Port)
			if port < 0 {
				return errors.Errorf("part %d: no port %s on %s", i, cn.Port, comp.Name())
			}
			nets[cn.Net] = append(nets[cn.Net], circsim.PortRef{Component: comp, Port: port})
		}
	}

	for i, p := range outs {
		if err = addPin(p, circsim.DirOut, partsX+w+partsX, pinGap*i); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(nets))
	for n := range nets {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		refs := nets[n]
		if len(refs) < 2 {
			continue
		}
		if _, err = c.AddLink(refs...); err != nil {
			return errors.Wrapf(err, "net %s", n)
		}
	}
	return nil
}
