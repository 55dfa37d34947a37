// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circlib

import (
	"github.com/db47h/circsim"
	"github.com/pkg/errors"
)

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(sim *circsim.Simulator) (*circsim.Circuit, error) {
	return Chip(sim, "HalfAdder", "a, b", "s, c",
		Xor("in0=a, in1=b, out=s"),
		And("in0=a, in1=b, out=c"),
	)
}

// FullAdder returns a 1 bit full adder made of two half adders. Its ports
// match those of a 1 bit ADDER component.
//
//	Inputs: a, b, cin
//	Outputs: sum, cout
//	Function: sum = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(sim *circsim.Simulator) (*circsim.Circuit, error) {
	ha, err := HalfAdder(sim)
	if err != nil {
		return nil, errors.Wrap(err, "FullAdder")
	}
	return Chip(sim, "FullAdder", "a, b, cin", "sum, cout",
		Sub(ha, "a=a, b=b, s=s0, c=c0"),
		Sub(ha, "a=s0, b=cin, s=sum, c=c1"),
		Or("in0=c0, in1=c1, out=cout"),
	)
}
