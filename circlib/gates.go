// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circlib

import "github.com/db47h/circsim"

// NandXor returns a XOR gate built from four NAND gates.
//
//	Inputs: in0, in1
//	Outputs: out
//	Function: out = in0 ^ in1
//
func NandXor(sim *circsim.Simulator) (*circsim.Circuit, error) {
	return Chip(sim, "NandXor", "in0, in1", "out",
		Nand("in0=in0, in1=in1, out=nab"),
		Nand("in0=in0, in1=nab, out=w0"),
		Nand("in0=in1, in1=nab, out=w1"),
		Nand("in0=w0, in1=w1, out=out"),
	)
}

// Mux returns a 1 bit multiplexer built from gates.
//
//	Inputs: sel, in0, in1
//	Outputs: out
//	Function: if sel == 0 { out = in0 } else { out = in1 }
//
func Mux(sim *circsim.Simulator) (*circsim.Circuit, error) {
	return Chip(sim, "Mux", "sel, in0, in1", "out",
		Not("in=sel, out=nsel"),
		And("in0=in0, in1=nsel, out=w0"),
		And("in0=in1, in1=sel, out=w1"),
		Or("in0=w0, in1=w1, out=out"),
	)
}

// DMux returns a 1 bit demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(sim *circsim.Simulator) (*circsim.Circuit, error) {
	return Chip(sim, "DMux", "in, sel", "a, b",
		Not("in=sel, out=nsel"),
		And("in0=in, in1=nsel, out=a"),
		And("in0=in, in1=sel, out=b"),
	)
}
