// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circlib

import (
	"strconv"

	"github.com/db47h/circsim"
)

// DFF returns a data flip flop of the given width, clocked by the simulator
// clock.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(sim *circsim.Simulator, bits int) (*circsim.Circuit, error) {
	w := strconv.Itoa(bits)
	return Chip(sim, "DFF"+w, "in["+w+"]", "out["+w+"]",
		Gate(circsim.KindClock, "clk=clk"),
		Gate(circsim.KindRegister, "in=in, clk=clk, out=out").With(circsim.Properties{circsim.PropBits: w}),
	)
}
