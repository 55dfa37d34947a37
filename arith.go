// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import "strconv"

var muxSpec = &KindSpec{
	ID:       "MUX",
	Defaults: Properties{PropBits: "1", PropSelBits: "1"},
	Ports: func(c *Component) ([]Port, error) {
		w, err := c.props.Int(PropBits, 1)
		if err != nil {
			return nil, err
		}
		sb, err := c.props.Int(PropSelBits, 1)
		if err != nil {
			return nil, err
		}
		n := 1 << uint(sb)
		ps := make([]Port, 0, n+2)
		ps = append(ps, Port{"sel", Input, sb})
		for i := 0; i < n; i++ {
			ps = append(ps, Port{pIn + strconv.Itoa(i), Input, w})
		}
		return append(ps, Port{pOut, Output, w}), nil
	},
	Update: func(s *CircuitState, c *Component) {
		out := len(c.ports) - 1
		w := c.ports[out].Width
		sel := s.get(c, 0)
		n, ok := sel.Uint()
		switch {
		case ok:
			s.push(c, out, s.get(c, 1+int(n)))
		case sel.HasError():
			s.push(c, out, ErrorValue(w))
		default:
			s.push(c, out, NewValue(w))
		}
	},
}

// adder ports
const (
	addA = iota
	addB
	addCarryIn
	addSum
	addCarryOut
)

var adderSpec = &KindSpec{
	ID:       "ADDER",
	Defaults: Properties{PropBits: "8"},
	Ports: func(c *Component) ([]Port, error) {
		w, err := c.props.Int(PropBits, 8)
		if err != nil {
			return nil, err
		}
		return []Port{
			{"a", Input, w},
			{"b", Input, w},
			{"cin", Input, 1},
			{"sum", Output, w},
			{"cout", Output, 1},
		}, nil
	},
	Update: func(s *CircuitState, c *Component) {
		w := c.ports[addA].Width
		a, b, cin := s.get(c, addA), s.get(c, addB), s.get(c, addCarryIn)
		switch {
		case a.HasError() || b.HasError() || cin.HasError():
			s.push(c, addSum, ErrorValue(w))
			s.push(c, addCarryOut, ErrorValue(1))
			return
		case a.HasFloating() || b.HasFloating():
			s.push(c, addSum, NewValue(w))
			s.push(c, addCarryOut, NewValue(1))
			return
		}
		av, _ := a.Uint()
		bv, _ := b.Uint()
		sum := uint64(av) + uint64(bv)
		// a floating carry in counts as 0
		if cin.Bit(0) == One {
			sum++
		}
		s.push(c, addSum, ValueOf(w, uint32(sum)))
		s.push(c, addCarryOut, ValueOf(1, uint32(sum>>uint(w))))
	},
}
