// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

// Stateful components only update their memory on a rising edge of their clk
// port. Re-running them without a new edge leaves memory untouched.

// register ports
const (
	regIn = iota
	regEnable
	regClk
	regClear
	regOut
)

type registerMemory struct {
	value Value
	clk   State // last clk state seen
}

var registerSpec = &KindSpec{
	ID:       "REGISTER",
	Defaults: Properties{PropBits: "8"},
	Width:    4,
	Ports: func(c *Component) ([]Port, error) {
		w, err := c.props.Int(PropBits, 8)
		if err != nil {
			return nil, err
		}
		return []Port{
			{pIn, Input, w},
			{pEnable, Input, 1},
			{pClk, Input, 1},
			{pClear, Input, 1},
			{pOut, Output, w},
		}, nil
	},
	Memory: func(c *Component) interface{} {
		return &registerMemory{value: ValueOf(c.ports[regIn].Width, 0), clk: Floating}
	},
	Update: updateRegister,
}

func updateRegister(s *CircuitState, c *Component) {
	m := s.memoryFor(c).(*registerMemory)
	w := c.ports[regIn].Width
	clk := s.get(c, regClk).Bit(0)
	if m.clk == Zero && clk == One {
		// an unconnected enable means always enabled
		switch s.get(c, regEnable).Bit(0) {
		case Zero:
		case Error:
			m.value = ErrorValue(w)
		default:
			m.value = s.get(c, regIn)
		}
	}
	m.clk = clk
	switch s.get(c, regClear).Bit(0) {
	case One:
		m.value = ValueOf(w, 0)
	case Error:
		s.push(c, regOut, ErrorValue(w))
		return
	}
	if clk == Error {
		s.push(c, regOut, ErrorValue(w))
		return
	}
	s.push(c, regOut, m.value)
}

// RAM ports
const (
	ramAddr = iota
	ramData
	ramStore
	ramLoad
	ramClk
	ramClear
	ramOut
)

type ramMemory struct {
	words map[uint32]Value
	clk   State
}

func (m *ramMemory) load(addr uint32, width int) Value {
	if v, ok := m.words[addr]; ok {
		return v
	}
	return ValueOf(width, 0)
}

var ramSpec = &KindSpec{
	ID:       "RAM",
	Defaults: Properties{PropBits: "8", PropAddrBits: "8"},
	Width:    4,
	Ports: func(c *Component) ([]Port, error) {
		w, err := c.props.Int(PropBits, 8)
		if err != nil {
			return nil, err
		}
		a, err := c.props.Int(PropAddrBits, 8)
		if err != nil {
			return nil, err
		}
		return []Port{
			{"address", Input, a},
			{"data", Input, w},
			{"store", Input, 1},
			{"load", Input, 1},
			{pClk, Input, 1},
			{pClear, Input, 1},
			{pOut, Output, w},
		}, nil
	},
	Memory: func(c *Component) interface{} {
		return &ramMemory{words: make(map[uint32]Value), clk: Floating}
	},
	Update: updateRAM,
}

func updateRAM(s *CircuitState, c *Component) {
	m := s.memoryFor(c).(*ramMemory)
	w := c.ports[ramData].Width
	addr := s.get(c, ramAddr)
	clk := s.get(c, ramClk).Bit(0)
	if m.clk == Zero && clk == One && s.get(c, ramStore).Bit(0) == One {
		if a, ok := addr.Uint(); ok {
			m.words[a] = s.get(c, ramData)
		}
	}
	m.clk = clk
	if s.get(c, ramClear).Bit(0) == One {
		m.words = make(map[uint32]Value)
	}
	switch s.get(c, ramLoad).Bit(0) {
	case Zero:
		s.push(c, ramOut, NewValue(w))
		return
	case Error:
		s.push(c, ramOut, ErrorValue(w))
		return
	}
	a, ok := addr.Uint()
	switch {
	case ok:
		s.push(c, ramOut, m.load(a, w))
	case addr.HasError():
		s.push(c, ramOut, ErrorValue(w))
	default:
		s.push(c, ramOut, NewValue(w))
	}
}
