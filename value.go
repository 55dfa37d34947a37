// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxWidth is the maximum bit width of a Value.
//
const MaxWidth = 32

// State is the state of a single bit.
//
type State uint8

// Bit states.
//
const (
	Zero State = iota
	One
	Floating
	Error
)

func (s State) String() string {
	switch s {
	case Zero:
		return "0"
	case One:
		return "1"
	case Floating:
		return "x"
	}
	return "E"
}

// A Value is a fixed width bit vector where each bit is either 0, 1, floating
// or error. The zero Value has a width of 0 and is only useful as a "no value"
// marker.
//
// Bit 0 is the least significant bit.
//
type Value struct {
	width uint8
	bits  uint32 // one bits, only meaningful where x and e are clear
	x     uint32 // floating bits
	e     uint32 // error bits
}

func mask(width int) uint32 {
	if width >= 32 {
		return ^uint32(0)
	}
	return 1<<uint(width) - 1
}

func checkWidth(width int) {
	if width <= 0 || width > MaxWidth {
		panic("invalid bit width " + strconv.Itoa(width))
	}
}

func value(width int, bits, x, e uint32) Value {
	m := mask(width)
	e &= m
	x &= m &^ e
	bits &= m &^ x &^ e
	return Value{width: uint8(width), bits: bits, x: x, e: e}
}

// NewValue returns a Value of the given width with all bits floating.
//
func NewValue(width int) Value {
	checkWidth(width)
	return value(width, 0, ^uint32(0), 0)
}

// ValueOf returns a fully defined Value of the given width. Bits of v above
// width are ignored.
//
func ValueOf(width int, v uint32) Value {
	checkWidth(width)
	return value(width, v, 0, 0)
}

// ErrorValue returns a Value of the given width with all bits in error.
//
func ErrorValue(width int) Value {
	checkWidth(width)
	return value(width, 0, 0, ^uint32(0))
}

// ParseValue parses a string of the form returned by Value.String: most
// significant bit first, with 'x' for floating bits and 'E' for error bits.
//
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > MaxWidth {
		return Value{}, errors.Errorf("invalid value %q: width must be between 1 and %d", s, MaxWidth)
	}
	var bits, x, e uint32
	w := len(s)
	for i := 0; i < w; i++ {
		b := uint32(1) << uint(w-1-i)
		switch s[i] {
		case '0':
		case '1':
			bits |= b
		case 'x', 'X':
			x |= b
		case 'e', 'E':
			e |= b
		default:
			return Value{}, errors.Errorf("invalid value %q: unexpected character %q", s, s[i])
		}
	}
	return value(w, bits, x, e), nil
}

// Width returns the bit width of v.
//
func (v Value) Width() int { return int(v.width) }

// Bit returns the state of bit i.
//
func (v Value) Bit(i int) State {
	b := uint32(1) << uint(i)
	switch {
	case v.e&b != 0:
		return Error
	case v.x&b != 0:
		return Floating
	case v.bits&b != 0:
		return One
	}
	return Zero
}

// WithBit returns a copy of v where bit i is set to s.
//
func (v Value) WithBit(i int, s State) Value {
	b := uint32(1) << uint(i)
	bits, x, e := v.bits&^b, v.x&^b, v.e&^b
	switch s {
	case One:
		bits |= b
	case Floating:
		x |= b
	case Error:
		e |= b
	}
	return value(int(v.width), bits, x, e)
}

// Uint returns the numeric value of v. ok is false if any bit is floating or
// in error.
//
func (v Value) Uint() (n uint32, ok bool) {
	return v.bits, v.IsDefined()
}

// IsDefined returns true if every bit of v is either 0 or 1.
//
func (v Value) IsDefined() bool { return v.x|v.e == 0 }

// HasError returns true if any bit of v is in error.
//
func (v Value) HasError() bool { return v.e != 0 }

// HasFloating returns true if any bit of v is floating.
//
func (v Value) HasFloating() bool { return v.x != 0 }

// Equal reports whether v and o are bitwise identical, including floating
// and error bits.
//
func (v Value) Equal(o Value) bool {
	return v == o
}

// Merge combines two values driven onto the same link. A floating bit yields
// to the other driver, error bits stay in error and disagreeing 0/1 bits
// become errors, in which case conflict is true. Merge is commutative.
//
func (v Value) Merge(o Value) (r Value, conflict bool) {
	if v.width != o.width {
		panic("merging values of different widths")
	}
	vd := ^v.x &^ v.e // defined bits
	od := ^o.x &^ o.e
	clash := vd & od & (v.bits ^ o.bits)
	e := v.e | o.e | clash
	x := v.x & o.x
	bits := (v.bits & vd) | (o.bits & od)
	return value(int(v.width), bits, x, e), clash != 0
}

// Slice returns the width bits of v starting at bit from.
//
func (v Value) Slice(from, width int) Value {
	checkWidth(width)
	if from < 0 || from+width > int(v.width) {
		panic("slice out of range")
	}
	s := uint(from)
	return value(width, v.bits>>s, v.x>>s, v.e>>s)
}

// String returns the bits of v, most significant bit first.
//
func (v Value) String() string {
	var b strings.Builder
	for i := int(v.width) - 1; i >= 0; i-- {
		b.WriteString(v.Bit(i).String())
	}
	return b.String()
}

// logic helpers used by builtin components. They all give precedence to error
// bits so that errors propagate through every computation.

func not(v Value) Value {
	return value(int(v.width), ^v.bits, v.x, v.e)
}

func and(vs ...Value) Value {
	w := int(vs[0].width)
	var e, zeros uint32
	ones := ^uint32(0)
	for _, v := range vs {
		def := ^v.x &^ v.e
		e |= v.e
		zeros |= def &^ v.bits
		ones &= def & v.bits
	}
	return value(w, ones&^zeros, ^(zeros | ones), e)
}

func or(vs ...Value) Value {
	w := int(vs[0].width)
	var e, ones uint32
	zeros := ^uint32(0)
	for _, v := range vs {
		def := ^v.x &^ v.e
		e |= v.e
		ones |= def & v.bits
		zeros &= def &^ v.bits
	}
	return value(w, ones, ^(zeros | ones), e)
}

func xor(vs ...Value) Value {
	w := int(vs[0].width)
	var e, x, bits uint32
	for _, v := range vs {
		e |= v.e
		x |= v.x
		bits ^= v.bits
	}
	return value(w, bits, x, e)
}
