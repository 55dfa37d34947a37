// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses the pin lists and connection strings used to describe
// chips.
//
//	a[4], b[4], cin       // pin list: name, optional bit width
//	in0=a, in1=b, out=s   // connections: part port = chip net
//
package hdl

import (
	"strings"
	"text/scanner"

	"github.com/db47h/circsim"
	"github.com/pkg/errors"
)

// Pin is a pin declaration.
//
type Pin struct {
	Name string
	Bits int
	Pos  int
}

// Conn connects a port of a part to a net of the enclosing chip.
//
type Conn struct {
	Port string
	Net  string
	Pos  int
}

type parser struct {
	in  string
	s   scanner.Scanner
	tok rune
	err error
}

func newParser(in string) *parser {
	p := &parser{in: in}
	p.s.Init(strings.NewReader(in))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(s *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = p.errorf(s.Position.Offset, msg)
		}
	}
	p.next()
	return p
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) pos() int { return p.s.Position.Offset }

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return errors.Errorf("in %q at pos %d: "+format, append([]interface{}{p.in, pos + 1}, args...)...)
}

func (p *parser) ident(what string) (string, int, error) {
	if p.tok != scanner.Ident {
		return "", p.pos(), p.errorf(p.pos(), "expected %s", what)
	}
	name, pos := p.s.TokenText(), p.pos()
	p.next()
	return name, pos, nil
}

// list parses a comma separated list, calling item for each element.
//
func (p *parser) list(item func() error) error {
	if p.tok == scanner.EOF {
		return p.err
	}
	for {
		if err := item(); err != nil {
			return err
		}
		switch p.tok {
		case scanner.EOF:
			return p.err
		case ',':
			p.next()
		default:
			return p.errorf(p.pos(), "expected comma or end of input")
		}
	}
}

// ParsePins parses a pin list. Pins without a width have 1 bit.
//
//	ParsePins("in[2], sel") // returns []Pin{{"in", 2, 0}, {"sel", 1, 7}}
//
func ParsePins(in string) ([]Pin, error) {
	p := newParser(in)
	var out []Pin
	seen := make(map[string]bool)
	err := p.list(func() error {
		name, pos, err := p.ident("pin name")
		if err != nil {
			return err
		}
		if seen[name] {
			return p.errorf(pos, "duplicate pin %s", name)
		}
		seen[name] = true
		bits := 1
		if p.tok == '[' {
			p.next()
			if p.tok != scanner.Int {
				return p.errorf(p.pos(), "missing bus size")
			}
			n, bad := atoi(p.s.TokenText())
			if bad || n < 1 || n > circsim.MaxWidth {
				return p.errorf(p.pos(), "bus size must be between 1 and %d", circsim.MaxWidth)
			}
			bits = n
			p.next()
			if p.tok != ']' {
				return p.errorf(p.pos(), "missing close bracket")
			}
			p.next()
		}
		out = append(out, Pin{name, bits, pos})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseConns parses a connection string. Each port may appear only once.
//
func ParseConns(in string) ([]Conn, error) {
	p := newParser(in)
	var out []Conn
	seen := make(map[string]bool)
	err := p.list(func() error {
		port, pos, err := p.ident("port name")
		if err != nil {
			return err
		}
		if seen[port] {
			return p.errorf(pos, "port %s connected twice", port)
		}
		seen[port] = true
		if p.tok != '=' {
			return p.errorf(p.pos(), "expected '='")
		}
		p.next()
		net, _, err := p.ident("net name")
		if err != nil {
			return err
		}
		out = append(out, Conn{port, net, pos})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func atoi(s string) (n int, overflow bool) {
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n > 1<<16 {
			return 0, true
		}
	}
	return n, false
}
