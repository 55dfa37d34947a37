// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package project

import (
	"github.com/db47h/circsim"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Wire is a horizontal or vertical segment of Length grid units starting at
// (X, Y). Ports and wire ends lying anywhere on a wire are connected to it.
// Wires crossing each other without an end on the other one are not.
//
type Wire struct {
	X, Y       int
	Length     int
	Horizontal bool
}

type point struct{ x, y int }

func (w Wire) start() point { return point{w.X, w.Y} }

func (w Wire) end() point {
	if w.Horizontal {
		return point{w.X + w.Length, w.Y}
	}
	return point{w.X, w.Y + w.Length}
}

func (w Wire) contains(p point) bool {
	if w.Horizontal {
		return p.y == w.Y && p.x >= w.X && p.x <= w.X+w.Length
	}
	return p.x == w.X && p.y >= w.Y && p.y <= w.Y+w.Length
}

// Shift returns w moved by (dx, dy).
//
func (w Wire) Shift(dx, dy int) Wire {
	w.X += dx
	w.Y += dy
	return w
}

func (w Wire) check() error {
	if w.Length <= 0 {
		return errors.Errorf("invalid wire length %d", w.Length)
	}
	return nil
}

type unionFind map[point]point

func (u unionFind) find(p point) point {
	r := p
	for {
		q, ok := u[r]
		if !ok || q == r {
			break
		}
		r = q
	}
	for p != r {
		q := u[p]
		u[p] = r
		p = q
	}
	return r
}

func (u unionFind) union(a, b point) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u[ra] = rb
	}
}

// connect computes the groups of ports connected together, either directly by
// sharing the same grid position or through wires. Components in offset are
// considered moved by the given amount. Groups are returned in component and
// port order.
//
// If a group has ports of different widths, connect fails with a
// *circsim.WidthError in strict mode. Otherwise the group is dropped.
//
func connect(comps []*circsim.Component, offset map[*circsim.Component]point, wires []Wire, strict bool) ([][]circsim.PortRef, error) {
	type portAt struct {
		r  circsim.PortRef
		pt point
	}
	var ports []portAt
	for _, c := range comps {
		d := offset[c]
		for i := 0; i < c.PortCount(); i++ {
			x, y := c.PortPosition(i)
			ports = append(ports, portAt{circsim.PortRef{Component: c, Port: i}, point{x + d.x, y + d.y}})
		}
	}

	uf := make(unionFind)
	for _, w := range wires {
		s := w.start()
		uf.union(s, w.end())
		for _, p := range ports {
			if w.contains(p.pt) {
				uf.union(s, p.pt)
			}
		}
		for _, o := range wires {
			if w.contains(o.start()) {
				uf.union(s, o.start())
			}
			if w.contains(o.end()) {
				uf.union(s, o.end())
			}
		}
	}

	idx := make(map[point]int)
	var groups [][]circsim.PortRef
	for _, p := range ports {
		root := uf.find(p.pt)
		i, ok := idx[root]
		if !ok {
			i = len(groups)
			idx[root] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p.r)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		if err := checkWidths(g); err != nil {
			if strict {
				return nil, err
			}
			log.WithError(err).Warn("connection dropped")
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func checkWidths(g []circsim.PortRef) error {
	w := g[0].Width()
	for _, r := range g[1:] {
		if r.Width() != w {
			return &circsim.WidthError{Want: w, Got: r.Width(), Port: r.String()}
		}
	}
	return nil
}

// relink makes the links of b's circuit match groups. Links already matching
// a group are left untouched.
//
func (b *Board) relink(groups [][]circsim.PortRef) {
	idx := make(map[circsim.PortRef]int)
	for i, g := range groups {
		for _, r := range g {
			idx[r] = i
		}
	}
	keep := make([]bool, len(groups))
	for _, l := range b.circuit.Links() {
		ps := l.Ports()
		gi, match := -1, len(ps) > 0
		if match {
			gi, match = idx[ps[0]]
		}
		match = match && !keep[gi] && len(ps) == len(groups[gi])
		for _, r := range ps {
			if j, ok := idx[r]; !ok || j != gi {
				match = false
			}
		}
		if match {
			keep[gi] = true
			continue
		}
		if err := b.circuit.RemoveLink(l); err != nil {
			log.WithError(err).Error("remove link")
		}
	}
	for i, g := range groups {
		if keep[i] {
			continue
		}
		if _, err := b.circuit.AddLink(g...); err != nil {
			log.WithError(err).Error("add link")
		}
	}
}

// sync recomputes the links of b from its current layout.
//
func (b *Board) sync() {
	groups, _ := connect(b.circuit.Components(), nil, b.wires, false)
	b.relink(groups)
}
