// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

// A PortRef identifies port Port of component Component.
//
type PortRef struct {
	Component *Component
	Port      int
}

// Width returns the width of the referenced port.
//
func (r PortRef) Width() int { return r.Component.ports[r.Port].Width }

func (r PortRef) String() string {
	return r.Component.Name() + "." + r.Component.ports[r.Port].Name
}

// A Link is a bundle of ports of equal bit width sharing one propagated value.
// Links are created with Circuit.AddLink.
//
type Link struct {
	circuit *Circuit
	width   int
	ports   []PortRef
}

// Width returns the bit width of the link.
//
func (l *Link) Width() int { return l.width }

// Ports returns the ports attached to l, in attachment order.
//
func (l *Link) Ports() []PortRef {
	return append([]PortRef(nil), l.ports...)
}

// Circuit returns the circuit l belongs to, or nil if it has been removed.
//
func (l *Link) Circuit() *Circuit { return l.circuit }

func (l *Link) detach(r PortRef) {
	for i := range l.ports {
		if l.ports[i] == r {
			copy(l.ports[i:], l.ports[i+1:])
			l.ports = l.ports[:len(l.ports)-1]
			r.Component.links[r.Port] = nil
			return
		}
	}
}

// replace swaps every port of old for the port at the same index on nu.
// Ports that do not exist on nu or have a different width are dropped.
//
func (l *Link) replace(old, nu *Component) {
	ps := l.ports[:0]
	for _, r := range l.ports {
		if r.Component == old {
			if r.Port >= len(nu.ports) || nu.ports[r.Port].Width != l.width {
				continue
			}
			r.Component = nu
			nu.links[r.Port] = l
		}
		ps = append(ps, r)
	}
	l.ports = ps
}
