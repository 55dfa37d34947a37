// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/db47h/circsim"
)

const maxCompareBits = 12

// ComparePart takes two parts and compares their outputs given the same
// inputs. Both parts must have the same port names and widths. Inputs are
// tried exhaustively up to 12 input bits, randomly beyond.
//
func ComparePart(t testing.TB, sim *circsim.Simulator, part1, part2 *circsim.Component) {
	t.Helper()
	p1, p2 := part1.Ports(), part2.Ports()
	if len(p1) != len(p2) {
		t.Fatalf("port count mismatch: %d != %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("port %d mismatch: %v != %v", i, p1[i], p2[i])
		}
	}

	h := New(t, sim, part1)
	_, ph := h.Part.Size()
	h.add(part2, 10, ph+1, "'")
	in := h.inputs()

	bits := 0
	for _, p := range in {
		bits += p.Port(0).Width
	}
	exhaustive := bits <= maxCompareBits
	iter := 1 << uint(bits)
	if !exhaustive {
		iter = 1 << maxCompareBits
	}
	seed := time.Now().UnixNano()
	rnd := rand.New(rand.NewSource(seed))

	start := time.Now()
	for i := 0; i < iter; i++ {
		n := uint64(i)
		for _, p := range in {
			w := p.Port(0).Width
			var v uint32
			if exhaustive {
				v = uint32(n) & (1<<uint(w) - 1)
				n >>= uint(w)
			} else {
				v = rnd.Uint32()
			}
			h.Set(p.Name(), circsim.ValueOf(w, v))
		}
		for _, port := range p1 {
			if port.Dir != circsim.Output {
				continue
			}
			a, b := h.Get(port.Name), h.Get(port.Name+"'")
			if !a.Equal(b) {
				if !exhaustive {
					t.Logf("random seed: %d", seed)
				}
				t.Fatal(errString(in, h.State(), port.Name, a, b))
			}
		}
	}
	t.Logf("%d input combinations in %v", iter, time.Since(start))
}
