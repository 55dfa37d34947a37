// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxIterations is the default bound on component updates per
// propagation pass.
//
const DefaultMaxIterations = 50000

// SubcircuitPolicy selects what happens to the nested states of a subcircuit
// component when it is replaced by another one.
//
type SubcircuitPolicy int

const (
	// PreserveSameCircuit moves the nested state subtree over to the new
	// component, memory included, if both components wrap the same nested
	// circuit. Otherwise the subtree is destroyed and a fresh one created.
	PreserveSameCircuit SubcircuitPolicy = iota
	// ResetAlways always destroys the nested state subtree of the old
	// component and creates a fresh one for the new component.
	ResetAlways
)

type dirty struct {
	s *CircuitState
	c *Component
}

// Simulator is the propagation engine. It owns the arena of every
// CircuitState, the queue of pending component updates across all of them and
// the Clock.
//
// All methods of Circuit, CircuitState and Clock run under the simulator lock
// and return only once propagation has settled (or hit the iteration bound),
// so concurrent readers only ever observe quiescent values.
//
type Simulator struct {
	mu sync.Mutex

	states []*CircuitState
	live   *bitset.BitSet

	queue  []dirty
	head   int
	queued map[dirty]struct{}

	maxIter int
	policy  SubcircuitPolicy
	clock   *Clock
}

// An Option configures a Simulator.
//
type Option func(*Simulator)

// MaxIterations sets the maximum number of component updates in a single
// propagation pass before reporting an oscillation.
//
func MaxIterations(n int) Option {
	return func(sim *Simulator) {
		if n > 0 {
			sim.maxIter = n
		}
	}
}

// Policy sets the subcircuit state policy used when replacing components.
//
func Policy(p SubcircuitPolicy) Option {
	return func(sim *Simulator) { sim.policy = p }
}

// NewSimulator returns a new Simulator.
//
func NewSimulator(opts ...Option) *Simulator {
	sim := &Simulator{
		live:    bitset.New(64),
		queued:  make(map[dirty]struct{}),
		maxIter: DefaultMaxIterations,
	}
	for _, o := range opts {
		o(sim)
	}
	sim.clock = newClock(sim)
	return sim
}

// Clock returns the simulator clock.
//
func (sim *Simulator) Clock() *Clock { return sim.clock }

// States returns every live state, in creation order.
//
func (sim *Simulator) States() []*CircuitState {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.liveStates()
}

func (sim *Simulator) liveStates() []*CircuitState {
	ss := make([]*CircuitState, 0, sim.live.Count())
	for i, ok := sim.live.NextSet(0); ok; i, ok = sim.live.NextSet(i + 1) {
		ss = append(ss, sim.states[i])
	}
	return ss
}

// Run drains the update queue. It returns an *OscillationError if the queue
// did not empty within the iteration bound.
//
func (sim *Simulator) Run() error {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.run()
}

// Walk calls fn for s and each of its descendants, in pre-order. Each state is
// visited once. If fn returns false, the descendants of that state are
// skipped.
//
func (sim *Simulator) Walk(s *CircuitState, fn func(*CircuitState) bool) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.walk(s, fn)
}

func (sim *Simulator) walk(root *CircuitState, fn func(*CircuitState) bool) {
	visited := bitset.New(uint(len(sim.states)))
	var rec func(s *CircuitState)
	rec = func(s *CircuitState) {
		if visited.Test(uint(s.id)) {
			return
		}
		visited.Set(uint(s.id))
		if !fn(s) {
			return
		}
		for _, ch := range s.childList() {
			rec(ch)
		}
	}
	rec(root)
}

func (sim *Simulator) enqueue(s *CircuitState, c *Component) {
	d := dirty{s, c}
	if _, ok := sim.queued[d]; ok {
		return
	}
	sim.queued[d] = struct{}{}
	sim.queue = append(sim.queue, d)
}

func (sim *Simulator) run() error {
	n := 0
	var touched []*CircuitState
	updates := make(map[*CircuitState]int)
	for sim.head < len(sim.queue) {
		d := sim.queue[sim.head]
		live := d.s.alive && d.c.circuit == d.s.circuit
		if live && n >= sim.maxIter {
			return sim.abort(updates)
		}
		sim.head++
		delete(sim.queued, d)
		if !live {
			continue
		}
		n++
		if _, ok := updates[d.s]; !ok {
			touched = append(touched, d.s)
		}
		updates[d.s]++
		d.c.spec.Update(d.s, d.c)
	}
	sim.queue = sim.queue[:0]
	sim.head = 0
	for _, s := range touched {
		s.err = nil
	}
	if n > 0 {
		log.Debugf("propagation settled after %d updates in %d states", n, len(touched))
	}
	return nil
}

// abort flags every live state that still has pending updates with an
// *OscillationError. Pending updates stay queued for the next pass. The
// returned error is the one of the flagged state that ran the most updates.
//
func (sim *Simulator) abort(updates map[*CircuitState]int) error {
	sim.compact()
	var ret error
	best := -1
	flagged := make(map[*CircuitState]struct{})
	for _, d := range sim.queue {
		s := d.s
		if !s.alive || d.c.circuit != s.circuit {
			continue
		}
		if _, ok := flagged[s]; ok {
			continue
		}
		flagged[s] = struct{}{}
		err := &OscillationError{Circuit: s.circuit.name, Iterations: sim.maxIter}
		s.err = err
		log.WithField("circuit", s.circuit.name).Warn(err)
		if updates[s] > best {
			ret, best = err, updates[s]
		}
	}
	return ret
}

func (sim *Simulator) compact() {
	k := copy(sim.queue, sim.queue[sim.head:])
	sim.queue = sim.queue[:k]
	sim.head = 0
}

// newState creates a state for circuit c. If parent is not nil, the state is
// instantiated by subcircuit component comp in parent. Nested states for the
// subcircuits of c are created recursively and every component is scheduled
// for update.
//
func (sim *Simulator) newState(c *Circuit, parent *CircuitState, comp *Component) *CircuitState {
	s := &CircuitState{
		sim:        sim,
		id:         len(sim.states),
		circuit:    c,
		alive:      true,
		parent:     -1,
		parentComp: comp,
		children:   make(map[*Component]int),
		driven:     make(map[PortRef]Value),
		links:      make(map[*Link]Value),
		shorts:     make(map[*Link]bool),
		memory:     make(map[*Component]interface{}),
	}
	if parent != nil {
		s.parent = parent.id
		parent.children[comp] = s.id
	}
	sim.states = append(sim.states, s)
	sim.live.Set(uint(s.id))
	c.states = append(c.states, s)
	for _, cc := range c.components {
		sim.attach(s, cc)
	}
	return s
}

// attach sets up component c in state s.
//
func (sim *Simulator) attach(s *CircuitState, c *Component) {
	if c.spec.Memory != nil {
		s.memory[c] = c.spec.Memory(c)
	}
	if c.sub != nil {
		seedPins(s, c, sim.newState(c.sub, s, c))
	}
	sim.enqueue(s, c)
}

// destroy tears down s and all its descendants.
//
func (sim *Simulator) destroy(s *CircuitState) {
	for _, id := range s.children {
		sim.destroy(sim.states[id])
	}
	s.alive = false
	sim.live.Clear(uint(s.id))
	if p := s.parentState(); p != nil && p.alive && p.children[s.parentComp] == s.id {
		delete(p.children, s.parentComp)
	}
	cs := s.circuit.states
	for i := range cs {
		if cs[i] == s {
			s.circuit.states = append(cs[:i:i], cs[i+1:]...)
			break
		}
	}
	s.children = nil
	s.driven = nil
	s.links = nil
	s.shorts = nil
	s.memory = nil
}
