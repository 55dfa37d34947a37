// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circsim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Clock drives every CLOCK component of a simulator. Each tick flips the clock
// level and propagates the change in every live state, so a full clock cycle
// is two ticks. At a frequency of f Hz, the periodic driver ticks 2*f times
// per second.
//
// The tick counter only ever increases.
//
type Clock struct {
	sim *Simulator

	ctl sync.Mutex // serializes Start, SetFrequency and Stop

	mu          sync.Mutex
	running     bool
	hz          int
	stop, done  chan struct{}
	stopOnError bool
	listeners   []TickFn

	ticks uint64 // atomic
	rate  int64  // atomic, ticks during the last full second

	// guarded by sim.mu
	level     bool
	rateStart time.Time
	rateTicks int64
}

// MaxFrequency is the highest clock frequency in Hz.
//
const MaxFrequency = 1000000

// A TickFn is called after a clock tick with the new tick count.
//
type TickFn func(ticks uint64)

func checkFrequency(hz int) error {
	if hz <= 0 || hz > MaxFrequency {
		return errors.Errorf("invalid clock frequency %d: must be between 1 and %d", hz, MaxFrequency)
	}
	return nil
}

func newClock(sim *Simulator) *Clock {
	return &Clock{sim: sim, hz: 1}
}

// Running returns true if the periodic driver is running.
//
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Frequency returns the configured frequency in Hz.
//
func (c *Clock) Frequency() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hz
}

// Ticks returns the global tick count.
//
func (c *Clock) Ticks() uint64 { return atomic.LoadUint64(&c.ticks) }

// Rate returns the number of ticks delivered during the last full second.
//
func (c *Clock) Rate() int64 { return atomic.LoadInt64(&c.rate) }

// Level returns the current clock level.
//
func (c *Clock) Level() bool {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	return c.level
}

// StopOnError sets whether the periodic driver stops by itself when a tick
// leaves a state in oscillation.
//
func (c *Clock) StopOnError(stop bool) {
	c.mu.Lock()
	c.stopOnError = stop
	c.mu.Unlock()
}

// OnTick registers fn to be called after every tick, once propagation has
// settled. fn is called from the periodic driver goroutine and must not call
// Stop.
//
func (c *Clock) OnTick(fn TickFn) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Start starts the periodic driver at the given frequency. If the clock is
// already running, the driver is re-armed at the new frequency.
//
func (c *Clock) Start(hz int) error {
	if err := checkFrequency(hz); err != nil {
		return err
	}
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.restart(hz)
	return nil
}

// restart stops the driver and arms it again at hz. c.ctl must be held.
//
func (c *Clock) restart(hz int) {
	c.halt()
	c.mu.Lock()
	c.hz = hz
	c.arm()
	c.mu.Unlock()
	log.WithField("hz", hz).Debug("clock started")
}

// SetFrequency changes the clock frequency. A running clock keeps running at
// the new frequency, a stopped clock stays stopped.
//
func (c *Clock) SetFrequency(hz int) error {
	if err := checkFrequency(hz); err != nil {
		return err
	}
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.mu.Lock()
	running := c.running
	if !running {
		c.hz = hz
	}
	c.mu.Unlock()
	if running {
		c.restart(hz)
	}
	return nil
}

// arm starts the driver goroutine. c.mu must be held.
//
func (c *Clock) arm() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running = true
	go c.loop(time.Second/time.Duration(2*c.hz), c.stop, c.done)
}

// Stop stops the periodic driver. Once Stop returns, no more ticks are
// delivered until the clock is started again.
//
func (c *Clock) Stop() {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.halt()
}

// halt stops the driver goroutine and waits for it to exit. c.ctl must be
// held.
//
func (c *Clock) halt() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.running = false
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
		log.Debug("clock stopped")
	}
}

// Reset stops the clock and brings its level back low. The tick count is
// left untouched.
//
func (c *Clock) Reset() error {
	c.Stop()
	sim := c.sim
	sim.mu.Lock()
	defer sim.mu.Unlock()
	atomic.StoreInt64(&c.rate, 0)
	if !c.level {
		return nil
	}
	c.level = false
	c.enqueueAll()
	return sim.run()
}

// Tick flips the clock level and propagates it, whether the periodic driver
// runs or not. It returns an *OscillationError if propagation did not settle.
//
func (c *Clock) Tick() error {
	return c.tick()
}

func (c *Clock) tick() error {
	sim := c.sim
	sim.mu.Lock()
	c.level = !c.level
	n := atomic.AddUint64(&c.ticks, 1)
	c.measure()
	c.enqueueAll()
	err := sim.run()
	sim.mu.Unlock()

	c.mu.Lock()
	ls := append([]TickFn{}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range ls {
		fn(n)
	}
	return err
}

// enqueueAll schedules every clock component in every live state.
//
func (c *Clock) enqueueAll() {
	for _, s := range c.sim.liveStates() {
		for _, comp := range s.circuit.components {
			if comp.kind == KindClock {
				c.sim.enqueue(s, comp)
			}
		}
	}
}

func (c *Clock) measure() {
	now := time.Now()
	if c.rateStart.IsZero() || now.Sub(c.rateStart) >= time.Second {
		if !c.rateStart.IsZero() {
			atomic.StoreInt64(&c.rate, c.rateTicks)
		}
		c.rateStart = now
		c.rateTicks = 0
	}
	c.rateTicks++
}

// value returns the clock level as a 1 bit value. sim.mu must be held.
//
func (c *Clock) value() Value {
	if c.level {
		return ValueOf(1, 1)
	}
	return ValueOf(1, 0)
}

func (c *Clock) loop(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		// Stop may have been called while waiting.
		select {
		case <-stop:
			return
		default:
		}
		if err := c.tick(); err != nil {
			c.mu.Lock()
			halt := c.stopOnError && c.stop == stop
			if halt {
				c.running = false
				c.stop, c.done = nil, nil
			}
			c.mu.Unlock()
			if halt {
				log.WithError(err).Warn("clock stopped on simulation error")
				return
			}
		}
	}
}
