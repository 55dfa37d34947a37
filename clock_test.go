package circsim_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cs "github.com/db47h/circsim"
)

func TestClock_manual(t *testing.T) {
	sim := cs.NewSimulator()
	clk := sim.Clock()
	var notified uint64
	clk.OnTick(func(n uint64) { atomic.StoreUint64(&notified, n) })
	for i := uint64(1); i <= 4; i++ {
		if err := clk.Tick(); err != nil {
			t.Fatal(err)
		}
		if n := clk.Ticks(); n != i {
			t.Fatalf("expected %d ticks, got %d", i, n)
		}
		if clk.Level() != (i%2 == 1) {
			t.Fatalf("bad level after %d ticks", i)
		}
	}
	if n := atomic.LoadUint64(&notified); n != 4 {
		t.Fatalf("expected listener called with 4, got %d", n)
	}
	if clk.Running() {
		t.Fatal("manual ticks must not start the clock")
	}
}

func TestClock_startStop(t *testing.T) {
	sim := cs.NewSimulator()
	clk := sim.Clock()
	if err := clk.Start(0); err == nil {
		t.Fatal("expected error for a zero frequency")
	}
	var last uint64
	for i := 0; i < 3; i++ {
		if err := clk.Start(500); err != nil {
			t.Fatal(err)
		}
		if !clk.Running() {
			t.Fatal("clock not running")
		}
		time.Sleep(30 * time.Millisecond)
		clk.Stop()
		if clk.Running() {
			t.Fatal("clock still running")
		}
		n := clk.Ticks()
		if n < last {
			t.Fatalf("tick count decreased from %d to %d", last, n)
		}
		last = n
		time.Sleep(10 * time.Millisecond)
		if n = clk.Ticks(); n != last {
			t.Fatalf("ticks delivered after Stop returned: %d != %d", n, last)
		}
	}
	if last == 0 {
		t.Fatal("no ticks delivered")
	}

	// changing the frequency keeps the running flag
	if err := clk.SetFrequency(50); err != nil {
		t.Fatal(err)
	}
	if clk.Running() || clk.Frequency() != 50 {
		t.Fatal("SetFrequency must not start a stopped clock")
	}
	if err := clk.Start(50); err != nil {
		t.Fatal(err)
	}
	if err := clk.SetFrequency(200); err != nil {
		t.Fatal(err)
	}
	if !clk.Running() || clk.Frequency() != 200 {
		t.Fatal("SetFrequency must keep a running clock running")
	}
	if err := clk.Reset(); err != nil {
		t.Fatal(err)
	}
	if clk.Running() || clk.Level() {
		t.Fatal("Reset must stop the clock and bring it low")
	}
	if clk.Ticks() < last {
		t.Fatal("Reset must not decrease the tick count")
	}
}

func TestClock_frequencyRange(t *testing.T) {
	sim := cs.NewSimulator()
	clk := sim.Clock()
	for _, hz := range []int{-1, 0, cs.MaxFrequency + 1, 1000000000} {
		if err := clk.Start(hz); err == nil {
			clk.Stop()
			t.Fatalf("Start(%d): expected an error", hz)
		}
		if err := clk.SetFrequency(hz); err == nil {
			t.Fatalf("SetFrequency(%d): expected an error", hz)
		}
	}
	if clk.Running() || clk.Frequency() != 1 {
		t.Fatalf("rejected frequencies changed the clock: running=%v, %d Hz", clk.Running(), clk.Frequency())
	}
	if err := clk.SetFrequency(cs.MaxFrequency); err != nil {
		t.Fatal(err)
	}
}

func TestClock_concurrentStart(t *testing.T) {
	sim := cs.NewSimulator()
	clk := sim.Clock()
	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var err error
				if i%2 == 0 {
					err = clk.Start(500)
				} else {
					err = clk.SetFrequency(400)
				}
				if err != nil {
					t.Error(err)
				}
			}(i)
		}
		wg.Wait()
		clk.Stop()
		n := clk.Ticks()
		time.Sleep(5 * time.Millisecond)
		if m := clk.Ticks(); m != n {
			t.Fatalf("round %d: ticks delivered after Stop returned: %d != %d", round, m, n)
		}
	}
}

func TestClock_stopOnError(t *testing.T) {
	sim := cs.NewSimulator(cs.MaxIterations(100))
	c := cs.NewCircuit(sim, "ring")
	src := add(t, c, cs.KindClock, nil, 0, 0)
	zero := pin(t, c, "zero", "1", cs.DirIn, 0, 3)
	mux := add(t, c, cs.KindMux, nil, 10, 0)
	not := add(t, c, cs.KindNot, nil, 20, 0)
	link(t, c, ref(src, "clk"), ref(mux, "sel"))
	link(t, c, ref(zero, "zero"), ref(mux, "in0"))
	link(t, c, ref(mux, "out"), ref(not, "in"))
	link(t, c, ref(not, "out"), ref(mux, "in1"))

	clk := sim.Clock()
	clk.StopOnError(true)
	if err := clk.Start(100); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for clk.Running() {
		if time.Now().After(deadline) {
			clk.Stop()
			t.Fatal("clock did not stop on oscillation")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.TopLevelState().Err() == nil {
		t.Fatal("expected oscillation error")
	}
	clk.Stop()
}
