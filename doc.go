// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package circsim is an event driven simulator for hierarchical digital logic
circuits.

A Circuit is a named set of Components whose ports are connected by Links.
Values are 4-state bit vectors up to 32 bits wide: every bit is 0, 1,
floating or error. A Link merges the values driven by all its ports; two
drivers disagreeing on a bit produce an error on that bit.

A circuit can be used as a component in another one through a subcircuit. Each
instantiation gets its own CircuitState, so two instances of the same circuit
keep independent values and memory. States live in an arena owned by the
Simulator and refer to each other by ID.

The Simulator propagates changes from a FIFO work queue until no component
has anything left to do. A pass that does not settle within the configured
number of iterations leaves an *OscillationError on the state where it
stopped. Structural calls never fail because of oscillation.

The Clock drives every CLOCK component of the simulator, either on demand
with Tick or periodically once started.

Package project adds editing on top of the engine: a layout per circuit,
undo/redo through package history and automatic maintenance of subcircuits
when the circuits they wrap change. Package circlib composes circuits from
parts the way a hardware description language would.
*/
package circsim
