// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/db47h/circsim"
	"github.com/db47h/circsim/format"
	"github.com/db47h/circsim/project"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Load a circuit file, drive its input pins and print its pins.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := format.ReadFile(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("circuit")
		sets, _ := cmd.Flags().GetStringArray("set")
		ticks, _ := cmd.Flags().GetInt("ticks")
		d, _ := cmd.Flags().GetDuration("for")
		return run(os.Stdout, f, name, sets, ticks, d)
	},
}

func init() {
	runCmd.Flags().String("circuit", "", "circuit to run (default: the first one)")
	runCmd.Flags().StringArray("set", nil, "set input pin `name=value`, value as in 01x or a decimal number")
	runCmd.Flags().Int("ticks", 0, "number of clock ticks to run")
	runCmd.Flags().Duration("for", 0, "run the clock in real time for the given duration")
	rootCmd.AddCommand(runCmd)
}

// newProject returns an empty project set up from the configuration. The
// configured clock frequency is only a default: a loaded file with a clock
// speed overrides it.
//
func newProject() *project.Project {
	sim := circsim.NewSimulator(circsim.MaxIterations(cfg.Simulation.MaxIterations))
	if err := sim.Clock().SetFrequency(cfg.Clock.Frequency); err != nil {
		log.WithError(err).Warn("configured clock frequency ignored")
	}
	return project.New(sim, project.HistoryLimit(cfg.History.Limit))
}

func run(w io.Writer, f *format.File, name string, sets []string, ticks int, d time.Duration) error {
	p := newProject()
	if err := p.Load(f); err != nil {
		return err
	}
	b := p.Boards()[0]
	if name != "" {
		if b = p.Board(name); b == nil {
			return errors.Errorf("no circuit named %q", name)
		}
	}
	s := b.State()
	for _, set := range sets {
		if err := setPin(b, set); err != nil {
			return err
		}
	}

	clk := p.Simulator().Clock()
	for i := 0; i < ticks; i++ {
		if err := clk.Tick(); err != nil {
			log.WithError(err).WithField("tick", clk.Ticks()).Warn("tick did not settle")
		}
	}
	if d > 0 {
		clk.StopOnError(cfg.Clock.StopOnError)
		if err := clk.Start(clk.Frequency()); err != nil {
			return err
		}
		time.Sleep(d)
		clk.Stop()
	}

	fmt.Fprintf(w, "%s (%d ticks)\n", b.Name(), clk.Ticks())
	for _, c := range b.Circuit().Pins() {
		dir := "in "
		if c.Property(circsim.PropDirection) == circsim.DirOut {
			dir = "out"
		}
		fmt.Fprintf(w, "  %s %-12s %s\n", dir, c.Name(), s.Value(c, 0))
	}
	if e := b.Err(); e != "" {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	return nil
}

// setPin parses a name=value assignment and applies it to the top level state
// of b.
//
func setPin(b *project.Board, set string) error {
	i := strings.IndexByte(set, '=')
	if i < 0 {
		return errors.Errorf("invalid pin assignment %q", set)
	}
	name, val := set[:i], set[i+1:]
	for _, c := range b.Circuit().Pins() {
		if c.Name() != name {
			continue
		}
		v, err := parseValue(val, c.Port(0).Width)
		if err != nil {
			return errors.Wrap(err, name)
		}
		return b.Circuit().TopLevelState().SetPin(c, v)
	}
	return errors.Errorf("no pin named %q in %s", name, b.Name())
}

// parseValue accepts either a bit string of exactly width bits or a decimal
// number.
//
func parseValue(s string, width int) (circsim.Value, error) {
	if len(s) == width {
		if v, err := circsim.ParseValue(s); err == nil {
			return v, nil
		}
	}
	var n uint32
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return circsim.Value{}, errors.Errorf("invalid value %q", s)
	}
	return circsim.ValueOf(width, n), nil
}
