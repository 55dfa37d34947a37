// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/db47h/circsim/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at link time for release builds.
var Version string

// cfg is loaded before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:           "circsim",
	Short:         "A digital logic circuit simulator.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			cfg, err = config.LoadFromPath(path)
		} else {
			cfg, _, err = config.Load()
		}
		if err != nil {
			return err
		}
		log.SetLevel(cfg.LogLevel())
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		tty := term.IsTerminal(int(os.Stderr.Fd()))
		log.SetFormatter(&log.TextFormatter{ForceColors: tty, DisableColors: !tty, FullTimestamp: !tty})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !getFlag(cmd, "version") {
			return cmd.Help()
		}
		fmt.Print("circsim ")
		if Version != "" {
			fmt.Print(Version)
		} else if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Print(info.Main.Version)
		} else {
			fmt.Print("(unknown version)")
		}
		fmt.Println()
		return nil
	},
}

// Execute runs the root command.
//
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("config", "", "config file (default: lookup)")
}
