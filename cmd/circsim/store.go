// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/db47h/circsim/format"
	"github.com/db47h/circsim/internal/store"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the project store.",
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.Store.Path
	}
	return store.Open(path)
}

var storeSaveCmd = &cobra.Command{
	Use:   "save NAME FILE",
	Short: "Store a circuit file under NAME.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := format.ReadFile(args[1])
		if err != nil {
			return err
		}
		// refuse files that would not load
		if err = newProject().Load(f); err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		e, err := s.Save(cmd.Context(), args[0], f)
		if err != nil {
			return err
		}
		fmt.Printf("%s saved as %s\n", e.Name, e.ID)
		return nil
	},
}

var storeLoadCmd = &cobra.Command{
	Use:   "load NAME [FILE]",
	Short: "Write the project stored under NAME to FILE, or to stdout.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		f, err := s.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return format.WriteFile(args[1], f)
		}
		return format.Encode(os.Stdout, f)
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		es, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCIRCUITS\tUPDATED\tID")
		for _, e := range es {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Name, e.Circuits, e.Updated.Format(time.RFC3339), e.ID)
		}
		return w.Flush()
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete a stored project.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Delete(cmd.Context(), args[0])
	},
}

func init() {
	storeCmd.PersistentFlags().String("db", "", "project database (default: from config)")
	storeCmd.AddCommand(storeSaveCmd, storeLoadCmd, storeListCmd, storeRmCmd)
	rootCmd.AddCommand(storeCmd)
}
