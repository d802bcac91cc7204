package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalidEntry = errors.New("name and address must not be blank")

// entryFlags are the editable fields shared by add and update.
type entryFlags struct {
	name     string
	address  string
	inSeason bool
	notes    string
}

func (e *entryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.name, "name", "", "name of the plant")
	cmd.Flags().StringVar(&e.address, "address", "", "where to find it")
	cmd.Flags().BoolVar(&e.inSeason, "in-season", false, "currently in season")
	cmd.Flags().StringVar(&e.notes, "notes", "", "free-form notes")
}

func newAddCmd(a *app) *cobra.Command {
	var e entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a forageable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.vm.IsValidEntry(e.name, e.address) {
				return errInvalidEntry
			}
			a.vm.AddForageable(e.name, e.address, e.inSeason, e.notes)
			fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", e.name)
			return nil
		},
	}
	e.bind(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var e entryFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a forageable's fields",
		Long:  "Replace every editable field of a forageable. Fields not given are cleared, as on the edit screen.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !a.vm.IsValidEntry(e.name, e.address) {
				return errInvalidEntry
			}
			a.vm.UpdateForageable(id, e.name, e.address, e.inSeason, e.notes)
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", id)
			return nil
		},
	}
	e.bind(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a forageable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := lookup(cmd.Context(), a, id, defaultWait)
			if err != nil {
				return err
			}
			a.vm.DeleteForageable(f)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d (%s)\n", f.ID, f.Name)
			return nil
		},
	}
	return cmd
}
