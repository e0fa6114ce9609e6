package main

import (
	"context"
	"fmt"

	"github.com/skyline93/js5/internal/js5"
	"github.com/spf13/cobra"
)

var cmdArchive = &cobra.Command{
	Use:   "archive",
	Short: "Manage archives",
}

var cmdArchiveCreate = &cobra.Command{
	Use:   "create [ID]",
	Short: "Create the next archive",
	Long: `
The "archive create" command creates the index file of the next archive and
prints its id. When an ID is given it must be the next consecutive id.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	Args:              cobra.MaximumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchiveCreate(cmd.Context(), cmd, args)
	},
}

func init() {
	cmdRoot.AddCommand(cmdArchive)
	cmdArchive.AddCommand(cmdArchiveCreate)
}

func runArchiveCreate(ctx context.Context, cmd *cobra.Command, args []string) error {
	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	if len(args) == 0 {
		a, err := fsys.CreateArchive()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a)
		return fsys.Close()
	}

	a, err := js5.ParseArchiveID(args[0])
	if err != nil {
		return err
	}
	if err := fsys.CreateArchiveWithID(a); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a)
	return fsys.Close()
}
