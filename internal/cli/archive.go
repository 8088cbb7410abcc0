package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/archive"
	"github.com/zeusync/snapshot/internal/injector"
)

// NewArchiveCommand creates the archive command group.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Keep snapshots in named slots",
		Long:  "Store, read and remove snapshot documents in the archive configured by archive.dir.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "put <slot> <file|->",
		Short: "Store a document in a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			return withArchive(rootOpts, func(a *archive.Archive) error {
				rec, err := a.Put(args[0], data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %016x\n", rec.Slot, rec.ID, rec.Fingerprint)
				return nil
			})
		},
	})

	var output string
	get := &cobra.Command{
		Use:   "get <slot>",
		Short: "Print the document of a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, func(a *archive.Archive) error {
				rec, err := a.Get(args[0])
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, rec.Document)
			})
		},
	}
	get.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.AddCommand(get)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <slot>",
		Short: "Remove a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, func(a *archive.Archive) error {
				return a.Delete(args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, func(a *archive.Archive) error {
				entries, err := a.Slots()
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s %s %016x %d\n",
						e.Slot, e.ID, e.ID.Time().Format("2006-01-02T15:04:05Z07:00"), e.Fingerprint, e.Entities)
				}
				return nil
			})
		},
	})

	return cmd
}

func withArchive(rootOpts *RootOptions, fn func(a *archive.Archive) error) error {
	a, cleanup, err := injector.InitializeArchive(rootOpts.App.Config, rootOpts.App.Logger)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(a)
}
