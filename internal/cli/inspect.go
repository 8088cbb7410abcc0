package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file|->",
		Short: "Describe a snapshot document",
		Long: `Print the columns of a document and the outcome of loading it into an
empty world, including schema drift against the registered component types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return runInspect(cmd, rootOpts.App.Engine, data)
		},
	}

	return cmd
}

func runInspect(cmd *cobra.Command, engine *snapshot.Engine, data []byte) error {
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		return err
	}
	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "fingerprint: %016x\n", fingerprint)
	fmt.Fprintf(out, "rows: %d\n", doc.Len())
	for _, name := range doc.Types() {
		rows, _ := doc.Column(name)
		fmt.Fprintf(out, "  %-20s %d\n", name, len(rows))
	}

	report, err := engine.Restore(models.NewWorld(), doc)
	if err != nil {
		fmt.Fprintf(out, "load: failed: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "load: %d entities, %d orphans\n", report.Entities, report.Orphans)
	if report.SchemaDrift() {
		if len(report.UnknownTypes) > 0 {
			fmt.Fprintf(out, "unknown types: %s\n", strings.Join(report.UnknownTypes, ", "))
		}
		if len(report.MissingTypes) > 0 {
			fmt.Fprintf(out, "missing types: %s\n", strings.Join(report.MissingTypes, ", "))
		}
	}
	return nil
}
