package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/transfer"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch <ws-url>",
		Short: "Download a snapshot from a serve instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := transfer.Client{MaxMessageSize: rootOpts.App.Config.Transfer.MaxMessageSize}
			doc, err := client.Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := doc.Bytes(rootOpts.App.Config.Snapshot.Indent)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "give up after this long")

	return cmd
}
