package cli

import (
	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/core/components"
	"github.com/zeusync/snapshot/internal/core/models"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		followers int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Save a generated demo world",
		Long: `Build a small world (a player, a chain of followers forming a faction and
an unsaved beacon they follow) and print its snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := demoWorld(rootOpts, followers)
			if err != nil {
				return err
			}
			data, err := rootOpts.App.Engine.Save(w)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().IntVarP(&followers, "followers", "n", 3, "number of followers in the party")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")

	return cmd
}

func demoWorld(rootOpts *RootOptions, followers int) (*models.World, error) {
	w := models.NewWorld()
	if err := components.Demo(w, rootOpts.App.Engine.Options().Marker, followers); err != nil {
		return nil, err
	}
	return w, nil
}
